package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elanchou/falconvault/internal/config"
	"github.com/elanchou/falconvault/internal/events"
	"github.com/elanchou/falconvault/internal/logger"
)

const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

// rpcServer answers every JSON-RPC request with the given result, or an
// HTTP 500 when result is empty.
func rpcServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if result == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req rpcRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "2.0", req.JSONRPC)
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":%q}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(networks ...config.Network) *Client {
	return NewClient(networks, events.NewBus(), logger.Nop())
}

func TestClient_GetBalance(t *testing.T) {
	srv := rpcServer(t, "0xde0b6b3a7640000") // 1 ether
	client := testClient(config.Network{Name: "mainnet", ChainID: 1, Endpoints: []string{srv.URL}})

	balance, err := client.GetBalance(context.Background(), "mainnet", testAddress)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance.String())
}

func TestClient_UnknownNetwork(t *testing.T) {
	client := testClient()

	_, err := client.GetBalance(context.Background(), "mainnet", testAddress)
	assert.ErrorIs(t, err, ErrUnknownNetwork)

	_, err = client.ChainID("mainnet")
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestClient_FailoverTriesEndpointsInOrder(t *testing.T) {
	var calls atomic.Int64
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(dead.Close)
	rpcErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"busy"}}`)
	}))
	t.Cleanup(rpcErr.Close)
	good := rpcServer(t, "0x5")

	bus := events.NewBus()
	var failovers atomic.Int64
	bus.Subscribe(func(e events.Event) {
		if e.Type == "endpoint_failover" {
			failovers.Add(1)
		}
	})

	client := NewClient([]config.Network{{
		Name:      "mainnet",
		ChainID:   1,
		Endpoints: []string{"http://127.0.0.1:1", dead.URL, rpcErr.URL, good.URL},
	}}, bus, logger.Nop())

	nonce, err := client.GetNonce(context.Background(), "mainnet", testAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, int64(3), failovers.Load())
}

func TestClient_GetBalanceFailsOverFromStalledEndpoint(t *testing.T) {
	// The first endpoint never answers; the per-attempt timeout must cut
	// it off and move on to the healthy one.
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	t.Cleanup(stalled.Close)
	good := rpcServer(t, "0xde0b6b3a7640000")

	client := testClient(config.Network{
		Name:      "mainnet",
		ChainID:   1,
		Endpoints: []string{stalled.URL, good.URL},
	})
	client.balanceTimeout = 100 * time.Millisecond

	start := time.Now()
	balance, err := client.GetBalance(context.Background(), "mainnet", testAddress)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance.String())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_AllEndpointsFailSurfacesLastError(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(dead.Close)

	client := testClient(config.Network{
		Name:      "mainnet",
		ChainID:   1,
		Endpoints: []string{"http://127.0.0.1:1", dead.URL},
	})

	_, err := client.GetBalance(context.Background(), "mainnet", testAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 endpoints")
	assert.Contains(t, err.Error(), "http 503")
}

func TestClient_EstimateGasAndBroadcast(t *testing.T) {
	srv := rpcServer(t, "0x5208")
	client := testClient(config.Network{Name: "mainnet", ChainID: 1, Endpoints: []string{srv.URL}})

	gas, err := client.EstimateGas(context.Background(), "mainnet", map[string]any{"to": testAddress})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)

	hash, err := client.Broadcast(context.Background(), "mainnet", "0x02f86b")
	require.NoError(t, err)
	assert.Equal(t, "0x5208", hash)
}

func TestClient_GetTokenBalanceBuildsBalanceOfCall(t *testing.T) {
	token := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "eth_call", req.Method)
		call := req.Params[0].(map[string]any)
		assert.Equal(t, token, call["to"])
		assert.Equal(t, "0x70a08231000000000000000000000000f39fd6e51aad88f6f4ce6ab8827279cfffb92266", call["data"])
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":"0x0000000000000000000000000000000000000000000000000000000005f5e100"}`)
	}))
	t.Cleanup(srv.Close)

	client := testClient(config.Network{Name: "mainnet", ChainID: 1, Endpoints: []string{srv.URL}})

	balance, err := client.GetTokenBalance(context.Background(), "mainnet", token, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "100000000", balance.String())
}

func TestClient_FetchBalancesDegradesTokensAndSkipsFailedNetworks(t *testing.T) {
	// mainnet: native balance works, the token endpoint answers with an
	// rpc error so the token degrades to zero.
	mainnet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Method == "eth_getBalance" {
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":"0xde0b6b3a7640000"}`)
			return
		}
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"execution reverted"}}`)
	}))
	t.Cleanup(mainnet.Close)

	client := testClient(
		config.Network{
			Name:      "mainnet",
			ChainID:   1,
			Endpoints: []string{mainnet.URL},
			Tokens:    []config.Token{{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6}},
		},
		config.Network{Name: "sepolia", ChainID: 11155111, Endpoints: []string{"http://127.0.0.1:1"}},
	)

	balances := client.FetchBalances(context.Background(), testAddress)
	require.Len(t, balances, 1)

	got := balances["mainnet"]
	assert.Equal(t, "1", got.Native)
	assert.Equal(t, "0", got.Tokens["USDC"])
}
