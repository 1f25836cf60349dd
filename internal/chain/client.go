// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package chain is the network access layer: JSON-RPC reads and broadcasts
// against per-network ordered endpoint lists. Every operation walks the
// list in order and fails only when all endpoints have been exhausted,
// surfacing the last underlying error. Nothing here touches vault state.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"

	"github.com/elanchou/falconvault/internal/config"
	"github.com/elanchou/falconvault/internal/events"
	"github.com/elanchou/falconvault/internal/logger"
	"github.com/elanchou/falconvault/models"
)

// ErrUnknownNetwork is returned when a request names a network absent
// from the configuration.
var ErrUnknownNetwork = errors.New("unknown network")

// defaultBalanceTimeout caps each endpoint attempt of the native-balance
// query so one slow endpoint cannot stall the whole lookup.
const defaultBalanceTimeout = 5 * time.Second

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Client executes JSON-RPC operations with per-network endpoint failover.
type Client struct {
	networks map[string]config.Network
	http     *resty.Client
	bus      *events.Bus
	log      *logger.Logger

	// balanceTimeout bounds each endpoint attempt of GetBalance.
	balanceTimeout time.Duration
}

// NewClient builds a Client from the configured network list.
func NewClient(networks []config.Network, bus *events.Bus, log *logger.Logger) *Client {
	byName := make(map[string]config.Network, len(networks))
	for _, n := range networks {
		byName[n.Name] = n
	}

	return &Client{
		networks:       byName,
		http:           resty.New().SetHeader("Content-Type", "application/json"),
		bus:            bus,
		log:            log,
		balanceTimeout: defaultBalanceTimeout,
	}
}

// ChainID returns the configured chain ID for network.
func (c *Client) ChainID(network string) (*big.Int, error) {
	n, ok := c.networks[network]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
	return big.NewInt(n.ChainID), nil
}

// call walks the network's endpoint list in order. A transport error, a
// non-2xx status, or a JSON-RPC error object moves on to the next
// endpoint; only when the whole list fails does call return an error,
// wrapping the last one seen. A non-zero attemptTimeout bounds each
// endpoint attempt separately, so one slow endpoint costs at most that
// long before failover.
func (c *Client) call(ctx context.Context, network, method string, params []any, attemptTimeout time.Duration) (json.RawMessage, error) {
	n, ok := c.networks[network]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}

	body := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}
	if params == nil {
		body.Params = []any{}
	}

	var lastErr error
	for i, endpoint := range n.Endpoints {
		result, err := c.attempt(ctx, endpoint, body, attemptTimeout)
		if err != nil {
			lastErr = fmt.Errorf("endpoint %s: %w", endpoint, err)
			c.failover(network, method, endpoint, i, len(n.Endpoints), lastErr)
			continue
		}
		return result, nil
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w: network %q has no endpoints", ErrUnknownNetwork, network)
	}
	return nil, fmt.Errorf("all %d endpoints of network %q failed for %s: %w",
		len(n.Endpoints), network, method, lastErr)
}

// attempt executes one request against one endpoint. Its timer context is
// released when the attempt returns, not when the whole failover walk
// does.
func (c *Client) attempt(ctx context.Context, endpoint string, body rpcRequest, timeout time.Duration) (json.RawMessage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http %d", resp.StatusCode())
	}

	var decoded rpcResponse
	if err = json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}

	return decoded.Result, nil
}

func (c *Client) failover(network, method, endpoint string, idx, total int, err error) {
	c.log.Warn().
		Str("network", network).
		Str("method", method).
		Str("endpoint", endpoint).
		Int("attempt", idx+1).
		Int("endpoints", total).
		Err(err).
		Msg("rpc endpoint failed")

	if c.bus != nil {
		c.bus.Publish("endpoint_failover", "rpc endpoint failed", map[string]string{
			"network":  network,
			"method":   method,
			"endpoint": endpoint,
		})
	}
}

// callString invokes method and decodes the result as a JSON string.
func (c *Client) callString(ctx context.Context, network, method string, params []any, attemptTimeout time.Duration) (string, error) {
	raw, err := c.call(ctx, network, method, params, attemptTimeout)
	if err != nil {
		return "", err
	}

	var out string
	if err = json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode %s result: %w", method, err)
	}
	return out, nil
}

// GetBalance fetches the native-currency balance of address in wei. Each
// endpoint attempt is bounded by a five second timeout.
func (c *Client) GetBalance(ctx context.Context, network, address string) (*big.Int, error) {
	hexBalance, err := c.callString(ctx, network, "eth_getBalance", []any{address, "latest"}, c.balanceTimeout)
	if err != nil {
		return nil, err
	}

	balance, err := hexutil.DecodeBig(hexBalance)
	if err != nil {
		return nil, fmt.Errorf("decode balance %q: %w", hexBalance, err)
	}
	return balance, nil
}

// GetNonce fetches the pending transaction count of address.
func (c *Client) GetNonce(ctx context.Context, network, address string) (uint64, error) {
	hexNonce, err := c.callString(ctx, network, "eth_getTransactionCount", []any{address, "pending"}, 0)
	if err != nil {
		return 0, err
	}

	nonce, err := hexutil.DecodeUint64(hexNonce)
	if err != nil {
		return 0, fmt.Errorf("decode nonce %q: %w", hexNonce, err)
	}
	return nonce, nil
}

// Call executes a read-only contract call and returns the 0x-hex result.
// callObject carries the standard eth_call fields (to, data, ...).
func (c *Client) Call(ctx context.Context, network string, callObject map[string]any) (string, error) {
	return c.callString(ctx, network, "eth_call", []any{callObject, "latest"}, 0)
}

// EstimateGas asks the network for a gas estimate of callObject.
func (c *Client) EstimateGas(ctx context.Context, network string, callObject map[string]any) (uint64, error) {
	hexGas, err := c.callString(ctx, network, "eth_estimateGas", []any{callObject}, 0)
	if err != nil {
		return 0, err
	}

	gas, err := hexutil.DecodeUint64(hexGas)
	if err != nil {
		return 0, fmt.Errorf("decode gas estimate %q: %w", hexGas, err)
	}
	return gas, nil
}

// Broadcast submits an already-signed raw transaction and returns the
// transaction hash.
func (c *Client) Broadcast(ctx context.Context, network, rawTx string) (string, error) {
	return c.callString(ctx, network, "eth_sendRawTransaction", []any{rawTx}, 0)
}

// GetTokenBalance fetches an ERC-20 balanceOf(holder) on the token
// contract, in the token's smallest unit.
func (c *Client) GetTokenBalance(ctx context.Context, network, token, holder string) (*big.Int, error) {
	data := balanceOfCalldata(holder)
	result, err := c.Call(ctx, network, map[string]any{"to": token, "data": data})
	if err != nil {
		return nil, err
	}
	if result == "" || result == "0x" {
		return new(big.Int), nil
	}

	balance, ok := new(big.Int).SetString(trim0x(result), 16)
	if !ok {
		return nil, fmt.Errorf("decode token balance %q", result)
	}
	return balance, nil
}

// FetchBalances fetches the balance of address on every configured
// network concurrently and merges the results keyed by network. A failed
// native-balance fetch fails that network's entry; a failed token fetch
// degrades to zero without failing the lookup.
func (c *Client) FetchBalances(ctx context.Context, address string) map[string]models.NetworkBalance {
	type result struct {
		name    string
		balance models.NetworkBalance
		err     error
	}

	results := make(chan result, len(c.networks))
	var wg sync.WaitGroup
	for name := range c.networks {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			b, err := c.networkBalance(ctx, name, address)
			results <- result{name: name, balance: b, err: err}
		}(name)
	}
	wg.Wait()
	close(results)

	merged := make(map[string]models.NetworkBalance, len(c.networks))
	for r := range results {
		if r.err != nil {
			c.log.Warn().Str("network", r.name).Err(r.err).Msg("balance fetch failed")
			continue
		}
		merged[r.name] = r.balance
	}
	return merged
}

// networkBalance assembles one network's display balance: fatal on native
// failure, degrade-to-zero per token.
func (c *Client) networkBalance(ctx context.Context, network, address string) (models.NetworkBalance, error) {
	native, err := c.GetBalance(ctx, network, address)
	if err != nil {
		return models.NetworkBalance{}, err
	}

	out := models.NetworkBalance{
		Network: network,
		Address: address,
		Native:  FormatAmount(native, 18),
	}

	tokens := c.networks[network].Tokens
	if len(tokens) == 0 {
		return out, nil
	}

	out.Tokens = make(map[string]string, len(tokens))
	for _, t := range tokens {
		balance, err := c.GetTokenBalance(ctx, network, t.Address, address)
		if err != nil {
			c.log.Debug().
				Str("network", network).
				Str("token", t.Symbol).
				Err(err).
				Msg("token balance degraded to zero")
			out.Tokens[t.Symbol] = "0"
			continue
		}
		out.Tokens[t.Symbol] = FormatAmount(balance, t.Decimals)
	}

	return out, nil
}

// balanceOfCalldata builds ERC-20 balanceOf(address) calldata: the
// 4-byte selector 0x70a08231 plus the holder left-padded to 32 bytes.
func balanceOfCalldata(holder string) string {
	addr := common.HexToAddress(holder)
	data := make([]byte, 0, 36)
	data = append(data, 0x70, 0xa0, 0x82, 0x31)
	data = append(data, common.LeftPadBytes(addr.Bytes(), 32)...)
	return hexutil.Encode(data)
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
