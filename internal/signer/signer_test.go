package signer

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elanchou/falconvault/models"
)

// Hardhat development account #0.
const (
	testKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestParsePrivateKey(t *testing.T) {
	for _, input := range []string{testKey, "0x" + testKey, "  " + testKey + "  "} {
		key, err := ParsePrivateKey(input)
		require.NoError(t, err, input)
		assert.Equal(t, testAddress, AddressFromKey(key))
	}

	for _, input := range []string{"", "0x", "zz", testKey[:30], testKey + "00"} {
		_, err := ParsePrivateKey(input)
		assert.ErrorIs(t, err, ErrInvalidPrivateKey, input)
	}
}

func TestSignMessage_RecoversToSignerAddress(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)

	sigHex, err := NewService().SignMessage(key, "hello falconvault")
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.GreaterOrEqual(t, sig[64], byte(27))

	// Recover with V shifted back to {0, 1}.
	sig[64] -= 27
	pub, err := ethcrypto.SigToPub(accounts.TextHash([]byte("hello falconvault")), sig)
	require.NoError(t, err)
	assert.Equal(t, testAddress, ethcrypto.PubkeyToAddress(*pub).Hex())
}

func txField[T any](v T) *T { return &v }

func TestSignTransaction_Legacy(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)

	to := testAddress
	signed, err := NewService().SignTransaction(key, models.TxRequest{
		To:       &to,
		Nonce:    txField(hexutil.Uint64(7)),
		ChainID:  (*hexutil.Big)(hexutil.MustDecodeBig("0x1")),
		Gas:      txField(hexutil.Uint64(21000)),
		GasPrice: (*hexutil.Big)(hexutil.MustDecodeBig("0x3b9aca00")),
		Value:    (*hexutil.Big)(hexutil.MustDecodeBig("0xde0b6b3a7640000")),
	})
	require.NoError(t, err)

	raw, err := hexutil.Decode(signed.Raw)
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, types.LegacyTxType, int(decoded.Type()))
	assert.Equal(t, uint64(7), decoded.Nonce())
	assert.Equal(t, "1000000000000000000", decoded.Value().String())
	assert.Equal(t, signed.Hash, decoded.Hash().Hex())

	sender, err := types.Sender(types.LatestSignerForChainID(decoded.ChainId()), &decoded)
	require.NoError(t, err)
	assert.Equal(t, testAddress, sender.Hex())
}

func TestSignTransaction_DynamicFee(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)

	to := testAddress
	signed, err := NewService().SignTransaction(key, models.TxRequest{
		To:                   &to,
		Nonce:                txField(hexutil.Uint64(0)),
		ChainID:              (*hexutil.Big)(hexutil.MustDecodeBig("0x1")),
		Gas:                  txField(hexutil.Uint64(21000)),
		MaxFeePerGas:         (*hexutil.Big)(hexutil.MustDecodeBig("0x77359400")),
		MaxPriorityFeePerGas: (*hexutil.Big)(hexutil.MustDecodeBig("0x3b9aca00")),
	})
	require.NoError(t, err)

	raw, err := hexutil.Decode(signed.Raw)
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, types.DynamicFeeTxType, int(decoded.Type()))
	assert.Equal(t, "2000000000", decoded.GasFeeCap().String())
	assert.Equal(t, "1000000000", decoded.GasTipCap().String())

	sender, err := types.Sender(types.LatestSignerForChainID(decoded.ChainId()), &decoded)
	require.NoError(t, err)
	assert.Equal(t, testAddress, sender.Hex())
}

func TestSignTransaction_ContractCreation(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)

	signed, err := NewService().SignTransaction(key, models.TxRequest{
		Nonce:    txField(hexutil.Uint64(0)),
		ChainID:  (*hexutil.Big)(hexutil.MustDecodeBig("0x1")),
		Gas:      txField(hexutil.Uint64(100000)),
		GasPrice: (*hexutil.Big)(hexutil.MustDecodeBig("0x3b9aca00")),
		Data:     hexutil.MustDecode("0x6080604052"),
	})
	require.NoError(t, err)

	raw, err := hexutil.Decode(signed.Raw)
	require.NoError(t, err)
	var decoded types.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Nil(t, decoded.To())
}

func TestSignTransaction_MissingFieldsReportedByName(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)
	svc := NewService()

	base := func() models.TxRequest {
		return models.TxRequest{
			Nonce:    txField(hexutil.Uint64(0)),
			ChainID:  (*hexutil.Big)(hexutil.MustDecodeBig("0x1")),
			Gas:      txField(hexutil.Uint64(21000)),
			GasPrice: (*hexutil.Big)(hexutil.MustDecodeBig("0x1")),
		}
	}

	tests := []struct {
		field  string
		mutate func(*models.TxRequest)
	}{
		{"nonce", func(tx *models.TxRequest) { tx.Nonce = nil }},
		{"chainId", func(tx *models.TxRequest) { tx.ChainID = nil }},
		{"gas", func(tx *models.TxRequest) { tx.Gas = nil }},
		{"gasPrice", func(tx *models.TxRequest) { tx.GasPrice = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			tx := base()
			tt.mutate(&tx)
			_, err := svc.SignTransaction(key, tx)
			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestSignTransaction_RejectsBadRecipient(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)

	to := "not-an-address"
	_, err = NewService().SignTransaction(key, models.TxRequest{
		To:       &to,
		Nonce:    txField(hexutil.Uint64(0)),
		ChainID:  (*hexutil.Big)(hexutil.MustDecodeBig("0x1")),
		Gas:      txField(hexutil.Uint64(21000)),
		GasPrice: (*hexutil.Big)(hexutil.MustDecodeBig("0x1")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

const typedDataPayload = `{
  "domain": {"name": "FalconVault", "version": "1", "chainId": "1"},
  "types": {
    "EIP712Domain": [
      {"name": "name", "type": "string"},
      {"name": "version", "type": "string"},
      {"name": "chainId", "type": "uint256"}
    ],
    "Person": [
      {"name": "name", "type": "string"},
      {"name": "wallet", "type": "address"}
    ],
    "Mail": [
      {"name": "from", "type": "Person"},
      {"name": "to", "type": "Person"},
      {"name": "contents", "type": "string"}
    ]
  },
  "value": {
    "from": {"name": "Alice", "wallet": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
    "to": {"name": "Bob", "wallet": "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"},
    "contents": "Hello, Bob!"
  }
}`

func TestSignTypedData_InfersPrimaryTypeAndRecovers(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)

	sigHex, err := NewService().SignTypedData(key, json.RawMessage(typedDataPayload))
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	// Rebuild the digest independently with an explicit primary type:
	// Mail is the only type no other type references, so it must have
	// been the inferred one.
	var env struct {
		Domain apitypes.TypedDataDomain `json:"domain"`
		Types  apitypes.Types           `json:"types"`
		Value  apitypes.TypedDataMessage `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(typedDataPayload), &env))

	hash, _, err := apitypes.TypedDataAndHash(apitypes.TypedData{
		Domain:      env.Domain,
		Types:       env.Types,
		Message:     env.Value,
		PrimaryType: "Mail",
	})
	require.NoError(t, err)

	sig[64] -= 27
	pub, err := ethcrypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, testAddress, ethcrypto.PubkeyToAddress(*pub).Hex())
}

func TestSignTypedData_MissingMembersReportedByName(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)
	svc := NewService()

	tests := []struct {
		field   string
		payload string
	}{
		{"domain", `{"types": {"A": []}, "value": {}}`},
		{"types", `{"domain": {}, "value": {}}`},
		{"value", `{"domain": {}, "types": {"A": []}}`},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			_, err := svc.SignTypedData(key, json.RawMessage(tt.payload))
			var missing *MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestSignTypedData_RejectsMalformedPayload(t *testing.T) {
	key, err := ParsePrivateKey(testKey)
	require.NoError(t, err)

	_, err = NewService().SignTypedData(key, json.RawMessage(`not json`))
	require.Error(t, err)
}
