// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

// Package signer implements the signing operations of the oracle: EIP-191
// personal message signing, transaction signing (legacy and dynamic-fee),
// and EIP-712 typed-data signing.
//
// Every operation is a pure function of (plaintext key, input). Nothing
// here fetches chain state or persists anything; nonce, chain ID, and gas
// parameters arrive from the caller, which obtains them through the
// network layer as an explicit prior step.
package signer

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/elanchou/falconvault/models"
)

// Service exposes the three signing operations over an already-decrypted
// private key.
type Service interface {
	// SignMessage signs text under the EIP-191 personal-message scheme:
	// keccak256("\x19Ethereum Signed Message:\n" + len(message) + message),
	// then secp256k1. Returns a 65-byte 0x-hex signature with V in
	// {27, 28}.
	SignMessage(key *ecdsa.PrivateKey, message string) (string, error)

	// SignTransaction signs the caller-assembled transaction fields.
	// Nonce, chainId, gas, and a gas price (legacy gasPrice or the
	// EIP-1559 fee pair) are mandatory; a missing one is reported by name.
	SignTransaction(key *ecdsa.PrivateKey, tx models.TxRequest) (models.SignedTx, error)

	// SignTypedData signs an EIP-712 payload {domain, types, value}.
	// A missing member is reported by name.
	SignTypedData(key *ecdsa.PrivateKey, payload json.RawMessage) (string, error)
}

type service struct{}

// NewService constructs the signing [Service].
func NewService() Service {
	return &service{}
}

// ParsePrivateKey decodes a hex private key (0x prefix optional) into an
// ECDSA key on secp256k1. Returns ErrInvalidPrivateKey for anything that
// is not a valid 32-byte scalar.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := ethcrypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return key, nil
}

// AddressFromKey derives the EIP-55 checksummed address of key.
func AddressFromKey(key *ecdsa.PrivateKey) string {
	return ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
}

// SignMessage implements [Service].
func (s *service) SignMessage(key *ecdsa.PrivateKey, message string) (string, error) {
	hash := accounts.TextHash([]byte(message))

	sig, err := ethcrypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}

	return hexutil.Encode(sig), nil
}

// SignTransaction implements [Service].
func (s *service) SignTransaction(key *ecdsa.PrivateKey, tx models.TxRequest) (models.SignedTx, error) {
	switch {
	case tx.Nonce == nil:
		return models.SignedTx{}, &MissingFieldError{Field: "nonce"}
	case tx.ChainID == nil:
		return models.SignedTx{}, &MissingFieldError{Field: "chainId"}
	case tx.Gas == nil:
		return models.SignedTx{}, &MissingFieldError{Field: "gas"}
	case tx.GasPrice == nil && tx.MaxFeePerGas == nil:
		return models.SignedTx{}, &MissingFieldError{Field: "gasPrice"}
	}

	var to *common.Address
	if tx.To != nil {
		if !common.IsHexAddress(*tx.To) {
			return models.SignedTx{}, fmt.Errorf("invalid recipient address %q", *tx.To)
		}
		addr := common.HexToAddress(*tx.To)
		to = &addr
	}

	value := new(big.Int)
	if tx.Value != nil {
		value = tx.Value.ToInt()
	}
	chainID := tx.ChainID.ToInt()

	var unsigned *types.Transaction
	if tx.MaxFeePerGas != nil {
		tip := tx.MaxFeePerGas.ToInt()
		if tx.MaxPriorityFeePerGas != nil {
			tip = tx.MaxPriorityFeePerGas.ToInt()
		}
		unsigned = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     uint64(*tx.Nonce),
			GasTipCap: tip,
			GasFeeCap: tx.MaxFeePerGas.ToInt(),
			Gas:       uint64(*tx.Gas),
			To:        to,
			Value:     value,
			Data:      tx.Data,
		})
	} else {
		unsigned = types.NewTx(&types.LegacyTx{
			Nonce:    uint64(*tx.Nonce),
			GasPrice: tx.GasPrice.ToInt(),
			Gas:      uint64(*tx.Gas),
			To:       to,
			Value:    value,
			Data:     tx.Data,
		})
	}

	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return models.SignedTx{}, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return models.SignedTx{}, fmt.Errorf("encode signed transaction: %w", err)
	}

	return models.SignedTx{
		Raw:  hexutil.Encode(raw),
		Hash: signed.Hash().Hex(),
	}, nil
}

// typedDataEnvelope mirrors the wire payload of eth_signTypedData.
type typedDataEnvelope struct {
	Domain json.RawMessage `json:"domain"`
	Types  json.RawMessage `json:"types"`
	Value  json.RawMessage `json:"value"`
}

// SignTypedData implements [Service].
func (s *service) SignTypedData(key *ecdsa.PrivateKey, payload json.RawMessage) (string, error) {
	var env typedDataEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", fmt.Errorf("decode typed data payload: %w", err)
	}

	switch {
	case isAbsent(env.Domain):
		return "", &MissingFieldError{Field: "domain"}
	case isAbsent(env.Types):
		return "", &MissingFieldError{Field: "types"}
	case isAbsent(env.Value):
		return "", &MissingFieldError{Field: "value"}
	}

	var td apitypes.TypedData
	if err := json.Unmarshal(env.Domain, &td.Domain); err != nil {
		return "", fmt.Errorf("decode typed data domain: %w", err)
	}
	if err := json.Unmarshal(env.Types, &td.Types); err != nil {
		return "", fmt.Errorf("decode typed data types: %w", err)
	}
	if err := json.Unmarshal(env.Value, &td.Message); err != nil {
		return "", fmt.Errorf("decode typed data value: %w", err)
	}

	td.PrimaryType = primaryType(td.Types)
	if td.PrimaryType == "" {
		return "", fmt.Errorf("typed data defines no signable type")
	}

	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return "", fmt.Errorf("hash typed data: %w", err)
	}

	sig, err := ethcrypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("sign typed data: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}

	return hexutil.Encode(sig), nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

// primaryType infers the EIP-712 primary type: the non-domain type that no
// other type references. Falls back to the first non-domain type when the
// reference graph is ambiguous.
func primaryType(typesMap apitypes.Types) string {
	referenced := make(map[string]bool)
	for _, fields := range typesMap {
		for _, f := range fields {
			referenced[strings.TrimSuffix(f.Type, "[]")] = true
		}
	}

	names := make([]string, 0, len(typesMap))
	for name := range typesMap {
		if name != "EIP712Domain" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if !referenced[name] {
			return name
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}
