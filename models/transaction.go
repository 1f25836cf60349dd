// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package models

import "github.com/ethereum/go-ethereum/common/hexutil"

// TxRequest carries the caller-supplied transaction fields for
// eth_signTransaction. Nonce, chain ID, and gas parameters are mandatory
// inputs: the signer never fetches chain state itself — assembling these
// via the network layer is an explicit prior step.
type TxRequest struct {
	// To is the 0x-prefixed recipient. Nil deploys a contract.
	To *string `json:"to,omitempty"`

	// Nonce is the account nonce.
	Nonce *hexutil.Uint64 `json:"nonce"`

	// ChainID selects the EIP-155 replay-protection domain.
	ChainID *hexutil.Big `json:"chainId"`

	// Gas is the gas limit.
	Gas *hexutil.Uint64 `json:"gas"`

	// GasPrice prices a legacy transaction. Mutually exclusive with the
	// dynamic-fee pair below; when MaxFeePerGas is set, an EIP-1559
	// transaction is produced instead.
	GasPrice *hexutil.Big `json:"gasPrice,omitempty"`

	// MaxFeePerGas and MaxPriorityFeePerGas price a dynamic-fee
	// transaction.
	MaxFeePerGas         *hexutil.Big `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big `json:"maxPriorityFeePerGas,omitempty"`

	// Value is the native amount in wei.
	Value *hexutil.Big `json:"value,omitempty"`

	// Data is the call data.
	Data hexutil.Bytes `json:"data,omitempty"`
}

// SignedTx is the result of eth_signTransaction: the RLP-encoded signed
// transaction and its hash, both 0x-hex.
type SignedTx struct {
	Raw  string `json:"raw"`
	Hash string `json:"hash"`
}
