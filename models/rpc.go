// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package models

import "encoding/json"

// Operation names accepted by the dispatcher. These are the wire contract
// and must not be renamed.
const (
	OpGetBalance         = "eth_getBalance"
	OpCall               = "eth_call"
	OpEstimateGas        = "eth_estimateGas"
	OpSendRawTransaction = "eth_sendRawTransaction"
	OpSignTransaction    = "eth_signTransaction"
	OpPersonalSign       = "personal_sign"
	OpSignTypedData      = "eth_signTypedData"
	OpListWallets        = "vault_listWallets"
	OpGetAddress         = "vault_getAddress"
	OpImportPrivateKey   = "vault_importPrivateKey"
)

// Coarse error codes exposed in error responses.
const (
	CodeValidationError = "validation_error"
	CodeExecutionError  = "execution_error"
	CodeNetworkError    = "network_error"
	CodeVaultLocked     = "vault_locked"
)

// Request is the declarative operation object consumed by the dispatcher.
type Request struct {
	// Type is one of the Op* operation names.
	Type string `json:"type"`

	// WalletLabel selects the signing wallet for signing operations.
	WalletLabel string `json:"walletLabel,omitempty"`

	// Network selects the chain for read/broadcast operations.
	// Defaults to mainnet when empty.
	Network string `json:"network,omitempty"`

	// Address is a legacy alias for payload.address on balance queries.
	Address string `json:"address,omitempty"`

	// Payload carries operation-specific parameters.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is a flat JSON object: {"status": "success"|"error"} plus
// operation-specific fields, or {"error", "code"} on failure. A map keeps
// the operation fields at the top level as the wire contract requires.
type Response map[string]any

// SuccessResponse builds a success response for the given operation.
func SuccessResponse(operation string) Response {
	return Response{"status": "success", "operation": operation}
}

// ErrorResponse builds an error response with a coarse code and a
// human-readable message.
func ErrorResponse(operation, code, message string) Response {
	resp := Response{"status": "error", "error": message, "code": code}
	if operation != "" {
		resp["operation"] = operation
	}
	return resp
}

// With adds one operation-specific field and returns the response for
// chaining.
func (r Response) With(key string, value any) Response {
	r[key] = value
	return r
}
