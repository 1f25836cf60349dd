// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package models

// NetworkBalance is the display-formatted balance of one address on one
// network: the native amount plus per-token amounts keyed by symbol.
// Token entries that could not be fetched are reported as zero rather
// than failing the whole lookup.
type NetworkBalance struct {
	Network string            `json:"network"`
	Address string            `json:"address"`
	Native  string            `json:"native"`
	Tokens  map[string]string `json:"tokens,omitempty"`
}
