// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package models

import (
	"time"

	"github.com/google/uuid"
)

// EncryptedBlob is a string alias representing an encrypted private key
// envelope: base64(salt ‖ nonce ‖ ciphertext). The vault treats it as
// opaque; only the keychain can open it.
type EncryptedBlob string

// WalletRecord is a single imported account. The private key is stored
// encrypted under the vault's master password; Address is derived from the
// plaintext key at import time and cached so the UI can display it without
// a decrypt round-trip.
type WalletRecord struct {
	// ID uniquely identifies the record across exports and merges.
	ID string `json:"id"`

	// Label is the user-facing name. Unique within a vault.
	Label string `json:"label"`

	// Address is the 0x-prefixed EIP-55 address derived from the key.
	Address string `json:"address"`

	// EncryptedPrivateKey holds the key material, AEAD-sealed.
	EncryptedPrivateKey EncryptedBlob `json:"encryptedPrivateKey"`

	// Metadata is an open key→value mapping interpreted against the
	// vault's attribute definitions (see VaultSettings).
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt records when the wallet was imported.
	CreatedAt time.Time `json:"createdAt"`
}

// NewWalletRecord builds a record with a fresh ID and creation timestamp.
func NewWalletRecord(label, address string, encKey EncryptedBlob, metadata map[string]string) WalletRecord {
	return WalletRecord{
		ID:                  uuid.NewString(),
		Label:               label,
		Address:             address,
		EncryptedPrivateKey: encKey,
		Metadata:            metadata,
		CreatedAt:           time.Now().UTC(),
	}
}
