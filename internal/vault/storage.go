// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package vault

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/elanchou/falconvault/internal/crypto"
	"github.com/elanchou/falconvault/models"
)

// ErrVaultNotFound is returned by Load when no vault has been created yet.
var ErrVaultNotFound = errors.New("vault not found")

// Storage persists the vault as a single unit. Save always replaces the
// previous serialization entirely; there is no partial write visible to
// callers.
type Storage interface {
	// Load reads the persisted vault. Absence is reported as
	// ErrVaultNotFound, which callers treat as "no vault exists yet".
	Load(ctx context.Context) (*models.VaultStore, error)

	// Save writes the full store, overwriting any prior content.
	Save(ctx context.Context, store *models.VaultStore) error
}

// checksumPayload fixes the field order the integrity hash is computed
// over. Wallet metadata maps serialize with sorted keys under
// encoding/json, so the serialization — and therefore the checksum — is
// deterministic.
type checksumPayload struct {
	Wallets  []models.WalletRecord `json:"wallets"`
	Settings models.VaultSettings  `json:"settings"`
}

// ComputeChecksum returns the hex SHA-256 over {wallets, settings}.
func ComputeChecksum(keychain crypto.KeyChainService, wallets []models.WalletRecord, settings models.VaultSettings) string {
	payload, err := json.Marshal(checksumPayload{Wallets: wallets, Settings: settings})
	if err != nil {
		// Marshalling plain data structs cannot fail; an empty checksum
		// would only ever surface as an integrity warning.
		return ""
	}
	return keychain.Hash(payload)
}

// VerifyIntegrity recomputes the checksum over the store's current
// wallets and settings and compares it with the persisted one. A mismatch
// signals out-of-band tampering; it is a warning, not an unlock blocker.
func VerifyIntegrity(keychain crypto.KeyChainService, store *models.VaultStore) bool {
	if store.Checksum == "" {
		// Stores written before checksums were recorded.
		return true
	}
	return ComputeChecksum(keychain, store.Wallets, store.Settings) == store.Checksum
}
