// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package models

// VaultStore is the single persisted unit. It is always written as a
// whole: every mutation replaces the previous serialization entirely.
type VaultStore struct {
	// Wallets is the full wallet list.
	Wallets []WalletRecord `json:"wallets"`

	// MasterHash is the hex SHA-256 of the master password, compared on
	// unlock. It is a fast hash, distinct from the slow KDF used for key
	// encryption (a property of the store format, kept as-is).
	MasterHash string `json:"masterHash"`

	// Settings holds the vault behavior switches and attribute schema.
	Settings VaultSettings `json:"settings"`

	// Checksum is the hex SHA-256 over {wallets, settings}, recomputed on
	// every save and re-verified on unlock. A mismatch signals out-of-band
	// tampering but does not block the unlock.
	Checksum string `json:"checksum"`
}

// VaultBackup is the human-exportable form of a vault: wallet records with
// their encrypted blobs plus settings, without masterHash or checksum.
// Re-import merges records by ID into the current session's vault.
type VaultBackup struct {
	Wallets  []WalletRecord `json:"wallets"`
	Settings VaultSettings  `json:"settings"`
}
