// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elanchou/falconvault/models"
)

// fileStorage persists the vault as one JSON file. Writes go through a
// temp file and rename so a crash mid-write never leaves a truncated
// vault behind.
type fileStorage struct {
	path string
}

// NewFileStorage constructs a [Storage] backed by the JSON file at path.
// The parent directory is created on first save.
func NewFileStorage(path string) Storage {
	return &fileStorage{path: path}
}

// Load implements [Storage]. Settings are unmarshalled over
// [models.DefaultSettings], so fields absent from stores written by older
// versions keep their defaults while explicitly stored values survive.
func (f *fileStorage) Load(ctx context.Context) (*models.VaultStore, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrVaultNotFound
		}
		return nil, fmt.Errorf("read vault file: %w", err)
	}

	store := &models.VaultStore{Settings: models.DefaultSettings()}
	if err = json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("decode vault file: %w", err)
	}
	if store.Wallets == nil {
		store.Wallets = []models.WalletRecord{}
	}

	return store, nil
}

// Save implements [Storage].
func (f *fileStorage) Save(ctx context.Context, store *models.VaultStore) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vault-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp vault file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp vault file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp vault file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp vault file: %w", err)
	}

	if err = os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace vault file: %w", err)
	}

	return nil
}
