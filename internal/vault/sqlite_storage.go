// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package vault

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/elanchou/falconvault/internal/logger"
	"github.com/elanchou/falconvault/models"
)

// vaultKey is the well-known key the serialized unit lives under.
const vaultKey = "falconvault"

// sqliteStorage persists the vault in a one-row key/value table. The unit
// stays a single JSON blob; sqlite only supplies durable, transactional
// local storage.
type sqliteStorage struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSQLiteStorage opens (creating if necessary) the sqlite database at
// dsn and ensures the vault table exists.
func NewSQLiteStorage(ctx context.Context, dsn string, log *logger.Logger) (Storage, error) {
	if err := createLocalDBFileIfNotExists(dsn); err != nil {
		log.Err(err).Str("func", "NewSQLiteStorage").Msg("error creating database file")
		return nil, fmt.Errorf("create database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS vault (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`
	if _, err = db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create vault table: %w", err)
	}

	return &sqliteStorage{db: db, log: log}, nil
}

// Load implements [Storage].
func (s *sqliteStorage) Load(ctx context.Context) (*models.VaultStore, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM vault WHERE key = ?`, vaultKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVaultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read vault row: %w", err)
	}

	store := &models.VaultStore{Settings: models.DefaultSettings()}
	if err = json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("decode vault row: %w", err)
	}
	if store.Wallets == nil {
		store.Wallets = []models.WalletRecord{}
	}

	return store, nil
}

// Save implements [Storage].
func (s *sqliteStorage) Save(ctx context.Context, store *models.VaultStore) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}

	const upsert = `INSERT INTO vault (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err = s.db.ExecContext(ctx, upsert, vaultKey, data); err != nil {
		return fmt.Errorf("write vault row: %w", err)
	}

	return nil
}

// Close releases the database handle. The file backend has no handle to
// release, so Close lives on the sqlite type only; the composition root
// closes through io.Closer.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}
