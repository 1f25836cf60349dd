// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/elanchou/falconvault/internal/crypto"
	"github.com/elanchou/falconvault/internal/events"
	"github.com/elanchou/falconvault/internal/logger"
	"github.com/elanchou/falconvault/internal/signer"
	"github.com/elanchou/falconvault/models"
)

// minPasswordLength is a policy floor, not a cryptographic requirement.
const minPasswordLength = 6

// Session is the in-memory lock/unlock state machine over the persisted
// vault. It is the only component that ever holds the plaintext master
// password, and only while unlocked. All mutations are serialized through
// its mutex; there is exactly one writer context.
//
// The derived masterHash is computed once at Create/Unlock and reused for
// every persist within the session; only ChangePassword recomputes it.
type Session struct {
	storage  Storage
	keychain crypto.KeyChainService
	bus      *events.Bus
	log      *logger.Logger

	mu           sync.Mutex
	locked       bool
	password     string
	masterHash   string
	wallets      []models.WalletRecord
	settings     models.VaultSettings
	lastActivity time.Time
}

// NewSession constructs a locked Session over storage.
func NewSession(storage Storage, keychain crypto.KeyChainService, bus *events.Bus, log *logger.Logger) *Session {
	return &Session{
		storage:      storage,
		keychain:     keychain,
		bus:          bus,
		log:          log,
		locked:       true,
		lastActivity: time.Now(),
	}
}

// HasVault reports whether a vault has been created and persisted.
func (s *Session) HasVault(ctx context.Context) bool {
	_, err := s.storage.Load(ctx)
	return err == nil
}

// IsLocked reports the lock flag.
func (s *Session) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Create initializes a brand new vault under password and leaves the
// session unlocked. Fails when a vault already exists or the password is
// shorter than six characters.
func (s *Session) Create(ctx context.Context, password string) error {
	if len(password) < minPasswordLength {
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.storage.Load(ctx); err == nil {
		return ErrVaultExists
	} else if !errors.Is(err, ErrVaultNotFound) {
		return fmt.Errorf("check existing vault: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets = []models.WalletRecord{}
	s.settings = models.DefaultSettings()
	s.masterHash = s.keychain.Hash([]byte(password))
	s.password = password
	s.locked = false
	s.lastActivity = time.Now()

	if err := s.persistLocked(ctx); err != nil {
		s.clearLocked()
		return err
	}

	s.publishLocked("vault_created", "vault initialized", nil)
	return nil
}

// Unlock verifies password against the stored master hash and, on match,
// loads wallets and settings into working memory. It returns false both
// when no vault exists and when the password is wrong; the cause is not
// revealed. A checksum mismatch is reported as a warning and does not
// block the unlock.
func (s *Session) Unlock(ctx context.Context, password string) bool {
	store, err := s.storage.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrVaultNotFound) {
			s.log.Err(err).Msg("unlock: load vault")
		}
		return false
	}

	hash := s.keychain.Hash([]byte(password))
	if hash != store.MasterHash {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets = store.Wallets
	s.settings = store.Settings
	s.masterHash = hash
	s.password = password
	s.locked = false
	s.lastActivity = time.Now()

	if !VerifyIntegrity(s.keychain, store) {
		s.log.Warn().Msg("vault checksum mismatch: store may have been modified out of band")
		s.publishLocked("integrity_warning", "vault checksum mismatch", nil)
	}

	s.publishLocked("vault_unlocked", "vault unlocked", nil)
	return true
}

// Lock clears the master password from memory first, then flips the lock
// flag and drops the working wallet list. Calling Lock on a locked
// session is a no-op.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return
	}

	s.publishLocked("vault_locked", "vault locked", nil)
	s.clearLocked()
}

// clearLocked resets session state. Password first: it must be the first
// thing gone. Caller holds the mutex.
func (s *Session) clearLocked() {
	s.password = ""
	s.masterHash = ""
	s.locked = true
	s.wallets = nil
	s.settings = models.VaultSettings{}
}

// Touch records user activity for the inactivity auto-lock.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns the time of the most recent Touch (or unlock).
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Settings returns a copy of the working settings. Requires Unlocked.
func (s *Session) Settings() (models.VaultSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.VaultSettings{}, ErrVaultLocked
	}
	return s.settings, nil
}

// ListWallets returns a copy of the working wallet list. Requires
// Unlocked.
func (s *Session) ListWallets() ([]models.WalletRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, ErrVaultLocked
	}

	out := make([]models.WalletRecord, len(s.wallets))
	copy(out, s.wallets)
	return out, nil
}

// GetAddress resolves a wallet label to its cached address without any
// decryption.
func (s *Session) GetAddress(label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return "", ErrVaultLocked
	}

	for _, w := range s.wallets {
		if w.Label == label {
			return w.Address, nil
		}
	}
	return "", fmt.Errorf("%w: no wallet with label %q", ErrWalletNotFound, label)
}

// AddWallet validates and imports a private key under label: parses the
// key, derives the address, encrypts the key material under the session
// password, and persists the grown wallet list. Duplicate labels are
// rejected.
func (s *Session) AddWallet(ctx context.Context, label, privateKeyHex string, metadata map[string]string) (models.WalletRecord, error) {
	if label == "" {
		return models.WalletRecord{}, validationErrorf("wallet label must not be empty")
	}

	key, err := signer.ParsePrivateKey(privateKeyHex)
	if err != nil {
		return models.WalletRecord{}, validationErrorf("invalid private key format")
	}
	address := signer.AddressFromKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.WalletRecord{}, ErrVaultLocked
	}

	for _, w := range s.wallets {
		if w.Label == label {
			return models.WalletRecord{}, validationErrorf("wallet label %q already exists", label)
		}
	}

	blob, err := s.keychain.Encrypt(normalizedKeyBytes(privateKeyHex), s.password)
	if err != nil {
		return models.WalletRecord{}, fmt.Errorf("encrypt private key: %w", err)
	}

	record := models.NewWalletRecord(label, address, blob, metadata)

	next := append(append([]models.WalletRecord{}, s.wallets...), record)
	if err = s.persistWalletsLocked(ctx, next); err != nil {
		return models.WalletRecord{}, err
	}

	s.publishLocked("wallet_added", "wallet imported", map[string]string{"label": label, "address": address})
	return record, nil
}

// RemoveWallet deletes the record with the given id and persists.
func (s *Session) RemoveWallet(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return ErrVaultLocked
	}

	next := make([]models.WalletRecord, 0, len(s.wallets))
	found := false
	for _, w := range s.wallets {
		if w.ID == id {
			found = true
			continue
		}
		next = append(next, w)
	}
	if !found {
		return fmt.Errorf("%w: no wallet with id %q", ErrWalletNotFound, id)
	}

	if err := s.persistWalletsLocked(ctx, next); err != nil {
		return err
	}

	s.publishLocked("wallet_removed", "wallet removed", map[string]string{"id": id})
	return nil
}

// UpdateWalletMetadata replaces the metadata map of the record with the
// given id and persists.
func (s *Session) UpdateWalletMetadata(ctx context.Context, id string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return ErrVaultLocked
	}

	next := make([]models.WalletRecord, len(s.wallets))
	copy(next, s.wallets)

	found := false
	for i := range next {
		if next[i].ID == id {
			next[i].Metadata = metadata
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: no wallet with id %q", ErrWalletNotFound, id)
	}

	return s.persistWalletsLocked(ctx, next)
}

// UpdateSettings validates and persists new vault settings. Attribute
// keys must be unique; select attributes must carry options.
func (s *Session) UpdateSettings(ctx context.Context, settings models.VaultSettings) error {
	if settings.AutoLockMinutes < 0 {
		return validationErrorf("autoLockMinutes must not be negative")
	}

	seen := make(map[string]bool, len(settings.AttributeDefinitions))
	for _, def := range settings.AttributeDefinitions {
		if def.Key == "" {
			return validationErrorf("attribute key must not be empty")
		}
		if seen[def.Key] {
			return validationErrorf("duplicate attribute key %q", def.Key)
		}
		seen[def.Key] = true

		switch def.Type {
		case models.AttributeText, models.AttributeDate:
		case models.AttributeSelect:
			if len(def.Options) == 0 {
				return validationErrorf("select attribute %q must define options", def.Key)
			}
		default:
			return validationErrorf("unknown attribute type %q", def.Type)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return ErrVaultLocked
	}

	prev := s.settings
	s.settings = settings
	if err := s.persistLocked(ctx); err != nil {
		s.settings = prev
		return err
	}
	return nil
}

// ImportVaultData merges an exported backup into the vault. Only wallets
// whose id is not already present are added; encrypted blobs are carried
// verbatim, so they remain openable only under the password that produced
// them. Label collisions are not checked on merge. Returns the number of
// wallets added.
func (s *Session) ImportVaultData(ctx context.Context, raw []byte) (int, error) {
	var backup models.VaultBackup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return 0, validationErrorf("backup is not valid JSON")
	}
	if backup.Wallets == nil {
		return 0, validationErrorf("backup has no wallet list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return 0, ErrVaultLocked
	}

	existing := make(map[string]bool, len(s.wallets))
	for _, w := range s.wallets {
		existing[w.ID] = true
	}

	next := make([]models.WalletRecord, len(s.wallets), len(s.wallets)+len(backup.Wallets))
	copy(next, s.wallets)

	added := 0
	for _, w := range backup.Wallets {
		if existing[w.ID] {
			continue
		}
		next = append(next, w)
		added++
	}

	if added > 0 {
		if err := s.persistWalletsLocked(ctx, next); err != nil {
			return 0, err
		}
	}

	s.publishLocked("vault_import", "backup merged", map[string]string{"added": fmt.Sprint(added)})
	return added, nil
}

// ExportVaultData returns the backup form of the vault: wallets and
// settings, without masterHash or checksum.
func (s *Session) ExportVaultData() (models.VaultBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.VaultBackup{}, ErrVaultLocked
	}

	wallets := make([]models.WalletRecord, len(s.wallets))
	copy(wallets, s.wallets)
	return models.VaultBackup{Wallets: wallets, Settings: s.settings}, nil
}

// ChangePassword re-encrypts every wallet key under newPassword and
// replaces the cached master hash. This is the only operation that
// invalidates the hash cached at unlock.
func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return ErrVaultLocked
	}
	if s.keychain.Hash([]byte(oldPassword)) != s.masterHash {
		return validationErrorf("current password does not match")
	}

	next := make([]models.WalletRecord, len(s.wallets))
	copy(next, s.wallets)
	for i := range next {
		plain, err := s.keychain.Decrypt(next[i].EncryptedPrivateKey, oldPassword)
		if err != nil {
			return fmt.Errorf("re-encrypt wallet %q: %w", next[i].Label, err)
		}
		blob, err := s.keychain.Encrypt(plain, newPassword)
		if err != nil {
			return fmt.Errorf("re-encrypt wallet %q: %w", next[i].Label, err)
		}
		next[i].EncryptedPrivateKey = blob
	}

	prevWallets, prevHash, prevPassword := s.wallets, s.masterHash, s.password
	s.wallets = next
	s.masterHash = s.keychain.Hash([]byte(newPassword))
	s.password = newPassword

	if err := s.persistLocked(ctx); err != nil {
		s.wallets, s.masterHash, s.password = prevWallets, prevHash, prevPassword
		return err
	}

	s.publishLocked("password_changed", "master password changed", nil)
	return nil
}

// DecryptKey resolves label to a wallet record and returns its plaintext
// private key bytes, decrypted under the session password. Requires
// Unlocked; all decryption failure causes surface identically.
func (s *Session) DecryptKey(label string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, ErrVaultLocked
	}

	for _, w := range s.wallets {
		if w.Label == label {
			return s.keychain.Decrypt(w.EncryptedPrivateKey, s.password)
		}
	}
	return nil, fmt.Errorf("%w: no wallet with label %q", ErrWalletNotFound, label)
}

// persistWalletsLocked persists with a replacement wallet list, committing
// it to working memory only after the save succeeds, so a failed save
// leaves both memory and the persisted unit unchanged. Caller holds the
// mutex.
func (s *Session) persistWalletsLocked(ctx context.Context, wallets []models.WalletRecord) error {
	prev := s.wallets
	s.wallets = wallets
	if err := s.persistLocked(ctx); err != nil {
		s.wallets = prev
		return err
	}
	return nil
}

// persistLocked writes the full store using the masterHash cached at
// unlock/create. Caller holds the mutex.
func (s *Session) persistLocked(ctx context.Context) error {
	store := &models.VaultStore{
		Wallets:    s.wallets,
		MasterHash: s.masterHash,
		Settings:   s.settings,
		Checksum:   ComputeChecksum(s.keychain, s.wallets, s.settings),
	}
	if err := s.storage.Save(ctx, store); err != nil {
		return fmt.Errorf("persist vault: %w", err)
	}
	return nil
}

// publishLocked emits a diagnostic event when logging is enabled. Caller
// holds the mutex.
func (s *Session) publishLocked(eventType, message string, fields map[string]string) {
	if s.bus == nil || !s.settings.EnableLogging {
		return
	}
	s.bus.Publish(eventType, message, fields)
}

// normalizedKeyBytes strips whitespace and the 0x prefix so the stored
// plaintext is the bare hex scalar regardless of input form.
func normalizedKeyBytes(privateKeyHex string) []byte {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	return []byte(trimmed)
}
