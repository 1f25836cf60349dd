package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elanchou/falconvault/internal/crypto"
	"github.com/elanchou/falconvault/models"
)

func testStore(keychain crypto.KeyChainService) *models.VaultStore {
	store := &models.VaultStore{
		Wallets: []models.WalletRecord{
			models.NewWalletRecord("A", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "blob", nil),
		},
		MasterHash: keychain.Hash([]byte("secret1")),
		Settings:   models.DefaultSettings(),
	}
	store.Checksum = ComputeChecksum(keychain, store.Wallets, store.Settings)
	return store
}

func TestFileStorage_LoadAbsent(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "missing.json"))

	_, err := storage.Load(context.Background())
	assert.ErrorIs(t, err, ErrVaultNotFound)
}

func TestFileStorage_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	keychain := crypto.NewKeyChainService()
	path := filepath.Join(t.TempDir(), "nested", "vault.json")
	storage := NewFileStorage(path)

	want := testStore(keychain)
	require.NoError(t, storage.Save(ctx, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.MasterHash, got.MasterHash)
	assert.Equal(t, want.Checksum, got.Checksum)
	require.Len(t, got.Wallets, 1)
	assert.Equal(t, want.Wallets[0], got.Wallets[0])
	assert.True(t, VerifyIntegrity(keychain, got))
}

func TestFileStorage_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))

	_, err := NewFileStorage(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrVaultNotFound)
}

func TestVerifyIntegrity_DetectsTamper(t *testing.T) {
	keychain := crypto.NewKeyChainService()
	store := testStore(keychain)
	require.True(t, VerifyIntegrity(keychain, store))

	store.Wallets[0].Address = "0x0000000000000000000000000000000000000000"
	assert.False(t, VerifyIntegrity(keychain, store))
}

func TestVerifyIntegrity_EmptyChecksumPasses(t *testing.T) {
	// Stores written before checksums existed carry none; they unlock
	// without a warning.
	keychain := crypto.NewKeyChainService()
	store := testStore(keychain)
	store.Checksum = ""
	assert.True(t, VerifyIntegrity(keychain, store))
}
