package crypto

import "github.com/elanchou/falconvault/models"

// KeyChainService owns all key-material cryptography in falconvault. It
// knows nothing about the network, the store, or wallets; its only job is
// deriving keys from the master password and sealing/opening private key
// blobs.
//
// Scheme:
//
//	key       = DeriveKey(password, salt)        PBKDF2-SHA256, 100k rounds
//	blob      = Encrypt(plaintext, password)     AES-256-GCM, fresh salt+nonce
//	plaintext = Decrypt(blob, password)
//	digest    = Hash(input)                      plain SHA-256, hex
//
// Hash is deliberately not on the KDF path: the stored master-password
// hash is a fast hash while key derivation is slow. That asymmetry is a
// property of the store format and is preserved as-is.
type KeyChainService interface {
	// DeriveKey stretches password with salt into a 256-bit key usable
	// only for AEAD encryption. Deterministic for identical inputs.
	DeriveKey(password string, salt []byte) []byte

	// Encrypt seals plaintext under password with a fresh random 16-byte
	// salt and 12-byte nonce, returning base64(salt ‖ nonce ‖ ciphertext).
	// Two calls with identical inputs never produce the same blob.
	Encrypt(plaintext []byte, password string) (models.EncryptedBlob, error)

	// Decrypt opens a blob produced by Encrypt. A malformed envelope, a
	// wrong password, and corrupted ciphertext all fail with the same
	// ErrDecryptionFailed: the cause is not revealed to the caller.
	Decrypt(blob models.EncryptedBlob, password string) ([]byte, error)

	// Hash returns the hex SHA-256 digest of input. Used for the master
	// password verification hash and the store integrity checksum.
	Hash(input []byte) string
}
