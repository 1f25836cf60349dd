// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Elan Chou

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/elanchou/falconvault/models"
)

// ErrDecryptionFailed is returned for every unsuccessful Decrypt: wrong
// password, tampered blob, or malformed envelope. The three causes are
// intentionally indistinguishable.
var ErrDecryptionFailed = errors.New("decryption failed")

const (
	saltSize  = 16
	nonceSize = 12

	// kdfIterations is the PBKDF2 round count. Fixed by the store format;
	// changing it invalidates every existing blob.
	kdfIterations = 100_000

	keyLen = 32 // 256 bits
)

// keyChainService is the private implementation of [KeyChainService].
type keyChainService struct{}

// NewKeyChainService constructs a [KeyChainService] using PBKDF2-SHA256
// (100 000 iterations, 256-bit keys) and AES-256-GCM.
func NewKeyChainService() KeyChainService {
	return &keyChainService{}
}

// DeriveKey implements [KeyChainService].
func (k *keyChainService) DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfIterations, keyLen, sha256.New)
}

// Encrypt implements [KeyChainService]. The envelope layout is
// salt (16) ‖ nonce (12) ‖ ciphertext, base64-encoded as one string, so
// Decrypt can recover the KDF salt without any side channel. Errors here
// mean the platform crypto itself is unavailable and are not
// user-recoverable.
func (k *keyChainService) Encrypt(plaintext []byte, password string) (models.EncryptedBlob, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	block, err := aes.NewCipher(k.DeriveKey(password, salt))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, saltSize+nonceSize+len(plaintext)+gcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, plaintext, nil)

	return models.EncryptedBlob(base64.StdEncoding.EncodeToString(blob)), nil
}

// Decrypt implements [KeyChainService]. Every failure path collapses to
// [ErrDecryptionFailed] so callers cannot tell a wrong password from a
// tampered or truncated blob.
func (k *keyChainService) Decrypt(blob models.EncryptedBlob, password string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(blob))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(raw) < saltSize+nonceSize {
		return nil, ErrDecryptionFailed
	}

	salt, nonce, ciphertext := raw[:saltSize], raw[saltSize:saltSize+nonceSize], raw[saltSize+nonceSize:]

	block, err := aes.NewCipher(k.DeriveKey(password, salt))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// Hash implements [KeyChainService].
func (k *keyChainService) Hash(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}
