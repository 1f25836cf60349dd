package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/elanchou/falconvault/models"
)

func TestDeriveKey_DeterministicForSameInputs(t *testing.T) {
	svc := NewKeyChainService()

	password := "correct horse battery staple"
	salt := bytes.Repeat([]byte{0xAB}, 16)

	k1 := svc.DeriveKey(password, salt)
	k2 := svc.DeriveKey(password, salt)

	if len(k1) != 32 {
		t.Fatalf("key length = %d, want 32", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected keys to match for same password+salt")
	}
}

func TestDeriveKey_DifferentSaltProducesDifferentKey(t *testing.T) {
	svc := NewKeyChainService()

	password := "same password"
	k1 := svc.DeriveKey(password, bytes.Repeat([]byte{0x01}, 16))
	k2 := svc.DeriveKey(password, bytes.Repeat([]byte{0x02}, 16))

	if bytes.Equal(k1, k2) {
		t.Fatalf("expected different keys for different salts")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	svc := NewKeyChainService()

	plaintext := []byte("8a1f...private key material...c4d9")
	password := "vault password"

	blob, err := svc.Encrypt(plaintext, password)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	got, err := svc.Decrypt(blob, password)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestEncrypt_FreshSaltAndNonce(t *testing.T) {
	svc := NewKeyChainService()

	plaintext := []byte("identical plaintext")
	password := "identical password"

	b1, err := svc.Encrypt(plaintext, password)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	b2, err := svc.Encrypt(plaintext, password)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	if b1 == b2 {
		t.Fatalf("expected distinct blobs for repeated encryption of the same input")
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	svc := NewKeyChainService()

	blob, err := svc.Encrypt([]byte("secret"), "password-one")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	if _, err = svc.Decrypt(blob, "password-two"); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("Decrypt with wrong password: err = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecrypt_TamperedBlobFailsForEveryRegion(t *testing.T) {
	svc := NewKeyChainService()

	password := "the right password"
	blob, err := svc.Encrypt([]byte("secret"), password)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(string(blob))
	if err != nil {
		t.Fatalf("decode blob: %v", err)
	}

	// One bit in the salt, one in the nonce, one in the ciphertext/tag.
	offsets := map[string]int{
		"salt":       3,
		"nonce":      16 + 5,
		"ciphertext": 16 + 12 + 2,
		"tag":        len(raw) - 1,
	}

	for region, off := range offsets {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[off] ^= 0x01

		mutated := models.EncryptedBlob(base64.StdEncoding.EncodeToString(tampered))
		if _, err = svc.Decrypt(mutated, password); !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("tampered %s: err = %v, want ErrDecryptionFailed", region, err)
		}
	}
}

func TestDecrypt_MalformedEnvelope(t *testing.T) {
	svc := NewKeyChainService()

	cases := map[string]models.EncryptedBlob{
		"not base64": "%%%not-base64%%%",
		"too short":  models.EncryptedBlob(base64.StdEncoding.EncodeToString([]byte("short"))),
		"empty":      "",
	}

	for name, blob := range cases {
		if _, err := svc.Decrypt(blob, "whatever"); !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("%s: err = %v, want ErrDecryptionFailed", name, err)
		}
	}
}

func TestHash_HexSHA256(t *testing.T) {
	svc := NewKeyChainService()

	// SHA-256("abc"), a fixed vector.
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := svc.Hash([]byte("abc")); got != want {
		t.Fatalf("Hash = %s, want %s", got, want)
	}

	if svc.Hash([]byte("a")) == svc.Hash([]byte("b")) {
		t.Fatalf("expected distinct digests for distinct inputs")
	}
}
