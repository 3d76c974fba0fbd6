// Package encryption seals values written to shared caches with AES-256-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// Sealer encrypts and authenticates cache payloads. The associated data binds a
// payload to the key it was stored under, so values cannot be swapped between keys.
type Sealer interface {
	Seal(plaintext, associatedData []byte) ([]byte, error)
	Open(sealed, associatedData []byte) ([]byte, error)
}

// AESSealer implements Sealer using AES-256-GCM. The nonce is prepended to the
// ciphertext.
type AESSealer struct {
	gcm cipher.AEAD
}

// NewAESSealer builds a sealer from key material. A base64 encoded 32 byte key is
// used as is; any other non-empty secret is stretched with SHA-256.
func NewAESSealer(secret string) (*AESSealer, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption key is required")
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil || len(key) != 32 {
		sum := sha256.Sum256([]byte(secret))
		key = sum[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESSealer{gcm: gcm}, nil
}

// Seal encrypts plaintext.
func (s *AESSealer) Seal(plaintext, associatedData []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, plaintext, associatedData), nil
}

// Open decrypts a sealed payload.
func (s *AESSealer) Open(sealed, associatedData []byte) ([]byte, error) {
	nonceSize := s.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	plaintext, err := s.gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], associatedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// GenerateKey returns a random base64 encoded 32 byte key.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// PlainSealer stores payloads unencrypted. Used when no key is configured.
type PlainSealer struct{}

// Seal returns a copy of plaintext.
func (PlainSealer) Seal(plaintext, _ []byte) ([]byte, error) {
	return append([]byte(nil), plaintext...), nil
}

// Open returns a copy of sealed.
func (PlainSealer) Open(sealed, _ []byte) ([]byte, error) {
	return append([]byte(nil), sealed...), nil
}
