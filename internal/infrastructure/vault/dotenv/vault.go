// Package dotenv provides a vault backed by environment variables for development.
package dotenv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Scheme is the URI scheme handled by this vault.
const Scheme = "dotenv://"

// Vault implements vault.Client using environment variables, with an in-memory
// overlay for secrets stored at runtime.
type Vault struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewVault creates a new DotEnv vault instance.
func NewVault() *Vault {
	return &Vault{
		secrets: make(map[string]string),
	}
}

// StoreSecret stores a secret in memory and returns its "dotenv://{key}" URI.
func (v *Vault) StoreSecret(ctx context.Context, key string, value string) (string, error) {
	key = strings.TrimPrefix(key, Scheme)
	if key == "" {
		return "", fmt.Errorf("secret key is required")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.secrets[key] = value
	return Scheme + key, nil
}

// GetSecret resolves a secret from the environment first, then the in-memory store.
func (v *Vault) GetSecret(ctx context.Context, uri string) (string, error) {
	key := strings.TrimPrefix(uri, Scheme)

	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if value, ok := v.secrets[key]; ok {
		return value, nil
	}

	return "", fmt.Errorf("secret not found: %s", key)
}

// Ping always succeeds.
func (v *Vault) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (v *Vault) Close() error {
	return nil
}
