// Package vault defines the secrets vault interface.
package vault

import (
	"context"
)

// Client resolves secrets by URI, for example "dotenv://OPENAI_API_KEY".
type Client interface {
	// StoreSecret stores a secret and returns its URI.
	StoreSecret(ctx context.Context, key string, value string) (string, error)

	// GetSecret retrieves a secret by URI.
	GetSecret(ctx context.Context, uri string) (string, error)

	// Ping checks if the vault is reachable.
	Ping(ctx context.Context) error

	// Close releases the vault connection.
	Close() error
}
