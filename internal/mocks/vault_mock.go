package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockVaultClient is a mock implementation of vault.Client.
type MockVaultClient struct {
	mock.Mock
}

// StoreSecret stores a secret.
func (m *MockVaultClient) StoreSecret(ctx context.Context, key string, value string) (string, error) {
	args := m.Called(ctx, key, value)
	return args.String(0), args.Error(1)
}

// GetSecret retrieves a secret.
func (m *MockVaultClient) GetSecret(ctx context.Context, uri string) (string, error) {
	args := m.Called(ctx, uri)
	return args.String(0), args.Error(1)
}

// Ping checks the vault.
func (m *MockVaultClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the vault.
func (m *MockVaultClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
