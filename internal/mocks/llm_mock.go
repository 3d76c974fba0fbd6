// Package mocks provides testify mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/llm"
)

// MockProvider is a mock implementation of llm.Provider.
type MockProvider struct {
	mock.Mock
}

// Generate returns a completion.
func (m *MockProvider) Generate(ctx context.Context, messages []models.ChatTurn, opts llm.GenerateOptions) (*llm.Completion, error) {
	args := m.Called(ctx, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}

// Stream returns a stream reader.
func (m *MockProvider) Stream(ctx context.Context, messages []models.ChatTurn, opts llm.GenerateOptions) (llm.StreamReader, error) {
	args := m.Called(ctx, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.StreamReader), args.Error(1)
}

// CountTokens returns a token count.
func (m *MockProvider) CountTokens(text string) int {
	args := m.Called(text)
	return args.Int(0)
}

// Model returns the model id.
func (m *MockProvider) Model() string {
	args := m.Called()
	return args.String(0)
}

// MockStreamReader is a mock implementation of llm.StreamReader.
type MockStreamReader struct {
	mock.Mock
}

// Recv returns the next fragment.
func (m *MockStreamReader) Recv() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Close closes the reader.
func (m *MockStreamReader) Close() error {
	args := m.Called()
	return args.Error(0)
}
