// Package llm defines the language model provider capability and its factory.
package llm

import (
	"context"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

// GenerateOptions tunes one completion request. A zero MaxTokens leaves the
// limit to the provider default.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Completion is the buffered result of one model call.
type Completion struct {
	Content      string
	Usage        models.TokenUsage
	Model        string
	FinishReason string
}

// StreamReader yields text fragments of a streamed completion. It is finite and
// cannot be restarted.
type StreamReader interface {
	// Recv returns the next non-empty fragment, or io.EOF when the stream is exhausted.
	Recv() (string, error)

	// Close releases the underlying connection.
	Close() error
}

// Provider generates completions from an ordered list of chat turns.
type Provider interface {
	Generate(ctx context.Context, messages []models.ChatTurn, opts GenerateOptions) (*Completion, error)
	Stream(ctx context.Context, messages []models.ChatTurn, opts GenerateOptions) (StreamReader, error)
	CountTokens(text string) int
	Model() string
}
