package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/llm/openai"
)

// Type identifies a provider implementation.
type Type string

const (
	// TypeOpenAI is the OpenAI chat completions API, or any compatible endpoint.
	TypeOpenAI Type = "openai"
)

// ProviderConfig holds the settings needed to build a Provider.
type ProviderConfig struct {
	Type      Type
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

// NewProvider creates the provider selected by cfg.Type.
func NewProvider(cfg *ProviderConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	switch cfg.Type {
	case TypeOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return &openAIProvider{client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Type)
	}
}

// openAIProvider adapts openai.Client to the Provider interface.
type openAIProvider struct {
	client *openai.Client
}

func (p *openAIProvider) Generate(ctx context.Context, messages []models.ChatTurn, opts GenerateOptions) (*Completion, error) {
	resp, err := p.client.Complete(ctx, &openai.Request{
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, errors.NewProviderError("language model request failed", err)
	}

	return &Completion{
		Content:      resp.Content,
		Usage:        resp.Usage.Normalize(),
		Model:        resp.Model,
		FinishReason: resp.FinishReason,
	}, nil
}

func (p *openAIProvider) Stream(ctx context.Context, messages []models.ChatTurn, opts GenerateOptions) (StreamReader, error) {
	stream, err := p.client.Stream(ctx, &openai.Request{
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, errors.NewProviderError("language model stream failed", err)
	}
	return stream, nil
}

func (p *openAIProvider) CountTokens(text string) int {
	return EstimateTokens(text)
}

func (p *openAIProvider) Model() string {
	return p.client.Model()
}
