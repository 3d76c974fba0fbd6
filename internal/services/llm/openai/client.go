// Package openai provides a chat completions client on top of go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

// Config holds the client configuration.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Request is one chat completion request.
type Request struct {
	Messages    []models.ChatTurn
	Temperature float64
	MaxTokens   int
}

// Response is a buffered chat completion.
type Response struct {
	Content      string
	Usage        models.TokenUsage
	Model        string
	FinishReason string
}

// Client calls the chat completions endpoint.
type Client struct {
	api       *goopenai.Client
	model     string
	maxTokens int
}

// NewClient creates a new client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:       goopenai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Model returns the configured model id.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the messages and waits for the whole reply.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage: models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model:        model,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// Stream sends the messages and returns a reader over the reply fragments.
func (c *Client) Stream(ctx context.Context, req *Request) (*Stream, error) {
	apiReq := c.buildRequest(req)
	apiReq.Stream = true

	stream, err := c.api.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion stream failed: %w", err)
	}
	return &Stream{stream: stream}, nil
}

func (c *Client) buildRequest(req *Request) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, turn := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	return goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   maxTokens,
	}
}

// Stream reads a streamed chat completion.
type Stream struct {
	stream *goopenai.ChatCompletionStream
}

// Recv returns the next non-empty content fragment. Returns io.EOF at the end.
func (s *Stream) Recv() (string, error) {
	for {
		chunk, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("failed to read stream: %w", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
}

// Close releases the stream.
func (s *Stream) Close() error {
	s.stream.Close()
	return nil
}
