// Package agent runs the fixed assemble, generate and collect pipeline around a
// language model provider.
package agent

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/llm"
)

// ChatRequest is one agent turn.
type ChatRequest struct {
	Input       string
	History     []models.ChatTurn
	Temperature float64
	MaxTokens   int
}

// ChatResult is the normalized outcome of a turn. Messages is the history, the
// new user turn and the assistant reply, in that order.
type ChatResult struct {
	Text     string
	Usage    models.TokenUsage
	Model    string
	Messages []models.ChatTurn
}

// Agent wraps a provider. It never persists anything.
type Agent struct {
	provider llm.Provider
}

// New creates an agent over provider.
func New(provider llm.Provider) (*Agent, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	return &Agent{provider: provider}, nil
}

// Chat appends the input as a user turn, calls the provider once and returns the reply.
// Provider errors are returned unchanged.
func (a *Agent) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	messages := make([]models.ChatTurn, 0, len(req.History)+2)
	messages = append(messages, req.History...)
	messages = append(messages, models.ChatTurn{Role: models.RoleUser, Content: req.Input})

	completion, err := a.provider.Generate(ctx, messages, llm.GenerateOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	messages = append(messages, models.ChatTurn{Role: models.RoleAssistant, Content: completion.Content})

	model := completion.Model
	if model == "" {
		model = a.provider.Model()
	}

	return &ChatResult{
		Text:     completion.Content,
		Usage:    completion.Usage.Normalize(),
		Model:    model,
		Messages: messages,
	}, nil
}

// Stream runs a turn over the provider's streaming API and hands every fragment
// to onChunk. Streams carry no usage, so token counts are estimated.
func (a *Agent) Stream(ctx context.Context, req *ChatRequest, onChunk func(string) error) (*ChatResult, error) {
	messages := make([]models.ChatTurn, 0, len(req.History)+2)
	messages = append(messages, req.History...)
	messages = append(messages, models.ChatTurn{Role: models.RoleUser, Content: req.Input})

	stream, err := a.provider.Stream(ctx, messages, llm.GenerateOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var text strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		text.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}

	prompt := 0
	for _, turn := range messages {
		prompt += a.provider.CountTokens(turn.Content)
	}
	reply := text.String()
	messages = append(messages, models.ChatTurn{Role: models.RoleAssistant, Content: reply})

	return &ChatResult{
		Text: reply,
		Usage: models.TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: a.provider.CountTokens(reply),
		}.Normalize(),
		Model:    a.provider.Model(),
		Messages: messages,
	}, nil
}

// CountTokens estimates the token count of text with the provider's counter.
func (a *Agent) CountTokens(text string) int {
	return a.provider.CountTokens(text)
}
