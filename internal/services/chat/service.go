// Package chat sends messages to the conversation agent over plain request and
// response, without a live connection.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/agent"
	"github.com/lingopal/conversation-service/internal/services/conversation"
	"github.com/lingopal/conversation-service/internal/services/session"
	"github.com/lingopal/conversation-service/internal/services/usage"
)

// DefaultTemperature is used when a request does not set one.
const DefaultTemperature = 0.7

// SessionStore is the subset of the session service used for chat.
type SessionStore interface {
	Create(ctx context.Context, userID string, in *session.CreateInput) (*models.Session, error)
	GetOwned(ctx context.Context, id, userID string) (*models.Session, error)
	Touch(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, sessionID string, skip, limit int64) ([]*models.Message, error)
}

// ChatAgent runs buffered and streamed model turns.
type ChatAgent interface {
	Chat(ctx context.Context, req *agent.ChatRequest) (*agent.ChatResult, error)
	Stream(ctx context.Context, req *agent.ChatRequest, onChunk func(string) error) (*agent.ChatResult, error)
	CountTokens(text string) int
}

// UsageRecorder persists usage records.
type UsageRecorder interface {
	Record(ctx context.Context, in *usage.RecordInput) (*models.UsageRecord, error)
}

// SendInput is one chat message.
type SendInput struct {
	Message     string
	SessionID   string
	Temperature float64
	MaxTokens   int
}

// SendResult is the reply to one chat message.
type SendResult struct {
	Response  string            `json:"response"`
	SessionID string            `json:"session_id"`
	Usage     models.TokenUsage `json:"usage"`
	Model     string            `json:"model"`
}

// Service sends chat messages.
type Service struct {
	sessions SessionStore
	agent    ChatAgent
	usage    UsageRecorder
	now      func() time.Time
}

// NewService creates a chat service.
func NewService(sessions SessionStore, a ChatAgent, u UsageRecorder) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if a == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if u == nil {
		return nil, fmt.Errorf("usage recorder is required")
	}
	return &Service{sessions: sessions, agent: a, usage: u, now: time.Now}, nil
}

// Send answers one message with a buffered model call.
func (s *Service) Send(ctx context.Context, principal *models.Principal, in *SendInput) (*SendResult, error) {
	turn, err := s.prepare(ctx, principal, in)
	if err != nil {
		return nil, err
	}

	result, err := s.agent.Chat(ctx, turn.request)
	if err != nil {
		return nil, providerError(err)
	}
	return s.complete(ctx, principal, turn.session, result), nil
}

// Stream answers one message over the provider's streaming API. onChunk receives
// every fragment as it arrives.
func (s *Service) Stream(ctx context.Context, principal *models.Principal, in *SendInput, onChunk func(string) error) (*SendResult, error) {
	turn, err := s.prepare(ctx, principal, in)
	if err != nil {
		return nil, err
	}

	result, err := s.agent.Stream(ctx, turn.request, onChunk)
	if err != nil {
		return nil, providerError(err)
	}
	return s.complete(ctx, principal, turn.session, result), nil
}

type preparedTurn struct {
	session *models.Session
	request *agent.ChatRequest
}

// prepare resolves the session, builds the history and persists the user message.
// A session that carries a scenario gets its system instruction until the first
// assistant reply is stored.
func (s *Service) prepare(ctx context.Context, principal *models.Principal, in *SendInput) (*preparedTurn, error) {
	if principal == nil {
		return nil, errors.NewUnauthorizedError("authentication required")
	}
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, errors.NewValidationError("message is required", "")
	}

	sess, err := s.openSession(ctx, principal, in.SessionID)
	if err != nil {
		return nil, err
	}

	messages, err := s.sessions.ListMessages(ctx, sess.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	language := sess.Metadata.Language
	if language == "" {
		language = conversation.DefaultLanguage
	}
	history := withScenarioPrompt(models.ToChatTurns(messages), sess.Metadata.Scenario, language)

	userMessage := models.NewMessage(sess.ID, models.RoleUser, text, s.agent.CountTokens(text))
	if err := s.sessions.AppendMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	temperature := in.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &preparedTurn{
		session: sess,
		request: &agent.ChatRequest{
			Input:       text,
			History:     history,
			Temperature: temperature,
			MaxTokens:   in.MaxTokens,
		},
	}, nil
}

func (s *Service) openSession(ctx context.Context, principal *models.Principal, sessionID string) (*models.Session, error) {
	if id := strings.TrimSpace(sessionID); id != "" {
		return s.sessions.GetOwned(ctx, id, principal.ID)
	}
	return s.sessions.Create(ctx, principal.ID, &session.CreateInput{
		Title: "Chat " + s.now().UTC().Format("2006-01-02 15:04"),
	})
}

// complete persists the reply and its usage. Failures here are logged only: the
// reply has already been produced.
func (s *Service) complete(ctx context.Context, principal *models.Principal, sess *models.Session, result *agent.ChatResult) *SendResult {
	logger := log.With().Str("user_id", principal.ID).Str("session_id", sess.ID).Logger()

	assistantMessage := models.NewMessage(sess.ID, models.RoleAssistant, result.Text, result.Usage.CompletionTokens)
	assistantMessage.Metadata = map[string]interface{}{"model": result.Model}
	if err := s.sessions.AppendMessage(ctx, assistantMessage); err != nil {
		logger.Error().Err(err).Msg("failed to save assistant message")
	}

	if _, err := s.usage.Record(ctx, &usage.RecordInput{
		UserID:    principal.ID,
		SessionID: sess.ID,
		Model:     result.Model,
		Usage:     result.Usage,
		Context:   models.UsageContextChat,
		WithCost:  true,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to record usage")
	}

	if err := s.sessions.Touch(ctx, sess.ID); err != nil {
		logger.Warn().Err(err).Msg("failed to touch session")
	}

	return &SendResult{
		Response:  result.Text,
		SessionID: sess.ID,
		Usage:     result.Usage,
		Model:     result.Model,
	}
}

func providerError(err error) error {
	if errors.IsDomainError(err) {
		return err
	}
	return errors.NewProviderError("chat completion failed", err)
}
