// Package analysis produces language feedback for a conversation session.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/agent"
	"github.com/lingopal/conversation-service/internal/services/usage"
)

const (
	// DefaultReuseWindow is how long an existing feedback is returned instead of a new analysis.
	DefaultReuseWindow = time.Hour

	// DefaultTemperature keeps the analysis output stable.
	DefaultTemperature = 0.3

	// DefaultLanguage is analysed when neither the request nor the session names one.
	DefaultLanguage = "en"
)

// SessionReader loads sessions and their messages.
type SessionReader interface {
	GetOwned(ctx context.Context, id, userID string) (*models.Session, error)
	ListMessages(ctx context.Context, sessionID string, skip, limit int64) ([]*models.Message, error)
}

// ChatAgent runs one model turn.
type ChatAgent interface {
	Chat(ctx context.Context, req *agent.ChatRequest) (*agent.ChatResult, error)
}

// UsageRecorder persists usage records.
type UsageRecorder interface {
	Record(ctx context.Context, in *usage.RecordInput) (*models.UsageRecord, error)
}

// Config holds the dependencies of the analysis service.
type Config struct {
	Sessions    SessionReader
	Feedback    docdb.FeedbackCollection
	Agent       ChatAgent
	Usage       UsageRecorder
	ReuseWindow time.Duration
	Temperature float64
	MaxTokens   int
}

// Service analyzes conversation sessions.
type Service struct {
	sessions    SessionReader
	feedback    docdb.FeedbackCollection
	agent       ChatAgent
	usage       UsageRecorder
	reuseWindow time.Duration
	temperature float64
	maxTokens   int
	now         func() time.Time
}

// NewService creates an analysis service. Usage recording is optional.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session reader is required")
	}
	if cfg.Feedback == nil {
		return nil, fmt.Errorf("feedback collection is required")
	}
	if cfg.Agent == nil {
		return nil, fmt.Errorf("agent is required")
	}

	window := cfg.ReuseWindow
	if window == 0 {
		window = DefaultReuseWindow
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &Service{
		sessions:    cfg.Sessions,
		feedback:    cfg.Feedback,
		agent:       cfg.Agent,
		usage:       cfg.Usage,
		reuseWindow: window,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
		now:         time.Now,
	}, nil
}

// Latest returns the newest stored feedback of the principal for a session
// without running a new analysis.
func (s *Service) Latest(ctx context.Context, principal *models.Principal, sessionID string) (*models.Feedback, error) {
	if principal == nil {
		return nil, errors.NewUnauthorizedError("authentication required")
	}

	session, err := s.sessions.GetOwned(ctx, sessionID, principal.ID)
	if err != nil {
		return nil, err
	}

	feedback, err := s.feedback.Latest(ctx, principal.ID, session.ID)
	if err != nil {
		return nil, errors.NewPersistenceError("load feedback", err)
	}
	if feedback == nil {
		return nil, errors.NewNotFoundError("Analysis", session.ID)
	}
	return feedback, nil
}

// Analyze returns feedback on the session. Unless force is set, a feedback of the
// principal younger than the reuse window is returned as is.
func (s *Service) Analyze(ctx context.Context, principal *models.Principal, sessionID, language string, force bool) (*models.Feedback, error) {
	if principal == nil {
		return nil, errors.NewUnauthorizedError("authentication required")
	}

	session, err := s.sessions.GetOwned(ctx, sessionID, principal.ID)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("session_id", session.ID).Str("user_id", principal.ID).Logger()

	if !force {
		existing, err := s.feedback.Latest(ctx, principal.ID, session.ID)
		if err != nil {
			return nil, errors.NewPersistenceError("load feedback", err)
		}
		if existing != nil && s.now().Sub(existing.CreatedAt) < s.reuseWindow {
			logger.Debug().Str("feedback_id", existing.ID).Msg("returning recent analysis")
			return existing, nil
		}
	}

	if strings.TrimSpace(language) == "" {
		language = session.Metadata.Language
	}
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	languageName, ok := models.LanguageName(language)
	if !ok {
		return nil, errors.NewNotFoundError("Language", language)
	}

	messages, err := s.sessions.ListMessages(ctx, session.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	transcript := BuildTranscript(messages)

	result, err := s.agent.Chat(ctx, &agent.ChatRequest{
		Input:       buildPrompt(languageName, transcript),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		if errors.IsDomainError(err) {
			return nil, err
		}
		return nil, errors.NewProviderError("conversation analysis failed", err)
	}

	if s.usage != nil {
		if _, err := s.usage.Record(ctx, &usage.RecordInput{
			UserID:    principal.ID,
			SessionID: session.ID,
			Model:     result.Model,
			Usage:     result.Usage,
			Context:   models.UsageContextAnalysis,
			WithCost:  true,
		}); err != nil {
			logger.Warn().Err(err).Msg("failed to record analysis usage")
		}
	}

	r, err := parseReport(result.Text)
	if err != nil {
		logger.Warn().Err(err).Msg("unreadable analysis reply, using fallback")
		r = fallbackReport()
	}

	feedback := &models.Feedback{
		ID:                    uuid.NewString(),
		UserID:                principal.ID,
		SessionID:             session.ID,
		Language:              language,
		Transcript:            transcript,
		ConversationExchanges: r.ConversationExchanges,
		Mistakes:              r.Mistakes,
		Strengths:             r.Strengths,
		Suggestions:           r.Suggestions,
		ImprovedSentences:     r.ImprovedSentences,
		VocabularySuggestions: r.VocabularySuggestions,
		WordBank:              r.WordBank,
		Scores:                r.Scores,
		CreatedAt:             s.now().UTC(),
	}

	if err := s.feedback.Insert(ctx, feedback); err != nil {
		return nil, errors.NewPersistenceError("save feedback", err)
	}

	logger.Info().
		Str("feedback_id", feedback.ID).
		Int("overall_score", feedback.Scores.Overall).
		Msg("conversation analyzed")
	return feedback, nil
}
