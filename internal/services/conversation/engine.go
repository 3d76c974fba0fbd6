// Package conversation runs live conversation connections: authentication,
// session resume or creation, the scenario framed message loop and analysis on
// demand.
package conversation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/pkg/metrics"
	"github.com/lingopal/conversation-service/internal/services/agent"
	"github.com/lingopal/conversation-service/internal/services/registry"
	"github.com/lingopal/conversation-service/internal/services/session"
	"github.com/lingopal/conversation-service/internal/services/usage"
)

const (
	// DefaultIdleTimeout bounds each wait for the next client event.
	DefaultIdleTimeout = 300 * time.Second

	// DefaultTemperature is the sampling temperature of live replies.
	DefaultTemperature = 0.8

	// DefaultLanguage is used when the client does not negotiate one.
	DefaultLanguage = "en"
)

// ErrServerShutdown is the cancellation cause of connections stopped on shutdown.
var ErrServerShutdown = stderrors.New("server shutting down")

var errTransportClosed = stderrors.New("transport closed")

// Transport is one bidirectional message connection. Close must be idempotent and
// must unblock a pending ReadMessage.
type Transport interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteJSON(v any) error
	Close(code int, reason string) error
}

// PrincipalResolver authenticates a bearer token.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*models.Principal, error)
}

// SessionStore persists sessions and their message log.
type SessionStore interface {
	Create(ctx context.Context, userID string, in *session.CreateInput) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Touch(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, sessionID string, skip, limit int64) ([]*models.Message, error)
}

// ScenarioResolver turns a scenario reference into a descriptor, or nil.
type ScenarioResolver interface {
	Resolve(ctx context.Context, ref models.ScenarioReference, principal *models.Principal, language string) *models.ScenarioDescriptor
}

// ChatAgent runs one model turn.
type ChatAgent interface {
	Chat(ctx context.Context, req *agent.ChatRequest) (*agent.ChatResult, error)
	CountTokens(text string) int
}

// UsageRecorder persists usage records.
type UsageRecorder interface {
	Record(ctx context.Context, in *usage.RecordInput) (*models.UsageRecord, error)
}

// Analyzer produces feedback for a session.
type Analyzer interface {
	Analyze(ctx context.Context, principal *models.Principal, sessionID, language string, force bool) (*models.Feedback, error)
}

// Params are the connection parameters supplied by the client.
type Params struct {
	Token     string
	Language  string
	SessionID string
	Scenario  models.ScenarioReference
}

// Config holds the dependencies and limits of the engine.
type Config struct {
	Auth      PrincipalResolver
	Sessions  SessionStore
	Scenarios ScenarioResolver
	Agent     ChatAgent
	Usage     UsageRecorder
	Analyzer  Analyzer
	Registry  *registry.Registry
	Metrics   *metrics.Metrics

	IdleTimeout     time.Duration
	Temperature     float64
	MaxTokens       int
	DefaultLanguage string
}

// Engine serves live conversation connections. One Engine is shared by all
// connections; each connection runs sequentially in the caller's goroutine.
type Engine struct {
	auth      PrincipalResolver
	sessions  SessionStore
	scenarios ScenarioResolver
	agent     ChatAgent
	usage     UsageRecorder
	analyzer  Analyzer
	registry  *registry.Registry
	metrics   *metrics.Metrics

	idleTimeout     time.Duration
	temperature     float64
	maxTokens       int
	defaultLanguage string
}

// NewEngine validates cfg and applies defaults.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Auth == nil {
		return nil, fmt.Errorf("principal resolver is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Scenarios == nil {
		return nil, fmt.Errorf("scenario resolver is required")
	}
	if cfg.Agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if cfg.Usage == nil {
		return nil, fmt.Errorf("usage recorder is required")
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}

	e := &Engine{
		auth:            cfg.Auth,
		sessions:        cfg.Sessions,
		scenarios:       cfg.Scenarios,
		agent:           cfg.Agent,
		usage:           cfg.Usage,
		analyzer:        cfg.Analyzer,
		registry:        cfg.Registry,
		metrics:         cfg.Metrics,
		idleTimeout:     cfg.IdleTimeout,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		defaultLanguage: cfg.DefaultLanguage,
	}
	if e.registry == nil {
		e.registry = registry.New()
	}
	if e.idleTimeout <= 0 {
		e.idleTimeout = DefaultIdleTimeout
	}
	if e.temperature == 0 {
		e.temperature = DefaultTemperature
	}
	if e.defaultLanguage == "" {
		e.defaultLanguage = DefaultLanguage
	}
	return e, nil
}

// Registry returns the connection registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Serve runs one connection until it is closed. The transport is always closed
// when Serve returns.
func (e *Engine) Serve(ctx context.Context, t Transport, p Params) {
	c := newConnection(ctx, e, t, p)
	c.run()
}

// errorMessage renders err for a client facing error event.
func errorMessage(err error) string {
	if de, ok := errors.GetDomainError(err); ok {
		if de.Err != nil {
			return fmt.Sprintf("%s: %v", de.Message, de.Err)
		}
		return de.Message
	}
	return err.Error()
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// isText reports whether a frame carries text.
func isText(messageType int) bool {
	return messageType == websocket.TextMessage
}
