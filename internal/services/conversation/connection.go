package conversation

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/agent"
	"github.com/lingopal/conversation-service/internal/services/registry"
	"github.com/lingopal/conversation-service/internal/services/session"
	"github.com/lingopal/conversation-service/internal/services/usage"
)

type inboundFrame struct {
	messageType int
	data        []byte
}

// connection is the per-connection state machine. Everything except readLoop
// runs on the goroutine that called run.
type connection struct {
	e         *Engine
	transport Transport
	params    Params

	id     string
	ctx    context.Context
	cancel context.CancelCauseFunc
	base   zerolog.Logger
	logger zerolog.Logger
	state  State

	principal  *models.Principal
	session    *models.Session
	scenario   *models.ScenarioDescriptor
	language   string
	transcript []models.ChatTurn

	opened     bool
	openedAt   time.Time
	outcome    string
	unregister func()
	readDone   chan struct{}
	closeOnce  sync.Once
}

func newConnection(parent context.Context, e *Engine, t Transport, p Params) *connection {
	ctx, cancel := context.WithCancelCause(parent)
	id := uuid.NewString()
	base := log.With().Str("connection_id", id).Logger()

	return &connection{
		e:         e,
		transport: t,
		params:    p,
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		base:      base,
		logger:    base.With().Str("state", StateConnecting.String()).Logger(),
		state:     StateConnecting,
		outcome:   outcomeDisconnected,
	}
}

func (c *connection) setState(s State) {
	c.state = s
	c.logger = c.base.With().Str("state", s.String()).Logger()
	c.logger.Debug().Msg("state changed")
}

// withIdentity adds the principal and session to every later log line. It
// rebuilds from the root logger so repeated calls do not repeat fields.
func (c *connection) withIdentity() {
	ctx := log.With().Str("connection_id", c.id)
	if c.principal != nil {
		ctx = ctx.Str("user_id", c.principal.ID)
	}
	if c.session != nil {
		ctx = ctx.Str("session_id", c.session.ID)
	}
	c.base = ctx.Logger()
	c.logger = c.base.With().Str("state", c.state.String()).Logger()
}

// run drives the connection from authentication to CLOSED. Cleanup runs exactly
// once on every exit path.
func (c *connection) run() {
	defer c.release()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("live connection crashed")
			c.outcome = outcomeError
			c.close(websocket.CloseInternalServerErr, "Internal server error")
		}
	}()

	if !c.authenticate() {
		return
	}
	c.resolveScenario()
	if !c.openSession() {
		return
	}
	if !c.loadTranscript() {
		return
	}
	c.loop()
}

func (c *connection) authenticate() bool {
	c.setState(StateAuthenticating)

	token := strings.TrimSpace(c.params.Token)
	if token == "" {
		c.logger.Warn().Msg("missing token")
		c.reject(outcomeUnauthorized, websocket.ClosePolicyViolation, "Authentication failed")
		return false
	}

	principal, err := c.e.auth.Resolve(c.ctx, token)
	if err != nil {
		if errors.IsUnauthorized(err) {
			c.logger.Warn().Err(err).Msg("authentication failed")
			c.reject(outcomeUnauthorized, websocket.ClosePolicyViolation, "Authentication failed")
		} else {
			c.logger.Error().Err(err).Msg("authentication error")
			c.reject(outcomeError, websocket.CloseInternalServerErr, "Server error")
		}
		return false
	}

	c.principal = principal
	c.withIdentity()

	unregister, replaced := c.e.registry.Register(principal.ID, registry.Handle{
		ConnectionID: c.id,
		Cancel:       func() { c.cancel(ErrServerShutdown) },
	})
	c.unregister = unregister
	c.opened = true
	c.openedAt = time.Now()
	c.e.metrics.LiveConnectionOpened()

	c.logger.Info().Bool("replaced", replaced).Str("username", principal.Username).Msg("live connection authenticated")
	return true
}

func (c *connection) resolveScenario() {
	c.setState(StateResolvingScenario)

	c.language = normalizeLanguage(c.params.Language)
	if c.params.Scenario.IsZero() {
		return
	}

	language := c.language
	if language == "" {
		language = c.e.defaultLanguage
	}
	c.scenario = c.e.scenarios.Resolve(c.ctx, c.params.Scenario, c.principal, language)
}

// openSession resumes the requested session or creates a new one. A resume
// failure closes the connection without loading any messages.
func (c *connection) openSession() bool {
	if id := strings.TrimSpace(c.params.SessionID); id != "" {
		return c.resumeSession(id)
	}
	return c.createSession()
}

func (c *connection) resumeSession(id string) bool {
	sess, err := c.e.sessions.Get(c.ctx, id)
	switch {
	case errors.IsNotFound(err), err == nil && sess == nil:
		c.logger.Warn().Str("session_id", id).Msg("session not found")
		c.fail(outcomeRejected, websocket.ClosePolicyViolation, "Session not found")
		return false
	case err != nil:
		c.logger.Error().Err(err).Str("session_id", id).Msg("failed to load session")
		c.fail(outcomeError, websocket.CloseInternalServerErr, "Failed to load session")
		return false
	case !sess.IsOwnedBy(c.principal.ID):
		c.logger.Warn().Str("session_id", id).Str("owner_id", sess.UserID).Msg("session belongs to another user")
		c.fail(outcomeRejected, websocket.ClosePolicyViolation, "Not authorized to access this session")
		return false
	}

	c.session = sess
	if c.scenario == nil {
		c.scenario = sess.Metadata.Scenario
	}
	if c.language == "" {
		c.language = normalizeLanguage(sess.Metadata.Language)
	}
	if c.language == "" {
		c.language = c.e.defaultLanguage
	}
	c.withIdentity()
	c.setState(StateSessionReady)

	c.logger.Info().Msg("resuming session")
	return c.send(newSessionResumed(sess.ID)) == nil
}

func (c *connection) createSession() bool {
	if c.language == "" {
		c.language = c.e.defaultLanguage
	}

	sess, err := c.e.sessions.Create(c.ctx, c.principal.ID, &session.CreateInput{
		Title: models.VoiceSessionTitle(c.language, c.scenario),
		Metadata: models.SessionMetadata{
			Scenario: c.scenario,
			Language: c.language,
		},
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to create session")
		c.fail(outcomeError, websocket.CloseInternalServerErr, "Failed to create session")
		return false
	}

	c.session = sess
	c.withIdentity()
	c.setState(StateSessionReady)

	c.logger.Info().Bool("scenario", c.scenario != nil).Msg("session created")
	return c.send(newSessionCreated(sess.ID)) == nil
}

func (c *connection) loadTranscript() bool {
	messages, err := c.e.sessions.ListMessages(c.ctx, c.session.ID, 0, 0)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to load messages")
		c.fail(outcomeError, websocket.CloseInternalServerErr, "Failed to load conversation history")
		return false
	}
	c.transcript = models.ToChatTurns(messages)

	return c.send(newReady()) == nil
}

// loop is the ACTIVE_LOOP state. It returns when the connection must close.
func (c *connection) loop() {
	c.setState(StateActiveLoop)

	frames := make(chan inboundFrame, 16)
	c.readDone = make(chan struct{})
	go c.readLoop(frames)

	idle := time.NewTimer(c.e.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.stopped()
			return

		case frame, ok := <-frames:
			if !ok {
				c.stopped()
				return
			}
			if isText(frame.messageType) {
				if !c.handle(frame.data) {
					return
				}
			} else {
				c.logger.Debug().Int("message_type", frame.messageType).Msg("ignoring non-text frame")
			}
			idle.Reset(c.e.idleTimeout)

		case <-idle.C:
			c.logger.Debug().Msg("idle timeout, sending keepalive")
			if err := c.send(newKeepalive()); err != nil {
				c.outcome = outcomeIdle
				c.close(websocket.CloseGoingAway, "")
				return
			}
			idle.Reset(c.e.idleTimeout)
		}
	}
}

// stopped closes a connection whose context ended.
func (c *connection) stopped() {
	if stderrors.Is(context.Cause(c.ctx), ErrServerShutdown) {
		c.outcome = outcomeShutdown
		c.logger.Info().Msg("closing live connection for shutdown")
		c.close(websocket.CloseGoingAway, "Server shutting down")
		return
	}
	c.outcome = outcomeDisconnected
	c.logger.Info().Msg("client disconnected")
	c.close(websocket.CloseNormalClosure, "")
}

// readLoop forwards frames until the transport fails. A read failure cancels the
// connection context so an in-flight agent call is abandoned.
func (c *connection) readLoop(out chan<- inboundFrame) {
	defer close(c.readDone)
	defer close(out)

	for {
		messageType, data, err := c.transport.ReadMessage()
		if err != nil {
			c.cancel(errTransportClosed)
			return
		}
		select {
		case out <- inboundFrame{messageType: messageType, data: data}:
		case <-c.ctx.Done():
			return
		}
	}
}

// handle processes one client event. It returns false when the connection must close.
func (c *connection) handle(data []byte) bool {
	event, err := DecodeClientEvent(data)
	if err != nil {
		var unknown *UnknownEventError
		if stderrors.As(err, &unknown) {
			c.e.metrics.RecordClientEvent("unknown")
			c.logger.Warn().Str("event_type", unknown.Type).Msg("unknown client event")
			return c.send(newError("Unknown message type: "+unknown.Type)) == nil
		}
		c.e.metrics.RecordClientEvent("invalid")
		c.logger.Warn().Int("bytes", len(data)).Msg("invalid JSON frame")
		return c.send(newError(ErrInvalidJSON.Message)) == nil
	}

	switch ev := event.(type) {
	case VoiceInput:
		c.e.metrics.RecordClientEvent(EventVoiceInput)
		return c.handleVoiceInput(ev.Text)
	case Ping:
		c.e.metrics.RecordClientEvent(EventPing)
		return c.send(newPong()) == nil
	case AnalyzeConversation:
		c.e.metrics.RecordClientEvent(EventAnalyzeConversation)
		return c.analyze(ev.ForceReanalysis)
	case EndConversation:
		c.e.metrics.RecordClientEvent(EventEndConversation)
		c.analyze(true)
		c.outcome = outcomeEnded
		c.logger.Info().Msg("conversation ended by client")
		c.close(websocket.CloseNormalClosure, "")
		return false
	}
	return true
}

// handleVoiceInput runs one conversational turn. The user message is persisted
// before the agent is called.
func (c *connection) handleVoiceInput(raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		c.logger.Debug().Msg("empty voice input ignored")
		return true
	}

	history := withSystemPrompt(c.transcript, c.scenario, c.language)

	userMessage := models.NewMessage(c.session.ID, models.RoleUser, text, c.e.agent.CountTokens(text))
	userPersisted := true
	if err := c.e.sessions.AppendMessage(c.ctx, userMessage); err != nil {
		userPersisted = false
		c.logger.Error().Err(err).Msg("failed to save user message")
	}

	start := time.Now()
	result, err := c.e.agent.Chat(c.ctx, &agent.ChatRequest{
		Input:       text,
		History:     history,
		Temperature: c.e.temperature,
		MaxTokens:   c.e.maxTokens,
	})
	c.e.metrics.RecordAgentCall(models.UsageContextConversation, err, time.Since(start))

	if c.ctx.Err() != nil {
		c.logger.Info().Msg("connection closed during agent call, discarding reply")
		return true
	}

	if err != nil {
		c.logger.Error().Err(err).Msg("agent call failed")
		if userPersisted {
			c.transcript = append(c.transcript, userMessage.ToChatTurn())
		}
		return c.send(newError("Error processing your message: "+errorMessage(err))) == nil
	}

	assistantMessage := models.NewMessage(c.session.ID, models.RoleAssistant, result.Text, result.Usage.CompletionTokens)
	assistantMessage.Metadata = map[string]interface{}{"model": result.Model}
	if err := c.e.sessions.AppendMessage(c.ctx, assistantMessage); err != nil {
		c.logger.Error().Err(err).Msg("failed to save assistant message")
	}

	if _, err := c.e.usage.Record(c.ctx, &usage.RecordInput{
		UserID:    c.principal.ID,
		SessionID: c.session.ID,
		Model:     result.Model,
		Usage:     result.Usage,
		Context:   models.UsageContextConversation,
		WithCost:  true,
	}); err != nil {
		c.logger.Error().Err(err).Msg("failed to record usage")
	}

	if err := c.e.sessions.Touch(c.ctx, c.session.ID); err != nil {
		c.logger.Warn().Err(err).Msg("failed to touch session")
	}

	c.transcript = result.Messages

	c.logger.Info().
		Str("model", result.Model).
		Int("total_tokens", result.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("assistant replied")

	return c.send(AssistantMessageEvent{
		Type:  EventAssistantMessage,
		Text:  result.Text,
		Usage: result.Usage,
	}) == nil
}

// analyze runs the ANALYZING state and returns to ACTIVE_LOOP. Analysis failures
// are reported to the client and never close the connection.
func (c *connection) analyze(force bool) bool {
	c.setState(StateAnalyzing)
	defer c.setState(StateActiveLoop)

	feedback, err := c.e.analyzer.Analyze(c.ctx, c.principal, c.session.ID, c.language, force)
	if err != nil {
		c.logger.Error().Err(err).Bool("force", force).Msg("failed to analyze conversation")
		return c.send(newError("Failed to analyze conversation")) == nil
	}

	c.logger.Info().Str("feedback_id", feedback.ID).Int("overall_score", feedback.Scores.Overall).Msg("analysis sent")
	return c.send(newAnalysis(feedback)) == nil
}

func (c *connection) send(v any) error {
	if err := c.transport.WriteJSON(v); err != nil {
		c.logger.Debug().Err(err).Msg("failed to send event")
		return err
	}
	return nil
}

// reject closes a connection that never passed authentication. No event is sent.
func (c *connection) reject(outcome string, code int, reason string) {
	c.outcome = outcome
	c.close(code, reason)
}

// fail sends a best effort error event and closes the connection.
func (c *connection) fail(outcome string, code int, message string) {
	c.outcome = outcome
	_ = c.send(newError(message))
	c.close(code, message)
}

func (c *connection) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		if err := c.transport.Close(code, reason); err != nil {
			c.logger.Debug().Err(err).Msg("transport close failed")
		}
	})
}

// release is the guaranteed cleanup of every exit path.
func (c *connection) release() {
	c.close(websocket.CloseNormalClosure, "")
	c.cancel(errTransportClosed)

	if c.readDone != nil {
		<-c.readDone
	}
	if c.unregister != nil {
		c.unregister()
	}

	if c.opened {
		c.e.metrics.LiveConnectionClosed(c.outcome, time.Since(c.openedAt))
	} else {
		c.e.metrics.LiveConnectionRejected(c.outcome)
	}

	c.setState(StateClosed)
	c.logger.Info().Str("outcome", c.outcome).Msg("live connection closed")
}
