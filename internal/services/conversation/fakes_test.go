package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/llm"
	"github.com/lingopal/conversation-service/internal/services/session"
)

const waitTimeout = 2 * time.Second

// fakeTransport is an in-memory Transport. The test plays the client.
type fakeTransport struct {
	in     chan inboundFrame
	events chan map[string]any

	gone     chan struct{}
	goneOnce sync.Once

	mu          sync.Mutex
	closed      chan struct{}
	closeCode   int
	closeReason string
	closeCalls  int
	failWrites  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan inboundFrame, 16),
		events: make(chan map[string]any, 64),
		gone:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-f.in:
		return frame.messageType, frame.data, nil
	case <-f.gone:
		return 0, nil, io.EOF
	case <-f.closed:
		return 0, nil, io.EOF
	}
}

func (f *fakeTransport) WriteJSON(v any) error {
	f.mu.Lock()
	failing := f.failWrites
	f.mu.Unlock()

	select {
	case <-f.gone:
		return io.ErrClosedPipe
	case <-f.closed:
		return io.ErrClosedPipe
	default:
	}
	if failing {
		return io.ErrClosedPipe
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var event map[string]any
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	f.events <- event
	return nil
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closeCalls++
	if f.closeCalls > 1 {
		return nil
	}
	f.closeCode = code
	f.closeReason = reason
	close(f.closed)
	return nil
}

// disconnect simulates the client dropping the connection.
func (f *fakeTransport) disconnect() {
	f.goneOnce.Do(func() { close(f.gone) })
}

func (f *fakeTransport) setFailWrites(fail bool) {
	f.mu.Lock()
	f.failWrites = fail
	f.mu.Unlock()
}

func (f *fakeTransport) sendJSON(t *testing.T, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f.in <- inboundFrame{messageType: websocket.TextMessage, data: data}
}

func (f *fakeTransport) sendRaw(messageType int, data string) {
	f.in <- inboundFrame{messageType: messageType, data: []byte(data)}
}

func (f *fakeTransport) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case event := <-f.events:
		return event
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func (f *fakeTransport) expectNoEvent(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case event := <-f.events:
		t.Fatalf("unexpected event: %v", event)
	case <-time.After(wait):
	}
}

func (f *fakeTransport) closeState() (code int, reason string, calls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode, f.closeReason, f.closeCalls
}

// fakeAuth resolves tokens from a fixed table.
type fakeAuth struct {
	principals map[string]*models.Principal
}

func (a *fakeAuth) Resolve(_ context.Context, token string) (*models.Principal, error) {
	if token == "boom" {
		return nil, errors.NewInternalError("user lookup failed", fmt.Errorf("connection refused"))
	}
	p, ok := a.principals[token]
	if !ok {
		return nil, errors.NewUnauthorizedError("invalid token")
	}
	return p, nil
}

// memSessions is an in-memory SessionStore.
type memSessions struct {
	mu           sync.Mutex
	sessions     map[string]*models.Session
	messages     []*models.Message
	listCalls    int
	touches      int
	nextID       int
	failAppend   map[models.MessageRole]error
	lastMetadata models.SessionMetadata
}

func newMemSessions() *memSessions {
	return &memSessions{
		sessions:   make(map[string]*models.Session),
		failAppend: make(map[models.MessageRole]error),
	}
}

func (m *memSessions) Create(_ context.Context, userID string, in *session.CreateInput) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	s := &models.Session{
		ID:        fmt.Sprintf("s%d", m.nextID),
		UserID:    userID,
		Title:     in.Title,
		IsActive:  true,
		Metadata:  in.Metadata,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	m.sessions[s.ID] = s
	m.lastMetadata = in.Metadata
	return s, nil
}

func (m *memSessions) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("Session", id)
	}
	return s, nil
}

func (m *memSessions) Touch(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touches++
	return nil
}

func (m *memSessions) AppendMessage(_ context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failAppend[message.Role]; err != nil {
		return err
	}
	message.ID = fmt.Sprintf("m%d", len(m.messages)+1)
	m.messages = append(m.messages, message)
	return nil
}

func (m *memSessions) ListMessages(_ context.Context, sessionID string, _, _ int64) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	var out []*models.Message
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memSessions) add(s *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *memSessions) snapshot() []*models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Message(nil), m.messages...)
}

func (m *memSessions) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// fakeProvider answers every Generate call through reply.
type fakeProvider struct {
	mu    sync.Mutex
	calls [][]models.ChatTurn
	reply func(ctx context.Context, messages []models.ChatTurn) (*llm.Completion, error)
}

func (p *fakeProvider) Generate(ctx context.Context, messages []models.ChatTurn, _ llm.GenerateOptions) (*llm.Completion, error) {
	p.mu.Lock()
	p.calls = append(p.calls, append([]models.ChatTurn(nil), messages...))
	reply := p.reply
	p.mu.Unlock()

	if reply != nil {
		return reply(ctx, messages)
	}
	last := messages[len(messages)-1]
	return &llm.Completion{
		Content: "echo: " + last.Content,
		Usage:   models.TokenUsage{PromptTokens: 12, CompletionTokens: 4},
		Model:   "gpt-3.5-turbo",
	}, nil
}

func (p *fakeProvider) Stream(context.Context, []models.ChatTurn, llm.GenerateOptions) (llm.StreamReader, error) {
	return nil, fmt.Errorf("streaming not supported")
}

func (p *fakeProvider) CountTokens(text string) int { return llm.EstimateTokens(text) }

func (p *fakeProvider) Model() string { return "gpt-3.5-turbo" }

func (p *fakeProvider) history(i int) []models.ChatTurn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[i]
}

// memUsage is an in-memory docdb.UsageCollection.
type memUsage struct {
	mu      sync.Mutex
	records []*models.UsageRecord
}

func (m *memUsage) Insert(_ context.Context, record *models.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memUsage) ListByUser(context.Context, *docdb.ListUsageOptions) ([]*models.UsageRecord, error) {
	return nil, nil
}

func (m *memUsage) SummarizeByModel(context.Context, *docdb.ListUsageOptions) ([]models.ModelUsage, error) {
	return nil, nil
}

func (m *memUsage) EnsureIndexes(context.Context) error { return nil }

func (m *memUsage) snapshot() []*models.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.UsageRecord(nil), m.records...)
}

// fakeAnalyzer records requests and answers through result.
type fakeAnalyzer struct {
	mu     sync.Mutex
	forces []bool
	err    error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, _ *models.Principal, sessionID, language string, force bool) (*models.Feedback, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.forces = append(a.forces, force)
	if a.err != nil {
		return nil, a.err
	}
	return &models.Feedback{
		ID:        "fb-" + sessionID,
		SessionID: sessionID,
		Language:  language,
		Strengths: []string{"Good effort in the conversation"},
		Scores:    models.FeedbackScores{Overall: 80, Fluency: 75, Grammar: 70, Vocabulary: 70, Pronunciation: 70},
	}, nil
}

func (a *fakeAnalyzer) calls() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.forces...)
}
