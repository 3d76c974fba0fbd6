package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingopal/conversation-service/internal/api/handlers"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	domainerrors "github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/mocks"
	"github.com/lingopal/conversation-service/internal/services/agent"
	"github.com/lingopal/conversation-service/internal/services/conversation"
	"github.com/lingopal/conversation-service/internal/services/llm"
	"github.com/lingopal/conversation-service/internal/services/registry"
	"github.com/lingopal/conversation-service/internal/services/session"
	"github.com/lingopal/conversation-service/internal/services/usage"
	"github.com/lingopal/conversation-service/internal/testutils"
)

type wsFixture struct {
	auth      *mockPrincipalResolver
	sessions  *mockSessionService
	scenarios *mockScenarioResolver
	provider  *mocks.MockProvider
	usage     *mockUsageRecorder
	analyzer  *mockAnalyzer
	server    *httptest.Server
}

func newWSFixture(t *testing.T, maxMessageBytes int64) *wsFixture {
	t.Helper()

	f := &wsFixture{
		auth:      &mockPrincipalResolver{},
		sessions:  &mockSessionService{},
		scenarios: &mockScenarioResolver{},
		provider:  &mocks.MockProvider{},
		usage:     &mockUsageRecorder{},
		analyzer:  &mockAnalyzer{},
	}

	a, err := agent.New(f.provider)
	require.NoError(t, err)

	engine, err := conversation.NewEngine(&conversation.Config{
		Auth:        f.auth,
		Sessions:    f.sessions,
		Scenarios:   f.scenarios,
		Agent:       a,
		Usage:       f.usage,
		Analyzer:    f.analyzer,
		Registry:    registry.New(),
		IdleTimeout: time.Minute,
	})
	require.NoError(t, err)

	handler := handlers.NewConversationHandler(engine, handlers.ConversationConfig{
		WriteTimeout:    time.Second,
		MaxMessageBytes: maxMessageBytes,
		CORS:            middleware.DefaultCORSConfig([]string{"http://localhost:3000"}),
	})

	router := testutils.SetupTestRouter()
	router.GET("/ws/conversation", handler.Connect)
	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func (f *wsFixture) dial(t *testing.T, query url.Values, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/conversation?" + query.Encode()
	conn, resp, err := websocket.DefaultDialer.Dial(u, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	}
	return conn, resp, err
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	var event map[string]interface{}
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func requireClose(t *testing.T, conn *websocket.Conn, code int, text string) {
	t.Helper()
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, code, closeErr.Code)
	assert.Equal(t, text, closeErr.Text)
}

func TestConversationHandler_ScenarioConversation(t *testing.T) {
	// Setup
	f := newWSFixture(t, 0)
	principal := &models.Principal{ID: "u1", Username: "marie"}
	descriptor := testutils.NewTestSession().Metadata.Scenario

	f.auth.On("Resolve", mock.Anything, "token-u1").Return(principal, nil)
	f.scenarios.On("Resolve", mock.Anything, models.ScenarioReference{ID: "job_interview", Type: "predefined"}, principal, "fr").
		Return(descriptor)
	f.sessions.On("Create", mock.Anything, "u1", mock.MatchedBy(func(in *session.CreateInput) bool {
		return in.Metadata.Scenario == descriptor && in.Metadata.Language == "fr"
	})).Return(&models.Session{ID: "s1", UserID: "u1"}, nil)
	f.sessions.On("ListMessages", mock.Anything, "s1", int64(0), int64(0)).Return([]*models.Message{}, nil)
	f.sessions.On("AppendMessage", mock.Anything, mock.Anything).Return(nil)
	f.sessions.On("Touch", mock.Anything, "s1").Return(nil)
	f.provider.On("CountTokens", "Bonjour").Return(1)
	f.provider.On("Generate", mock.Anything, mock.MatchedBy(func(turns []models.ChatTurn) bool {
		return len(turns) == 2 && turns[0].Role == models.RoleSystem && turns[1].Content == "Bonjour"
	}), llm.GenerateOptions{Temperature: conversation.DefaultTemperature}).Return(&llm.Completion{
		Content: "Bonjour, asseyez-vous.",
		Model:   "gpt-3.5-turbo",
		Usage:   models.TokenUsage{PromptTokens: 40, CompletionTokens: 5},
	}, nil)
	f.usage.On("Record", mock.Anything, mock.MatchedBy(func(in *usage.RecordInput) bool {
		return in.SessionID == "s1" && in.Context == models.UsageContextConversation
	})).Return(&models.UsageRecord{ID: "r1"}, nil)
	f.analyzer.On("Analyze", mock.Anything, principal, "s1", "fr", true).Return(&models.Feedback{
		ID:     "fb1",
		Scores: models.FeedbackScores{Overall: 80},
	}, nil)

	// Execute
	conn, _, err := f.dial(t, url.Values{
		"token":         {"token-u1"},
		"language":      {"fr"},
		"scenario_id":   {"job_interview"},
		"scenario_type": {"predefined"},
	}, nil)
	require.NoError(t, err)

	// Assert
	created := readEvent(t, conn)
	assert.Equal(t, "session_created", created["type"])
	assert.Equal(t, "s1", created["session_id"])
	assert.Equal(t, "ready", readEvent(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "voice_input", "text": "Bonjour"}))
	reply := readEvent(t, conn)
	assert.Equal(t, "assistant_message", reply["type"])
	assert.Equal(t, "Bonjour, asseyez-vous.", reply["text"])
	assert.Equal(t, float64(45), reply["usage"].(map[string]interface{})["total_tokens"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "end_conversation"}))
	analysis := readEvent(t, conn)
	assert.Equal(t, "analysis", analysis["type"])
	assert.Equal(t, "fb1", analysis["feedback_id"])

	requireClose(t, conn, websocket.CloseNormalClosure, "")
	f.sessions.AssertNumberOfCalls(t, "AppendMessage", 2)
	f.usage.AssertExpectations(t)
}

func TestConversationHandler_InvalidToken(t *testing.T) {
	f := newWSFixture(t, 0)
	f.auth.On("Resolve", mock.Anything, "expired").Return(nil, domainerrors.NewUnauthorizedError("token expired"))

	conn, _, err := f.dial(t, url.Values{"token": {"expired"}}, nil)
	require.NoError(t, err)

	requireClose(t, conn, websocket.ClosePolicyViolation, "Authentication failed")
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationHandler_OriginCheck(t *testing.T) {
	f := newWSFixture(t, 0)

	t.Run("foreign origin rejected", func(t *testing.T) {
		_, resp, err := f.dial(t, url.Values{"token": {"token-u1"}}, http.Header{"Origin": {"https://evil.example"}})

		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		f.auth.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("allowed origin accepted", func(t *testing.T) {
		f.auth.On("Resolve", mock.Anything, "bad").Return(nil, domainerrors.NewUnauthorizedError("invalid token")).Once()

		conn, _, err := f.dial(t, url.Values{"token": {"bad"}}, http.Header{"Origin": {"http://localhost:3000"}})

		require.NoError(t, err)
		requireClose(t, conn, websocket.ClosePolicyViolation, "Authentication failed")
	})
}

func TestConversationHandler_ReadLimit(t *testing.T) {
	// Setup
	f := newWSFixture(t, 64)
	principal := &models.Principal{ID: "u1", Username: "marie"}
	f.auth.On("Resolve", mock.Anything, "token-u1").Return(principal, nil)
	f.sessions.On("Create", mock.Anything, "u1", mock.Anything).Return(&models.Session{ID: "s1", UserID: "u1"}, nil)
	f.sessions.On("ListMessages", mock.Anything, "s1", int64(0), int64(0)).Return([]*models.Message{}, nil)

	conn, _, err := f.dial(t, url.Values{"token": {"token-u1"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "session_created", readEvent(t, conn)["type"])
	assert.Equal(t, "ready", readEvent(t, conn)["type"])

	// Execute
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "voice_input", "text": strings.Repeat("a", 200)}))

	// Assert
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseMessageTooBig, closeErr.Code)
	f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}
