package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lingopal/conversation-service/internal/api/handlers"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	domainerrors "github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/chat"
	"github.com/lingopal/conversation-service/internal/testutils"
)

func setupChatRouter(sender *mockChatSender) *gin.Engine {
	router := testutils.SetupTestRouter()
	router.Use(testutils.WithPrincipal(testutils.NewTestPrincipal()))
	router.POST("/chat", handlers.NewChatHandler(sender).SendMessage)
	return router
}

func TestChatHandler_SendMessage(t *testing.T) {
	// Setup
	sender := &mockChatSender{}
	sender.On("Send", mock.Anything, testutils.NewTestPrincipal(), &chat.SendInput{
		Message:     "Bonjour",
		SessionID:   testutils.TestSessionID,
		Temperature: 0.5,
	}).Return(&chat.SendResult{
		Response:  "Bonjour ! Comment allez-vous ?",
		SessionID: testutils.TestSessionID,
		Usage:     models.TokenUsage{PromptTokens: 10, CompletionTokens: 6, TotalTokens: 16},
		Model:     "gpt-3.5-turbo",
	}, nil)

	router := setupChatRouter(sender)

	// Execute
	w := testutils.PerformRequest(router, "POST", "/chat", map[string]interface{}{
		"message":     "Bonjour",
		"session_id":  testutils.TestSessionID,
		"temperature": 0.5,
	}, nil)

	// Assert
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response chat.SendResult
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, "Bonjour ! Comment allez-vous ?", response.Response)
	assert.Equal(t, testutils.TestSessionID, response.SessionID)
	assert.Equal(t, 16, response.Usage.TotalTokens)
	sender.AssertExpectations(t)
}

func TestChatHandler_SendMessage_MissingMessage(t *testing.T) {
	sender := &mockChatSender{}
	router := setupChatRouter(sender)

	w := testutils.PerformRequest(router, "POST", "/chat", map[string]interface{}{"session_id": "s1"}, nil)

	testutils.AssertStatusCode(t, http.StatusBadRequest, w)

	var response middleware.ErrorResponse
	testutils.ParseJSONResponse(t, w, &response)
	assert.Equal(t, domainerrors.ErrCodeValidation, response.Code)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatHandler_SendMessage_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"foreign session", domainerrors.NewForbiddenError("not your session"), http.StatusForbidden, domainerrors.ErrCodeForbidden},
		{"missing session", domainerrors.NewNotFoundError("Session", "s9"), http.StatusNotFound, domainerrors.ErrCodeNotFound},
		{"provider failure", domainerrors.NewProviderError("chat completion failed", assert.AnError), http.StatusBadGateway, domainerrors.ErrCodeProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockChatSender{}
			sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			router := setupChatRouter(sender)

			w := testutils.PerformRequest(router, "POST", "/chat", map[string]interface{}{"message": "hi", "session_id": "s9"}, nil)

			testutils.AssertStatusCode(t, tt.wantStatus, w)

			var response middleware.ErrorResponse
			testutils.ParseJSONResponse(t, w, &response)
			assert.Equal(t, tt.wantCode, response.Code)
		})
	}
}

func TestChatHandler_SendMessage_Stream(t *testing.T) {
	// Setup
	sender := &mockChatSender{chunks: []string{"Hola", " amigo"}}
	sender.On("Stream", mock.Anything, mock.Anything, mock.MatchedBy(func(in *chat.SendInput) bool {
		return in.Message == "Hola"
	})).Return(&chat.SendResult{
		Response:  "Hola amigo",
		SessionID: "s1",
		Usage:     models.TokenUsage{PromptTokens: 2, CompletionTokens: 2, TotalTokens: 4},
		Model:     "gpt-3.5-turbo",
	}, nil)

	router := setupChatRouter(sender)

	// Execute
	w := testutils.PerformRequest(router, "POST", "/chat", map[string]interface{}{"message": "Hola", "stream": true}, nil)

	// Assert
	testutils.AssertStatusCode(t, http.StatusOK, w)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t,
		"event: chunk\ndata: {\"content\":\"Hola\"}\n\n"+
			"event: chunk\ndata: {\"content\":\" amigo\"}\n\n"+
			"event: done\ndata: {\"response\":\"Hola amigo\",\"session_id\":\"s1\",\"usage\":{\"prompt_tokens\":2,\"completion_tokens\":2,\"total_tokens\":4},\"model\":\"gpt-3.5-turbo\"}\n\n",
		w.Body.String())
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatHandler_SendMessage_StreamErrors(t *testing.T) {
	t.Run("before first chunk", func(t *testing.T) {
		sender := &mockChatSender{}
		sender.On("Stream", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domainerrors.NewNotFoundError("Session", "s9"))
		router := setupChatRouter(sender)

		w := testutils.PerformRequest(router, "POST", "/chat", map[string]interface{}{"message": "hi", "session_id": "s9", "stream": true}, nil)

		testutils.AssertStatusCode(t, http.StatusNotFound, w)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	})

	t.Run("after first chunk", func(t *testing.T) {
		sender := &mockChatSender{chunks: []string{"Hol"}}
		sender.On("Stream", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domainerrors.NewProviderError("chat completion failed", assert.AnError))
		router := setupChatRouter(sender)

		w := testutils.PerformRequest(router, "POST", "/chat", map[string]interface{}{"message": "hi", "stream": true}, nil)

		testutils.AssertStatusCode(t, http.StatusOK, w)
		assert.Equal(t,
			"event: chunk\ndata: {\"content\":\"Hol\"}\n\n"+
				"event: error\ndata: {\"code\":\"PROVIDER_ERROR\",\"message\":\"chat completion failed\"}\n\n",
			w.Body.String())
	})
}
