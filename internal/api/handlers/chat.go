package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingopal/conversation-service/internal/api/dto"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/api/sse"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/chat"
)

// ChatSender answers chat messages.
type ChatSender interface {
	Send(ctx context.Context, principal *models.Principal, in *chat.SendInput) (*chat.SendResult, error)
	Stream(ctx context.Context, principal *models.Principal, in *chat.SendInput, onChunk func(string) error) (*chat.SendResult, error)
}

// ChatHandler handles request/response chat.
type ChatHandler struct {
	chat ChatSender
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(sender ChatSender) *ChatHandler {
	return &ChatHandler{chat: sender}
}

// SendMessage handles POST /chat
// @Summary Send a chat message
// @Description Sends a message to the tutor. Without session_id a new session is created. With stream=true the reply is delivered as Server-Sent Events: "chunk" events followed by a single "done" event.
// @Tags Chat
// @Accept json
// @Produce json
// @Produce text/event-stream
// @Param request body dto.ChatRequest true "Chat message"
// @Success 200 {object} chat.SendResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	principal := middleware.GetPrincipal(c)
	in := &chat.SendInput{
		Message:     req.Message,
		SessionID:   req.SessionID,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if req.Stream {
		h.streamMessage(c, principal, in)
		return
	}

	result, err := h.chat.Send(c.Request.Context(), principal, in)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// streamMessage relays chunks as SSE events. Errors that happen before the
// first event are returned as regular JSON errors.
func (h *ChatHandler) streamMessage(c *gin.Context, principal *models.Principal, in *chat.SendInput) {
	writer, err := sse.NewWriter(c.Writer)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("streaming not supported", err))
		return
	}

	result, err := h.chat.Stream(c.Request.Context(), principal, in, func(chunk string) error {
		return writer.WriteJSON(sse.EventChunk, dto.SSEChunk{Content: chunk})
	})
	if err != nil {
		if !writer.Started() {
			middleware.HandleError(c, err)
			return
		}
		logger := middleware.GetRequestLogger(c)
		logger.Warn().Err(err).Msg("chat stream interrupted")

		code, message, details := errors.ErrCodeInternal, "stream failed", ""
		if domainErr, ok := errors.GetDomainError(err); ok {
			code, message, details = domainErr.Code, domainErr.Message, domainErr.Details
		}
		_ = writer.WriteError(code, message, details)
		return
	}

	if err := writer.WriteJSON(sse.EventDone, result); err != nil {
		logger := middleware.GetRequestLogger(c)
		logger.Warn().Err(err).Msg("failed to write done event")
	}
}
