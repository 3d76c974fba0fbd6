package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lingopal/conversation-service/internal/api/dto"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/session"
)

const (
	defaultSessionPageSize = 50
	defaultMessagePageSize = 100
)

// ScenarioResolver turns a scenario reference into a descriptor. Unusable
// references resolve to nil.
type ScenarioResolver interface {
	Resolve(ctx context.Context, ref models.ScenarioReference, principal *models.Principal, language string) *models.ScenarioDescriptor
}

// SessionsHandler handles chat session endpoints.
type SessionsHandler struct {
	sessions        session.Service
	scenarios       ScenarioResolver
	defaultLanguage string
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(sessions session.Service, scenarios ScenarioResolver, defaultLanguage string) *SessionsHandler {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &SessionsHandler{
		sessions:        sessions,
		scenarios:       scenarios,
		defaultLanguage: defaultLanguage,
	}
}

// SessionListResponse is a page of sessions.
type SessionListResponse struct {
	Sessions []*models.Session `json:"sessions"`
	Skip     int64             `json:"skip"`
	Limit    int64             `json:"limit"`
}

// MessageListResponse is a page of messages.
type MessageListResponse struct {
	Messages []*models.Message `json:"messages"`
	Skip     int64             `json:"skip"`
	Limit    int64             `json:"limit"`
}

// CreateSession handles POST /chat/sessions
// @Summary Create a chat session
// @Description Creates a session. A scenario_id and scenario_type pair is resolved into a scenario stored in the session metadata; unusable references are ignored.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest false "Session attributes"
// @Success 201 {object} models.Session
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions [post]
func (h *SessionsHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	principal := middleware.GetPrincipal(c)
	language := strings.ToLower(strings.TrimSpace(req.Language))
	if language == "" {
		language = h.defaultLanguage
	}

	metadata := models.SessionMetadata{
		Language: language,
		Extra:    req.Metadata,
	}
	if req.ScenarioID != "" && req.ScenarioType != "" && h.scenarios != nil {
		metadata.Scenario = h.scenarios.Resolve(c.Request.Context(), models.ScenarioReference{
			ID:   req.ScenarioID,
			Type: req.ScenarioType,
		}, principal, language)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = models.DefaultSessionTitle
		if metadata.Scenario != nil {
			title = metadata.Scenario.Title
		}
	}

	created, err := h.sessions.Create(c.Request.Context(), principal.ID, &session.CreateInput{
		Title:    title,
		Metadata: metadata,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListSessions handles GET /chat/sessions
// @Summary List chat sessions
// @Description Lists the caller's sessions, most recently updated first
// @Tags Sessions
// @Produce json
// @Param skip query int false "Sessions to skip" default(0) minimum(0)
// @Param limit query int false "Maximum number of sessions" default(50) minimum(1) maximum(500)
// @Success 200 {object} SessionListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions [get]
func (h *SessionsHandler) ListSessions(c *gin.Context) {
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if page.Limit == 0 {
		page.Limit = defaultSessionPageSize
	}

	principal := middleware.GetPrincipal(c)
	sessions, err := h.sessions.ListByUser(c.Request.Context(), principal.ID, page.Skip, page.Limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: sessions,
		Skip:     page.Skip,
		Limit:    page.Limit,
	})
}

// GetSession handles GET /chat/sessions/{id}
// @Summary Get a chat session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Session
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id} [get]
func (h *SessionsHandler) GetSession(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	sess, err := h.sessions.GetOwned(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// UpdateSession handles PUT /chat/sessions/{id}
// @Summary Rename a chat session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.UpdateSessionRequest true "New title"
// @Success 200 {object} models.Session
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id} [put]
func (h *SessionsHandler) UpdateSession(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		middleware.HandleError(c, errors.NewValidationError("title is required", ""))
		return
	}

	principal := middleware.GetPrincipal(c)
	sess, err := h.sessions.UpdateTitle(c.Request.Context(), c.Param("id"), principal.ID, title)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DeleteSession handles DELETE /chat/sessions/{id}
// @Summary Delete a chat session
// @Description Deletes a session together with its messages
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id} [delete]
func (h *SessionsHandler) DeleteSession(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	if err := h.sessions.Delete(c.Request.Context(), c.Param("id"), principal.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Session deleted successfully"})
}

// ListMessages handles GET /chat/sessions/{id}/messages
// @Summary List session messages
// @Description Lists the messages of a session in timestamp order
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param skip query int false "Messages to skip" default(0) minimum(0)
// @Param limit query int false "Maximum number of messages" default(100) minimum(1) maximum(500)
// @Success 200 {object} MessageListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id}/messages [get]
func (h *SessionsHandler) ListMessages(c *gin.Context) {
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if page.Limit == 0 {
		page.Limit = defaultMessagePageSize
	}

	ctx := c.Request.Context()
	principal := middleware.GetPrincipal(c)
	sess, err := h.sessions.GetOwned(ctx, c.Param("id"), principal.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	messages, err := h.sessions.ListMessages(ctx, sess.ID, page.Skip, page.Limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	c.JSON(http.StatusOK, MessageListResponse{
		Messages: messages,
		Skip:     page.Skip,
		Limit:    page.Limit,
	})
}
