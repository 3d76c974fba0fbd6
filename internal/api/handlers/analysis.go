package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingopal/conversation-service/internal/api/dto"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

// Analyzer produces conversation feedback.
type Analyzer interface {
	Analyze(ctx context.Context, principal *models.Principal, sessionID, language string, force bool) (*models.Feedback, error)
	Latest(ctx context.Context, principal *models.Principal, sessionID string) (*models.Feedback, error)
}

// AnalysisHandler handles conversation analysis endpoints.
type AnalysisHandler struct {
	analyzer Analyzer
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// AnalyzeSession handles POST /chat/sessions/{id}/analysis
// @Summary Analyze a conversation
// @Description Scores the session transcript. A recent analysis is reused unless force_reanalysis is set.
// @Tags Analysis
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.AnalyzeRequest false "Analysis options"
// @Success 200 {object} models.Feedback
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id}/analysis [post]
func (h *AnalysisHandler) AnalyzeSession(c *gin.Context) {
	var req dto.AnalyzeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	principal := middleware.GetPrincipal(c)
	feedback, err := h.analyzer.Analyze(c.Request.Context(), principal, c.Param("id"), req.Language, req.ForceReanalysis)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// GetAnalysis handles GET /chat/sessions/{id}/analysis
// @Summary Get the latest analysis
// @Description Returns the most recent stored analysis of the session without running a new one.
// @Tags Analysis
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Feedback
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/chat/sessions/{id}/analysis [get]
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	feedback, err := h.analyzer.Latest(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}
