package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lingopal/conversation-service/internal/api/dto"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

const defaultSummaryDays = 30

// UsageReporter reads token usage.
type UsageReporter interface {
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*models.UsageRecord, error)
	Summary(ctx context.Context, userID string, from, to time.Time) (*models.UsageSummary, error)
}

// UsageHandler handles token usage endpoints.
type UsageHandler struct {
	usage UsageReporter
	now   func() time.Time
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usage UsageReporter) *UsageHandler {
	return &UsageHandler{usage: usage, now: time.Now}
}

// UsageListResponse lists usage records.
type UsageListResponse struct {
	Records []*models.UsageRecord `json:"records"`
}

// ListUsage handles GET /tokens/usage
// @Summary List token usage
// @Description Lists the caller's usage records, newest first, optionally bounded by start_date and end_date (RFC 3339)
// @Tags Usage
// @Produce json
// @Param start_date query string false "Window start (RFC 3339)"
// @Param end_date query string false "Window end (RFC 3339)"
// @Success 200 {object} UsageListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/tokens/usage [get]
func (h *UsageHandler) ListUsage(c *gin.Context) {
	var query dto.UsageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}

	from, err := parseTimeParam("start_date", query.StartDate)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	to, err := parseTimeParam("end_date", query.EndDate)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		middleware.HandleError(c, errors.NewValidationError("end_date must not be before start_date", ""))
		return
	}

	principal := middleware.GetPrincipal(c)
	records, err := h.usage.ListByUser(c.Request.Context(), principal.ID, from, to)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if records == nil {
		records = []*models.UsageRecord{}
	}
	c.JSON(http.StatusOK, UsageListResponse{Records: records})
}

// UsageSummary handles GET /tokens/usage/summary
// @Summary Summarize token usage
// @Description Aggregates the caller's usage per model over the last N days
// @Tags Usage
// @Produce json
// @Param days query int false "Look-back window in days" default(30) minimum(1) maximum(365)
// @Success 200 {object} models.UsageSummary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/tokens/usage/summary [get]
func (h *UsageHandler) UsageSummary(c *gin.Context) {
	var query dto.UsageSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if query.Days == 0 {
		query.Days = defaultSummaryDays
	}

	to := h.now().UTC()
	from := to.AddDate(0, 0, -query.Days)

	principal := middleware.GetPrincipal(c)
	summary, err := h.usage.Summary(c.Request.Context(), principal.ID, from, to)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func parseTimeParam(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid "+name, err.Error())
	}
	return t, nil
}
