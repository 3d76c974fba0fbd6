package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/scenario"
)

// CustomScenarioLister lists user-authored scenarios.
type CustomScenarioLister interface {
	ListCustom(ctx context.Context, principal *models.Principal) ([]scenario.CustomEntry, error)
}

// ScenariosHandler lists practice scenarios and languages.
type ScenariosHandler struct {
	custom CustomScenarioLister
}

// NewScenariosHandler creates a new ScenariosHandler.
func NewScenariosHandler(custom CustomScenarioLister) *ScenariosHandler {
	return &ScenariosHandler{custom: custom}
}

// ScenarioListResponse lists the predefined scenarios.
type ScenarioListResponse struct {
	Scenarios []scenario.CatalogEntry `json:"scenarios"`
}

// CustomScenarioListResponse lists the caller's custom scenarios.
type CustomScenarioListResponse struct {
	Scenarios []scenario.CustomEntry `json:"scenarios"`
}

// ListPredefined handles GET /learning/scenarios/predefined
// @Summary List predefined scenarios
// @Description Returns the built-in roles a conversation can be framed with. Use the id with scenario_type=predefined.
// @Tags Scenarios
// @Produce json
// @Success 200 {object} ScenarioListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/learning/scenarios/predefined [get]
func (h *ScenariosHandler) ListPredefined(c *gin.Context) {
	c.JSON(http.StatusOK, ScenarioListResponse{Scenarios: scenario.Catalog()})
}

// ListCustom handles GET /learning/scenarios/custom
// @Summary List custom scenarios
// @Description Returns the caller's custom scenarios, newest first. Use the id with scenario_type=custom.
// @Tags Scenarios
// @Produce json
// @Success 200 {object} CustomScenarioListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/learning/scenarios/custom [get]
func (h *ScenariosHandler) ListCustom(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	entries, err := h.custom.ListCustom(c.Request.Context(), principal)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if entries == nil {
		entries = []scenario.CustomEntry{}
	}
	c.JSON(http.StatusOK, CustomScenarioListResponse{Scenarios: entries})
}

// ListLanguages handles GET /learning/languages
// @Summary List practice languages
// @Description Returns the language codes accepted by the conversation and analysis endpoints.
// @Tags Scenarios
// @Produce json
// @Success 200 {array} models.Language
// @Router /api/v1/learning/languages [get]
func (h *ScenariosHandler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, models.Languages())
}
