// Package routes defines the HTTP routes for the conversation service.
package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/lingopal/conversation-service/internal/api/handlers"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/pkg/metrics"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler       *handlers.HealthHandler
	ConversationHandler *handlers.ConversationHandler
	ChatHandler         *handlers.ChatHandler
	SessionsHandler     *handlers.SessionsHandler
	AnalysisHandler     *handlers.AnalysisHandler
	ScenariosHandler    *handlers.ScenariosHandler
	UsageHandler        *handlers.UsageHandler
	AuthMiddleware      *middleware.AuthMiddleware

	// Metrics is exposed on MetricsPath when both are set.
	Metrics     *metrics.Metrics
	MetricsPath string

	// EnableDocs mounts the swagger UI under /docs.
	EnableDocs bool
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		r.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		// Health check routes (no auth required)
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		// The live endpoint authenticates with a query token after the upgrade.
		v1.GET("/ws/conversation", cfg.ConversationHandler.Connect)

		v1.GET("/learning/languages", cfg.ScenariosHandler.ListLanguages)

		protected := v1.Group("")
		protected.Use(cfg.AuthMiddleware.Authenticate())

		chat := protected.Group("/chat")
		{
			chat.POST("", cfg.ChatHandler.SendMessage)

			sessions := chat.Group("/sessions")
			{
				sessions.POST("", cfg.SessionsHandler.CreateSession)
				sessions.GET("", cfg.SessionsHandler.ListSessions)
				sessions.GET("/:id", cfg.SessionsHandler.GetSession)
				sessions.PUT("/:id", cfg.SessionsHandler.UpdateSession)
				sessions.DELETE("/:id", cfg.SessionsHandler.DeleteSession)
				sessions.GET("/:id/messages", cfg.SessionsHandler.ListMessages)
				sessions.GET("/:id/analysis", cfg.AnalysisHandler.GetAnalysis)
				sessions.POST("/:id/analysis", cfg.AnalysisHandler.AnalyzeSession)
			}
		}

		learning := protected.Group("/learning/scenarios")
		{
			learning.GET("/predefined", cfg.ScenariosHandler.ListPredefined)
			learning.GET("/custom", cfg.ScenariosHandler.ListCustom)
		}

		tokens := protected.Group("/tokens")
		{
			tokens.GET("/usage", cfg.UsageHandler.ListUsage)
			tokens.GET("/usage/summary", cfg.UsageHandler.UsageSummary)
		}
	}

	r.NoRoute(middleware.NotFound())
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware, cors middleware.CORSConfig) {
	r.Use(loggingMw.RequestID())
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(middleware.NewCORSMiddleware(cors))

	Setup(r, cfg)
}
