// Package main is the entry point for the Conversation Practice Service.
// @title Conversation Practice Service API
// @version 1.0
// @description Language learning backend: live scenario conversations over WebSocket, chat sessions, conversation analysis and token usage

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication (HS256 JWT)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/lingopal/conversation-service/docs"
	"github.com/lingopal/conversation-service/internal/api/handlers"
	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/api/routes"
	"github.com/lingopal/conversation-service/internal/config"
	"github.com/lingopal/conversation-service/internal/core/cache"
	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/core/vault"
	rediscache "github.com/lingopal/conversation-service/internal/infrastructure/cache/redis"
	"github.com/lingopal/conversation-service/internal/infrastructure/docdb/mongodb"
	dotenvvault "github.com/lingopal/conversation-service/internal/infrastructure/vault/dotenv"
	"github.com/lingopal/conversation-service/internal/pkg/encryption"
	"github.com/lingopal/conversation-service/internal/pkg/metrics"
	"github.com/lingopal/conversation-service/internal/services/agent"
	"github.com/lingopal/conversation-service/internal/services/analysis"
	"github.com/lingopal/conversation-service/internal/services/auth"
	"github.com/lingopal/conversation-service/internal/services/chat"
	"github.com/lingopal/conversation-service/internal/services/conversation"
	"github.com/lingopal/conversation-service/internal/services/llm"
	"github.com/lingopal/conversation-service/internal/services/registry"
	"github.com/lingopal/conversation-service/internal/services/scenario"
	"github.com/lingopal/conversation-service/internal/services/session"
	"github.com/lingopal/conversation-service/internal/services/usage"
)

const metricsNamespace = "conversation_service"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg.Log)

	ctx := context.Background()

	// Initialize vault client using factory pattern
	vaultClient, err := createVaultClient(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vault client")
	}
	defer vaultClient.Close()

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	defer cacheClient.Close()

	// Initialize document db client using factory pattern
	docDBClient, err := createDocDBClient(ctx, cfg.DocDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document db client")
	}
	defer docDBClient.Close(ctx)

	if err := docDBClient.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	sealer, err := createSealer(ctx, cfg.Vault, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache encryption")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(metricsNamespace)
	}

	app, err := buildApp(ctx, cfg, vaultClient, cacheClient, docDBClient, sealer, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}

	gin.SetMode(cfg.Server.GinMode)
	router := setupRouter(cfg, app, cacheClient, docDBClient, m)

	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by http.Server.
	canceled := app.registry.CancelAll()
	log.Info().Int("connections", canceled).Msg("closing live conversations")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if !app.registry.Wait(shutdownCtx) {
		log.Warn().Int("remaining", app.registry.Live()).Msg("live conversations did not finish before the deadline")
	}

	log.Info().Msg("server exited")
}

// app bundles the services shared by the HTTP and WebSocket handlers.
type app struct {
	auth      *auth.Service
	sessions  session.Service
	usage     *usage.Service
	analysis  *analysis.Service
	scenarios *scenario.Resolver
	chat      *chat.Service
	engine    *conversation.Engine
	registry  *registry.Registry
}

func buildApp(ctx context.Context, cfg *config.Config, vaultClient vault.Client, cacheClient cache.Client, docDBClient docdb.Client, sealer encryption.Sealer, m *metrics.Metrics) (*app, error) {
	secret, err := resolveSecret(ctx, vaultClient, cfg.Auth.SecretURI)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve auth secret: %w", err)
	}
	authService, err := auth.NewService(&auth.Config{
		Users:       docDBClient.Users(),
		CacheClient: cacheClient,
		Sealer:      sealer,
		Secret:      []byte(secret),
		CacheTTL:    cfg.Auth.PrincipalCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	sessionService, err := session.NewService(&session.Config{
		Sessions:    docDBClient.Sessions(),
		Messages:    docDBClient.Messages(),
		CacheClient: cacheClient,
		Sealer:      sealer,
		TTL:         cfg.Cache.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	usageService, err := usage.NewService(docDBClient.Usage(), m)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage service: %w", err)
	}

	provider, err := createProvider(ctx, cfg.LLM, vaultClient)
	if err != nil {
		return nil, err
	}
	conversationAgent, err := agent.New(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	analysisService, err := analysis.NewService(&analysis.Config{
		Sessions:    sessionService,
		Feedback:    docDBClient.Feedback(),
		Agent:       conversationAgent,
		Usage:       usageService,
		ReuseWindow: cfg.Conversation.AnalysisReuseWindow,
		Temperature: cfg.LLM.AnalysisTemperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis service: %w", err)
	}

	resolver := scenario.NewResolver(docDBClient.Meetings(), docDBClient.Scenarios())
	reg := registry.New()

	engine, err := conversation.NewEngine(&conversation.Config{
		Auth:            authService,
		Sessions:        sessionService,
		Scenarios:       resolver,
		Agent:           conversationAgent,
		Usage:           usageService,
		Analyzer:        analysisService,
		Registry:        reg,
		Metrics:         m,
		IdleTimeout:     cfg.Conversation.IdleTimeout,
		Temperature:     cfg.LLM.LiveTemperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		DefaultLanguage: cfg.Conversation.DefaultLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation engine: %w", err)
	}

	chatService, err := chat.NewService(sessionService, conversationAgent, usageService)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat service: %w", err)
	}

	return &app{
		auth:      authService,
		sessions:  sessionService,
		usage:     usageService,
		analysis:  analysisService,
		scenarios: resolver,
		chat:      chatService,
		engine:    engine,
		registry:  reg,
	}, nil
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if strings.EqualFold(cfg.Format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "conversation-service").Logger()
}

// createVaultClient creates a vault client based on the configuration.
func createVaultClient(cfg config.VaultConfig) (vault.Client, error) {
	switch vault.Type(cfg.Type) {
	case vault.TypeDotEnv:
		return dotenvvault.NewVault(), nil
	default:
		return nil, fmt.Errorf("unsupported vault type: %s", cfg.Type)
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	switch cache.Type(cfg.Type) {
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// createDocDBClient creates a document database client based on the configuration.
func createDocDBClient(ctx context.Context, cfg config.DocDBConfig) (docdb.Client, error) {
	switch docdb.Type(cfg.Type) {
	case docdb.TypeMongoDB:
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	default:
		return nil, fmt.Errorf("unsupported docdb type: %s", cfg.Type)
	}
}

// createSealer creates the cache sealer. Without a key cached values are stored
// in plain JSON.
func createSealer(ctx context.Context, cfg config.VaultConfig, vaultClient vault.Client) (encryption.Sealer, error) {
	key, err := vaultClient.GetSecret(ctx, cfg.EncryptionKeyURI)
	if err != nil || key == "" {
		log.Warn().Msg("cache encryption key not set, cached values are not encrypted")
		return encryption.PlainSealer{}, nil
	}
	return encryption.NewAESSealer(key)
}

// createProvider creates the language model provider based on the configuration.
func createProvider(ctx context.Context, cfg config.LLMConfig, vaultClient vault.Client) (llm.Provider, error) {
	apiKey, err := resolveSecret(ctx, vaultClient, cfg.APIKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve llm api key: %w", err)
	}

	provider, err := llm.NewProvider(&llm.ProviderConfig{
		Type:      llm.Type(cfg.Provider),
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		APIKey:    apiKey,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create llm provider: %w", err)
	}
	return provider, nil
}

func resolveSecret(ctx context.Context, vaultClient vault.Client, uri string) (string, error) {
	value, err := vaultClient.GetSecret(ctx, uri)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("secret %s is empty", uri)
	}
	return value, nil
}

// setupRouter creates and configures the Gin router.
func setupRouter(cfg *config.Config, a *app, cacheClient cache.Client, docDBClient docdb.Client, m *metrics.Metrics) *gin.Engine {
	router := gin.New()

	loggingMw := middleware.NewLoggingMiddleware(m)
	errorMw := middleware.NewErrorMiddleware()
	authMw := middleware.NewAuthMiddleware(a.auth)
	corsCfg := middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins)

	routesCfg := &routes.Config{
		HealthHandler: handlers.NewHealthHandler(cacheClient, docDBClient, a.registry),
		ConversationHandler: handlers.NewConversationHandler(a.engine, handlers.ConversationConfig{
			WriteTimeout:    cfg.Conversation.WriteTimeout,
			MaxMessageBytes: cfg.Conversation.MaxMessageBytes,
			CORS:            corsCfg,
		}),
		ChatHandler:      handlers.NewChatHandler(a.chat),
		SessionsHandler:  handlers.NewSessionsHandler(a.sessions, a.scenarios, cfg.Conversation.DefaultLanguage),
		AnalysisHandler:  handlers.NewAnalysisHandler(a.analysis),
		ScenariosHandler: handlers.NewScenariosHandler(a.scenarios),
		UsageHandler:     handlers.NewUsageHandler(a.usage),
		AuthMiddleware:   authMw,
		Metrics:          m,
		MetricsPath:      cfg.Metrics.Path,
		EnableDocs:       true,
	}

	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw, corsCfg)
	return router
}
