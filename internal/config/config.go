// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server       ServerConfig
	Cache        CacheConfig
	DocDB        DocDBConfig
	Vault        VaultConfig
	Auth         AuthConfig
	LLM          LLMConfig
	Conversation ConversationConfig
	CORS         CORSConfig
	Log          LogConfig
	Metrics      MetricsConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string
	Port            int
	GinMode         string
	ShutdownTimeout time.Duration
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type     string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Type     string
	URI      string
	Database string
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type             string
	EncryptionKeyURI string
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	SecretURI         string
	Algorithm         string
	PrincipalCacheTTL time.Duration
	TokenTTL          time.Duration
}

// LLMConfig holds the language model provider configuration.
type LLMConfig struct {
	Provider            string
	Model               string
	BaseURL             string
	APIKeyURI           string
	MaxTokens           int
	Timeout             time.Duration
	DefaultTemperature  float64
	LiveTemperature     float64
	AnalysisTemperature float64
}

// ConversationConfig holds the live conversation engine settings.
type ConversationConfig struct {
	IdleTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxMessageBytes     int64
	AnalysisReuseWindow time.Duration
	DefaultLanguage     string
}

// CORSConfig holds the allowed browser origins.
type CORSConfig struct {
	AllowOrigins []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig holds prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			GinMode:         getEnv("GIN_MODE", "debug"),
			ShutdownTimeout: getEnvAsSeconds("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10),
		},
		Cache: CacheConfig{
			Type:     getEnv("CACHE_TYPE", "redis"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsSeconds("CACHE_TTL_SECONDS", 300),
		},
		DocDB: DocDBConfig{
			Type:     getEnv("DOCDB_TYPE", "mongodb"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "lingopal"),
		},
		Vault: VaultConfig{
			Type:             getEnv("VAULT_TYPE", "dotenv"),
			EncryptionKeyURI: getEnv("CACHE_ENCRYPTION_KEY_URI", "dotenv://CACHE_ENCRYPTION_KEY"),
		},
		Auth: AuthConfig{
			SecretURI:         getEnv("AUTH_SECRET_URI", "dotenv://SECRET_KEY"),
			Algorithm:         getEnv("AUTH_ALGORITHM", "HS256"),
			PrincipalCacheTTL: getEnvAsSeconds("AUTH_PRINCIPAL_CACHE_TTL_SECONDS", 60),
			TokenTTL:          time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*8)) * time.Minute,
		},
		LLM: LLMConfig{
			Provider:            getEnv("LLM_PROVIDER", "openai"),
			Model:               getEnv("LLM_MODEL", "gpt-3.5-turbo"),
			BaseURL:             getEnv("LLM_BASE_URL", ""),
			APIKeyURI:           getEnv("LLM_API_KEY_URI", "dotenv://OPENAI_API_KEY"),
			MaxTokens:           getEnvAsInt("LLM_MAX_TOKENS", 0),
			Timeout:             getEnvAsSeconds("LLM_TIMEOUT_SECONDS", 120),
			DefaultTemperature:  getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			LiveTemperature:     getEnvAsFloat("LLM_LIVE_TEMPERATURE", 0.8),
			AnalysisTemperature: getEnvAsFloat("LLM_ANALYSIS_TEMPERATURE", 0.3),
		},
		Conversation: ConversationConfig{
			IdleTimeout:         getEnvAsSeconds("WS_IDLE_TIMEOUT_SECONDS", 300),
			WriteTimeout:        getEnvAsSeconds("WS_WRITE_TIMEOUT_SECONDS", 10),
			MaxMessageBytes:     int64(getEnvAsInt("WS_MAX_MESSAGE_BYTES", 64*1024)),
			AnalysisReuseWindow: time.Duration(getEnvAsInt("ANALYSIS_REUSE_WINDOW_MINUTES", 60)) * time.Minute,
			DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "en"),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Conversation.IdleTimeout <= 0 {
		return fmt.Errorf("websocket idle timeout must be positive")
	}
	if !strings.EqualFold(c.Auth.Algorithm, "HS256") {
		return fmt.Errorf("unsupported auth algorithm: %s", c.Auth.Algorithm)
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
