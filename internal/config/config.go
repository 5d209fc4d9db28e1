// Package config provides configuration loading for zvernennia.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables. This package covers the HTTP server, logging,
// telemetry, embedding and vector-store backends, the classifier pipeline,
// the Gemini LLM, the catalog database, and the optional event stream.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Classifier modes.
const (
	ClassifierKNN    = "knn"
	ClassifierLLM    = "llm"
	ClassifierHybrid = "hybrid"
)

// Vector store backends.
const (
	StoreChromem = "chromem"
	StoreQdrant  = "qdrant"
)

// Embedding providers.
const (
	EmbeddingFastEmbed = "fastembed"
	EmbeddingOpenAI    = "openai"
)

// Config holds the complete zvernennia configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Logging     LoggingConfig     `koanf:"logging"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Classifier  ClassifierConfig  `koanf:"classifier"`
	LLM         LLMConfig         `koanf:"llm"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Events      EventsConfig      `koanf:"events"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit"` // requests/second per client, 0 disables
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Endpoint    string `koanf:"endpoint"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, or error
	Format string `koanf:"format"` // json or console
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider string `koanf:"provider"` // "fastembed" or "openai"
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   Secret `koanf:"api_key"`
	CacheDir string `koanf:"cache_dir"`
}

// VectorStoreConfig holds example-index configuration.
type VectorStoreConfig struct {
	Backend    string `koanf:"backend"` // "chromem" or "qdrant"
	Path       string `koanf:"path"`    // chromem persistence directory
	URL        string `koanf:"url"`     // qdrant gRPC address
	Collection string `koanf:"collection"`
	TopK       int    `koanf:"top_k"`
}

// ClassifierConfig holds classification pipeline configuration.
type ClassifierConfig struct {
	Mode      string  `koanf:"mode"`      // "knn", "llm", or "hybrid"
	Threshold float64 `koanf:"threshold"` // KNN confidence below this falls back to the LLM
	FewShotK  int     `koanf:"few_shot_k"`
}

// LLMConfig holds Gemini API configuration.
type LLMConfig struct {
	APIKey            Secret  `koanf:"api_key"`
	Model             string  `koanf:"model"`
	Temperature       float64 `koanf:"temperature"`
	LetterTemperature float64 `koanf:"letter_temperature"`
}

// CatalogConfig holds the municipal service registry configuration.
type CatalogConfig struct {
	Path string `koanf:"path"` // sqlite database path
	City string `koanf:"city"`
}

// EventsConfig holds the optional NATS event stream configuration.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// Load loads configuration from environment variables with defaults.
//
// Environment variables:
//   - SERVER_HOST, SERVER_PORT, SERVER_SHUTDOWN_TIMEOUT, SERVER_RATE_LIMIT
//   - TELEMETRY_ENABLED, TELEMETRY_SERVICE_NAME, TELEMETRY_ENDPOINT
//   - LOGGING_LEVEL, LOGGING_FORMAT
//   - EMBEDDING_PROVIDER, EMBEDDING_MODEL, EMBEDDING_BASE_URL,
//     EMBEDDING_API_KEY, EMBEDDING_CACHE_DIR
//   - VECTORSTORE_BACKEND, VECTORSTORE_PATH, VECTORSTORE_URL,
//     VECTORSTORE_COLLECTION, VECTORSTORE_TOP_K
//   - CLASSIFIER_MODE, CLASSIFIER_THRESHOLD, CLASSIFIER_FEW_SHOT_K
//   - LLM_API_KEY, LLM_MODEL, LLM_TEMPERATURE, LLM_LETTER_TEMPERATURE
//   - CATALOG_PATH, CATALOG_CITY
//   - EVENTS_ENABLED, EVENTS_URL, EVENTS_SUBJECT_PREFIX
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimit:       getEnvFloat("SERVER_RATE_LIMIT", 20),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvBool("TELEMETRY_ENABLED", false),
			ServiceName: getEnvString("TELEMETRY_SERVICE_NAME", "zvernennia"),
			Endpoint:    getEnvString("TELEMETRY_ENDPOINT", "localhost:4317"),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOGGING_LEVEL", "info"),
			Format: getEnvString("LOGGING_FORMAT", "json"),
		},
		Embedding: EmbeddingConfig{
			Provider: getEnvString("EMBEDDING_PROVIDER", EmbeddingFastEmbed),
			// Empty model lets each provider pick its own default.
			Model:    getEnvString("EMBEDDING_MODEL", ""),
			BaseURL:  getEnvString("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
			APIKey:   Secret(os.Getenv("EMBEDDING_API_KEY")),
			CacheDir: getEnvString("EMBEDDING_CACHE_DIR", "~/.cache/zvernennia/models"),
		},
		VectorStore: VectorStoreConfig{
			Backend:    getEnvString("VECTORSTORE_BACKEND", StoreChromem),
			Path:       getEnvString("VECTORSTORE_PATH", "~/.local/share/zvernennia/examples"),
			URL:        getEnvString("VECTORSTORE_URL", "localhost:6334"),
			Collection: getEnvString("VECTORSTORE_COLLECTION", "complaint_examples"),
			TopK:       getEnvInt("VECTORSTORE_TOP_K", 10),
		},
		Classifier: ClassifierConfig{
			Mode:      getEnvString("CLASSIFIER_MODE", ClassifierHybrid),
			Threshold: getEnvFloat("CLASSIFIER_THRESHOLD", 0.6),
			FewShotK:  getEnvInt("CLASSIFIER_FEW_SHOT_K", 5),
		},
		LLM: LLMConfig{
			APIKey:            Secret(os.Getenv("LLM_API_KEY")),
			Model:             getEnvString("LLM_MODEL", "gemini-2.0-flash"),
			Temperature:       getEnvFloat("LLM_TEMPERATURE", 0.0),
			LetterTemperature: getEnvFloat("LLM_LETTER_TEMPERATURE", 0.7),
		},
		Catalog: CatalogConfig{
			Path: getEnvString("CATALOG_PATH", "~/.local/share/zvernennia/catalog.db"),
			City: getEnvString("CATALOG_CITY", "Львів"),
		},
		Events: EventsConfig{
			Enabled:       getEnvBool("EVENTS_ENABLED", false),
			URL:           getEnvString("EVENTS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnvString("EVENTS_SUBJECT_PREFIX", "zvernennia"),
		},
	}

	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Classifier mode, threshold, or few-shot k are out of range
//   - Vector store backend or top-k are invalid
//   - Embedding provider is unknown
//   - Logging level or format is unknown
//   - An LLM temperature is outside [0, 2]
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format: %q", c.Logging.Format)
	}

	switch c.Embedding.Provider {
	case EmbeddingFastEmbed, EmbeddingOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.Embedding.Provider)
	}

	switch c.VectorStore.Backend {
	case StoreChromem, StoreQdrant:
	default:
		return fmt.Errorf("unknown vector store backend: %q", c.VectorStore.Backend)
	}
	if c.VectorStore.TopK < 1 {
		return fmt.Errorf("vector store top_k must be at least 1, got %d", c.VectorStore.TopK)
	}

	switch c.Classifier.Mode {
	case ClassifierKNN, ClassifierLLM, ClassifierHybrid:
	default:
		return fmt.Errorf("unknown classifier mode: %q", c.Classifier.Mode)
	}
	if c.Classifier.Threshold <= 0 || c.Classifier.Threshold > 1 {
		return fmt.Errorf("classifier threshold must be in (0,1], got %v", c.Classifier.Threshold)
	}
	if c.Classifier.FewShotK < 1 {
		return fmt.Errorf("classifier few_shot_k must be at least 1, got %d", c.Classifier.FewShotK)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be in [0,2], got %v", c.LLM.Temperature)
	}
	if c.LLM.LetterTemperature < 0 || c.LLM.LetterTemperature > 2 {
		return fmt.Errorf("llm letter_temperature must be in [0,2], got %v", c.LLM.LetterTemperature)
	}

	if c.Catalog.Path == "" {
		return errors.New("catalog path is required")
	}

	if c.Events.Enabled && c.Events.URL == "" {
		return errors.New("events URL required when events are enabled")
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
