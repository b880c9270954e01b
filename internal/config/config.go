package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/quakestream/quakestream/internal/domain"
	"github.com/quakestream/quakestream/internal/ingest"
)

// Config holds all service settings, populated from environment variables.
// SourceName, when set, selects ingestion-service mode for that one source;
// its absence selects dedup-service mode.
type Config struct {
	SourceName      string
	HTTPAddr        string `validate:"required"`
	LogLevel        string `validate:"required,oneof=debug info warn error"`
	LogFormat       string `validate:"required,oneof=json text"`
	ShutdownTimeout time.Duration
	DatabaseURL     string `validate:"required"`

	LookbackHours     float64 `validate:"gt=0"`
	UseSpatialPrepass bool
	FetchCacheSize    int `validate:"min=1"`

	Sources map[domain.Source]ingest.SourceConfig `validate:"dive"`
}

func (c *Config) LogLevelName() string  { return c.LogLevel }
func (c *Config) LogFormatName() string { return c.LogFormat }

// Load reads configuration from environment variables, applying defaults
// where unset, then validates the result with go-playground/validator.
func Load() (*Config, error) {
	shutdownStr := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	shutdownTimeout, err := time.ParseDuration(shutdownStr)
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	lookbackHours, err := strconv.ParseFloat(envOrDefault("DEDUP_LOOKBACK_HOURS", "6"), 64)
	if err != nil {
		return nil, errors.New("invalid DEDUP_LOOKBACK_HOURS")
	}

	fetchCacheSize, err := strconv.Atoi(envOrDefault("FETCH_CACHE_SIZE", "16"))
	if err != nil {
		return nil, errors.New("invalid FETCH_CACHE_SIZE")
	}

	cfg := &Config{
		SourceName:        os.Getenv("SOURCE_NAME"),
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		DatabaseURL:       envOrDefault("DATABASE_URL", "postgres://localhost:5432/quakestream"),
		LookbackHours:     lookbackHours,
		UseSpatialPrepass: envOrDefault("DEDUP_SPATIAL_PREPASS", "true") == "true",
		FetchCacheSize:    fetchCacheSize,
		Sources:           make(map[domain.Source]ingest.SourceConfig),
	}

	for _, source := range domain.AllSources {
		sc, err := loadSourceConfig(source)
		if err != nil {
			return nil, err
		}
		cfg.Sources[source] = sc
	}

	if cfg.SourceName != "" {
		if _, ok := cfg.Sources[domain.Source(cfg.SourceName)]; !ok {
			return nil, fmt.Errorf("SOURCE_NAME %q is not a recognized source", cfg.SourceName)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadSourceConfig(source domain.Source) (ingest.SourceConfig, error) {
	upper := strings.ToUpper(string(source))

	timeoutSeconds, err := strconv.Atoi(envOrDefault(upper+"_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return ingest.SourceConfig{}, fmt.Errorf("invalid %s_TIMEOUT_SECONDS", upper)
	}
	maxRetries, err := strconv.Atoi(envOrDefault(upper+"_MAX_RETRIES", "3"))
	if err != nil {
		return ingest.SourceConfig{}, fmt.Errorf("invalid %s_MAX_RETRIES", upper)
	}
	backoffBase, err := strconv.ParseFloat(envOrDefault(upper+"_RETRY_BACKOFF_BASE", "2"), 64)
	if err != nil {
		return ingest.SourceConfig{}, fmt.Errorf("invalid %s_RETRY_BACKOFF_BASE", upper)
	}

	return ingest.SourceConfig{
		BaseURL:          envOrDefault(upper+"_BASE_URL", defaultBaseURL(source)),
		TimeoutSeconds:   timeoutSeconds,
		MaxRetries:       maxRetries,
		RetryBackoffBase: backoffBase,
		ReviewedCatalogs: parseReviewedCatalogs(os.Getenv(upper + "_REVIEWED_CATALOGS")),
	}, nil
}

func defaultBaseURL(source domain.Source) string {
	return fmt.Sprintf("https://%s.example.org/fdsnws/event/1/query", source)
}

func parseReviewedCatalogs(value string) map[string]bool {
	if value == "" {
		return nil
	}
	catalogs := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			catalogs[trimmed] = true
		}
	}
	return catalogs
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
