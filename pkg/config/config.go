package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Converter     ConverterConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	MaxUploadBytes     int64
}

type ConverterConfig struct {
	Workers int
	// TemplatePath overrides the built-in journal template when set.
	TemplatePath string
}

// ArchiveConfig controls where batch outputs are kept. An empty Dir
// disables the archive.
type ArchiveConfig struct {
	Dir           string
	Retention     time.Duration
	PruneSchedule string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       slog.Level
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 20),
			AllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 32<<20)),
		},
		Converter: ConverterConfig{
			Workers:      getEnvAsInt("CONVERTER_WORKERS", runtime.GOMAXPROCS(0)),
			TemplatePath: getEnv("JOURNAL_TEMPLATE_PATH", ""),
		},
		Archive: ArchiveConfig{
			Dir:           getEnv("ARCHIVE_DIR", ""),
			Retention:     getEnvAsDuration("ARCHIVE_RETENTION", 7*24*time.Hour),
			PruneSchedule: getEnv("ARCHIVE_PRUNE_SCHEDULE", "@hourly"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.Observability.LogLevel = level

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT out of range: %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return nil, errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.Converter.Workers <= 0 {
		return nil, errors.New("CONVERTER_WORKERS must be positive")
	}
	if cfg.Archive.Dir != "" && cfg.Archive.Retention <= 0 {
		return nil, errors.New("ARCHIVE_RETENTION must be positive")
	}

	return cfg, nil
}

// Addr returns the host:port the server listens on
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
