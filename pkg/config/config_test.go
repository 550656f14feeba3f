package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Positive(t, cfg.Converter.Workers)
	assert.Empty(t, cfg.Converter.TemplatePath)
	assert.Empty(t, cfg.Archive.Dir)
	assert.Equal(t, 7*24*time.Hour, cfg.Archive.Retention)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, slog.LevelInfo, cfg.Observability.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CONVERTER_WORKERS", "3")
	t.Setenv("JOURNAL_TEMPLATE_PATH", "/etc/journal.yaml")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ARCHIVE_DIR", "/var/lib/journal")
	t.Setenv("ARCHIVE_RETENTION", "36h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 3, cfg.Converter.Workers)
	assert.Equal(t, "/etc/journal.yaml", cfg.Converter.TemplatePath)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, slog.LevelDebug, cfg.Observability.LogLevel)
	assert.Equal(t, "/var/lib/journal", cfg.Archive.Dir)
	assert.Equal(t, 36*time.Hour, cfg.Archive.Retention)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"port", "SERVER_PORT", "70000"},
		{"upload size", "MAX_UPLOAD_BYTES", "0"},
		{"workers", "CONVERTER_WORKERS", "-1"},
		{"log level", "LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
