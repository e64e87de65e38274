package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestFromEnv_Defaults tests the defaults when nothing is set
func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CATALOG_SOURCE", "")
	t.Setenv("SUGGESTION_CACHE_TTL", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LOG_FORMAT", "")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, SourceFile, cfg.CatalogSource)
	assert.Equal(t, "5m", cfg.SuggestionCacheTTL)
	assert.Equal(t, "9", cfg.DefaultPageSize)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "text", cfg.LogFormat)
}

// TestFromEnv_Overrides tests environment overrides
func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "Postgres")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ADMIN_API_KEYS", "admin-1, admin-2")

	cfg := FromEnv()

	assert.Equal(t, SourcePostgres, cfg.CatalogSource)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"admin-1", "admin-2"}, SplitList(cfg.AdminAPIKeys))
}

// TestFromEnv_ProductionLogFormat tests the JSON default in production
func TestFromEnv_ProductionLogFormat(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		logFormat   string
		expected    string
	}{
		{"production defaults to json", "production", "", "json"},
		{"explicit format wins in production", "production", "text", "text"},
		{"development keeps text", "development", "", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.environment)
			t.Setenv("LOG_FORMAT", tt.logFormat)

			cfg := FromEnv()

			assert.Equal(t, tt.expected, cfg.LogFormat)
		})
	}
}

// TestParseHelpers tests warn-and-default parsing
func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("x", "90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("x", "soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("x", "-1s", time.Minute))

	assert.Equal(t, 4, ParsePositiveInt("x", " 4 ", 1))
	assert.Equal(t, 1, ParsePositiveInt("x", "0", 1))
	assert.Equal(t, 9, ParsePositiveInt("x", "nine", 9))

	assert.Empty(t, SplitList(" , "))
}
