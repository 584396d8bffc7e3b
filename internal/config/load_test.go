package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Only the values without defaults need to come from the environment.
	t.Setenv("MEALSMITH_DATABASE_URL", "postgres://localhost:5432/mealsmith")
	t.Setenv("MEALSMITH_LLM_GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 2, cfg.Queue.GenerationWorkers)
	assert.Equal(t, 1, cfg.Queue.SchedulingWorkers)
	assert.Equal(t, 3, cfg.Queue.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Queue.BackoffBase)
	assert.Equal(t, 10, cfg.Queue.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.Queue.RateLimitWindow)
	assert.Equal(t, 100, cfg.Queue.CompletedRetainCount)
	assert.Equal(t, 500, cfg.Queue.FailedRetainCount)
	assert.Equal(t, 4, cfg.Scheduler.RecentMealNames)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEALSMITH_DATABASE_URL", "postgres://localhost:5432/mealsmith")
	t.Setenv("MEALSMITH_LLM_GEMINI_API_KEY", "test-key")
	t.Setenv("MEALSMITH_SERVER_PORT", "9999")
	t.Setenv("MEALSMITH_SERVER_LOG_LEVEL", "debug")
	t.Setenv("MEALSMITH_QUEUE_GENERATION_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 4, cfg.Queue.GenerationWorkers)
}

func TestLoadRejectsMissingRequiredValues(t *testing.T) {
	t.Setenv("MEALSMITH_DATABASE_URL", "")
	t.Setenv("MEALSMITH_LLM_GEMINI_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("MEALSMITH_DATABASE_URL", "postgres://localhost:5432/mealsmith")
	t.Setenv("MEALSMITH_LLM_GEMINI_API_KEY", "test-key")
	t.Setenv("MEALSMITH_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}
