// Package config defines the application configuration and its loader.
package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Queue     QueueConfig     `mapstructure:"queue" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Email     EmailConfig     `mapstructure:"email"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// LLMConfig contains generative-model integration settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`

	// AttemptTimeout bounds one generation call so a hung call cannot hold
	// a worker slot forever. Expiry surfaces as an upstream-call failure
	// and consumes one retry attempt.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" validate:"required"`
}

// QueueConfig tunes the generation job queue and its worker pools.
type QueueConfig struct {
	// GenerationWorkers is the concurrency of the meal-plan generation pool.
	GenerationWorkers int `mapstructure:"generation_workers" validate:"required,gt=0"`

	// SchedulingWorkers is the concurrency of the scheduling-tick pool.
	// Held at 1 to serialize trigger processing system-wide.
	SchedulingWorkers int `mapstructure:"scheduling_workers" validate:"required,gt=0"`

	// MaxAttempts is the number of attempts each job gets before it is
	// marked failed.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// BackoffBase is the delay before the first retry; each subsequent
	// retry doubles it.
	BackoffBase time.Duration `mapstructure:"backoff_base" validate:"required"`

	// RateLimitMax admits at most this many job starts per RateLimitWindow,
	// protecting the external model's rate limits.
	RateLimitMax    int           `mapstructure:"rate_limit_max" validate:"required,gt=0"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window" validate:"required"`

	// Retention bounds for finished jobs kept for observability.
	CompletedRetainCount int           `mapstructure:"completed_retain_count" validate:"required,gt=0"`
	CompletedRetainAge   time.Duration `mapstructure:"completed_retain_age" validate:"required"`
	FailedRetainCount    int           `mapstructure:"failed_retain_count" validate:"required,gt=0"`
}

// SchedulerConfig tunes the recurring per-user trigger layer.
type SchedulerConfig struct {
	// RecentMealNames is how many recent distinct meal names are fed to the
	// prompt as a variety hint.
	RecentMealNames int `mapstructure:"recent_meal_names"`
}

// EmailConfig configures the transactional-email capability.
type EmailConfig struct {
	// TestMode logs emails instead of sending them.
	TestMode bool   `mapstructure:"test_mode"`
	From     string `mapstructure:"from"`

	// SMTP delivery settings, required when TestMode is off.
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
}
