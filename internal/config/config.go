package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Worker     WorkerConfig     `mapstructure:"worker"     validate:"required"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// TriggerTokenSecret signs and verifies the bearer tokens presented by
	// the external scheduler when it hits the internal trigger endpoints.
	TriggerTokenSecret string `mapstructure:"trigger_token_secret" validate:"required,min=32"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// WorkerConfig contains settings for the job worker loop.
type WorkerConfig struct {
	// HeartbeatInterval is how often an in-flight worker refreshes the
	// job's liveness timestamp while an executor runs.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"required"`

	// MaxYields caps how many times a single job may yield before the
	// orchestrator fails it as a runaway.
	MaxYields int `mapstructure:"max_yields" validate:"required,gt=0"`

	// BackoffBase and BackoffMax parameterize the exponential retry
	// schedule computed after a terminal failure. Both are clamped to
	// sane bounds at use time, so misconfiguration cannot produce
	// pathological scheduling.
	BackoffBase time.Duration `mapstructure:"backoff_base" validate:"required"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"  validate:"required"`

	// MaxJobsPerRun bounds how many jobs one trigger invocation drains.
	MaxJobsPerRun int `mapstructure:"max_jobs_per_run" validate:"required,gt=0"`

	// MaxPayloadBytes bounds the size of a job payload, including payloads
	// recomputed on yield. Growth past this bound fails the job.
	MaxPayloadBytes int `mapstructure:"max_payload_bytes" validate:"required,gt=0"`
}

// ReconcilerConfig contains settings for the stall-detection sweep.
type ReconcilerConfig struct {
	// StallThreshold is how long a processing job may go without a
	// liveness signal before the reconciler declares its worker dead.
	StallThreshold time.Duration `mapstructure:"stall_threshold" validate:"required"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}
