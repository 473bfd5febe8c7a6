package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load,
// e.g. DRAFTFORGE_SERVER_PORT maps to the server.port key.
const envPrefix = "DRAFTFORGE"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take precedence
// over values from config files. Returns a populated Config struct or an
// error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every known key. Registering the key is
// what lets AutomaticEnv pick up the corresponding environment variable during
// Unmarshal, so even secret-bearing keys get an (empty) default here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.trigger_token_secret", "")

	v.SetDefault("database.url", "")

	v.SetDefault("worker.heartbeat_interval", "30s")
	v.SetDefault("worker.max_yields", 50)
	v.SetDefault("worker.backoff_base", "5s")
	v.SetDefault("worker.backoff_max", "10m")
	v.SetDefault("worker.max_jobs_per_run", 5)
	v.SetDefault("worker.max_payload_bytes", 262144)

	v.SetDefault("reconciler.stall_threshold", "10m")

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
}
