package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file, then validates the result. Environment variables use the
// LINGUA_ prefix with underscores for nesting (LINGUA_DATABASE_PATH,
// LINGUA_GRADING_MAX_ATTEMPTS, ...) and take precedence over file values.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile is Load with an explicit config file path. An empty path
// skips file loading entirely and relies on environment variables and
// defaults.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("LINGUA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers the defaults every deployment shares. They are
// also what binds the keys for AutomaticEnv, so every key must appear
// here even when its zero value is the default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("database.path", "lingua.db")

	v.SetDefault("grading.semantic_grading_enabled", false)
	v.SetDefault("grading.max_attempts", 2)
	v.SetDefault("grading.hinted_quality_cap", 3)
	v.SetDefault("grading.semantic_timeout_ms", 3000)
	v.SetDefault("grading.gemini_api_key", "")
	v.SetDefault("grading.model_name", "gemini-2.0-flash")

	v.SetDefault("scheduler.min_ease_factor", 0)
	v.SetDefault("scheduler.first_interval", 0)
	v.SetDefault("scheduler.second_interval", 0)
	v.SetDefault("scheduler.max_interval", 0)

	v.SetDefault("sync.base_url", "https://progress.lingua.example.com")
	v.SetDefault("sync.request_timeout_ms", 5000)
	v.SetDefault("sync.max_retries", 2)
}

// validate runs struct validation and converts validator errors into a
// readable message listing each failing field.
func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields = append(fields, fmt.Sprintf("%s (%s)",
				fieldErr.Namespace(), fieldErr.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
	}

	return fmt.Errorf("configuration validation failed: %w", err)
}
