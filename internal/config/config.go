package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
// Feature toggles are resolved once at load time and injected into the
// components that need them; nothing reads configuration ad hoc later.
type Config struct {
	Log       LogConfig       `mapstructure:"log"       validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Grading   GradingConfig   `mapstructure:"grading"   validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sync      SyncConfig      `mapstructure:"sync"      validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the client-local store settings.
type DatabaseConfig struct {
	// Path is the sqlite database file path. ":memory:" is accepted for
	// ephemeral sessions.
	Path string `mapstructure:"path" validate:"required"`
}

// GradingConfig contains the grading engine settings, including the
// semantic grading toggle and the Gemini credentials behind it.
type GradingConfig struct {
	SemanticGradingEnabled bool   `mapstructure:"semantic_grading_enabled"`
	MaxAttempts            int    `mapstructure:"max_attempts"       validate:"required,gte=1,lte=10"`
	HintedQualityCap       int    `mapstructure:"hinted_quality_cap" validate:"gte=0,lte=5"`
	SemanticTimeoutMs      int    `mapstructure:"semantic_timeout_ms" validate:"gte=0"`
	GeminiAPIKey           string `mapstructure:"gemini_api_key"     validate:"required_if=SemanticGradingEnabled true"`
	ModelName              string `mapstructure:"model_name"`
}

// SchedulerConfig contains overrides for the SM-2 parameters. Zero values
// keep the algorithm defaults.
type SchedulerConfig struct {
	MinEaseFactor  float64 `mapstructure:"min_ease_factor"  validate:"omitempty,gt=1"`
	FirstInterval  int     `mapstructure:"first_interval"   validate:"gte=0"`
	SecondInterval int     `mapstructure:"second_interval"  validate:"gte=0"`
	MaxInterval    int     `mapstructure:"max_interval"     validate:"gte=0"`
}

// SyncConfig contains the remote Progress Service settings.
type SyncConfig struct {
	BaseURL          string `mapstructure:"base_url"           validate:"required,url"`
	RequestTimeoutMs int    `mapstructure:"request_timeout_ms" validate:"gte=0"`
	MaxRetries       int    `mapstructure:"max_retries"        validate:"gte=0,lte=10"`
}
