package domain

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	History  HistoryConfig  `mapstructure:"history"`
	Engine   EngineConfig   `mapstructure:"engine"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents PostgreSQL configuration for the annotation
// repository (server mode).
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// HistoryConfig selects and configures the diagnosis history store backend.
type HistoryConfig struct {
	// Backend is "sqlite" (standalone) or "postgres" (server mode).
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	// PostgresURL is used when Backend is "postgres".
	PostgresURL string `mapstructure:"postgres_url"`
}

// EngineConfig carries the scoring engine's tunable constants. They are
// configuration, not algorithm shape: tests pin them independently.
type EngineConfig struct {
	// DecisionThreshold is the minimum top-candidate confidence required to
	// show a diagnosis instead of the undetermined result.
	DecisionThreshold float64 `mapstructure:"decision_threshold"`
	// KeySymptomBoost multiplies a disease's raw score when its key symptom
	// is present at the configured severity.
	KeySymptomBoost float64 `mapstructure:"key_symptom_boost"`
	// KeySymptomDampen multiplies the raw score when the key symptom is absent.
	KeySymptomDampen float64 `mapstructure:"key_symptom_dampen"`
	// MaxCandidates caps the number of slices in a result.
	MaxCandidates int `mapstructure:"max_candidates"`
}

// LLMConfig represents the external LLM service configuration shared by the
// symptom extractor and the explanation generator.
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   int           `mapstructure:"rate_limit"` // requests per second
	Temperature float64       `mapstructure:"temperature"`
}

// CacheConfig represents the extraction response cache configuration.
type CacheConfig struct {
	// RedisURL enables the distributed tier when non-empty.
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	// MemorySize is the in-memory LRU tier capacity (entries).
	MemorySize int `mapstructure:"memory_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
