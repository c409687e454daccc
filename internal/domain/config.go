package domain

import (
	"os"
	"strconv"
	"time"
)

// Config holds the complete service configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`

	// Model holds fraud classifier settings.
	Model ModelConfig `json:"model"`

	// Observability
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// ModelConfig holds fraud classifier settings.
type ModelConfig struct {
	// ArtifactPath is the location of the serialized classifier. Absence
	// of the file is a handled condition: scoring fails open.
	ArtifactPath string `json:"artifactPath"`

	// VelocityWindowSecs is the window for per-sender velocity counters
	// exposed to screening rules.
	VelocityWindowSecs int `json:"velocityWindowSecs"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// DefaultConfig returns a single-node configuration backed by SQLite, the
// in-memory cache, and the channel bus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./ledger.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Model: ModelConfig{
			ArtifactPath:       "./model/fraud_model.json",
			VelocityWindowSecs: 3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// FromEnv builds the configuration from LEDGER_* environment variables,
// starting from the single-node defaults. LEDGER_MODE=distributed swaps
// in the PostgreSQL/Redis/NATS stack before overrides apply.
func FromEnv() *Config {
	var cfg *Config
	if os.Getenv("LEDGER_MODE") == "distributed" {
		cfg = DistributedConfig()
	} else {
		cfg = DefaultConfig()
	}

	envString(&cfg.Server.Host, "LEDGER_HOST")
	envInt(&cfg.Server.Port, "LEDGER_PORT")

	envString(&cfg.Repository.Driver, "LEDGER_DB_DRIVER")
	envString(&cfg.Repository.SQLitePath, "LEDGER_SQLITE_PATH")
	envString(&cfg.Repository.PostgresHost, "LEDGER_PG_HOST")
	envInt(&cfg.Repository.PostgresPort, "LEDGER_PG_PORT")
	envString(&cfg.Repository.PostgresUser, "LEDGER_PG_USER")
	envString(&cfg.Repository.PostgresPassword, "LEDGER_PG_PASSWORD")
	envString(&cfg.Repository.PostgresDB, "LEDGER_PG_DB")
	envString(&cfg.Repository.PostgresSSLMode, "LEDGER_PG_SSLMODE")

	envString(&cfg.Cache.Type, "LEDGER_CACHE_TYPE")
	envString(&cfg.Cache.RedisAddr, "LEDGER_REDIS_ADDR")
	envString(&cfg.Cache.RedisPassword, "LEDGER_REDIS_PASSWORD")
	envInt(&cfg.Cache.RedisDB, "LEDGER_REDIS_DB")

	envString(&cfg.EventBus.Type, "LEDGER_BUS_TYPE")
	envString(&cfg.EventBus.NATSUrl, "LEDGER_NATS_URL")
	envString(&cfg.EventBus.NATSToken, "LEDGER_NATS_TOKEN")

	envString(&cfg.Model.ArtifactPath, "LEDGER_MODEL_PATH")
	envInt(&cfg.Model.VelocityWindowSecs, "LEDGER_VELOCITY_WINDOW_SECS")

	envString(&cfg.Logging.Level, "LEDGER_LOG_LEVEL")
	envString(&cfg.Logging.Format, "LEDGER_LOG_FORMAT")

	return cfg
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// DistributedConfig returns a multi-node configuration backed by
// PostgreSQL, Redis, and NATS.
func DistributedConfig() *Config {
	cfg := DefaultConfig()
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "ledger",
	}
	cfg.Cache = CacheConfig{
		Type:      "redis",
		RedisAddr: "localhost:6379",
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	return cfg
}
