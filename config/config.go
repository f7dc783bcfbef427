package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevEncryptionKey is the base64 of 32 zero bytes. It keeps the server
// bootable without an ENCRYPTION_KEY in local development; callers warn
// loudly when it is in use.
const DevEncryptionKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

type Config struct {
	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// Link storage
	Database DatabaseConfig `mapstructure:"database"`

	// Redis (optional, shared rate-limit quota)
	Redis RedisConfig `mapstructure:"redis"`

	// Payload encryption
	Crypto CryptoConfig `mapstructure:"crypto"`

	// Creation admission control and input limits
	Limits LimitsConfig `mapstructure:"limits"`

	// Dead-link sweeper
	Cleanup CleanupConfig `mapstructure:"cleanup"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	BaseURL   string `mapstructure:"base_url"`
	PublicDir string `mapstructure:"public_dir"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `mapstructure:"driver"`

	// SQLite
	Path string `mapstructure:"path"`

	// Postgres
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CryptoConfig struct {
	// EncryptionKey is the base64 encoding of a 32-byte AES key.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type LimitsConfig struct {
	CreatePerMinute  int `mapstructure:"create_per_minute"`
	MaxTextSizeBytes int `mapstructure:"max_text_size_bytes"`
}

type CleanupConfig struct {
	IntervalSecs int `mapstructure:"interval_secs"`
}

func (c CleanupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve the original deployment's env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://127.0.0.1:8080")
	v.SetDefault("server.public_dir", "./public")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/shredlink.db")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("crypto.encryption_key", DevEncryptionKey)

	v.SetDefault("limits.create_per_minute", 10)
	v.SetDefault("limits.max_text_size_bytes", 100_000)

	v.SetDefault("cleanup.interval_secs", 600)

	v.SetDefault("prometheus.port", 9090)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.base_url", "BASE_URL")
	v.BindEnv("server.public_dir", "PUBLIC_DIR")

	// Database
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.path", "SQLITE_PATH")
	v.BindEnv("database.host", "PG_HOST")
	v.BindEnv("database.user", "PG_USER")
	v.BindEnv("database.password", "PG_PASSWORD")
	v.BindEnv("database.database", "PG_DB")
	v.BindEnv("database.port", "PG_PORT")
	v.BindEnv("database.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// Crypto / limits / cleanup
	v.BindEnv("crypto.encryption_key", "ENCRYPTION_KEY")
	v.BindEnv("limits.create_per_minute", "CREATE_RATE_LIMIT_PER_MINUTE")
	v.BindEnv("limits.max_text_size_bytes", "MAX_TEXT_SIZE_BYTES")
	v.BindEnv("cleanup.interval_secs", "CLEANUP_INTERVAL_SECS")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
}
