// Package config loads process settings from the environment. Values in
// .env and .env.local fill in anything the runtime did not already set.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string

	DB       DBConfig
	Metadata MetadataConfig
	HTTP     HTTPConfig

	// JWTSecret enables bearer auth on the query endpoint when non-empty.
	JWTSecret string
	SeedDemo  bool
}

type DBConfig struct {
	// DSN selects the Postgres backend; empty means in-memory.
	DSN          string
	MaxConns     int32
	QueryTimeout time.Duration
	AutoMigrate  bool
}

type MetadataConfig struct {
	APIKey   string
	BaseURL  string
	RPS      int
	CacheTTL time.Duration
	Timeout  time.Duration
}

type HTTPConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// LoadEnvFiles reads .env and .env.local without overriding variables that
// are already present in the environment.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ADDR", ":8000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_MAX_CONNS", 5)
	v.SetDefault("DB_QUERY_TIMEOUT", "0s")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("GOOGLE_API_KEY", "")
	v.SetDefault("GOOGLE_BOOKS_BASE_URL", "https://www.googleapis.com/books/v1")
	v.SetDefault("METADATA_RPS", 5)
	v.SetDefault("METADATA_CACHE_TTL", "0s")
	v.SetDefault("METADATA_TIMEOUT", "15s")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("SEED_DEMO", true)
}

// Load reads env files and returns the resolved configuration.
func Load() (Config, error) {
	LoadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Addr:            v.GetString("APP_ADDR"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		DB: DBConfig{
			DSN:          v.GetString("DB_DSN"),
			MaxConns:     v.GetInt32("DB_MAX_CONNS"),
			QueryTimeout: v.GetDuration("DB_QUERY_TIMEOUT"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		Metadata: MetadataConfig{
			APIKey:   v.GetString("GOOGLE_API_KEY"),
			BaseURL:  v.GetString("GOOGLE_BOOKS_BASE_URL"),
			RPS:      v.GetInt("METADATA_RPS"),
			CacheTTL: v.GetDuration("METADATA_CACHE_TTL"),
			Timeout:  v.GetDuration("METADATA_TIMEOUT"),
		},
		HTTP: HTTPConfig{
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
			MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		JWTSecret: v.GetString("JWT_SECRET"),
		SeedDemo:  v.GetBool("SEED_DEMO"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DB.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DB.MaxConns)
	}
	if c.DB.QueryTimeout < 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must not be negative")
	}
	if c.HTTP.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Durable reports whether the Postgres backend is configured.
func (c Config) Durable() bool {
	return c.DB.DSN != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
