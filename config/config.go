package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// UpstreamConfig holds settings for the rail operator API.
type UpstreamConfig struct {
	BaseURL string `mapstructure:"UPSTREAM_BASE_URL"`
	// RequestTimeout bounds every upstream call except search pages.
	RequestTimeout time.Duration `mapstructure:"UPSTREAM_REQUEST_TIMEOUT"`
	// SearchPageTimeout bounds a single connection-search page fetch.
	SearchPageTimeout time.Duration `mapstructure:"UPSTREAM_SEARCH_PAGE_TIMEOUT"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// CacheConfig holds TTLs for the reference-data and detail caches.
type CacheConfig struct {
	// StationsTTL covers the station and discount reference lists, which
	// are read-only for the lifetime of a passenger session.
	StationsTTL time.Duration `mapstructure:"CACHE_STATIONS_TTL"`
	// DetailsTTL covers ticket details and the current-ticket lookup.
	DetailsTTL time.Duration `mapstructure:"CACHE_DETAILS_TTL"`
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "40s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	viper.SetDefault("UPSTREAM_BASE_URL", "http://localhost:5222")
	viper.SetDefault("UPSTREAM_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("UPSTREAM_SEARCH_PAGE_TIMEOUT", "30s")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("CACHE_STATIONS_TTL", "12h")
	viper.SetDefault("CACHE_DETAILS_TTL", "5m")

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Upstream ────────────────────────────────────────
	cfg.Upstream = UpstreamConfig{
		BaseURL:           viper.GetString("UPSTREAM_BASE_URL"),
		RequestTimeout:    viper.GetDuration("UPSTREAM_REQUEST_TIMEOUT"),
		SearchPageTimeout: viper.GetDuration("UPSTREAM_SEARCH_PAGE_TIMEOUT"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Cache ───────────────────────────────────────────
	cfg.Cache = CacheConfig{
		StationsTTL: viper.GetDuration("CACHE_STATIONS_TTL"),
		DetailsTTL:  viper.GetDuration("CACHE_DETAILS_TTL"),
	}

	return cfg, nil
}
