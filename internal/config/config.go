// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
	Locations LocationsConfig
	Auth      AuthConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

type RateLimitConfig struct {
	// Store is "redis" or "memory".
	Store         string
	PerMinute     int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type SearchConfig struct {
	PageSize    int
	MaxPageSize int
	BatchSize   int
	Timeout     time.Duration
}

type LocationsConfig struct {
	// ResolverURL selects the HTTP resolver when set; otherwise slugs are
	// resolved from the database.
	ResolverURL string
	Timeout     time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type LogConfig struct {
	Level      string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	var err error

	cfg.Server = ServerConfig{Port: getEnv("SERVER_PORT", "8080")}

	cfg.Database.URL = getEnv("DATABASE_URL", "postgres://localhost:5432/staysearch?sslmode=disable")
	if cfg.Database.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", 20); err != nil {
		return Config{}, err
	}

	if cfg.RateLimit, err = buildRateLimitConfig(); err != nil {
		return Config{}, err
	}
	if cfg.Search, err = buildSearchConfig(); err != nil {
		return Config{}, err
	}

	cfg.Locations.ResolverURL = getEnv("LOCATION_RESOLVER_URL", "")
	timeoutMs, err := getEnvInt("LOCATION_RESOLVER_TIMEOUT_MS", 2000)
	if err != nil {
		return Config{}, err
	}
	cfg.Locations.Timeout = time.Duration(timeoutMs) * time.Millisecond

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	if cfg.Log, err = buildLogConfig(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func buildRateLimitConfig() (RateLimitConfig, error) {
	store := strings.ToLower(getEnv("RATE_LIMIT_STORE", "redis"))
	if store != "redis" && store != "memory" {
		return RateLimitConfig{}, fmt.Errorf("invalid RATE_LIMIT_STORE %q: must be redis or memory", store)
	}
	perMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return RateLimitConfig{}, err
	}
	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return RateLimitConfig{}, err
	}

	return RateLimitConfig{
		Store:         store,
		PerMinute:     perMinute,
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
	}, nil
}

func buildSearchConfig() (SearchConfig, error) {
	pageSize, err := getEnvInt("SEARCH_PAGE_SIZE", 100)
	if err != nil {
		return SearchConfig{}, err
	}
	if pageSize < 1 {
		return SearchConfig{}, fmt.Errorf("invalid SEARCH_PAGE_SIZE: must be positive")
	}
	maxPageSize, err := getEnvInt("SEARCH_MAX_PAGE_SIZE", 100)
	if err != nil {
		return SearchConfig{}, err
	}
	if maxPageSize < 1 {
		return SearchConfig{}, fmt.Errorf("invalid SEARCH_MAX_PAGE_SIZE: must be positive")
	}
	if pageSize > maxPageSize {
		return SearchConfig{}, fmt.Errorf("invalid SEARCH_PAGE_SIZE: %d exceeds SEARCH_MAX_PAGE_SIZE %d", pageSize, maxPageSize)
	}
	batchSize, err := getEnvInt("SEARCH_BATCH_SIZE", 40)
	if err != nil {
		return SearchConfig{}, err
	}
	if batchSize < 1 {
		return SearchConfig{}, fmt.Errorf("invalid SEARCH_BATCH_SIZE: must be positive")
	}
	timeoutMs, err := getEnvInt("SEARCH_TIMEOUT_MS", 10000)
	if err != nil {
		return SearchConfig{}, err
	}

	return SearchConfig{
		PageSize:    pageSize,
		MaxPageSize: maxPageSize,
		BatchSize:   batchSize,
		Timeout:     time.Duration(timeoutMs) * time.Millisecond,
	}, nil
}

func buildLogConfig() (LogConfig, error) {
	maxSize, err := getEnvInt("LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return LogConfig{}, err
	}
	maxBackups, err := getEnvInt("LOG_MAX_BACKUPS", 3)
	if err != nil {
		return LogConfig{}, err
	}
	maxAge, err := getEnvInt("LOG_MAX_AGE_DAYS", 28)
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		FilePath:   getEnv("LOG_FILE", ""),
		MaxSizeMB:  maxSize,
		MaxBackups: maxBackups,
		MaxAgeDays: maxAge,
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
