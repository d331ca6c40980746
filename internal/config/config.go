package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cinematch/backend/internal/database"
)

// Config holds all runtime configuration, read once at startup
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string
	CORSOrigins []string

	DatabaseURL string
	JWTSecret   []byte

	TMDBBaseURL     string
	TMDBBearerToken string
	TMDBTimeout     time.Duration

	RecEngineURL     string
	RecEngineTimeout time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	OTLPEndpoint     string
	TraceSampleRatio float64
}

// Load reads configuration from the environment.
// REQUIRED environment variables:
// - JWT_SECRET: HMAC key for session tokens
// - TMDB_BEARER_TOKEN: TMDB v4 read access token
// The database DSN comes from DATABASE_URL or the DB_* variables.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	tmdbToken := os.Getenv("TMDB_BEARER_TOKEN")
	if tmdbToken == "" {
		return nil, fmt.Errorf("TMDB_BEARER_TOKEN environment variable not set")
	}

	tmdbTimeout, err := durationEnv("TMDB_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	engineTimeout, err := durationEnv("REC_ENG_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sampleRatio, err := ratioEnv("OTEL_TRACES_SAMPLER_ARG", 1.0)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:        getEnvOrDefault("PORT", "5000"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),

		DatabaseURL: database.DSNFromEnv(),
		JWTSecret:   []byte(jwtSecret),

		TMDBBaseURL:     getEnvOrDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBBearerToken: tmdbToken,
		TMDBTimeout:     tmdbTimeout,

		RecEngineURL:     strings.TrimRight(getEnvOrDefault("REC_ENG_URL", "http://localhost:3000"), "/"),
		RecEngineTimeout: engineTimeout,

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio: sampleRatio,
	}, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// durationEnv accepts either a Go duration ("5s") or a plain number of milliseconds
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

// ratioEnv reads a sampling ratio in [0, 1]
func ratioEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("invalid %s %q: want a ratio between 0 and 1", key, raw)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
