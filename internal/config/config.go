package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env              string
	HTTPPort         string
	StoreBackend     string // "memory" or "postgres"
	DatabaseURL      string
	StateBackend     string // "memory" or "redis"
	RedisAddr        string
	JWTSecret        string
	AccessTokenTTL   time.Duration
	OperatorUsername string
	OperatorPassword string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		StoreBackend:     getEnv("STORE_BACKEND", "memory"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StateBackend:     getEnv("STATE_BACKEND", "memory"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenTTL:   getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		OperatorUsername: getEnv("OPERATOR_USERNAME", "superadmin"),
		OperatorPassword: os.Getenv("OPERATOR_PASSWORD"),
		ReadTimeout:      getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:     getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:      getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:  getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.OperatorPassword == "" {
		return cfg, errors.New("OPERATOR_PASSWORD is required")
	}
	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
	}
	if cfg.StateBackend == "redis" && cfg.RedisAddr == "" {
		return cfg, errors.New("REDIS_ADDR is required when STATE_BACKEND=redis")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
