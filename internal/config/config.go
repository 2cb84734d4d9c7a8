package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the binaries read from the environment. Redis is
// optional; with no REDIS_URL the directory runs on its in-memory store.
type Config struct {
	Port string
	Env  string

	RedisURL  string
	RedisPass string
	RedisDB   int

	DirectoryURL string
	LogDir       string

	SweepInterval  time.Duration
	GameMaxAge     time.Duration
	ChatHistoryMax int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		RedisURL:     os.Getenv("REDIS_URL"),
		RedisPass:    os.Getenv("REDIS_PASS"),
		DirectoryURL: getEnv("DIRECTORY_URL", "http://localhost:8080"),
		LogDir:       getEnv("LOG_DIR", "logs"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ChatHistoryMax, err = getEnvInt("CHAT_HISTORY_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GameMaxAge, err = getEnvDuration("GAME_MAX_AGE", time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return d, nil
}
