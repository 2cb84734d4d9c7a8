package config_test

import (
	"testing"
	"time"

	"jamb-online/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "CHAT_HISTORY_MAX", "GAME_MAX_AGE"} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ChatHistoryMax != 100 {
		t.Errorf("expected default chat cap 100, got %d", cfg.ChatHistoryMax)
	}
	if cfg.GameMaxAge != time.Hour {
		t.Errorf("expected default game max age 1h, got %s", cfg.GameMaxAge)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("CHAT_HISTORY_MAX", "50")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "9090" || cfg.RedisURL != "localhost:6379" || cfg.RedisDB != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SweepInterval != 30*time.Second || cfg.ChatHistoryMax != 50 {
		t.Errorf("duration/int overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected an error for a bad REDIS_DB")
	}
}
