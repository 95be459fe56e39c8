package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "ALLOWED_ORIGIN", "STORE_BACKEND", "DB_URL", "MAX_MESSAGES", "STATE_CACHE_SIZE", "SESSION_RETENTION", "DEFAULT_CURRENCY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 512, cfg.StateCacheSize)
	assert.Equal(t, 0, cfg.MaxMessages)
	assert.Equal(t, time.Duration(0), cfg.SessionRetention)
	assert.Equal(t, "INR", cfg.DefaultCurrency)
	assert.Equal(t, "general", cfg.DefaultService)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ALLOWED_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("COOKIE_SECURE", "yes")
	t.Setenv("STORE_BACKEND", "FILE")
	t.Setenv("MAX_MESSAGES", "200")
	t.Setenv("STATE_CACHE_SIZE", "not-a-number")
	t.Setenv("SESSION_RETENTION", "72h")
	t.Setenv("DEFAULT_CURRENCY", "usd")

	cfg := Load()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, StoreFile, cfg.StoreBackend)
	assert.Equal(t, 200, cfg.MaxMessages)
	assert.Equal(t, 512, cfg.StateCacheSize)
	assert.Equal(t, 72*time.Hour, cfg.SessionRetention)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
}

func TestPostgresWithoutDSNFallsBack(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_URL", "")
	assert.Equal(t, StoreMemory, Load().StoreBackend)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, Config{LogLevel: in}.SlogLevel(), in)
	}
}
