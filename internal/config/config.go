package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	CookieSecure   bool
	LogLevel       string
	LogFormat      string
	// Transcript storage
	StoreBackend  string
	DatabaseURL   string
	MigrationsDir string
	TranscriptDir string
	MaxMessages   int
	// SessionRetention purges sessions idle for longer; zero keeps them.
	SessionRetention time.Duration
	// Service definitions
	ServicesDir     string
	CatalogFile     string
	DefaultService  string
	DefaultCurrency string
	Locale          string
	StateCacheSize  int
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigins:   getEnvListDefault("ALLOWED_ORIGIN", []string{"*"}),
		CookieSecure:     getEnvBoolDefault("COOKIE_SECURE", false),
		LogLevel:         getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvDefault("LOG_FORMAT", "text"),
		StoreBackend:     strings.ToLower(getEnvDefault("STORE_BACKEND", StoreMemory)),
		DatabaseURL:      os.Getenv("DB_URL"),
		MigrationsDir:    getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		TranscriptDir:    getEnvDefault("TRANSCRIPT_DIR", "data/transcripts"),
		MaxMessages:      getEnvIntDefault("MAX_MESSAGES", 0),
		SessionRetention: getEnvDurationDefault("SESSION_RETENTION", 0),
		ServicesDir:      os.Getenv("SERVICES_DIR"),
		CatalogFile:      os.Getenv("CATALOG_FILE"),
		DefaultService:   getEnvDefault("DEFAULT_SERVICE", "general"),
		DefaultCurrency:  strings.ToUpper(getEnvDefault("DEFAULT_CURRENCY", "INR")),
		Locale:           getEnvDefault("LOCALE", "en"),
		StateCacheSize:   getEnvIntDefault("STATE_CACHE_SIZE", 512),
	}
	if cfg.StoreBackend == StorePostgres && cfg.DatabaseURL == "" {
		slog.Warn("STORE_BACKEND=postgres but DB_URL is not set; falling back to memory store")
		cfg.StoreBackend = StoreMemory
	}
	return cfg
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			return n
		}
		slog.Warn("ignoring invalid integer env value", "key", key, "value", v)
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d >= 0 {
			return d
		}
		slog.Warn("ignoring invalid duration env value", "key", key, "value", v)
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
