// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultConcurrency = 4
	maxConcurrency     = 32
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "ArtFeed/1.0"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath     string
	LogLevel         string
	HTTPAddr         string
	FetchConcurrency int
	FetchTimeout     time.Duration
	UserAgent        string
	SourcesFile      string
	TelegramBotToken string
	TelegramChatID   int64
}

// DefaultDatabasePath returns the database location under the XDG data home.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, "artfeed", "artfeed.db")
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:     envOrDefault("DATABASE_PATH", DefaultDatabasePath()),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", defaultHTTPAddr),
		FetchConcurrency: defaultConcurrency,
		FetchTimeout:     defaultTimeout,
		UserAgent:        envOrDefault("USER_AGENT", defaultUserAgent),
		SourcesFile:      os.Getenv("SOURCES_FILE"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if raw := os.Getenv("FETCH_CONCURRENCY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FETCH_CONCURRENCY %q: %w", raw, err)
		}
		if n < 1 || n > maxConcurrency {
			return nil, fmt.Errorf("FETCH_CONCURRENCY must be between 1 and %d, got %d", maxConcurrency, n)
		}
		cfg.FetchConcurrency = n
	}

	if raw := os.Getenv("FETCH_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", d)
		}
		cfg.FetchTimeout = d
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	return cfg, nil
}

// TelegramEnabled reports whether Telegram notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// SeedSources returns the sources from SOURCES_FILE, or nil when unset.
func (c *Config) SeedSources() ([]model.Source, error) {
	if c.SourcesFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	sources, err := model.ParseSources(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.SourcesFile, err)
	}
	return sources, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
