package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

var envKeys = []string{
	"DATABASE_PATH", "LOG_LEVEL", "HTTP_ADDR", "FETCH_CONCURRENCY", "FETCH_TIMEOUT",
	"USER_AGENT", "SOURCES_FILE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
}

func defaults() Config {
	return Config{
		DatabasePath:     DefaultDatabasePath(),
		LogLevel:         "info",
		HTTPAddr:         ":8080",
		FetchConcurrency: 4,
		FetchTimeout:     30 * time.Second,
		UserAgent:        "ArtFeed/1.0",
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "defaults applied",
			env:  map[string]string{},
			want: func(*Config) {},
		},
		{
			name: "all values set",
			env: map[string]string{
				"DATABASE_PATH":      "/tmp/art.db",
				"LOG_LEVEL":          "debug",
				"HTTP_ADDR":          "127.0.0.1:9000",
				"FETCH_CONCURRENCY":  "8",
				"FETCH_TIMEOUT":      "5s",
				"USER_AGENT":         "artfeed-test/1",
				"SOURCES_FILE":       "/etc/artfeed/sources.yaml",
				"TELEGRAM_BOT_TOKEN": "tok",
				"TELEGRAM_CHAT_ID":   "-100123",
			},
			want: func(c *Config) {
				c.DatabasePath = "/tmp/art.db"
				c.LogLevel = "debug"
				c.HTTPAddr = "127.0.0.1:9000"
				c.FetchConcurrency = 8
				c.FetchTimeout = 5 * time.Second
				c.UserAgent = "artfeed-test/1"
				c.SourcesFile = "/etc/artfeed/sources.yaml"
				c.TelegramBotToken = "tok"
				c.TelegramChatID = -100123
			},
		},
		{
			name:    "concurrency not a number",
			env:     map[string]string{"FETCH_CONCURRENCY": "many"},
			wantErr: true,
		},
		{
			name:    "concurrency out of range",
			env:     map[string]string{"FETCH_CONCURRENCY": "64"},
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			env:     map[string]string{"FETCH_CONCURRENCY": "0"},
			wantErr: true,
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"FETCH_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			env:     map[string]string{"FETCH_TIMEOUT": "-1s"},
			wantErr: true,
		},
		{
			name:    "token without chat id",
			env:     map[string]string{"TELEGRAM_BOT_TOKEN": "tok"},
			wantErr: true,
		},
		{
			name:    "invalid chat id",
			env:     map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "TELEGRAM_CHAT_ID": "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envKeys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := defaults()
			tt.want(&want)
			if diff := cmp.Diff(&want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTelegramEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "unset", cfg: Config{}, want: false},
		{name: "token and chat", cfg: Config{TelegramBotToken: "t", TelegramChatID: 1}, want: true},
		{name: "chat only", cfg: Config{TelegramChatID: 1}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.cfg.TelegramEnabled()); diff != "" {
				t.Errorf("TelegramEnabled() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSeedSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	yaml := `sources:
  - id: ink
    name: Ink Journal
    feed_url: https://ink.example/feed
    page_url: https://ink.example/
    enabled: false
    tags: [ink]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := (&Config{SourcesFile: path}).SeedSources()
	if err != nil {
		t.Fatalf("seed sources: %v", err)
	}
	want := []model.Source{{
		ID: "ink", Name: "Ink Journal", FeedURL: "https://ink.example/feed",
		PageURL: "https://ink.example/", Enabled: false, Tags: []string{"ink"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SeedSources() mismatch (-want +got):\n%s", diff)
	}

	none, err := (&Config{}).SeedSources()
	if err != nil || none != nil {
		t.Errorf("expected nil, nil without SOURCES_FILE; got %v, %v", none, err)
	}

	if _, err := (&Config{SourcesFile: filepath.Join(dir, "missing.yaml")}).SeedSources(); err == nil {
		t.Error("expected error for missing file")
	}
}
