package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/config"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/scheduler"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/storage"
)

const disabledSources = `sources:
  - id: museum
    name: Museum Journal
    feed_url: https://museum.example/feed
    enabled: false
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	sourcesFile := filepath.Join(dir, "sources.yaml")
	if err := os.WriteFile(sourcesFile, []byte(disabledSources), 0o600); err != nil {
		t.Fatalf("write sources: %v", err)
	}
	return &config.Config{
		DatabasePath:     filepath.Join(dir, "nested", "artfeed.db"),
		FetchConcurrency: 2,
		FetchTimeout:     time.Second,
		UserAgent:        "test/1",
		SourcesFile:      sourcesFile,
	}
}

func TestNewAndBootstrap(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)

	a, err := New(ctx, cfg, log)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	state, err := a.Service.GetState(ctx)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if diff := cmp.Diff(1, len(state.Sources)); diff != "" {
		t.Errorf("source count mismatch (-want +got):\n%s", diff)
	}
	if state.LastFetchedAt == nil {
		t.Error("expected install ingestion to record lastFetchedAt")
	}
	if diff := cmp.Diff(scheduler.Interval(2), a.Scheduler.Period()); diff != "" {
		t.Errorf("period mismatch (-want +got):\n%s", diff)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening finds every record present and seeds nothing.
	again, err := New(ctx, cfg, log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = again.Close() }()
	if len(again.seeded) != 0 {
		t.Errorf("expected no seeded keys on reopen, got %v", again.seeded)
	}
}

func TestNewBadSourcesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.SourcesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected error for missing sources file")
	}
}

func TestInstallAndSchedule(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		steps       []func(*App, context.Context) error
		wantFetched bool
	}{
		{
			name:        "schedule alone leaves articles untouched",
			steps:       []func(*App, context.Context) error{(*App).Schedule},
			wantFetched: false,
		},
		{
			name:        "install after schedule ingests",
			steps:       []func(*App, context.Context) error{(*App).Schedule, (*App).Install},
			wantFetched: true,
		},
		{
			name:        "install twice",
			steps:       []func(*App, context.Context) error{(*App).Install, (*App).Install},
			wantFetched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, err := New(ctx, testConfig(t), log)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			defer func() { _ = a.Close() }()

			for _, step := range tt.steps {
				if err := step(a, ctx); err != nil {
					t.Fatalf("step: %v", err)
				}
			}

			state, err := a.Service.GetState(ctx)
			if err != nil {
				t.Fatalf("get state: %v", err)
			}
			if diff := cmp.Diff(tt.wantFetched, state.LastFetchedAt != nil); diff != "" {
				t.Errorf("lastFetchedAt recorded mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantFetched, !slices.Contains(a.seeded, storage.KeyArticles)); diff != "" {
				t.Errorf("install done mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
