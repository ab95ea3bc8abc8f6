// Package app wires the storage, ingestion, scheduling and command layers
// from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/config"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/fetcher"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/ingest"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/notify"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/parser"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/scheduler"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/storage"
)

// App holds the wired components.
type App struct {
	Repo      *storage.Repository
	Service   *command.Service
	Ingester  *ingest.Orchestrator
	Scheduler *scheduler.Scheduler

	kv     *storage.SQLite
	log    *slog.Logger
	seeded []string
}

// New opens the database, seeds missing records and builds the services.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	seed, err := cfg.SeedSources()
	if err != nil {
		return nil, err
	}

	kv, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	repo := storage.NewRepository(kv, seed)

	seeded, err := repo.EnsureDefaults(ctx)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	if len(seeded) > 0 {
		log.Info("seeded defaults", "keys", seeded)
	}

	notifier := notify.Multi{notify.NewLog(log)}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			_ = kv.Close()
			return nil, err
		}
		notifier = append(notifier, tg)
	}
	badge := notify.NewLog(log)

	mu := &sync.Mutex{}
	f := fetcher.New(&http.Client{},
		fetcher.WithTimeout(cfg.FetchTimeout),
		fetcher.WithUserAgent(cfg.UserAgent),
	)
	orch := ingest.New(repo, f, parser.New(log), log,
		ingest.WithLock(mu),
		ingest.WithConcurrency(cfg.FetchConcurrency),
		ingest.WithBadge(badge),
		ingest.WithNotifier(notifier),
	)
	sched := scheduler.New(orch, log)
	svc := command.New(repo, orch, log,
		command.WithLock(mu),
		command.WithDiscoverer(f),
		command.WithScheduler(sched),
		command.WithBadge(badge),
	)

	return &App{
		Repo:      repo,
		Service:   svc,
		Ingester:  orch,
		Scheduler: sched,
		kv:        kv,
		log:       log,
		seeded:    seeded,
	}, nil
}

// Bootstrap runs Install and then Schedule.
func (a *App) Bootstrap(ctx context.Context) error {
	if err := a.Install(ctx); err != nil {
		return err
	}
	return a.Schedule(ctx)
}

// Install runs the install ingestion when the article list was just
// seeded. It is a no-op otherwise and after the first success.
func (a *App) Install(ctx context.Context) error {
	if !slices.Contains(a.seeded, storage.KeyArticles) {
		return nil
	}
	if _, err := a.Ingester.Run(ctx, model.ReasonInstall); err != nil {
		return fmt.Errorf("install ingestion: %w", err)
	}
	a.seeded = slices.DeleteFunc(a.seeded, func(k string) bool { return k == storage.KeyArticles })
	return nil
}

// Schedule applies the stored update interval to the scheduler.
func (a *App) Schedule(ctx context.Context) error {
	settings, err := a.Repo.Settings(ctx)
	if err != nil {
		return err
	}
	a.Scheduler.Schedule(settings.UpdateIntervalHours)
	return nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.kv.Close()
}
