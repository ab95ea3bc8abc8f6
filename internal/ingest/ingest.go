// Package ingest runs ingestion: fetch every enabled source, merge the
// parsed articles into stored state and persist the result.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/merge"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/notify"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/view"
)

// DefaultConcurrency bounds parallel source fetches.
const DefaultConcurrency = 4

// FeedFetcher downloads a feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FeedParser turns a feed document into articles for a source.
type FeedParser interface {
	Parse(raw string, src model.Source) []model.Article
}

// Store is the state persistence used by ingestion.
type Store interface {
	Load(ctx context.Context) (model.State, error)
	Articles(ctx context.Context) ([]model.Article, error)
	SaveIngestion(ctx context.Context, articles []model.Article, fetchedAt int64) error
}

// Summary reports the outcome of one run.
type Summary struct {
	Added         int   `json:"added"`
	Total         int   `json:"total"`
	Unread        int   `json:"unread"`
	LastFetchedAt int64 `json:"lastFetchedAt"`
}

// Orchestrator runs ingestion.
type Orchestrator struct {
	store       Store
	fetcher     FeedFetcher
	parser      FeedParser
	badge       notify.BadgeSetter
	notifier    notify.Notifier
	mu          *sync.Mutex
	concurrency int
	log         *slog.Logger
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLock shares the mutex that serializes state mutation.
func WithLock(mu *sync.Mutex) Option {
	return func(o *Orchestrator) { o.mu = mu }
}

// WithConcurrency sets the number of parallel fetches.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithBadge sets the unread badge sink.
func WithBadge(b notify.BadgeSetter) Option {
	return func(o *Orchestrator) { o.badge = b }
}

// WithNotifier sets the notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator.
func New(store Store, f FeedFetcher, p FeedParser, log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		fetcher:     f,
		parser:      p,
		mu:          &sync.Mutex{},
		concurrency: DefaultConcurrency,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one ingestion. Per-source failures are logged and skipped;
// only state load or persist failures are returned.
func (o *Orchestrator) Run(ctx context.Context, reason model.Reason) (Summary, error) {
	st, err := o.store.Load(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load state: %w", err)
	}

	incoming := o.fetchAll(ctx, st.Sources)

	o.mu.Lock()
	summary, err := o.commit(ctx, incoming)
	o.mu.Unlock()
	if err != nil {
		return Summary{}, err
	}

	o.log.Info("ingestion finished",
		"reason", reason, "added", summary.Added, "total", summary.Total, "unread", summary.Unread)

	if st.Settings.UnreadBadge && o.badge != nil {
		if err := o.badge.SetBadge(ctx, notify.BadgeFor(summary.Unread)); err != nil {
			o.log.Warn("update badge", "error", err)
		}
	}
	if reason != model.ReasonInstall && st.Settings.NotificationsEnabled && summary.Added > 0 && o.notifier != nil {
		n := notify.NewArticles(summary.Added, reason, st.Settings.UpdateIntervalHours)
		if err := o.notifier.Notify(ctx, n); err != nil {
			o.log.Warn("send notification", "error", err)
		}
	}
	return summary, nil
}

func (o *Orchestrator) fetchAll(ctx context.Context, sources []model.Source) []model.Article {
	results := make([][]model.Article, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, src := range sources {
		feedURL := strings.TrimSpace(src.FeedURL)
		if !src.Enabled || feedURL == "" {
			continue
		}
		g.Go(func() error {
			results[i] = o.fetchSource(gctx, src, feedURL)
			return nil
		})
	}
	_ = g.Wait()

	var incoming []model.Article
	for _, r := range results {
		incoming = append(incoming, r...)
	}
	return incoming
}

func (o *Orchestrator) fetchSource(ctx context.Context, src model.Source, feedURL string) []model.Article {
	raw, err := o.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		o.log.Warn("fetch source", "source_id", src.ID, "url", feedURL, "error", err)
		return nil
	}
	items := o.parser.Parse(raw, src)
	o.log.Debug("fetched source", "source_id", src.ID, "items", len(items))
	return items
}

func (o *Orchestrator) commit(ctx context.Context, incoming []model.Article) (Summary, error) {
	existing, err := o.store.Articles(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load articles: %w", err)
	}

	merged := merge.Merge(existing, incoming)
	sorted := merge.Sort(merged)
	fetchedAt := o.now().UnixMilli()

	if err := o.store.SaveIngestion(ctx, sorted, fetchedAt); err != nil {
		return Summary{}, fmt.Errorf("persist articles: %w", err)
	}

	return Summary{
		Added:         merge.Added(existing, merged),
		Total:         len(sorted),
		Unread:        view.UnreadCount(sorted),
		LastFetchedAt: fetchedAt,
	}, nil
}
