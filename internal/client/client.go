// Package client keeps a UI-side copy of the feed state that is only ever
// replaced by authoritative command responses.
package client

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/view"
)

// Dispatcher sends a command to the service.
type Dispatcher interface {
	Dispatch(ctx context.Context, req command.Request) (any, error)
}

// Cache holds the last known state.
type Cache struct {
	d Dispatcher

	mu     sync.RWMutex
	state  command.StateResult
	loaded bool
}

// New creates an empty Cache.
func New(d Dispatcher) *Cache {
	return &Cache{d: d}
}

// Sync replaces the cache with the service's full state.
func (c *Cache) Sync(ctx context.Context) error {
	res, err := c.d.Dispatch(ctx, command.Request{Type: command.TypeGetState})
	if err != nil {
		return fmt.Errorf("sync state: %w", err)
	}
	c.Apply(res)
	return nil
}

// Do sends req and folds the response into the cache. Responses that do
// not carry the changed records trigger a full Sync.
func (c *Cache) Do(ctx context.Context, req command.Request) (any, error) {
	res, err := c.d.Dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	if !c.Apply(res) {
		if err := c.Sync(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Apply folds a command response into the cache. It reports false when
// the response does not describe the resulting state.
func (c *Cache) Apply(res any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch r := res.(type) {
	case *command.StateResult:
		c.state = *r
		c.loaded = true
	case *command.ArticlesResult:
		c.setArticles(r.Articles)
	case *command.SourcesResult:
		c.state.Sources = r.Sources
	case *command.ImportResult:
		c.state.Sources = r.Sources
	case *command.SettingsResult:
		c.state.Settings = r.Settings
	case *command.TagsResult:
		c.state.Tags = r.Tags
	case *command.DeleteTagResult:
		c.state.Tags = r.Tags
		c.setArticles(r.Articles)
	case *command.ListResult, *command.ExportResult:
		// Projections and exports leave state unchanged.
	default:
		return false
	}
	return true
}

func (c *Cache) setArticles(articles []model.Article) {
	c.state.Articles = articles
	c.state.UnreadCount = view.UnreadCount(articles)
}

// Loaded reports whether a full state has been received.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Snapshot returns a copy of the cached state.
func (c *Cache) Snapshot() command.StateResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Articles = slices.Clone(s.Articles)
	s.Sources = slices.Clone(s.Sources)
	s.Tags = slices.Clone(s.Tags)
	return s
}

// Articles returns the cached articles passing f.
func (c *Cache) Articles(f view.Filter) []model.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return view.Articles(c.state.Articles, f)
}

// Favorites returns the cached favorites passing f.
func (c *Cache) Favorites(f view.FavoriteFilter) []model.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return view.Favorites(c.state.Articles, f)
}

// UnreadCount returns the cached unread count.
func (c *Cache) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.UnreadCount
}
