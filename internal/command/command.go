// Package command implements the message protocol that reads and mutates
// the persisted feed state. One mutex serializes every mutation.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/ingest"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/notify"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/view"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Command types.
const (
	TypeGetState         = "getState"
	TypeRefresh          = "refresh"
	TypeToggleFavorite   = "toggleFavorite"
	TypeMarkRead         = "markRead"
	TypeToggleRead       = "toggleRead"
	TypeAddSource        = "addSource"
	TypeUpdateSource     = "updateSource"
	TypeRemoveSource     = "removeSource"
	TypeUpdateSettings   = "updateSettings"
	TypeCreateTag        = "createTag"
	TypeRenameTag        = "renameTag"
	TypeToggleArticleTag = "toggleArticleTag"
	TypeDeleteTag        = "deleteTag"
	TypeClearData        = "clearData"
	TypeListArticles     = "listArticles"
	TypeListFavorites    = "listFavorites"
	TypeExportSources    = "exportSources"
	TypeImportSources    = "importSources"
)

// Request is one command message.
type Request struct {
	Type      string              `json:"type"`
	ID        string              `json:"id,omitempty"`
	ArticleID string              `json:"articleId,omitempty"`
	TagID     string              `json:"tagId,omitempty"`
	Name      string              `json:"name,omitempty"`
	Payload   jsoniter.RawMessage `json:"payload,omitempty"`
}

// ErrorResult is the response for a failed command.
type ErrorResult struct {
	Error string `json:"error"`
}

// Store is the state persistence used by commands.
type Store interface {
	Load(ctx context.Context) (model.State, error)
	SaveArticles(ctx context.Context, articles []model.Article) error
	SaveSources(ctx context.Context, sources []model.Source) error
	SaveSettings(ctx context.Context, settings model.Settings) error
	SaveTags(ctx context.Context, tags []model.Tag) error
	SaveArticlesAndTags(ctx context.Context, articles []model.Article, tags []model.Tag) error
	Reset(ctx context.Context) error
}

// Ingester runs one ingestion.
type Ingester interface {
	Run(ctx context.Context, reason model.Reason) (ingest.Summary, error)
}

// Discoverer finds the feed advertised by a web page.
type Discoverer interface {
	Discover(ctx context.Context, pageURL string) (string, error)
}

// Rescheduler replaces the recurring ingestion trigger.
type Rescheduler interface {
	Schedule(hours float64)
}

// Service dispatches commands.
type Service struct {
	mu         *sync.Mutex
	store      Store
	ingester   Ingester
	discoverer Discoverer
	scheduler  Rescheduler
	badge      notify.BadgeSetter
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLock shares the mutex that serializes state mutation.
func WithLock(mu *sync.Mutex) Option {
	return func(s *Service) { s.mu = mu }
}

// WithDiscoverer enables feed autodiscovery for sources added without a feed URL.
func WithDiscoverer(d Discoverer) Option {
	return func(s *Service) { s.discoverer = d }
}

// WithScheduler reschedules ingestion when settings change.
func WithScheduler(r Rescheduler) Option {
	return func(s *Service) { s.scheduler = r }
}

// WithBadge sets the unread badge sink.
func WithBadge(b notify.BadgeSetter) Option {
	return func(s *Service) { s.badge = b }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(store Store, ingester Ingester, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		mu:       &sync.Mutex{},
		store:    store,
		ingester: ingester,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch runs one command and returns its result.
func (s *Service) Dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Type {
	case TypeGetState:
		return s.GetState(ctx)
	case TypeRefresh:
		return s.Refresh(ctx)
	case TypeToggleFavorite:
		return s.ToggleFavorite(ctx, req.ID)
	case TypeMarkRead:
		return s.MarkRead(ctx, req.ID)
	case TypeToggleRead:
		return s.ToggleRead(ctx, req.ID)
	case TypeAddSource:
		var p AddSourcePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.AddSource(ctx, p)
	case TypeUpdateSource:
		var p model.SourcePatch
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.UpdateSource(ctx, req.ID, p)
	case TypeRemoveSource:
		return s.RemoveSource(ctx, req.ID)
	case TypeUpdateSettings:
		return s.UpdateSettings(ctx, req.Payload)
	case TypeCreateTag:
		return s.CreateTag(ctx, req.Name)
	case TypeRenameTag:
		return s.RenameTag(ctx, req.ID, req.Name)
	case TypeToggleArticleTag:
		return s.ToggleArticleTag(ctx, req.ArticleID, req.TagID)
	case TypeDeleteTag:
		return s.DeleteTag(ctx, req.ID)
	case TypeClearData:
		return s.ClearData(ctx)
	case TypeListArticles:
		var f view.Filter
		if err := decodePayload(req.Payload, &f); err != nil {
			return nil, err
		}
		return s.ListArticles(ctx, f)
	case TypeListFavorites:
		var f view.FavoriteFilter
		if err := decodePayload(req.Payload, &f); err != nil {
			return nil, err
		}
		return s.ListFavorites(ctx, f)
	case TypeExportSources:
		return s.ExportSources(ctx)
	case TypeImportSources:
		var p ImportSourcesPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.ImportSources(ctx, []byte(p.OPML))
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownCommand, req.Type)
	}
}

func decodePayload(raw jsoniter.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *Service) setBadge(ctx context.Context, settings model.Settings, unread int) {
	if s.badge == nil || !settings.UnreadBadge {
		return
	}
	if err := s.badge.SetBadge(ctx, notify.BadgeFor(unread)); err != nil {
		s.log.Warn("update badge", "error", err)
	}
}
