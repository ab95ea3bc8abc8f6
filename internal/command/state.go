package command

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/ingest"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/merge"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/view"
)

// StateResult is the full client-facing state.
type StateResult struct {
	Articles      []model.Article `json:"articles"`
	Sources       []model.Source  `json:"sources"`
	Settings      model.Settings  `json:"settings"`
	Tags          []model.Tag     `json:"tags"`
	LastFetchedAt *int64          `json:"lastFetchedAt"`
	UnreadCount   int             `json:"unreadCount"`
}

// RefreshResult reports a manual ingestion.
type RefreshResult struct {
	OK bool `json:"ok"`
	ingest.Summary
}

// SettingsResult carries the effective settings.
type SettingsResult struct {
	OK       bool           `json:"ok"`
	Settings model.Settings `json:"settings"`
}

// GetState returns the sorted articles and the rest of the state and
// refreshes the badge.
func (s *Service) GetState(ctx context.Context) (*StateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(ctx)
}

func (s *Service) state(ctx context.Context) (*StateResult, error) {
	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	sorted := merge.Sort(st.Articles)
	unread := view.UnreadCount(sorted)
	s.setBadge(ctx, st.Settings, unread)
	return &StateResult{
		Articles:      sorted,
		Sources:       st.Sources,
		Settings:      st.Settings,
		Tags:          st.Tags,
		LastFetchedAt: st.LastFetchedAt,
		UnreadCount:   unread,
	}, nil
}

// Refresh runs a manual ingestion. The run is detached from ctx
// cancellation so a departed caller never leaves it half applied.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	sum, err := s.ingester.Run(context.WithoutCancel(ctx), model.ReasonManual)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &RefreshResult{OK: true, Summary: sum}, nil
}

// UpdateSettings merges a partial settings record over the current
// settings, persists it and reschedules ingestion.
func (s *Service) UpdateSettings(ctx context.Context, patch jsoniter.RawMessage) (*SettingsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	settings := st.Settings
	if err := decodePayload(patch, &settings); err != nil {
		return nil, err
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	if s.scheduler != nil {
		s.scheduler.Schedule(settings.UpdateIntervalHours)
	}
	return &SettingsResult{OK: true, Settings: settings}, nil
}

// ClearData resets every record to its default and returns the fresh state.
func (s *Service) ClearData(ctx context.Context) (*StateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("clear data: %w", err)
	}
	res, err := s.state(ctx)
	if err != nil {
		return nil, err
	}
	if s.scheduler != nil {
		s.scheduler.Schedule(res.Settings.UpdateIntervalHours)
	}
	return res, nil
}
