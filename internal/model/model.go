// Package model defines the domain types used across the application.
package model

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Article is a normalized feed entry enriched with user state.
// Timestamps are Unix epoch milliseconds.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Summary     string   `json:"summary"`
	Content     string   `json:"content"`
	SourceID    string   `json:"sourceId"`
	SourceName  string   `json:"sourceName"`
	PublishedAt int64    `json:"publishedAt"`
	CreatedAt   int64    `json:"createdAt"`
	IsFavorite  bool     `json:"isFavorite"`
	IsRead      bool     `json:"isRead"`
	Tags        []string `json:"tags"`
}

// HasTag reports whether the article references the given tag id.
func (a *Article) HasTag(tagID string) bool {
	for _, t := range a.Tags {
		if t == tagID {
			return true
		}
	}
	return false
}

// Source is a configured feed endpoint.
type Source struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	FeedURL string   `json:"feedUrl"`
	PageURL string   `json:"pageUrl"`
	Enabled bool     `json:"enabled"`
	Tags    []string `json:"tags"`
}

// UnmarshalJSON decodes a stored source. A record without "enabled" is enabled.
func (s *Source) UnmarshalJSON(data []byte) error {
	type plain Source
	p := plain{Enabled: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Source(p)
	return nil
}

// SourcePatch carries a partial source update. Nil fields are left unchanged.
type SourcePatch struct {
	Name    *string   `json:"name"`
	FeedURL *string   `json:"feedUrl"`
	PageURL *string   `json:"pageUrl"`
	Enabled *bool     `json:"enabled"`
	Tags    *[]string `json:"tags"`
}

// Apply copies the non-nil fields of the patch onto src.
func (p *SourcePatch) Apply(src *Source) {
	if p.Name != nil {
		src.Name = *p.Name
	}
	if p.FeedURL != nil {
		src.FeedURL = *p.FeedURL
	}
	if p.PageURL != nil {
		src.PageURL = *p.PageURL
	}
	if p.Enabled != nil {
		src.Enabled = *p.Enabled
	}
	if p.Tags != nil {
		src.Tags = append([]string{}, (*p.Tags)...)
	}
}

// Tag is a user-defined article label.
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Settings is the flat user configuration record.
type Settings struct {
	UpdateIntervalHours  float64 `json:"updateIntervalHours"`
	NotificationsEnabled bool    `json:"notificationsEnabled"`
	UnreadBadge          bool    `json:"unreadBadge"`
	OpenInNewTab         bool    `json:"openInNewTab"`
}

// DefaultSettings returns the settings used for missing keys.
func DefaultSettings() Settings {
	return Settings{
		UpdateIntervalHours:  2,
		NotificationsEnabled: true,
		UnreadBadge:          true,
		OpenInNewTab:         true,
	}
}

// State is the full persisted aggregate.
type State struct {
	Articles      []Article
	Sources       []Source
	Settings      Settings
	Tags          []Tag
	LastFetchedAt *int64
}

// Reason names what triggered an ingestion run.
type Reason string

// Ingestion reasons.
const (
	ReasonInstall Reason = "install"
	ReasonAlarm   Reason = "alarm"
	ReasonManual  Reason = "manual"
)
