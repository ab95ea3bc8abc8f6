// Package view derives filtered projections and aggregates from the
// canonical article collection.
package view

import (
	"strings"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

// All selects every source or tag.
const All = "all"

// Filter narrows the main article list.
type Filter struct {
	SourceID   string `json:"sourceId"`
	UnreadOnly bool   `json:"onlyUnread"`
	Search     string `json:"search"`
}

// FavoriteFilter narrows the favorites list.
type FavoriteFilter struct {
	Filter
	TagID string `json:"tagId"`
}

// Match reports whether a passes f. Search is a case-insensitive substring
// match over the title and source name.
func Match(a model.Article, f Filter) bool {
	if !matchesCommon(a, f) {
		return false
	}
	return matchesSearch(f.Search, a.Title, a.SourceName)
}

// MatchFavorite reports whether a is a favorite passing f. Search also
// covers the summary.
func MatchFavorite(a model.Article, f FavoriteFilter) bool {
	if !a.IsFavorite {
		return false
	}
	if !isAll(f.TagID) && !a.HasTag(f.TagID) {
		return false
	}
	if !matchesCommon(a, f.Filter) {
		return false
	}
	return matchesSearch(f.Search, a.Title, a.Summary, a.SourceName)
}

// Articles returns the articles passing f, preserving order.
func Articles(list []model.Article, f Filter) []model.Article {
	out := make([]model.Article, 0, len(list))
	for _, a := range list {
		if Match(a, f) {
			out = append(out, a)
		}
	}
	return out
}

// Favorites returns the favorite articles passing f, preserving order.
func Favorites(list []model.Article, f FavoriteFilter) []model.Article {
	out := make([]model.Article, 0, len(list))
	for _, a := range list {
		if MatchFavorite(a, f) {
			out = append(out, a)
		}
	}
	return out
}

// UnreadCount returns the number of unread articles.
func UnreadCount(list []model.Article) int {
	n := 0
	for _, a := range list {
		if !a.IsRead {
			n++
		}
	}
	return n
}

func matchesCommon(a model.Article, f Filter) bool {
	if !isAll(f.SourceID) && a.SourceID != f.SourceID {
		return false
	}
	if f.UnreadOnly && a.IsRead {
		return false
	}
	return true
}

func matchesSearch(search string, fields ...string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	text := strings.ToLower(strings.Join(fields, " "))
	return strings.Contains(text, strings.ToLower(search))
}

func isAll(id string) bool {
	return id == "" || id == All
}
