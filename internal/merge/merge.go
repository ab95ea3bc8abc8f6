// Package merge reconciles freshly parsed articles with stored ones.
package merge

import (
	"cmp"
	"slices"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

// Merge combines incoming articles into existing ones and returns the union.
//
// An incoming article whose id is unknown is added as-is. For a known id the
// merged record takes its content fields from the incoming article and its
// user state (favorite, read, tags) and creation time from the stored one.
// The merged record only replaces the stored one when its publication time
// is not older; ties go to the incoming record. Stored articles missing from
// incoming are kept unchanged. Neither input slice is modified.
//
// Output order is stored order followed by newly added ids in incoming
// order; callers that need a display order should Sort the result.
func Merge(existing, incoming []model.Article) []model.Article {
	out := make([]model.Article, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	index := make(map[string]int, len(existing)+len(incoming))
	for i, a := range out {
		index[a.ID] = i
	}

	for _, in := range incoming {
		i, ok := index[in.ID]
		if !ok {
			a := in
			if a.Tags == nil {
				a.Tags = []string{}
			}
			index[a.ID] = len(out)
			out = append(out, a)
			continue
		}

		prev := out[i]
		merged := in
		merged.IsFavorite = prev.IsFavorite
		merged.IsRead = prev.IsRead
		merged.Tags = slices.Clone(prev.Tags)
		if merged.Tags == nil {
			merged.Tags = []string{}
		}
		if prev.CreatedAt != 0 {
			merged.CreatedAt = prev.CreatedAt
		}
		if merged.PublishedAt >= prev.PublishedAt {
			out[i] = merged
		}
	}
	return out
}

// Sort returns a copy of list ordered by publication time, newest first.
// Articles published at the same instant keep their relative order.
func Sort(list []model.Article) []model.Article {
	out := slices.Clone(list)
	if out == nil {
		out = []model.Article{}
	}
	slices.SortStableFunc(out, func(a, b model.Article) int {
		return cmp.Compare(b.PublishedAt, a.PublishedAt)
	})
	return out
}

// Added reports how many articles a merge added.
func Added(existing, merged []model.Article) int {
	return len(merged) - len(existing)
}
