package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/merge"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/view"
)

// ArticlesResult carries a sorted article list.
type ArticlesResult struct {
	OK       bool            `json:"ok"`
	Articles []model.Article `json:"articles"`
}

// ListResult carries a filtered article projection.
type ListResult struct {
	Articles    []model.Article `json:"articles"`
	Count       int             `json:"count"`
	UnreadCount int             `json:"unreadCount"`
}

// ToggleFavorite flips the favorite flag of an article. Unknown ids are a no-op.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (*ArticlesResult, error) {
	return s.updateArticle(ctx, "toggle favorite", id, func(a *model.Article) {
		a.IsFavorite = !a.IsFavorite
	})
}

// MarkRead marks an article read. Unknown ids are a no-op.
func (s *Service) MarkRead(ctx context.Context, id string) (*ArticlesResult, error) {
	return s.updateArticle(ctx, "mark read", id, func(a *model.Article) {
		a.IsRead = true
	})
}

// ToggleRead flips the read flag of an article. Unknown ids are a no-op.
func (s *Service) ToggleRead(ctx context.Context, id string) (*ArticlesResult, error) {
	return s.updateArticle(ctx, "toggle read", id, func(a *model.Article) {
		a.IsRead = !a.IsRead
	})
}

func (s *Service) updateArticle(ctx context.Context, op, id string, fn func(*model.Article)) (*ArticlesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated := slices.Clone(st.Articles)
	for i := range updated {
		if updated[i].ID == id {
			fn(&updated[i])
		}
	}
	if err := s.store.SaveArticles(ctx, updated); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sorted := merge.Sort(updated)
	s.setBadge(ctx, st.Settings, view.UnreadCount(sorted))
	return &ArticlesResult{OK: true, Articles: sorted}, nil
}

// ToggleArticleTag adds tagID to an article's tags, or removes it when present.
func (s *Service) ToggleArticleTag(ctx context.Context, articleID, tagID string) (*ArticlesResult, error) {
	articleID = strings.TrimSpace(articleID)
	tagID = strings.TrimSpace(tagID)
	if articleID == "" || tagID == "" {
		return nil, fmt.Errorf("toggle article tag: %w", ErrMissingArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("toggle article tag: %w", err)
	}
	if !slices.ContainsFunc(st.Tags, func(t model.Tag) bool { return t.ID == tagID }) {
		return nil, fmt.Errorf("toggle article tag %q: %w", tagID, ErrTagNotFound)
	}
	i := slices.IndexFunc(st.Articles, func(a model.Article) bool { return a.ID == articleID })
	if i < 0 {
		return nil, fmt.Errorf("toggle article tag on %q: %w", articleID, ErrArticleNotFound)
	}

	updated := slices.Clone(st.Articles)
	a := &updated[i]
	if a.HasTag(tagID) {
		a.Tags = slices.DeleteFunc(slices.Clone(a.Tags), func(t string) bool { return t == tagID })
	} else {
		a.Tags = append(slices.Clone(a.Tags), tagID)
	}

	sorted := merge.Sort(updated)
	if err := s.store.SaveArticles(ctx, sorted); err != nil {
		return nil, fmt.Errorf("toggle article tag: %w", err)
	}
	return &ArticlesResult{OK: true, Articles: sorted}, nil
}

// ListArticles returns the sorted articles passing f.
func (s *Service) ListArticles(ctx context.Context, f view.Filter) (*ListResult, error) {
	return s.list(ctx, "list articles", func(all []model.Article) []model.Article {
		return view.Articles(all, f)
	})
}

// ListFavorites returns the sorted favorite articles passing f.
func (s *Service) ListFavorites(ctx context.Context, f view.FavoriteFilter) (*ListResult, error) {
	return s.list(ctx, "list favorites", func(all []model.Article) []model.Article {
		return view.Favorites(all, f)
	})
}

func (s *Service) list(ctx context.Context, op string, project func([]model.Article) []model.Article) (*ListResult, error) {
	s.mu.Lock()
	st, err := s.store.Load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := project(merge.Sort(st.Articles))
	return &ListResult{
		Articles:    out,
		Count:       len(out),
		UnreadCount: view.UnreadCount(out),
	}, nil
}
