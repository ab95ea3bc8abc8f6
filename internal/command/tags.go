package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/merge"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

// TagsResult carries the tag list.
type TagsResult struct {
	OK   bool        `json:"ok"`
	Tags []model.Tag `json:"tags"`
}

// DeleteTagResult carries the tag list and the articles after the cascade.
type DeleteTagResult struct {
	OK       bool            `json:"ok"`
	Tags     []model.Tag     `json:"tags"`
	Articles []model.Article `json:"articles"`
}

// CreateTag adds a tag with a unique name.
func (s *Service) CreateTag(ctx context.Context, name string) (*TagsResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create tag: %w", ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	if slices.ContainsFunc(st.Tags, func(t model.Tag) bool { return t.Name == name }) {
		return nil, fmt.Errorf("create tag %q: %w", name, ErrDuplicateName)
	}

	now := s.nowMillis()
	id := Slugify(name)
	if id == "" {
		id = fmt.Sprintf("tag-%d", now)
	}
	if slices.ContainsFunc(st.Tags, func(t model.Tag) bool { return t.ID == id }) {
		id = fmt.Sprintf("%s-%d", id, now)
	}

	next := append(slices.Clone(st.Tags), model.Tag{ID: id, Name: name, CreatedAt: now})
	if err := s.store.SaveTags(ctx, next); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return &TagsResult{OK: true, Tags: next}, nil
}

// RenameTag changes a tag's name. The id is kept.
func (s *Service) RenameTag(ctx context.Context, id, name string) (*TagsResult, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return nil, fmt.Errorf("rename tag: %w", ErrTagNotFound)
	}
	if name == "" {
		return nil, fmt.Errorf("rename tag: %w", ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("rename tag: %w", err)
	}
	i := slices.IndexFunc(st.Tags, func(t model.Tag) bool { return t.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("rename tag %q: %w", id, ErrTagNotFound)
	}
	if slices.ContainsFunc(st.Tags, func(t model.Tag) bool { return t.ID != id && t.Name == name }) {
		return nil, fmt.Errorf("rename tag %q: %w", id, ErrDuplicateName)
	}

	next := slices.Clone(st.Tags)
	next[i].Name = name
	if err := s.store.SaveTags(ctx, next); err != nil {
		return nil, fmt.Errorf("rename tag: %w", err)
	}
	return &TagsResult{OK: true, Tags: next}, nil
}

// DeleteTag removes a tag and strips it from every article in one write.
func (s *Service) DeleteTag(ctx context.Context, id string) (*DeleteTagResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("delete tag: %w", ErrTagNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete tag: %w", err)
	}
	if !slices.ContainsFunc(st.Tags, func(t model.Tag) bool { return t.ID == id }) {
		return nil, fmt.Errorf("delete tag %q: %w", id, ErrTagNotFound)
	}

	tags := slices.DeleteFunc(slices.Clone(st.Tags), func(t model.Tag) bool { return t.ID == id })
	articles := slices.Clone(st.Articles)
	for i := range articles {
		if articles[i].HasTag(id) {
			articles[i].Tags = slices.DeleteFunc(slices.Clone(articles[i].Tags), func(t string) bool { return t == id })
		}
	}
	sorted := merge.Sort(articles)

	if err := s.store.SaveArticlesAndTags(ctx, sorted, tags); err != nil {
		return nil, fmt.Errorf("delete tag: %w", err)
	}
	return &DeleteTagResult{OK: true, Tags: tags, Articles: sorted}, nil
}
