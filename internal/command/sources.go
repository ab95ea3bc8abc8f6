package command

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/opml"
)

const opmlTitle = "artfeed sources"

// AddSourcePayload describes a new source.
type AddSourcePayload struct {
	Name    string   `json:"name"`
	FeedURL string   `json:"feedUrl"`
	PageURL string   `json:"pageUrl"`
	Tags    []string `json:"tags"`
}

// ImportSourcesPayload carries an OPML document.
type ImportSourcesPayload struct {
	OPML string `json:"opml"`
}

// SourcesResult carries the source list.
type SourcesResult struct {
	OK      bool           `json:"ok"`
	Sources []model.Source `json:"sources"`
}

// ImportResult reports an OPML import.
type ImportResult struct {
	OK      bool           `json:"ok"`
	Added   int            `json:"added"`
	Sources []model.Source `json:"sources"`
}

// ExportResult carries an OPML document.
type ExportResult struct {
	OK   bool   `json:"ok"`
	OPML string `json:"opml"`
}

// AddSource appends a source. When only a page URL is given the page is
// searched for an advertised feed; a failed search keeps the feed URL blank.
func (s *Service) AddSource(ctx context.Context, p AddSourcePayload) (*SourcesResult, error) {
	name := strings.TrimSpace(p.Name)
	feedURL := strings.TrimSpace(p.FeedURL)
	pageURL := strings.TrimSpace(p.PageURL)

	if feedURL == "" && pageURL != "" && s.discoverer != nil {
		found, err := s.discoverer.Discover(ctx, pageURL)
		if err != nil {
			s.log.Warn("discover feed", "url", pageURL, "error", err)
		} else {
			s.log.Info("discovered feed", "url", pageURL, "feed_url", found)
			feedURL = found
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("add source: %w", err)
	}

	id := uniqueSourceID(st.Sources, firstNonEmpty(name, feedURL), s.nowMillis())
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	src := model.Source{
		ID:      id,
		Name:    firstNonEmpty(name, id),
		FeedURL: feedURL,
		PageURL: firstNonEmpty(pageURL, feedURL),
		Enabled: true,
		Tags:    tags,
	}

	next := append(slices.Clone(st.Sources), src)
	if err := s.store.SaveSources(ctx, next); err != nil {
		return nil, fmt.Errorf("add source: %w", err)
	}
	return &SourcesResult{OK: true, Sources: next}, nil
}

// UpdateSource applies a partial update. Unknown ids are a no-op.
func (s *Service) UpdateSource(ctx context.Context, id string, patch model.SourcePatch) (*SourcesResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("update source: %w", ErrMissingArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	next := slices.Clone(st.Sources)
	for i := range next {
		if next[i].ID == id {
			patch.Apply(&next[i])
		}
	}
	if err := s.store.SaveSources(ctx, next); err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	return &SourcesResult{OK: true, Sources: next}, nil
}

// RemoveSource deletes a source. Its articles are kept.
func (s *Service) RemoveSource(ctx context.Context, id string) (*SourcesResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("remove source: %w", ErrMissingArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("remove source: %w", err)
	}
	next := slices.DeleteFunc(slices.Clone(st.Sources), func(src model.Source) bool { return src.ID == id })
	if err := s.store.SaveSources(ctx, next); err != nil {
		return nil, fmt.Errorf("remove source: %w", err)
	}
	return &SourcesResult{OK: true, Sources: next}, nil
}

// ExportSources renders the sources as OPML.
func (s *Service) ExportSources(ctx context.Context) (*ExportResult, error) {
	s.mu.Lock()
	st, err := s.store.Load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("export sources: %w", err)
	}
	data, err := opml.Export(opmlTitle, st.Sources, s.now())
	if err != nil {
		return nil, fmt.Errorf("export sources: %w", err)
	}
	return &ExportResult{OK: true, OPML: string(data)}, nil
}

// ImportSources adds every OPML feed whose URL is not already configured.
// Folder names become source tags.
func (s *Service) ImportSources(ctx context.Context, data []byte) (*ImportResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("import sources: %w", ErrMissingArgument)
	}
	entries, err := opml.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("import sources: %w: %v", ErrBadPayload, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("import sources: %w", err)
	}

	known := make(map[string]bool, len(st.Sources))
	for _, src := range st.Sources {
		known[src.FeedURL] = true
	}

	now := s.nowMillis()
	next := slices.Clone(st.Sources)
	added := 0
	for _, e := range entries {
		feedURL := strings.TrimSpace(e.FeedURL)
		if known[feedURL] {
			continue
		}
		known[feedURL] = true
		id := uniqueSourceID(next, firstNonEmpty(e.Title, feedURL), now)
		next = append(next, model.Source{
			ID:      id,
			Name:    firstNonEmpty(strings.TrimSpace(e.Title), id),
			FeedURL: feedURL,
			PageURL: firstNonEmpty(e.PageURL, feedURL),
			Enabled: true,
			Tags:    append([]string{}, e.Folders...),
		})
		added++
	}

	if added > 0 {
		if err := s.store.SaveSources(ctx, next); err != nil {
			return nil, fmt.Errorf("import sources: %w", err)
		}
	}
	return &ImportResult{OK: true, Added: added, Sources: next}, nil
}

// uniqueSourceID slugifies base, falling back to source-<now>, and appends
// -<now> when the id is taken.
func uniqueSourceID(sources []model.Source, base string, now int64) string {
	taken := func(id string) bool {
		return slices.ContainsFunc(sources, func(src model.Source) bool { return src.ID == id })
	}
	id := Slugify(base)
	if id == "" {
		id = fmt.Sprintf("source-%d", now)
	}
	if !taken(id) {
		return id
	}
	candidate := fmt.Sprintf("%s-%d", id, now)
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s-%d-%d", id, now, n)
	}
	return candidate
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
