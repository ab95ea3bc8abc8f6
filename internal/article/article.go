// Package article derives stable article identities and builds normalized
// article records from raw feed fields.
package article

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

// SummaryLimit is the maximum number of visible characters kept in a summary.
const SummaryLimit = 180

const ellipsis = "..."

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Fields holds the raw values extracted from a single feed entry.
type Fields struct {
	Title       string
	Link        string
	Description string
	Date        string
	// Published is the already parsed publication time, when the feed
	// parser produced one. It takes precedence over Date.
	Published *time.Time
}

// DeriveID returns the article id for a resolved link, or for the title when
// the link is empty. The hash is a 32-bit rolling hash over UTF-16 code
// units and has no collision resistance: two entries that collide are
// treated as the same article.
func DeriveID(link, title string) string {
	input := link
	if input == "" {
		input = title
	}
	var h int32
	for _, c := range utf16.Encode([]rune(input)) {
		h = h*31 + int32(c)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return "a-" + strconv.FormatInt(n, 10)
}

// Build turns raw entry fields into an article for src. The second return
// value is false when the entry has neither a title nor a link, in which
// case the entry should be dropped.
func Build(f Fields, src model.Source, now time.Time) (model.Article, bool) {
	title := strings.TrimSpace(f.Title)
	link := strings.TrimSpace(f.Link)
	if link == "" {
		link = src.PageURL
	}
	if title == "" {
		title = link
	}
	if title == "" && link == "" {
		return model.Article{}, false
	}

	ts := now.UnixMilli()
	return model.Article{
		ID:          DeriveID(link, title),
		Title:       title,
		Link:        link,
		Summary:     Summarize(f.Description),
		Content:     StripTags(f.Description),
		SourceID:    src.ID,
		SourceName:  src.Name,
		PublishedAt: publishedAt(f, now),
		CreatedAt:   ts,
		Tags:        []string{},
	}, true
}

func publishedAt(f Fields, now time.Time) int64 {
	if f.Published != nil && !f.Published.IsZero() {
		return f.Published.UnixMilli()
	}
	return ParseDate(f.Date, now)
}

// StripTags removes markup tags. Entities are left untouched.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Summarize strips tags, collapses whitespace and truncates the result to
// SummaryLimit characters followed by an ellipsis.
func Summarize(s string) string {
	clean := strings.TrimSpace(whitespacePattern.ReplaceAllString(StripTags(s), " "))
	runes := []rune(clean)
	if len(runes) <= SummaryLimit {
		return clean
	}
	return string(runes[:SummaryLimit]) + ellipsis
}
