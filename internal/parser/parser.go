// Package parser turns raw feed documents into normalized articles.
//
// Two strategies sit behind Parser.Parse: a structured one built on the
// gofeed RSS and Atom parsers, and a regular-expression fallback that copes
// with markup no XML parser accepts. The fallback runs when the structured
// strategy is unavailable or rejects the document.
package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/article"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

// Strategy extracts raw entry fields from a feed document.
type Strategy interface {
	Name() string
	Entries(raw string) ([]article.Fields, error)
}

// Parser selects a strategy and builds articles from its entries.
type Parser struct {
	structured Strategy
	fallback   Strategy
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithoutStructured disables the structured strategy, leaving only the
// regex fallback.
func WithoutStructured() Option {
	return func(p *Parser) { p.structured = nil }
}

// WithClock overrides the clock used for missing publication dates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New creates a Parser with both strategies enabled.
func New(log *slog.Logger, opts ...Option) *Parser {
	p := &Parser{
		structured: Structured(),
		fallback:   Regex(),
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HasStructured reports whether a structured XML strategy is available.
func (p *Parser) HasStructured() bool {
	return p.structured != nil
}

// Parse extracts the articles of raw for src. It never fails: unparseable
// input yields an empty or partial result.
func (p *Parser) Parse(raw string, src model.Source) []model.Article {
	entries := p.entries(raw, src)
	now := p.now()

	articles := make([]model.Article, 0, len(entries))
	for _, f := range entries {
		if strings.TrimSpace(f.Title) == "" && strings.TrimSpace(f.Link) == "" {
			continue
		}
		a, ok := article.Build(f, src, now)
		if !ok {
			continue
		}
		articles = append(articles, a)
	}
	return articles
}

func (p *Parser) entries(raw string, src model.Source) []article.Fields {
	if p.HasStructured() {
		fields, err := p.structured.Entries(raw)
		if err == nil {
			return fields
		}
		p.log.Debug("structured parse failed, using fallback",
			"source_id", src.ID, "strategy", p.fallback.Name(), "error", err)
	}
	fields, err := p.fallback.Entries(raw)
	if err != nil {
		p.log.Warn("fallback parse failed", "source_id", src.ID, "error", err)
		return nil
	}
	return fields
}
