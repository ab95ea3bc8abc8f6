package parser

import (
	"html"
	"regexp"
	"strings"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/article"
)

var (
	itemBlockPattern  = regexp.MustCompile(`(?is)<item\b.*?</item>`)
	entryBlockPattern = regexp.MustCompile(`(?is)<entry\b.*?</entry>`)
	cdataPattern      = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	linkTagPattern    = regexp.MustCompile(`(?i)<link\b[^>]*>`)
	hrefAttrPattern   = regexp.MustCompile(`(?i)\bhref\s*=\s*["']([^"']+)["']`)
	relAttrPattern    = regexp.MustCompile(`(?i)\brel\s*=\s*["']([^"']*)["']`)
)

var fieldPatterns = compileFieldPatterns(
	"title", "link", "guid", "dc:identifier",
	"description", "content:encoded",
	"pubDate", "dc:date", "dcterms:date", "date",
	"summary", "content", "updated", "published", "dcterms:created", "created",
)

func compileFieldPatterns(tags ...string) map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(tags))
	for _, tag := range tags {
		q := regexp.QuoteMeta(tag)
		m[tag] = regexp.MustCompile(`(?is)<` + q + `(?:\s[^>]*)?>(.*?)</` + q + `\s*>`)
	}
	return m
}

type regexStrategy struct{}

// Regex returns the fallback strategy. It scans for item blocks first and
// entry blocks second, and tolerates partial or malformed markup.
func Regex() Strategy {
	return regexStrategy{}
}

func (regexStrategy) Name() string { return "regex" }

func (regexStrategy) Entries(raw string) ([]article.Fields, error) {
	if blocks := itemBlockPattern.FindAllString(raw, -1); len(blocks) > 0 {
		fields := make([]article.Fields, 0, len(blocks))
		for _, block := range blocks {
			fields = append(fields, article.Fields{
				Title:       extractText(block, "title"),
				Link:        firstNonEmpty(extractText(block, "link"), extractText(block, "guid"), extractText(block, "dc:identifier")),
				Description: firstNonEmpty(extractText(block, "description"), extractText(block, "content:encoded")),
				Date: firstNonEmpty(
					extractText(block, "pubDate"),
					extractText(block, "dc:date"),
					extractText(block, "dcterms:date"),
					extractText(block, "date"),
				),
			})
		}
		return fields, nil
	}

	blocks := entryBlockPattern.FindAllString(raw, -1)
	fields := make([]article.Fields, 0, len(blocks))
	for _, block := range blocks {
		fields = append(fields, article.Fields{
			Title:       extractText(block, "title"),
			Link:        firstNonEmpty(extractLinkHref(block), extractText(block, "link")),
			Description: firstNonEmpty(extractText(block, "summary"), extractText(block, "content")),
			Date: firstNonEmpty(
				extractText(block, "updated"),
				extractText(block, "published"),
				extractText(block, "dcterms:created"),
				extractText(block, "created"),
			),
		})
	}
	return fields, nil
}

// extractText returns the text of the first tag element in block, or "".
func extractText(block, tag string) string {
	re, ok := fieldPatterns[tag]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return xmlText(m[1])
}

// xmlText unwraps CDATA sections verbatim and decodes entities elsewhere.
func xmlText(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range cdataPattern.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(html.UnescapeString(article.StripTags(s[last:m[0]])))
		b.WriteString(s[m[2]:m[3]])
		last = m[1]
	}
	b.WriteString(html.UnescapeString(article.StripTags(s[last:])))
	return strings.TrimSpace(b.String())
}

// extractLinkHref prefers the href of a rel="alternate" link, then any
// link with an href.
func extractLinkHref(block string) string {
	var fallback string
	for _, tag := range linkTagPattern.FindAllString(block, -1) {
		href := hrefAttrPattern.FindStringSubmatch(tag)
		if href == nil {
			continue
		}
		value := html.UnescapeString(strings.TrimSpace(href[1]))
		rel := relAttrPattern.FindStringSubmatch(tag)
		if rel != nil && strings.EqualFold(strings.TrimSpace(rel[1]), "alternate") {
			return value
		}
		if fallback == "" {
			fallback = value
		}
	}
	return fallback
}
