package parser

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/article"
)

type structured struct{}

// Structured returns the gofeed-backed strategy. A document with at least
// one item element is treated as RSS; otherwise its Atom entries are used.
// Items and entries nested under an unexpected root are lifted into a
// document of the matching format before parsing. Parsed dates from gofeed
// are carried through as Fields.Published.
func Structured() Strategy {
	return structured{}
}

func (structured) Name() string { return "structured" }

func (structured) Entries(raw string) ([]article.Fields, error) {
	rssFeed, rssErr := (&rss.Parser{}).Parse(strings.NewReader(raw))
	if rssErr == nil && len(rssFeed.Items) > 0 {
		return rssFields(rssFeed.Items), nil
	}
	if rssErr != nil {
		if doc, ok := liftElements(raw, "item", `<rss version="2.0"%s><channel>`, `</channel></rss>`); ok {
			if lifted, err := (&rss.Parser{}).Parse(strings.NewReader(doc)); err == nil && len(lifted.Items) > 0 {
				return rssFields(lifted.Items), nil
			}
		}
	}

	atomFeed, atomErr := (&atom.Parser{}).Parse(strings.NewReader(raw))
	if atomErr == nil {
		return atomFields(atomFeed.Entries), nil
	}
	if doc, ok := liftElements(raw, "entry", `<feed%s>`, `</feed>`); ok {
		if lifted, err := (&atom.Parser{}).Parse(strings.NewReader(doc)); err == nil {
			return atomFields(lifted.Entries), nil
		}
	}

	if rssErr == nil {
		return nil, nil
	}
	return nil, fmt.Errorf("parse feed: rss: %v; atom: %w", rssErr, atomErr)
}

func rssFields(items []*rss.Item) []article.Fields {
	fields := make([]article.Fields, 0, len(items))
	for _, item := range items {
		fields = append(fields, rssItemFields(item))
	}
	return fields
}

func atomFields(entries []*atom.Entry) []article.Fields {
	fields := make([]article.Fields, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, atomEntryFields(entry))
	}
	return fields
}

// liftElements copies every unprefixed element named name out of raw, in
// document order, into a new document built from opening and closing.
// The prefixed namespace declarations of the source root replace the %s
// in opening. It reports false when raw holds no such element.
func liftElements(raw, name, opening, closing string) (string, bool) {
	d := xml.NewDecoder(strings.NewReader(raw))
	d.Strict = false

	var (
		decls    strings.Builder
		rootSeen bool
		elements []string
		start    int64 = -1
		depth    int
	)
	for {
		offset := d.InputOffset()
		tok, err := d.RawToken()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !rootSeen {
				rootSeen = true
				for _, a := range t.Attr {
					if a.Name.Space != "xmlns" {
						continue
					}
					decls.WriteString(" xmlns:" + a.Name.Local + `="`)
					_ = xml.EscapeText(&decls, []byte(a.Value))
					decls.WriteString(`"`)
				}
			}
			if start < 0 && t.Name.Space == "" && strings.EqualFold(t.Name.Local, name) {
				start = offset
			}
			if start >= 0 {
				depth++
			}
		case xml.EndElement:
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				elements = append(elements, raw[start:d.InputOffset()])
				start = -1
			}
		}
	}
	if len(elements) == 0 {
		return "", false
	}
	return fmt.Sprintf(opening, decls.String()) + strings.Join(elements, "") + closing, true
}

func rssItemFields(item *rss.Item) article.Fields {
	var guid string
	if item.GUID != nil {
		guid = item.GUID.Value
	}
	var dcIdentifier, dcDate string
	if dc := item.DublinCoreExt; dc != nil {
		dcIdentifier = first(dc.Identifier)
		dcDate = first(dc.Date)
	}

	return article.Fields{
		Title: strings.TrimSpace(item.Title),
		Link: firstNonEmpty(
			item.Link,
			guid,
			dcIdentifier,
			extValue(item.Extensions, "dc", "identifier"),
		),
		Description: firstNonEmpty(
			item.Description,
			item.Content,
			extValue(item.Extensions, "content", "encoded"),
		),
		Published: utc(item.PubDateParsed),
		Date: firstNonEmpty(
			item.PubDate,
			dcDate,
			extValue(item.Extensions, "dcterms", "date"),
			anyExtValue(item.Extensions, "date"),
		),
	}
}

func atomEntryFields(entry *atom.Entry) article.Fields {
	var link string
	for _, l := range entry.Links {
		if l.Rel == "alternate" && strings.TrimSpace(l.Href) != "" {
			link = l.Href
			break
		}
	}
	if link == "" {
		for _, l := range entry.Links {
			if strings.TrimSpace(l.Href) != "" {
				link = l.Href
				break
			}
		}
	}

	var content string
	if entry.Content != nil {
		content = entry.Content.Value
	}

	published := utc(entry.UpdatedParsed)
	if published == nil {
		published = utc(entry.PublishedParsed)
	}

	return article.Fields{
		Title:       strings.TrimSpace(entry.Title),
		Link:        strings.TrimSpace(link),
		Description: firstNonEmpty(entry.Summary, content),
		Published:   published,
		Date: firstNonEmpty(
			entry.Updated,
			entry.Published,
			anyExtValue(entry.Extensions, "created"),
		),
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	return first(values)
}

func extValue(exts ext.Extensions, prefix, name string) string {
	if exts == nil {
		return ""
	}
	for _, e := range exts[prefix][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// anyExtValue looks name up under every namespace prefix, in prefix order.
func anyExtValue(exts ext.Extensions, name string) string {
	prefixes := make([]string, 0, len(exts))
	for prefix := range exts {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		if v := extValue(exts, prefix, name); v != "" {
			return v
		}
	}
	return ""
}
