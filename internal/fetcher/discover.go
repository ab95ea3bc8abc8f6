package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoFeed is returned when a page advertises no feed link.
var ErrNoFeed = errors.New("no feed link found")

var feedLinkSelectors = []string{
	`link[rel~="alternate"][type="application/rss+xml"]`,
	`link[rel~="alternate"][type="application/atom+xml"]`,
	`link[type="application/rss+xml"]`,
	`link[type="application/atom+xml"]`,
}

// Discover downloads the HTML page at pageURL and returns the absolute URL
// of the first advertised RSS or Atom feed.
func (f *Fetcher) Discover(ctx context.Context, pageURL string) (string, error) {
	body, err := f.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return FindFeedLink(body, pageURL)
}

// FindFeedLink scans an HTML document for a feed <link> and resolves it
// against base.
func FindFeedLink(html []byte, base string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range feedLinkSelectors {
		href, ok := doc.Find(sel).First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			continue
		}
		return resolve(base, href)
	}
	return "", ErrNoFeed
}

func resolve(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse feed href: %w", err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	return b.ResolveReference(ref).String(), nil
}
