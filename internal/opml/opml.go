// Package opml imports and exports feed sources as OPML documents.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

// OPML represents the root of an OPML document.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains OPML metadata.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outlines.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a single outline element (folder or feed).
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Entry is a feed outline flattened with its folder path.
type Entry struct {
	Folders []string
	Title   string
	FeedURL string
	PageURL string
}

// Parse reads an OPML document and returns its feeds in document order.
func Parse(r io.Reader) ([]Entry, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}
	var entries []Entry
	var walk func(outlines []Outline, path []string)
	walk = func(outlines []Outline, path []string) {
		for _, o := range outlines {
			switch {
			case o.XMLURL != "":
				title := o.Title
				if title == "" {
					title = o.Text
				}
				entries = append(entries, Entry{
					Folders: append([]string{}, path...),
					Title:   title,
					FeedURL: o.XMLURL,
					PageURL: o.HTMLURL,
				})
			case len(o.Outlines) > 0:
				name := o.Text
				if name == "" {
					name = o.Title
				}
				walk(o.Outlines, append(path[:len(path):len(path)], name))
			}
		}
	}
	walk(doc.Body.Outlines, nil)
	return entries, nil
}

// Export renders sources as an OPML document. A source's first tag becomes
// its folder; untagged sources sit at the root. Sources without a feed URL
// are skipped.
func Export(title string, sources []model.Source, now time.Time) ([]byte, error) {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       title,
			DateCreated: now.Format(time.RFC1123Z),
		},
	}

	folderIndex := make(map[string]int)
	for _, src := range sources {
		if src.FeedURL == "" {
			continue
		}
		feed := Outline{
			Text:    src.Name,
			Title:   src.Name,
			Type:    "rss",
			XMLURL:  src.FeedURL,
			HTMLURL: src.PageURL,
		}
		if len(src.Tags) == 0 {
			doc.Body.Outlines = append(doc.Body.Outlines, feed)
			continue
		}
		folder := src.Tags[0]
		if i, ok := folderIndex[folder]; ok {
			doc.Body.Outlines[i].Outlines = append(doc.Body.Outlines[i].Outlines, feed)
			continue
		}
		folderIndex[folder] = len(doc.Body.Outlines)
		doc.Body.Outlines = append(doc.Body.Outlines, Outline{
			Text:     folder,
			Title:    folder,
			Outlines: []Outline{feed},
		})
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode opml: %w", err)
	}
	return append([]byte(xml.Header), output...), nil
}
