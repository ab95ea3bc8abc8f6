package article

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
)

// ParseDate converts a feed date to Unix milliseconds. Empty or unparseable
// values fall back to now, so such articles sort as just published.
//
// The value is read with gofeed's feed date parser, which is only exposed
// through RSS pubDate parsing, so it is wrapped in a one-item document.
func ParseDate(value string, now time.Time) int64 {
	if t, ok := parseFeedDate(value); ok {
		return t.UnixMilli()
	}
	return now.UnixMilli()
}

func parseFeedDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	var b strings.Builder
	b.WriteString(`<rss version="2.0"><channel><item><pubDate>`)
	if err := xml.EscapeText(&b, []byte(value)); err != nil {
		return time.Time{}, false
	}
	b.WriteString(`</pubDate></item></channel></rss>`)

	feed, err := (&rss.Parser{}).Parse(strings.NewReader(b.String()))
	if err != nil || len(feed.Items) == 0 || feed.Items[0].PubDateParsed == nil {
		return time.Time{}, false
	}
	return *feed.Items[0].PubDateParsed, true
}
