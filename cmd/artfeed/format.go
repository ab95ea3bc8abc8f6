package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

const maxTitleRunes = 72

func count(n int) string {
	return humanize.Comma(int64(n))
}

// ago renders an epoch-millisecond timestamp relative to now.
func ago(ms int64, now time.Time) string {
	if ms <= 0 {
		return "unknown"
	}
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func marker(a model.Article) string {
	var b strings.Builder
	if a.IsRead {
		b.WriteByte(' ')
	} else {
		b.WriteByte('*')
	}
	if a.IsFavorite {
		b.WriteByte('+')
	} else {
		b.WriteByte(' ')
	}
	return b.String()
}

func writeArticles(w io.Writer, articles []model.Article, now time.Time) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles.")
		return
	}
	for _, a := range articles {
		fmt.Fprintf(w, "%s %s  %s\n", marker(a), a.ID, truncate(a.Title, maxTitleRunes))
		fmt.Fprintf(w, "     %s, %s", a.SourceName, ago(a.PublishedAt, now))
		if len(a.Tags) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(a.Tags, ", "))
		}
		fmt.Fprintln(w)
	}
}

func writeSources(w io.Writer, sources []model.Source) {
	if len(sources) == 0 {
		fmt.Fprintln(w, "No sources.")
		return
	}
	for _, s := range sources {
		state := "on "
		if !s.Enabled {
			state = "off"
		}
		feed := s.FeedURL
		if feed == "" {
			feed = "(no feed)"
		}
		fmt.Fprintf(w, "%s %-20s %s  %s\n", state, s.ID, s.Name, feed)
	}
}

func writeTags(w io.Writer, tags []model.Tag, now time.Time) {
	if len(tags) == 0 {
		fmt.Fprintln(w, "No tags.")
		return
	}
	for _, t := range tags {
		fmt.Fprintf(w, "%-20s %s (created %s)\n", t.ID, t.Name, ago(t.CreatedAt, now))
	}
}

func writeSettings(w io.Writer, s model.Settings) {
	fmt.Fprintf(w, "update interval:  %sh\n", humanize.Ftoa(s.UpdateIntervalHours))
	fmt.Fprintf(w, "notifications:    %t\n", s.NotificationsEnabled)
	fmt.Fprintf(w, "unread badge:     %t\n", s.UnreadBadge)
	fmt.Fprintf(w, "open in new tab:  %t\n", s.OpenInNewTab)
}

func writeSummary(w io.Writer, st command.StateResult) {
	writeSummaryAt(w, st, time.Now())
}

func writeSummaryAt(w io.Writer, st command.StateResult, now time.Time) {
	fav := 0
	for _, a := range st.Articles {
		if a.IsFavorite {
			fav++
		}
	}
	last := "never"
	if st.LastFetchedAt != nil {
		last = ago(*st.LastFetchedAt, now)
	}
	fmt.Fprintf(w, "articles:   %s (%s unread, %s favorites)\n", count(len(st.Articles)), count(st.UnreadCount), count(fav))
	fmt.Fprintf(w, "sources:    %s\n", count(len(st.Sources)))
	fmt.Fprintf(w, "tags:       %s\n", count(len(st.Tags)))
	fmt.Fprintf(w, "last fetch: %s\n", last)
}
