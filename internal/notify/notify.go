// Package notify renders unread badges and new-article notifications and
// delivers them to sinks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

const (
	// BadgeColor is the badge background color.
	BadgeColor = "#1E88E5"
	// MaxBadge caps the displayed unread count.
	MaxBadge = 999
)

// Badge is the rendered unread indicator.
type Badge struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// BadgeFor renders the badge for an unread count. Zero renders as empty text.
func BadgeFor(unread int) Badge {
	text := ""
	if unread > 0 {
		text = strconv.Itoa(min(unread, MaxBadge))
	}
	return Badge{Text: text, Color: BadgeColor}
}

// Notification is a user-visible message about new articles.
type Notification struct {
	Title   string
	Message string
}

// NewArticles renders the notification for added articles.
func NewArticles(added int, reason model.Reason, intervalHours float64) Notification {
	var lead string
	if reason == model.ReasonManual {
		lead = "Manual refresh finished"
	} else {
		if intervalHours <= 0 {
			intervalHours = model.DefaultSettings().UpdateIntervalHours
		}
		lead = fmt.Sprintf("Scheduled %s-hour update finished",
			strconv.FormatFloat(intervalHours, 'f', -1, 64))
	}
	return Notification{
		Title:   fmt.Sprintf("Art feed update (%d)", added),
		Message: fmt.Sprintf("%s, %d new article(s).", lead, added),
	}
}

// BadgeSetter displays the unread badge.
type BadgeSetter interface {
	SetBadge(ctx context.Context, b Badge) error
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers n to every notifier.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes badges and notifications to a logger.
type Log struct {
	log *slog.Logger
}

// NewLog creates a Log sink.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// SetBadge logs the badge.
func (l *Log) SetBadge(_ context.Context, b Badge) error {
	l.log.Debug("badge updated", "text", b.Text, "color", b.Color)
	return nil
}

// Notify logs the notification.
func (l *Log) Notify(_ context.Context, n Notification) error {
	l.log.Info("notification", "title", n.Title, "message", n.Message)
	return nil
}
