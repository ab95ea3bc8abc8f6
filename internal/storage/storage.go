// Package storage defines the key-value persistence capability, its SQLite
// implementation and a typed repository over the persisted state records.
package storage

import (
	"context"
)

// Record keys. Each names one independently written record.
const (
	KeyArticles      = "articles"
	KeySources       = "rssSources"
	KeySettings      = "settings"
	KeyLastFetchedAt = "lastFetchedAt"
	KeyTags          = "articleTags"
)

// AllKeys lists every record key in load order.
var AllKeys = []string{KeyArticles, KeySources, KeySettings, KeyLastFetchedAt, KeyTags}

// KeyValueStore persists named blobs.
type KeyValueStore interface {
	// Get returns the stored values for keys. Missing keys are absent from
	// the result. With no keys it returns every record.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Set writes every value in one transaction.
	Set(ctx context.Context, values map[string][]byte) error
	// Replace swaps every record for values in one transaction.
	Replace(ctx context.Context, values map[string][]byte) error
	Close() error
}
