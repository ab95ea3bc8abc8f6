package storage

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Repository reads and writes the typed state records through a KeyValueStore.
type Repository struct {
	kv   KeyValueStore
	seed []model.Source
}

// NewRepository creates a Repository. A nil seed uses the built-in sources.
func NewRepository(kv KeyValueStore, seed []model.Source) *Repository {
	if seed == nil {
		seed = model.DefaultSources()
	}
	return &Repository{kv: kv, seed: seed}
}

// Load returns the full persisted state. Missing records fall back to
// their defaults; settings are merged over the default settings.
func (r *Repository) Load(ctx context.Context) (model.State, error) {
	raw, err := r.kv.Get(ctx, AllKeys...)
	if err != nil {
		return model.State{}, fmt.Errorf("load state: %w", err)
	}
	return r.decodeState(raw)
}

// Articles returns the stored articles.
func (r *Repository) Articles(ctx context.Context) ([]model.Article, error) {
	raw, err := r.kv.Get(ctx, KeyArticles)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	return decodeArticles(raw[KeyArticles])
}

// Settings returns the stored settings merged over the defaults.
func (r *Repository) Settings(ctx context.Context) (model.Settings, error) {
	raw, err := r.kv.Get(ctx, KeySettings)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return decodeSettings(raw[KeySettings])
}

// EnsureDefaults writes the default value of every missing record and
// returns the keys it seeded. Present records are left untouched.
func (r *Repository) EnsureDefaults(ctx context.Context) ([]string, error) {
	raw, err := r.kv.Get(ctx, KeyArticles, KeySources, KeySettings, KeyTags)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	defaults, err := r.defaults()
	if err != nil {
		return nil, err
	}

	updates := make(map[string][]byte)
	var seeded []string
	for _, key := range []string{KeySources, KeySettings, KeyArticles, KeyTags} {
		if _, ok := raw[key]; ok {
			continue
		}
		updates[key] = defaults[key]
		seeded = append(seeded, key)
	}
	if err := r.kv.Set(ctx, updates); err != nil {
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	return seeded, nil
}

// Reset clears every record and writes the defaults.
func (r *Repository) Reset(ctx context.Context) error {
	defaults, err := r.defaults()
	if err != nil {
		return err
	}
	if err := r.kv.Replace(ctx, defaults); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	return nil
}

// SaveArticles persists the article list.
func (r *Repository) SaveArticles(ctx context.Context, articles []model.Article) error {
	return r.save(ctx, "save articles", map[string]any{KeyArticles: nonNil(articles)})
}

// SaveSources persists the source list.
func (r *Repository) SaveSources(ctx context.Context, sources []model.Source) error {
	return r.save(ctx, "save sources", map[string]any{KeySources: nonNil(sources)})
}

// SaveSettings persists the settings record.
func (r *Repository) SaveSettings(ctx context.Context, settings model.Settings) error {
	return r.save(ctx, "save settings", map[string]any{KeySettings: settings})
}

// SaveTags persists the tag list.
func (r *Repository) SaveTags(ctx context.Context, tags []model.Tag) error {
	return r.save(ctx, "save tags", map[string]any{KeyTags: nonNil(tags)})
}

// SaveArticlesAndTags persists both lists in one transaction.
func (r *Repository) SaveArticlesAndTags(ctx context.Context, articles []model.Article, tags []model.Tag) error {
	return r.save(ctx, "save articles and tags", map[string]any{
		KeyArticles: nonNil(articles),
		KeyTags:     nonNil(tags),
	})
}

// SaveIngestion persists the merged articles and the fetch timestamp in
// one transaction.
func (r *Repository) SaveIngestion(ctx context.Context, articles []model.Article, fetchedAt int64) error {
	return r.save(ctx, "save ingestion", map[string]any{
		KeyArticles:      nonNil(articles),
		KeyLastFetchedAt: fetchedAt,
	})
}

func (r *Repository) save(ctx context.Context, op string, records map[string]any) error {
	values := make(map[string][]byte, len(records))
	for key, v := range records {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%s: encode %s: %w", op, key, err)
		}
		values[key] = data
	}
	if err := r.kv.Set(ctx, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repository) defaults() (map[string][]byte, error) {
	records := map[string]any{
		KeySources:  r.seed,
		KeySettings: model.DefaultSettings(),
		KeyArticles: []model.Article{},
		KeyTags:     []model.Tag{},
	}
	out := make(map[string][]byte, len(records))
	for key, v := range records {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode default %s: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}

func (r *Repository) decodeState(raw map[string][]byte) (model.State, error) {
	var st model.State
	var err error
	if st.Articles, err = decodeArticles(raw[KeyArticles]); err != nil {
		return st, err
	}
	if st.Sources, err = r.decodeSources(raw[KeySources]); err != nil {
		return st, err
	}
	if st.Settings, err = decodeSettings(raw[KeySettings]); err != nil {
		return st, err
	}
	if st.Tags, err = decodeTags(raw[KeyTags]); err != nil {
		return st, err
	}
	if st.LastFetchedAt, err = decodeTimestamp(raw[KeyLastFetchedAt]); err != nil {
		return st, err
	}
	return st, nil
}

func (r *Repository) decodeSources(data []byte) ([]model.Source, error) {
	if data == nil {
		return append([]model.Source{}, r.seed...), nil
	}
	var sources []model.Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeySources, err)
	}
	for i := range sources {
		if sources[i].Tags == nil {
			sources[i].Tags = []string{}
		}
	}
	return nonNil(sources), nil
}

func decodeArticles(data []byte) ([]model.Article, error) {
	var articles []model.Article
	if data != nil {
		if err := json.Unmarshal(data, &articles); err != nil {
			return nil, fmt.Errorf("decode %s: %w", KeyArticles, err)
		}
	}
	for i := range articles {
		if articles[i].Tags == nil {
			articles[i].Tags = []string{}
		}
	}
	return nonNil(articles), nil
}

func decodeSettings(data []byte) (model.Settings, error) {
	settings := model.DefaultSettings()
	if data == nil {
		return settings, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.DefaultSettings(), fmt.Errorf("decode %s: %w", KeySettings, err)
	}
	return settings, nil
}

func decodeTags(data []byte) ([]model.Tag, error) {
	var tags []model.Tag
	if data != nil {
		if err := json.Unmarshal(data, &tags); err != nil {
			return nil, fmt.Errorf("decode %s: %w", KeyTags, err)
		}
	}
	return nonNil(tags), nil
}

func decodeTimestamp(data []byte) (*int64, error) {
	if data == nil {
		return nil, nil
	}
	var ts *int64
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyLastFetchedAt, err)
	}
	return ts, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
