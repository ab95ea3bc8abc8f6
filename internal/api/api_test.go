package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/ingest"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubIngester struct {
	summary ingest.Summary
}

func (s stubIngester) Run(context.Context, model.Reason) (ingest.Summary, error) {
	return s.summary, nil
}

type brokenStore struct {
	command.Store
}

func (brokenStore) Load(context.Context) (model.State, error) {
	return model.State{}, io.ErrUnexpectedEOF
}

func newTestServer(t *testing.T) (*Server, *storage.Repository) {
	t.Helper()
	db, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := storage.NewRepository(db, []model.Source{
		{ID: "colossal", Name: "Colossal", FeedURL: "https://www.colossal.com/feed/", Enabled: true, Tags: []string{"art"}},
	})
	ctx := context.Background()
	if _, err := repo.EnsureDefaults(ctx); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}
	if err := repo.SaveArticles(ctx, []model.Article{
		{ID: "a-1", Title: "Ink Landscapes", SourceID: "colossal", SourceName: "Colossal", PublishedAt: 100, Tags: []string{}},
		{ID: "a-2", Title: "Paper Cuts", SourceID: "colossal", SourceName: "Colossal", PublishedAt: 200, IsRead: true, IsFavorite: true, Tags: []string{}},
	}); err != nil {
		t.Fatalf("save articles: %v", err)
	}

	svc := command.New(repo, stubIngester{summary: ingest.Summary{Added: 3, Total: 5, Unread: 4, LastFetchedAt: 77}}, discard,
		command.WithClock(func() time.Time { return time.UnixMilli(1000) }))
	return New(svc, discard), repo
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCommandEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "create tag",
			body:       `{"type":"createTag","name":"Ink"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"ok":true,"tags":[{"id":"ink","name":"Ink","createdAt":1000}]}`,
		},
		{
			name:       "validation error",
			body:       `{"type":"createTag","name":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"create tag: invalid request: name must not be empty"}`,
		},
		{
			name:       "unknown command",
			body:       `{"type":"nope"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid request: unknown command \"nope\""}`,
		},
		{
			name:       "malformed body",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid request body"}`,
		},
		{
			name:       "refresh summary",
			body:       `{"type":"refresh"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"ok":true,"added":3,"total":5,"unread":4,"lastFetchedAt":77}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rec := do(t, srv, http.MethodPost, "/api/command", tt.body)

			if diff := cmp.Diff(tt.wantStatus, rec.Code); diff != "" {
				t.Errorf("status mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantBody, strings.TrimSpace(rec.Body.String())); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff("application/json", rec.Header().Get("Content-Type")); diff != "" {
				t.Errorf("content type mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[map[string]any](t, rec)
	for _, key := range []string{"articles", "sources", "settings", "tags", "lastFetchedAt", "unreadCount"} {
		if _, ok := got[key]; !ok {
			t.Errorf("state missing key %q", key)
		}
	}
	if got["lastFetchedAt"] != nil {
		t.Errorf("expected null lastFetchedAt, got %v", got["lastFetchedAt"])
	}
	if diff := cmp.Diff(float64(1), got["unreadCount"]); diff != "" {
		t.Errorf("unreadCount mismatch (-want +got):\n%s", diff)
	}
}

func TestListEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{name: "all articles", target: "/api/articles", want: []string{"a-2", "a-1"}},
		{name: "unread only", target: "/api/articles?unread=true", want: []string{"a-1"}},
		{name: "search", target: "/api/articles?q=paper", want: []string{"a-2"}},
		{name: "other source", target: "/api/articles?source=core77", want: []string{}},
		{name: "favorites", target: "/api/favorites", want: []string{"a-2"}},
		{name: "favorites unread", target: "/api/favorites?unread=1", want: []string{}},
		{name: "favorites by tag", target: "/api/favorites?tag=missing", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rec := do(t, srv, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
			}
			res := decode[command.ListResult](t, rec)
			ids := []string{}
			for _, a := range res.Articles {
				ids = append(ids, a.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOPMLEndpoints(t *testing.T) {
	srv, repo := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/sources.opml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/x-opml") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `xmlUrl="https://www.colossal.com/feed/"`) {
		t.Errorf("export missing source:\n%s", rec.Body.String())
	}

	doc := `<opml version="2.0"><body><outline text="Core77" xmlUrl="https://www.core77.com/rss"/></body></opml>`
	rec = do(t, srv, http.MethodPost, "/api/sources.opml", doc)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status %d: %s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff(1, decode[command.ImportResult](t, rec).Added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	st, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(2, len(st.Sources)); diff != "" {
		t.Errorf("source count mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodPost, "/api/sources.opml", "<opml")
	if diff := cmp.Diff(http.StatusBadRequest, rec.Code); diff != "" {
		t.Errorf("bad opml status mismatch (-want +got):\n%s", diff)
	}
}

func TestStorageErrorIs500(t *testing.T) {
	svc := command.New(brokenStore{}, stubIngester{}, discard)
	srv := New(svc, discard)

	rec := do(t, srv, http.MethodGet, "/api/state", "")
	if diff := cmp.Diff(http.StatusInternalServerError, rec.Code); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("expected error body, got %s", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	if diff := cmp.Diff("ok", rec.Body.String()); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}
