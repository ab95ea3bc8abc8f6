package storage

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteGetSet(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.Set(ctx, map[string][]byte{
		"a": []byte(`[1]`),
		"b": []byte(`{"x":true}`),
	}); err != nil {
		t.Fatalf("set: %v", err)
	}

	tests := []struct {
		name string
		keys []string
		want map[string][]byte
	}{
		{
			name: "single key",
			keys: []string{"a"},
			want: map[string][]byte{"a": []byte(`[1]`)},
		},
		{
			name: "missing key is absent",
			keys: []string{"a", "missing"},
			want: map[string][]byte{"a": []byte(`[1]`)},
		},
		{
			name: "no keys returns all",
			keys: nil,
			want: map[string][]byte{"a": []byte(`[1]`), "b": []byte(`{"x":true}`)},
		},
		{
			name: "only missing",
			keys: []string{"nope"},
			want: map[string][]byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Get(ctx, tt.keys...)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSQLiteSetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.Set(ctx, map[string][]byte{"k": []byte("1")}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, map[string][]byte{"k": []byte("2")}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff("2", string(got["k"])); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteSetEmptyIsNoop(t *testing.T) {
	s := newTestDB(t)
	if err := s.Set(context.Background(), nil); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestSQLiteSetCancelledContext(t *testing.T) {
	s := newTestDB(t)
	if err := s.Set(context.Background(), map[string][]byte{"k": []byte("old")}); err != nil {
		t.Fatalf("set: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, map[string][]byte{"k": []byte("new"), "j": []byte("x")}); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	got, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(map[string][]byte{"k": []byte("old")}, got); diff != "" {
		t.Errorf("state changed after failed set (-want +got):\n%s", diff)
	}
}

func TestSQLiteReplace(t *testing.T) {
	old := map[string][]byte{"a": []byte("1"), "b": []byte("2")}

	tests := []struct {
		name    string
		values  map[string][]byte
		cancel  bool
		wantErr bool
		want    map[string][]byte
	}{
		{
			name:   "drops keys not written",
			values: map[string][]byte{"b": []byte("3"), "c": []byte("4")},
			want:   map[string][]byte{"b": []byte("3"), "c": []byte("4")},
		},
		{
			name:   "empty values clear the store",
			values: map[string][]byte{},
			want:   map[string][]byte{},
		},
		{
			name:    "failed replace keeps old records",
			values:  map[string][]byte{"c": []byte("4")},
			cancel:  true,
			wantErr: true,
			want:    old,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestDB(t)
			if err := s.Set(context.Background(), old); err != nil {
				t.Fatalf("set: %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}
			err := s.Replace(ctx, tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Replace() error = %v, wantErr %v", err, tt.wantErr)
			}

			got, err := s.Get(context.Background())
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Get() after replace mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
