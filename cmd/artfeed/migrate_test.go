package main

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func runRoot(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("artfeed %v: %v", args, err)
	}
}

func tableExists(t *testing.T, path, name string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	var n int
	err = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		t.Fatalf("query schema: %v", err)
	}
	return n == 1
}

func TestMigrateUpDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "artfeed.db")

	runRoot(t, "migrate", "up", "--db", path)
	if !tableExists(t, path, "kv") {
		t.Fatal("kv table missing after migrate up")
	}
	if session.app != nil {
		t.Error("migrate must not open a session")
	}

	runRoot(t, "migrate", "version", "--db", path)

	runRoot(t, "migrate", "down", "--db", path)
	if tableExists(t, path, "kv") {
		t.Error("kv table still present after migrate down")
	}
}
