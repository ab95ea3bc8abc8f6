package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/config"
	"github.com/Leonardo1519/ancient-chinese-art-rss/migrations"
)

var flagMigrateDB string

// migrateCmd works on the schema directly, so it skips opening a session.
var migrateCmd = &cobra.Command{
	Use:                "migrate",
	Short:              "Manage the database schema",
	PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
	PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
}

func migrateAction(use, short string, run func(db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			db, err := openSchemaDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := migrations.Setup(); err != nil {
				return err
			}
			if err := run(db); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			return nil
		},
	}
}

func openSchemaDB() (*sql.DB, error) {
	path := flagMigrateDB
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.DatabasePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return db, nil
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&flagMigrateDB, "db", "", "database path (default DATABASE_PATH or "+config.DefaultDatabasePath()+")")

	migrateCmd.AddCommand(
		migrateAction("up", "Migrate to the latest version", func(db *sql.DB) error { return goose.Up(db, ".") }),
		migrateAction("down", "Roll back one version", func(db *sql.DB) error { return goose.Down(db, ".") }),
		migrateAction("status", "Show migration status", func(db *sql.DB) error { return goose.Status(db, ".") }),
		migrateAction("version", "Show current version", func(db *sql.DB) error { return goose.Version(db, ".") }),
	)
	rootCmd.AddCommand(migrateCmd)
}
