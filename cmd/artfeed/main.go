package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/app"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/client"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	flagJSON    bool
	flagVerbose bool
)

// session is opened before every subcommand and closed after it.
var session struct {
	app   *app.App
	cache *client.Cache
}

var rootCmd = &cobra.Command{
	Use:           "artfeed",
	Short:         "Art and design feed reader",
	Long:          "artfeed aggregates art and design RSS/Atom feeds into a local library with favorites, tags and read state.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return openSession(cmd.Context())
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeSession()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print raw command responses as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log ingestion progress to stderr")

	rootCmd.AddCommand(stateCmd, refreshCmd, clearCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		_ = closeSession()
		os.Exit(1)
	}
}

func openSession(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var w io.Writer = io.Discard
	level := slog.LevelWarn
	if flagVerbose || strings.EqualFold(cfg.LogLevel, "debug") {
		w = os.Stderr
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := a.Bootstrap(ctx); err != nil {
		_ = a.Close()
		return err
	}
	session.app = a
	session.cache = client.New(a.Service)
	return nil
}

// synced returns the cache, loading the full state on first use. Write
// commands skip it and rely on the records their responses carry.
func synced(cmd *cobra.Command) (*client.Cache, error) {
	if !session.cache.Loaded() {
		if err := session.cache.Sync(cmd.Context()); err != nil {
			return nil, err
		}
	}
	return session.cache, nil
}

func closeSession() error {
	if session.app == nil {
		return nil
	}
	err := session.app.Close()
	session.app = nil
	return err
}

// do dispatches req through the cache and prints the response when --json is set.
func do(cmd *cobra.Command, req command.Request) (any, error) {
	res, err := session.cache.Do(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	if flagJSON {
		return res, printJSON(cmd.OutOrStdout(), res)
	}
	return res, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func payload(v any) (jsoniter.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show library statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := synced(cmd)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), c.Snapshot())
		}
		writeSummary(cmd.OutOrStdout(), c.Snapshot())
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every enabled source now",
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := do(cmd, command.Request{Type: command.TypeRefresh})
		if err != nil || flagJSON {
			return err
		}
		r := res.(*command.RefreshResult)
		fmt.Fprintf(cmd.OutOrStdout(), "%s new, %s total, %s unread.\n",
			count(r.Added), count(r.Total), count(r.Unread))
		return nil
	},
}

var flagClearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all data to defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !flagClearYes {
			return fmt.Errorf("clear erases articles, sources, tags and settings; rerun with --yes")
		}
		if _, err := do(cmd, command.Request{Type: command.TypeClearData}); err != nil || flagJSON {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All data reset to defaults.")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&flagClearYes, "yes", false, "confirm the reset")
}
