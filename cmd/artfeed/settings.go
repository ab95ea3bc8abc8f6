package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
)

var (
	flagInterval      float64
	flagNotifications bool
	flagBadge         bool
	flagNewTab        bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := synced(cmd)
		if err != nil {
			return err
		}
		s := c.Snapshot().Settings
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), s)
		}
		writeSettings(cmd.OutOrStdout(), s)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update one or more settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		patch := map[string]any{}
		flags := cmd.Flags()
		if flags.Changed("interval") {
			patch["updateIntervalHours"] = flagInterval
		}
		if flags.Changed("notifications") {
			patch["notificationsEnabled"] = flagNotifications
		}
		if flags.Changed("badge") {
			patch["unreadBadge"] = flagBadge
		}
		if flags.Changed("new-tab") {
			patch["openInNewTab"] = flagNewTab
		}
		if len(patch) == 0 {
			return fmt.Errorf("no settings given")
		}
		p, err := payload(patch)
		if err != nil {
			return err
		}
		res, err := do(cmd, command.Request{Type: command.TypeUpdateSettings, Payload: p})
		if err != nil || flagJSON {
			return err
		}
		writeSettings(cmd.OutOrStdout(), res.(*command.SettingsResult).Settings)
		return nil
	},
}

func init() {
	f := settingsSetCmd.Flags()
	f.Float64Var(&flagInterval, "interval", 2, "update interval in hours")
	f.BoolVar(&flagNotifications, "notifications", true, "notify about new articles")
	f.BoolVar(&flagBadge, "badge", true, "maintain the unread badge")
	f.BoolVar(&flagNewTab, "new-tab", true, "open articles in a new tab")

	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
