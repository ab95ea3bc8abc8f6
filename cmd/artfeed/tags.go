package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List and manage article tags",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := synced(cmd)
		if err != nil {
			return err
		}
		tags := c.Snapshot().Tags
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), tags)
		}
		writeTags(cmd.OutOrStdout(), tags, time.Now())
		return nil
	},
}

var tagsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := do(cmd, command.Request{Type: command.TypeCreateTag, Name: args[0]}); err != nil || flagJSON {
			return err
		}
		writeTags(cmd.OutOrStdout(), session.cache.Snapshot().Tags, time.Now())
		return nil
	},
}

var tagsRenameCmd = &cobra.Command{
	Use:   "rename <tag-id> <name>",
	Short: "Rename a tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := do(cmd, command.Request{Type: command.TypeRenameTag, ID: args[0], Name: args[1]}); err != nil || flagJSON {
			return err
		}
		writeTags(cmd.OutOrStdout(), session.cache.Snapshot().Tags, time.Now())
		return nil
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <tag-id>",
	Short: "Delete a tag and remove it from every article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := do(cmd, command.Request{Type: command.TypeDeleteTag, ID: args[0]}); err != nil || flagJSON {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag <article-id> <tag-id>",
	Short: "Add or remove a tag on an article",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := command.Request{Type: command.TypeToggleArticleTag, ArticleID: args[0], TagID: args[1]}
		if _, err := do(cmd, req); err != nil || flagJSON {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Toggled %s on %s.\n", args[1], args[0])
		return nil
	},
}

func init() {
	tagsCmd.AddCommand(tagsCreateCmd, tagsRenameCmd, tagsDeleteCmd)
	rootCmd.AddCommand(tagsCmd, tagCmd)
}
