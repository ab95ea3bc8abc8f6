package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/view"
)

var (
	flagSource string
	flagUnread bool
	flagSearch string
	flagTag    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := synced(cmd)
		if err != nil {
			return err
		}
		f := view.Filter{SourceID: flagSource, UnreadOnly: flagUnread, Search: flagSearch}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), c.Articles(f))
		}
		writeArticles(cmd.OutOrStdout(), c.Articles(f), time.Now())
		return nil
	},
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorite articles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := synced(cmd)
		if err != nil {
			return err
		}
		f := view.FavoriteFilter{
			Filter: view.Filter{SourceID: flagSource, UnreadOnly: flagUnread, Search: flagSearch},
			TagID:  flagTag,
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), c.Favorites(f))
		}
		writeArticles(cmd.OutOrStdout(), c.Favorites(f), time.Now())
		return nil
	},
}

func articleCmd(use, short, typ, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <article-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := do(cmd, command.Request{Type: typ, ID: args[0]}); err != nil || flagJSON {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s.\n", done, args[0])
			return nil
		},
	}
}

func init() {
	for _, c := range []*cobra.Command{listCmd, favoritesCmd} {
		c.Flags().StringVar(&flagSource, "source", view.All, "only show articles from this source id")
		c.Flags().BoolVar(&flagUnread, "unread", false, "only show unread articles")
		c.Flags().StringVarP(&flagSearch, "search", "s", "", "case-insensitive search text")
	}
	favoritesCmd.Flags().StringVar(&flagTag, "tag", view.All, "only show favorites with this tag id")

	rootCmd.AddCommand(
		listCmd,
		favoritesCmd,
		articleCmd("read", "Mark an article as read", command.TypeMarkRead, "Marked"),
		articleCmd("toggle-read", "Flip the read flag of an article", command.TypeToggleRead, "Toggled read on"),
		articleCmd("star", "Flip the favorite flag of an article", command.TypeToggleFavorite, "Toggled favorite on"),
	)
}
