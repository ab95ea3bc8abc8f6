package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/model"
)

var (
	flagSourceName string
	flagSourceFeed string
	flagSourcePage string
	flagSourceTags []string
	flagOutput     string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List and manage feed sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := synced(cmd)
		if err != nil {
			return err
		}
		sources := c.Snapshot().Sources
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), sources)
		}
		writeSources(cmd.OutOrStdout(), sources)
		return nil
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a source by feed URL or by page URL with feed discovery",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagSourceFeed == "" && flagSourcePage == "" {
			return fmt.Errorf("one of --feed or --page is required")
		}
		p, err := payload(command.AddSourcePayload{
			Name:    flagSourceName,
			FeedURL: flagSourceFeed,
			PageURL: flagSourcePage,
			Tags:    flagSourceTags,
		})
		if err != nil {
			return err
		}
		res, err := do(cmd, command.Request{Type: command.TypeAddSource, Payload: p})
		if err != nil || flagJSON {
			return err
		}
		sources := res.(*command.SourcesResult).Sources
		added := sources[len(sources)-1]
		if added.FeedURL == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s, but no feed was found on %s.\n", added.ID, added.PageURL)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s).\n", added.ID, added.FeedURL)
		return nil
	},
}

func setEnabledCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <source-id>",
		Short: use + " a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := payload(model.SourcePatch{Enabled: &enabled})
			if err != nil {
				return err
			}
			if _, err := do(cmd, command.Request{Type: command.TypeUpdateSource, ID: args[0], Payload: p}); err != nil || flagJSON {
				return err
			}
			writeSources(cmd.OutOrStdout(), session.cache.Snapshot().Sources)
			return nil
		},
	}
}

var sourcesUpdateCmd = &cobra.Command{
	Use:   "update <source-id>",
	Short: "Change a source's name, URLs or tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch model.SourcePatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			patch.Name = &flagSourceName
		}
		if flags.Changed("feed") {
			patch.FeedURL = &flagSourceFeed
		}
		if flags.Changed("page") {
			patch.PageURL = &flagSourcePage
		}
		if flags.Changed("tag") {
			patch.Tags = &flagSourceTags
		}
		p, err := payload(patch)
		if err != nil {
			return err
		}
		if _, err := do(cmd, command.Request{Type: command.TypeUpdateSource, ID: args[0], Payload: p}); err != nil || flagJSON {
			return err
		}
		writeSources(cmd.OutOrStdout(), session.cache.Snapshot().Sources)
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove <source-id>",
	Short: "Remove a source, keeping its articles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := do(cmd, command.Request{Type: command.TypeRemoveSource, ID: args[0]}); err != nil || flagJSON {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", args[0])
		return nil
	},
}

var sourcesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the sources as OPML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := session.cache.Do(cmd.Context(), command.Request{Type: command.TypeExportSources})
		if err != nil {
			return err
		}
		doc := res.(*command.ExportResult).OPML
		if flagOutput == "" || flagOutput == "-" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
			return err
		}
		if err := os.WriteFile(flagOutput, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", flagOutput, err)
		}
		return nil
	},
}

var sourcesImportCmd = &cobra.Command{
	Use:   "import <file.opml>",
	Short: "Add the feeds listed in an OPML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		p, err := payload(command.ImportSourcesPayload{OPML: string(data)})
		if err != nil {
			return err
		}
		res, err := do(cmd, command.Request{Type: command.TypeImportSources, Payload: p})
		if err != nil || flagJSON {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s new source(s).\n", count(res.(*command.ImportResult).Added))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sourcesAddCmd, sourcesUpdateCmd} {
		c.Flags().StringVar(&flagSourceName, "name", "", "display name")
		c.Flags().StringVar(&flagSourceFeed, "feed", "", "RSS or Atom feed URL")
		c.Flags().StringVar(&flagSourcePage, "page", "", "website URL")
		c.Flags().StringSliceVar(&flagSourceTags, "tag", nil, "source tag (repeatable)")
	}
	sourcesExportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (default stdout)")

	sourcesCmd.AddCommand(
		sourcesAddCmd,
		sourcesUpdateCmd,
		sourcesRemoveCmd,
		setEnabledCmd("enable", true),
		setEnabledCmd("disable", false),
		sourcesExportCmd,
		sourcesImportCmd,
	)
	rootCmd.AddCommand(sourcesCmd)
}
