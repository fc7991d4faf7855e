package commands

import (
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var fetchOpts struct {
	source string
	open   bool
	format string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch KEY...",
	Short: "Fetch issues from Jira, archive them and print their assessments",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(fetchOpts.format, formatTable, formatJSON, formatMermaid); err != nil {
			return err
		}
		provider, client, err := newProvider()
		if err != nil {
			return err
		}
		if err := provider.Open(fetchOpts.source); err != nil {
			log.Warn().Err(err).Str("source", fetchOpts.source).Msg("Failed to load archive")
		}

		records, err := provider.Fetch(cmd.Context(), fetchOpts.source, args...)
		if err != nil {
			return err
		}

		assessor := newAssessor(nil)
		for _, r := range records {
			in := r.Input()
			an, err := assessor.Analyze(in.Issue, in.Comments)
			if err != nil {
				return err
			}
			if err := writeAnalysis(cmd.OutOrStdout(), r.Key, an, fetchOpts.format); err != nil {
				return err
			}
			if fetchOpts.open {
				if err := browser.OpenURL(client.BrowseURL(r.Key)); err != nil {
					log.Warn().Err(err).Str("issue", r.Key).Msg("Failed to open browser")
				}
			}
		}
		return nil
	},
}

func init() {
	f := fetchCmd.Flags()
	f.StringVar(&fetchOpts.source, "source", "adhoc", "archive partition to store the issues in")
	f.BoolVar(&fetchOpts.open, "open", false, "open each issue in the browser")
	f.StringVarP(&fetchOpts.format, "format", "f", formatTable, "output format: table, json or mermaid")
	rootCmd.AddCommand(fetchCmd)
}
