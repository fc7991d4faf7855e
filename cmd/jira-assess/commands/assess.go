package commands

import (
	"errors"
	"fmt"
	"io"

	"jira-assess/internal/assess"
	"jira-assess/internal/report"
	"jira-assess/internal/timeline"
	"jira-assess/internal/visuals"

	"github.com/spf13/cobra"
)

var assessOpts struct {
	issueFile    string
	commentsFile string
	now          string
	format       string
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess an issue exported as JSON",
	Example: `  jira-assess assess --issue PROJ-1.json --comments PROJ-1-comments.json
  jira-assess assess --issue PROJ-1.json --now 2024-03-01T00:00:00Z --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if assessOpts.issueFile == "" {
			return errors.New("--issue is required")
		}
		if err := checkFormat(assessOpts.format, formatTable, formatJSON, formatMermaid); err != nil {
			return err
		}
		now, err := parseNow(assessOpts.now)
		if err != nil {
			return err
		}

		dto, err := readIssueFile(assessOpts.issueFile, cfg.Jira.Fields)
		if err != nil {
			return err
		}
		comments, err := readCommentsFile(assessOpts.commentsFile)
		if err != nil {
			return err
		}

		var clock timeline.Clock
		if !now.IsZero() {
			clock = timeline.FixedClock(now)
		}
		an, err := newAssessor(clock).Analyze(assess.IssueFromDTO(dto), comments)
		if err != nil {
			return err
		}
		return writeAnalysis(cmd.OutOrStdout(), dto.Key, an, assessOpts.format)
	},
}

func writeAnalysis(w io.Writer, key string, an assess.Analysis, format string) error {
	switch format {
	case formatJSON:
		return report.WriteJSON(w, an.Assessment)
	case formatMermaid:
		for _, chart := range []string{
			visuals.GenerateTimelineGantt(key, an.Periods, an.BlockedPeriods, an.Now),
			visuals.GenerateStatusHoursChart(an.Assessment.StatusTransitions.AverageTimeInStatus),
			visuals.GenerateCyclingPie(an.Assessment.StatusCycling),
		} {
			if chart != "" {
				fmt.Fprintf(w, "%s\n\n", chart)
			}
		}
		return nil
	default:
		return report.PrintAssessment(w, key, an.Assessment)
	}
}

func init() {
	f := assessCmd.Flags()
	f.StringVar(&assessOpts.issueFile, "issue", "", "issue JSON file (Jira REST format, with expand=changelog)")
	f.StringVar(&assessOpts.commentsFile, "comments", "", "comments JSON file (Jira comment list response)")
	f.StringVar(&assessOpts.now, "now", "", "reference time for open periods, RFC3339 (default: current time)")
	f.StringVarP(&assessOpts.format, "format", "f", formatTable, "output format: table, json or mermaid")
	rootCmd.AddCommand(assessCmd)
}
