package commands

import (
	"fmt"

	"jira-assess/internal/archive"
	"jira-assess/internal/assess"
	"jira-assess/internal/report"
	"jira-assess/internal/stats"
	"jira-assess/internal/visuals"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var batchOpts struct {
	source     string
	jql        string
	maxResults int
	workers    int
	format     string
}

// BatchOutput is the JSON shape of the batch command.
type BatchOutput struct {
	Results []assess.Result `json:"results"`
	Errors  []BatchError    `json:"errors"`
	Summary assess.Summary  `json:"summary"`
}

// BatchError names an issue that could not be assessed.
type BatchError struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Assess many issues concurrently and summarise them",
	Long: `Assess every issue archived under --source, or, with --jql, fetch the matching
issues from Jira first. Prints one row per issue and a batch summary with
the in-progress outliers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(batchOpts.format, formatTable, formatJSON, formatMermaid); err != nil {
			return err
		}
		inputs, err := loadBatchInputs(cmd)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no issues archived under source %q", batchOpts.source)
		}

		workers := batchOpts.workers
		if workers <= 0 {
			workers = cfg.BatchWorkers
		}
		results, err := assess.Batch(cmd.Context(), newAssessor(nil), inputs, workers)
		if err != nil {
			return err
		}
		summary := assess.Summarize(results)

		w := cmd.OutOrStdout()
		switch batchOpts.format {
		case formatJSON:
			out := BatchOutput{Results: []assess.Result{}, Errors: []BatchError{}, Summary: summary}
			for _, r := range results {
				if r.Err != nil {
					out.Errors = append(out.Errors, BatchError{Key: r.Key, Error: r.Err.Error()})
					continue
				}
				out.Results = append(out.Results, r)
			}
			return report.WriteJSON(w, out)
		case formatMermaid:
			values, keys := inProgressSeries(results)
			chart := visuals.GenerateXmRChart(stats.CalculateXmRWithKeys(values, keys), keys)
			if chart == "" {
				return fmt.Errorf("no issue in the batch has an in-progress duration")
			}
			_, err := fmt.Fprintln(w, chart)
			return err
		default:
			return report.PrintBatch(w, results, summary)
		}
	},
}

func loadBatchInputs(cmd *cobra.Command) ([]assess.Input, error) {
	if batchOpts.jql != "" {
		provider, _, err := newProvider()
		if err != nil {
			return nil, err
		}
		records, err := provider.Search(cmd.Context(), batchOpts.source, batchOpts.jql, batchOpts.maxResults)
		if err != nil {
			return nil, err
		}
		inputs := make([]assess.Input, 0, len(records))
		for _, r := range records {
			inputs = append(inputs, r.Input())
		}
		return inputs, nil
	}

	store := archive.NewStore()
	if err := store.Load(cfg.CacheDir, batchOpts.source); err != nil {
		return nil, err
	}
	records := store.Records(batchOpts.source)
	log.Info().Str("source", batchOpts.source).Int("count", len(records)).Msg("Assessing archived issues")

	inputs := make([]assess.Input, 0, len(records))
	for _, r := range records {
		inputs = append(inputs, r.Input())
	}
	return inputs, nil
}

func inProgressSeries(results []assess.Result) ([]float64, []string) {
	var values []float64
	var keys []string
	for _, r := range results {
		if r.Err == nil && r.Duration.InProgressDays != nil {
			values = append(values, float64(*r.Duration.InProgressDays))
			keys = append(keys, r.Key)
		}
	}
	return values, keys
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.source, "source", "adhoc", "archive partition to read (and, with --jql, to write)")
	f.StringVar(&batchOpts.jql, "jql", "", "fetch issues matching this JQL from Jira before assessing")
	f.IntVar(&batchOpts.maxResults, "max", 200, "maximum number of issues to fetch with --jql (0 for no limit)")
	f.IntVarP(&batchOpts.workers, "workers", "w", 0, "concurrent assessments (default BATCH_WORKERS)")
	f.StringVarP(&batchOpts.format, "format", "f", formatTable, "output format: table, json or mermaid")
	rootCmd.AddCommand(batchCmd)
}
