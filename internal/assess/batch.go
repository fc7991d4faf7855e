package assess

import (
	"context"

	"jira-assess/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Input pairs an issue with its comments for batch assessment.
type Input struct {
	Key      string
	Issue    *Issue
	Comments *Comments
}

// Result is the outcome for one Input. Err is set when that issue alone
// could not be assessed.
type Result struct {
	Key      string             `json:"key"`
	Analysis Analysis           `json:"-"`
	Duration DurationAssessment `json:"assessment"`
	Err      error              `json:"-"`
}

// Batch assesses inputs with at most workers concurrent assessments and
// returns results in input order. A failing input does not stop the others;
// only context cancellation aborts the batch.
func Batch(ctx context.Context, a *Assessor, inputs []Input, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			an, err := a.Analyze(in.Issue, in.Comments)
			results[i] = Result{Key: in.Key, Analysis: an, Duration: an.Assessment, Err: err}
			if err != nil {
				log.Warn().Err(err).Str("issue", in.Key).Msg("Skipping issue in batch")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary aggregates a batch from the per-issue outputs only.
type Summary struct {
	Issues                int      `json:"issues"`
	Failed                int      `json:"failed"`
	Completed             int      `json:"completed"`
	MedianInProgressDays  float64  `json:"medianInProgressDays"`
	TotalRevisits         int      `json:"totalRevisits"`
	TotalBlockedDays      int      `json:"totalBlockedDays"`
	ExceedingSprint       int      `json:"exceedingSprint"`
	WithAnomalies         int      `json:"withAnomalies"`
	InProgressOutlierKeys []string `json:"inProgressOutlierKeys"`

	StatusPersistence []stats.StatusPersistence `json:"statusPersistence"`
}

// Summarize aggregates results. Issues without a cycle time are excluded from
// the median and from the outlier chart.
func Summarize(results []Result) Summary {
	s := Summary{Issues: len(results), InProgressOutlierKeys: []string{}}

	var days []int
	var values []float64
	var keys []string
	var hours []map[string]float64
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		d := r.Duration
		hours = append(hours, d.StatusTransitions.AverageTimeInStatus)
		s.TotalRevisits += d.StatusCycling.TotalRevisits
		s.TotalBlockedDays += d.BlockedTime.TotalDays
		if d.ExceedsSprint {
			s.ExceedingSprint++
		}
		if len(d.Anomalies) > 0 {
			s.WithAnomalies++
		}
		if d.InProgressDays != nil {
			s.Completed++
			days = append(days, *d.InProgressDays)
			values = append(values, float64(*d.InProgressDays))
			keys = append(keys, r.Key)
		}
	}

	s.MedianInProgressDays = stats.CalculateMedianDiscrete(days)
	s.StatusPersistence = stats.CalculateStatusPersistence(hours)
	if len(values) > 1 {
		for _, sig := range stats.CalculateXmRWithKeys(values, keys).Outliers() {
			s.InProgressOutlierKeys = append(s.InProgressOutlierKeys, sig.Key)
		}
	}
	return s
}
