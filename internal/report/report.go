// Package report prints assessments as terminal tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"jira-assess/internal/assess"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	titleColor   = color.New(color.Bold)
	anomalyColor = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen)
	mutedColor   = color.New(color.FgHiBlack)
)

const maxReasonWidth = 60

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintAssessment prints one issue's assessment: a metric table, a per-status
// table and the anomaly list.
func PrintAssessment(w io.Writer, key string, a assess.DurationAssessment) error {
	titleColor.Fprintf(w, "Duration assessment %s\n", key)

	metrics := tablewriter.NewWriter(w)
	metrics.Header([]string{"Metric", "Value"})
	rows := [][]string{
		{"In-progress days", intOrDash(a.InProgressDays)},
		{"First in progress", timeOrDash(a.StatusTransitions.FirstInProgress)},
		{"Last done", timeOrDash(a.StatusTransitions.LastDone)},
		{"Exceeds sprint", strconv.FormatBool(a.ExceedsSprint)},
		{"Sprint reassignments", strconv.Itoa(a.SprintReassignments)},
		{"Points per day", floatOrDash(a.PointToDurationRatio)},
		{"Status revisits", strconv.Itoa(a.StatusCycling.TotalRevisits)},
		{"Blocked days", strconv.Itoa(a.BlockedTime.TotalDays)},
	}
	for _, reason := range a.BlockedTime.Reasons {
		rows = append(rows, []string{"Blocked reason", truncate(reason, maxReasonWidth)})
	}
	if err := metrics.Bulk(rows); err != nil {
		return err
	}
	if err := metrics.Render(); err != nil {
		return err
	}

	if len(a.StatusTransitions.AverageTimeInStatus) > 0 {
		if err := printStatusTable(w, a); err != nil {
			return err
		}
	}

	if len(a.Anomalies) == 0 {
		okColor.Fprintln(w, "No anomalies")
		return nil
	}
	for _, an := range a.Anomalies {
		anomalyColor.Fprintf(w, "! %s\n", an)
	}
	return nil
}

func printStatusTable(w io.Writer, a assess.DurationAssessment) error {
	hours := a.StatusTransitions.AverageTimeInStatus
	names := make([]string, 0, len(hours))
	for name := range hours {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Status", "Hours", "Revisits"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, name := range names {
		data = append(data, []string{
			name,
			strconv.FormatFloat(hours[name], 'f', 1, 64),
			strconv.Itoa(a.StatusCycling.Count[name]),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintBatch prints one row per issue followed by the batch summary.
func PrintBatch(w io.Writer, results []assess.Result, s assess.Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Issue", "In-Progress Days", "Exceeds Sprint", "Revisits", "Blocked Days", "Anomalies"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range results {
		if r.Err != nil {
			data = append(data, []string{r.Key, "-", "-", "-", "-", anomalyColor.Sprint("error: " + r.Err.Error())})
			continue
		}
		d := r.Duration
		anomalies := okColor.Sprint("0")
		if n := len(d.Anomalies); n > 0 {
			anomalies = anomalyColor.Sprint(strconv.Itoa(n))
		}
		data = append(data, []string{
			r.Key,
			intOrDash(d.InProgressDays),
			strconv.FormatBool(d.ExceedsSprint),
			strconv.Itoa(d.StatusCycling.TotalRevisits),
			strconv.Itoa(d.BlockedTime.TotalDays),
			anomalies,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Assessed %d issues (%d failed, %d with cycle time)\n", s.Issues, s.Failed, s.Completed)
	fmt.Fprintf(w, "Median in-progress days: %.1f\n", s.MedianInProgressDays)
	fmt.Fprintf(w, "Total revisits: %d, total blocked days: %d, exceeding sprint: %d, with anomalies: %d\n",
		s.TotalRevisits, s.TotalBlockedDays, s.ExceedingSprint, s.WithAnomalies)
	if len(s.StatusPersistence) > 0 {
		if err := printPersistence(w, s); err != nil {
			return err
		}
	}
	if len(s.InProgressOutlierKeys) > 0 {
		anomalyColor.Fprintf(w, "In-progress outliers: %s\n", strings.Join(s.InProgressOutlierKeys, ", "))
	} else {
		mutedColor.Fprintln(w, "No in-progress outliers")
	}
	return nil
}

func printPersistence(w io.Writer, s assess.Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Status", "Issues", "Share", "P50 h", "P85 h", "P95 h"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, p := range s.StatusPersistence {
		data = append(data, []string{
			p.StatusName,
			strconv.Itoa(p.Count),
			fmt.Sprintf("%.0f%%", p.Share*100),
			strconv.FormatFloat(p.P50, 'f', 1, 64),
			strconv.FormatFloat(p.P85, 'f', 1, 64),
			strconv.FormatFloat(p.P95, 'f', 1, 64),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func timeOrDash(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
