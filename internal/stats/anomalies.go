package stats

import (
	"fmt"
	"sort"
	"time"
)

// Thresholds controls when a metric is reported as anomalous.
type Thresholds struct {
	MaxInProgressDays      int     `yaml:"max_in_progress_days" json:"max_in_progress_days"`
	MaxSprintReassignments int     `yaml:"max_sprint_reassignments" json:"max_sprint_reassignments"`
	CyclingRevisits        int     `yaml:"cycling_revisits" json:"cycling_revisits"`
	MaxBlockedDays         int     `yaml:"max_blocked_days" json:"max_blocked_days"`
	MinPointsPerDay        float64 `yaml:"min_points_per_day" json:"min_points_per_day"`
	MaxPointsPerDay        float64 `yaml:"max_points_per_day" json:"max_points_per_day"`
	MinStatusesForOutliers int     `yaml:"min_statuses_for_outliers" json:"min_statuses_for_outliers"`
}

// DefaultThresholds returns the stock anomaly thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxInProgressDays:      10,
		MaxSprintReassignments: 1,
		CyclingRevisits:        2,
		MaxBlockedDays:         3,
		MinPointsPerDay:        0.2,
		MaxPointsPerDay:        3,
		MinStatusesForOutliers: 4,
	}
}

// DurationMetrics is the slice of an assessment the anomaly rules look at.
type DurationMetrics struct {
	InProgressDays      *int
	FirstInProgress     *time.Time
	LastDone            *time.Time
	SprintReassignments int
	TotalRevisits       int
	BlockedDays         int
	PointsPerDay        *float64
	HoursPerStatus      map[string]float64
}

// DetectAnomalies returns human-readable flags for every metric outside its
// threshold. The result is never nil.
func DetectAnomalies(m DurationMetrics, th Thresholds) []string {
	anomalies := []string{}

	if m.InProgressDays != nil && *m.InProgressDays > th.MaxInProgressDays {
		anomalies = append(anomalies, fmt.Sprintf("Extended in-progress duration: %d business days", *m.InProgressDays))
	}
	if m.SprintReassignments > th.MaxSprintReassignments {
		anomalies = append(anomalies, fmt.Sprintf("Reassigned across sprints %d times", m.SprintReassignments))
	}
	if th.CyclingRevisits > 0 && m.TotalRevisits >= th.CyclingRevisits {
		anomalies = append(anomalies, fmt.Sprintf("Status cycling detected: %d revisits", m.TotalRevisits))
	}
	if m.BlockedDays > th.MaxBlockedDays {
		anomalies = append(anomalies, fmt.Sprintf("Blocked for %d business days", m.BlockedDays))
	}
	if m.PointsPerDay != nil {
		switch r := *m.PointsPerDay; {
		case r < th.MinPointsPerDay:
			anomalies = append(anomalies, fmt.Sprintf("Low delivery rate: %.2f points per day", r))
		case th.MaxPointsPerDay > 0 && r > th.MaxPointsPerDay:
			anomalies = append(anomalies, fmt.Sprintf("High delivery rate: %.2f points per day", r))
		}
	}
	anomalies = append(anomalies, statusOutliers(m.HoursPerStatus, th.MinStatusesForOutliers)...)

	if m.LastDone != nil && m.FirstInProgress == nil {
		anomalies = append(anomalies, "Completed without entering an in-progress status")
	}
	return anomalies
}

// statusOutliers runs an XmR chart over the per-status hours, visiting
// statuses in name order, and flags points above the upper limit.
func statusOutliers(hours map[string]float64, minStatuses int) []string {
	if len(hours) == 0 || len(hours) < minStatuses {
		return nil
	}

	keys := make([]string, 0, len(hours))
	for k := range hours {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = hours[k]
	}

	xmr := CalculateXmRWithKeys(values, keys)
	var out []string
	for _, s := range xmr.Outliers() {
		out = append(out, fmt.Sprintf("Outlier time in status %q: %.1fh (limit %.1fh)", s.Key, values[s.Index], xmr.UNPL))
	}
	return out
}
