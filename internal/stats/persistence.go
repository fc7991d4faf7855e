package stats

import (
	"cmp"
	"math"
	"slices"
)

// StatusPersistence summarises how many hours issues spend in one status.
type StatusPersistence struct {
	StatusName string  `json:"statusName"`
	Count      int     `json:"count"`
	Share      float64 `json:"share"`    // fraction of issues that visited this status
	P50        float64 `json:"coinToss"` // hours
	P85        float64 `json:"likely"`   // hours
	P95        float64 `json:"safeBet"`  // hours
	IQR        float64 `json:"iqr"`      // P75-P25
}

// CalculateStatusPersistence computes per-status hour percentiles across
// issues, each given as its hours-per-status map. Results are in status name
// order.
func CalculateStatusPersistence(perIssue []map[string]float64) []StatusPersistence {
	if len(perIssue) == 0 {
		return nil
	}

	durations := make(map[string][]float64)
	for _, hours := range perIssue {
		for status, h := range hours {
			durations[status] = append(durations[status], h)
		}
	}

	total := float64(len(perIssue))
	results := make([]StatusPersistence, 0, len(durations))
	for status, d := range durations {
		slices.Sort(d)
		n := len(d)
		results = append(results, StatusPersistence{
			StatusName: status,
			Count:      n,
			Share:      math.Round(float64(n)/total*1000) / 1000,
			P50:        round1(d[int(float64(n)*0.50)]),
			P85:        round1(d[int(float64(n)*0.85)]),
			P95:        round1(d[int(float64(n)*0.95)]),
			IQR:        round1(d[int(float64(n)*0.75)] - d[int(float64(n)*0.25)]),
		})
	}

	slices.SortFunc(results, func(a, b StatusPersistence) int {
		return cmp.Compare(a.StatusName, b.StatusName)
	})
	return results
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
