package timeline

import "time"

// Period is a contiguous interval during which the issue held one status.
// End is nil for the current, still-open period.
type Period struct {
	Status   string     `json:"status"`
	Category Category   `json:"category"`
	Start    time.Time  `json:"startTime"`
	End      *time.Time `json:"endTime"`
}

// IsOpen reports whether the period is still running.
func (p Period) IsOpen() bool {
	return p.End == nil
}

// EndOr returns the period end, or now when the period is open.
func (p Period) EndOr(now time.Time) time.Time {
	if p.End == nil {
		return now
	}
	return *p.End
}

// BuildPeriods turns an ordered transition sequence into status occupancy
// periods. Time spent in an empty (unknown) status produces no period, and
// separate visits to the same status stay separate entries.
func BuildPeriods(transitions []Transition) []Period {
	if len(transitions) == 0 {
		return []Period{}
	}

	periods := make([]Period, 0, len(transitions))
	cur := transitions[0]

	for _, t := range transitions[1:] {
		if cur.ToStatus != "" {
			end := t.Timestamp
			periods = append(periods, Period{
				Status:   cur.ToStatus,
				Category: cur.ToCategory,
				Start:    cur.Timestamp,
				End:      &end,
			})
		}
		cur = t
	}

	if cur.ToStatus != "" {
		periods = append(periods, Period{
			Status:   cur.ToStatus,
			Category: cur.ToCategory,
			Start:    cur.Timestamp,
		})
	}
	return periods
}
