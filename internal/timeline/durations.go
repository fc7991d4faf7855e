package timeline

import (
	"math"
	"time"
)

// HoursBetween returns end-start in hours rounded to one decimal. Zero
// timestamps and inverted ranges yield 0.
func HoursBetween(start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return 0
	}
	return round1(float64(end.Sub(start).Milliseconds()) / 3.6e6)
}

// BusinessDays counts Monday-Friday calendar days from the day of start to the
// day of end, both inclusive. Days are taken in start's location. Zero
// timestamps and inverted ranges yield 0.
func BusinessDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return 0
	}

	loc := start.Location()
	day := startOfDay(start, loc)
	last := startOfDay(end.In(loc), loc)

	count := 0
	for !day.After(last) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// HoursPerStatus sums period hours by status name. Distinct names are never
// merged, even when they share a category. Open periods run until now.
func HoursPerStatus(periods []Period, now time.Time) map[string]float64 {
	hours := make(map[string]float64)
	for _, p := range periods {
		hours[p.Status] = round1(hours[p.Status] + HoursBetween(p.Start, p.EndOr(now)))
	}
	return hours
}

// CycleTime spans the first entry into an in-progress status and the last
// entry into a done status.
type CycleTime struct {
	Days            *int       `json:"inProgressDays"`
	FirstInProgress *time.Time `json:"firstInProgress"`
	LastDone        *time.Time `json:"lastDone"`
}

// MeasureCycleTime computes the in-progress cycle time. Days is nil unless
// both endpoints exist; it is a business-day count otherwise.
func MeasureCycleTime(transitions []Transition) CycleTime {
	var ct CycleTime

	for i := range transitions {
		if transitions[i].ToCategory == InProgress {
			ts := transitions[i].Timestamp
			ct.FirstInProgress = &ts
			break
		}
	}
	for i := len(transitions) - 1; i >= 0; i-- {
		if transitions[i].ToCategory == Done {
			ts := transitions[i].Timestamp
			ct.LastDone = &ts
			break
		}
	}

	if ct.FirstInProgress != nil && ct.LastDone != nil {
		days := BusinessDays(*ct.FirstInProgress, *ct.LastDone)
		ct.Days = &days
	}
	return ct
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
