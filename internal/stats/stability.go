package stats

import (
	"math"
)

// Signal kinds reported by an XmR chart.
const (
	SignalOutlier = "outlier"
	SignalShift   = "shift"
)

// natural process limits sit this many average moving ranges from the mean
const xmrScale = 2.66

// a run of this many points on one side of the mean is a shift
const shiftRun = 8

// XmRResult is an Individuals and Moving Range chart over a series of
// durations (hours in status, business days in progress).
type XmRResult struct {
	Average     float64   `json:"average"`
	AmR         float64   `json:"average_moving_range"`
	UNPL        float64   `json:"upper_natural_process_limit"`
	LNPL        float64   `json:"lower_natural_process_limit"`
	Values      []float64 `json:"values"`
	MovingRange []float64 `json:"moving_ranges"`
	Signals     []Signal  `json:"signals"`
}

// Signal marks one point of the series that is not routine variation.
type Signal struct {
	Index       int    `json:"index"`
	Key         string `json:"key"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CalculateXmR builds the chart for an unlabelled series.
func CalculateXmR(values []float64) XmRResult {
	return CalculateXmRWithKeys(values, nil)
}

// CalculateXmRWithKeys builds the chart and labels each signal with the key
// at the same position (an issue key or a status name).
func CalculateXmRWithKeys(values []float64, keys []string) XmRResult {
	if len(values) == 0 {
		return XmRResult{}
	}

	avg := mean(values)
	ranges := movingRanges(values)
	amr := mean(ranges)

	r := XmRResult{
		Average:     avg,
		AmR:         amr,
		UNPL:        avg + xmrScale*amr,
		LNPL:        math.Max(0, avg-xmrScale*amr),
		Values:      values,
		MovingRange: ranges,
	}

	label := func(i int) string {
		if i < len(keys) {
			return keys[i]
		}
		return ""
	}
	r.Signals = append(r.limitSignals(label), r.shiftSignals(label)...)
	return r
}

// Outliers returns the outlier signals above the upper limit. Points below
// the lower limit are fast, not anomalous, for durations.
func (r XmRResult) Outliers() []Signal {
	var out []Signal
	for _, s := range r.Signals {
		if s.Type == SignalOutlier && s.Index < len(r.Values) && r.Values[s.Index] > r.UNPL {
			out = append(out, s)
		}
	}
	return out
}

func (r XmRResult) limitSignals(label func(int) string) []Signal {
	var signals []Signal
	for i, v := range r.Values {
		var desc string
		switch {
		case v > r.UNPL:
			desc = "Point above Upper Natural Process Limit (UNPL)"
		case v < r.LNPL:
			desc = "Point below Lower Natural Process Limit (LNPL)"
		default:
			continue
		}
		signals = append(signals, Signal{Index: i, Key: label(i), Type: SignalOutlier, Description: desc})
	}
	return signals
}

// shiftSignals reports the point completing each run of shiftRun values on
// the same side of the average. Points on the average break a run.
func (r XmRResult) shiftSignals(label func(int) string) []Signal {
	if len(r.Values) < shiftRun {
		return nil
	}

	var signals []Signal
	side, run := 0, 0
	for i, v := range r.Values {
		s := sideOf(v, r.Average)
		if s != 0 && s == side {
			run++
		} else {
			side, run = s, 1
		}
		if side != 0 && run == shiftRun {
			signals = append(signals, Signal{
				Index:       i,
				Key:         label(i),
				Type:        SignalShift,
				Description: "8 consecutive points on one side of the average (process shift)",
			})
		}
	}
	return signals
}

func sideOf(v, avg float64) int {
	switch {
	case v > avg:
		return 1
	case v < avg:
		return -1
	}
	return 0
}

func movingRanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	ranges := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		ranges[i-1] = math.Abs(values[i] - values[i-1])
	}
	return ranges
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
