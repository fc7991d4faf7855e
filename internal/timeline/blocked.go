package timeline

import (
	"time"
)

// DefaultReasonWindow is how far a comment may sit from a blocked period's
// start, in either direction, to explain it.
const DefaultReasonWindow = 24 * time.Hour

// RichCommentReason stands in for comments whose body is a structured document.
const RichCommentReason = "Found in comment (complex format)"

// BlockedPeriod is an interval spent in a blocking status. End is nil while
// the issue is still blocked. Reason is empty when nothing explains it.
type BlockedPeriod struct {
	Start  time.Time  `json:"startTime"`
	End    *time.Time `json:"endTime"`
	Reason string     `json:"reason,omitempty"`
}

// Comment is the part of an issue comment the reason correlation needs.
// Rich marks a structured body whose text is not available verbatim.
type Comment struct {
	Created time.Time
	Body    string
	Rich    bool
}

type blockedFold struct {
	open   *BlockedPeriod
	closed []BlockedPeriod
}

func (f blockedFold) step(t Transition, vocab Vocabulary) blockedFold {
	if t.ToStatus == "" {
		return f
	}
	blocked := vocab.IsBlocked(t.ToStatus)
	switch {
	case blocked && f.open == nil:
		f.open = &BlockedPeriod{Start: t.Timestamp}
	case !blocked && f.open != nil:
		end := t.Timestamp
		p := *f.open
		p.End = &end
		f.closed = append(f.closed, p)
		f.open = nil
	}
	return f
}

// ExtractBlockedPeriods emits one period per run of consecutive blocking
// statuses. A run that is still going at the end of the sequence is emitted
// with a nil End.
func ExtractBlockedPeriods(transitions []Transition, vocab Vocabulary) []BlockedPeriod {
	f := blockedFold{closed: []BlockedPeriod{}}
	for _, t := range transitions {
		f = f.step(t, vocab)
	}
	if f.open != nil {
		f.closed = append(f.closed, *f.open)
	}
	return f.closed
}

// AttachReasons returns a copy of periods where each period takes its reason
// from the first comment, in input order, created within window of the
// period's start (inclusive). Periods without a qualifying comment keep
// whatever reason they already had.
func AttachReasons(periods []BlockedPeriod, comments []Comment, window time.Duration, richReason string) []BlockedPeriod {
	out := make([]BlockedPeriod, len(periods))
	copy(out, periods)

	for i := range out {
		c, ok := firstCommentNear(out[i].Start, comments, window)
		if !ok {
			continue
		}
		if c.Rich {
			out[i].Reason = richReason
		} else {
			out[i].Reason = c.Body
		}
	}
	return out
}

func firstCommentNear(start time.Time, comments []Comment, window time.Duration) (Comment, bool) {
	if start.IsZero() {
		return Comment{}, false
	}
	for _, c := range comments {
		if c.Created.IsZero() {
			continue
		}
		d := c.Created.Sub(start)
		if d < 0 {
			d = -d
		}
		if d <= window {
			return c, true
		}
	}
	return Comment{}, false
}

// BlockedTime totals blocked business days and lists distinct reasons.
type BlockedTime struct {
	TotalDays int      `json:"totalDays"`
	Reasons   []string `json:"reasons"`
}

// SummarizeBlocked sums business days across periods, running open periods
// until now, and collects reasons deduplicated in first-seen order.
func SummarizeBlocked(periods []BlockedPeriod, now time.Time) BlockedTime {
	bt := BlockedTime{Reasons: []string{}}
	seen := make(map[string]bool)

	for _, p := range periods {
		end := now
		if p.End != nil {
			end = *p.End
		}
		bt.TotalDays += BusinessDays(p.Start, end)

		if p.Reason != "" && !seen[p.Reason] {
			seen[p.Reason] = true
			bt.Reasons = append(bt.Reasons, p.Reason)
		}
	}
	return bt
}
