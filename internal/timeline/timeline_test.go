package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jan returns a UTC timestamp in January 2022 (Jan 1 2022 is a Saturday).
func jan(day, hour int) time.Time {
	return time.Date(2022, time.January, day, hour, 0, 0, 0, time.UTC)
}

func statusRecord(ts time.Time, from, to string) ChangeRecord {
	return ChangeRecord{Created: ts, Items: []ChangeItem{{Field: "status", From: from, To: to}}}
}

func walk(vocab Vocabulary, steps ...any) []Transition {
	// steps alternate status, timestamp
	var out []Transition
	prev := ""
	for i := 0; i+1 < len(steps); i += 2 {
		to := steps[i].(string)
		ts := steps[i+1].(time.Time)
		out = append(out, Transition{
			FromStatus:   prev,
			ToStatus:     to,
			FromCategory: vocab.Classify(prev),
			ToCategory:   vocab.Classify(to),
			Timestamp:    ts,
		})
		prev = to
	}
	return out
}

func TestClassify(t *testing.T) {
	vocab := DefaultVocabulary()
	tests := []struct {
		name     string
		status   string
		expected Category
	}{
		{"Empty", "", Unknown},
		{"Done", "Done", Done},
		{"Completed", "Completed", Done},
		{"Resolved", "RESOLVED", Done},
		{"InProgress", "In Progress", InProgress},
		{"Review", "Code Review", InProgress},
		{"Dev", "In Dev", InProgress},
		{"ToDo", "To Do", New},
		{"Backlog", "Backlog", New},
		{"Open", "Open", New},
		{"DoneWinsOverReview", "Review Done", Done},
		{"Unmatched", "Blocked", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, vocab.Classify(tt.status))
		})
	}
}

func TestIsBlocked(t *testing.T) {
	vocab := DefaultVocabulary()
	for _, s := range []string{"Blocked", "On Hold", "Waiting for Customer", "Pending Approval", "Impediment"} {
		assert.True(t, vocab.IsBlocked(s), s)
	}
	for _, s := range []string{"", "In Progress", "Done"} {
		assert.False(t, vocab.IsBlocked(s), s)
	}
}

func TestCategoryMarshalText(t *testing.T) {
	b, err := InProgress.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "in-progress", string(b))

	b, err = Unknown.MarshalText()
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestExtractTransitions_Empty(t *testing.T) {
	assert.Empty(t, ExtractTransitions(nil, DefaultVocabulary()))
	assert.NotNil(t, ExtractTransitions(nil, DefaultVocabulary()))
}

func TestExtractTransitions_SortsUnorderedHistory(t *testing.T) {
	history := []ChangeRecord{
		statusRecord(jan(10, 9), "In Progress", "Review"),
		statusRecord(jan(1, 9), "", "To Do"),
		{Created: jan(3, 9), Items: []ChangeItem{{Field: "assignee", From: "a", To: "b"}}},
		statusRecord(jan(5, 9), "To Do", "In Progress"),
	}

	got := ExtractTransitions(history, DefaultVocabulary())

	require.Len(t, got, 3)
	assert.Equal(t, "To Do", got[0].ToStatus)
	assert.Equal(t, "In Progress", got[1].ToStatus)
	assert.Equal(t, "Review", got[2].ToStatus)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp), "transitions must be non-decreasing")
	}

	assert.Equal(t, InProgress, got[1].ToCategory)
	assert.Equal(t, New, got[1].FromCategory)

	// the caller's slice is untouched
	assert.Equal(t, jan(10, 9), history[0].Created)
}

func TestExtractTransitions_StableTies(t *testing.T) {
	history := []ChangeRecord{
		statusRecord(jan(4, 9), "A", "B"),
		statusRecord(jan(3, 9), "", "A"),
		statusRecord(jan(4, 9), "B", "C"),
		{Created: jan(5, 9), Items: []ChangeItem{
			{Field: "Status", From: "C", To: "D"},
			{Field: "status", From: "D", To: "E"},
		}},
	}

	got := ExtractTransitions(history, DefaultVocabulary())

	var names []string
	for _, tr := range got {
		names = append(names, tr.ToStatus)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
}

func TestBuildPeriods(t *testing.T) {
	vocab := DefaultVocabulary()

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, BuildPeriods(nil))
	})

	t.Run("ContiguousAndOpenEnded", func(t *testing.T) {
		tr := walk(vocab, "To Do", jan(1, 0), "In Progress", jan(5, 0), "Review", jan(10, 0), "In Progress", jan(11, 0))
		periods := BuildPeriods(tr)

		require.Len(t, periods, 4)
		for i := 0; i < len(periods)-1; i++ {
			require.NotNil(t, periods[i].End)
			assert.Equal(t, periods[i+1].Start, *periods[i].End, "periods must be contiguous")
		}
		assert.Equal(t, tr[0].Timestamp, periods[0].Start)
		assert.True(t, periods[3].IsOpen())
		assert.Equal(t, "In Progress", periods[1].Status)
		assert.Equal(t, "In Progress", periods[3].Status, "revisits stay separate periods")
		assert.Equal(t, InProgress, periods[1].Category)
	})

	t.Run("UnknownStatusSkipped", func(t *testing.T) {
		tr := []Transition{
			{ToStatus: "", Timestamp: jan(1, 0)},
			{ToStatus: "In Progress", ToCategory: InProgress, Timestamp: jan(2, 0)},
			{ToStatus: "", Timestamp: jan(3, 0)},
		}
		periods := BuildPeriods(tr)

		require.Len(t, periods, 1)
		assert.Equal(t, "In Progress", periods[0].Status)
		assert.Equal(t, jan(3, 0), *periods[0].End)
		assert.LessOrEqual(t, len(periods), len(tr))
	})
}

func TestBusinessDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{"SameWeekday", jan(3, 9), jan(3, 17), 1},
		{"SameSaturday", jan(1, 9), jan(1, 10), 0},
		{"FullWeek", jan(3, 0), jan(9, 0), 5},
		{"AcrossWeekend", jan(5, 12), jan(15, 8), 8},
		{"Inverted", jan(10, 0), jan(3, 0), 0},
		{"ZeroStart", time.Time{}, jan(3, 0), 0},
		{"ZeroEnd", jan(3, 0), time.Time{}, 0},
		{"InclusiveOfLateEnd", jan(3, 23), jan(4, 1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BusinessDays(tt.start, tt.end)
			assert.Equal(t, tt.expected, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestHoursBetween(t *testing.T) {
	assert.Equal(t, 24.0, HoursBetween(jan(3, 0), jan(4, 0)))
	assert.Equal(t, 1.5, HoursBetween(jan(3, 0), jan(3, 0).Add(90*time.Minute)))
	assert.Equal(t, 0.1, HoursBetween(jan(3, 0), jan(3, 0).Add(5*time.Minute)))
	assert.Equal(t, 0.0, HoursBetween(jan(4, 0), jan(3, 0)))
	assert.Equal(t, 0.0, HoursBetween(time.Time{}, jan(3, 0)))
}

func TestHoursPerStatus(t *testing.T) {
	vocab := DefaultVocabulary()
	now := jan(16, 0)

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, map[string]float64{}, HoursPerStatus(nil, now))
	})

	t.Run("SumsByNameNotCategory", func(t *testing.T) {
		tr := walk(vocab,
			"In Progress", jan(3, 0),
			"Review", jan(3, 10),
			"In Progress", jan(3, 12),
			"In Dev", jan(3, 15),
			"Done", jan(4, 0),
		)
		hours := HoursPerStatus(BuildPeriods(tr), now)

		assert.Equal(t, 13.0, hours["In Progress"])
		assert.Equal(t, 2.0, hours["Review"])
		assert.Equal(t, 9.0, hours["In Dev"])
		assert.Equal(t, 288.0, hours["Done"], "open period runs until now")
	})
}

func TestMeasureCycleTime(t *testing.T) {
	vocab := DefaultVocabulary()

	t.Run("ConcreteScenario", func(t *testing.T) {
		tr := walk(vocab, "To Do", jan(1, 9), "In Progress", jan(5, 9), "Review", jan(10, 9), "Done", jan(15, 9))
		ct := MeasureCycleTime(tr)

		require.NotNil(t, ct.FirstInProgress)
		require.NotNil(t, ct.LastDone)
		require.NotNil(t, ct.Days)
		assert.Equal(t, jan(5, 9), *ct.FirstInProgress)
		assert.Equal(t, jan(15, 9), *ct.LastDone)
		assert.Equal(t, 8, *ct.Days)
	})

	t.Run("UsesFirstInProgressAndLastDone", func(t *testing.T) {
		tr := walk(vocab, "Review", jan(3, 9), "Done", jan(4, 9), "In Progress", jan(5, 9), "Done", jan(7, 9))
		ct := MeasureCycleTime(tr)

		assert.Equal(t, jan(3, 9), *ct.FirstInProgress)
		assert.Equal(t, jan(7, 9), *ct.LastDone)
		assert.Equal(t, 5, *ct.Days)
	})

	t.Run("NotDone", func(t *testing.T) {
		ct := MeasureCycleTime(walk(vocab, "In Progress", jan(3, 9)))
		assert.NotNil(t, ct.FirstInProgress)
		assert.Nil(t, ct.LastDone)
		assert.Nil(t, ct.Days)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, CycleTime{}, MeasureCycleTime(nil))
	})
}

func TestSprints(t *testing.T) {
	history := []ChangeRecord{
		{Created: jan(10, 0), Items: []ChangeItem{{Field: "Sprint", From: "Sprint 1", To: "Sprint 1, Sprint 2"}}},
		{Created: jan(3, 0), Items: []ChangeItem{
			{Field: "status", From: "To Do", To: "In Progress"},
			{Field: "Sprint", From: "", To: "Sprint 1"},
		}},
	}

	changes := ExtractSprintChanges(history)
	require.Len(t, changes, 2)
	assert.Nil(t, changes[0].From)
	assert.Equal(t, []string{"Sprint 1"}, changes[0].To)
	assert.Equal(t, []string{"Sprint 1", "Sprint 2"}, changes[1].To)

	tests := []struct {
		name     string
		history  []ChangeRecord
		current  []string
		expected SprintMetrics
	}{
		{"Reassigned", history, []string{"Sprint 2"}, SprintMetrics{ExceedsSprint: true, SprintReassignments: 2}},
		{"NoHistoryMultipleSprints", nil, []string{"Sprint 1", "Sprint 2"}, SprintMetrics{ExceedsSprint: true}},
		{"NoHistorySingleSprint", nil, []string{"Sprint 1"}, SprintMetrics{}},
		{"Nothing", nil, nil, SprintMetrics{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MeasureSprints(tt.history, tt.current))
		})
	}
}

func TestDetectCycling(t *testing.T) {
	vocab := DefaultVocabulary()

	t.Run("RevisitsCounted", func(t *testing.T) {
		tr := walk(vocab, "A", jan(3, 0), "B", jan(3, 1), "A", jan(3, 2), "A", jan(3, 3), "C", jan(3, 4))
		c := DetectCycling(tr)

		assert.Equal(t, map[string]int{"A": 2, "B": 0, "C": 0}, c.Count)
		assert.Equal(t, 2, c.TotalRevisits)
	})

	t.Run("EmptyStatusIgnored", func(t *testing.T) {
		c := DetectCycling([]Transition{{ToStatus: ""}, {ToStatus: "A"}, {ToStatus: ""}})
		assert.Equal(t, map[string]int{"A": 0}, c.Count)
		assert.Zero(t, c.TotalRevisits)
	})

	t.Run("Empty", func(t *testing.T) {
		c := DetectCycling(nil)
		assert.Equal(t, map[string]int{}, c.Count)
		assert.Zero(t, c.TotalRevisits)
	})
}

func TestExtractBlockedPeriods(t *testing.T) {
	vocab := DefaultVocabulary()

	t.Run("ClosedPeriod", func(t *testing.T) {
		tr := walk(vocab, "In Progress", jan(3, 0), "Blocked", jan(4, 0), "In Progress", jan(6, 0))
		got := ExtractBlockedPeriods(tr, vocab)

		require.Len(t, got, 1)
		assert.Equal(t, jan(4, 0), got[0].Start)
		require.NotNil(t, got[0].End)
		assert.Equal(t, jan(6, 0), *got[0].End)
	})

	t.Run("OpenPeriod", func(t *testing.T) {
		got := ExtractBlockedPeriods(walk(vocab, "Blocked", jan(4, 0)), vocab)

		require.Len(t, got, 1)
		assert.Equal(t, jan(4, 0), got[0].Start)
		assert.Nil(t, got[0].End)
	})

	t.Run("ConsecutiveBlockingStatusesMerge", func(t *testing.T) {
		tr := walk(vocab, "Blocked", jan(4, 0), "On Hold", jan(5, 0), "Waiting", jan(6, 0), "Done", jan(7, 0))
		got := ExtractBlockedPeriods(tr, vocab)

		require.Len(t, got, 1)
		assert.Equal(t, jan(4, 0), got[0].Start)
		assert.Equal(t, jan(7, 0), *got[0].End)
	})

	t.Run("EmptyTargetIsNoop", func(t *testing.T) {
		tr := []Transition{
			{ToStatus: "Blocked", Timestamp: jan(4, 0)},
			{ToStatus: "", Timestamp: jan(5, 0)},
			{ToStatus: "Done", Timestamp: jan(6, 0)},
		}
		got := ExtractBlockedPeriods(tr, vocab)

		require.Len(t, got, 1)
		assert.Equal(t, jan(6, 0), *got[0].End)
	})

	t.Run("Empty", func(t *testing.T) {
		got := ExtractBlockedPeriods(nil, vocab)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestAttachReasons(t *testing.T) {
	t1 := jan(4, 10)
	periods := []BlockedPeriod{{Start: t1}}

	tests := []struct {
		name     string
		periods  []BlockedPeriod
		comments []Comment
		expected string
	}{
		{"WithinWindow", periods, []Comment{{Created: t1.Add(2 * time.Hour), Body: "waiting on vendor"}}, "waiting on vendor"},
		{"BeforeStart", periods, []Comment{{Created: t1.Add(-23 * time.Hour), Body: "heads up"}}, "heads up"},
		{"BoundaryInclusive", periods, []Comment{{Created: t1.Add(24 * time.Hour), Body: "edge"}}, "edge"},
		{"OutsideWindow", periods, []Comment{{Created: t1.Add(30 * time.Hour), Body: "late"}}, ""},
		{"RichBody", periods, []Comment{{Created: t1.Add(time.Hour), Rich: true}}, RichCommentReason},
		{"FirstByInputOrder", periods, []Comment{
			{Created: t1.Add(20 * time.Hour), Body: "first"},
			{Created: t1.Add(time.Hour), Body: "nearest"},
		}, "first"},
		{"ExistingReasonKept", []BlockedPeriod{{Start: t1, Reason: "known"}}, []Comment{{Created: t1.Add(48 * time.Hour), Body: "late"}}, "known"},
		{"UnparseableCommentSkipped", periods, []Comment{{Body: "no date"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttachReasons(tt.periods, tt.comments, DefaultReasonWindow, RichCommentReason)
			require.Len(t, got, 1)
			assert.Equal(t, tt.expected, got[0].Reason)
		})
	}

	t.Run("InputNotMutated", func(t *testing.T) {
		in := []BlockedPeriod{{Start: t1}}
		_ = AttachReasons(in, []Comment{{Created: t1, Body: "x"}}, DefaultReasonWindow, RichCommentReason)
		assert.Empty(t, in[0].Reason)
	})
}

func TestSummarizeBlocked(t *testing.T) {
	end := jan(5, 12)
	periods := []BlockedPeriod{
		{Start: jan(3, 9), End: &end, Reason: "vendor"},
		{Start: jan(6, 9), Reason: "vendor"},
		{Start: jan(6, 10), End: &end, Reason: ""},
	}

	got := SummarizeBlocked(periods, jan(7, 9))

	// Mon-Wed (3) + Thu-Fri open until now (2) + inverted range (0)
	assert.Equal(t, 5, got.TotalDays)
	assert.Equal(t, []string{"vendor"}, got.Reasons)

	empty := SummarizeBlocked(nil, jan(7, 9))
	assert.Zero(t, empty.TotalDays)
	assert.Equal(t, []string{}, empty.Reasons)
}

func TestFixedClock(t *testing.T) {
	c := FixedClock(jan(3, 0))
	assert.Equal(t, jan(3, 0), c.Now())
	assert.False(t, SystemClock().Now().IsZero())
}
