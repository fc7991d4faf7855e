package assess

import (
	"errors"
	"testing"
	"time"

	"jira-assess/internal/config"
	"jira-assess/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2022, time.January, day, hour, 0, 0, 0, time.UTC)
}

func move(ts time.Time, from, to string) timeline.ChangeRecord {
	return timeline.ChangeRecord{
		Created: ts,
		Items:   []timeline.ChangeItem{{Field: "status", From: from, To: to}},
	}
}

func newTestAssessor(now time.Time) *Assessor {
	return NewAssessor(config.DefaultRules(), timeline.FixedClock(now))
}

func TestAssess_StraightThroughIssue(t *testing.T) {
	points := 4.0
	issue := &Issue{
		Key: "PROJ-1",
		History: []timeline.ChangeRecord{
			move(at(15, 0), "Review", "Done"),
			move(at(1, 0), "", "To Do"),
			move(at(10, 0), "In Progress", "Review"),
			move(at(5, 0), "To Do", "In Progress"),
		},
		StoryPoints: &points,
	}

	got, err := newTestAssessor(at(20, 0)).Assess(issue, &Comments{})
	require.NoError(t, err)

	require.NotNil(t, got.InProgressDays)
	assert.Equal(t, 8, *got.InProgressDays)
	assert.Equal(t, at(5, 0), *got.StatusTransitions.FirstInProgress)
	assert.Equal(t, at(15, 0), *got.StatusTransitions.LastDone)
	assert.Equal(t, map[string]float64{
		"To Do":       96,
		"In Progress": 120,
		"Review":      120,
		"Done":        120,
	}, got.StatusTransitions.AverageTimeInStatus)
	require.NotNil(t, got.PointToDurationRatio)
	assert.Equal(t, 0.5, *got.PointToDurationRatio)
	assert.False(t, got.ExceedsSprint)
	assert.Zero(t, got.StatusCycling.TotalRevisits)
	assert.Equal(t, timeline.BlockedTime{Reasons: []string{}}, got.BlockedTime)
	assert.Equal(t, []string{}, got.Anomalies)
}

func TestAssess_BlockedAndCycling(t *testing.T) {
	issue := &Issue{
		Key: "PROJ-2",
		History: []timeline.ChangeRecord{
			move(at(3, 9), "To Do", "In Progress"),
			move(at(4, 9), "In Progress", "Blocked"),
			move(at(6, 9), "Blocked", "In Progress"),
			move(at(7, 9), "In Progress", "Review"),
			move(at(10, 9), "Review", "In Progress"),
			move(at(11, 9), "In Progress", "Done"),
		},
	}
	comments := &Comments{Comments: []timeline.Comment{
		{Created: at(20, 9), Body: "unrelated"},
		{Created: at(4, 11), Body: "waiting on vendor"},
	}}

	got, err := newTestAssessor(at(12, 9)).Assess(issue, comments)
	require.NoError(t, err)

	require.NotNil(t, got.InProgressDays)
	assert.Equal(t, 7, *got.InProgressDays)
	assert.Nil(t, got.PointToDurationRatio)
	assert.Equal(t, map[string]int{"In Progress": 2, "Blocked": 0, "Review": 0, "Done": 0}, got.StatusCycling.Count)
	assert.Equal(t, 2, got.StatusCycling.TotalRevisits)
	assert.Equal(t, 3, got.BlockedTime.TotalDays)
	assert.Equal(t, []string{"waiting on vendor"}, got.BlockedTime.Reasons)
	assert.Equal(t, []string{"Status cycling detected: 2 revisits"}, got.Anomalies)
}

func TestAssess_OpenBlockedPeriodWithRichComment(t *testing.T) {
	issue := &Issue{
		History: []timeline.ChangeRecord{
			move(at(3, 9), "To Do", "In Progress"),
			move(at(4, 9), "In Progress", "On Hold"),
		},
	}
	comments := &Comments{Comments: []timeline.Comment{{Created: at(3, 12), Rich: true}}}

	an, err := newTestAssessor(at(10, 9)).Analyze(issue, comments)
	require.NoError(t, err)

	require.Len(t, an.BlockedPeriods, 1)
	assert.Nil(t, an.BlockedPeriods[0].End)
	assert.Equal(t, timeline.RichCommentReason, an.BlockedPeriods[0].Reason)
	// Tue 4th through Mon 10th
	assert.Equal(t, 5, an.Assessment.BlockedTime.TotalDays)
	assert.Contains(t, an.Assessment.Anomalies, "Blocked for 5 business days")
	assert.Nil(t, an.Assessment.InProgressDays)
	assert.Equal(t, at(10, 9), an.Now)
}

func TestAssess_EmptyHistory(t *testing.T) {
	got, err := newTestAssessor(at(10, 0)).Assess(&Issue{Key: "E-1"}, &Comments{})
	require.NoError(t, err)

	assert.Nil(t, got.InProgressDays)
	assert.Nil(t, got.StatusTransitions.FirstInProgress)
	assert.Empty(t, got.StatusTransitions.AverageTimeInStatus)
	assert.NotNil(t, got.StatusTransitions.AverageTimeInStatus)
	assert.Equal(t, timeline.Cycling{Count: map[string]int{}}, got.StatusCycling)
	assert.Equal(t, 0, got.BlockedTime.TotalDays)
	assert.Equal(t, []string{}, got.Anomalies)
}

func TestAssess_SprintOverrun(t *testing.T) {
	issue := &Issue{Sprints: []string{"Sprint 1", "Sprint 2"}}
	got, err := newTestAssessor(at(10, 0)).Assess(issue, &Comments{})
	require.NoError(t, err)

	assert.True(t, got.ExceedsSprint)
	assert.Zero(t, got.SprintReassignments)
}

func TestAssess_Idempotent(t *testing.T) {
	issue := &Issue{History: []timeline.ChangeRecord{
		move(at(3, 9), "To Do", "In Progress"),
		move(at(4, 9), "In Progress", "Waiting for QA"),
	}}
	comments := &Comments{Comments: []timeline.Comment{{Created: at(4, 8), Body: "env down"}}}
	a := newTestAssessor(at(14, 0))

	first, err := a.Assess(issue, comments)
	require.NoError(t, err)
	second, err := a.Assess(issue, comments)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "In Progress", issue.History[0].Items[0].To, "input must not be mutated")
}

func TestAssess_MissingInput(t *testing.T) {
	a := newTestAssessor(at(10, 0))

	tests := []struct {
		name     string
		issue    *Issue
		comments *Comments
		field    string
	}{
		{"no issue", nil, &Comments{}, "issue"},
		{"no comments", &Issue{}, nil, "comments"},
		{"neither", nil, nil, "issue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Assess(tt.issue, tt.comments)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestAssess_ReadsClockOncePerCall(t *testing.T) {
	calls := 0
	clock := timeline.ClockFunc(func() time.Time {
		calls++
		return at(10, 0).Add(time.Duration(calls) * time.Hour)
	})
	issue := &Issue{History: []timeline.ChangeRecord{
		move(at(3, 9), "To Do", "Blocked"),
	}}

	an, err := NewAssessor(config.DefaultRules(), clock).Analyze(issue, &Comments{})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, at(10, 1), an.Now)
}
