// Package assess composes the timeline metrics of a single issue into one
// DurationAssessment and runs that composition over batches of issues.
package assess

import (
	"time"

	"jira-assess/internal/config"
	"jira-assess/internal/stats"
	"jira-assess/internal/timeline"
)

// Issue is the part of a tracked issue the assessment reads.
type Issue struct {
	Key         string
	History     []timeline.ChangeRecord
	Sprints     []string
	StoryPoints *float64
}

// Comments holds an issue's comments in the order they were supplied.
type Comments struct {
	Comments []timeline.Comment
}

// StatusTransitions reports the cycle-time endpoints and per-status hours.
type StatusTransitions struct {
	FirstInProgress     *time.Time         `json:"firstInProgress"`
	LastDone            *time.Time         `json:"lastDone"`
	AverageTimeInStatus map[string]float64 `json:"averageTimeInStatus"`
}

// DurationAssessment is the assembled result for one issue.
type DurationAssessment struct {
	InProgressDays       *int                 `json:"inProgressDays"`
	ExceedsSprint        bool                 `json:"exceedsSprint"`
	SprintReassignments  int                  `json:"sprintReassignments"`
	PointToDurationRatio *float64             `json:"pointToDurationRatio"`
	StatusTransitions    StatusTransitions    `json:"statusTransitions"`
	StatusCycling        timeline.Cycling     `json:"statusCycling"`
	BlockedTime          timeline.BlockedTime `json:"blockedTime"`
	Anomalies            []string             `json:"anomalies"`
}

// Analysis carries the assessment together with the intermediate timeline it
// was derived from, for renderers that draw the timeline itself.
type Analysis struct {
	Assessment     DurationAssessment       `json:"assessment"`
	Now            time.Time                `json:"now"`
	Transitions    []timeline.Transition    `json:"transitions"`
	Periods        []timeline.Period        `json:"periods"`
	BlockedPeriods []timeline.BlockedPeriod `json:"blockedPeriods"`
}

// Assessor evaluates issues against a fixed rule set and clock. It holds no
// mutable state and is safe for concurrent use.
type Assessor struct {
	rules config.Rules
	vocab timeline.Vocabulary
	clock timeline.Clock
}

// NewAssessor returns an Assessor. A nil clock means the system clock.
func NewAssessor(rules config.Rules, clock timeline.Clock) *Assessor {
	if clock == nil {
		clock = timeline.SystemClock()
	}
	return &Assessor{
		rules: rules,
		vocab: rules.Vocabulary(),
		clock: clock,
	}
}

// Rules returns the rule set the assessor was built with.
func (a *Assessor) Rules() config.Rules {
	return a.rules
}

// Assess returns the DurationAssessment for issue. Both arguments are
// required; an empty Comments value is fine.
func (a *Assessor) Assess(issue *Issue, comments *Comments) (DurationAssessment, error) {
	an, err := a.Analyze(issue, comments)
	if err != nil {
		return DurationAssessment{}, err
	}
	return an.Assessment, nil
}

// Analyze runs the full pipeline. The clock is read once, so every open
// period in one call is measured against the same instant.
func (a *Assessor) Analyze(issue *Issue, comments *Comments) (Analysis, error) {
	if issue == nil {
		return Analysis{}, &InvalidInputError{Field: "issue"}
	}
	if comments == nil {
		return Analysis{}, &InvalidInputError{Field: "comments"}
	}
	now := a.clock.Now()

	transitions := timeline.ExtractTransitions(issue.History, a.vocab)
	periods := timeline.BuildPeriods(transitions)
	hours := timeline.HoursPerStatus(periods, now)
	cycle := timeline.MeasureCycleTime(transitions)
	sprints := timeline.MeasureSprints(issue.History, issue.Sprints)
	cycling := timeline.DetectCycling(transitions)

	blocked := timeline.ExtractBlockedPeriods(transitions, a.vocab)
	blocked = timeline.AttachReasons(blocked, comments.Comments, a.rules.ReasonWindow, a.rules.RichReason)
	blockedTime := timeline.SummarizeBlocked(blocked, now)

	ratio := stats.PointsPerDay(issue.StoryPoints, cycle.Days)
	anomalies := stats.DetectAnomalies(stats.DurationMetrics{
		InProgressDays:      cycle.Days,
		FirstInProgress:     cycle.FirstInProgress,
		LastDone:            cycle.LastDone,
		SprintReassignments: sprints.SprintReassignments,
		TotalRevisits:       cycling.TotalRevisits,
		BlockedDays:         blockedTime.TotalDays,
		PointsPerDay:        ratio,
		HoursPerStatus:      hours,
	}, a.rules.Anomalies)

	return Analysis{
		Assessment: DurationAssessment{
			InProgressDays:       cycle.Days,
			ExceedsSprint:        sprints.ExceedsSprint,
			SprintReassignments:  sprints.SprintReassignments,
			PointToDurationRatio: ratio,
			StatusTransitions: StatusTransitions{
				FirstInProgress:     cycle.FirstInProgress,
				LastDone:            cycle.LastDone,
				AverageTimeInStatus: hours,
			},
			StatusCycling: cycling,
			BlockedTime:   blockedTime,
			Anomalies:     anomalies,
		},
		Now:            now,
		Transitions:    transitions,
		Periods:        periods,
		BlockedPeriods: blocked,
	}, nil
}
