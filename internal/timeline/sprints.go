package timeline

import (
	"strings"
	"time"
)

const sprintField = "sprint"

// SprintChange is one edit of the sprint field. Multiple sprint names in a
// single value are comma-delimited in the changelog and split here.
type SprintChange struct {
	From      []string  `json:"from"`
	To        []string  `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// SprintMetrics summarises how an issue moved between sprints.
type SprintMetrics struct {
	ExceedsSprint       bool `json:"exceedsSprint"`
	SprintReassignments int  `json:"sprintReassignments"`
}

// ExtractSprintChanges returns every sprint-field edit in chronological order.
func ExtractSprintChanges(history []ChangeRecord) []SprintChange {
	changes := []SprintChange{}
	for _, rec := range sortedRecords(history) {
		for _, item := range rec.Items {
			if !strings.EqualFold(item.Field, sprintField) {
				continue
			}
			changes = append(changes, SprintChange{
				From:      splitSprints(item.From),
				To:        splitSprints(item.To),
				Timestamp: rec.Created,
			})
		}
	}
	return changes
}

// MeasureSprints counts sprint reassignments. An issue exceeds its sprint when
// it was ever reassigned, or when it was never reassigned but currently lists
// more than one sprint.
func MeasureSprints(history []ChangeRecord, currentSprints []string) SprintMetrics {
	n := len(ExtractSprintChanges(history))
	return SprintMetrics{
		SprintReassignments: n,
		ExceedsSprint:       n > 0 || len(currentSprints) > 1,
	}
}

func splitSprints(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
