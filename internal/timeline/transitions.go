// Package timeline reconstructs an issue's status timeline from its changelog
// and derives duration, rework and blocked-time metrics from it.
//
// Everything here is a pure function of its inputs. Open-ended periods are
// measured against an explicit "now" supplied by the caller.
package timeline

import (
	"slices"
	"strings"
	"time"
)

// ChangeItem is a single field edit inside a change record.
type ChangeItem struct {
	Field string
	From  string
	To    string
}

// ChangeRecord is one historical edit event. A zero Created means the source
// timestamp could not be parsed.
type ChangeRecord struct {
	Created time.Time
	Items   []ChangeItem
}

// Transition is a single change of the status field.
type Transition struct {
	FromStatus   string    `json:"fromStatus,omitempty"`
	ToStatus     string    `json:"toStatus,omitempty"`
	FromCategory Category  `json:"fromCategory"`
	ToCategory   Category  `json:"toCategory"`
	Timestamp    time.Time `json:"timestamp"`
}

const statusField = "status"

// ExtractTransitions returns every status edit in history, sorted ascending by
// record timestamp. Edits sharing one record keep their record order, and
// records with equal timestamps keep their input order.
func ExtractTransitions(history []ChangeRecord, vocab Vocabulary) []Transition {
	if len(history) == 0 {
		return []Transition{}
	}

	records := sortedRecords(history)

	transitions := make([]Transition, 0, len(records))
	for _, rec := range records {
		for _, item := range rec.Items {
			if !strings.EqualFold(item.Field, statusField) {
				continue
			}
			transitions = append(transitions, Transition{
				FromStatus:   item.From,
				ToStatus:     item.To,
				FromCategory: vocab.Classify(item.From),
				ToCategory:   vocab.Classify(item.To),
				Timestamp:    rec.Created,
			})
		}
	}
	return transitions
}

// sortedRecords returns a stably sorted copy; the caller's slice is never reordered.
func sortedRecords(history []ChangeRecord) []ChangeRecord {
	records := slices.Clone(history)
	slices.SortStableFunc(records, func(a, b ChangeRecord) int {
		return a.Created.Compare(b.Created)
	})
	return records
}
