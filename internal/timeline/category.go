package timeline

import (
	"strings"
)

// Category is the coarse lifecycle bucket a status name maps to.
type Category uint8

const (
	// Unknown means the status name matched none of the category vocabularies.
	Unknown Category = iota
	// New covers backlog-like statuses (To Do, Backlog, Open).
	New
	// InProgress covers active work (In Progress, Review, Dev).
	InProgress
	// Done covers terminal statuses (Done, Complete, Resolved).
	Done
)

// String returns the wire name of the category.
func (c Category) String() string {
	switch c {
	case New:
		return "new"
	case InProgress:
		return "in-progress"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// MarshalText renders Unknown as an empty string.
func (c Category) MarshalText() ([]byte, error) {
	if c == Unknown {
		return []byte{}, nil
	}
	return []byte(c.String()), nil
}

// Vocabulary holds the keyword lists used to interpret free-text status names.
// Matching is a case-insensitive substring search.
type Vocabulary struct {
	Done       []string
	InProgress []string
	New        []string
	Blocking   []string
}

// DefaultVocabulary returns the stock keyword lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Done:       []string{"done", "complete", "resolved"},
		InProgress: []string{"in progress", "review", "dev"},
		New:        []string{"to do", "backlog", "open"},
		Blocking:   []string{"blocked", "on hold", "waiting", "pending", "impediment"},
	}
}

// Classify maps a status name to its category. Done is checked first, then
// InProgress, then New; an empty name is always Unknown.
func (v Vocabulary) Classify(status string) Category {
	if status == "" {
		return Unknown
	}
	lower := strings.ToLower(status)
	switch {
	case containsAny(lower, v.Done):
		return Done
	case containsAny(lower, v.InProgress):
		return InProgress
	case containsAny(lower, v.New):
		return New
	}
	return Unknown
}

// IsBlocked reports whether the status name contains any blocking keyword.
func (v Vocabulary) IsBlocked(status string) bool {
	if status == "" {
		return false
	}
	return containsAny(strings.ToLower(status), v.Blocking)
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
