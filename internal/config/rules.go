package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"jira-assess/internal/stats"
	"jira-assess/internal/timeline"

	"gopkg.in/yaml.v3"
)

// Rules is the tunable part of an assessment: status vocabularies, the
// comment correlation window and anomaly thresholds.
type Rules struct {
	Categories   CategoryRules    `yaml:"categories" json:"categories"`
	Blocking     []string         `yaml:"blocking" json:"blocking"`
	ReasonWindow time.Duration    `yaml:"reason_window" json:"reason_window"`
	RichReason   string           `yaml:"rich_comment_reason" json:"rich_comment_reason"`
	Anomalies    stats.Thresholds `yaml:"anomalies" json:"anomalies"`
}

// CategoryRules lists the keywords for each status category.
type CategoryRules struct {
	Done       []string `yaml:"done" json:"done"`
	InProgress []string `yaml:"in_progress" json:"in_progress"`
	New        []string `yaml:"new" json:"new"`
}

// DefaultRules returns a fresh copy of the stock rules.
func DefaultRules() Rules {
	v := timeline.DefaultVocabulary()
	return Rules{
		Categories: CategoryRules{
			Done:       v.Done,
			InProgress: v.InProgress,
			New:        v.New,
		},
		Blocking:     v.Blocking,
		ReasonWindow: timeline.DefaultReasonWindow,
		RichReason:   timeline.RichCommentReason,
		Anomalies:    stats.DefaultThresholds(),
	}
}

// LoadRules reads a YAML rules file. Keys absent from the file keep their
// default values. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate rejects rules that would silently disable classification.
func (r Rules) Validate() error {
	var errs []error
	if len(r.Categories.Done) == 0 || len(r.Categories.InProgress) == 0 || len(r.Categories.New) == 0 {
		errs = append(errs, errors.New("every status category needs at least one keyword"))
	}
	if len(r.Blocking) == 0 {
		errs = append(errs, errors.New("blocking vocabulary is empty"))
	}
	if r.ReasonWindow <= 0 {
		errs = append(errs, fmt.Errorf("reason_window must be positive, got %s", r.ReasonWindow))
	}
	a := r.Anomalies
	if a.MaxInProgressDays < 0 || a.MaxSprintReassignments < 0 || a.CyclingRevisits < 0 ||
		a.MaxBlockedDays < 0 || a.MinPointsPerDay < 0 || a.MaxPointsPerDay < 0 || a.MinStatusesForOutliers < 0 {
		errs = append(errs, errors.New("anomaly thresholds must not be negative"))
	}
	return errors.Join(errs...)
}

// Vocabulary converts the rules into the timeline's keyword lists.
func (r Rules) Vocabulary() timeline.Vocabulary {
	return timeline.Vocabulary{
		Done:       r.Categories.Done,
		InProgress: r.Categories.InProgress,
		New:        r.Categories.New,
		Blocking:   r.Blocking,
	}
}
