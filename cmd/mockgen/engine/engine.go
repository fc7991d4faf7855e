// Package engine generates synthetic Jira issues with realistic changelogs
// for exercising the assessment pipeline without a Jira instance.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"jira-assess/internal/archive"
	"jira-assess/internal/jira"
)

const jiraTimeFormat = "2006-01-02T15:04:05.000-0700"

type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Count        int
	Now          time.Time
	Seed         int64
}

type step struct {
	at     time.Time
	status string
}

// Generate returns Count archive records. Issues arrive one per day ending at
// Now; each walks To Do, In Progress, Review, Done, with blocked spells and
// review rework mixed in according to the scenario.
func Generate(cfg GeneratorConfig) []archive.Record {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]archive.Record, 0, cfg.Count)
	tArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		key := fmt.Sprintf("MOCK-%d", i+1)
		arrival := tArrival.Add(time.Duration(i*24) * time.Hour)

		// 1. Determine Parameters
		k, lambda := 2.5, 9.5 // Mild: ~8 day cycle time
		blockedChance, reworkChance := 0.1, 0.1
		switch cfg.Scenario {
		case "chaos":
			k = 0.8
			if cfg.Distribution == "weibull" {
				lambda = 12.0
			}
			blockedChance, reworkChance = 0.4, 0.5
		case "drift":
			ratio := float64(i) / float64(cfg.Count)
			k = 2.5 - (1.7 * ratio) // Shift 2.5 -> 0.8
			lambda = 9.5 + (2.5 * ratio)
			blockedChance = 0.1 + 0.3*ratio
		}

		// 2. Sample Total Cycle Time (Days)
		var totalDuration float64
		if cfg.Distribution == "weibull" {
			totalDuration = weibullSample(rng, k, lambda)
		} else {
			totalDuration = 6.0 + rng.Float64()*5.0
			if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
				totalDuration += 10 + rng.Float64()*15 // Controlled Black Swans
			}
			if cfg.Scenario == "drift" && i > cfg.Count/2 {
				totalDuration *= 2.0
			}
		}

		// 3. Lay out the status walk
		at := func(frac float64) time.Time {
			return arrival.Add(time.Duration(totalDuration * frac * 24 * float64(time.Hour)))
		}
		steps := []step{{arrival, "To Do"}, {at(0.2), "In Progress"}}
		var comments []jira.CommentDTO

		if rng.Float64() < blockedChance {
			blockedAt := at(0.35)
			steps = append(steps, step{blockedAt, "Blocked"}, step{at(0.5), "In Progress"})
			comments = append(comments, comment(len(comments), blockedAt.Add(time.Duration(rng.Intn(6))*time.Hour), blockedReason(rng)))
		}
		steps = append(steps, step{at(0.7), "Review"})
		if rng.Float64() < reworkChance {
			steps = append(steps, step{at(0.8), "In Progress"}, step{at(0.9), "Review"})
		}
		steps = append(steps, step{at(1.0), "Done"})

		// 4. Keep only what already happened
		var histories []jira.HistoryDTO
		current := ""
		for j, s := range steps {
			if s.at.After(cfg.Now) {
				break
			}
			histories = append(histories, jira.HistoryDTO{
				ID:      fmt.Sprintf("%d%02d", i+1, j),
				Created: s.at.Format(jiraTimeFormat),
				Items:   []jira.ItemDTO{{Field: "status", FromString: current, ToString: s.status}},
			})
			current = s.status
		}

		points := []float64{1, 2, 3, 5, 8}[rng.Intn(5)]
		issue := jira.IssueDTO{
			Key:       key,
			Changelog: &jira.ChangelogDTO{Total: len(histories), MaxResults: len(histories), Histories: histories},
		}
		issue.Fields.Summary = fmt.Sprintf("Synthetic %s issue %d", cfg.Scenario, i+1)
		issue.Fields.IssueType.Name = "Story"
		issue.Fields.Status.Name = current
		issue.Fields.Created = arrival.Format(jiraTimeFormat)
		issue.Fields.StoryPoints = &points
		issue.Fields.Sprints = jira.SprintList{{ID: i/14 + 1, Name: fmt.Sprintf("Sprint %d", i/14+1)}}
		if totalDuration > 14 {
			issue.Fields.Sprints = append(issue.Fields.Sprints, jira.SprintDTO{ID: i/14 + 2, Name: fmt.Sprintf("Sprint %d", i/14+2)})
		}

		records = append(records, archive.Record{
			Key:       key,
			Issue:     issue,
			Comments:  jira.CommentsResponse{Total: len(comments), MaxResults: len(comments), Comments: comments},
			FetchedAt: cfg.Now,
		})
	}
	return records
}

func comment(n int, at time.Time, body string) jira.CommentDTO {
	raw, _ := json.Marshal(body)
	c := jira.CommentDTO{ID: fmt.Sprintf("c%d", n+1), Created: at.Format(jiraTimeFormat), Body: raw}
	c.Author.DisplayName = "mockgen"
	return c
}

func blockedReason(rng *rand.Rand) string {
	reasons := []string{
		"Waiting on vendor API access",
		"Blocked by pending security review",
		"Test environment is down",
		"Needs product decision on scope",
	}
	return reasons[rng.Intn(len(reasons))]
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the records as an archive source under outDir.
func Save(outDir string, sourceID string, records []archive.Record) error {
	store := archive.NewStore()
	store.Put(sourceID, records...)
	return store.Save(outDir, sourceID)
}
