package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"jira-assess/internal/assess"
	"jira-assess/internal/jira"
)

const (
	formatTable   = "table"
	formatJSON    = "json"
	formatMermaid = "mermaid"
)

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want one of %v)", format, allowed)
}

// parseNow parses an RFC3339 instant. Empty means the zero time.
func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", s, err)
	}
	return t, nil
}

func readIssueFile(path string, fm jira.FieldMap) (*jira.IssueDTO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue file: %w", err)
	}
	issue, err := jira.DecodeIssue(data, fm)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issue file %s: %w", path, err)
	}
	return issue, nil
}

// readCommentsFile reads a comment list response. An empty path yields an
// empty comment set.
func readCommentsFile(path string) (*assess.Comments, error) {
	if path == "" {
		return &assess.Comments{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read comments file: %w", err)
	}
	var resp jira.CommentsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse comments file %s: %w", path, err)
	}
	return assess.CommentsFromDTO(resp.Comments), nil
}
