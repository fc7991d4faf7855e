package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeIssue decodes a raw issue payload and resolves the sprint and story
// point custom fields named by fm. Payloads already carrying the normalized
// "sprints" and "storyPoints" keys keep them when the custom fields are absent.
func DecodeIssue(data []byte, fm FieldMap) (*IssueDTO, error) {
	var raw struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var issue IssueDTO
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, err
	}
	if err := applyCustomFields(&issue.Fields, raw.Fields, fm); err != nil {
		return nil, fmt.Errorf("issue %s: %w", issue.Key, err)
	}
	return &issue, nil
}

// DecodeSearch decodes a search response, resolving custom fields per issue.
func DecodeSearch(data []byte, fm FieldMap) (*SearchResponse, error) {
	var raw struct {
		StartAt    int               `json:"startAt"`
		MaxResults int               `json:"maxResults"`
		Total      int               `json:"total"`
		Issues     []json.RawMessage `json:"issues"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	resp := &SearchResponse{
		StartAt:    raw.StartAt,
		MaxResults: raw.MaxResults,
		Total:      raw.Total,
		Issues:     make([]IssueDTO, 0, len(raw.Issues)),
	}
	for _, r := range raw.Issues {
		issue, err := DecodeIssue(r, fm)
		if err != nil {
			return nil, err
		}
		resp.Issues = append(resp.Issues, *issue)
	}
	return resp, nil
}

func applyCustomFields(f *FieldsDTO, raw map[string]json.RawMessage, fm FieldMap) error {
	if v, ok := raw[fm.Sprint]; ok && fm.Sprint != "" {
		var sprints SprintList
		if err := json.Unmarshal(v, &sprints); err != nil {
			return err
		}
		f.Sprints = sprints
	}
	if v, ok := raw[fm.StoryPoints]; ok && fm.StoryPoints != "" {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			f.StoryPoints = nil
			return nil
		}
		var points float64
		if err := json.Unmarshal(v, &points); err != nil {
			return fmt.Errorf("story points field %s: %w", fm.StoryPoints, err)
		}
		f.StoryPoints = &points
	}
	return nil
}
