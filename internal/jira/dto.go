package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SearchResponse is the top-level container for Jira search results.
type SearchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []IssueDTO `json:"issues"`
}

// IssueDTO represents a single issue with its changelog.
type IssueDTO struct {
	Key       string        `json:"key"`
	Fields    FieldsDTO     `json:"fields"`
	Changelog *ChangelogDTO `json:"changelog,omitempty"`
}

// FieldsDTO contains the specific fields we care about.
// Sprints and StoryPoints live in instance-specific custom fields; they are
// stored here under normalized keys once resolved through a FieldMap.
type FieldsDTO struct {
	Summary   string `json:"summary"`
	IssueType struct {
		Name    string `json:"name"`
		Subtask bool   `json:"subtask"`
	} `json:"issuetype"`
	Status struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		StatusCategory struct {
			Key string `json:"key"`
		} `json:"statusCategory"`
	} `json:"status"`
	Created     string     `json:"created"`
	Updated     string     `json:"updated"`
	Sprints     SprintList `json:"sprints,omitempty"`
	StoryPoints *float64   `json:"storyPoints,omitempty"`
}

// ChangelogDTO contains historical transitions.
type ChangelogDTO struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Histories  []HistoryDTO `json:"histories"`
}

// HistoryDTO is a single entry in the changelog.
type HistoryDTO struct {
	ID      string    `json:"id,omitempty"`
	Created string    `json:"created"`
	Items   []ItemDTO `json:"items"`
}

// ItemDTO is a single field change within a history entry.
type ItemDTO struct {
	Field      string `json:"field"`
	FieldType  string `json:"fieldtype,omitempty"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
	From       string `json:"from"` // ID
	To         string `json:"to"`   // ID
}

// SprintDTO is one entry of the sprint-membership field.
type SprintDTO struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// SprintList decodes the sprint field in either of its wire shapes: an array
// of sprint objects (Cloud, recent Data Center) or an array of serialized
// "com.atlassian.greenhopper.service.sprint.Sprint@...[name=...]" strings.
type SprintList []SprintDTO

// UnmarshalJSON implements json.Unmarshaler.
func (s *SprintList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sprint field: %w", err)
	}

	out := make(SprintList, 0, len(raw))
	for _, r := range raw {
		var str string
		if err := json.Unmarshal(r, &str); err == nil {
			out = append(out, parseLegacySprint(str))
			continue
		}
		var dto SprintDTO
		if err := json.Unmarshal(r, &dto); err != nil {
			return fmt.Errorf("sprint field: %w", err)
		}
		out = append(out, dto)
	}
	*s = out
	return nil
}

// Names returns the sprint names in field order.
func (s SprintList) Names() []string {
	names := make([]string, 0, len(s))
	for _, sp := range s {
		if sp.Name != "" {
			names = append(names, sp.Name)
		}
	}
	return names
}

func parseLegacySprint(s string) SprintDTO {
	open := strings.Index(s, "[")
	if open < 0 || !strings.HasSuffix(s, "]") {
		return SprintDTO{Name: s}
	}
	var dto SprintDTO
	for _, kv := range strings.Split(s[open+1:len(s)-1], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "name":
			dto.Name = v
		case "state":
			dto.State = v
		case "id":
			fmt.Sscanf(v, "%d", &dto.ID)
		}
	}
	return dto
}

// CommentsResponse is the paged comment list for an issue.
type CommentsResponse struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Comments   []CommentDTO `json:"comments"`
}

// CommentDTO is a single issue comment. Body is either a JSON string (wiki
// markup / plain text) or a structured document object.
type CommentDTO struct {
	ID     string `json:"id,omitempty"`
	Author struct {
		DisplayName string `json:"displayName"`
	} `json:"author"`
	Created string          `json:"created"`
	Updated string          `json:"updated,omitempty"`
	Body    json.RawMessage `json:"body"`
}

// PlainBody returns the body text when the body is a JSON string. A missing
// or null body counts as an empty plain body.
func (c CommentDTO) PlainBody() (string, bool) {
	trimmed := bytes.TrimSpace(c.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}
