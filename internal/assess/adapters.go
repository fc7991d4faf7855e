package assess

import (
	"time"

	"jira-assess/internal/jira"
	"jira-assess/internal/timeline"
)

// parseOrZero maps unparseable timestamps to the zero time, which every
// duration calculation treats as "no value".
func parseOrZero(s string) time.Time {
	t, err := jira.ParseTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ChangeRecordsFromDTO converts a changelog. A nil changelog yields an empty history.
func ChangeRecordsFromDTO(cl *jira.ChangelogDTO) []timeline.ChangeRecord {
	if cl == nil {
		return []timeline.ChangeRecord{}
	}
	records := make([]timeline.ChangeRecord, 0, len(cl.Histories))
	for _, h := range cl.Histories {
		items := make([]timeline.ChangeItem, 0, len(h.Items))
		for _, it := range h.Items {
			items = append(items, timeline.ChangeItem{
				Field: it.Field,
				From:  it.FromString,
				To:    it.ToString,
			})
		}
		records = append(records, timeline.ChangeRecord{
			Created: parseOrZero(h.Created),
			Items:   items,
		})
	}
	return records
}

// CommentsFromDTO converts comments preserving their order. Structured
// bodies are flagged Rich.
func CommentsFromDTO(comments []jira.CommentDTO) *Comments {
	out := &Comments{Comments: make([]timeline.Comment, 0, len(comments))}
	for _, c := range comments {
		body, plain := c.PlainBody()
		out.Comments = append(out.Comments, timeline.Comment{
			Created: parseOrZero(c.Created),
			Body:    body,
			Rich:    !plain,
		})
	}
	return out
}

// IssueFromDTO converts a decoded issue.
func IssueFromDTO(dto *jira.IssueDTO) *Issue {
	if dto == nil {
		return nil
	}
	return &Issue{
		Key:         dto.Key,
		History:     ChangeRecordsFromDTO(dto.Changelog),
		Sprints:     dto.Fields.Sprints.Names(),
		StoryPoints: dto.Fields.StoryPoints,
	}
}
