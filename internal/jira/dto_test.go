package jira

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issuePayload = `{
  "key": "PROJ-1",
  "fields": {
    "summary": "Checkout flow",
    "issuetype": {"name": "Story"},
    "status": {"id": "3", "name": "In Progress", "statusCategory": {"key": "indeterminate"}},
    "created": "2022-01-03T09:00:00.000+0000",
    "customfield_10020": [{"id": 7, "name": "Sprint 7", "state": "closed"}, {"id": 8, "name": "Sprint 8", "state": "active"}],
    "customfield_10016": 5
  },
  "changelog": {
    "startAt": 0, "maxResults": 1, "total": 1,
    "histories": [
      {"id": "100", "created": "2022-01-04T10:00:00.000+0000",
       "items": [{"field": "status", "fromString": "To Do", "toString": "In Progress", "from": "1", "to": "3"}]}
    ]
  }
}`

func TestDecodeIssue_ResolvesCustomFields(t *testing.T) {
	issue, err := DecodeIssue([]byte(issuePayload), DefaultFieldMap())
	require.NoError(t, err)

	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Equal(t, "In Progress", issue.Fields.Status.Name)
	assert.Equal(t, []string{"Sprint 7", "Sprint 8"}, issue.Fields.Sprints.Names())
	require.NotNil(t, issue.Fields.StoryPoints)
	assert.Equal(t, 5.0, *issue.Fields.StoryPoints)
	require.NotNil(t, issue.Changelog)
	require.Len(t, issue.Changelog.Histories, 1)
	assert.Equal(t, "In Progress", issue.Changelog.Histories[0].Items[0].ToString)
}

func TestDecodeIssue_UnmappedFieldsStayEmpty(t *testing.T) {
	issue, err := DecodeIssue([]byte(issuePayload), FieldMap{Sprint: "customfield_1", StoryPoints: "customfield_2"})
	require.NoError(t, err)

	assert.Empty(t, issue.Fields.Sprints)
	assert.Nil(t, issue.Fields.StoryPoints)
}

func TestDecodeIssue_NormalizedKeys(t *testing.T) {
	data := `{"key":"A-1","fields":{"sprints":[{"name":"S1"}],"storyPoints":3}}`
	issue, err := DecodeIssue([]byte(data), DefaultFieldMap())
	require.NoError(t, err)

	assert.Equal(t, []string{"S1"}, issue.Fields.Sprints.Names())
	require.NotNil(t, issue.Fields.StoryPoints)
	assert.Equal(t, 3.0, *issue.Fields.StoryPoints)
}

func TestDecodeIssue_NullStoryPoints(t *testing.T) {
	data := `{"key":"A-1","fields":{"customfield_10016":null,"customfield_10020":null}}`
	issue, err := DecodeIssue([]byte(data), DefaultFieldMap())
	require.NoError(t, err)

	assert.Nil(t, issue.Fields.StoryPoints)
	assert.Nil(t, issue.Fields.Sprints)
}

func TestDecodeIssue_BadStoryPoints(t *testing.T) {
	data := `{"key":"A-1","fields":{"customfield_10016":"five"}}`
	_, err := DecodeIssue([]byte(data), DefaultFieldMap())
	assert.Error(t, err)
}

func TestSprintList_LegacyStrings(t *testing.T) {
	data := `{"key":"A-1","fields":{"customfield_10020":[
	  "com.atlassian.greenhopper.service.sprint.Sprint@1a2b[id=12,rapidViewId=3,state=CLOSED,name=Team Sprint 4,startDate=2022-01-01T00:00:00.000Z]",
	  "plain"
	]}}`
	issue, err := DecodeIssue([]byte(data), DefaultFieldMap())
	require.NoError(t, err)

	require.Len(t, issue.Fields.Sprints, 2)
	assert.Equal(t, SprintDTO{ID: 12, Name: "Team Sprint 4", State: "CLOSED"}, issue.Fields.Sprints[0])
	assert.Equal(t, "plain", issue.Fields.Sprints[1].Name)
}

func TestDecodeSearch(t *testing.T) {
	data := `{"startAt":0,"maxResults":50,"total":2,"issues":[` + issuePayload + `,{"key":"PROJ-2","fields":{}}]}`
	resp, err := DecodeSearch([]byte(data), DefaultFieldMap())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Issues, 2)
	assert.Equal(t, "PROJ-2", resp.Issues[1].Key)
	assert.NotNil(t, resp.Issues[0].Fields.StoryPoints)
}

func TestCommentDTO_PlainBody(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		text  string
		plain bool
	}{
		{"string", `"Waiting on vendor"`, "Waiting on vendor", true},
		{"null", `null`, "", true},
		{"missing", ``, "", true},
		{"document", `{"type":"doc","content":[]}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CommentDTO{Body: []byte(tt.body)}
			text, plain := c.PlainBody()
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.plain, plain)
		})
	}
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{
		"2022-01-04T10:00:00.000+0000",
		"2022-01-04T10:00:00Z",
		"2022-01-04T10:00:00.123456Z",
		"2022-01-04T12:00:00+0200",
	} {
		ts, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2022, ts.Year())
		assert.Equal(t, 10, ts.UTC().Hour(), s)
	}

	_, err := ParseTime("yesterday")
	assert.Error(t, err)
}
