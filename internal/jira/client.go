package jira

import (
	"context"
	"time"
)

// Default custom field IDs for sprint membership and story points on a
// stock Jira Software instance.
const (
	DefaultSprintField      = "customfield_10020"
	DefaultStoryPointsField = "customfield_10016"
)

// FieldMap names the instance-specific custom fields the assessment reads.
type FieldMap struct {
	Sprint      string
	StoryPoints string
}

// DefaultFieldMap returns the stock custom field IDs.
func DefaultFieldMap() FieldMap {
	return FieldMap{Sprint: DefaultSprintField, StoryPoints: DefaultStoryPointsField}
}

// Client is the interface for interacting with Jira.
type Client interface {
	GetIssue(ctx context.Context, key string) (*IssueDTO, error)
	GetComments(ctx context.Context, key string) ([]CommentDTO, error)
	SearchIssues(ctx context.Context, jql string, startAt int, maxResults int) (*SearchResponse, error)
	BrowseURL(key string) string
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Personal Access Token, preferred over cookies when set
	Token string

	// Data Center Cookies
	XsrfToken  string
	SessionID  string
	RememberMe string

	// Load Balancer Cookies
	GCILB string
	GCLB  string

	// Performance Settings
	RequestDelay time.Duration

	Fields FieldMap
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewDataCenterClient(cfg)
}
