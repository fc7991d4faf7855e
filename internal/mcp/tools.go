package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jira-assess/internal/assess"
	"jira-assess/internal/visuals"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// AssessIssueInput is the argument of the assess_issue tool.
type AssessIssueInput struct {
	IssueKey string `json:"issue_key" jsonschema:"The issue key (e.g., PROJ-123)"`
	Format   string `json:"format,omitempty" jsonschema:"Output format: json (default) or markdown with Mermaid charts"`
}

// AssessJQLInput is the argument of the assess_jql tool.
type AssessJQLInput struct {
	JQL        string `json:"jql" jsonschema:"JQL query selecting the issues to assess"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of issues to assess. Default 50."`
}

// JQLOutput is the payload returned by assess_jql.
type JQLOutput struct {
	Results []JQLResult    `json:"results"`
	Summary assess.Summary `json:"summary"`
}

// JQLResult is one row of assess_jql. Error is set instead of Assessment when
// the issue could not be assessed.
type JQLResult struct {
	Key        string                     `json:"key"`
	Assessment *assess.DurationAssessment `json:"assessment,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

const defaultJQLResults = 50

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "assess_issue",
		Description: "Fetch one Jira issue with its changelog and comments and return its duration assessment: " +
			"business days in progress, sprint overrun, time in each status, status cycling (rework), blocked time with reasons, and anomaly flags.\n\n" +
			"Guidance: Report the anomalies verbatim. Blocked reasons come from comments written around the time the issue became blocked; treat them as hints, not facts.",
		InputSchema: schemaFor[AssessIssueInput](),
	}, s.handleAssessIssue)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "assess_jql",
		Description: "Assess every issue matched by a JQL query and summarise the batch: median in-progress days, total revisits and blocked days, " +
			"and the issues whose in-progress time is a statistical outlier (XmR upper natural process limit).\n\n" +
			"Guidance: Keep queries narrow (one team, one quarter). Each issue costs two Jira requests.",
		InputSchema: schemaFor[AssessJQLInput](),
	}, s.handleAssessJQL)
}

func schemaFor[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("invalid tool input type %T: %v", *new(T), err))
	}
	return schema
}

func (s *Server) handleAssessIssue(ctx context.Context, _ *mcp.CallToolRequest, in AssessIssueInput) (*mcp.CallToolResult, any, error) {
	key := strings.TrimSpace(in.IssueKey)
	if key == "" {
		return toolError("issue_key is required")
	}
	format := strings.ToLower(in.Format)
	if format != "" && format != "json" && format != "markdown" {
		return toolError(fmt.Sprintf("unsupported format %q", in.Format))
	}

	records, err := s.provider.Fetch(ctx, s.opts.Source, key)
	if err != nil {
		log.Error().Err(err).Str("issue", key).Msg("assess_issue fetch failed")
		return toolError(err.Error())
	}
	input := records[0].Input()
	an, err := s.assessor.Analyze(input.Issue, input.Comments)
	if err != nil {
		return toolError(err.Error())
	}

	if format == "markdown" {
		return textResult(renderMarkdown(key, an))
	}
	return jsonResult(an.Assessment)
}

func (s *Server) handleAssessJQL(ctx context.Context, _ *mcp.CallToolRequest, in AssessJQLInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.JQL) == "" {
		return toolError("jql is required")
	}
	limit := in.MaxResults
	if limit <= 0 {
		limit = defaultJQLResults
	}
	if limit > s.opts.MaxResults {
		limit = s.opts.MaxResults
	}

	records, err := s.provider.Search(ctx, s.opts.Source, in.JQL, limit)
	if err != nil {
		log.Error().Err(err).Str("jql", in.JQL).Msg("assess_jql search failed")
		return toolError(err.Error())
	}

	inputs := make([]assess.Input, 0, len(records))
	for _, r := range records {
		inputs = append(inputs, r.Input())
	}
	results, err := assess.Batch(ctx, s.assessor, inputs, s.opts.Workers)
	if err != nil {
		return toolError(err.Error())
	}

	out := JQLOutput{Results: make([]JQLResult, 0, len(results)), Summary: assess.Summarize(results)}
	for _, r := range results {
		row := JQLResult{Key: r.Key}
		if r.Err != nil {
			row.Error = r.Err.Error()
		} else {
			d := r.Duration
			row.Assessment = &d
		}
		out.Results = append(out.Results, row)
	}
	return jsonResult(out)
}

func renderMarkdown(key string, an assess.Analysis) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Duration assessment %s\n\n", key))
	if len(an.Assessment.Anomalies) == 0 {
		sb.WriteString("No anomalies.\n\n")
	} else {
		for _, a := range an.Assessment.Anomalies {
			sb.WriteString("- " + a + "\n")
		}
		sb.WriteString("\n")
	}
	for _, chart := range []string{
		visuals.GenerateTimelineGantt(key, an.Periods, an.BlockedPeriods, an.Now),
		visuals.GenerateStatusHoursChart(an.Assessment.StatusTransitions.AverageTimeInStatus),
		visuals.GenerateCyclingPie(an.Assessment.StatusCycling),
	} {
		if chart != "" {
			sb.WriteString(chart + "\n\n")
		}
	}
	data, _ := json.MarshalIndent(an.Assessment, "", "  ")
	sb.WriteString("```json\n" + string(data) + "\n```\n")
	return sb.String()
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(data))
}

func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}
