// Package mcp exposes issue assessment as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"

	"jira-assess/internal/archive"
	"jira-assess/internal/assess"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// DefaultSource is the archive partition used for issues fetched through MCP.
const DefaultSource = "mcp"

// Options tunes the server.
type Options struct {
	Version string
	Source  string
	Workers int
	// MaxResults caps assess_jql when the caller asks for more or for none.
	MaxResults int
}

// Server holds the state for the MCP server.
type Server struct {
	server   *mcp.Server
	provider *archive.Provider
	assessor *assess.Assessor
	opts     Options
}

// NewServer creates an MCP server with the assessment tools registered.
func NewServer(provider *archive.Provider, assessor *assess.Assessor, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Source == "" {
		opts.Source = DefaultSource
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxResults < 1 {
		opts.MaxResults = 200
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "jira-assess",
			Version: opts.Version,
		}, nil),
		provider: provider,
		assessor: assessor,
		opts:     opts,
	}
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("version", s.opts.Version).Msg("Starting MCP server on stdio")
	if err := s.provider.Open(s.opts.Source); err != nil {
		log.Warn().Err(err).Str("source", s.opts.Source).Msg("Failed to load archive")
	}
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
