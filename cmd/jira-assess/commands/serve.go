package commands

import (
	"jira-assess/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment tools over MCP (stdio)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	provider, _, err := newProvider()
	if err != nil {
		return err
	}
	server := mcp.NewServer(provider, newAssessor(nil), mcp.Options{
		Version: Version,
		Workers: cfg.BatchWorkers,
	})
	return server.Run(cmd.Context())
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
