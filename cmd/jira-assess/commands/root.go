package commands

import (
	"context"
	"errors"

	"jira-assess/internal/archive"
	"jira-assess/internal/assess"
	"jira-assess/internal/config"
	"jira-assess/internal/jira"
	"jira-assess/internal/logging"
	"jira-assess/internal/timeline"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose   bool
	rulesFile string

	cfg   *config.AppConfig
	rules config.Rules
)

var rootCmd = &cobra.Command{
	Use:   "jira-assess",
	Short: "Timeline and duration assessment for Jira issues",
	Long: `jira-assess reconstructs an issue's status timeline from its changelog and reports
time in status, business days in progress, sprint overrun, rework cycles, blocked time
with the comments that explain it, and anomaly flags.

Run without a subcommand to serve the assessment tools over MCP (stdio).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		path := rulesFile
		if path == "" {
			path = cfg.RulesFile
		}
		rules, err = config.LoadRules(path)
		if err != nil {
			return err
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("rules", path).
			Msg("jira-assess starting")
		return nil
	},
	RunE: runServe,
}

// Execute runs the root command with ctx as the base context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "YAML rules file (overrides RULES_FILE)")
}

func newAssessor(clock timeline.Clock) *assess.Assessor {
	return assess.NewAssessor(rules, clock)
}

// newProvider builds a Jira-backed archive provider.
func newProvider() (*archive.Provider, jira.Client, error) {
	if cfg.Jira.BaseURL == "" {
		return nil, nil, errors.New("JIRA_URL is not configured")
	}
	client := jira.NewClient(cfg.Jira)
	return archive.NewProvider(client, archive.NewStore(), cfg.CacheDir), client, nil
}
