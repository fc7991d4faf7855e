package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"jira-assess/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	outDir := flag.String("out", "./cache", "Archive directory to write to")
	source := flag.String("source", "MOCK", "Archive source ID")
	count := flag.Int("count", 200, "Number of issues to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Now:          time.Now(),
		Seed:         *seed,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *outDir)

	records := engine.Generate(cfg)
	if err := engine.Save(*outDir, *source, records); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Assess with: jira-assess batch --source %s\n", *source)
}
