package seedgen

import (
	"fmt"
	"os"

	"github.com/talentgrid/placer/pkg/logger"
)

// SetupLogging initializes the logger for the seed tool.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Placer Seed Tool
================

Generates a synthetic candidate/position dataset for the placer
allocation service, and can trigger an allocation run over HTTP.

Usage:
  go run cmd/seed/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -candidates int
        Number of candidates to generate (default 200)
  -positions int
        Number of positions to generate (default 40)
  -output string
        Output file for the dataset (default: seed_dataset_TIMESTAMP.yaml)
  -run
        Trigger an allocation run after writing the dataset
  -algorithm string
        Algorithm for the triggered run (hungarian or greedy)
  -incremental
        Ask the triggered run to respect existing placements
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Generate a dataset only
  go run cmd/seed/main.go -candidates 500 -positions 80 -output data/seed.yaml

  # Generate and trigger a greedy run
  go run cmd/seed/main.go -run -algorithm greedy

  # Incremental pass against a remote service
  go run cmd/seed/main.go -run -incremental -url http://placer:9080
`)
}
