package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/talentgrid/placer/internal/seedgen"
)

// Default configuration constants.
const (
	defaultCandidates  = 200
	defaultPositions   = 40
	defaultTimeout     = 30 * time.Second
	defaultToolTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		candidates  = flag.Int("candidates", defaultCandidates, "Number of candidates to generate")
		positions   = flag.Int("positions", defaultPositions, "Number of positions to generate")
		outputFile  = flag.String("output", "", "Output file for the dataset (default: seed_dataset_TIMESTAMP.yaml)")
		triggerRun  = flag.Bool("run", false, "Trigger an allocation run after writing the dataset")
		algorithm   = flag.String("algorithm", "", "Algorithm for the triggered run (hungarian or greedy)")
		incremental = flag.Bool("incremental", false, "Ask the triggered run to respect existing placements")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedgen.ShowHelp()
		return
	}

	if err := seedgen.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultToolTimeout)
	defer cancel()

	config := &seedgen.Config{
		BaseURL:       *baseURL,
		NumCandidates: *candidates,
		NumPositions:  *positions,
		Timeout:       *timeout,
		OutputFile:    *outputFile,
		TriggerRun:    *triggerRun,
		Algorithm:     *algorithm,
		Incremental:   *incremental,
		Verbose:       *verbose,
	}

	if err := seedgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seed tool failed: " + err.Error() + "\n")
		return
	}
}
