package seedgen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/talentgrid/placer/pkg/logger"
)

// Run generates the dataset, writes it to disk and optionally
// triggers an allocation run against a live service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting placer seed tool",
		logger.Int("candidates", config.NumCandidates),
		logger.Int("positions", config.NumPositions),
		logger.String("output", config.OutputFile),
		logger.Bool("triggerRun", config.TriggerRun))

	dataset, err := generateDataset(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("dataset generation failed: %w", err)
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "seed_dataset_" + timestamp + ".yaml"
	}
	if err := WriteDataset(filename, dataset); err != nil {
		return fmt.Errorf("dataset write failed: %w", err)
	}
	logger.Get().Info(ctx, "dataset written", logger.String("filename", filename))

	if config.TriggerRun {
		if err := checkServiceHealth(ctx, config); err != nil {
			return fmt.Errorf("service health check failed: %w", err)
		}
		if err := triggerAllocation(ctx, config, stats); err != nil {
			return fmt.Errorf("allocation trigger failed: %w", err)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != statusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// allocationSummary mirrors the summary fields the tool reports.
type allocationSummary struct {
	Status       string  `json:"status"`
	MatchCount   int     `json:"match_count"`
	AverageScore float64 `json:"average_score"`
	Note         string  `json:"note"`
}

// triggerAllocation POSTs an allocation run and reports its summary.
func triggerAllocation(ctx context.Context, config *Config, stats *Stats) error {
	logger.Get().Info(ctx, "triggering allocation run",
		logger.String("algorithm", config.Algorithm),
		logger.Bool("incremental", config.Incremental))

	client := newHTTPClient(config.Timeout)
	payload := map[string]interface{}{
		"incremental": config.Incremental,
	}
	if config.Algorithm != "" {
		payload["algorithm"] = config.Algorithm
	}

	resp, err := client.Post(ctx, config.BaseURL+"/allocations", payload)
	if err != nil {
		return fmt.Errorf("failed to post allocation: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != statusCreated {
		return fmt.Errorf("allocation run failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		RunID   string            `json:"run_id"`
		Summary allocationSummary `json:"summary"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse allocation response: %w", err)
	}

	stats.RunID = result.RunID
	stats.MatchesFound = result.Summary.MatchCount

	logger.Get().Info(ctx, "allocation run recorded",
		logger.String("runID", result.RunID),
		logger.String("status", result.Summary.Status),
		logger.Int("matches", result.Summary.MatchCount),
		logger.Float64("averageScore", result.Summary.AverageScore),
		logger.String("note", result.Summary.Note))
	return nil
}

// displayFinalStats prints the final seed statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("candidatesGenerated", stats.CandidatesGenerated),
		logger.Int("positionsGenerated", stats.PositionsGenerated),
		logger.Int("totalCapacity", stats.TotalCapacity),
		logger.String("runID", stats.RunID),
		logger.Int("matchesFound", stats.MatchesFound),
		logger.String("duration", stats.Duration.String()))
}
