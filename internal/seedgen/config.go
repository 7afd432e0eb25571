// Package seedgen generates synthetic candidate/position datasets for
// the allocation service and can trigger a run over HTTP.
package seedgen

import "time"

// Config holds configuration for the seed tool.
type Config struct {
	BaseURL       string        // Base URL of the service
	NumCandidates int           // Number of candidates to generate
	NumPositions  int           // Number of positions to generate
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Output file for the dataset
	TriggerRun    bool          // Trigger an allocation run after writing
	Algorithm     string        // Algorithm for the triggered run
	Incremental   bool          // Incremental flag for the triggered run
	Verbose       bool          // Enable verbose logging
}

// Stats holds seed tool statistics.
type Stats struct {
	CandidatesGenerated int
	PositionsGenerated  int
	TotalCapacity       int
	RunID               string
	MatchesFound        int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
