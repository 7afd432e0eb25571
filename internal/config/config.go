// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env vars.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SkillWeight, LocationWeight and CGPAWeight blend the scoring
	// components. They are the per-run defaults; requests may override.
	SkillWeight    float64 `koanf:"skill_weight"`
	LocationWeight float64 `koanf:"location_weight"`
	CGPAWeight     float64 `koanf:"cgpa_weight"`

	// Algorithm selects the assignment solver: hungarian or greedy.
	Algorithm string `koanf:"algorithm"`

	// EnsembleMethod enables ensemble scoring when set: weighted,
	// max_score or voting. Empty means single-method lexical scoring.
	EnsembleMethod string `koanf:"ensemble_method"`

	// MethodWeights blend the lexical and semantic methods in the
	// weighted ensemble strategy.
	MethodWeights map[string]float64 `koanf:"method_weights"`

	// Validation floors for produced matches.
	MinScoreThreshold float64 `koanf:"min_score_threshold"`
	MinSkillMatch     float64 `koanf:"min_skill_match"`
	MinLocationMatch  float64 `koanf:"min_location_match"`
	ValidationEnabled bool    `koanf:"validation_enabled"`

	// CGPABandLow and CGPABandHigh bound the linear academic
	// normalization used by the lexical scorer.
	CGPABandLow  float64 `koanf:"cgpa_band_low"`
	CGPABandHigh float64 `koanf:"cgpa_band_high"`

	// EmbeddingsPath points at a word-vector table file. Empty
	// disables semantic scoring (the ensemble degrades to lexical).
	EmbeddingsPath string `koanf:"embeddings_path"`

	// Dataset points at a YAML snapshot of candidates and positions
	// loaded into the store at startup.
	Dataset string `koanf:"dataset"`

	// StorageDriver selects the store: memory or postgres.
	StorageDriver string `koanf:"storage_driver"`

	// PostgresDSN is required when StorageDriver is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RedisAddr, when set, switches the run lock to the Redis advisory
	// implementation for multi-process deployments.
	RedisAddr string `koanf:"redis_addr"`
}

// Storage driver names.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		SkillWeight:       0.65,
		LocationWeight:    0.20,
		CGPAWeight:        0.15,
		Algorithm:         "hungarian",
		EnsembleMethod:    "",
		MethodWeights:     map[string]float64{"lexical": 0.4, "semantic": 0.6},
		MinScoreThreshold: 0.2,
		MinSkillMatch:     0.15,
		MinLocationMatch:  0.0,
		ValidationEnabled: true,
		CGPABandLow:       6.0,
		CGPABandHigh:      9.5,
		StorageDriver:     StorageMemory,
	}
}
