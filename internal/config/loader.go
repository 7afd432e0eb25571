package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if PLACER_CONFIG is set
//  3. env (prefix PLACER_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("PLACER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: PLACER_ADDR, PLACER_SKILL_WEIGHT, ...
	// Map env keys like PLACER_SKILL_WEIGHT -> skill_weight (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PLACER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "placer_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field combinations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Algorithm {
	case "hungarian", "greedy":
	default:
		return fmt.Errorf("%w: algorithm %q (want hungarian or greedy)", ErrInvalidConfig, c.Algorithm)
	}
	switch c.EnsembleMethod {
	case "", "weighted", "max_score", "voting":
	default:
		return fmt.Errorf("%w: ensemble_method %q (want weighted, max_score or voting)", ErrInvalidConfig, c.EnsembleMethod)
	}
	if c.SkillWeight < 0 || c.LocationWeight < 0 || c.CGPAWeight < 0 {
		return fmt.Errorf("%w: component weights must not be negative", ErrInvalidConfig)
	}
	if c.SkillWeight+c.LocationWeight+c.CGPAWeight <= 0 {
		return fmt.Errorf("%w: component weights must not all be zero", ErrInvalidConfig)
	}
	for _, threshold := range []float64{c.MinScoreThreshold, c.MinSkillMatch, c.MinLocationMatch} {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: validation floors must sit in [0, 1]", ErrInvalidConfig)
		}
	}
	if c.CGPABandHigh <= c.CGPABandLow {
		return fmt.Errorf("%w: cgpa_band_high must exceed cgpa_band_low", ErrInvalidConfig)
	}
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: storage_driver %q (want memory or postgres)", ErrInvalidConfig, c.StorageDriver)
	}
	return nil
}
