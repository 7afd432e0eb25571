package seedgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	repository "github.com/talentgrid/placer/internal/adapters/repository"
	model "github.com/talentgrid/placer/internal/domain/model"
)

// File permission constants.
const (
	filePermission      = 0o600
	directoryPermission = 0o750
)

// Dataset is the YAML snapshot the service loads at startup.
type Dataset struct {
	Candidates []CandidateSeed `yaml:"candidates"`
	Positions  []PositionSeed  `yaml:"positions"`
}

// CandidateSeed mirrors one candidate row in the dataset file.
type CandidateSeed struct {
	ID           string   `yaml:"id"`
	Email        string   `yaml:"email"`
	Name         string   `yaml:"name"`
	CGPA         *float64 `yaml:"cgpa,omitempty"`
	Skills       string   `yaml:"skills"`
	LocationPref string   `yaml:"location_pref"`
}

// PositionSeed mirrors one position row in the dataset file.
type PositionSeed struct {
	ID             string  `yaml:"id"`
	Title          string  `yaml:"title"`
	Location       string  `yaml:"location"`
	Capacity       int     `yaml:"capacity"`
	MinCGPA        float64 `yaml:"min_cgpa"`
	RequiredSkills string  `yaml:"required_skills"`
	Active         bool    `yaml:"active"`
}

// Model converts the seed row to the domain candidate.
func (c CandidateSeed) Model() model.Candidate {
	return model.Candidate{
		ID:           c.ID,
		Email:        c.Email,
		Name:         c.Name,
		CGPA:         c.CGPA,
		Skills:       c.Skills,
		LocationPref: c.LocationPref,
	}
}

// Model converts the seed row to the domain position.
func (p PositionSeed) Model() model.Position {
	return model.Position{
		ID:             p.ID,
		Title:          p.Title,
		Location:       p.Location,
		Capacity:       p.Capacity,
		MinCGPA:        p.MinCGPA,
		RequiredSkills: p.RequiredSkills,
		Active:         p.Active,
	}
}

// LoadDataset reads and parses a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var d Dataset
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &d, nil
}

// WriteDataset serializes the dataset to path, creating the directory
// when needed.
func WriteDataset(path string, d *Dataset) error {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, filePermission); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// Apply loads every row of the dataset into the store.
func (d *Dataset) Apply(ctx context.Context, store repository.Store) error {
	for _, c := range d.Candidates {
		if err := store.PutCandidate(ctx, c.Model()); err != nil {
			return fmt.Errorf("seed candidate %s: %w", c.ID, err)
		}
	}
	for _, p := range d.Positions {
		if err := store.PutPosition(ctx, p.Model()); err != nil {
			return fmt.Errorf("seed position %s: %w", p.ID, err)
		}
	}
	return nil
}
