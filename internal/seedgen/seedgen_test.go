package seedgen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	repository "github.com/talentgrid/placer/internal/adapters/repository"
	"github.com/talentgrid/placer/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestGenerateDatasetShapes(t *testing.T) {
	ctx := context.Background()
	config := &Config{NumCandidates: 50, NumPositions: 10}
	stats := &Stats{}

	d, err := generateDataset(ctx, config, stats)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(d.Candidates) != 50 || len(d.Positions) != 10 {
		t.Fatalf("got %d candidates, %d positions", len(d.Candidates), len(d.Positions))
	}
	if stats.TotalCapacity < 10 {
		t.Fatalf("total capacity %d; want at least one slot per position", stats.TotalCapacity)
	}

	seenEmails := make(map[string]struct{})
	for _, c := range d.Candidates {
		if c.ID == "" || c.Email == "" || c.Skills == "" || c.LocationPref == "" {
			t.Fatalf("incomplete candidate: %+v", c)
		}
		if _, dup := seenEmails[c.Email]; dup {
			t.Fatalf("duplicate email %s", c.Email)
		}
		seenEmails[c.Email] = struct{}{}
		if c.CGPA != nil && (*c.CGPA < 5.0 || *c.CGPA > 9.8) {
			t.Fatalf("cgpa %v out of range", *c.CGPA)
		}
		if n := len(strings.Split(c.Skills, ",")); n < 2 || n > 4 {
			t.Fatalf("candidate has %d skills; want 2-4", n)
		}
	}

	for _, p := range d.Positions {
		if !p.Active {
			t.Fatalf("generated position should be active: %+v", p)
		}
		if p.Capacity < 1 || p.Capacity > 4 {
			t.Fatalf("capacity %d out of range", p.Capacity)
		}
		if p.MinCGPA < 0 || p.MinCGPA > 8.0 {
			t.Fatalf("min cgpa %v out of range", p.MinCGPA)
		}
	}
}

func TestDatasetRoundTripAndApply(t *testing.T) {
	ctx := context.Background()
	config := &Config{NumCandidates: 8, NumPositions: 3}
	d, err := generateDataset(ctx, config, &Stats{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "dataset.yaml")
	if err := WriteDataset(path, d); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Candidates) != len(d.Candidates) || len(loaded.Positions) != len(d.Positions) {
		t.Fatalf("round trip changed row counts")
	}
	for i := range d.Candidates {
		a, b := d.Candidates[i], loaded.Candidates[i]
		if a.Email != b.Email || a.Skills != b.Skills {
			t.Fatalf("candidate %d changed in round trip: %+v vs %+v", i, a, b)
		}
		if (a.CGPA == nil) != (b.CGPA == nil) {
			t.Fatalf("candidate %d lost its CGPA optionality", i)
		}
	}

	store := repository.NewMemStore()
	if err := loaded.Apply(ctx, store); err != nil {
		t.Fatalf("apply: %v", err)
	}
	candidates, err := store.Candidates(ctx, nil)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != len(d.Candidates) {
		t.Fatalf("store has %d candidates; want %d", len(candidates), len(d.Candidates))
	}
	positions, err := store.ActivePositions(ctx)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	if len(positions) != len(d.Positions) {
		t.Fatalf("store has %d active positions; want %d", len(positions), len(d.Positions))
	}
}

func TestLoadDatasetErrors(t *testing.T) {
	if _, err := LoadDataset(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
