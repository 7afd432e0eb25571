// Package assign solves the candidate→slot assignment problem over a
// score matrix. Rows are candidates, columns are capacity slots.
package assign

import (
	model "github.com/talentgrid/placer/internal/domain/model"
)

// Supported assignment algorithms.
const (
	AlgorithmHungarian = "hungarian"
	AlgorithmGreedy    = "greedy"
)

// Assignment pairs a candidate row with a slot column.
type Assignment struct {
	Candidate int
	Slot      int
	Score     float64
}

// Solver picks assignments from a rectangular score matrix. Entries
// with score ≤ 0 are never assigned. Implementations are
// deterministic: the same matrix yields the same assignments.
type Solver interface {
	Solve(scores [][]float64) []Assignment
}

// New returns the solver for the named algorithm.
func New(algorithm string) (Solver, error) {
	switch algorithm {
	case AlgorithmHungarian:
		return Hungarian{}, nil
	case AlgorithmGreedy:
		return Greedy{}, nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}

// Opening is a position with its remaining capacity for this run.
type Opening struct {
	Position  model.Position
	Remaining int
}

// ExpandSlots turns openings into one slot per remaining unit of
// capacity, preserving the opening order. Slots of one position are
// indistinguishable; per-position capacity is enforced simply by each
// slot being assignable once.
func ExpandSlots(openings []Opening) []model.Slot {
	var slots []model.Slot
	for _, o := range openings {
		for i := 0; i < o.Remaining; i++ {
			slots = append(slots, model.Slot{PositionID: o.Position.ID, Index: i})
		}
	}
	return slots
}

// Total sums the scores of a set of assignments.
func Total(assignments []Assignment) float64 {
	var total float64
	for _, a := range assignments {
		total += a.Score
	}
	return total
}
