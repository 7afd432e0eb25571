package assign

import (
	"sort"
)

// Greedy assigns positive-score pairs in descending score order, one
// sweep, honoring candidate-once and slot-once. Ties break by
// candidate index, then slot index.
type Greedy struct{}

// Solve implements Solver.
func (Greedy) Solve(scores [][]float64) []Assignment {
	rows := len(scores)
	if rows == 0 {
		return nil
	}
	cols := len(scores[0])
	if cols == 0 {
		return nil
	}

	var pairs []Assignment
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if scores[i][j] > 0 {
				pairs = append(pairs, Assignment{Candidate: i, Slot: j, Score: scores[i][j]})
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Score != pairs[b].Score {
			return pairs[a].Score > pairs[b].Score
		}
		if pairs[a].Candidate != pairs[b].Candidate {
			return pairs[a].Candidate < pairs[b].Candidate
		}
		return pairs[a].Slot < pairs[b].Slot
	})

	usedCandidate := make([]bool, rows)
	usedSlot := make([]bool, cols)
	var out []Assignment
	for _, pair := range pairs {
		if usedCandidate[pair.Candidate] || usedSlot[pair.Slot] {
			continue
		}
		usedCandidate[pair.Candidate] = true
		usedSlot[pair.Slot] = true
		out = append(out, pair)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Candidate < out[b].Candidate })
	return out
}
