package assign

import (
	"math"
	"sort"
)

// Hungarian finds the assignment maximizing the total score. The
// rectangular matrix is padded to a square, scores convert to costs
// against the matrix maximum, and a Kuhn–Munkres minimum-cost pass
// runs in O(n³). Assignments touching a padding row or column, or
// carrying a score ≤ 0, are discarded afterwards.
type Hungarian struct{}

// Solve implements Solver.
func (Hungarian) Solve(scores [][]float64) []Assignment {
	rows := len(scores)
	if rows == 0 {
		return nil
	}
	cols := len(scores[0])
	if cols == 0 {
		return nil
	}

	n := rows
	if cols > n {
		n = cols
	}

	maxScore := 0.0
	for _, row := range scores {
		for _, s := range row {
			if s > maxScore {
				maxScore = s
			}
		}
	}
	if maxScore <= 0 {
		maxScore = 1.0
	}

	// Padding cells behave like score-0 pairs: they cost the maximum.
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i < rows && j < cols {
				cost[i][j] = maxScore - scores[i][j]
			} else {
				cost[i][j] = maxScore
			}
		}
	}

	colToRow := minCostAssignment(cost)

	var out []Assignment
	for j, i := range colToRow {
		if i < 0 || i >= rows || j >= cols {
			continue
		}
		if scores[i][j] <= 0 {
			continue
		}
		out = append(out, Assignment{Candidate: i, Slot: j, Score: scores[i][j]})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Candidate < out[b].Candidate })
	return out
}

// minCostAssignment runs the potentials form of Kuhn–Munkres over a
// square cost matrix and returns, per column, the assigned row. Ties
// resolve by scan order, so the result is stable for a given matrix.
func minCostAssignment(cost [][]float64) []int {
	n := len(cost)
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)   // p[j] is the row matched to column j (1-based)
	way := make([]int, n+1) // predecessor column on the augmenting path

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	colToRow := make([]int, n)
	for j := 1; j <= n; j++ {
		colToRow[j-1] = p[j] - 1
	}
	return colToRow
}
