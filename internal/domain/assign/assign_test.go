package assign_test

import (
	"math/rand"
	"testing"

	assign "github.com/talentgrid/placer/internal/domain/assign"
	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	convey.Convey("Given the solver factory", t, func() {
		convey.Convey("When asking for the known algorithms", func() {
			hungarian, err1 := assign.New(assign.AlgorithmHungarian)
			greedy, err2 := assign.New(assign.AlgorithmGreedy)

			convey.So(err1, convey.ShouldBeNil)
			convey.So(err2, convey.ShouldBeNil)
			convey.So(hungarian, convey.ShouldHaveSameTypeAs, assign.Hungarian{})
			convey.So(greedy, convey.ShouldHaveSameTypeAs, assign.Greedy{})
		})

		convey.Convey("When asking for an unknown algorithm", func() {
			_, err := assign.New("simplex")

			convey.So(err, convey.ShouldWrap, assign.ErrUnknownAlgorithm)
		})
	})
}

func TestExpandSlots(t *testing.T) {
	convey.Convey("Given openings with remaining capacity", t, func() {
		openings := []assign.Opening{
			{Position: model.Position{ID: "p1"}, Remaining: 2},
			{Position: model.Position{ID: "p2"}, Remaining: 0},
			{Position: model.Position{ID: "p3"}, Remaining: 1},
		}

		convey.Convey("When expanding to slots", func() {
			slots := assign.ExpandSlots(openings)

			convey.Convey("Then each unit becomes one slot, in order", func() {
				convey.So(slots, convey.ShouldResemble, []model.Slot{
					{PositionID: "p1", Index: 0},
					{PositionID: "p1", Index: 1},
					{PositionID: "p3", Index: 0},
				})
			})
		})
	})
}

func TestGreedy(t *testing.T) {
	convey.Convey("Given the greedy solver", t, func() {
		solver := assign.Greedy{}

		convey.Convey("When the best local pick blocks a better pairing", func() {
			scores := [][]float64{
				{0.9, 0.8},
				{0.85, 0.1},
			}
			got := solver.Solve(scores)

			convey.Convey("Then greedy takes 0.9 first and settles for 0.1", func() {
				convey.So(got, convey.ShouldResemble, []assign.Assignment{
					{Candidate: 0, Slot: 0, Score: 0.9},
					{Candidate: 1, Slot: 1, Score: 0.1},
				})
			})
		})

		convey.Convey("When scores tie", func() {
			scores := [][]float64{
				{0.5, 0.5},
				{0.5, 0.5},
			}
			got := solver.Solve(scores)

			convey.Convey("Then ties break by candidate then slot index", func() {
				convey.So(got, convey.ShouldResemble, []assign.Assignment{
					{Candidate: 0, Slot: 0, Score: 0.5},
					{Candidate: 1, Slot: 1, Score: 0.5},
				})
			})
		})

		convey.Convey("When all scores are non-positive", func() {
			convey.So(solver.Solve([][]float64{{0, 0}, {0, 0}}), convey.ShouldBeNil)
		})

		convey.Convey("When there are more candidates than slots", func() {
			scores := [][]float64{{0.2}, {0.9}, {0.5}}
			got := solver.Solve(scores)

			convey.Convey("Then only the strongest candidate is placed", func() {
				convey.So(got, convey.ShouldResemble, []assign.Assignment{
					{Candidate: 1, Slot: 0, Score: 0.9},
				})
			})
		})
	})
}

func TestHungarian(t *testing.T) {
	convey.Convey("Given the optimal solver", t, func() {
		solver := assign.Hungarian{}

		convey.Convey("When greedy would lose total score", func() {
			scores := [][]float64{
				{0.9, 0.8},
				{0.85, 0.1},
			}
			got := solver.Solve(scores)

			convey.Convey("Then the cross pairing wins", func() {
				convey.So(got, convey.ShouldResemble, []assign.Assignment{
					{Candidate: 0, Slot: 1, Score: 0.8},
					{Candidate: 1, Slot: 0, Score: 0.85},
				})
				convey.So(assign.Total(got), convey.ShouldBeGreaterThan,
					assign.Total(assign.Greedy{}.Solve(scores)))
			})
		})

		convey.Convey("When the matrix must be padded", func() {
			convey.Convey("And there are more candidates than slots", func() {
				scores := [][]float64{{0.3}, {0.7}, {0.5}}
				got := solver.Solve(scores)

				convey.Convey("Then padding columns never surface as matches", func() {
					convey.So(got, convey.ShouldResemble, []assign.Assignment{
						{Candidate: 1, Slot: 0, Score: 0.7},
					})
				})
			})

			convey.Convey("And there are more slots than candidates", func() {
				scores := [][]float64{{0.3, 0.7, 0.5}}
				got := solver.Solve(scores)

				convey.Convey("Then padding rows never surface as matches", func() {
					convey.So(got, convey.ShouldResemble, []assign.Assignment{
						{Candidate: 0, Slot: 1, Score: 0.7},
					})
				})
			})
		})

		convey.Convey("When every score is zero", func() {
			convey.So(solver.Solve([][]float64{{0, 0}, {0, 0}}), convey.ShouldBeNil)
		})

		convey.Convey("When only some pairs are positive", func() {
			scores := [][]float64{
				{0.0, 0.4},
				{0.0, 0.0},
			}
			got := solver.Solve(scores)

			convey.Convey("Then zero-score assignments are dropped", func() {
				convey.So(got, convey.ShouldResemble, []assign.Assignment{
					{Candidate: 0, Slot: 1, Score: 0.4},
				})
			})
		})

		convey.Convey("When the matrix is full of ties", func() {
			scores := [][]float64{
				{0.5, 0.5},
				{0.5, 0.5},
			}
			first := solver.Solve(scores)
			second := solver.Solve(scores)

			convey.Convey("Then repeated solves agree exactly", func() {
				convey.So(first, convey.ShouldResemble, second)
				convey.So(len(first), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the matrix is empty", func() {
			convey.So(solver.Solve(nil), convey.ShouldBeNil)
			convey.So(solver.Solve([][]float64{}), convey.ShouldBeNil)
			convey.So(solver.Solve([][]float64{{}}), convey.ShouldBeNil)
		})
	})
}

// checkMatching verifies the structural guarantees both solvers share:
// each candidate at most once, each slot at most once, positive scores
// matching the matrix.
func checkMatching(t *testing.T, scores [][]float64, got []assign.Assignment) {
	t.Helper()
	seenCandidate := make(map[int]bool)
	seenSlot := make(map[int]bool)
	for _, a := range got {
		if seenCandidate[a.Candidate] {
			t.Fatalf("candidate %d assigned twice", a.Candidate)
		}
		if seenSlot[a.Slot] {
			t.Fatalf("slot %d assigned twice", a.Slot)
		}
		seenCandidate[a.Candidate] = true
		seenSlot[a.Slot] = true
		if a.Score <= 0 {
			t.Fatalf("non-positive score %f assigned", a.Score)
		}
		if scores[a.Candidate][a.Slot] != a.Score {
			t.Fatalf("assignment score %f disagrees with matrix %f", a.Score, scores[a.Candidate][a.Slot])
		}
	}
}

func TestOptimalDominatesGreedy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	hungarian := assign.Hungarian{}
	greedy := assign.Greedy{}

	for trial := 0; trial < 200; trial++ {
		rows := 1 + rng.Intn(8)
		cols := 1 + rng.Intn(8)
		scores := make([][]float64, rows)
		for i := range scores {
			scores[i] = make([]float64, cols)
			for j := range scores[i] {
				// Leave some pairs at zero to exercise the discard rule.
				if rng.Float64() < 0.3 {
					continue
				}
				scores[i][j] = float64(rng.Intn(1000)) / 1000.0
			}
		}

		optimal := hungarian.Solve(scores)
		approx := greedy.Solve(scores)
		checkMatching(t, scores, optimal)
		checkMatching(t, scores, approx)

		if assign.Total(optimal) < assign.Total(approx)-1e-9 {
			t.Fatalf("trial %d: optimal total %f below greedy total %f for %v",
				trial, assign.Total(optimal), assign.Total(approx), scores)
		}
	}
}

func TestHungarianDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	solver := assign.Hungarian{}

	for trial := 0; trial < 50; trial++ {
		rows := 1 + rng.Intn(6)
		cols := 1 + rng.Intn(6)
		scores := make([][]float64, rows)
		for i := range scores {
			scores[i] = make([]float64, cols)
			for j := range scores[i] {
				// Coarse buckets force frequent ties.
				scores[i][j] = float64(rng.Intn(4)) / 4.0
			}
		}

		first := solver.Solve(scores)
		for rerun := 0; rerun < 3; rerun++ {
			got := solver.Solve(scores)
			if len(got) != len(first) {
				t.Fatalf("trial %d: solve count varied between runs", trial)
			}
			for k := range got {
				if got[k] != first[k] {
					t.Fatalf("trial %d: assignment %d varied between runs", trial, k)
				}
			}
		}
	}
}
