package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	lock "github.com/talentgrid/placer/internal/adapters/lock"
	assign "github.com/talentgrid/placer/internal/domain/assign"
	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/internal/domain/scoring"
	"github.com/talentgrid/placer/pkg/logger"
	"github.com/talentgrid/placer/pkg/metrics"
)

// RunRequest is one allocation pass invocation. Zero values fall back
// to the configured defaults.
type RunRequest struct {
	// Scope restricts the pass to these candidate emails. Empty
	// means every candidate.
	Scope []string

	// Incremental freezes candidates placed by earlier successful
	// runs and subtracts the capacity they consume.
	Incremental bool

	// Weights override the configured component weights.
	Weights *scoring.Weights

	// Algorithm selects the solver: hungarian or greedy.
	Algorithm string

	// EnsembleMethod enables ensemble scoring for this pass:
	// weighted, max_score or voting.
	EnsembleMethod string

	// MethodWeights override the configured lexical/semantic blend.
	MethodWeights map[string]float64
}

// scoredPair carries a pair's score through solving so the breakdown
// can be persisted on the match row.
type scoredPair struct {
	score scoring.Score
	ok    bool
}

// Run executes one allocation pass and returns the recorded run id.
// Only one pass runs at a time; a second concurrent call fails with
// ErrRunInProgress.
func (s *Service) Run(ctx context.Context, req RunRequest) (string, error) {
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = s.cfg.Algorithm
	}
	solver, err := assign.New(algorithm)
	if err != nil {
		return "", fmt.Errorf("%w: algorithm %q", ErrInvalidRequest, algorithm)
	}
	method := req.EnsembleMethod
	if method == "" {
		method = s.cfg.EnsembleMethod
	}
	switch method {
	case "", scoring.MethodWeighted, scoring.MethodMaxScore, scoring.MethodVoting:
	default:
		return "", fmt.Errorf("%w: ensemble method %q", ErrInvalidRequest, method)
	}

	if err := s.runLock.Acquire(ctx); err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return "", ErrRunInProgress
		}
		return "", fmt.Errorf("acquire run lock: %w", err)
	}
	// Release must not depend on the request context still being
	// alive.
	defer func() { _ = s.runLock.Release(context.Background()) }()

	started := s.now()
	metrics.RecordRunStarted(algorithm)

	res, err := s.resolve(ctx, req)
	if err != nil {
		metrics.RecordRunFailed()
		return "", err
	}
	metrics.UpdateEligibleCandidates(len(res.eligible))
	metrics.UpdateFrozenCandidates(res.frozen)
	metrics.UpdateOpenSlots(res.openSlots())

	weights := s.effectiveWeights(req)
	params := model.RunParams{
		RespectExisting: req.Incremental,
		Scoped:          len(req.Scope) > 0,
		FrozenCount:     res.frozen,
		Weights:         model.ParamWeights{Skill: weights.Skill, Location: weights.Location, CGPA: weights.CGPA},
		Algorithm:       algorithm,
		EnsembleMethod:  method,
	}
	if method != "" {
		blend := s.effectiveMethodWeights(req)
		params.MethodWeights = map[string]float64{"lexical": blend.Lexical, "semantic": blend.Semantic}
	}

	if res.note != "" {
		runID, err := s.recordEmptyRun(ctx, params, res)
		if err != nil {
			metrics.RecordRunFailed()
			return "", err
		}
		metrics.RecordRunEmpty()
		s.log().Info(ctx, "allocation run terminated early",
			logger.String("runID", runID),
			logger.String("note", res.note),
		)
		return runID, nil
	}

	scorer := s.scorerFor(req, method, weights)
	thresholds := s.thresholds()

	// Ensemble runs validate during scoring, before the solver sees
	// the matrix.
	pool := newScorePool(scorer, thresholds, method != "", 0)
	pairs, err := pool.ScoreAll(ctx, res.eligible, res.openings)
	if err != nil {
		s.recordFailedRun(params, res, err)
		return "", err
	}

	// A canceled request must not reach the solver or the store.
	if err := ctx.Err(); err != nil {
		s.recordFailedRun(params, res, err)
		return "", err
	}

	slots := assign.ExpandSlots(res.openings)
	slotOpening := make([]int, 0, len(slots))
	for i, o := range res.openings {
		for k := 0; k < o.Remaining; k++ {
			slotOpening = append(slotOpening, i)
		}
	}

	matrix := make([][]float64, len(res.eligible))
	for i := range res.eligible {
		matrix[i] = make([]float64, len(slots))
		for j := range slots {
			if p := pairs[i][slotOpening[j]]; p.ok {
				matrix[i][j] = p.score.Total
			}
		}
	}

	solveStart := time.Now()
	assignments := solver.Solve(matrix)
	metrics.RecordSolverDuration(algorithm, durationMs(solveStart))

	runID := s.newID()
	matches := make([]model.MatchResult, 0, len(assignments))
	for _, a := range assignments {
		pair := pairs[a.Candidate][slotOpening[a.Slot]]
		if !pair.ok {
			continue
		}
		// The plain path validates after solving; the ensemble path
		// already filtered during scoring.
		if method == "" && !thresholds.Accept(pair.score) {
			metrics.RecordValidationRejection()
			continue
		}
		matches = append(matches, model.MatchResult{
			RunID:       runID,
			CandidateID: res.eligible[a.Candidate].ID,
			PositionID:  slots[a.Slot].PositionID,
			FinalScore:  scoring.Round4(pair.score.Total),
			Components:  pair.score.Components(),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].FinalScore != matches[j].FinalScore {
			return matches[i].FinalScore > matches[j].FinalScore
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})

	run := model.AllocationRun{
		ID:        runID,
		Status:    model.StatusSuccess,
		Params:    params.Encode(),
		Metrics:   runMetricsFor(res, matches).Encode(),
		CreatedAt: s.now(),
	}
	if err := s.store.RecordRun(ctx, run, matches); err != nil {
		metrics.RecordRunFailed()
		return "", fmt.Errorf("record run: %w", err)
	}

	metrics.RecordRunCompleted(algorithm)
	metrics.RecordRunDuration(algorithm, float64(s.now().Sub(started).Milliseconds()))
	metrics.RecordMatchesFound(len(matches))
	s.log().Info(ctx, "allocation run recorded",
		logger.String("runID", runID),
		logger.String("algorithm", algorithm),
		logger.Int("candidates", len(res.eligible)),
		logger.Int("slots", len(slots)),
		logger.Int("matches", len(matches)),
	)
	return runID, nil
}

func (s *Service) recordEmptyRun(ctx context.Context, params model.RunParams, res resolution) (string, error) {
	runID := s.newID()
	run := model.AllocationRun{
		ID:        runID,
		Status:    model.StatusSuccess,
		Params:    params.Encode(),
		Metrics:   runMetricsFor(res, nil).Encode(),
		CreatedAt: s.now(),
	}
	if err := s.store.RecordRun(ctx, run, nil); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return runID, nil
}

// recordFailedRun persists a FAILED run row so the failure is visible
// in the run history. Best effort: the original error is what the
// caller sees.
func (s *Service) recordFailedRun(params model.RunParams, res resolution, cause error) {
	metrics.RecordRunFailed()
	runMetrics := runMetricsFor(res, nil)
	runMetrics.Note = cause.Error()
	run := model.AllocationRun{
		ID:        s.newID(),
		Status:    model.StatusFailed,
		Params:    params.Encode(),
		Metrics:   runMetrics.Encode(),
		CreatedAt: s.now(),
	}
	if err := s.store.RecordRun(context.Background(), run, nil); err != nil {
		s.log().Warn(context.Background(), "failed to record failed run", logger.Error(err))
	}
}

func runMetricsFor(res resolution, matches []model.MatchResult) model.RunMetrics {
	m := model.RunMetrics{
		TotalCandidates: len(res.eligible),
		TotalPositions:  len(res.openings),
		MatchesFound:    len(matches),
		Note:            res.note,
	}
	if len(matches) > 0 {
		var total float64
		for _, match := range matches {
			total += match.FinalScore
		}
		m.AverageScore = scoring.Round4(total / float64(len(matches)))
	}
	return m
}

func (s *Service) effectiveWeights(req RunRequest) scoring.Weights {
	if req.Weights != nil {
		return *req.Weights
	}
	return scoring.Weights{
		Skill:    s.cfg.SkillWeight,
		Location: s.cfg.LocationWeight,
		CGPA:     s.cfg.CGPAWeight,
	}
}

func (s *Service) effectiveMethodWeights(req RunRequest) scoring.MethodWeights {
	source := req.MethodWeights
	if source == nil {
		source = s.cfg.MethodWeights
	}
	blend := scoring.MethodWeights{Lexical: source["lexical"], Semantic: source["semantic"]}
	if blend.Lexical < 0 || blend.Semantic < 0 || blend.Lexical+blend.Semantic <= 0 {
		return scoring.DefaultMethodWeights()
	}
	return blend
}

func (s *Service) scorerFor(req RunRequest, method string, weights scoring.Weights) scoring.Scorer {
	lexical := scoring.NewLexicalScorer(
		scoring.WithWeights(weights),
		scoring.WithAcademicBand(s.cfg.CGPABandLow, s.cfg.CGPABandHigh),
	)
	if method == "" {
		return lexical
	}
	semantic := scoring.NewSemanticScorer(s.cache,
		scoring.WithSemanticWeights(weights),
		scoring.WithFallback(lexical),
		scoring.WithSemanticLogger(s.log()),
	)
	return scoring.NewEnsembleScorer(lexical, semantic,
		scoring.WithMethod(method),
		scoring.WithMethodWeights(s.effectiveMethodWeights(req)),
	)
}

func (s *Service) thresholds() scoring.Thresholds {
	return scoring.Thresholds{
		Enabled:     s.cfg.ValidationEnabled,
		MinScore:    s.cfg.MinScoreThreshold,
		MinSkill:    s.cfg.MinSkillMatch,
		MinLocation: s.cfg.MinLocationMatch,
	}
}

func durationMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
