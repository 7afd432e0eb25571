// Package service runs allocation passes and answers queries about
// recorded runs. It owns the pipeline: resolve eligibility and
// capacity, score candidate↔position pairs, solve the assignment,
// validate matches and record the run atomically.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	lock "github.com/talentgrid/placer/internal/adapters/lock"
	repository "github.com/talentgrid/placer/internal/adapters/repository"
	"github.com/talentgrid/placer/internal/config"
	embedding "github.com/talentgrid/placer/internal/domain/embedding"
	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/pkg/logger"
	"github.com/talentgrid/placer/pkg/metrics"
)

// Service implements the allocation API surface.
type Service struct {
	store   repository.Store
	runLock lock.RunLock
	cache   *embedding.Cache
	cfg     *config.Config

	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the allocation store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLock sets the run lock serializing allocation passes.
func WithLock(l lock.RunLock) Option {
	return func(s *Service) {
		if l != nil {
			s.runLock = l
		}
	}
}

// WithEmbeddingCache sets the embedding cache used by the semantic
// scorer.
func WithEmbeddingCache(cache *embedding.Cache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithConfig sets the service configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the run id generator. Used by tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs a Service with default configuration: in-memory
// store, in-process run lock, configuration defaults.
func New(opts ...Option) *Service {
	s := &Service{
		runLock: lock.NewMutex(),
		cfg:     config.New(context.Background()),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.cache == nil {
		s.cache = embedding.NewCache(s.cfg.EmbeddingsPath)
	}
	return s
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		s.logger = logger.Get().Named("allocator")
	}
	return s.logger
}

// Summary is the condensed view of one recorded run.
type Summary struct {
	RunID             string          `json:"run_id"`
	Status            string          `json:"status"`
	MatchCount        int             `json:"match_count"`
	CandidatesMatched int             `json:"candidates_matched"`
	PositionsMatched  int             `json:"positions_matched"`
	AverageScore      float64         `json:"average_score"`
	Note              string          `json:"note,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	Params            model.RunParams `json:"params"`
}

// Summary returns the summary of a run by id. Returns
// repository.ErrRunNotFound for unknown ids.
func (s *Service) Summary(ctx context.Context, runID string) (Summary, error) {
	run, err := s.store.Run(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	matches, err := s.store.MatchesByRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	return buildSummary(run, matches), nil
}

// Latest returns the summary of the most recent successful run.
// Returns repository.ErrRunNotFound when no run succeeded yet.
func (s *Service) Latest(ctx context.Context) (Summary, error) {
	run, err := s.store.LatestSuccessfulRun(ctx)
	if err != nil {
		return Summary{}, err
	}
	matches, err := s.store.MatchesByRun(ctx, run.ID)
	if err != nil {
		return Summary{}, err
	}
	return buildSummary(run, matches), nil
}

// Matches returns a run's matches ordered by descending score, ties
// by candidate id. Returns repository.ErrRunNotFound for unknown ids.
func (s *Service) Matches(ctx context.Context, runID string) ([]model.MatchResult, error) {
	if _, err := s.store.Run(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.MatchesByRun(ctx, runID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	runCount := s.store.RunCount(ctx)
	metrics.UpdateRunsStored(runCount)

	return map[string]interface{}{
		"runsStored":     runCount,
		"storageDriver":  s.cfg.StorageDriver,
		"algorithm":      s.cfg.Algorithm,
		"ensembleMethod": s.cfg.EnsembleMethod,
		"validation":     s.cfg.ValidationEnabled,
	}
}

func buildSummary(run model.AllocationRun, matches []model.MatchResult) Summary {
	runMetrics := model.ParseRunMetrics(run.Metrics)

	candidates := make(map[string]struct{}, len(matches))
	positions := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		candidates[m.CandidateID] = struct{}{}
		positions[m.PositionID] = struct{}{}
	}

	return Summary{
		RunID:             run.ID,
		Status:            run.Status,
		MatchCount:        len(matches),
		CandidatesMatched: len(candidates),
		PositionsMatched:  len(positions),
		AverageScore:      runMetrics.AverageScore,
		Note:              runMetrics.Note,
		CreatedAt:         run.CreatedAt,
		Params:            model.ParseRunParams(run.Params),
	}
}
