package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/pkg/metrics"
)

// MemStore is the in-memory Store used by default and in tests.
// Candidates and positions keep insertion order so scans stay
// deterministic.
type MemStore struct {
	mu         sync.RWMutex
	candidates []model.Candidate
	positions  []model.Position
	runs       []model.AllocationRun
	matches    map[string][]model.MatchResult // run id → matches
	now        func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		matches: make(map[string][]model.MatchResult),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Candidates implements Store.
func (s *MemStore) Candidates(_ context.Context, scopeEmails []string) ([]model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(scopeEmails) == 0 {
		out := make([]model.Candidate, len(s.candidates))
		copy(out, s.candidates)
		return out, nil
	}

	wanted := make(map[string]struct{}, len(scopeEmails))
	for _, email := range scopeEmails {
		wanted[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	var out []model.Candidate
	for _, c := range s.candidates {
		if _, ok := wanted[strings.ToLower(c.Email)]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ActivePositions implements Store.
func (s *MemStore) ActivePositions(_ context.Context) ([]model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Position
	for _, p := range s.positions {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// LatestSuccessfulRun implements Store.
func (s *MemStore) LatestSuccessfulRun(_ context.Context) (model.AllocationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest model.AllocationRun
	found := false
	for _, run := range s.runs {
		if run.Status != model.StatusSuccess {
			continue
		}
		// Ties on creation time go to the later-appended run.
		if !found || !run.CreatedAt.Before(latest.CreatedAt) {
			latest = run
			found = true
		}
	}
	if !found {
		return model.AllocationRun{}, ErrRunNotFound
	}
	return latest, nil
}

// CommittedMatches implements Store.
func (s *MemStore) CommittedMatches(_ context.Context) ([]model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.MatchResult
	for _, run := range s.runs {
		if run.Status != model.StatusSuccess {
			continue
		}
		out = append(out, s.matches[run.ID]...)
	}
	return out, nil
}

// RecordRun implements Store.
func (s *MemStore) RecordRun(_ context.Context, run model.AllocationRun, matches []model.MatchResult) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	s.runs = append(s.runs, run)
	if len(matches) > 0 {
		stored := make([]model.MatchResult, len(matches))
		copy(stored, matches)
		s.matches[run.ID] = stored
	}

	metrics.RecordRunWriteLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordMatchesRecorded(len(matches))
	metrics.UpdateRunsStored(len(s.runs))
	return nil
}

// Run implements Store.
func (s *MemStore) Run(_ context.Context, id string) (model.AllocationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return model.AllocationRun{}, ErrRunNotFound
}

// MatchesByRun implements Store.
func (s *MemStore) MatchesByRun(_ context.Context, id string) ([]model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.runLocked(id); err != nil {
		return nil, err
	}
	out := make([]model.MatchResult, len(s.matches[id]))
	copy(out, s.matches[id])
	sortMatches(out)
	return out, nil
}

// RunCount implements Store.
func (s *MemStore) RunCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// PutCandidate implements Store.
func (s *MemStore) PutCandidate(_ context.Context, c model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.candidates {
		if s.candidates[i].ID == c.ID {
			s.candidates[i] = c
			return nil
		}
	}
	s.candidates = append(s.candidates, c)
	return nil
}

// PutPosition implements Store.
func (s *MemStore) PutPosition(_ context.Context, p model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.positions {
		if s.positions[i].ID == p.ID {
			s.positions[i] = p
			return nil
		}
	}
	s.positions = append(s.positions, p)
	return nil
}

func (s *MemStore) runLocked(id string) (model.AllocationRun, error) {
	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return model.AllocationRun{}, ErrRunNotFound
}

// sortMatches orders by descending score, ties by candidate id so
// listings are stable.
func sortMatches(matches []model.MatchResult) {
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].FinalScore != matches[b].FinalScore {
			return matches[a].FinalScore > matches[b].FinalScore
		}
		return matches[a].CandidateID < matches[b].CandidateID
	})
}
