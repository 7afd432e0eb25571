// Package repository defines the allocation store interface and errors.
package repository

import (
	"context"

	model "github.com/talentgrid/placer/internal/domain/model"
)

// Store provides read/write access to candidates, positions, runs and
// matches. Runs are append-only; matches exist only as part of a run.
type Store interface {
	// Candidates returns candidates, optionally filtered by email.
	// A nil or empty scope returns everyone.
	Candidates(ctx context.Context, scopeEmails []string) ([]model.Candidate, error)

	// ActivePositions returns positions open for allocation.
	ActivePositions(ctx context.Context) ([]model.Position, error)

	// LatestSuccessfulRun returns the most recently created run with
	// status SUCCESS. Returns ErrRunNotFound when no such run exists.
	LatestSuccessfulRun(ctx context.Context) (model.AllocationRun, error)

	// CommittedMatches returns the matches of every SUCCESS run.
	CommittedMatches(ctx context.Context) ([]model.MatchResult, error)

	// RecordRun persists the run and its matches atomically, all or
	// nothing. The Postgres driver re-validates remaining capacity for
	// incremental runs inside the transaction and returns
	// ErrCapacityConflict on over-commit; the in-memory driver relies
	// on the run lock serializing writers.
	RecordRun(ctx context.Context, run model.AllocationRun, matches []model.MatchResult) error

	// Run returns a run by id. Returns ErrRunNotFound when unknown.
	Run(ctx context.Context, id string) (model.AllocationRun, error)

	// MatchesByRun returns a run's matches ordered by descending
	// score, ties by candidate id.
	MatchesByRun(ctx context.Context, id string) ([]model.MatchResult, error)

	// RunCount returns the number of recorded runs.
	RunCount(ctx context.Context) int

	// PutCandidate inserts or replaces a candidate. Used by the
	// dataset loader and the seed tool.
	PutCandidate(ctx context.Context, c model.Candidate) error

	// PutPosition inserts or replaces a position.
	PutPosition(ctx context.Context, p model.Position) error
}
