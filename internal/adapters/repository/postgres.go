package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/pkg/logger"
	"github.com/talentgrid/placer/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements Store on PostgreSQL via lib/pq. For
// incremental runs RecordRun re-validates remaining capacity inside
// its transaction, so two processes racing past the run lock cannot
// over-commit a position.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

// OpenPostgres opens a connection pool for the given DSN and verifies
// it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresStore creates a store over an existing connection pool.
func NewPostgresStore(db *sql.DB, l logger.Logger) *PostgresStore {
	if l == nil {
		l = logger.Get().Named("postgres")
	}
	return &PostgresStore{db: db, logger: l}
}

// EnsureSchema applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Candidates implements Store.
func (s *PostgresStore) Candidates(ctx context.Context, scopeEmails []string) ([]model.Candidate, error) {
	query := `
		SELECT candidate_id, email, name, cgpa, skills_text, location_pref
		FROM candidates`
	args := []any{}
	if len(scopeEmails) > 0 {
		query += ` WHERE lower(email) = ANY($1)`
		lowered := make([]string, len(scopeEmails))
		for i, email := range scopeEmails {
			lowered[i] = lowerTrim(email)
		}
		args = append(args, pq.Array(lowered))
	}
	query += ` ORDER BY candidate_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordStoreError("candidates")
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var cgpa sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &cgpa, &c.Skills, &c.LocationPref); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if cgpa.Valid {
			v := cgpa.Float64
			c.CGPA = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActivePositions implements Store.
func (s *PostgresStore) ActivePositions(ctx context.Context) ([]model.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id, title, location, capacity, min_cgpa, req_skills_text, is_active
		FROM positions
		WHERE is_active
		ORDER BY position_id`)
	if err != nil {
		metrics.RecordStoreError("active_positions")
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ID, &p.Title, &p.Location, &p.Capacity, &p.MinCGPA, &p.RequiredSkills, &p.Active); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestSuccessfulRun implements Store.
func (s *PostgresStore) LatestSuccessfulRun(ctx context.Context) (model.AllocationRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, status, params_json, metrics_json, created_at
		FROM alloc_runs
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT 1`, model.StatusSuccess)
	return scanRun(row)
}

// CommittedMatches implements Store.
func (s *PostgresStore) CommittedMatches(ctx context.Context) ([]model.MatchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mr.run_id, mr.candidate_id, mr.position_id, mr.final_score, mr.component_json
		FROM match_results mr
		JOIN alloc_runs ar ON ar.run_id = mr.run_id
		WHERE ar.status = $1`, model.StatusSuccess)
	if err != nil {
		metrics.RecordStoreError("committed_matches")
		return nil, fmt.Errorf("query committed matches: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor
	return scanMatches(rows)
}

// RecordRun implements Store.
func (s *PostgresStore) RecordRun(ctx context.Context, run model.AllocationRun, matches []model.MatchResult) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		metrics.RecordStoreError("record_run")
		return fmt.Errorf("begin record run: %w", err)
	}
	// No-op after a successful commit.
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn(ctx, "rollback failed", logger.Error(err))
		}
	}()

	// The cross-run capacity invariant binds incremental runs only;
	// a full re-allocation may reuse capacity committed by earlier
	// runs.
	if model.ParseRunParams(run.Params).RespectExisting {
		if err := s.checkCapacity(ctx, tx, matches); err != nil {
			return err
		}
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO alloc_runs (run_id, status, params_json, metrics_json, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Status, run.Params, run.Metrics, run.CreatedAt,
	); err != nil {
		metrics.RecordStoreError("record_run")
		return fmt.Errorf("insert run: %w", err)
	}

	for _, m := range matches {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO match_results (run_id, candidate_id, position_id, final_score, component_json)
			VALUES ($1, $2, $3, $4, $5)`,
			run.ID, m.CandidateID, m.PositionID, m.FinalScore, m.Components,
		); err != nil {
			metrics.RecordStoreError("record_run")
			return fmt.Errorf("insert match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError("record_run")
		return fmt.Errorf("commit record run: %w", err)
	}

	metrics.RecordRunWriteLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordMatchesRecorded(len(matches))
	metrics.UpdateRunsStored(s.RunCount(ctx))
	return nil
}

// checkCapacity verifies, inside the transaction of an incremental
// run, that each touched position still has room for its new matches
// on top of what earlier SUCCESS runs committed.
func (s *PostgresStore) checkCapacity(ctx context.Context, tx *sql.Tx, matches []model.MatchResult) error {
	added := make(map[string]int)
	for _, m := range matches {
		added[m.PositionID]++
	}
	for positionID, count := range added {
		var capacity, used int
		err := tx.QueryRowContext(ctx, `
			SELECT p.capacity,
			       (SELECT COUNT(*)
			        FROM match_results mr
			        JOIN alloc_runs ar ON ar.run_id = mr.run_id
			        WHERE ar.status = $2 AND mr.position_id = p.position_id)
			FROM positions p
			WHERE p.position_id = $1`, positionID, model.StatusSuccess).Scan(&capacity, &used)
		if err != nil {
			metrics.RecordStoreError("record_run")
			return fmt.Errorf("check capacity for %s: %w", positionID, err)
		}
		if used+count > capacity {
			return fmt.Errorf("%w: position %s has %d committed of %d, refusing %d more",
				ErrCapacityConflict, positionID, used, capacity, count)
		}
	}
	return nil
}

// Run implements Store.
func (s *PostgresStore) Run(ctx context.Context, id string) (model.AllocationRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, status, params_json, metrics_json, created_at
		FROM alloc_runs
		WHERE run_id = $1`, id)
	return scanRun(row)
}

// MatchesByRun implements Store.
func (s *PostgresStore) MatchesByRun(ctx context.Context, id string) ([]model.MatchResult, error) {
	if _, err := s.Run(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, candidate_id, position_id, final_score, component_json
		FROM match_results
		WHERE run_id = $1
		ORDER BY final_score DESC, candidate_id ASC`, id)
	if err != nil {
		metrics.RecordStoreError("matches_by_run")
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor
	return scanMatches(rows)
}

// RunCount implements Store.
func (s *PostgresStore) RunCount(ctx context.Context) int {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alloc_runs`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// PutCandidate implements Store.
func (s *PostgresStore) PutCandidate(ctx context.Context, c model.Candidate) error {
	var cgpa sql.NullFloat64
	if c.CGPA != nil {
		cgpa = sql.NullFloat64{Float64: *c.CGPA, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidates (candidate_id, email, name, cgpa, skills_text, location_pref)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (candidate_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			cgpa = EXCLUDED.cgpa,
			skills_text = EXCLUDED.skills_text,
			location_pref = EXCLUDED.location_pref`,
		c.ID, c.Email, c.Name, cgpa, c.Skills, c.LocationPref)
	if err != nil {
		metrics.RecordStoreError("put_candidate")
		return fmt.Errorf("put candidate: %w", err)
	}
	return nil
}

// PutPosition implements Store.
func (s *PostgresStore) PutPosition(ctx context.Context, p model.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (position_id, title, location, capacity, min_cgpa, req_skills_text, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (position_id) DO UPDATE SET
			title = EXCLUDED.title,
			location = EXCLUDED.location,
			capacity = EXCLUDED.capacity,
			min_cgpa = EXCLUDED.min_cgpa,
			req_skills_text = EXCLUDED.req_skills_text,
			is_active = EXCLUDED.is_active`,
		p.ID, p.Title, p.Location, p.Capacity, p.MinCGPA, p.RequiredSkills, p.Active)
	if err != nil {
		metrics.RecordStoreError("put_position")
		return fmt.Errorf("put position: %w", err)
	}
	return nil
}

func scanRun(row *sql.Row) (model.AllocationRun, error) {
	var run model.AllocationRun
	err := row.Scan(&run.ID, &run.Status, &run.Params, &run.Metrics, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AllocationRun{}, ErrRunNotFound
	}
	if err != nil {
		return model.AllocationRun{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

func scanMatches(rows *sql.Rows) ([]model.MatchResult, error) {
	var out []model.MatchResult
	for rows.Next() {
		var m model.MatchResult
		if err := rows.Scan(&m.RunID, &m.CandidateID, &m.PositionID, &m.FinalScore, &m.Components); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
