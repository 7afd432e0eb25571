package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	assign "github.com/talentgrid/placer/internal/domain/assign"
	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/internal/domain/scoring"
	"github.com/talentgrid/placer/pkg/metrics"
)

// Scoring pool configuration constants.
const (
	jobBufferSize = 256
)

// pairJob identifies one candidate/opening cell of the score matrix.
type pairJob struct {
	candidate int
	opening   int
}

// scorePool fans pair scoring out over a fixed set of workers. Every
// cell is scored by exactly one worker, so the result matrix needs no
// locking. The first scorer error cancels the remaining jobs.
type scorePool struct {
	scorer      scoring.Scorer
	thresholds  scoring.Thresholds
	preValidate bool
	workers     int
}

// newScorePool creates a scoring pool. A worker count below one means
// one worker per CPU.
func newScorePool(scorer scoring.Scorer, thresholds scoring.Thresholds, preValidate bool, workers int) *scorePool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &scorePool{
		scorer:      scorer,
		thresholds:  thresholds,
		preValidate: preValidate,
		workers:     workers,
	}
}

// ScoreAll scores every candidate against every opening and returns
// the full matrix. Gated and rejected cells stay at the zero value.
func (p *scorePool) ScoreAll(ctx context.Context, candidates []model.Candidate, openings []assign.Opening) ([][]scoredPair, error) {
	pairs := make([][]scoredPair, len(candidates))
	for i := range pairs {
		pairs[i] = make([]scoredPair, len(openings))
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan pairJob, jobBufferSize)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					if err := p.scoreOne(workerCtx, job, candidates, openings, pairs); err != nil {
						errOnce.Do(func() {
							firstErr = err
							cancel()
						})
						return
					}
				}
			}
		}()
	}

produce:
	for i := range candidates {
		for j := range openings {
			select {
			case jobs <- pairJob{candidate: i, opening: j}:
			case <-workerCtx.Done():
				break produce
			}
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// scoreOne scores a single cell and writes it into the matrix.
func (p *scorePool) scoreOne(
	ctx context.Context,
	job pairJob,
	candidates []model.Candidate,
	openings []assign.Opening,
	pairs [][]scoredPair,
) error {
	c := candidates[job.candidate]
	o := openings[job.opening]

	start := time.Now()
	score, ok, err := p.scorer.Score(ctx, c, o.Position)
	metrics.RecordScoringLatency(durationMs(start))
	if err != nil {
		return fmt.Errorf("score pair %s/%s: %w", c.ID, o.Position.ID, err)
	}
	if !ok {
		metrics.RecordPairGated()
		return nil
	}
	metrics.RecordPairScored()
	if p.preValidate && !p.thresholds.Accept(score) {
		metrics.RecordValidationRejection()
		return nil
	}
	pairs[job.candidate][job.opening] = scoredPair{score: score, ok: true}
	return nil
}
