package service

import (
	"context"
	"fmt"

	assign "github.com/talentgrid/placer/internal/domain/assign"
	model "github.com/talentgrid/placer/internal/domain/model"
)

// Notes recorded on runs that terminate before solving. These runs
// still succeed; the note explains why they carry no matches.
const (
	noteEmptyScope     = "scope matched no candidates"
	noteNoEligible     = "no eligible candidates remain"
	noteNoOpenCapacity = "no open capacity on active positions"
)

// resolution is what an allocation pass works with after eligibility
// and capacity have been settled.
type resolution struct {
	eligible []model.Candidate
	openings []assign.Opening
	frozen   int
	// note is non-empty when the run terminates here with zero
	// matches.
	note string
}

func (r resolution) openSlots() int {
	total := 0
	for _, o := range r.openings {
		total += o.Remaining
	}
	return total
}

// resolve loads candidates and positions and applies the incremental
// projection: candidates already placed by a successful run are
// frozen, and capacity they consume stays consumed. Frozen placements
// are only respected when the request asks for an incremental pass.
func (s *Service) resolve(ctx context.Context, req RunRequest) (resolution, error) {
	candidates, err := s.store.Candidates(ctx, req.Scope)
	if err != nil {
		return resolution{}, fmt.Errorf("load candidates: %w", err)
	}
	positions, err := s.store.ActivePositions(ctx)
	if err != nil {
		return resolution{}, fmt.Errorf("load positions: %w", err)
	}

	frozen := make(map[string]struct{})
	consumed := make(map[string]int)
	if req.Incremental {
		committed, err := s.store.CommittedMatches(ctx)
		if err != nil {
			return resolution{}, fmt.Errorf("load committed matches: %w", err)
		}
		for _, m := range committed {
			frozen[m.CandidateID] = struct{}{}
			consumed[m.PositionID]++
		}
	}

	eligible := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, held := frozen[c.ID]; held {
			continue
		}
		eligible = append(eligible, c)
	}

	openings := make([]assign.Opening, 0, len(positions))
	for _, p := range positions {
		remaining := p.Capacity - consumed[p.ID]
		if remaining > 0 {
			openings = append(openings, assign.Opening{Position: p, Remaining: remaining})
		}
	}

	res := resolution{
		eligible: eligible,
		openings: openings,
		frozen:   len(frozen),
	}
	switch {
	case len(req.Scope) > 0 && len(candidates) == 0:
		res.note = noteEmptyScope
	case len(eligible) == 0:
		res.note = noteNoEligible
	case len(openings) == 0:
		res.note = noteNoOpenCapacity
	}
	return res, nil
}
