// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"time"
)

// Run statuses persisted on AllocationRun rows.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Candidate represents a person looking for a placement.
type Candidate struct {
	ID           string
	Email        string   // unique, used for scoping
	Name         string
	CGPA         *float64 // nil when never reported
	Skills       string   // free-form, comma/space separated
	LocationPref string
}

// Position represents an opening with limited capacity.
type Position struct {
	ID             string
	Title          string
	Location       string
	Capacity       int
	MinCGPA        float64 // 0 means no academic requirement
	RequiredSkills string
	Active         bool
}

// Slot is one unit of open capacity on a position. Solver-only,
// never persisted.
type Slot struct {
	PositionID string
	Index      int
}

// AllocationRun is one append-only record of an allocation pass.
// Params and Metrics hold serialized RunParams / RunMetrics.
type AllocationRun struct {
	ID        string
	Status    string
	Params    string
	Metrics   string
	CreatedAt time.Time
}

// MatchResult is one candidate→position pairing produced by a run.
// Components holds the serialized score breakdown.
type MatchResult struct {
	RunID       string  `json:"run_id"`
	CandidateID string  `json:"candidate_id"`
	PositionID  string  `json:"position_id"`
	FinalScore  float64 `json:"final_score"`
	Components  string  `json:"components"`
}

// ParamWeights are the component weights a run was invoked with.
type ParamWeights struct {
	Skill    float64 `json:"skill"`
	Location float64 `json:"location"`
	CGPA     float64 `json:"cgpa"`
}

// RunParams captures the full effective configuration of a run.
type RunParams struct {
	RespectExisting bool               `json:"respect_existing"`
	Scoped          bool               `json:"scoped"`
	FrozenCount     int                `json:"frozen_count"`
	Weights         ParamWeights       `json:"weights"`
	Algorithm       string             `json:"algorithm"`
	EnsembleMethod  string             `json:"ensemble_method,omitempty"`
	MethodWeights   map[string]float64 `json:"method_weights,omitempty"`
}

// RunMetrics captures what a run saw and produced.
type RunMetrics struct {
	TotalCandidates int     `json:"total_candidates"`
	TotalPositions  int     `json:"total_positions"`
	MatchesFound    int     `json:"matches_found"`
	AverageScore    float64 `json:"average_score"`
	Note            string  `json:"note,omitempty"`
}

// Encode serializes params for storage on a run row.
func (p RunParams) Encode() string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Encode serializes metrics for storage on a run row.
func (m RunMetrics) Encode() string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ParseRunParams decodes a persisted params payload. Malformed input
// yields the zero value rather than an error; run rows are append-only
// and a bad payload must never make a run unreadable.
func ParseRunParams(s string) RunParams {
	var p RunParams
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return RunParams{}
	}
	return p
}

// ParseRunMetrics decodes a persisted metrics payload. Same leniency
// as ParseRunParams.
func ParseRunMetrics(s string) RunMetrics {
	var m RunMetrics
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return RunMetrics{}
	}
	return m
}
