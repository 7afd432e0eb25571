// Package scoring computes candidate↔position compatibility scores.
// Every component and aggregate lands in [0, 1].
package scoring

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	model "github.com/talentgrid/placer/internal/domain/model"
)

// Default component weights and the academic normalization band.
const (
	DefaultSkillWeight    = 0.65
	DefaultLocationWeight = 0.20
	DefaultCGPAWeight     = 0.15
	DefaultBandLow        = 6.0
	DefaultBandHigh       = 9.5
)

// Weights are the component weights of an aggregate score.
type Weights struct {
	Skill    float64 `json:"skill"`
	Location float64 `json:"location"`
	CGPA     float64 `json:"cgpa"`
}

// DefaultWeights returns the standard component weights.
func DefaultWeights() Weights {
	return Weights{Skill: DefaultSkillWeight, Location: DefaultLocationWeight, CGPA: DefaultCGPAWeight}
}

// Breakdown is the per-component view of one scored pair. Values are
// rounded to four decimals before persisting.
type Breakdown struct {
	Skill    float64 `json:"skill_score"`
	Location float64 `json:"location_score"`
	Academic float64 `json:"cgpa_score"`
	Weights  Weights `json:"weights"`
}

// Encode serializes the breakdown for a match row.
func (b Breakdown) Encode() string {
	raw, err := json.Marshal(b)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Score is a scored pair plus its serializable breakdown. Ensemble is
// set only by the ensemble scorer.
type Score struct {
	Total     float64
	Breakdown Breakdown
	Ensemble  *EnsembleBreakdown
}

// Components serializes whichever breakdown applies.
func (s Score) Components() string {
	if s.Ensemble != nil {
		return s.Ensemble.Encode()
	}
	return s.Breakdown.Encode()
}

// ValidationComponents returns the skill and location values the match
// validator checks against its floors. For ensemble scores those are
// the semantic side's components.
func (s Score) ValidationComponents() (skill, location float64) {
	if s.Ensemble != nil {
		return s.Ensemble.Semantic.Skill, s.Ensemble.Semantic.Location
	}
	return s.Breakdown.Skill, s.Breakdown.Location
}

// Scorer computes the compatibility of one candidate↔position pair.
// The boolean reports whether the pair is admissible at all: false
// means the candidate's known CGPA falls below the position's floor.
type Scorer interface {
	Score(ctx context.Context, c model.Candidate, p model.Position) (Score, bool, error)
}

// LexicalOption applies a configuration option to the LexicalScorer.
type LexicalOption func(*LexicalScorer)

// WithWeights sets the component weights.
func WithWeights(w Weights) LexicalOption {
	return func(s *LexicalScorer) {
		if w.Skill >= 0 && w.Location >= 0 && w.CGPA >= 0 {
			s.weights = w
		}
	}
}

// WithAcademicBand sets the CGPA normalization band.
func WithAcademicBand(low, high float64) LexicalOption {
	return func(s *LexicalScorer) {
		if high > low {
			s.bandLow = low
			s.bandHigh = high
		}
	}
}

// LexicalScorer scores pairs on token overlap, exact location match
// and a linear CGPA band.
type LexicalScorer struct {
	weights  Weights
	bandLow  float64
	bandHigh float64
}

// NewLexicalScorer creates a lexical scorer with configuration options.
func NewLexicalScorer(opts ...LexicalOption) *LexicalScorer {
	s := &LexicalScorer{
		weights:  DefaultWeights(),
		bandLow:  DefaultBandLow,
		bandHigh: DefaultBandHigh,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the lexical compatibility of the pair.
func (s *LexicalScorer) Score(_ context.Context, c model.Candidate, p model.Position) (Score, bool, error) {
	if !Admissible(c, p) {
		return Score{}, false, nil
	}

	skill := Jaccard(c.Skills, p.RequiredSkills)
	location := exactLocation(c.LocationPref, p.Location)
	academic := s.academic(c.CGPA, p.MinCGPA)

	total := s.weights.Skill*skill + s.weights.Location*location + s.weights.CGPA*academic
	return Score{
		Total: total,
		Breakdown: Breakdown{
			Skill:    Round4(skill),
			Location: Round4(location),
			Academic: Round4(academic),
			Weights:  s.weights,
		},
	}, true, nil
}

// Weights returns the scorer's component weights.
func (s *LexicalScorer) Weights() Weights { return s.weights }

// academic normalizes a CGPA into the band, but only when the position
// states a requirement. An unreported CGPA contributes nothing.
func (s *LexicalScorer) academic(cgpa *float64, minCGPA float64) float64 {
	if cgpa == nil || minCGPA <= 0 {
		return 0
	}
	return clamp01((*cgpa - s.bandLow) / (s.bandHigh - s.bandLow))
}

// Admissible reports whether the pair passes the academic gate. Only a
// known CGPA below the position's floor excludes a pair; an unreported
// CGPA passes and simply scores zero on the academic component.
func Admissible(c model.Candidate, p model.Position) bool {
	return c.CGPA == nil || *c.CGPA >= p.MinCGPA
}

// Jaccard is the token-set overlap of the two texts: lowercase, split
// on whitespace and commas, |A∩B| / |A∪B|. An empty side scores 0.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// Round4 rounds to four decimals, the precision persisted on match rows.
func Round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func exactLocation(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" || a != b {
		return 0
	}
	return 1
}

func tokenSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	}) {
		if tok = strings.TrimSpace(tok); tok != "" {
			out[tok] = struct{}{}
		}
	}
	return out
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
