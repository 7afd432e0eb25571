package scoring

import (
	"context"
	"encoding/json"

	model "github.com/talentgrid/placer/internal/domain/model"
)

// Ensemble combination strategies.
const (
	MethodWeighted = "weighted"
	MethodMaxScore = "max_score"
	MethodVoting   = "voting"
)

// Default blend of the two scoring methods.
const (
	DefaultLexicalMethodWeight  = 0.4
	DefaultSemanticMethodWeight = 0.6
)

// MethodWeights blend the two scoring methods in the weighted strategy.
type MethodWeights struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// DefaultMethodWeights returns the standard method blend.
func DefaultMethodWeights() MethodWeights {
	return MethodWeights{Lexical: DefaultLexicalMethodWeight, Semantic: DefaultSemanticMethodWeight}
}

// EnsembleBreakdown records both methods' scores and components plus
// how they were combined.
type EnsembleBreakdown struct {
	LexicalScore  float64       `json:"lexical_score"`
	SemanticScore float64       `json:"semantic_score"`
	Lexical       Breakdown     `json:"lexical_components"`
	Semantic      Breakdown     `json:"semantic_components"`
	Method        string        `json:"ensemble_method"`
	Selected      string        `json:"selected_method"`
	MethodWeights MethodWeights `json:"method_weights"`
	FinalScore    float64       `json:"final_score"`
}

// Encode serializes the breakdown for a match row.
func (b EnsembleBreakdown) Encode() string {
	raw, err := json.Marshal(b)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// EnsembleOption applies a configuration option to the EnsembleScorer.
type EnsembleOption func(*EnsembleScorer)

// WithMethod sets the combination strategy.
func WithMethod(method string) EnsembleOption {
	return func(s *EnsembleScorer) {
		switch method {
		case MethodWeighted, MethodMaxScore, MethodVoting:
			s.method = method
		}
	}
}

// WithMethodWeights sets the blend used by the weighted strategy.
func WithMethodWeights(w MethodWeights) EnsembleOption {
	return func(s *EnsembleScorer) {
		if w.Lexical >= 0 && w.Semantic >= 0 && w.Lexical+w.Semantic > 0 {
			s.methodWeights = w
		}
	}
}

// EnsembleScorer runs the lexical and semantic scorers on every pair
// and combines their results with the configured strategy.
type EnsembleScorer struct {
	lexical       *LexicalScorer
	semantic      *SemanticScorer
	method        string
	methodWeights MethodWeights
}

// NewEnsembleScorer creates an ensemble over the two scorers.
func NewEnsembleScorer(lexical *LexicalScorer, semantic *SemanticScorer, opts ...EnsembleOption) *EnsembleScorer {
	s := &EnsembleScorer{
		lexical:       lexical,
		semantic:      semantic,
		method:        MethodWeighted,
		methodWeights: DefaultMethodWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Method returns the configured combination strategy.
func (s *EnsembleScorer) Method() string { return s.method }

// MethodWeights returns the configured method blend.
func (s *EnsembleScorer) MethodWeights() MethodWeights { return s.methodWeights }

// Score combines both methods' views of the pair.
func (s *EnsembleScorer) Score(ctx context.Context, c model.Candidate, p model.Position) (Score, bool, error) {
	lex, ok, err := s.lexical.Score(ctx, c, p)
	if err != nil || !ok {
		return Score{}, ok, err
	}
	sem, ok, err := s.semantic.Score(ctx, c, p)
	if err != nil || !ok {
		return Score{}, ok, err
	}

	var total float64
	var selected string
	breakdown := EnsembleBreakdown{
		LexicalScore:  Round4(lex.Total),
		SemanticScore: Round4(sem.Total),
		Lexical:       lex.Breakdown,
		Semantic:      sem.Breakdown,
		Method:        s.method,
		MethodWeights: s.methodWeights,
	}

	switch s.method {
	case MethodMaxScore:
		if lex.Total >= sem.Total {
			total = lex.Total
			selected = "lexical"
		} else {
			total = sem.Total
			selected = "semantic"
		}

	case MethodVoting:
		// Each component votes for the stronger method; the winning
		// values recombine under the lexical weights.
		w := s.lexical.Weights()
		skill := componentWinner(lex.Breakdown.Skill, sem.Breakdown.Skill)
		location := componentWinner(lex.Breakdown.Location, sem.Breakdown.Location)
		academic := componentWinner(lex.Breakdown.Academic, sem.Breakdown.Academic)
		total = w.Skill*skill + w.Location*location + w.CGPA*academic
		selected = "hybrid"

	default: // weighted
		total = s.methodWeights.Lexical*lex.Total + s.methodWeights.Semantic*sem.Total
		selected = "weighted"
	}

	breakdown.Selected = selected
	breakdown.FinalScore = Round4(total)
	return Score{Total: total, Ensemble: &breakdown}, true, nil
}

func componentWinner(lexical, semantic float64) float64 {
	if lexical >= semantic {
		return lexical
	}
	return semantic
}
