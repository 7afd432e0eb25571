package scoring

import (
	"context"
	"math"
	"strings"
	"sync"

	embedding "github.com/talentgrid/placer/internal/domain/embedding"
	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/pkg/logger"
)

// Additive boosts for geographically related locations.
const (
	cityStateBoost = 0.3
	regionalBoost  = 0.2
)

// cityStates maps well-known cities to their state, so "Mumbai" and
// "Maharashtra" score as related rather than disjoint.
var cityStates = map[string]string{
	"mumbai":        "maharashtra",
	"delhi":         "delhi",
	"bangalore":     "karnataka",
	"chennai":       "tamil nadu",
	"hyderabad":     "telangana",
	"pune":          "maharashtra",
	"kolkata":       "west bengal",
	"ahmedabad":     "gujarat",
	"jaipur":        "rajasthan",
	"lucknow":       "uttar pradesh",
	"kanpur":        "uttar pradesh",
	"nagpur":        "maharashtra",
	"indore":        "madhya pradesh",
	"bhopal":        "madhya pradesh",
	"visakhapatnam": "andhra pradesh",
	"patna":         "bihar",
	"vadodara":      "gujarat",
	"ludhiana":      "punjab",
	"agra":          "uttar pradesh",
	"nashik":        "maharashtra",
	"faridabad":     "haryana",
	"meerut":        "uttar pradesh",
	"rajkot":        "gujarat",
	"kalyan":        "maharashtra",
	"vasai":         "maharashtra",
	"varanasi":      "uttar pradesh",
	"srinagar":      "jammu and kashmir",
	"aurangabad":    "maharashtra",
	"noida":         "uttar pradesh",
	"solapur":       "maharashtra",
}

// regionStates maps compass regions to their member states, so "North
// India" relates to "Delhi".
var regionStates = map[string][]string{
	"north":   {"delhi", "punjab", "haryana", "himachal pradesh", "jammu and kashmir", "uttarakhand", "uttar pradesh"},
	"south":   {"karnataka", "tamil nadu", "kerala", "andhra pradesh", "telangana"},
	"east":    {"west bengal", "odisha", "bihar", "jharkhand", "assam"},
	"west":    {"maharashtra", "gujarat", "rajasthan", "goa"},
	"central": {"madhya pradesh", "chhattisgarh"},
}

// SemanticOption applies a configuration option to the SemanticScorer.
type SemanticOption func(*SemanticScorer)

// WithSemanticWeights sets the component weights.
func WithSemanticWeights(w Weights) SemanticOption {
	return func(s *SemanticScorer) {
		if w.Skill >= 0 && w.Location >= 0 && w.CGPA >= 0 {
			s.weights = w
		}
	}
}

// WithFallback sets the lexical scorer used when the embedding table
// is unavailable.
func WithFallback(fallback *LexicalScorer) SemanticOption {
	return func(s *SemanticScorer) {
		if fallback != nil {
			s.fallback = fallback
		}
	}
}

// WithSemanticLogger sets the logger used by the scorer.
func WithSemanticLogger(l logger.Logger) SemanticOption {
	return func(s *SemanticScorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// SemanticScorer scores pairs on embedded text similarity, geographic
// relationships and tiered academic standing. When no embedding table
// can be loaded it degrades to its lexical fallback and keeps serving.
type SemanticScorer struct {
	cache    *embedding.Cache
	weights  Weights
	fallback *LexicalScorer
	logger   logger.Logger
	warnOnce sync.Once
}

// NewSemanticScorer creates a semantic scorer backed by the given
// embedding cache.
func NewSemanticScorer(cache *embedding.Cache, opts ...SemanticOption) *SemanticScorer {
	s := &SemanticScorer{
		cache:   cache,
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback == nil {
		s.fallback = NewLexicalScorer(WithWeights(s.weights))
	}
	return s
}

// Score computes the semantic compatibility of the pair.
func (s *SemanticScorer) Score(ctx context.Context, c model.Candidate, p model.Position) (Score, bool, error) {
	if !Admissible(c, p) {
		return Score{}, false, nil
	}

	table, err := s.cache.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Score{}, false, ctx.Err()
		}
		if s.logger == nil {
			s.logger = logger.Get().Named("scoring")
		}
		s.warnOnce.Do(func() {
			s.logger.Warn(ctx, "embedding table unavailable, degrading to lexical components",
				logger.Error(err),
			)
		})
		return s.fallback.Score(ctx, c, p)
	}

	skill := table.Similarity(c.Skills, p.RequiredSkills)
	location := s.location(table, c.LocationPref, p.Location)
	cgpa := 0.0
	if c.CGPA != nil {
		cgpa = *c.CGPA
	}
	academic := tieredAcademic(cgpa, p.MinCGPA)

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
func (s *SemanticScorer) Weights() Weights { return s.weights }

// location scores two locations: exact match wins outright, otherwise
// embedded similarity plus the best applicable geographic boost,
// capped at 1.
func (s *SemanticScorer) location(table *embedding.Table, pref, loc string) float64 {
	pref = strings.ToLower(strings.TrimSpace(pref))
	loc = strings.ToLower(strings.TrimSpace(loc))
	if pref == "" || loc == "" {
		return 0
	}
	if pref == loc {
		return 1
	}

	score := table.Similarity(pref, loc)

	boost := 0.0
	for city, state := range cityStates {
		if (strings.Contains(pref, city) && strings.Contains(loc, state)) ||
			(strings.Contains(loc, city) && strings.Contains(pref, state)) {
			boost = cityStateBoost
			break
		}
	}
	for region, states := range regionStates {
		var other string
		switch {
		case strings.Contains(pref, region):
			other = loc
		case strings.Contains(loc, region):
			other = pref
		default:
			continue
		}
		for _, state := range states {
			if strings.Contains(other, state) {
				boost = math.Max(boost, regionalBoost)
				break
			}
		}
	}

	return math.Min(1, score+boost)
}

// tieredAcademic maps a CGPA onto performance tiers, adds a bonus for
// clearing the position's floor with room to spare, and scales by how
// competitive the floor itself is.
func tieredAcademic(cgpa, minCGPA float64) float64 {
	if cgpa < minCGPA {
		return 0
	}

	var base float64
	switch {
	case cgpa >= 8.5:
		base = 1.0
	case cgpa >= 7.5:
		base = 0.8
	case cgpa >= 6.5:
		base = 0.6
	case cgpa >= 6.0:
		base = 0.4
	default:
		base = 0.2
	}

	diff := cgpa - minCGPA
	switch {
	case diff > 1.0:
		base = math.Min(1, base+math.Min(0.2, diff*0.1))
	case diff > 0.5:
		base = math.Min(1, base+math.Min(0.1, diff*0.15))
	}

	var factor float64
	switch {
	case minCGPA >= 8.0:
		factor = 1.1
	case minCGPA >= 7.0:
		factor = 1.05
	case minCGPA >= 6.0:
		factor = 1.0
	default:
		factor = 0.95
	}

	return math.Min(1, base*factor)
}
