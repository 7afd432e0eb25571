package scoring

// Default validation floors.
const (
	DefaultMinScoreThreshold = 0.2
	DefaultMinSkillMatch     = 0.15
	DefaultMinLocationMatch  = 0.0
)

// Thresholds are the quality floors a match must clear to be kept.
type Thresholds struct {
	Enabled     bool
	MinScore    float64
	MinSkill    float64
	MinLocation float64
}

// DefaultThresholds returns the standard validation floors.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Enabled:     true,
		MinScore:    DefaultMinScoreThreshold,
		MinSkill:    DefaultMinSkillMatch,
		MinLocation: DefaultMinLocationMatch,
	}
}

// Accept reports whether the score clears every floor. Disabled
// thresholds accept everything.
func (t Thresholds) Accept(s Score) bool {
	if !t.Enabled {
		return true
	}
	if s.Total < t.MinScore {
		return false
	}
	skill, location := s.ValidationComponents()
	if skill < t.MinSkill {
		return false
	}
	if location < t.MinLocation {
		return false
	}
	return true
}
