package seedgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/talentgrid/placer/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	cgpaTierDivisor    = 10
)

// Constants for CGPA tier ranges.
const (
	eliteCGPAMin     = 8.5
	eliteCGPARange   = 1.3
	strongCGPAMin    = 7.5
	strongCGPARange  = 1.0
	averageCGPAMin   = 6.0
	averageCGPARange = 1.5
	weakCGPAMin      = 5.0
	weakCGPARange    = 1.0
)

// Constants for CGPA tier cases. Two of the ten cases leave the CGPA
// unreported, matching real intake data.
const (
	caseEliteCandidate   = 0
	caseStrongCandidate  = 1
	caseStrongCandidate2 = 2
	caseAverageCandidate = 3
	caseAverageCand2     = 4
	caseAverageCand3     = 5
	caseAverageCand4     = 6
	caseWeakCandidate    = 7
)

// Constants for generation spreads.
const (
	minSkillsPerCandidate = 2
	skillSpread           = 3 // 2-4 skills per candidate
	minCapacity           = 1
	capacitySpread        = 4 // capacity 1-4
	positionThresholdGap  = 3 // every third position has no CGPA floor
)

// skillPools group related skills; a candidate draws from one pool so
// profiles look coherent rather than uniformly random.
var skillPools = [][]string{
	{"python", "sql", "django", "flask", "postgresql"},
	{"java", "spring", "hibernate", "mysql", "kafka"},
	{"javascript", "typescript", "react", "node", "css"},
	{"go", "docker", "kubernetes", "grpc", "redis"},
	{"python", "pandas", "numpy", "machine learning", "statistics"},
	{"c++", "linux", "networking", "embedded", "rust"},
}

// positionTitles pair a title with the pool its requirements draw from.
var positionTitles = []struct {
	title string
	pool  int
}{
	{"Backend Engineer", 0},
	{"Java Developer", 1},
	{"Frontend Engineer", 2},
	{"Platform Engineer", 3},
	{"Data Analyst", 4},
	{"Systems Engineer", 5},
}

// cities are the location preferences and position sites.
var cities = []string{
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Hyderabad",
	"Pune", "Kolkata", "Ahmedabad", "Jaipur", "Nagpur",
}

var firstNames = []string{
	"Aarav", "Ananya", "Arjun", "Diya", "Ishaan",
	"Kavya", "Rohan", "Sanya", "Vihaan", "Zara",
}

var lastNames = []string{
	"Sharma", "Patel", "Reddy", "Iyer", "Khan",
	"Das", "Mehta", "Nair", "Singh", "Bose",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using
// crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, n).
func getRandomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateDataset creates the synthetic candidates and positions.
func generateDataset(ctx context.Context, config *Config, stats *Stats) (*Dataset, error) {
	logger.Get().Info(ctx, "generating dataset",
		logger.Int("candidates", config.NumCandidates),
		logger.Int("positions", config.NumPositions))

	d := &Dataset{
		Candidates: make([]CandidateSeed, config.NumCandidates),
		Positions:  make([]PositionSeed, config.NumPositions),
	}

	for i := 0; i < config.NumCandidates; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		d.Candidates[i] = generateSingleCandidate(i)
	}
	for i := 0; i < config.NumPositions; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		p := generateSinglePosition(i)
		stats.TotalCapacity += p.Capacity
		d.Positions[i] = p
	}

	stats.CandidatesGenerated = len(d.Candidates)
	stats.PositionsGenerated = len(d.Positions)
	logger.Get().Info(ctx, "generated dataset successfully",
		logger.Int("candidates", stats.CandidatesGenerated),
		logger.Int("positions", stats.PositionsGenerated),
		logger.Int("totalCapacity", stats.TotalCapacity))
	return d, nil
}

// generateSingleCandidate creates one candidate with a coherent skill
// profile and a tiered CGPA.
func generateSingleCandidate(index int) CandidateSeed {
	pool := skillPools[getRandomInt(len(skillPools))]
	count := minSkillsPerCandidate + getRandomInt(skillSpread)
	if count > len(pool) {
		count = len(pool)
	}

	// Draw without replacement from the pool.
	picked := make([]string, 0, count)
	used := make(map[int]struct{}, count)
	for len(picked) < count {
		k := getRandomInt(len(pool))
		if _, ok := used[k]; ok {
			continue
		}
		used[k] = struct{}{}
		picked = append(picked, pool[k])
	}

	skills := picked[0]
	for _, s := range picked[1:] {
		skills += "," + s
	}

	name := firstNames[getRandomInt(len(firstNames))] + " " + lastNames[getRandomInt(len(lastNames))]

	return CandidateSeed{
		ID:           uuid.NewString(),
		Email:        fmt.Sprintf("candidate%04d@example.com", index),
		Name:         name,
		CGPA:         generateTieredCGPA(),
		Skills:       skills,
		LocationPref: cities[getRandomInt(len(cities))],
	}
}

// generateTieredCGPA returns a CGPA drawn from a tiered distribution,
// or nil for the unreported tier.
func generateTieredCGPA() *float64 {
	var v float64
	switch getRandomInt(cgpaTierDivisor) {
	case caseEliteCandidate:
		v = eliteCGPAMin + getRandomFloat()*eliteCGPARange
	case caseStrongCandidate, caseStrongCandidate2:
		v = strongCGPAMin + getRandomFloat()*strongCGPARange
	case caseAverageCandidate, caseAverageCand2, caseAverageCand3, caseAverageCand4:
		v = averageCGPAMin + getRandomFloat()*averageCGPARange
	case caseWeakCandidate:
		v = weakCGPAMin + getRandomFloat()*weakCGPARange
	default:
		// Unreported CGPA.
		return nil
	}
	return &v
}

// generateSinglePosition creates one position whose requirements draw
// from a single skill pool.
func generateSinglePosition(index int) PositionSeed {
	spec := positionTitles[getRandomInt(len(positionTitles))]
	pool := skillPools[spec.pool]

	required := pool[0] + " " + pool[1]
	if getRandomInt(2) == 1 {
		required += " " + pool[2]
	}

	minCGPA := 0.0
	if index%positionThresholdGap != 0 {
		minCGPA = averageCGPAMin + getRandomFloat()*2.0
	}

	return PositionSeed{
		ID:             uuid.NewString(),
		Title:          spec.title,
		Location:       cities[getRandomInt(len(cities))],
		Capacity:       minCapacity + getRandomInt(capacitySpread),
		MinCGPA:        minCGPA,
		RequiredSkills: required,
		Active:         true,
	}
}
