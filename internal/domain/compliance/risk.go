package compliance

// Scoring weights. Fixed engine constants, not runtime configuration.
const (
	MissingDocWeight = 20
	ExpiredDocWeight = 30
	OpenFlagWeight   = 25

	MaxScore = 100

	// HighRiskThreshold is the score at or above which the high-risk
	// sweep raises a finding.
	HighRiskThreshold = 60
)

// Level is the qualitative risk band derived from the numeric score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// ComputeScore combines document gaps and open findings into a bounded
// score. The raw sum saturates at MaxScore instead of overflowing.
func ComputeScore(missing, expired int, openFlags int64) int {
	raw := missing*MissingDocWeight + expired*ExpiredDocWeight + int(openFlags)*OpenFlagWeight
	if raw > MaxScore {
		return MaxScore
	}
	return raw
}

func LevelFor(score int) Level {
	switch {
	case score <= 20:
		return LevelLow
	case score <= 50:
		return LevelMedium
	default:
		return LevelHigh
	}
}
