package validation

import "github.com/ecompta-dev/ecompta/internal/model"

const (
	// BaselineBonus is added once per validation run.
	BaselineBonus = 5
	// MaxScore caps the confidence score.
	MaxScore = 100
)

// Score turns the points awarded by the battery into a confidence score.
func Score(points int) int {
	return min(MaxScore, points+BaselineBonus)
}

// riskBands is evaluated top to bottom; the first band that admits both the
// score and the anomaly count wins.
var riskBands = []struct {
	minScore     int
	maxAnomalies int
	tier         model.RiskTier
}{
	{90, 0, model.RiskVeryLow},
	{80, 1, model.RiskLow},
	{60, 3, model.RiskMedium},
	{40, 5, model.RiskHigh},
}

// ClassifyRisk maps a score and anomaly count to a risk tier.
func ClassifyRisk(score, anomalies int) model.RiskTier {
	for _, b := range riskBands {
		if score >= b.minScore && anomalies <= b.maxAnomalies {
			return b.tier
		}
	}
	return model.RiskVeryHigh
}
