// Package projection combines foundation, material, mitigation, and
// neighborhood factors into an overall resilience score and projects it
// across a 30-year horizon.
package projection

import (
	"math"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// Projection horizon.
const (
	StartYear = 2025
	EndYear   = 2055
	StepYears = 5
)

// MinScore is the floor for the overall score and every timeline point.
const MinScore = 10

const (
	// seaLevelSensitivity scales the 2055 sea level projection into a score multiplier.
	seaLevelSensitivity = 0.08
	// subsidenceSensitivity is the multiplier loss per in/yr per elapsed year.
	subsidenceSensitivity = 0.02
	// riskDriftPerYear lowers the score used for risk banding as time passes.
	riskDriftPerYear = 0.5
)

// OverallScore blends the site-adjusted foundation score with material,
// mitigation, elevation, and neighborhood contributions. The weights are
// approximate: foundation 50%, material 20%, mitigation 15%, elevation up to
// 10 points, and neighborhood up to 10 points. The result is in [10,100].
func OverallScore(
	foundationScore float64,
	material domain.MaterialProfile,
	mitigation domain.MitigationProfile,
	neighborhood domain.NeighborhoodProfile,
	rf domain.RiskFactors,
) float64 {
	score := foundationScore * 0.5
	score += material.FloodResistance * 20
	score += mitigation.Effectiveness * 15
	score += math.Min(10, rf.ElevationAboveBFE*2)
	score += (2 - neighborhood.RiskMultiplier) * 5

	return math.Max(MinScore, math.Min(100, score))
}

// Timeline projects base forward in 5-year steps from 2025 through 2055.
// Every point is computed from base directly; points are not chained.
func Timeline(
	base float64,
	foundation domain.FoundationProfile,
	neighborhood domain.NeighborhoodProfile,
	material domain.MaterialProfile,
) []domain.PerformancePoint {
	points := make([]domain.PerformancePoint, 0, (EndYear-StartYear)/StepYears+1)

	for year := StartYear; year <= EndYear; year += StepYears {
		elapsed := float64(year - StartYear)

		seaLevel := factor(neighborhood.SeaLevelRise2055 * (elapsed / (EndYear - StartYear)) * seaLevelSensitivity)
		subsidence := factor(neighborhood.SubsidenceRate * elapsed * subsidenceSensitivity)
		foundationWear := factor(foundation.AnnualDegradationRate * elapsed)
		materialWear := factor(material.DegradationRate * elapsed)

		score := int(math.Round(base * seaLevel * subsidence * foundationWear * materialWear))
		if score < MinScore {
			score = MinScore
		}

		points = append(points, domain.PerformancePoint{
			Year:         year,
			Score:        score,
			Conditions:   Condition(score),
			RiskLevel:    RiskLevel(score, elapsed),
			PrimaryRisks: Risks(score, elapsed, neighborhood),
		})
	}

	return points
}

// factor turns a loss fraction into a multiplier, floored at zero so two
// exhausted factors never multiply back into a positive score.
func factor(loss float64) float64 {
	return math.Max(0, 1-loss)
}

// Condition bands a timeline score.
func Condition(score int) domain.Condition {
	switch {
	case score >= 85:
		return domain.ConditionExcellent
	case score >= 70:
		return domain.ConditionGood
	case score >= 55:
		return domain.ConditionFair
	default:
		return domain.ConditionPoor
	}
}

// RiskLevel bands a timeline score after subtracting half a point per
// elapsed year.
func RiskLevel(score int, elapsed float64) domain.RiskLevel {
	adjusted := float64(score) - elapsed*riskDriftPerYear
	switch {
	case adjusted >= 80:
		return domain.RiskLow
	case adjusted >= 65:
		return domain.RiskModerate
	case adjusted >= 45:
		return domain.RiskHigh
	default:
		return domain.RiskExtreme
	}
}

// Timeline risk descriptors.
const (
	RiskSeaLevelRise   = "Sea level rise impacts"
	RiskSubsidence     = "Accelerating land subsidence"
	RiskDegradation    = "Structural degradation"
	RiskClimateOutlook = "Climate change intensification"
)

// Risks lists the risk descriptors active at a timeline point. Each one is
// triggered independently.
func Risks(score int, elapsed float64, n domain.NeighborhoodProfile) []string {
	risks := []string{}
	if elapsed >= 15 && n.SeaLevelRise2055 > 1.0 {
		risks = append(risks, RiskSeaLevelRise)
	}
	if elapsed >= 10 && n.SubsidenceRate > 0.4 {
		risks = append(risks, RiskSubsidence)
	}
	if score < 60 {
		risks = append(risks, RiskDegradation)
	}
	if elapsed >= 20 {
		risks = append(risks, RiskClimateOutlook)
	}
	return risks
}
