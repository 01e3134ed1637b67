// Package scoring computes a 0–100 foundation strength score from structural
// coefficients and flood-zone rules, then adjusts it for site risk factors.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// maxDegradationRate is the worst annual degradation rate in the foundation
// table (basement). It normalizes the maintenance term to [0,1].
const maxDegradationRate = 0.035

// Weights are the relative contributions of each foundation score term.
type Weights struct {
	Hydrostatic  float64
	Hydrodynamic float64
	Scour        float64
	Debris       float64
	Regulatory   float64
	Maintenance  float64
}

// DefaultWeights returns the standard weighting, which sums to 1.0.
func DefaultWeights() Weights {
	return Weights{
		Hydrostatic:  0.25,
		Hydrodynamic: 0.20,
		Scour:        0.20,
		Debris:       0.15,
		Regulatory:   0.15,
		Maintenance:  0.05,
	}
}

// Validate rejects negative weights and weightings that do not sum to 1.
func (w Weights) Validate() error {
	parts := []float64{w.Hydrostatic, w.Hydrodynamic, w.Scour, w.Debris, w.Regulatory, w.Maintenance}
	var sum float64
	for _, p := range parts {
		if p < 0 {
			return errors.New("scoring weights must be non-negative")
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("scoring weights sum to %v, want 1", sum)
	}
	return nil
}

// Compliant reports whether rank is allowed in zone. A nil zone means the
// zone code has no entry in the zone table and places no restriction.
func Compliant(rank domain.FoundationRank, zone *domain.ZoneRequirement) bool {
	if zone == nil {
		return true
	}
	return rank.In(zone.AllowedFoundations)
}

// FoundationScore scores a foundation in [0,100]. Non-compliance with the
// zone costs half of what compliance earns. A nil zone has no requirements
// on file and contributes no regulatory term.
func FoundationScore(f domain.FoundationProfile, zone *domain.ZoneRequirement, w Weights) float64 {
	score := f.HydrostaticResistance * w.Hydrostatic * 100
	score += f.HydrodynamicResistance * w.Hydrodynamic * 100
	score += f.ScourResistance * w.Scour * 100
	score += f.DebrisResistance * w.Debris * 100

	switch {
	case zone == nil:
	case Compliant(f.Rank, zone):
		score += w.Regulatory * 100
	default:
		score -= w.Regulatory * 50
	}

	maintenance := (1 - f.AnnualDegradationRate/maxDegradationRate) * 100
	score += maintenance * w.Maintenance

	return clamp(score, 0, 100)
}

// Site adjustments.
const (
	maxElevationBonus   = 15
	elevationBonusPerFt = 2.5
	waterfrontPenalty   = 10
	nearWaterPenalty    = 5
	subsidencePenalty   = 10 // points per in/yr
)

// ApplyRiskAdjustments adds site-specific bonuses and penalties to a
// foundation score and clamps the result to [0,100].
func ApplyRiskAdjustments(base float64, rf domain.RiskFactors) float64 {
	score := base
	score += math.Min(maxElevationBonus, rf.ElevationAboveBFE*elevationBonusPerFt)

	switch {
	case rf.ProximityToWater < 0.1:
		score -= waterfrontPenalty
	case rf.ProximityToWater < 0.5:
		score -= nearWaterPenalty
	}

	score += drainageAdjustment(rf.LocalDrainage)
	score -= rf.SubsidenceRate * subsidencePenalty

	return clamp(score, 0, 100)
}

func drainageAdjustment(d domain.Drainage) float64 {
	switch d {
	case domain.DrainagePoor:
		return -5
	case domain.DrainageGood:
		return 3
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
