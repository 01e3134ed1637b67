package assessment

import (
	"math"
	"strings"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// FoundationRating bands a pre-adjustment foundation score.
func FoundationRating(score float64) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 55:
		return "Fair"
	case score >= 40:
		return "Poor"
	default:
		return "Very Poor"
	}
}

// Foundation weakness descriptors.
const (
	WeaknessHydrostatic = "Poor hydrostatic pressure resistance"
	WeaknessScour       = "Vulnerable to scour and erosion"
	WeaknessDebris      = "Susceptible to debris impact damage"
	WeaknessVZone       = "Not permitted in V-zone flood areas"
)

// Weaknesses lists the structural weak points of f in the given flood zone.
func Weaknesses(f domain.FoundationProfile, zoneCode string) []string {
	out := []string{}
	if f.HydrostaticResistance < 0.7 {
		out = append(out, WeaknessHydrostatic)
	}
	if f.ScourResistance < 0.6 {
		out = append(out, WeaknessScour)
	}
	if f.DebrisResistance < 0.6 {
		out = append(out, WeaknessDebris)
	}
	if !f.VZoneAllowed && zoneCode == "V" {
		out = append(out, WeaknessVZone)
	}
	return out
}

// Site risk descriptors.
const (
	RiskLowElevation         = "Low elevation relative to Base Flood Elevation"
	RiskHighSubsidence       = "High land subsidence rate in area"
	RiskVulnerableFoundation = "Foundation type vulnerable to flood forces"
	RiskStormSurge           = "High storm surge risk area"
	RiskFloodHistory         = "History of significant flood events"
)

// RiskFactors describes the site and structure risks that drive the narrative.
func RiskFactors(in domain.BuildingInput, n domain.NeighborhoodProfile, f domain.FoundationProfile) []string {
	out := []string{}
	if in.Elevation < n.BaseBFE+2 {
		out = append(out, RiskLowElevation)
	}
	if n.SubsidenceRate > 0.4 {
		out = append(out, RiskHighSubsidence)
	}
	if f.Rank.WeakerThanOrEqual(domain.RankSlabOnGrade) {
		out = append(out, RiskVulnerableFoundation)
	}
	if n.StormSurgeRisk == domain.SurgeHigh || n.StormSurgeRisk == domain.SurgeExtreme {
		out = append(out, RiskStormSurge)
	}
	for _, event := range n.HistoricalEvents {
		if strings.Contains(event, "severe") || strings.Contains(event, "catastrophic") {
			out = append(out, RiskFloodHistory)
			break
		}
	}
	return out
}

// AnalyzeMitigation compares the current mitigation with every other option
// applicable to the foundation rank, in catalog order.
func AnalyzeMitigation(current domain.MitigationProfile, options []domain.MitigationProfile, rank domain.FoundationRank) domain.MitigationAnalysis {
	missing := []string{}
	costBenefit := []domain.CostBenefit{}

	for _, m := range options {
		if m.Name == current.Name || !rank.In(m.ApplicableFoundations) {
			continue
		}
		missing = append(missing, m.Name)
		costBenefit = append(costBenefit, domain.CostBenefit{
			Feature:  m.Name,
			Cost:     m.Cost,
			Benefit:  math.Round(m.Effectiveness*100*100) / 100,
			Priority: mitigationPriority(m.Effectiveness),
		})
	}

	return domain.MitigationAnalysis{
		CurrentFeatures:    []string{current.Name},
		EffectivenessScore: int(math.Round(current.Effectiveness * 100)),
		MissingFeatures:    missing,
		CostBenefit:        costBenefit,
	}
}

func mitigationPriority(effectiveness float64) domain.Priority {
	switch {
	case effectiveness > 0.15:
		return domain.PriorityHigh
	case effectiveness > 0.08:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
