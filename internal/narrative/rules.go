package narrative

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// Thresholds that trigger rule-based recommendations.
const (
	foundationUpgradeBelow = 70
	elevationMarginFt      = 2
	monitoringSubsidence   = 0.4
	retrofitOverallBelow   = 60
)

// Summary outlook thresholds.
const (
	outlookYear         = 2045
	outlookAdequate     = 65
	criticalScore       = 60
	defaultCriticalYear = 2040
)

// Rules is a deterministic Narrator built from fixed recommendation rules and
// a summary template. It never fails and makes no network calls.
type Rules struct{}

// Narrate implements domain.Narrator.
func (Rules) Narrate(_ context.Context, ac domain.AssessmentContext) (domain.Narrative, error) {
	return domain.Narrative{
		Recommendations: Recommend(ac),
		Summary:         Summarize(ac),
		Source:          domain.SourceRules,
	}, nil
}

// Recommend returns the rule-based recommendations for ac, in rule order.
func Recommend(ac domain.AssessmentContext) []domain.Recommendation {
	recs := []domain.Recommendation{}

	if ac.FoundationScore < foundationUpgradeBelow {
		recs = append(recs, domain.Recommendation{
			Action:      fmt.Sprintf("Upgrade from %s to pile/column foundation", ac.Foundation.Name),
			Priority:    domain.PriorityHigh,
			CostRange:   domain.CostRange{Min: 50000, Max: 120000},
			Benefit:     "Increases resilience score by 20-30% and ensures V-zone compliance",
			Timeframe:   "Within 3 years",
			ROI:         2.5,
			Type:        domain.TypeStructural,
			Feasibility: domain.FeasibilityComplex,
		})
	}

	if ac.Input.Elevation < ac.Neighborhood.BaseBFE+elevationMarginFt {
		recs = append(recs, domain.Recommendation{
			Action:      "Elevate structure additional 2-3 feet above current level",
			Priority:    domain.PriorityHigh,
			CostRange:   domain.CostRange{Min: 25000, Max: 60000},
			Benefit:     "Reduces flood insurance premiums and improves long-term viability",
			Timeframe:   "Within 2 years",
			ROI:         3.0,
			Type:        domain.TypeElevation,
			Feasibility: domain.FeasibilityModerate,
		})
	}

	if ac.Input.FloodMitigation == "none" {
		recs = append(recs, domain.Recommendation{
			Action:      "Install NFIP-compliant flood vents and openings",
			Priority:    domain.PriorityMedium,
			CostRange:   domain.CostRange{Min: 2500, Max: 4000},
			Benefit:     "Required for code compliance, reduces hydrostatic pressure damage",
			Timeframe:   "Within 6 months",
			ROI:         4.0,
			Type:        domain.TypeMitigation,
			Feasibility: domain.FeasibilityEasy,
		})
	}

	if ac.Neighborhood.SubsidenceRate > monitoringSubsidence {
		recs = append(recs, domain.Recommendation{
			Action:      "Implement ongoing foundation monitoring and maintenance program",
			Priority:    domain.PriorityMedium,
			CostRange:   domain.CostRange{Min: 3000, Max: 8000},
			Benefit:     "Early detection of subsidence-related issues, extends foundation life",
			Timeframe:   "Ongoing",
			ROI:         2.0,
			Type:        domain.TypeMitigation,
			Feasibility: domain.FeasibilityEasy,
		})
	}

	if ac.OverallScore < retrofitOverallBelow {
		recs = append(recs, domain.Recommendation{
			Action:      "Comprehensive retrofit with flood-resistant materials",
			Priority:    domain.PriorityHigh,
			CostRange:   domain.CostRange{Min: 15000, Max: 35000},
			Benefit:     "Improves overall resilience and reduces repair costs after flooding",
			Timeframe:   "Within 18 months",
			ROI:         2.2,
			Type:        domain.TypeMaterial,
			Feasibility: domain.FeasibilityModerate,
		})
	}

	return recs
}

// Summarize renders the templated summary: a rating band for the overall
// score, the 2045 outlook, and up to two primary concerns.
func Summarize(ac domain.AssessmentContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your building in %s with %s shows %s flood resilience (%d%%). ",
		ac.Neighborhood.Name, ac.Foundation.Name, band(ac.OverallScore), int(math.Round(ac.OverallScore)))

	if scoreIn(ac.Timeline, outlookYear) >= outlookAdequate {
		b.WriteString("The building should maintain adequate protection through 2045 with proper maintenance. ")
	} else {
		fmt.Fprintf(&b, "Consider major improvements by %d to maintain adequate protection. ", criticalYear(ac.Timeline))
	}

	if concerns := ac.RiskFactors; len(concerns) > 0 {
		if len(concerns) > 2 {
			concerns = concerns[:2]
		}
		fmt.Fprintf(&b, "Primary concerns include %s.", strings.Join(concerns, " and "))
	}

	return strings.TrimSpace(b.String())
}

func band(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 60:
		return "fair"
	default:
		return "poor"
	}
}

// scoreIn returns the timeline score for year, or 0 when the year is absent.
func scoreIn(timeline []domain.PerformancePoint, year int) int {
	for _, p := range timeline {
		if p.Year == year {
			return p.Score
		}
	}
	return 0
}

// criticalYear is the first year whose score drops below 60.
func criticalYear(timeline []domain.PerformancePoint) int {
	for _, p := range timeline {
		if p.Score < criticalScore {
			return p.Year
		}
	}
	return defaultCriticalYear
}
