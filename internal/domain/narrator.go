package domain

import (
	"context"
	"fmt"
)

// Priority ranks a recommendation or mitigation candidate.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RecommendationType groups recommendations by the part of the building they change.
type RecommendationType string

const (
	TypeStructural RecommendationType = "structural"
	TypeMaterial   RecommendationType = "material"
	TypeElevation  RecommendationType = "elevation"
	TypeMitigation RecommendationType = "mitigation"
)

// Feasibility is how hard a recommendation is to carry out.
type Feasibility string

const (
	FeasibilityEasy     Feasibility = "easy"
	FeasibilityModerate Feasibility = "moderate"
	FeasibilityComplex  Feasibility = "complex"
)

// CostRange is an inclusive dollar range.
type CostRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Recommendation is one actionable step to improve flood resilience.
type Recommendation struct {
	Action      string             `json:"action"`
	Priority    Priority           `json:"priority"`
	CostRange   CostRange          `json:"costRange"`
	Benefit     string             `json:"benefit"`
	Timeframe   string             `json:"timeframe"`
	ROI         float64            `json:"roi"`
	Type        RecommendationType `json:"type"`
	Feasibility Feasibility        `json:"feasibility"`
}

// Validate checks that the enumerated fields hold known values.
func (r Recommendation) Validate() error {
	if r.Action == "" {
		return fmt.Errorf("recommendation action is empty")
	}
	switch r.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("unknown priority %q", r.Priority)
	}
	switch r.Type {
	case TypeStructural, TypeMaterial, TypeElevation, TypeMitigation:
	default:
		return fmt.Errorf("unknown recommendation type %q", r.Type)
	}
	switch r.Feasibility {
	case FeasibilityEasy, FeasibilityModerate, FeasibilityComplex:
	default:
		return fmt.Errorf("unknown feasibility %q", r.Feasibility)
	}
	if r.CostRange.Min < 0 || r.CostRange.Max < r.CostRange.Min {
		return fmt.Errorf("invalid cost range %v-%v", r.CostRange.Min, r.CostRange.Max)
	}
	return nil
}

// Narrative sources reported in Narrative.Source.
const (
	SourceRemote = "remote"
	SourceRules  = "rules"
	SourceCache  = "cache"
)

// Narrative is the text output of a narrator.
type Narrative struct {
	Recommendations []Recommendation `json:"recommendations"`
	Summary         string           `json:"summary"`
	Source          string           `json:"source,omitempty"`
}

// AssessmentContext is everything a narrator needs to describe an assessment.
type AssessmentContext struct {
	Input           BuildingInput       `json:"input"`
	FoundationScore float64             `json:"foundationScore"`
	OverallScore    float64             `json:"overallScore"`
	Timeline        []PerformancePoint  `json:"timeline"`
	Neighborhood    NeighborhoodProfile `json:"neighborhood"`
	Foundation      FoundationProfile   `json:"foundation"`
	RiskFactors     []string            `json:"riskFactors"`
	Site            RiskFactors         `json:"site"`
	Mitigation      MitigationAnalysis  `json:"mitigation"`
}

// Narrator produces recommendations and a summary for an assessment.
type Narrator interface {
	Narrate(ctx context.Context, ac AssessmentContext) (Narrative, error)
}
