package domain

import "time"

// BuildingInput is a validated assessment request. All identifiers are
// reference data keys.
type BuildingInput struct {
	Neighborhood    string  `json:"neighborhood"`
	FoundationType  string  `json:"foundationType"`
	Elevation       float64 `json:"elevation"`
	Materials       string  `json:"materials"`
	FloodMitigation string  `json:"floodMitigation"`
}

// Condition is the qualitative state of a building at a timeline point.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// RiskLevel is the qualitative flood risk at a timeline point.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskExtreme  RiskLevel = "extreme"
)

// PerformancePoint is the projected performance for one year of the timeline.
type PerformancePoint struct {
	Year         int       `json:"year"`
	Score        int       `json:"score"`
	Conditions   Condition `json:"conditions"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	PrimaryRisks []string  `json:"primaryRisks"`
}

// FoundationAnalysis summarizes the chosen foundation's strength.
type FoundationAnalysis struct {
	CurrentRating        string   `json:"currentRating"`
	StrengthScore        float64  `json:"strengthScore"`
	Weaknesses           []string `json:"weaknesses"`
	RegulatoryCompliance bool     `json:"regulatoryCompliance"`
}

// CostBenefit is one candidate mitigation feature with its cost and benefit.
type CostBenefit struct {
	Feature  string   `json:"feature"`
	Cost     float64  `json:"cost"`
	Benefit  float64  `json:"benefit"`
	Priority Priority `json:"priority"`
}

// MitigationAnalysis compares the current mitigation to applicable alternatives.
type MitigationAnalysis struct {
	CurrentFeatures    []string      `json:"currentFeatures"`
	EffectivenessScore int           `json:"effectivenessScore"`
	MissingFeatures    []string      `json:"missingFeatures"`
	CostBenefit        []CostBenefit `json:"costBenefit"`
}

// ResilienceAssessment is the full result of one assessment.
type ResilienceAssessment struct {
	ResilienceScore         int                `json:"resilienceScore"`
	ConfidenceInterval      [2]int             `json:"confidenceInterval"`
	Timeline                []PerformancePoint `json:"timeline"`
	Recommendations         []Recommendation   `json:"recommendations"`
	Summary                 string             `json:"summary"`
	Neighborhood            string             `json:"neighborhood"`
	RiskFactors             []string           `json:"riskFactors"`
	FoundationAnalysis      FoundationAnalysis `json:"foundationAnalysis"`
	MitigationEffectiveness MitigationAnalysis `json:"mitigationEffectiveness"`
}

// AssessmentEvent is the summary emitted after an assessment completes.
type AssessmentEvent struct {
	ID                   string        `json:"id"`
	Input                BuildingInput `json:"input"`
	ResilienceScore      int           `json:"resilience_score"`
	FoundationScore      float64       `json:"foundation_score"`
	RegulatoryCompliance bool          `json:"regulatory_compliance"`
	Score2055            int           `json:"score_2055"`
	NarrativeSource      string        `json:"narrative_source"`
	AssessedAt           time.Time     `json:"assessed_at"`
}
