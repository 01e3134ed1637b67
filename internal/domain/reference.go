package domain

import "fmt"

// StormSurgeRisk is a neighborhood's storm surge exposure category.
type StormSurgeRisk string

const (
	SurgeLow      StormSurgeRisk = "low"
	SurgeModerate StormSurgeRisk = "moderate"
	SurgeHigh     StormSurgeRisk = "high"
	SurgeExtreme  StormSurgeRisk = "extreme"
)

// ParseStormSurgeRisk validates a storm surge category.
func ParseStormSurgeRisk(s string) (StormSurgeRisk, error) {
	switch v := StormSurgeRisk(s); v {
	case SurgeLow, SurgeModerate, SurgeHigh, SurgeExtreme:
		return v, nil
	}
	return "", fmt.Errorf("unknown storm surge risk %q", s)
}

// InsuranceImpact is the qualitative effect of a foundation type on flood insurance.
type InsuranceImpact string

const (
	InsurancePositive InsuranceImpact = "positive"
	InsuranceNeutral  InsuranceImpact = "neutral"
	InsuranceNegative InsuranceImpact = "negative"
)

// ParseInsuranceImpact validates an insurance impact label.
func ParseInsuranceImpact(s string) (InsuranceImpact, error) {
	switch v := InsuranceImpact(s); v {
	case InsurancePositive, InsuranceNeutral, InsuranceNegative:
		return v, nil
	}
	return "", fmt.Errorf("unknown insurance impact %q", s)
}

// ScourTier is the scour resistance a flood zone demands.
type ScourTier string

const (
	ScourLow      ScourTier = "low"
	ScourModerate ScourTier = "moderate"
	ScourHigh     ScourTier = "high"
)

// ParseScourTier validates a scour resistance tier.
func ParseScourTier(s string) (ScourTier, error) {
	switch v := ScourTier(s); v {
	case ScourLow, ScourModerate, ScourHigh:
		return v, nil
	}
	return "", fmt.Errorf("unknown scour tier %q", s)
}

// Drainage is local drainage quality around a site.
type Drainage string

const (
	DrainagePoor Drainage = "poor"
	DrainageFair Drainage = "fair"
	DrainageGood Drainage = "good"
)

// SoilType is the dominant soil type at a site.
type SoilType string

const (
	SoilClay  SoilType = "clay"
	SoilSand  SoilType = "sand"
	SoilMixed SoilType = "mixed"
)

// NeighborhoodProfile holds flood and subsidence parameters for a neighborhood.
type NeighborhoodProfile struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	BaseBFE          float64        `json:"baseBFE"`
	RiskMultiplier   float64        `json:"riskMultiplier"`
	SeaLevelRise2055 float64        `json:"sealevelrise2055"`
	SubsidenceRate   float64        `json:"subsidenceRate"`
	StormSurgeRisk   StormSurgeRisk `json:"stormSurgeRisk"`
	FloodZone        string         `json:"floodZone"`
	HistoricalEvents []string       `json:"historicalEvents"`
}

// FoundationProfile holds structural performance coefficients for a foundation type.
type FoundationProfile struct {
	ID                         string          `json:"id"`
	Name                       string          `json:"name"`
	Rank                       FoundationRank  `json:"rank"`
	HydrostaticResistance      float64         `json:"hydrostaticResistance"`
	HydrodynamicResistance     float64         `json:"hydrodynamicResistance"`
	ScourResistance            float64         `json:"scourResistance"`
	DebrisResistance           float64         `json:"debrisResistance"`
	VZoneAllowed               bool            `json:"vZoneAllowed"`
	AZoneAllowed               bool            `json:"aZoneAllowed"`
	AnnualDegradationRate      float64         `json:"annualDegradationRate"`
	MaintenanceIntervalYears   int             `json:"maintenanceIntervalYears"`
	ConstructionCostMultiplier float64         `json:"constructionCostMultiplier"`
	InsuranceImpact            InsuranceImpact `json:"insuranceImpact"`
}

// MaterialProfile holds flood resistance and degradation for an exterior material.
type MaterialProfile struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	FloodResistance float64 `json:"floodResistance"`
	DegradationRate float64 `json:"degradationRate"`
}

// MitigationProfile describes a flood mitigation feature.
type MitigationProfile struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	Effectiveness         float64          `json:"effectiveness"`
	ApplicableFoundations []FoundationRank `json:"applicableFoundations"`
	Cost                  float64          `json:"cost"`
	NFIPRequired          bool             `json:"nfipRequired"`
	MaintenanceYears      int              `json:"maintenanceYears"`
	Description           string           `json:"description"`
}

// ZoneRequirement lists the construction rules for one flood zone code.
type ZoneRequirement struct {
	Code               string           `json:"code"`
	AllowedFoundations []FoundationRank `json:"allowedFoundations"`
	RequiresOpenings   bool             `json:"requiresOpenings"`
	RequiresBreakaway  bool             `json:"requiresBreakaway"`
	ScourResistance    ScourTier        `json:"scourResistance"`
}

// RiskFactors are site conditions derived for a single assessment.
type RiskFactors struct {
	ElevationAboveBFE float64  `json:"elevationAboveBFE"`
	ProximityToWater  float64  `json:"proximityToWater"`
	LocalDrainage     Drainage `json:"localDrainage"`
	SoilType          SoilType `json:"soilType"`
	SubsidenceRate    float64  `json:"subsidenceRate"`
}
