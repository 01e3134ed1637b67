package refdata

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var defaultYAML []byte

// document is the YAML layout of a reference data file. Enumerated fields
// are kept as strings here and parsed into domain types by toDataset.
type document struct {
	Zones         []zoneRecord         `yaml:"zones"`
	Neighborhoods []neighborhoodRecord `yaml:"neighborhoods"`
	Foundations   []foundationRecord   `yaml:"foundations"`
	Materials     []materialRecord     `yaml:"materials"`
	Mitigations   []mitigationRecord   `yaml:"mitigations"`
}

type zoneRecord struct {
	Code               string   `yaml:"code"`
	AllowedFoundations []string `yaml:"allowed_foundations"`
	RequiresOpenings   bool     `yaml:"requires_openings"`
	RequiresBreakaway  bool     `yaml:"requires_breakaway"`
	ScourResistance    string   `yaml:"scour_resistance"`
}

type neighborhoodRecord struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	BaseBFE          float64  `yaml:"base_bfe"`
	RiskMultiplier   float64  `yaml:"risk_multiplier"`
	SeaLevelRise2055 float64  `yaml:"sea_level_rise_2055"`
	SubsidenceRate   float64  `yaml:"subsidence_rate"`
	StormSurgeRisk   string   `yaml:"storm_surge_risk"`
	FloodZone        string   `yaml:"flood_zone"`
	HistoricalEvents []string `yaml:"historical_events"`
}

type foundationRecord struct {
	ID                         string  `yaml:"id"`
	Name                       string  `yaml:"name"`
	Rank                       string  `yaml:"rank"`
	HydrostaticResistance      float64 `yaml:"hydrostatic_resistance"`
	HydrodynamicResistance     float64 `yaml:"hydrodynamic_resistance"`
	ScourResistance            float64 `yaml:"scour_resistance"`
	DebrisResistance           float64 `yaml:"debris_resistance"`
	VZoneAllowed               bool    `yaml:"v_zone_allowed"`
	AZoneAllowed               bool    `yaml:"a_zone_allowed"`
	AnnualDegradationRate      float64 `yaml:"annual_degradation_rate"`
	MaintenanceIntervalYears   int     `yaml:"maintenance_interval_years"`
	ConstructionCostMultiplier float64 `yaml:"construction_cost_multiplier"`
	InsuranceImpact            string  `yaml:"insurance_impact"`
}

type materialRecord struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	FloodResistance float64 `yaml:"flood_resistance"`
	DegradationRate float64 `yaml:"degradation_rate"`
}

type mitigationRecord struct {
	ID                    string   `yaml:"id"`
	Name                  string   `yaml:"name"`
	Effectiveness         float64  `yaml:"effectiveness"`
	ApplicableFoundations []string `yaml:"applicable_foundations"`
	Cost                  float64  `yaml:"cost"`
	NFIPRequired          bool     `yaml:"nfip_required"`
	MaintenanceYears      int      `yaml:"maintenance_years"`
	Description           string   `yaml:"description"`
}

// Default builds a store from the embedded reference data.
func Default() (*Store, error) {
	return Load(bytes.NewReader(defaultYAML))
}

// LoadFile builds a store from a YAML file on disk.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML reference data document and validates it.
func Load(r io.Reader) (*Store, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	ds, err := doc.toDataset()
	if err != nil {
		return nil, err
	}
	return New(ds)
}

func (d document) toDataset() (Dataset, error) {
	var ds Dataset

	for _, z := range d.Zones {
		allowed, err := parseRanks(z.AllowedFoundations)
		if err != nil {
			return Dataset{}, fmt.Errorf("zone %s: %w", z.Code, err)
		}
		tier, err := domain.ParseScourTier(z.ScourResistance)
		if err != nil {
			return Dataset{}, fmt.Errorf("zone %s: %w", z.Code, err)
		}
		ds.Zones = append(ds.Zones, domain.ZoneRequirement{
			Code:               z.Code,
			AllowedFoundations: allowed,
			RequiresOpenings:   z.RequiresOpenings,
			RequiresBreakaway:  z.RequiresBreakaway,
			ScourResistance:    tier,
		})
	}

	for _, n := range d.Neighborhoods {
		surge, err := domain.ParseStormSurgeRisk(n.StormSurgeRisk)
		if err != nil {
			return Dataset{}, fmt.Errorf("neighborhood %s: %w", n.ID, err)
		}
		ds.Neighborhoods = append(ds.Neighborhoods, domain.NeighborhoodProfile{
			ID:               n.ID,
			Name:             n.Name,
			BaseBFE:          n.BaseBFE,
			RiskMultiplier:   n.RiskMultiplier,
			SeaLevelRise2055: n.SeaLevelRise2055,
			SubsidenceRate:   n.SubsidenceRate,
			StormSurgeRisk:   surge,
			FloodZone:        n.FloodZone,
			HistoricalEvents: n.HistoricalEvents,
		})
	}

	for _, f := range d.Foundations {
		rank, err := domain.ParseFoundationRank(f.Rank)
		if err != nil {
			return Dataset{}, fmt.Errorf("foundation %s: %w", f.ID, err)
		}
		impact, err := domain.ParseInsuranceImpact(f.InsuranceImpact)
		if err != nil {
			return Dataset{}, fmt.Errorf("foundation %s: %w", f.ID, err)
		}
		ds.Foundations = append(ds.Foundations, domain.FoundationProfile{
			ID:                         f.ID,
			Name:                       f.Name,
			Rank:                       rank,
			HydrostaticResistance:      f.HydrostaticResistance,
			HydrodynamicResistance:     f.HydrodynamicResistance,
			ScourResistance:            f.ScourResistance,
			DebrisResistance:           f.DebrisResistance,
			VZoneAllowed:               f.VZoneAllowed,
			AZoneAllowed:               f.AZoneAllowed,
			AnnualDegradationRate:      f.AnnualDegradationRate,
			MaintenanceIntervalYears:   f.MaintenanceIntervalYears,
			ConstructionCostMultiplier: f.ConstructionCostMultiplier,
			InsuranceImpact:            impact,
		})
	}

	for _, m := range d.Materials {
		ds.Materials = append(ds.Materials, domain.MaterialProfile{
			ID:              m.ID,
			Name:            m.Name,
			FloodResistance: m.FloodResistance,
			DegradationRate: m.DegradationRate,
		})
	}

	for _, m := range d.Mitigations {
		ranks, err := parseRanks(m.ApplicableFoundations)
		if err != nil {
			return Dataset{}, fmt.Errorf("mitigation %s: %w", m.ID, err)
		}
		ds.Mitigations = append(ds.Mitigations, domain.MitigationProfile{
			ID:                    m.ID,
			Name:                  m.Name,
			Effectiveness:         m.Effectiveness,
			ApplicableFoundations: ranks,
			Cost:                  m.Cost,
			NFIPRequired:          m.NFIPRequired,
			MaintenanceYears:      m.MaintenanceYears,
			Description:           m.Description,
		})
	}

	return ds, nil
}

func parseRanks(names []string) ([]domain.FoundationRank, error) {
	ranks := make([]domain.FoundationRank, 0, len(names))
	for _, name := range names {
		r, err := domain.ParseFoundationRank(name)
		if err != nil {
			return nil, err
		}
		ranks = append(ranks, r)
	}
	return ranks, nil
}
