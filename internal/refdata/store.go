// Package refdata holds the read-only reference tables used by the scoring
// engine: neighborhoods, foundation types, materials, mitigation features and
// flood-zone requirements.
//
// A Store is built once at startup and never mutated afterwards, so any
// number of goroutines may read from it without synchronization. Accessors
// return copies of slice fields to keep it that way.
package refdata

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

// Dataset is the raw content of a store, in authoring order.
type Dataset struct {
	Zones         []domain.ZoneRequirement
	Neighborhoods []domain.NeighborhoodProfile
	Foundations   []domain.FoundationProfile
	Materials     []domain.MaterialProfile
	Mitigations   []domain.MitigationProfile
}

// Store is an immutable, validated set of reference tables.
type Store struct {
	ds            Dataset
	zones         map[string]int
	neighborhoods map[string]int
	foundations   map[string]int
	materials     map[string]int
	mitigations   map[string]int
}

// New validates ds and indexes it by id. The store takes a deep copy, so the
// caller may reuse ds afterwards.
func New(ds Dataset) (*Store, error) {
	s := &Store{ds: cloneDataset(ds)}
	if err := s.index(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) index() error {
	var err error
	if s.zones, err = indexBy(s.ds.Zones, "zone", func(z domain.ZoneRequirement) string { return z.Code }); err != nil {
		return err
	}
	if s.neighborhoods, err = indexBy(s.ds.Neighborhoods, "neighborhood", func(n domain.NeighborhoodProfile) string { return n.ID }); err != nil {
		return err
	}
	if s.foundations, err = indexBy(s.ds.Foundations, "foundation", func(f domain.FoundationProfile) string { return f.ID }); err != nil {
		return err
	}
	if s.materials, err = indexBy(s.ds.Materials, "material", func(m domain.MaterialProfile) string { return m.ID }); err != nil {
		return err
	}
	s.mitigations, err = indexBy(s.ds.Mitigations, "mitigation", func(m domain.MitigationProfile) string { return m.ID })
	return err
}

func indexBy[T any](items []T, kind string, key func(T) string) (map[string]int, error) {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		k := key(item)
		if k == "" {
			return nil, fmt.Errorf("%s at position %d has an empty id", kind, i)
		}
		if _, dup := idx[k]; dup {
			return nil, fmt.Errorf("duplicate %s id %q", kind, k)
		}
		idx[k] = i
	}
	return idx, nil
}

// validate enforces the invariants the scoring formulas rely on.
func (s *Store) validate() error {
	var errs []error

	for _, n := range s.ds.Neighborhoods {
		if math.IsNaN(n.RiskMultiplier) || n.RiskMultiplier < 0 || n.RiskMultiplier > 2 {
			errs = append(errs, fmt.Errorf("neighborhood %s: risk multiplier %v outside [0,2]", n.ID, n.RiskMultiplier))
		}
		if !nonNegative(n.BaseBFE) {
			errs = append(errs, fmt.Errorf("neighborhood %s: base BFE %v must be a non-negative number", n.ID, n.BaseBFE))
		}
		if !nonNegative(n.SubsidenceRate) {
			errs = append(errs, fmt.Errorf("neighborhood %s: subsidence rate %v must be a non-negative number", n.ID, n.SubsidenceRate))
		}
		if !nonNegative(n.SeaLevelRise2055) {
			errs = append(errs, fmt.Errorf("neighborhood %s: sea level rise %v must be a non-negative number", n.ID, n.SeaLevelRise2055))
		}
		if _, ok := s.zones[n.FloodZone]; !ok {
			errs = append(errs, fmt.Errorf("neighborhood %s: unknown flood zone %q", n.ID, n.FloodZone))
		}
	}

	for _, f := range s.ds.Foundations {
		if !f.Rank.Valid() {
			errs = append(errs, fmt.Errorf("foundation %s: invalid rank %d", f.ID, f.Rank))
		}
		for name, v := range map[string]float64{
			"hydrostatic":  f.HydrostaticResistance,
			"hydrodynamic": f.HydrodynamicResistance,
			"scour":        f.ScourResistance,
			"debris":       f.DebrisResistance,
		} {
			if !unit(v) {
				errs = append(errs, fmt.Errorf("foundation %s: %s resistance %v outside [0,1]", f.ID, name, v))
			}
		}
		if !nonNegative(f.AnnualDegradationRate) {
			errs = append(errs, fmt.Errorf("foundation %s: degradation rate %v must be a non-negative number", f.ID, f.AnnualDegradationRate))
		}
	}

	for _, m := range s.ds.Materials {
		if !unit(m.FloodResistance) {
			errs = append(errs, fmt.Errorf("material %s: flood resistance %v outside [0,1]", m.ID, m.FloodResistance))
		}
		if !nonNegative(m.DegradationRate) {
			errs = append(errs, fmt.Errorf("material %s: degradation rate %v must be a non-negative number", m.ID, m.DegradationRate))
		}
	}

	for _, m := range s.ds.Mitigations {
		if !unit(m.Effectiveness) {
			errs = append(errs, fmt.Errorf("mitigation %s: effectiveness %v outside [0,1]", m.ID, m.Effectiveness))
		}
		if !nonNegative(m.Cost) {
			errs = append(errs, fmt.Errorf("mitigation %s: cost %v must be a non-negative number", m.ID, m.Cost))
		}
		for _, r := range m.ApplicableFoundations {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("mitigation %s: invalid rank %d", m.ID, r))
			}
		}
	}

	for _, z := range s.ds.Zones {
		for _, r := range z.AllowedFoundations {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("zone %s: invalid rank %d", z.Code, r))
			}
		}
	}

	return errors.Join(errs...)
}

func unit(v float64) bool { return !math.IsNaN(v) && v >= 0 && v <= 1 }

func nonNegative(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 }

// Neighborhood returns the neighborhood with the given id.
func (s *Store) Neighborhood(id string) (domain.NeighborhoodProfile, bool) {
	i, ok := s.neighborhoods[id]
	if !ok {
		return domain.NeighborhoodProfile{}, false
	}
	return cloneNeighborhood(s.ds.Neighborhoods[i]), true
}

// Foundation returns the foundation type with the given id.
func (s *Store) Foundation(id string) (domain.FoundationProfile, bool) {
	i, ok := s.foundations[id]
	if !ok {
		return domain.FoundationProfile{}, false
	}
	return s.ds.Foundations[i], true
}

// Material returns the material with the given id.
func (s *Store) Material(id string) (domain.MaterialProfile, bool) {
	i, ok := s.materials[id]
	if !ok {
		return domain.MaterialProfile{}, false
	}
	return s.ds.Materials[i], true
}

// Mitigation returns the mitigation feature with the given id.
func (s *Store) Mitigation(id string) (domain.MitigationProfile, bool) {
	i, ok := s.mitigations[id]
	if !ok {
		return domain.MitigationProfile{}, false
	}
	return cloneMitigation(s.ds.Mitigations[i]), true
}

// Zone returns the requirements for a flood zone code.
func (s *Store) Zone(code string) (domain.ZoneRequirement, bool) {
	i, ok := s.zones[code]
	if !ok {
		return domain.ZoneRequirement{}, false
	}
	return cloneZone(s.ds.Zones[i]), true
}

// Neighborhoods lists all neighborhoods in authoring order.
func (s *Store) Neighborhoods() []domain.NeighborhoodProfile {
	out := make([]domain.NeighborhoodProfile, len(s.ds.Neighborhoods))
	for i, n := range s.ds.Neighborhoods {
		out[i] = cloneNeighborhood(n)
	}
	return out
}

// Foundations lists all foundation types in authoring order.
func (s *Store) Foundations() []domain.FoundationProfile {
	return slices.Clone(s.ds.Foundations)
}

// Materials lists all materials in authoring order.
func (s *Store) Materials() []domain.MaterialProfile {
	return slices.Clone(s.ds.Materials)
}

// Mitigations lists all mitigation features in authoring order.
func (s *Store) Mitigations() []domain.MitigationProfile {
	out := make([]domain.MitigationProfile, len(s.ds.Mitigations))
	for i, m := range s.ds.Mitigations {
		out[i] = cloneMitigation(m)
	}
	return out
}

// Zones lists all zone requirements in authoring order.
func (s *Store) Zones() []domain.ZoneRequirement {
	out := make([]domain.ZoneRequirement, len(s.ds.Zones))
	for i, z := range s.ds.Zones {
		out[i] = cloneZone(z)
	}
	return out
}

// Counts reports the number of entries per table, keyed by table name.
func (s *Store) Counts() map[string]int {
	return map[string]int{
		"zones":         len(s.ds.Zones),
		"neighborhoods": len(s.ds.Neighborhoods),
		"foundations":   len(s.ds.Foundations),
		"materials":     len(s.ds.Materials),
		"mitigations":   len(s.ds.Mitigations),
	}
}

func cloneDataset(ds Dataset) Dataset {
	out := Dataset{
		Foundations: slices.Clone(ds.Foundations),
		Materials:   slices.Clone(ds.Materials),
	}
	for _, z := range ds.Zones {
		out.Zones = append(out.Zones, cloneZone(z))
	}
	for _, n := range ds.Neighborhoods {
		out.Neighborhoods = append(out.Neighborhoods, cloneNeighborhood(n))
	}
	for _, m := range ds.Mitigations {
		out.Mitigations = append(out.Mitigations, cloneMitigation(m))
	}
	return out
}

func cloneNeighborhood(n domain.NeighborhoodProfile) domain.NeighborhoodProfile {
	n.HistoricalEvents = slices.Clone(n.HistoricalEvents)
	return n
}

func cloneMitigation(m domain.MitigationProfile) domain.MitigationProfile {
	m.ApplicableFoundations = slices.Clone(m.ApplicableFoundations)
	return m
}

func cloneZone(z domain.ZoneRequirement) domain.ZoneRequirement {
	z.AllowedFoundations = slices.Clone(z.AllowedFoundations)
	return z
}
