// Package domain models flood resilience assessments for New Orleans
// properties.
//
// # Reference Data
//
// Neighborhood, foundation, material, mitigation, and flood-zone records are
// read-only value objects loaded once at startup (see package refdata). The
// foundation table and mitigation applicability lists derive from FEMA flood
// resistant construction guidance; neighborhood figures are per-neighborhood
// approximations rather than parcel-level data.
//
// # Conventions
//
// Elevations and Base Flood Elevation (BFE) are in feet. Subsidence rates are
// inches per year. Sea level rise is the projected rise in feet by 2055.
// Coefficients (resistance, effectiveness) are in [0,1] where 1 is best.
//
// Foundation rank:
//
//	1 pile/column, 2 pier, 3 raised slab, 4 crawlspace, 5 slab-on-grade, 6 basement
//
//	Lower ranks are structurally superior. The rank doubles as the key used by
//	flood-zone allowed lists and mitigation applicability lists, so it is a
//	distinct ordinal type compared through methods rather than arithmetic.
//
// Flood zones:
//
//	V, A_COASTAL, A, AE, X. A zone code missing from the zone table places no
//	restriction on foundations (compliance defaults to true).
//
// Site risk factors:
//
//	Proximity to water, drainage quality, and soil type are fixed placeholder
//	values until address-level data is available. Elevation above BFE is
//	clamped at zero.
//
// # Scores
//
// All scores are on a 0–100 scale. The overall resilience score is floored at
// 10 and the projected timeline never drops below 10.
package domain
