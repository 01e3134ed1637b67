package domain

import "fmt"

// FoundationRank orders foundation types from structurally strongest (1) to
// weakest (6). It is also the key used by zone and mitigation lists.
type FoundationRank uint8

const (
	RankPileColumn FoundationRank = iota + 1
	RankPier
	RankRaisedSlab
	RankCrawlspace
	RankSlabOnGrade
	RankBasement
)

var rankNames = map[FoundationRank]string{
	RankPileColumn:  "pile_column",
	RankPier:        "pier",
	RankRaisedSlab:  "raised_slab",
	RankCrawlspace:  "crawlspace",
	RankSlabOnGrade: "slab_on_grade",
	RankBasement:    "basement",
}

// ParseFoundationRank maps a rank name such as "slab_on_grade" to its rank.
func ParseFoundationRank(s string) (FoundationRank, error) {
	for r, name := range rankNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown foundation rank %q", s)
}

// String returns the rank name, or "rank(n)" for values outside the table.
func (r FoundationRank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rank(%d)", uint8(r))
}

// Valid reports whether r is one of the six defined ranks.
func (r FoundationRank) Valid() bool {
	_, ok := rankNames[r]
	return ok
}

// WeakerThanOrEqual reports whether r is the same as or structurally weaker than other.
func (r FoundationRank) WeakerThanOrEqual(other FoundationRank) bool {
	return r >= other
}

// In reports whether r appears in ranks.
func (r FoundationRank) In(ranks []FoundationRank) bool {
	for _, x := range ranks {
		if x == r {
			return true
		}
	}
	return false
}
