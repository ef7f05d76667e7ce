package dna

import (
	"sort"

	"godna/domain/core"
)

// OverallYear is the pseudo-year carrying the all-time aggregate profile.
const OverallYear = 0

// IndexRecord is one row of the historical profile store: a single
// (entity, year, granularity, period) cell with raw sums, derived rates
// and median-normalized indices. The index columns have median 1.0 per
// series by construction; see BuildProfiles.
type IndexRecord struct {
	Entity      string           `db:"entity" json:"entity"`
	Year        int              `db:"year" json:"year"` // OverallYear for the all-time aggregate
	Granularity core.Granularity `db:"granularity" json:"granularity"`
	Period      int              `db:"period" json:"period"`

	Sessions    float64 `db:"sessions" json:"sessions"`
	Conversions float64 `db:"conversions" json:"conversions"`
	Revenue     float64 `db:"revenue" json:"revenue"`
	ConvRate    float64 `db:"conv_rate" json:"conv_rate"`
	OrderValue  float64 `db:"order_value" json:"order_value"`

	IdxSessions   float64 `db:"idx_sessions" json:"idx_sessions"`
	IdxConvRate   float64 `db:"idx_conv_rate" json:"idx_conv_rate"`
	IdxOrderValue float64 `db:"idx_order_value" json:"idx_order_value"`
}

// Transaction is one raw daily observation for an entity, the source
// material for profile building and signature extraction.
type Transaction struct {
	Entity      string   `db:"entity" json:"entity"`
	Day         core.Day `db:"day" json:"day"`
	Sessions    float64  `db:"sessions" json:"sessions"`
	Conversions float64  `db:"conversions" json:"conversions"`
	Revenue     float64  `db:"revenue" json:"revenue"`
}

// ProfileSet is an immutable collection of profile rows with filter
// helpers. Filters return views; records are never mutated.
type ProfileSet []IndexRecord

// ByEntities keeps rows whose entity is in the (normalized) selection.
func (p ProfileSet) ByEntities(entities []string) ProfileSet {
	want := make(map[string]bool, len(entities))
	for _, e := range core.NormalizeEntities(entities) {
		want[e] = true
	}
	out := make(ProfileSet, 0, len(p))
	for _, r := range p {
		if want[core.NormalizeEntity(r.Entity)] {
			out = append(out, r)
		}
	}
	return out
}

// ByGranularity keeps rows at the given granularity.
func (p ProfileSet) ByGranularity(g core.Granularity) ProfileSet {
	out := make(ProfileSet, 0, len(p))
	for _, r := range p {
		if r.Granularity == g {
			out = append(out, r)
		}
	}
	return out
}

// ByYear keeps rows for one year (OverallYear for the aggregate).
func (p ProfileSet) ByYear(year int) ProfileSet {
	out := make(ProfileSet, 0, len(p))
	for _, r := range p {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}

// Years lists the real historical years present, sorted ascending and
// excluding the overall pseudo-year.
func (p ProfileSet) Years() []int {
	seen := map[int]bool{}
	for _, r := range p {
		if r.Year != OverallYear {
			seen[r.Year] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Entities lists the distinct normalized entity names, sorted.
func (p ProfileSet) Entities() []string {
	seen := map[string]bool{}
	for _, r := range p {
		seen[core.NormalizeEntity(r.Entity)] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
