package dna

import (
	"math"
	"sort"

	"godna/domain/core"
)

// Blend shares: the pure DNA is a convex mix of the overall profile and
// the similarity-weighted historical years.
const (
	OverallBlendWeight = 0.35
	YearBlendWeight    = 0.65
)

// TrialTotals are the observed (pre-adjusted) totals of the trial window.
type TrialTotals struct {
	Sessions    float64
	Conversions float64
	Revenue     float64
}

// SimilarityWeights maps a historical year to its normalized weight in
// [0,1]. Weights across included years sum to 1.
type SimilarityWeights map[int]float64

// BlendShare returns the year's share of the final blend, i.e. its
// similarity weight scaled by the 65% year portion. Display-oriented.
func (w SimilarityWeights) BlendShare(year int) float64 {
	return w[year] * YearBlendWeight
}

// Years returns the weighted years sorted ascending.
func (w SimilarityWeights) Years() []int {
	years := make([]int, 0, len(w))
	for y := range w {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ComputeSimilarityWeights scores each historical year by how closely
// its demand over the trial window's day-of-year span matches the
// observed trial totals. Daily-granularity rows only; the overall
// pseudo-year and the projection year itself are excluded. Weight is
// the inverse of the mean absolute relative error across the three
// metrics, then normalized to sum to 1. Returns an empty map when no
// historical year overlaps the window.
func ComputeSimilarityWeights(profiles ProfileSet, entities []string, trial core.DayRange, projectionYear int, observed TrialTotals) SimilarityWeights {
	if !trial.IsValid() {
		return SimilarityWeights{}
	}

	inWindow := make(map[int]bool, trial.Len())
	for _, d := range trial.Days() {
		inWindow[d.DayOfYear()] = true
	}

	type totals struct{ sessions, conversions, revenue float64 }
	byYear := map[int]*totals{}

	daily := profiles.ByEntities(entities).ByGranularity(core.GranularityDaily)
	for _, r := range daily {
		if r.Year == OverallYear || r.Year == projectionYear || !inWindow[r.Period] {
			continue
		}
		t := byYear[r.Year]
		if t == nil {
			t = &totals{}
			byYear[r.Year] = t
		}
		t.sessions += r.Sessions
		t.conversions += r.Conversions
		t.revenue += r.Revenue
	}

	raw := make(SimilarityWeights, len(byYear))
	var sum float64
	for year, t := range byYear {
		err := (relErr(observed.Sessions, t.sessions) +
			relErr(observed.Conversions, t.conversions) +
			relErr(observed.Revenue, t.revenue)) / 3.0
		w := 1.0 / (err + 0.01)
		raw[year] = w
		sum += w
	}
	if sum <= 0 {
		return SimilarityWeights{}
	}
	for year := range raw {
		raw[year] /= sum
	}
	return raw
}

// relErr is the absolute relative error with a floor of 1 on the
// observed denominator so a zero observation cannot divide by zero.
func relErr(observed, historical float64) float64 {
	return math.Abs(observed-historical) / math.Max(observed, 1.0)
}
