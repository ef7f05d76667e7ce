package dna

import (
	"math"
	"testing"

	"godna/domain/core"
)

// monthlyIdx builds one monthly profile row with the given index values.
func monthlyIdx(entity string, year, month int, s, cr, aov float64) IndexRecord {
	return IndexRecord{
		Entity:      entity,
		Year:        year,
		Granularity: core.GranularityMonthly,
		Period:      month,
		IdxSessions: s, IdxConvRate: cr, IdxOrderValue: aov,
	}
}

// allMonths builds monthly rows for months 1..12 at a flat index value.
func allMonths(entity string, year int, v float64) ProfileSet {
	var out ProfileSet
	for m := 1; m <= 12; m++ {
		out = append(out, monthlyIdx(entity, year, m, v, v, v))
	}
	return out
}

// TestBlendIdentity tests the 0.35/0.65 convex blend with one year
func TestBlendIdentity(t *testing.T) {
	profiles := append(allMonths("alpha", OverallYear, 1.0), allMonths("alpha", 2024, 2.0)...)
	weights := SimilarityWeights{2024: 1.0}

	dna := BlendPureDNA(profiles, []string{"alpha"}, weights)
	want := 0.35*1.0 + 0.65*2.0
	for m := 1; m <= 12; m++ {
		got := dna.At(m)
		if math.Abs(got.Sessions-want) > 1e-9 {
			t.Errorf("Month %d: expected %v, got %v", m, want, got.Sessions)
		}
	}
}

// TestBlendTwoYears tests the weighted sum across years
func TestBlendTwoYears(t *testing.T) {
	profiles := append(allMonths("alpha", OverallYear, 1.0), allMonths("alpha", 2024, 2.0)...)
	profiles = append(profiles, allMonths("alpha", 2023, 4.0)...)
	weights := SimilarityWeights{2024: 0.75, 2023: 0.25}

	dna := BlendPureDNA(profiles, []string{"alpha"}, weights)
	want := 0.35*1.0 + 0.65*(0.75*2.0+0.25*4.0)
	if got := dna.At(6).Sessions; math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected blended index %v, got %v", want, got)
	}
}

// TestBlendMissingMonthFallsBackToOverall tests sparse-year handling
func TestBlendMissingMonthFallsBackToOverall(t *testing.T) {
	profiles := allMonths("alpha", OverallYear, 1.2)
	// 2024 only has data for the first half of the year.
	for m := 1; m <= 6; m++ {
		profiles = append(profiles, monthlyIdx("alpha", 2024, m, 2.0, 2.0, 2.0))
	}
	weights := SimilarityWeights{2024: 1.0}

	dna := BlendPureDNA(profiles, []string{"alpha"}, weights)

	present := 0.35*1.2 + 0.65*2.0
	if got := dna.At(3).Sessions; math.Abs(got-present) > 1e-9 {
		t.Errorf("Present month: expected %v, got %v", present, got)
	}

	// Missing months substitute the overall median for the year term.
	missing := 0.35*1.2 + 0.65*1.2
	if got := dna.At(9).Sessions; math.Abs(got-missing) > 1e-9 {
		t.Errorf("Missing month: expected fallback %v, got %v", missing, got)
	}
}

// TestBlendWithoutWeights tests the overall-only degenerate case
func TestBlendWithoutWeights(t *testing.T) {
	profiles := allMonths("alpha", OverallYear, 2.0)

	dna := BlendPureDNA(profiles, []string{"alpha"}, SimilarityWeights{})
	want := 0.35 * 2.0
	if got := dna.At(1).Sessions; math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected overall-only blend %v, got %v", want, got)
	}
}

// TestBlendSilentMonthStaysNeutral tests the neutral fallback
func TestBlendSilentMonthStaysNeutral(t *testing.T) {
	// Only month 1 has any profile data.
	profiles := ProfileSet{monthlyIdx("alpha", OverallYear, 1, 1.5, 1.5, 1.5)}

	dna := BlendPureDNA(profiles, []string{"alpha"}, SimilarityWeights{})
	if got := dna.At(7).Sessions; math.Abs(got-0.35) > 1e-9 {
		// With no overall data for month 7, the base is neutral 1.0
		// scaled by the 35% share.
		t.Errorf("Expected neutral base 0.35 for silent month, got %v", got)
	}
	if dna.At(7).Sessions != dna.At(7).ConvRate || dna.At(7).ConvRate != dna.At(7).OrderValue {
		t.Error("Expected all dimensions to share the neutral fallback")
	}
}

// TestBlendMedianAcrossEntities tests that medians pool selected entities
func TestBlendMedianAcrossEntities(t *testing.T) {
	profiles := ProfileSet{
		monthlyIdx("alpha", OverallYear, 5, 1.0, 1.0, 1.0),
		monthlyIdx("beta", OverallYear, 5, 3.0, 3.0, 3.0),
	}

	dna := BlendPureDNA(profiles, []string{"alpha", "beta"}, SimilarityWeights{})
	// Median of {1.0, 3.0} is 2.0, scaled by the overall share.
	want := 0.35 * 2.0
	if got := dna.At(5).Sessions; math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected pooled median blend %v, got %v", want, got)
	}
}

// TestPureDNAAtOutOfRange tests the guard on month lookup
func TestPureDNAAtOutOfRange(t *testing.T) {
	var dna PureDNA
	if got := dna.At(0); got != NeutralIndex() {
		t.Errorf("Expected neutral index for month 0, got %v", got)
	}
	if got := dna.At(13); got != NeutralIndex() {
		t.Errorf("Expected neutral index for month 13, got %v", got)
	}
}
