package dna

import (
	"math"
	"testing"
	"time"

	"godna/domain/core"
)

const weightTol = 1e-9

// dailyRows builds daily-granularity profile rows for one entity and
// year covering a day-of-year span with constant per-day values.
func dailyRows(entity string, year, fromDoY, toDoY int, sessions, conversions, revenue float64) ProfileSet {
	var out ProfileSet
	for doy := fromDoY; doy <= toDoY; doy++ {
		out = append(out, IndexRecord{
			Entity:      entity,
			Year:        year,
			Granularity: core.GranularityDaily,
			Period:      doy,
			Sessions:    sessions,
			Conversions: conversions,
			Revenue:     revenue,
			IdxSessions: 1.0, IdxConvRate: 1.0, IdxOrderValue: 1.0,
		})
	}
	return out
}

func juneTrial(year int) core.DayRange {
	return core.NewDayRange(core.NewDay(year, time.June, 1), core.NewDay(year, time.June, 30))
}

// TestSimilarityWeightsSumToOne tests the normalization property
func TestSimilarityWeightsSumToOne(t *testing.T) {
	profiles := append(
		dailyRows("alpha", 2024, 1, 365, 90, 2, 200),
		dailyRows("alpha", 2023, 1, 365, 60, 1, 120)...,
	)
	trial := juneTrial(2026)
	observed := TrialTotals{Sessions: 3000, Conversions: 60, Revenue: 6000}

	weights := ComputeSimilarityWeights(profiles, []string{"alpha"}, trial, 2026, observed)
	if len(weights) != 2 {
		t.Fatalf("Expected weights for 2 years, got %d", len(weights))
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > weightTol {
		t.Errorf("Expected weights to sum to 1.0, got %v", sum)
	}
}

// TestSimilarityWeightsFavorCloserYear tests inverse-error ordering
func TestSimilarityWeightsFavorCloserYear(t *testing.T) {
	// Observed June totals: 3000 sessions. 2024 matches at 100/day
	// over 30 days; 2023 runs far under.
	profiles := append(
		dailyRows("alpha", 2024, 1, 365, 100, 2, 200),
		dailyRows("alpha", 2023, 1, 365, 20, 0.4, 40)...,
	)
	observed := TrialTotals{Sessions: 3000, Conversions: 60, Revenue: 6000}

	weights := ComputeSimilarityWeights(profiles, []string{"alpha"}, juneTrial(2026), 2026, observed)
	if weights[2024] <= weights[2023] {
		t.Errorf("Expected 2024 to outweigh 2023, got %v vs %v", weights[2024], weights[2023])
	}
}

// TestSimilarityWeightsExcludeOverallAndProjectionYear tests scope filtering
func TestSimilarityWeightsExcludeOverallAndProjectionYear(t *testing.T) {
	profiles := append(
		dailyRows("alpha", OverallYear, 1, 365, 100, 2, 200),
		dailyRows("alpha", 2026, 1, 365, 100, 2, 200)...,
	)
	profiles = append(profiles, dailyRows("alpha", 2024, 1, 365, 100, 2, 200)...)

	weights := ComputeSimilarityWeights(profiles, []string{"alpha"}, juneTrial(2026), 2026, TrialTotals{Sessions: 3000, Conversions: 60, Revenue: 6000})
	if len(weights) != 1 {
		t.Fatalf("Expected only 2024 to be weighted, got %v", weights)
	}
	if math.Abs(weights[2024]-1.0) > weightTol {
		t.Errorf("Expected sole year weight 1.0, got %v", weights[2024])
	}
}

// TestSimilarityWeightsEmptyWithoutOverlap tests the no-overlap edge
func TestSimilarityWeightsEmptyWithoutOverlap(t *testing.T) {
	// History only covers January; trial is June.
	profiles := dailyRows("alpha", 2024, 1, 31, 100, 2, 200)

	weights := ComputeSimilarityWeights(profiles, []string{"alpha"}, juneTrial(2026), 2026, TrialTotals{Sessions: 3000})
	if len(weights) != 0 {
		t.Errorf("Expected empty weights without overlap, got %v", weights)
	}
}

// TestSimilarityWeightsZeroObservation tests the divide-by-zero floor
func TestSimilarityWeightsZeroObservation(t *testing.T) {
	profiles := dailyRows("alpha", 2024, 1, 365, 100, 2, 200)

	// All observed totals zero: relative error uses denominator 1.
	weights := ComputeSimilarityWeights(profiles, []string{"alpha"}, juneTrial(2026), 2026, TrialTotals{})
	if len(weights) != 1 {
		t.Fatalf("Expected a weight despite zero observation, got %v", weights)
	}
	for _, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Errorf("Expected finite weight, got %v", w)
		}
	}
}

// TestSimilarityWeightsRespectEntitySelection tests entity filtering
func TestSimilarityWeightsRespectEntitySelection(t *testing.T) {
	profiles := append(
		dailyRows("alpha", 2024, 1, 365, 100, 2, 200),
		dailyRows("beta", 2023, 1, 365, 100, 2, 200)...,
	)

	weights := ComputeSimilarityWeights(profiles, []string{"Alpha"}, juneTrial(2026), 2026, TrialTotals{Sessions: 3000})
	if _, ok := weights[2023]; ok {
		t.Error("Expected beta's year to be excluded from alpha's weights")
	}
	if _, ok := weights[2024]; !ok {
		t.Error("Expected alpha's year to be weighted (case-insensitive selection)")
	}
}
