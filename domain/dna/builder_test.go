package dna

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/montanaflynn/stats"

	"godna/domain/core"
)

// flatYear builds one transaction per day for a year at constant values.
func flatYear(entity string, year int, sessions, conversions, revenue float64) []Transaction {
	start := core.NewDay(year, time.January, 1)
	end := core.NewDay(year, time.December, 31)
	days := core.NewDayRange(start, end).Days()

	out := make([]Transaction, len(days))
	for i, d := range days {
		out[i] = Transaction{Entity: entity, Day: d, Sessions: sessions, Conversions: conversions, Revenue: revenue}
	}
	return out
}

// TestBuildProfilesMedianNormalization tests the median-1.0 invariant
func TestBuildProfilesMedianNormalization(t *testing.T) {
	// Seasonal year: double sessions in December.
	var txs []Transaction
	for _, tx := range flatYear("alpha", 2024, 100, 2, 200) {
		if tx.Day.Month() == 12 {
			tx.Sessions *= 2
		}
		txs = append(txs, tx)
	}

	profiles := BuildProfiles(txs)
	monthly := profiles.ByYear(2024).ByGranularity(core.GranularityMonthly)
	if len(monthly) != 12 {
		t.Fatalf("Expected 12 monthly rows, got %d", len(monthly))
	}

	idx := make([]float64, 0, 12)
	for _, r := range monthly {
		idx = append(idx, r.IdxSessions)
	}
	med, err := stats.Median(idx)
	if err != nil {
		t.Fatalf("Median failed: %v", err)
	}
	if math.Abs(med-1.0) > 1e-9 {
		t.Errorf("Expected index median 1.0, got %v", med)
	}

	// December should be the clear maximum.
	sort.Float64s(idx)
	dec := monthly[len(monthly)-1]
	if dec.Period != 12 || math.Abs(dec.IdxSessions-idx[len(idx)-1]) > 1e-9 {
		t.Errorf("Expected December to carry the peak index, got %+v", dec)
	}
}

// TestBuildProfilesScopes tests overall plus per-year scope rows
func TestBuildProfilesScopes(t *testing.T) {
	txs := append(flatYear("alpha", 2023, 50, 1, 100), flatYear("alpha", 2024, 100, 2, 200)...)

	profiles := BuildProfiles(txs)

	years := profiles.Years()
	if len(years) != 2 || years[0] != 2023 || years[1] != 2024 {
		t.Errorf("Expected years [2023 2024], got %v", years)
	}
	if len(profiles.ByYear(OverallYear)) == 0 {
		t.Error("Expected overall pseudo-year rows")
	}

	// All three granularities per scope.
	for _, g := range []core.Granularity{core.GranularityMonthly, core.GranularityWeekly, core.GranularityDaily} {
		if len(profiles.ByYear(2024).ByGranularity(g)) == 0 {
			t.Errorf("Expected %s rows for 2024", g)
		}
	}

	// Overall daily rows merge both years per day-of-year.
	overallDaily := profiles.ByYear(OverallYear).ByGranularity(core.GranularityDaily)
	for _, r := range overallDaily {
		if r.Period == 40 { // Feb 9, present in both years
			if math.Abs(r.Sessions-150) > 1e-9 {
				t.Errorf("Expected merged sessions 150 for day 40, got %v", r.Sessions)
			}
		}
	}
}

// TestBuildProfilesDerivedRates tests CR and AOV derivation with guards
func TestBuildProfilesDerivedRates(t *testing.T) {
	txs := []Transaction{
		{Entity: "alpha", Day: core.NewDay(2024, time.March, 1), Sessions: 200, Conversions: 4, Revenue: 400},
		{Entity: "alpha", Day: core.NewDay(2024, time.March, 2), Sessions: 0, Conversions: 0, Revenue: 0},
	}

	profiles := BuildProfiles(txs)
	daily := profiles.ByYear(2024).ByGranularity(core.GranularityDaily)
	if len(daily) != 2 {
		t.Fatalf("Expected 2 daily rows, got %d", len(daily))
	}

	var active, dead IndexRecord
	for _, r := range daily {
		if r.Sessions > 0 {
			active = r
		} else {
			dead = r
		}
	}
	if math.Abs(active.ConvRate-0.02) > 1e-9 || math.Abs(active.OrderValue-100) > 1e-9 {
		t.Errorf("Unexpected derived rates: %+v", active)
	}
	if dead.ConvRate != 0 || dead.OrderValue != 0 {
		t.Errorf("Expected zero rates for dead day, got %+v", dead)
	}
}

// TestBuildProfilesZeroMedianSeries tests the all-neutral fallback
func TestBuildProfilesZeroMedianSeries(t *testing.T) {
	// Revenue is always zero, so the order-value series has median 0.
	txs := flatYear("alpha", 2024, 100, 2, 0)

	profiles := BuildProfiles(txs)
	for _, r := range profiles.ByYear(2024).ByGranularity(core.GranularityMonthly) {
		if r.IdxOrderValue != 1.0 {
			t.Errorf("Expected neutral order-value index, got %v", r.IdxOrderValue)
		}
	}
}

// TestBuildProfilesNormalizesEntities tests entity canonicalization
func TestBuildProfilesNormalizesEntities(t *testing.T) {
	txs := []Transaction{
		{Entity: " Alpha ", Day: core.NewDay(2024, time.May, 1), Sessions: 10, Conversions: 1, Revenue: 20},
		{Entity: "alpha", Day: core.NewDay(2024, time.May, 2), Sessions: 30, Conversions: 1, Revenue: 20},
	}

	profiles := BuildProfiles(txs)
	entities := profiles.Entities()
	if len(entities) != 1 || entities[0] != "alpha" {
		t.Errorf("Expected single normalized entity, got %v", entities)
	}
}

// TestBuildYearlyKPIs tests annual sums with derived rates
func TestBuildYearlyKPIs(t *testing.T) {
	txs := append(flatYear("beta", 2024, 100, 2, 200), flatYear("alpha", 2023, 50, 1, 100)...)
	txs = append(txs, Transaction{Entity: "  ", Day: core.NewDay(2024, time.May, 1), Sessions: 999})

	kpis := BuildYearlyKPIs(txs)
	if len(kpis) != 2 {
		t.Fatalf("Expected 2 entity-years, got %d", len(kpis))
	}

	// Sorted by entity then year; blank entities dropped.
	if kpis[0].Entity != "alpha" || kpis[0].Year != 2023 || kpis[1].Entity != "beta" {
		t.Errorf("Unexpected ordering: %+v", kpis)
	}

	alpha := kpis[0]
	if math.Abs(alpha.Sessions-50*365) > 1e-6 || math.Abs(alpha.Revenue-100*365) > 1e-6 {
		t.Errorf("Unexpected alpha totals: %+v", alpha)
	}
	if math.Abs(alpha.ConvRate-0.02) > 1e-12 {
		t.Errorf("Expected alpha conv rate 0.02, got %v", alpha.ConvRate)
	}
	if math.Abs(alpha.OrderValue-100) > 1e-9 {
		t.Errorf("Expected alpha order value 100, got %v", alpha.OrderValue)
	}

	// 2024 is a leap year.
	if beta := kpis[1]; math.Abs(beta.Sessions-100*366) > 1e-6 {
		t.Errorf("Unexpected beta sessions: %v", beta.Sessions)
	}
}

// TestYearlyKPIValue tests the column lookup
func TestYearlyKPIValue(t *testing.T) {
	k := YearlyKPI{Sessions: 10, Conversions: 2, Revenue: 300, ConvRate: 0.2, OrderValue: 150}
	if k.Value("sessions") != 10 || k.Value("cr") != 0.2 || k.Value("aov") != 150 {
		t.Errorf("Unexpected column values: %+v", k)
	}
	if k.Value("margin") != 0 {
		t.Error("Unknown column should read 0")
	}
}
