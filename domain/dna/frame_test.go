package dna

import (
	"math"
	"testing"
	"time"

	"godna/domain/core"
	"godna/domain/event"
)

// TestNewYearFrameLength tests day counts for normal and leap years
func TestNewYearFrameLength(t *testing.T) {
	if got := NewYearFrame(2026).Len(); got != 365 {
		t.Errorf("Expected 365 rows for 2026, got %d", got)
	}
	if got := NewYearFrame(2024).Len(); got != 366 {
		t.Errorf("Expected 366 rows for leap 2024, got %d", got)
	}
}

// TestNewYearFrameKeys tests the period keys on materialized rows
func TestNewYearFrameKeys(t *testing.T) {
	frame := NewYearFrame(2026)

	first := frame.Rows[0]
	if first.Day.String() != "2026-01-01" || first.Month != 1 || first.DayOfYear != 1 {
		t.Errorf("Unexpected first row: %+v", first)
	}

	last := frame.Rows[len(frame.Rows)-1]
	if last.Day.String() != "2026-12-31" || last.Month != 12 || last.DayOfYear != 365 {
		t.Errorf("Unexpected last row: %+v", last)
	}

	// Feb 1 is day-of-year 32.
	feb1 := frame.Rows[31]
	if feb1.Month != 2 || feb1.DayOfYear != 32 {
		t.Errorf("Unexpected Feb 1 row: %+v", feb1)
	}

	for i := range frame.Rows {
		r := frame.Rows[i]
		if r.Pure != NeutralIndex() || r.PreTrial != NeutralIndex() || r.Work != NeutralIndex() {
			t.Fatalf("Expected neutral layers before compilation at row %d", i)
		}
	}
}

// TestRowIndexesIn tests inclusive range selection
func TestRowIndexesIn(t *testing.T) {
	frame := NewYearFrame(2026)
	r := core.NewDayRange(core.NewDay(2026, time.June, 1), core.NewDay(2026, time.June, 30))

	idx := frame.RowIndexesIn(r)
	if len(idx) != 30 {
		t.Fatalf("Expected 30 June rows, got %d", len(idx))
	}
	if frame.Rows[idx[0]].Day.String() != "2026-06-01" {
		t.Errorf("Expected first June row, got %s", frame.Rows[idx[0]].Day)
	}

	// A window outside the projection year selects nothing.
	other := core.NewDayRange(core.NewDay(2025, time.June, 1), core.NewDay(2025, time.June, 30))
	if got := frame.RowIndexesIn(other); len(got) != 0 {
		t.Errorf("Expected no rows for a different year, got %d", len(got))
	}
}

// TestPeriodsInRange tests period-key resolution for range selectors
func TestPeriodsInRange(t *testing.T) {
	frame := NewYearFrame(2026)

	months := frame.PeriodsInRange(core.GranularityMonthly, core.NewDayRange(
		core.NewDay(2026, time.May, 15), core.NewDay(2026, time.July, 10)))
	if len(months) != 3 || months[0] != 5 || months[2] != 7 {
		t.Errorf("Expected months [5 6 7], got %v", months)
	}

	days := frame.PeriodsInRange(core.GranularityDaily, core.NewDayRange(
		core.NewDay(2026, time.January, 1), core.NewDay(2026, time.January, 3)))
	if len(days) != 3 || days[0] != 1 || days[2] != 3 {
		t.Errorf("Expected day keys [1 2 3], got %v", days)
	}
}

// TestPeriodKeyGranularities tests the per-row key switch
func TestPeriodKeyGranularities(t *testing.T) {
	frame := NewYearFrame(2026)
	row := frame.Rows[200] // 2026-07-20

	if row.PeriodKey(core.GranularityMonthly) != row.Month {
		t.Error("Monthly key should be the month")
	}
	if row.PeriodKey(core.GranularityWeekly) != row.Week {
		t.Error("Weekly key should be the ISO week")
	}
	if row.PeriodKey(core.GranularityDaily) != row.DayOfYear {
		t.Error("Daily key should be the day-of-year")
	}
}

// TestLayerAverages tests the per-period layer means
func TestLayerAverages(t *testing.T) {
	log := event.Log{}.Append(event.CustomDrag{
		EventID:     core.EventID("d9"),
		Name:        "june cut",
		Granularity: core.GranularityMonthly,
		Period:      6,
		Multiplier:  0.8,
	})

	frame := NewYearFrame(2026)
	CompileLayers(frame, uniformDNA(1.0), log)

	avgs := frame.LayerAverages(core.GranularityMonthly)
	if len(avgs) != 12 {
		t.Fatalf("Expected 12 monthly averages, got %d", len(avgs))
	}

	jun := avgs[5]
	if jun.Period != 6 || jun.Start.String() != "2026-06-01" {
		t.Errorf("Unexpected June bucket: period %d start %s", jun.Period, jun.Start)
	}
	if jun.Pure.Sessions != 1.0 || jun.PreTrial.Sessions != 1.0 {
		t.Errorf("Expected untouched pure/pre-trial means, got %v/%v", jun.Pure.Sessions, jun.PreTrial.Sessions)
	}
	if math.Abs(jun.Work.Sessions-0.8) > 1e-12 {
		t.Errorf("Expected June work mean 0.8, got %v", jun.Work.Sessions)
	}
	if may := avgs[4]; may.Work.Sessions != 1.0 {
		t.Errorf("Expected May untouched, got %v", may.Work.Sessions)
	}
}
