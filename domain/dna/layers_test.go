package dna

import (
	"math"
	"testing"
	"time"

	"godna/domain/core"
	"godna/domain/event"
)

// uniformDNA builds a pure DNA with every month at the same flat index.
func uniformDNA(v float64) PureDNA {
	var dna PureDNA
	for m := 1; m <= 12; m++ {
		dna[m-1] = MonthDNA{Month: m, Index: IndexSet{Sessions: v, ConvRate: v, OrderValue: v}}
	}
	return dna
}

// monthMean averages one layer's session index over a month.
func monthMean(frame *YearFrame, month int, pick func(FrameRow) IndexSet) float64 {
	var sum float64
	var n int
	for _, r := range frame.Rows {
		if r.Month == month {
			sum += pick(r).Sessions
			n++
		}
	}
	return sum / float64(n)
}

// TestCompileLayersBroadcast tests the monthly broadcast onto days
func TestCompileLayersBroadcast(t *testing.T) {
	var dna PureDNA
	for m := 1; m <= 12; m++ {
		v := float64(m) / 10.0
		dna[m-1] = MonthDNA{Month: m, Index: IndexSet{Sessions: v, ConvRate: v, OrderValue: v}}
	}

	frame := NewYearFrame(2026)
	CompileLayers(frame, dna, nil)

	for _, r := range frame.Rows {
		want := float64(r.Month) / 10.0
		if math.Abs(r.Pure.Sessions-want) > 1e-12 {
			t.Fatalf("Day %s: expected pure %v, got %v", r.Day, want, r.Pure.Sessions)
		}
		if r.PreTrial != r.Pure || r.Work != r.Pure {
			t.Fatalf("Day %s: expected identical layers without events", r.Day)
		}
	}
}

// TestCompileLayersPreTrialDragInheritedByWork tests layer scoping
func TestCompileLayersPreTrialDragInheritedByWork(t *testing.T) {
	log := event.Log{}.Append(event.CustomDrag{
		EventID:     core.EventID("d1"),
		Name:        "winter boost",
		Granularity: core.GranularityMonthly,
		Period:      2,
		Multiplier:  1.5,
		Scope:       event.ScopePreTrial,
	})

	frame := NewYearFrame(2026)
	CompileLayers(frame, uniformDNA(1.0), log)

	for _, r := range frame.Rows {
		if r.Month == 2 {
			if r.Pure.Sessions != 1.0 {
				t.Fatal("Pure layer must never carry event effects")
			}
			if math.Abs(r.PreTrial.Sessions-1.5) > 1e-12 {
				t.Fatalf("Expected pre-trial 1.5 in February, got %v", r.PreTrial.Sessions)
			}
			if math.Abs(r.Work.Sessions-1.5) > 1e-12 {
				t.Fatalf("Expected work layer to inherit pre-trial effect, got %v", r.Work.Sessions)
			}
			if math.Abs(r.PreTrial.OrderValue-1.5) > 1e-12 {
				t.Fatal("Drag must scale all three index dimensions")
			}
		} else if r.PreTrial.Sessions != 1.0 || r.Work.Sessions != 1.0 {
			t.Fatalf("Day %s outside period must stay untouched", r.Day)
		}
	}
}

// TestCompileLayersPostTrialDragWorkOnly tests the default scope
func TestCompileLayersPostTrialDragWorkOnly(t *testing.T) {
	// Zero-value scope counts as post-trial.
	log := event.Log{}.Append(event.CustomDrag{
		EventID:     core.EventID("d2"),
		Name:        "summer cut",
		Granularity: core.GranularityMonthly,
		Period:      7,
		Multiplier:  0.5,
	})

	frame := NewYearFrame(2026)
	CompileLayers(frame, uniformDNA(1.0), log)

	for _, r := range frame.Rows {
		if r.Month == 7 {
			if r.PreTrial.Sessions != 1.0 {
				t.Fatal("Post-trial drag must not touch the pre-trial layer")
			}
			if math.Abs(r.Work.Sessions-0.5) > 1e-12 {
				t.Fatalf("Expected work 0.5 in July, got %v", r.Work.Sessions)
			}
		}
	}
}

// TestSwapExchangesMeans tests the cross-multiplied mean exchange
func TestSwapExchangesMeans(t *testing.T) {
	var dna PureDNA
	for m := 1; m <= 12; m++ {
		v := 1.0
		if m == 3 {
			v = 0.5
		}
		if m == 4 {
			v = 1.5
		}
		dna[m-1] = MonthDNA{Month: m, Index: IndexSet{Sessions: v, ConvRate: v, OrderValue: v}}
	}

	log := event.Log{}.Append(event.Swap{
		EventID:     core.EventID("s1"),
		Name:        "march for april",
		Granularity: core.GranularityMonthly,
		A:           event.SinglePeriod(3),
		B:           event.SinglePeriod(4),
	})

	frame := NewYearFrame(2026)
	CompileLayers(frame, dna, log)

	// March scales by 1.5/0.5 = 3x, April by 0.5/1.5 = 1/3: the mean
	// levels trade places.
	if got := monthMean(frame, 3, func(r FrameRow) IndexSet { return r.Work }); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("Expected March work mean 1.5 after swap, got %v", got)
	}
	if got := monthMean(frame, 4, func(r FrameRow) IndexSet { return r.Work }); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected April work mean 0.5 after swap, got %v", got)
	}

	// Pre-trial layer untouched by the default post-trial scope.
	if got := monthMean(frame, 3, func(r FrameRow) IndexSet { return r.PreTrial }); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected March pre-trial mean unchanged, got %v", got)
	}
}

// TestSwapZeroMeanSubstitutesCounterpart tests the zero-mean fallback
func TestSwapZeroMeanSubstitutesCounterpart(t *testing.T) {
	var dna PureDNA
	for m := 1; m <= 12; m++ {
		v := 1.0
		if m == 5 {
			v = 0.0
		}
		if m == 6 {
			v = 2.0
		}
		dna[m-1] = MonthDNA{Month: m, Index: IndexSet{Sessions: v, ConvRate: v, OrderValue: v}}
	}

	log := event.Log{}.Append(event.Swap{
		EventID:     core.EventID("s2"),
		Name:        "revive may",
		Granularity: core.GranularityMonthly,
		A:           event.SinglePeriod(5),
		B:           event.SinglePeriod(6),
	})

	frame := NewYearFrame(2026)
	CompileLayers(frame, dna, log)

	// May's zero mean takes June's raw mean; June rescales by 0/2 = 0.
	if got := monthMean(frame, 5, func(r FrameRow) IndexSet { return r.Work }); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("Expected May to take June's mean 2.0, got %v", got)
	}
	if got := monthMean(frame, 6, func(r FrameRow) IndexSet { return r.Work }); math.Abs(got) > 1e-9 {
		t.Errorf("Expected June scaled to zero, got %v", got)
	}
}

// TestSwapRangePairsPositionally tests range-to-range pairing
func TestSwapRangePairsPositionally(t *testing.T) {
	var dna PureDNA
	vals := map[int]float64{1: 0.4, 2: 0.6, 7: 1.4, 8: 1.6, 9: 1.8}
	for m := 1; m <= 12; m++ {
		v, ok := vals[m]
		if !ok {
			v = 1.0
		}
		dna[m-1] = MonthDNA{Month: m, Index: IndexSet{Sessions: v, ConvRate: v, OrderValue: v}}
	}

	// Range A covers Jan-Feb, range B covers Jul-Sep. Pairs are
	// (1,7) and (2,8); September is unmatched and stays put.
	log := event.Log{}.Append(event.Swap{
		EventID:     core.EventID("s3"),
		Name:        "winter for summer",
		Granularity: core.GranularityMonthly,
		A: event.PeriodRange(core.NewDayRange(
			core.NewDay(2026, time.January, 1), core.NewDay(2026, time.February, 28))),
		B: event.PeriodRange(core.NewDayRange(
			core.NewDay(2026, time.July, 1), core.NewDay(2026, time.September, 30))),
	})

	frame := NewYearFrame(2026)
	CompileLayers(frame, dna, log)

	checks := map[int]float64{1: 1.4, 7: 0.4, 2: 1.6, 8: 0.6, 9: 1.8}
	for month, want := range checks {
		if got := monthMean(frame, month, func(r FrameRow) IndexSet { return r.Work }); math.Abs(got-want) > 1e-9 {
			t.Errorf("Month %d: expected mean %v after range swap, got %v", month, want, got)
		}
	}
}

// TestSwapUnmatchedPeriodIsNoOp tests that absent periods change nothing
func TestSwapUnmatchedPeriodIsNoOp(t *testing.T) {
	log := event.Log{}.Append(event.Swap{
		EventID:     core.EventID("s4"),
		Name:        "phantom week",
		Granularity: core.GranularityWeekly,
		A:           event.SinglePeriod(54), // no such ISO week
		B:           event.SinglePeriod(10),
	})

	frame := NewYearFrame(2026)
	CompileLayers(frame, uniformDNA(1.0), log)

	for _, r := range frame.Rows {
		if r.Work.Sessions != 1.0 || math.IsNaN(r.Work.Sessions) {
			t.Fatalf("Day %s: expected untouched index, got %v", r.Day, r.Work.Sessions)
		}
	}
}

// TestCompileLayersEventOrder tests that log order applies sequentially
func TestCompileLayersEventOrder(t *testing.T) {
	log := event.Log{}.
		Append(event.CustomDrag{EventID: "a", Granularity: core.GranularityMonthly, Period: 1, Multiplier: 2.0}).
		Append(event.CustomDrag{EventID: "b", Granularity: core.GranularityMonthly, Period: 1, Multiplier: 3.0})

	frame := NewYearFrame(2026)
	CompileLayers(frame, uniformDNA(1.0), log)

	if got := frame.Rows[0].Work.Sessions; math.Abs(got-6.0) > 1e-12 {
		t.Errorf("Expected stacked drags 2x3=6, got %v", got)
	}
}
