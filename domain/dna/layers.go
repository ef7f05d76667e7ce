package dna

import (
	"github.com/montanaflynn/stats"

	"godna/domain/core"
	"godna/domain/event"
)

// layer selects which index layer a structural event mutates.
type layer int

const (
	layerPreTrial layer = iota
	layerWork
)

func (r *FrameRow) layerIndex(l layer) *IndexSet {
	if l == layerPreTrial {
		return &r.PreTrial
	}
	return &r.Work
}

// CompileLayers runs the three-layer build over a fresh frame:
//
//	1. broadcast the monthly pure DNA onto every day (pure layer final)
//	2. apply pre-trial drags and swaps, in log order, to the pre-trial
//	   layer only
//	3. copy pre-trial into work
//	4. apply post-trial drags and swaps, in log order, to work only
//
// The sequence is strictly pure -> pre-trial -> work and never re-runs
// on an already-compiled frame; callers rebuild the frame instead.
// Shock and ReappliedShock events do not touch layers; unknown event
// variants are skipped.
func CompileLayers(frame *YearFrame, pure PureDNA, log event.Log) {
	for i := range frame.Rows {
		idx := pure.At(frame.Rows[i].Month)
		frame.Rows[i].Pure = idx
		frame.Rows[i].PreTrial = idx
		frame.Rows[i].Work = idx
	}

	applyStructural(frame, log, layerPreTrial, true)

	for i := range frame.Rows {
		frame.Rows[i].Work = frame.Rows[i].PreTrial
	}

	applyStructural(frame, log, layerWork, false)
}

// applyStructural applies the drag and swap events of one scope, in log
// order, to one layer.
func applyStructural(frame *YearFrame, log event.Log, target layer, preTrial bool) {
	for _, e := range log {
		switch ev := e.(type) {
		case event.CustomDrag:
			if ev.Scope.IsPreTrial() == preTrial {
				applyDrag(frame, ev, target)
			}
		case event.Swap:
			if ev.Scope.IsPreTrial() == preTrial {
				applySwap(frame, ev, target)
			}
		}
	}
}

// applyDrag multiplies all three index dimensions of every row in the
// target period.
func applyDrag(frame *YearFrame, d event.CustomDrag, target layer) {
	for i := range frame.Rows {
		row := &frame.Rows[i]
		if row.PeriodKey(d.Granularity) != d.Period {
			continue
		}
		idx := row.layerIndex(target)
		idx.Sessions *= d.Multiplier
		idx.ConvRate *= d.Multiplier
		idx.OrderValue *= d.Multiplier
	}
}

// applySwap exchanges the mean index level of the two selected periods.
// Range selectors expand to their sorted distinct period keys and pair
// positionally; trailing unpaired periods stay untouched, as does any
// pair where one side matches no rows.
func applySwap(frame *YearFrame, s event.Swap, target layer) {
	periodsA := resolvePeriods(frame, s.Granularity, s.A)
	periodsB := resolvePeriods(frame, s.Granularity, s.B)

	n := len(periodsA)
	if len(periodsB) < n {
		n = len(periodsB)
	}
	for i := 0; i < n; i++ {
		swapPeriodPair(frame, s.Granularity, periodsA[i], periodsB[i], target)
	}
}

func resolvePeriods(frame *YearFrame, g core.Granularity, sel event.PeriodSel) []int {
	if sel.IsRange() {
		return frame.PeriodsInRange(g, sel.Range)
	}
	return []int{sel.Period}
}

// swapPeriodPair rescales period A's rows by meanB/meanA and period B's
// by meanA/meanB, per index dimension, so the two periods' mean levels
// trade places. A zero mean on one side substitutes the other side's
// raw mean instead of dividing.
func swapPeriodPair(frame *YearFrame, g core.Granularity, periodA, periodB int, target layer) {
	rowsA := rowsForPeriod(frame, g, periodA)
	rowsB := rowsForPeriod(frame, g, periodB)
	if len(rowsA) == 0 || len(rowsB) == 0 {
		return
	}

	exchange := func(get func(*IndexSet) *float64) {
		meanA := periodMean(frame, rowsA, target, get)
		meanB := periodMean(frame, rowsB, target, get)

		for _, i := range rowsA {
			v := get(frame.Rows[i].layerIndex(target))
			if meanA > 0 {
				*v *= meanB / meanA
			} else {
				*v = meanB
			}
		}
		for _, i := range rowsB {
			v := get(frame.Rows[i].layerIndex(target))
			if meanB > 0 {
				*v *= meanA / meanB
			} else {
				*v = meanA
			}
		}
	}

	exchange(func(s *IndexSet) *float64 { return &s.Sessions })
	exchange(func(s *IndexSet) *float64 { return &s.ConvRate })
	exchange(func(s *IndexSet) *float64 { return &s.OrderValue })
}

func rowsForPeriod(frame *YearFrame, g core.Granularity, period int) []int {
	var out []int
	for i := range frame.Rows {
		if frame.Rows[i].PeriodKey(g) == period {
			out = append(out, i)
		}
	}
	return out
}

func periodMean(frame *YearFrame, rows []int, target layer, get func(*IndexSet) *float64) float64 {
	vals := make([]float64, len(rows))
	for k, i := range rows {
		vals[k] = *get(frame.Rows[i].layerIndex(target))
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		return 0
	}
	return mean
}
