// Package forecast turns a compiled year frame into calibrated
// baseline and simulated projections, extracts re-injectable shock
// signatures from history, and attributes per-event contributions
// toward a target.
package forecast

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"godna/domain/core"
	"godna/domain/dna"
)

// TrialObservation is the externally supplied trial window reading:
// raw totals plus optional pre-adjustment percentages stripping known
// incidental inflation (a one-off PR spike, a tracking glitch) before
// calibration.
type TrialObservation struct {
	Window      core.DayRange `json:"window"`
	Sessions    float64       `json:"sessions"`
	Conversions float64       `json:"conversions"`
	Revenue     float64       `json:"revenue"`

	AdjustSessionsPct    float64 `json:"adjust_sessions_pct"`
	AdjustConversionsPct float64 `json:"adjust_conversions_pct"`
	AdjustRevenuePct     float64 `json:"adjust_revenue_pct"`
}

// Adjusted applies the pre-adjustment percentages: adjusted = raw /
// (1 + pct/100). A pct of exactly -100 would zero the divisor and
// leaves the raw value unchanged instead.
func (o TrialObservation) Adjusted() dna.TrialTotals {
	return dna.TrialTotals{
		Sessions:    preAdjust(o.Sessions, o.AdjustSessionsPct),
		Conversions: preAdjust(o.Conversions, o.AdjustConversionsPct),
		Revenue:     preAdjust(o.Revenue, o.AdjustRevenuePct),
	}
}

func preAdjust(raw, pct float64) float64 {
	factor := 1.0 + pct/100.0
	if factor == 0 {
		return raw
	}
	return raw / factor
}

// Constants are the unitful anchors produced by calibration. Multiplied
// into the pre-trial index layer they reproduce the observed trial
// totals.
type Constants struct {
	BaseRate       float64 `json:"base_rate"`        // sessions per unit index per day
	BaseConvRate   float64 `json:"base_conv_rate"`   // conversions per session at neutral index
	BaseOrderValue float64 `json:"base_order_value"` // revenue per conversion at neutral index
}

// Calibrate anchors the three base constants against the observed
// (already adjusted) trial totals using the pre-trial layer restricted
// to the trial window. Fails with ErrUncalibratableTrial when the
// window matches no projection days or its session index sum is zero;
// the caller widens the window and retries.
func Calibrate(frame *dna.YearFrame, trial core.DayRange, totals dna.TrialTotals) (Constants, error) {
	rows := frame.RowIndexesIn(trial)
	if len(rows) == 0 {
		return Constants{}, fmt.Errorf("%w: window %s has no days in %d", core.ErrUncalibratableTrial, trial, frame.Year)
	}

	idxSessions := make([]float64, len(rows))
	idxConvRate := make([]float64, len(rows))
	idxOrderValue := make([]float64, len(rows))
	for k, i := range rows {
		pre := frame.Rows[i].PreTrial
		idxSessions[k] = pre.Sessions
		idxConvRate[k] = pre.ConvRate
		idxOrderValue[k] = pre.OrderValue
	}

	idxSum := floats.Sum(idxSessions)
	if idxSum == 0 {
		return Constants{}, fmt.Errorf("%w: zero session index over %s", core.ErrUncalibratableTrial, trial)
	}

	baseRate := totals.Sessions / idxSum

	trialConvRate := 0.0
	if totals.Sessions > 0 {
		trialConvRate = totals.Conversions / totals.Sessions
	}
	trialOrderValue := 0.0
	if totals.Conversions > 0 {
		trialOrderValue = totals.Revenue / totals.Conversions
	}

	// A degenerate index mean leaves the trial rate unscaled rather
	// than dividing by zero.
	baseConvRate := trialConvRate
	if m := meanOf(idxConvRate); m > 0 {
		baseConvRate = trialConvRate / m
	}
	baseOrderValue := trialOrderValue
	if m := meanOf(idxOrderValue); m > 0 {
		baseOrderValue = trialOrderValue / m
	}

	return Constants{
		BaseRate:       baseRate,
		BaseConvRate:   baseConvRate,
		BaseOrderValue: baseOrderValue,
	}, nil
}

func meanOf(vals []float64) float64 {
	m, err := stats.Mean(vals)
	if err != nil {
		return 0
	}
	return m
}
