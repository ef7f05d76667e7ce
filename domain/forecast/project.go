package forecast

import (
	"godna/domain/core"
	"godna/domain/dna"
	"godna/domain/event"
)

// Confidence band multipliers applied to every projected value. The
// band is a fixed display heuristic, not a statistical interval.
const (
	MarginLow  = 0.85
	MarginHigh = 1.15
)

// MetricValues bundles one value per metric.
type MetricValues struct {
	Sessions    float64 `json:"sessions"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Get returns the value for a metric.
func (m MetricValues) Get(metric core.Metric) float64 {
	switch metric {
	case core.MetricSessions:
		return m.Sessions
	case core.MetricConversions:
		return m.Conversions
	case core.MetricRevenue:
		return m.Revenue
	default:
		return 0
	}
}

// Scale multiplies every metric by f.
func (m MetricValues) Scale(f float64) MetricValues {
	return MetricValues{Sessions: m.Sessions * f, Conversions: m.Conversions * f, Revenue: m.Revenue * f}
}

// Add sums two bundles metric-wise.
func (m MetricValues) Add(o MetricValues) MetricValues {
	return MetricValues{Sessions: m.Sessions + o.Sessions, Conversions: m.Conversions + o.Conversions, Revenue: m.Revenue + o.Revenue}
}

// Sub subtracts o metric-wise.
func (m MetricValues) Sub(o MetricValues) MetricValues {
	return MetricValues{Sessions: m.Sessions - o.Sessions, Conversions: m.Conversions - o.Conversions, Revenue: m.Revenue - o.Revenue}
}

// Series selects the baseline or the simulated projection.
type Series int

const (
	SeriesBaseline Series = iota
	SeriesSimulated
)

// ProjectionRow is one projected calendar day.
type ProjectionRow struct {
	Day       core.Day `json:"day"`
	Month     int      `json:"month"`
	Week      int      `json:"week"`
	DayOfYear int      `json:"day_of_year"`

	Baseline  MetricValues `json:"baseline"`
	Simulated MetricValues `json:"simulated"`

	BaselineMin  MetricValues `json:"baseline_min"`
	BaselineMax  MetricValues `json:"baseline_max"`
	SimulatedMin MetricValues `json:"simulated_min"`
	SimulatedMax MetricValues `json:"simulated_max"`

	// Shock is the summed campaign multiplier that day, kept for
	// charting event intensity.
	Shock float64 `json:"shock"`
}

// Projection is the projected year: the frame extended with baseline,
// simulated and margin series.
type Projection struct {
	Year      int             `json:"year"`
	Constants Constants       `json:"constants"`
	Rows      []ProjectionRow `json:"rows"`
}

// Project combines the compiled frame, the calibrated constants and the
// event log into daily baseline and simulated series.
//
// Baseline follows the pre-trial layer. The simulation follows the work
// layer with the shock multiplier applied once to sessions and chained
// through conversions and revenue, then the re-applied signature
// channels added per metric: relative fractions scale the baseline (not
// the simulated value), absolute volumes add directly.
func Project(frame *dna.YearFrame, consts Constants, log event.Log) *Projection {
	shocks := log.Shocks()
	abs, rel := buildInjections(frame, log.Reapplied())

	rows := make([]ProjectionRow, frame.Len())
	for i := range frame.Rows {
		fr := frame.Rows[i]

		baseSessions := consts.BaseRate * fr.PreTrial.Sessions
		baseConversions := baseSessions * consts.BaseConvRate * fr.PreTrial.ConvRate
		baseRevenue := baseConversions * consts.BaseOrderValue * fr.PreTrial.OrderValue
		baseline := MetricValues{Sessions: baseSessions, Conversions: baseConversions, Revenue: baseRevenue}

		shock := ShockMultiplier(fr.Day, shocks)
		simSessions := consts.BaseRate * fr.Work.Sessions * (1 + shock)
		simConversions := simSessions * consts.BaseConvRate * fr.Work.ConvRate
		simRevenue := simConversions * consts.BaseOrderValue * fr.Work.OrderValue

		simulated := MetricValues{
			Sessions:    simSessions + baseSessions*rel.sessions[i] + abs.sessions[i],
			Conversions: simConversions + baseConversions*rel.conversions[i] + abs.conversions[i],
			Revenue:     simRevenue + baseRevenue*rel.revenue[i] + abs.revenue[i],
		}

		rows[i] = ProjectionRow{
			Day:          fr.Day,
			Month:        fr.Month,
			Week:         fr.Week,
			DayOfYear:    fr.DayOfYear,
			Baseline:     baseline,
			Simulated:    simulated,
			BaselineMin:  baseline.Scale(MarginLow),
			BaselineMax:  baseline.Scale(MarginHigh),
			SimulatedMin: simulated.Scale(MarginLow),
			SimulatedMax: simulated.Scale(MarginHigh),
			Shock:        shock,
		}
	}

	return &Projection{Year: frame.Year, Constants: consts, Rows: rows}
}

// DaysIn counts projection days inside the window.
func (p *Projection) DaysIn(r core.DayRange) int {
	var n int
	for i := range p.Rows {
		if r.Contains(p.Rows[i].Day) {
			n++
		}
	}
	return n
}

// SumOver totals one metric of one series over a day window. Windows
// matching no days sum to zero.
func (p *Projection) SumOver(r core.DayRange, metric core.Metric, series Series) float64 {
	var sum float64
	for i := range p.Rows {
		if !r.Contains(p.Rows[i].Day) {
			continue
		}
		if series == SeriesSimulated {
			sum += p.Rows[i].Simulated.Get(metric)
		} else {
			sum += p.Rows[i].Baseline.Get(metric)
		}
	}
	return sum
}

// TotalsOver returns all three metric sums of one series over a window.
func (p *Projection) TotalsOver(r core.DayRange, series Series) MetricValues {
	var out MetricValues
	for i := range p.Rows {
		if !r.Contains(p.Rows[i].Day) {
			continue
		}
		if series == SeriesSimulated {
			out = out.Add(p.Rows[i].Simulated)
		} else {
			out = out.Add(p.Rows[i].Baseline)
		}
	}
	return out
}
