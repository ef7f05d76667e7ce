package forecast

import (
	"sort"

	"godna/domain/core"
)

// AggregateSeries is one projection variant summed over a period, with
// the period's effective rates re-derived from the summed volumes.
type AggregateSeries struct {
	MetricValues
	ConvRate   float64 `json:"conv_rate"`
	OrderValue float64 `json:"order_value"`
}

// AggregateRow is one period bucket of the projection.
type AggregateRow struct {
	Period int      `json:"period"`
	Start  core.Day `json:"start"`

	Baseline     AggregateSeries `json:"baseline"`
	Simulated    AggregateSeries `json:"simulated"`
	BaselineMin  AggregateSeries `json:"baseline_min"`
	BaselineMax  AggregateSeries `json:"baseline_max"`
	SimulatedMin AggregateSeries `json:"simulated_min"`
	SimulatedMax AggregateSeries `json:"simulated_max"`

	// Shock is the mean campaign multiplier across the period.
	Shock float64 `json:"shock"`
}

// AggregateProjection rolls the daily projection up to the given
// granularity. Volumes sum; conversion rate and order value are
// re-derived from the period sums, zero when the denominator is.
func AggregateProjection(p *Projection, g core.Granularity) []AggregateRow {
	type bucket struct {
		start   core.Day
		days    int
		base    MetricValues
		sim     MetricValues
		baseMin MetricValues
		baseMax MetricValues
		simMin  MetricValues
		simMax  MetricValues
		shock   float64
	}

	buckets := make(map[int]*bucket)
	for i := range p.Rows {
		r := p.Rows[i]
		key := periodKeyOf(r, g)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{start: r.Day}
			buckets[key] = b
		}
		if r.Day.Before(b.start) {
			b.start = r.Day
		}
		b.days++
		b.base = b.base.Add(r.Baseline)
		b.sim = b.sim.Add(r.Simulated)
		b.baseMin = b.baseMin.Add(r.BaselineMin)
		b.baseMax = b.baseMax.Add(r.BaselineMax)
		b.simMin = b.simMin.Add(r.SimulatedMin)
		b.simMax = b.simMax.Add(r.SimulatedMax)
		b.shock += r.Shock
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]AggregateRow, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		row := AggregateRow{
			Period:       k,
			Start:        b.start,
			Baseline:     aggSeries(b.base),
			Simulated:    aggSeries(b.sim),
			BaselineMin:  aggSeries(b.baseMin),
			BaselineMax:  aggSeries(b.baseMax),
			SimulatedMin: aggSeries(b.simMin),
			SimulatedMax: aggSeries(b.simMax),
		}
		if b.days > 0 {
			row.Shock = b.shock / float64(b.days)
		}
		out = append(out, row)
	}
	return out
}

func aggSeries(v MetricValues) AggregateSeries {
	s := AggregateSeries{MetricValues: v}
	if v.Sessions > 0 {
		s.ConvRate = v.Conversions / v.Sessions
	}
	if v.Conversions > 0 {
		s.OrderValue = v.Revenue / v.Conversions
	}
	return s
}
