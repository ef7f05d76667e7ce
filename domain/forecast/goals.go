package forecast

import (
	"fmt"
	"sort"
	"strings"

	"godna/domain/core"
)

// GoalMetric is a user-facing target metric. The three volumes audit
// and translate directly; the two rates translate through the volume
// columns that realize them.
type GoalMetric string

const (
	GoalSessions    GoalMetric = "sessions"
	GoalConversions GoalMetric = "conversions"
	GoalRevenue     GoalMetric = "revenue"
	GoalConvRate    GoalMetric = "conv_rate"
	GoalOrderValue  GoalMetric = "order_value"
)

// GoalMetrics returns the goal metrics in display order.
func GoalMetrics() []GoalMetric {
	return []GoalMetric{GoalRevenue, GoalConversions, GoalSessions, GoalConvRate, GoalOrderValue}
}

// ParseGoalMetric parses user input into a goal metric.
func ParseGoalMetric(s string) (GoalMetric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revenue":
		return GoalRevenue, nil
	case "conversions", "orders":
		return GoalConversions, nil
	case "sessions", "traffic":
		return GoalSessions, nil
	case "cr", "conv_rate", "conversion_rate":
		return GoalConvRate, nil
	case "aov", "order_value", "avg_order_value":
		return GoalOrderValue, nil
	default:
		return "", fmt.Errorf("goal metric %q: %w", s, core.ErrUnknownMetric)
	}
}

// AttributionMetric maps the goal onto a volume the projection can
// sum. Rate goals are audited through revenue.
func (g GoalMetric) AttributionMetric() core.Metric {
	switch g {
	case GoalSessions:
		return core.MetricSessions
	case GoalConversions:
		return core.MetricConversions
	default:
		return core.MetricRevenue
	}
}

// IsVolume reports whether the goal is a directly summable volume.
func (g GoalMetric) IsVolume() bool {
	switch g {
	case GoalSessions, GoalConversions, GoalRevenue:
		return true
	}
	return false
}

// Driver is the volume lever assumed to scale when realizing a goal.
type Driver string

const (
	DriverTraffic    Driver = "traffic"
	DriverConvRate   Driver = "conv_rate"
	DriverOrderValue Driver = "order_value"
)

// Drivers lists the levers available for a goal metric. Only revenue
// and conversions offer a choice; everything else scales traffic.
func (g GoalMetric) Drivers() []Driver {
	switch g {
	case GoalRevenue:
		return []Driver{DriverTraffic, DriverConvRate, DriverOrderValue}
	case GoalConversions:
		return []Driver{DriverTraffic, DriverConvRate}
	default:
		return []Driver{DriverTraffic}
	}
}

// ParseDriver parses user input into a driver, defaulting to traffic
// for the empty string.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "traffic", "sessions":
		return DriverTraffic, nil
	case "cr", "conv_rate", "conversion_rate":
		return DriverConvRate, nil
	case "aov", "order_value", "avg_order_value":
		return DriverOrderValue, nil
	default:
		return "", fmt.Errorf("goal driver %q: %w", s, core.ErrUnknownMetric)
	}
}

// GoalSpec is one target: reach Value on Metric over Window, realized
// by scaling Driver, tracked at Granularity.
type GoalSpec struct {
	Metric      GoalMetric       `json:"metric"`
	Value       float64          `json:"value"`
	Driver      Driver           `json:"driver"`
	Window      core.DayRange    `json:"window"`
	Granularity core.Granularity `json:"granularity"`
}

// GoalKPI is one full KPI reading: the three volumes plus the rates
// they imply.
type GoalKPI struct {
	Sessions    float64 `json:"sessions"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	ConvRate    float64 `json:"conv_rate"`
	OrderValue  float64 `json:"order_value"`
}

// GoalPeriod is one aggregation bucket of the tracking series.
type GoalPeriod struct {
	Period    int          `json:"period"`
	Start     core.Day     `json:"start"`
	Needed    MetricValues `json:"needed"`
	Baseline  MetricValues `json:"baseline"`
	Simulated MetricValues `json:"simulated"`
	GapBase   MetricValues `json:"gap_base"`
	GapSim    MetricValues `json:"gap_sim"`
}

// GoalPlan is a translated goal: the needed KPI ladder, the window's
// KPIs before and after events, and the per-period tracking series.
type GoalPlan struct {
	Spec      GoalSpec     `json:"spec"`
	Needed    GoalKPI      `json:"needed"`
	Baseline  GoalKPI      `json:"baseline"`
	Simulated GoalKPI      `json:"simulated"`
	Periods   []GoalPeriod `json:"periods"`
}

// TranslateGoal expands a single-metric target into the volumes every
// metric must reach over the window, assuming the chosen driver moves
// and the window's effective rates otherwise hold. Needed volumes are
// distributed across periods pro rata to the baseline, and gaps are
// reported per period for both series.
//
// Windows matching no projection days fail with
// core.ErrEmptyTargetWindow.
func TranslateGoal(p *Projection, spec GoalSpec) (*GoalPlan, error) {
	rows := windowRows(p, spec.Window)
	if len(rows) == 0 {
		return nil, fmt.Errorf("goal window %s: %w", spec.Window, core.ErrEmptyTargetWindow)
	}

	var base, sim MetricValues
	for _, i := range rows {
		base = base.Add(p.Rows[i].Baseline)
		sim = sim.Add(p.Rows[i].Simulated)
	}

	effAOV := p.Constants.BaseOrderValue
	if base.Conversions > 0 {
		effAOV = base.Revenue / base.Conversions
	}
	effCR := p.Constants.BaseConvRate
	if base.Sessions > 0 {
		effCR = base.Conversions / base.Sessions
	}

	needed := neededVolumes(spec.Metric, spec.Driver, spec.Value, base, effCR, effAOV)

	plan := &GoalPlan{
		Spec:      spec,
		Needed:    kpiOf(needed, 0, 0),
		Baseline:  kpiOf(base, effCR, effAOV),
		Simulated: kpiOf(sim, 0, 0),
	}
	plan.Periods = goalPeriods(p, rows, spec.Granularity, needed, base)
	return plan, nil
}

// neededVolumes is the goal translation table: which volumes move and
// which hold at baseline depends on the metric and the driver.
func neededVolumes(metric GoalMetric, driver Driver, value float64, base MetricValues, effCR, effAOV float64) MetricValues {
	var n MetricValues
	switch metric {
	case GoalRevenue:
		switch driver {
		case DriverConvRate:
			n.Sessions = base.Sessions
			n.Revenue = value
			if effAOV > 0 {
				n.Conversions = value / effAOV
			}
		case DriverOrderValue:
			n.Sessions = base.Sessions
			n.Conversions = base.Conversions
			n.Revenue = value
		default:
			n.Revenue = value
			if effAOV > 0 {
				n.Conversions = value / effAOV
			}
			if effCR > 0 {
				n.Sessions = n.Conversions / effCR
			}
		}
	case GoalConversions:
		if driver == DriverTraffic {
			n.Conversions = value
			if effCR > 0 {
				n.Sessions = value / effCR
			}
			n.Revenue = value * effAOV
		} else {
			n.Sessions = base.Sessions
			n.Conversions = value
			n.Revenue = value * effAOV
		}
	case GoalSessions:
		n.Sessions = value
		n.Conversions = value * effCR
		n.Revenue = n.Conversions * effAOV
	case GoalConvRate:
		n.Sessions = base.Sessions
		n.Conversions = base.Sessions * value
		n.Revenue = n.Conversions * effAOV
	default: // order value
		n.Sessions = base.Sessions
		n.Conversions = base.Conversions
		n.Revenue = base.Conversions * value
	}
	return n
}

// kpiOf derives the rate columns from volumes, falling back to the
// given effective rates when a denominator is zero. Pass zero
// fallbacks to report zero rates instead.
func kpiOf(v MetricValues, fallbackCR, fallbackAOV float64) GoalKPI {
	k := GoalKPI{
		Sessions:    v.Sessions,
		Conversions: v.Conversions,
		Revenue:     v.Revenue,
		ConvRate:    fallbackCR,
		OrderValue:  fallbackAOV,
	}
	if v.Sessions > 0 {
		k.ConvRate = v.Conversions / v.Sessions
	}
	if v.Conversions > 0 {
		k.OrderValue = v.Revenue / v.Conversions
	}
	return k
}

// goalPeriods buckets the window by granularity and spreads each
// needed volume pro rata to that period's share of the baseline.
func goalPeriods(p *Projection, rows []int, g core.Granularity, needed, base MetricValues) []GoalPeriod {
	type bucket struct {
		start core.Day
		base  MetricValues
		sim   MetricValues
	}
	buckets := make(map[int]*bucket)
	for _, i := range rows {
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
		b.base = b.base.Add(r.Baseline)
		b.sim = b.sim.Add(r.Simulated)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]GoalPeriod, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		n := MetricValues{
			Sessions:    share(needed.Sessions, b.base.Sessions, base.Sessions),
			Conversions: share(needed.Conversions, b.base.Conversions, base.Conversions),
			Revenue:     share(needed.Revenue, b.base.Revenue, base.Revenue),
		}
		out = append(out, GoalPeriod{
			Period:    k,
			Start:     b.start,
			Needed:    n,
			Baseline:  b.base,
			Simulated: b.sim,
			GapBase:   b.base.Sub(n),
			GapSim:    b.sim.Sub(n),
		})
	}
	return out
}

// share spreads total pro rata to part/whole, 0 when the whole is 0.
func share(total, part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return total * (part / whole)
}

func windowRows(p *Projection, r core.DayRange) []int {
	out := make([]int, 0, 64)
	for i := range p.Rows {
		if r.Contains(p.Rows[i].Day) {
			out = append(out, i)
		}
	}
	return out
}

func periodKeyOf(r ProjectionRow, g core.Granularity) int {
	switch g {
	case core.GranularityWeekly:
		return r.Week
	case core.GranularityDaily:
		return r.DayOfYear
	default:
		return r.Month
	}
}
