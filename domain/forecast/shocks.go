package forecast

import (
	"godna/domain/core"
	"godna/domain/dna"
	"godna/domain/event"
)

// ShockMultiplier sums the active campaign contributions for one day:
// lift * shape(t) for every shock whose window contains the day, t
// being days since the shock start. Overlapping shocks are additive.
func ShockMultiplier(day core.Day, shocks []event.Shock) float64 {
	var total float64
	for _, s := range shocks {
		if !s.Window.Contains(day) {
			continue
		}
		t := float64(day.DaysSince(s.Window.Start))
		total += s.Lift * s.Shape.Value(t, s.Duration())
	}
	return total
}

// seriesSet carries one value per frame row per metric.
type seriesSet struct {
	sessions    []float64
	conversions []float64
	revenue     []float64
}

func newSeriesSet(n int) seriesSet {
	return seriesSet{
		sessions:    make([]float64, n),
		conversions: make([]float64, n),
		revenue:     make([]float64, n),
	}
}

// buildInjections accumulates the re-applied signature channels across
// the frame: absolute-mode events add their stored daily volumes to the
// abs channel, relative-mode events their stored daily fractions to the
// rel channel. Day j of an event lands on the frame row for start+j, so
// a window partially outside the projection year drops the days that
// fall outside while surviving days keep their own stored values.
func buildInjections(frame *dna.YearFrame, reapplied []event.ReappliedShock) (abs, rel seriesSet) {
	n := frame.Len()
	abs = newSeriesSet(n)
	rel = newSeriesSet(n)
	if n == 0 {
		return abs, rel
	}
	first := frame.Rows[0].Day

	for _, ev := range reapplied {
		target := &rel
		series := ev.DailyRel
		if ev.Mode == event.InjectAbsolute {
			target = &abs
			series = ev.DailyAbs
		}

		for j := 0; j < ev.Duration; j++ {
			row := ev.Start.AddDays(j).DaysSince(first)
			if row < 0 || row >= n {
				continue
			}
			if j < len(series.Sessions) {
				target.sessions[row] += series.Sessions[j]
			}
			if j < len(series.Conversions) {
				target.conversions[row] += series.Conversions[j]
			}
			if j < len(series.Revenue) {
				target.revenue[row] += series.Revenue[j]
			}
		}
	}
	return abs, rel
}
