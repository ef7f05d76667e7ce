package dna

import (
	"sort"
	"time"

	"godna/domain/core"
)

// FrameRow is one calendar day of the projection year with its period
// keys and the three seasonality layers.
type FrameRow struct {
	Day       core.Day
	Month     int
	Week      int
	DayOfYear int

	// Layers, filled by CompileLayers. Pure is the untouched blend,
	// PreTrial carries pre-trial structural events, Work additionally
	// carries post-trial structural events.
	Pure     IndexSet
	PreTrial IndexSet
	Work     IndexSet
}

// YearFrame is a full projection year, one row per calendar day. It is
// rebuilt from scratch for every computation; nothing is cached across
// event-log changes.
type YearFrame struct {
	Year int
	Rows []FrameRow
}

// NewYearFrame materializes every day of the target year with its
// month, ISO week and day-of-year keys. Layers start neutral.
func NewYearFrame(year int) *YearFrame {
	start := core.NewDay(year, time.January, 1)
	end := core.NewDay(year, time.December, 31)
	n := end.DaysSince(start) + 1

	rows := make([]FrameRow, n)
	for i := 0; i < n; i++ {
		d := start.AddDays(i)
		rows[i] = FrameRow{
			Day:       d,
			Month:     d.Month(),
			Week:      d.ISOWeek(),
			DayOfYear: d.DayOfYear(),
			Pure:      NeutralIndex(),
			PreTrial:  NeutralIndex(),
			Work:      NeutralIndex(),
		}
	}
	return &YearFrame{Year: year, Rows: rows}
}

// Len returns the day count (365 or 366).
func (f *YearFrame) Len() int { return len(f.Rows) }

// PeriodKey returns the row's period key at the given granularity.
func (r FrameRow) PeriodKey(g core.Granularity) int {
	switch g {
	case core.GranularityMonthly:
		return r.Month
	case core.GranularityWeekly:
		return r.Week
	case core.GranularityDaily:
		return r.DayOfYear
	default:
		return 0
	}
}

// RowIndexesIn returns the indices of rows whose day falls inside the
// inclusive range, in calendar order.
func (f *YearFrame) RowIndexesIn(r core.DayRange) []int {
	if !r.IsValid() {
		return nil
	}
	out := make([]int, 0, r.Len())
	for i := range f.Rows {
		if r.Contains(f.Rows[i].Day) {
			out = append(out, i)
		}
	}
	return out
}

// PeriodsInRange returns the sorted distinct period keys, at the given
// granularity, of frame rows falling inside the date range. This is how
// range-based swap events resolve to concrete periods.
func (f *YearFrame) PeriodsInRange(g core.Granularity, r core.DayRange) []int {
	seen := map[int]bool{}
	for _, i := range f.RowIndexesIn(r) {
		seen[f.Rows[i].PeriodKey(g)] = true
	}
	periods := make([]int, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	return periods
}

// LayerAverage is the mean of each layer's indices across one period,
// the data behind the layered DNA profile view.
type LayerAverage struct {
	Period   int      `json:"period"`
	Start    core.Day `json:"start"`
	Pure     IndexSet `json:"pure"`
	PreTrial IndexSet `json:"pre_trial"`
	Work     IndexSet `json:"work"`
}

// LayerAverages rolls the compiled layers up to the given granularity,
// averaging each index dimension per period.
func (f *YearFrame) LayerAverages(g core.Granularity) []LayerAverage {
	type bucket struct {
		start    core.Day
		days     int
		pure     IndexSet
		preTrial IndexSet
		work     IndexSet
	}
	buckets := make(map[int]*bucket)
	for i := range f.Rows {
		r := f.Rows[i]
		key := r.PeriodKey(g)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{start: r.Day}
			buckets[key] = b
		}
		b.days++
		b.pure = b.pure.Add(r.Pure)
		b.preTrial = b.preTrial.Add(r.PreTrial)
		b.work = b.work.Add(r.Work)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]LayerAverage, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		inv := 1.0 / float64(b.days)
		out = append(out, LayerAverage{
			Period:   k,
			Start:    b.start,
			Pure:     b.pure.Scale(inv),
			PreTrial: b.preTrial.Scale(inv),
			Work:     b.work.Scale(inv),
		})
	}
	return out
}
