package dna

import (
	"sort"

	"github.com/montanaflynn/stats"

	"godna/domain/core"
)

// BuildProfiles derives the full profile store content from raw daily
// transactions: for every entity, for the overall scope plus each
// calendar year, at every granularity, periods are aggregated and each
// of the three series (session volume, conversion rate, order value) is
// normalized by its own median. The resulting index series therefore
// have median 1.0; a zero or undefined median leaves the whole series
// at the neutral 1.0.
func BuildProfiles(transactions []Transaction) ProfileSet {
	byEntity := map[string][]Transaction{}
	for _, t := range transactions {
		name := core.NormalizeEntity(t.Entity)
		if name == "" {
			continue
		}
		byEntity[name] = append(byEntity[name], t)
	}

	entities := make([]string, 0, len(byEntity))
	for e := range byEntity {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	granularities := []core.Granularity{
		core.GranularityMonthly,
		core.GranularityWeekly,
		core.GranularityDaily,
	}

	var out ProfileSet
	for _, entity := range entities {
		rows := byEntity[entity]

		years := map[int]bool{}
		for _, t := range rows {
			years[t.Day.Year()] = true
		}
		scopes := []int{OverallYear}
		for y := range years {
			scopes = append(scopes, y)
		}
		sort.Ints(scopes)

		for _, scope := range scopes {
			scoped := rows
			if scope != OverallYear {
				scoped = nil
				for _, t := range rows {
					if t.Day.Year() == scope {
						scoped = append(scoped, t)
					}
				}
			}
			if len(scoped) == 0 {
				continue
			}
			for _, g := range granularities {
				out = append(out, profileRows(entity, scope, g, scoped)...)
			}
		}
	}
	return out
}

type periodAgg struct {
	sessions    float64
	conversions float64
	revenue     float64
}

// profileRows aggregates one (entity, scope, granularity) group into
// per-period records with median-normalized indices.
func profileRows(entity string, year int, g core.Granularity, rows []Transaction) []IndexRecord {
	agg := map[int]*periodAgg{}
	for _, t := range rows {
		p := g.PeriodOf(t.Day)
		a := agg[p]
		if a == nil {
			a = &periodAgg{}
			agg[p] = a
		}
		a.sessions += t.Sessions
		a.conversions += t.Conversions
		a.revenue += t.Revenue
	}

	periods := make([]int, 0, len(agg))
	for p := range agg {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	n := len(periods)
	sessions := make([]float64, n)
	convRate := make([]float64, n)
	orderValue := make([]float64, n)
	for i, p := range periods {
		a := agg[p]
		sessions[i] = a.sessions
		if a.sessions > 0 {
			convRate[i] = a.conversions / a.sessions
		}
		if a.conversions > 0 {
			orderValue[i] = a.revenue / a.conversions
		}
	}

	idxSessions := normalizeByMedian(sessions)
	idxConvRate := normalizeByMedian(convRate)
	idxOrderValue := normalizeByMedian(orderValue)

	out := make([]IndexRecord, n)
	for i, p := range periods {
		a := agg[p]
		out[i] = IndexRecord{
			Entity:        entity,
			Year:          year,
			Granularity:   g,
			Period:        p,
			Sessions:      a.sessions,
			Conversions:   a.conversions,
			Revenue:       a.revenue,
			ConvRate:      convRate[i],
			OrderValue:    orderValue[i],
			IdxSessions:   idxSessions[i],
			IdxConvRate:   idxConvRate[i],
			IdxOrderValue: idxOrderValue[i],
		}
	}
	return out
}

// normalizeByMedian divides a series by its median. A zero or
// undefined median yields the neutral all-ones series.
func normalizeByMedian(vals []float64) []float64 {
	out := make([]float64, len(vals))
	med, err := stats.Median(vals)
	if err != nil || med == 0 {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, v := range vals {
		out[i] = v / med
	}
	return out
}

// YearlyKPI is one entity's annual totals with derived rates, shown as
// historical context when setting growth targets.
type YearlyKPI struct {
	Entity      string  `json:"entity"`
	Year        int     `json:"year"`
	Sessions    float64 `json:"sessions"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	ConvRate    float64 `json:"conv_rate"`
	OrderValue  float64 `json:"order_value"`
}

// Value returns the KPI column by name: one of the three volumes, cr
// or aov. Unknown names return 0.
func (k YearlyKPI) Value(metric string) float64 {
	switch metric {
	case "sessions":
		return k.Sessions
	case "conversions":
		return k.Conversions
	case "revenue":
		return k.Revenue
	case "cr", "conv_rate":
		return k.ConvRate
	case "aov", "order_value":
		return k.OrderValue
	default:
		return 0
	}
}

// BuildYearlyKPIs sums raw transactions per entity and year, sorted by
// entity then year.
func BuildYearlyKPIs(transactions []Transaction) []YearlyKPI {
	type key struct {
		entity string
		year   int
	}
	agg := map[key]*periodAgg{}
	for _, t := range transactions {
		name := core.NormalizeEntity(t.Entity)
		if name == "" {
			continue
		}
		k := key{entity: name, year: t.Day.Year()}
		a := agg[k]
		if a == nil {
			a = &periodAgg{}
			agg[k] = a
		}
		a.sessions += t.Sessions
		a.conversions += t.Conversions
		a.revenue += t.Revenue
	}

	keys := make([]key, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].entity != keys[j].entity {
			return keys[i].entity < keys[j].entity
		}
		return keys[i].year < keys[j].year
	})

	out := make([]YearlyKPI, 0, len(keys))
	for _, k := range keys {
		a := agg[k]
		kpi := YearlyKPI{
			Entity:      k.entity,
			Year:        k.year,
			Sessions:    a.sessions,
			Conversions: a.conversions,
			Revenue:     a.revenue,
		}
		if a.sessions > 0 {
			kpi.ConvRate = a.conversions / a.sessions
		}
		if a.conversions > 0 {
			kpi.OrderValue = a.revenue / a.conversions
		}
		out = append(out, kpi)
	}
	return out
}
