package dna

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"godna/domain/core"
)

// IndexSet holds one seasonal index per metric dimension: session
// volume, conversion rate and order value.
type IndexSet struct {
	Sessions   float64 `json:"sessions"`
	ConvRate   float64 `json:"conv_rate"`
	OrderValue float64 `json:"order_value"`
}

// NeutralIndex is the identity seasonality, used wherever history is
// silent.
func NeutralIndex() IndexSet {
	return IndexSet{Sessions: 1.0, ConvRate: 1.0, OrderValue: 1.0}
}

// Scale multiplies every dimension by f.
func (s IndexSet) Scale(f float64) IndexSet {
	return IndexSet{Sessions: s.Sessions * f, ConvRate: s.ConvRate * f, OrderValue: s.OrderValue * f}
}

// Add sums two index sets dimension-wise.
func (s IndexSet) Add(o IndexSet) IndexSet {
	return IndexSet{Sessions: s.Sessions + o.Sessions, ConvRate: s.ConvRate + o.ConvRate, OrderValue: s.OrderValue + o.OrderValue}
}

// MonthDNA is the blended seasonality of one calendar month.
type MonthDNA struct {
	Month int      `json:"month"`
	Index IndexSet `json:"index"`
}

// PureDNA is the canonical monthly seasonality profile: exactly twelve
// rows, months 1 through 12.
type PureDNA [12]MonthDNA

// At returns the index set for a 1-based month, neutral for anything
// out of range.
func (d PureDNA) At(month int) IndexSet {
	if month < 1 || month > 12 {
		return NeutralIndex()
	}
	return d[month-1].Index
}

// BlendPureDNA mixes the overall monthly profile with the
// similarity-weighted per-year monthly profiles:
//
//	idx(m) = 0.35*overallMedian(m) + 0.65*Σ_y w_y*yearMedian(y, m)
//
// Monthly medians are taken across the selected entities' profile rows.
// A year with no rows for month m contributes the overall median for
// that month, so sparse history degrades toward the global shape rather
// than toward zero. Months silent even in the overall profile stay at
// the neutral index 1.0.
func BlendPureDNA(profiles ProfileSet, entities []string, weights SimilarityWeights) PureDNA {
	monthly := profiles.ByEntities(entities).ByGranularity(core.GranularityMonthly)

	overall := monthlyMedians(monthly.ByYear(OverallYear))

	perYear := make(map[int]map[int]IndexSet, len(weights))
	for year := range weights {
		perYear[year] = monthlyMedians(monthly.ByYear(year))
	}
	years := weights.Years()

	var out PureDNA
	for m := 1; m <= 12; m++ {
		base, ok := overall[m]
		if !ok {
			base = NeutralIndex()
		}
		idx := base.Scale(OverallBlendWeight)

		if len(years) > 0 {
			idx = idx.Add(weightedYearTerm(years, weights, perYear, m, base).Scale(YearBlendWeight))
		}
		out[m-1] = MonthDNA{Month: m, Index: idx}
	}
	return out
}

// weightedYearTerm computes the per-dimension weighted sum over the
// historical years for one month, where a year missing that month falls
// back to the overall median. Expressed as weightedMean*Σw so the
// result is exactly Σ_y w_y*value(y, m) whether or not the weights are
// normalized.
func weightedYearTerm(years []int, weights SimilarityWeights, perYear map[int]map[int]IndexSet, month int, fallback IndexSet) IndexSet {
	n := len(years)
	sessions := make([]float64, n)
	convRate := make([]float64, n)
	orderValue := make([]float64, n)
	ws := make([]float64, n)

	for i, year := range years {
		val, ok := perYear[year][month]
		if !ok {
			val = fallback
		}
		sessions[i] = val.Sessions
		convRate[i] = val.ConvRate
		orderValue[i] = val.OrderValue
		ws[i] = weights[year]
	}

	total := floats.Sum(ws)
	if total == 0 {
		return IndexSet{}
	}
	return IndexSet{
		Sessions:   stat.Mean(sessions, ws) * total,
		ConvRate:   stat.Mean(convRate, ws) * total,
		OrderValue: stat.Mean(orderValue, ws) * total,
	}
}

// monthlyMedians reduces profile rows to one median index set per month.
func monthlyMedians(rows ProfileSet) map[int]IndexSet {
	bySessions := map[int][]float64{}
	byConvRate := map[int][]float64{}
	byOrderValue := map[int][]float64{}
	for _, r := range rows {
		bySessions[r.Period] = append(bySessions[r.Period], r.IdxSessions)
		byConvRate[r.Period] = append(byConvRate[r.Period], r.IdxConvRate)
		byOrderValue[r.Period] = append(byOrderValue[r.Period], r.IdxOrderValue)
	}
	out := make(map[int]IndexSet, len(bySessions))
	for month := range bySessions {
		out[month] = IndexSet{
			Sessions:   medianOf(bySessions[month], 1.0),
			ConvRate:   medianOf(byConvRate[month], 1.0),
			OrderValue: medianOf(byOrderValue[month], 1.0),
		}
	}
	return out
}

func medianOf(vals []float64, fallback float64) float64 {
	med, err := stats.Median(vals)
	if err != nil {
		return fallback
	}
	return med
}
