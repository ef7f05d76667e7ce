package forecast

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/domain/event"
)

// OrganicFloorPercentile is the percentile of the window's observed
// days that stands in for organic demand during extraction.
const OrganicFloorPercentile = 10.0

// Signature is an extracted shock: the day-by-day excess a historical
// window carried above its organic floor, stored in both absolute units
// and as fractions of the floor so it can be re-injected either way.
type Signature struct {
	ID       core.SignatureID `json:"id"`
	Name     string           `json:"name"`
	Entities []string         `json:"entities"`
	Window   core.DayRange    `json:"window"`
	Duration int              `json:"duration"`

	FloorSessions    float64 `json:"floor_sessions"`
	FloorConversions float64 `json:"floor_conversions"`
	FloorRevenue     float64 `json:"floor_revenue"`

	OrganicConvRate float64 `json:"organic_conv_rate"`
	EventConvRate   float64 `json:"event_conv_rate"`
	ConvRateDelta   float64 `json:"conv_rate_delta"`

	ExcessSessions    float64 `json:"excess_sessions"`
	ExcessConversions float64 `json:"excess_conversions"`
	ExcessRevenue     float64 `json:"excess_revenue"`

	DailyAbs event.DailySeries `json:"daily_abs"`
	DailyRel event.DailySeries `json:"daily_rel"`

	CreatedAt core.Timestamp `json:"created_at"`
}

// Reapply turns the signature into an injectable event starting at a
// new date, in the given mode.
func (s *Signature) Reapply(mode event.InjectionMode, start core.Day) event.ReappliedShock {
	return event.ReappliedShock{
		EventID:   core.NewEventID(),
		Name:      s.Name,
		Signature: s.ID,
		Mode:      mode,
		Start:     start,
		Duration:  s.Duration,
		DailyAbs:  s.DailyAbs,
		DailyRel:  s.DailyRel,
	}
}

type dayTotals struct {
	sessions    float64
	conversions float64
	revenue     float64
}

// ExtractSignature isolates the artificial excess inside a historical
// window. Observations are summed per day across entities, the organic
// floor per metric is the 10th percentile of the observed days, and
// everything above the floor counts as the shock. The stored series
// carry one entry per calendar day of the window; days with no
// observations contribute zero excess. Windows whose excess sessions
// sum to zero carry no extractable shock and fail with
// core.ErrNoSignificantShock.
func ExtractSignature(name string, entities []string, window core.DayRange, obs []dna.Transaction) (*Signature, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("signature window %s: %w", window, core.ErrInvalidDateRange)
	}

	byDay := make(map[core.Day]*dayTotals)
	for i := range obs {
		if !window.Contains(obs[i].Day) {
			continue
		}
		t, ok := byDay[obs[i].Day]
		if !ok {
			t = &dayTotals{}
			byDay[obs[i].Day] = t
		}
		t.sessions += obs[i].Sessions
		t.conversions += obs[i].Conversions
		t.revenue += obs[i].Revenue
	}
	if len(byDay) == 0 {
		return nil, fmt.Errorf("no observed days in %s: %w", window, core.ErrNoSignificantShock)
	}

	obsSessions := make([]float64, 0, len(byDay))
	obsConversions := make([]float64, 0, len(byDay))
	obsRevenue := make([]float64, 0, len(byDay))
	for _, t := range byDay {
		obsSessions = append(obsSessions, t.sessions)
		obsConversions = append(obsConversions, t.conversions)
		obsRevenue = append(obsRevenue, t.revenue)
	}

	floorS := percentileOrMin(obsSessions, OrganicFloorPercentile)
	floorC := percentileOrMin(obsConversions, OrganicFloorPercentile)
	floorR := percentileOrMin(obsRevenue, OrganicFloorPercentile)

	days := window.Days()
	duration := len(days)
	abs := event.DailySeries{
		Sessions:    make([]float64, duration),
		Conversions: make([]float64, duration),
		Revenue:     make([]float64, duration),
	}
	rel := event.DailySeries{
		Sessions:    make([]float64, duration),
		Conversions: make([]float64, duration),
		Revenue:     make([]float64, duration),
	}

	var totS, totC, totR float64
	for i, d := range days {
		t := byDay[d]
		if t == nil {
			continue
		}
		ds := max0(t.sessions - floorS)
		dc := max0(t.conversions - floorC)
		dr := max0(t.revenue - floorR)

		abs.Sessions[i] = ds
		abs.Conversions[i] = dc
		abs.Revenue[i] = dr
		if floorS > 0 {
			rel.Sessions[i] = ds / floorS
		}
		if floorC > 0 {
			rel.Conversions[i] = dc / floorC
		}
		if floorR > 0 {
			rel.Revenue[i] = dr / floorR
		}

		totS += ds
		totC += dc
		totR += dr
	}

	if totS <= 0 {
		return nil, fmt.Errorf("window %s sits at the organic floor: %w", window, core.ErrNoSignificantShock)
	}

	var organicCR float64
	if floorS > 0 {
		organicCR = floorC / floorS
	}
	eventCR := totC / totS

	return &Signature{
		ID:                core.NewSignatureID(),
		Name:              name,
		Entities:          core.NormalizeEntities(entities),
		Window:            window,
		Duration:          duration,
		FloorSessions:     floorS,
		FloorConversions:  floorC,
		FloorRevenue:      floorR,
		OrganicConvRate:   organicCR,
		EventConvRate:     eventCR,
		ConvRateDelta:     eventCR - organicCR,
		ExcessSessions:    totS,
		ExcessConversions: totC,
		ExcessRevenue:     totR,
		DailyAbs:          abs,
		DailyRel:          rel,
		CreatedAt:         core.Now(),
	}, nil
}

// percentileOrMin computes the given percentile, falling back to the
// series minimum when the sample is too small for interpolation.
func percentileOrMin(vals []float64, pct float64) float64 {
	p, err := stats.Percentile(vals, pct)
	if err == nil {
		return p
	}
	m, err := stats.Min(vals)
	if err != nil {
		return 0
	}
	return m
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
