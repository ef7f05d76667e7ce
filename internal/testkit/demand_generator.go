package testkit

import (
	"math"
	"math/rand"
	"time"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// EntityProfile describes one synthetic entity's demand shape. Seasonal
// weights run January through December.
type EntityProfile struct {
	Name           string      `json:"name"`
	Label          string      `json:"label"`
	BaseSessions   float64     `json:"base_sessions"`
	BaseConvRate   float64     `json:"base_conv_rate"`
	BaseOrderValue float64     `json:"base_order_value"`
	Seasonal       [12]float64 `json:"seasonal"`
	Growth         float64     `json:"growth"`
}

// DemandGeneratorConfig configures the synthetic demand generator
type DemandGeneratorConfig struct {
	Entities []EntityProfile `json:"entities"`
	Start    core.Day        `json:"start"`
	End      core.Day        `json:"end"`
	Seed     int64           `json:"seed"`
}

// DefaultDemandConfig returns five entities with distinct business
// patterns over the 2022-2025 history window
func DefaultDemandConfig() DemandGeneratorConfig {
	return DemandGeneratorConfig{
		Entities: []EntityProfile{
			{
				Name:           "alpha",
				Label:          "Alpha (Tech)",
				BaseSessions:   80,
				BaseConvRate:   0.0050,
				BaseOrderValue: 420.0,
				Seasonal:       [12]float64{0.70, 0.75, 0.85, 0.90, 0.95, 0.85, 0.75, 0.80, 0.90, 1.10, 1.40, 1.60},
				Growth:         0.12,
			},
			{
				Name:           "beta",
				Label:          "Beta (Retail)",
				BaseSessions:   350,
				BaseConvRate:   0.0180,
				BaseOrderValue: 95.0,
				Seasonal:       [12]float64{0.80, 0.75, 1.05, 1.15, 1.00, 0.85, 0.75, 0.80, 0.95, 1.20, 1.45, 1.55},
				Growth:         0.08,
			},
			{
				Name:           "gamma",
				Label:          "Gamma (Luxury)",
				BaseSessions:   25,
				BaseConvRate:   0.0020,
				BaseOrderValue: 1100.0,
				Seasonal:       [12]float64{0.60, 0.65, 1.10, 1.30, 1.20, 0.85, 0.65, 0.70, 0.80, 0.95, 1.25, 1.40},
				Growth:         0.05,
			},
			{
				Name:           "delta",
				Label:          "Delta (FMCG)",
				BaseSessions:   600,
				BaseConvRate:   0.0300,
				BaseOrderValue: 35.0,
				Seasonal:       [12]float64{0.90, 0.88, 0.92, 0.95, 1.05, 1.10, 1.15, 1.10, 1.05, 0.95, 0.90, 0.85},
				Growth:         0.06,
			},
			{
				Name:           "epsilon",
				Label:          "Epsilon (B2B)",
				BaseSessions:   35,
				BaseConvRate:   0.0012,
				BaseOrderValue: 3200.0,
				Seasonal:       [12]float64{1.30, 1.20, 1.10, 0.90, 0.85, 0.80, 1.20, 1.15, 1.10, 0.95, 0.80, 0.70},
				Growth:         0.15,
			},
		},
		Start: core.NewDay(2022, time.January, 1),
		End:   core.NewDay(2025, time.October, 31),
		Seed:  42,
	}
}

// dowFactors suppress weekend demand, Monday through Sunday.
var dowFactors = [7]float64{1.05, 1.05, 1.00, 1.00, 1.05, 0.80, 0.75}

// Log-normal noise sigmas per metric.
const (
	sessionsSigma   = 0.18
	convRateSigma   = 0.12
	orderValueSigma = 0.09
)

// DemandGenerator generates realistic daily demand history
type DemandGenerator struct {
	config DemandGeneratorConfig
	rng    *rand.Rand
}

// NewDemandGenerator creates a new demand generator drawing from the
// named "demand" stream of the given source
func NewDemandGenerator(config DemandGeneratorConfig, rng ports.RNG) *DemandGenerator {
	return &DemandGenerator{
		config: config,
		rng:    rng.SeededStream("demand", config.Seed),
	}
}

// Generate produces one transaction row per entity per day across the
// configured window
func (g *DemandGenerator) Generate() []dna.Transaction {
	days := core.NewDayRange(g.config.Start, g.config.End).Days()
	baseYear := g.config.Start.Year()

	rows := make([]dna.Transaction, 0, len(days)*len(g.config.Entities))
	for _, day := range days {
		monthIdx := day.Month() - 1
		dowIdx := mondayIndexed(day.Weekday())

		for _, entity := range g.config.Entities {
			yearFactor := math.Pow(1+entity.Growth, float64(day.Year()-baseYear))
			seasonal := entity.Seasonal[monthIdx]
			dowFactor := dowFactors[dowIdx]

			// Log-normal noise keeps values positive and realistic.
			sessionsNoise := math.Exp(g.rng.NormFloat64() * sessionsSigma)
			convRateNoise := math.Exp(g.rng.NormFloat64() * convRateSigma)
			orderValueNoise := math.Exp(g.rng.NormFloat64() * orderValueSigma)

			sessions := math.Max(0, entity.BaseSessions*yearFactor*seasonal*dowFactor*sessionsNoise)
			convRate := clamp(entity.BaseConvRate*convRateNoise, 0.0001, 0.25)
			orderValue := math.Max(5.0, entity.BaseOrderValue*orderValueNoise)

			// Poisson sampling handles low-volume entities correctly.
			conversions := g.poisson(sessions * convRate)
			revenue := round2(conversions * orderValue)

			rows = append(rows, dna.Transaction{
				Entity:      entity.Name,
				Day:         day,
				Sessions:    math.Round(sessions),
				Conversions: conversions,
				Revenue:     revenue,
			})
		}
	}
	return rows
}

// poisson samples a count with the given expectation from the
// generator's stream.
func (g *DemandGenerator) poisson(lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	dist := distuv.Poisson{Lambda: lambda, Src: g.rng}
	return math.Floor(dist.Rand())
}

// mondayIndexed maps time.Weekday (Sunday = 0) onto Monday = 0.
func mondayIndexed(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
