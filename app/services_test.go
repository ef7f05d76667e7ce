package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"godna/domain/core"
	"godna/domain/event"
	"godna/domain/forecast"
	"godna/internal"
	"godna/internal/metrics"
	"godna/internal/testkit"
)

// newServices wires every service over in-memory stores seeded by the kit
func newServices(t *testing.T) (*testkit.TestKit, *ForecastService, *LabService, *GoalService, *ProfileService) {
	t.Helper()
	kit := testkit.NewTestKit()
	logger := internal.NewLogger(internal.LogLevelError)
	m := metrics.NewWith(prometheus.NewRegistry())

	return kit,
		NewForecastService(kit.ProfileRepository(), kit.SettingsRepository(), logger, m),
		NewLabService(kit.TransactionRepository(), kit.SignatureRepository(), logger, m, 2),
		NewGoalService(kit.TransactionRepository(), logger, m),
		NewProfileService(kit.ProfileRepository(), kit.TransactionRepository(), logger, m)
}

// seedHistory loads three full synthetic years into the kit
func seedHistory(t *testing.T, kit *testkit.TestKit) {
	t.Helper()
	config := testkit.DefaultDemandConfig()
	config.Start = core.NewDay(2022, time.January, 1)
	config.End = core.NewDay(2024, time.December, 31)
	if _, err := kit.SeedDemand(context.Background(), config); err != nil {
		t.Fatalf("Failed to seed history: %v", err)
	}
}

// januaryTrial is a calibratable trial observation for early 2025
func januaryTrial() forecast.TrialObservation {
	return forecast.TrialObservation{
		Window:      core.NewDayRange(core.NewDay(2025, time.January, 1), core.NewDay(2025, time.January, 31)),
		Sessions:    3000,
		Conversions: 15,
		Revenue:     6300,
	}
}

func TestForecastService_ComputeProjection(t *testing.T) {
	kit, forecastSvc, _, _, _ := newServices(t)
	seedHistory(t, kit)

	result, err := forecastSvc.ComputeProjection(context.Background(), ForecastRequest{
		Entities: []string{"alpha"},
		Trial:    januaryTrial(),
	})
	assert.NoError(t, err)
	assert.NotNil(t, result)

	assert.Equal(t, 2025, result.Year)
	assert.Len(t, result.Projection.Rows, 365)
	assert.Len(t, result.Aggregates, 12, "Monthly aggregation should produce 12 periods")
	assert.Len(t, result.Layers, 12)

	assert.Len(t, result.Weights, 3, "Three historical years should be weighted")
	var sum float64
	for _, w := range result.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "Weights should be normalized")

	assert.Greater(t, result.Constants.BaseRate, 0.0)
	assert.Greater(t, result.Constants.BaseConvRate, 0.0)
	assert.Greater(t, result.Constants.BaseOrderValue, 0.0)

	// With no events the simulation tracks the baseline exactly.
	for _, i := range []int{0, 100, 200, 364} {
		row := result.Projection.Rows[i]
		assert.InDelta(t, row.Baseline.Sessions, row.Simulated.Sessions, 1e-9)
		assert.InDelta(t, row.Baseline.Revenue, row.Simulated.Revenue, 1e-9)
	}
}

func TestForecastService_EmptyEntitiesUsesAll(t *testing.T) {
	kit, forecastSvc, _, _, _ := newServices(t)
	seedHistory(t, kit)

	result, err := forecastSvc.ComputeProjection(context.Background(), ForecastRequest{Trial: januaryTrial()})
	assert.NoError(t, err)
	assert.Len(t, result.Entities, 5, "Empty selection should cover every stored entity")
}

func TestForecastService_InvalidTrialWindow(t *testing.T) {
	kit, forecastSvc, _, _, _ := newServices(t)
	seedHistory(t, kit)

	_, err := forecastSvc.ComputeProjection(context.Background(), ForecastRequest{
		Entities: []string{"alpha"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidDateRange)
}

func TestForecastService_ShockLiftsSimulated(t *testing.T) {
	kit, forecastSvc, _, _, _ := newServices(t)
	seedHistory(t, kit)

	february := core.NewDayRange(core.NewDay(2025, time.February, 1), core.NewDay(2025, time.February, 28))
	result, err := forecastSvc.ComputeProjection(context.Background(), ForecastRequest{
		Entities: []string{"alpha"},
		Trial:    januaryTrial(),
		Log: event.Log{
			event.Shock{
				EventID: core.NewEventID(),
				Name:    "february_push",
				Window:  february,
				Shape:   event.ShapeStep,
				Lift:    0.25,
			},
		},
	})
	assert.NoError(t, err)

	baseFeb := result.Projection.SumOver(february, core.MetricSessions, forecast.SeriesBaseline)
	simFeb := result.Projection.SumOver(february, core.MetricSessions, forecast.SeriesSimulated)
	assert.InEpsilon(t, baseFeb*1.25, simFeb, 1e-9, "Step shock should lift sessions by its full strength")

	march := core.NewDayRange(core.NewDay(2025, time.March, 1), core.NewDay(2025, time.March, 31))
	baseMar := result.Projection.SumOver(march, core.MetricSessions, forecast.SeriesBaseline)
	simMar := result.Projection.SumOver(march, core.MetricSessions, forecast.SeriesSimulated)
	assert.InDelta(t, baseMar, simMar, 1e-9, "Days outside the shock window stay organic")
}

func TestForecastService_SettingsRoundTrip(t *testing.T) {
	_, forecastSvc, _, _, _ := newServices(t)
	ctx := context.Background()

	err := forecastSvc.SetCampaignDefault(ctx, "alpha", event.ShapeDelayedPeak, 37.5)
	assert.NoError(t, err)

	defaults, err := forecastSvc.CampaignDefaults(ctx, "alpha")
	assert.NoError(t, err)
	assert.Equal(t, 37.5, defaults[event.ShapeDelayedPeak])
	assert.Equal(t, 25.0, defaults[event.ShapeStep], "Untouched shapes keep the global default")
}

func TestLabService_ExtractAndReapply(t *testing.T) {
	kit, _, labSvc, _, _ := newServices(t)
	seedHistory(t, kit)
	ctx := context.Background()

	window := core.NewDayRange(core.NewDay(2024, time.November, 1), core.NewDay(2024, time.November, 30))
	sig, err := labSvc.ExtractSignature(ctx, "black_friday_2024", []string{"alpha"}, window)
	assert.NoError(t, err)
	assert.False(t, sig.ID.IsEmpty())
	assert.Equal(t, 30, sig.Duration)
	assert.Greater(t, sig.ExcessSessions, 0.0)
	assert.Len(t, sig.DailyAbs.Sessions, 30)

	stored, err := kit.SignatureRepository().Get(ctx, sig.ID)
	assert.NoError(t, err)
	assert.Equal(t, "black_friday_2024", stored.Name)

	ev, err := labSvc.ReapplySignature(ctx, "black_friday_2024", event.InjectRelative, core.NewDay(2025, time.November, 1))
	assert.NoError(t, err)
	assert.Equal(t, 30, ev.Duration)
	assert.Equal(t, sig.ID, ev.Signature)

	_, err = labSvc.ReapplySignature(ctx, "missing", event.InjectAbsolute, core.NewDay(2025, time.June, 1))
	assert.ErrorIs(t, err, core.ErrSignatureNotFound)
}

func TestLabService_ExtractRequiresName(t *testing.T) {
	_, _, labSvc, _, _ := newServices(t)

	window := core.NewDayRange(core.NewDay(2024, time.May, 1), core.NewDay(2024, time.May, 14))
	_, err := labSvc.ExtractSignature(context.Background(), "", nil, window)
	assert.Error(t, err)
}

func TestLabService_Audit(t *testing.T) {
	kit, forecastSvc, labSvc, _, _ := newServices(t)
	seedHistory(t, kit)
	ctx := context.Background()

	req := ForecastRequest{
		Entities: []string{"alpha"},
		Trial:    januaryTrial(),
		Log: event.Log{
			event.Shock{
				EventID: core.NewEventID(),
				Name:    "spring",
				Window:  core.NewDayRange(core.NewDay(2025, time.April, 1), core.NewDay(2025, time.April, 30)),
				Shape:   event.ShapeLinearFade,
				Lift:    0.30,
			},
			event.Shock{
				EventID: core.NewEventID(),
				Name:    "summer",
				Window:  core.NewDayRange(core.NewDay(2025, time.June, 1), core.NewDay(2025, time.June, 14)),
				Shape:   event.ShapeFrontLoaded,
				Lift:    0.20,
			},
		},
	}
	scn, err := forecastSvc.Scenario(ctx, req)
	assert.NoError(t, err)

	target := core.NewDayRange(core.NewDay(2025, time.April, 1), core.NewDay(2025, time.June, 30))
	result, err := labSvc.Audit(ctx, scn, target, forecast.GoalRevenue, 500_000)
	assert.NoError(t, err)

	assert.Len(t, result.Contributions, 2)
	assert.Equal(t, 500_000.0, result.Needed, "Volume goals audit against the goal value itself")

	// Marginal contributions telescope to the full simulated minus organic.
	full := scn.Evaluate(target).Get(core.MetricRevenue)
	organic := scn.WithLog(nil).Evaluate(target).Get(core.MetricRevenue)
	var deltas float64
	for _, c := range result.Contributions {
		deltas += c.Delta
	}
	assert.InEpsilon(t, full-organic, deltas, 1e-9)
	assert.Equal(t, organic, result.Organic)
}

func TestGoalService_Translate(t *testing.T) {
	kit, forecastSvc, _, goalSvc, _ := newServices(t)
	seedHistory(t, kit)
	ctx := context.Background()

	result, err := forecastSvc.ComputeProjection(ctx, ForecastRequest{
		Entities: []string{"alpha"},
		Trial:    januaryTrial(),
	})
	assert.NoError(t, err)

	spec := forecast.GoalSpec{
		Metric: forecast.GoalRevenue,
		Value:  1_000_000,
		Driver: forecast.DriverTraffic,
		Window: core.NewDayRange(core.NewDay(2025, time.March, 1), core.NewDay(2025, time.March, 31)),
	}
	plan, err := goalSvc.Translate(ctx, result.Projection, spec)
	assert.NoError(t, err)

	assert.InDelta(t, 1_000_000, plan.Needed.Revenue, 1e-9)
	assert.Greater(t, plan.Needed.Sessions, 0.0)
	assert.Len(t, plan.Periods, 1, "A one-month window tracks as one monthly period")
	// Scaling traffic holds the window's effective rates.
	assert.InEpsilon(t, plan.Baseline.ConvRate, plan.Needed.ConvRate, 1e-9)
	assert.InEpsilon(t, plan.Baseline.OrderValue, plan.Needed.OrderValue, 1e-9)
}

func TestGoalService_TranslateRejectsBadInputs(t *testing.T) {
	kit, forecastSvc, _, goalSvc, _ := newServices(t)
	seedHistory(t, kit)
	ctx := context.Background()

	result, err := forecastSvc.ComputeProjection(ctx, ForecastRequest{
		Entities: []string{"alpha"},
		Trial:    januaryTrial(),
	})
	assert.NoError(t, err)

	_, err = goalSvc.Translate(ctx, result.Projection, forecast.GoalSpec{
		Metric: forecast.GoalRevenue,
		Window: core.NewDayRange(core.NewDay(2025, time.March, 1), core.NewDay(2025, time.March, 31)),
	})
	assert.Error(t, err, "Zero goal value should be rejected")

	_, err = goalSvc.Translate(ctx, result.Projection, forecast.GoalSpec{
		Metric: forecast.GoalRevenue,
		Value:  100,
		Window: core.NewDayRange(core.NewDay(2030, time.March, 1), core.NewDay(2030, time.March, 31)),
	})
	assert.ErrorIs(t, err, core.ErrEmptyTargetWindow)
}

func TestGoalService_GrowthTarget(t *testing.T) {
	kit, _, _, goalSvc, _ := newServices(t)
	seedHistory(t, kit)
	ctx := context.Background()

	kpis, err := goalSvc.YearlyKPIs(ctx, []string{"alpha"})
	assert.NoError(t, err)
	assert.Len(t, kpis, 3)

	var revenue2023 float64
	for _, k := range kpis {
		if k.Year == 2023 {
			revenue2023 = k.Revenue
		}
	}
	assert.Greater(t, revenue2023, 0.0)

	target, err := goalSvc.GrowthTarget(ctx, []string{"alpha"}, "revenue", 2023, 20)
	assert.NoError(t, err)
	assert.InEpsilon(t, revenue2023*1.2, target, 1e-12)

	_, err = goalSvc.GrowthTarget(ctx, []string{"alpha"}, "revenue", 1999, 20)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProfileService_RebuildAndImport(t *testing.T) {
	kit, _, _, _, profileSvc := newServices(t)
	ctx := context.Background()

	_, err := profileSvc.Rebuild(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound, "Rebuild without history should fail")

	config := testkit.DefaultDemandConfig()
	config.Start = core.NewDay(2023, time.January, 1)
	config.End = core.NewDay(2023, time.June, 30)
	rows := testkit.NewDemandGenerator(config, kit.RNG()).Generate()

	count, err := profileSvc.Import(ctx, rows)
	assert.NoError(t, err)
	assert.Greater(t, count, 0)

	entities, err := profileSvc.Entities(ctx)
	assert.NoError(t, err)
	assert.Len(t, entities, 5)

	span, err := profileSvc.Span(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "2023-01-01..2023-06-30", span.String())
}