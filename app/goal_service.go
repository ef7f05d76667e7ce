package app

import (
	"context"
	"fmt"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/domain/forecast"
	"godna/internal"
	"godna/internal/metrics"
	"godna/ports"
)

// GoalService translates single-metric targets into full KPI ladders
// and provides the historical context for growth-based goals.
type GoalService struct {
	transactions ports.TransactionRepository
	logger       *internal.Logger
	metrics      *metrics.Metrics
}

// NewGoalService creates a goal service
func NewGoalService(transactions ports.TransactionRepository, logger *internal.Logger, m *metrics.Metrics) *GoalService {
	return &GoalService{
		transactions: transactions,
		logger:       logger.Named("goal"),
		metrics:      m,
	}
}

// Translate expands a goal against an already computed projection into
// needed volumes and the per-period tracking series.
func (s *GoalService) Translate(ctx context.Context, p *forecast.Projection, spec forecast.GoalSpec) (*forecast.GoalPlan, error) {
	if spec.Granularity == "" {
		spec.Granularity = core.GranularityMonthly
	}
	if spec.Value <= 0 {
		return nil, core.NewValidationError("value", "goal value must be positive")
	}

	plan, err := forecast.TranslateGoal(p, spec)
	if err != nil {
		return nil, err
	}

	s.metrics.GoalsTranslated.Inc()
	s.logger.Info("Translated %s goal %.0f over %s into %d periods",
		spec.Metric, spec.Value, spec.Window, len(plan.Periods))
	return plan, nil
}

// YearlyKPIs returns the per-entity annual totals shown as historical
// context when setting growth targets.
func (s *GoalService) YearlyKPIs(ctx context.Context, entities []string) ([]dna.YearlyKPI, error) {
	history, err := s.transactions.History(ctx, entities)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return dna.BuildYearlyKPIs(history), nil
}

// GrowthTarget converts "grow metric by pct over baseYear" into an
// absolute goal value. Volumes sum across the selected entities; rates
// are re-derived from the summed volumes.
func (s *GoalService) GrowthTarget(ctx context.Context, entities []string, metric string, baseYear int, growthPct float64) (float64, error) {
	kpis, err := s.YearlyKPIs(ctx, entities)
	if err != nil {
		return 0, err
	}

	combined := dna.YearlyKPI{Year: baseYear}
	var found bool
	for _, k := range kpis {
		if k.Year != baseYear {
			continue
		}
		found = true
		combined.Sessions += k.Sessions
		combined.Conversions += k.Conversions
		combined.Revenue += k.Revenue
	}
	if !found {
		return 0, fmt.Errorf("%w: no history for year %d", core.ErrNotFound, baseYear)
	}
	if combined.Sessions > 0 {
		combined.ConvRate = combined.Conversions / combined.Sessions
	}
	if combined.Conversions > 0 {
		combined.OrderValue = combined.Revenue / combined.Conversions
	}

	base := combined.Value(metric)
	if base == 0 {
		return 0, fmt.Errorf("metric %q: %w", metric, core.ErrUnknownMetric)
	}
	return base * (1 + growthPct/100), nil
}
