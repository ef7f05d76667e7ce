package app

import (
	"context"
	"fmt"
	"time"

	"godna/domain/core"
	"godna/domain/event"
	"godna/domain/forecast"
	"godna/internal"
	"godna/internal/metrics"
	"godna/ports"
)

// LabService runs the event-lab workflows: extracting shock signatures
// from history, re-applying them to simulations and auditing an event
// log's contributions toward a goal.
type LabService struct {
	transactions ports.TransactionRepository
	signatures   ports.SignatureRepository
	logger       *internal.Logger
	metrics      *metrics.Metrics
	parallelism  int
}

// NewLabService creates a lab service. parallelism bounds concurrent
// audit prefix evaluations; values below 1 use the engine default.
func NewLabService(transactions ports.TransactionRepository, signatures ports.SignatureRepository, logger *internal.Logger, m *metrics.Metrics, parallelism int) *LabService {
	return &LabService{
		transactions: transactions,
		signatures:   signatures,
		logger:       logger.Named("lab"),
		metrics:      m,
		parallelism:  parallelism,
	}
}

// ExtractSignature isolates the excess above the organic floor inside a
// historical window and persists it for later re-injection.
func (s *LabService) ExtractSignature(ctx context.Context, name string, entities []string, window core.DayRange) (*forecast.Signature, error) {
	if name == "" {
		return nil, core.NewValidationError("name", "signature name is required")
	}

	// Fetch two weeks of context either side; the floor itself comes
	// from the window days only.
	fetch := core.NewDayRange(window.Start.AddDays(-14), window.End.AddDays(14))
	obs, err := s.transactions.Window(ctx, entities, fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to load window observations: %w", err)
	}

	sig, err := forecast.ExtractSignature(name, entities, window, obs)
	if err != nil {
		return nil, err
	}

	if err := s.signatures.Save(ctx, sig); err != nil {
		return nil, fmt.Errorf("failed to save signature: %w", err)
	}

	s.metrics.SignaturesExtracted.Inc()
	s.logger.Info("Extracted signature %q over %s: %.0f excess sessions, %.0f excess revenue",
		name, window, sig.ExcessSessions, sig.ExcessRevenue)
	return sig, nil
}

// ReapplySignature loads the most recent signature with the given name
// and turns it into an injectable event starting at a new date.
func (s *LabService) ReapplySignature(ctx context.Context, name string, mode event.InjectionMode, start core.Day) (event.ReappliedShock, error) {
	sig, err := s.signatures.GetByName(ctx, name)
	if err != nil {
		return event.ReappliedShock{}, err
	}

	ev := sig.Reapply(mode, start)
	s.logger.Info("Reapplied signature %q at %s (%s, %d days)", name, start, mode, ev.Duration)
	return ev, nil
}

// Signatures lists stored signatures, newest first
func (s *LabService) Signatures(ctx context.Context) ([]forecast.Signature, error) {
	return s.signatures.List(ctx)
}

// Audit attributes each event's marginal contribution toward the goal
// over the target window, evaluating log prefixes concurrently.
func (s *LabService) Audit(ctx context.Context, scn forecast.Scenario, target core.DayRange, goal forecast.GoalMetric, goalValue float64) (*forecast.AuditResult, error) {
	startTime := time.Now()

	result, err := forecast.Attribute(ctx, scn, target, goal, goalValue, s.parallelism)
	if err != nil {
		return nil, err
	}

	runtimeMs := time.Since(startTime).Milliseconds()
	s.metrics.AuditsTotal.Inc()
	s.metrics.AuditLatencyMs.Observe(float64(time.Since(startTime).Nanoseconds()) / 1e6)
	s.logger.Info("Audited %d events against %s %.0f in %dms",
		len(scn.Log), goal, goalValue, runtimeMs)
	return result, nil
}
