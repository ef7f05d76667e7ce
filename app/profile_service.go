package app

import (
	"context"
	"fmt"
	"time"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/internal"
	"godna/internal/metrics"
	"godna/ports"
)

// ProfileService owns the derived seasonality store: importing raw
// history and rebuilding the normalized profiles from it.
type ProfileService struct {
	profiles     ports.ProfileRepository
	transactions ports.TransactionRepository
	logger       *internal.Logger
	metrics      *metrics.Metrics
}

// NewProfileService creates a profile service
func NewProfileService(profiles ports.ProfileRepository, transactions ports.TransactionRepository, logger *internal.Logger, m *metrics.Metrics) *ProfileService {
	return &ProfileService{
		profiles:     profiles,
		transactions: transactions,
		logger:       logger.Named("profile"),
		metrics:      m,
	}
}

// Rebuild recomputes every profile row from the stored transaction
// history and swaps the profile store wholesale.
func (s *ProfileService) Rebuild(ctx context.Context) (int, error) {
	startTime := time.Now()

	history, err := s.transactions.History(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) == 0 {
		return 0, fmt.Errorf("%w: no transaction history to build profiles from", core.ErrNotFound)
	}

	profileSet := dna.BuildProfiles(history)
	if err := s.profiles.ReplaceAll(ctx, profileSet); err != nil {
		return 0, fmt.Errorf("failed to replace profiles: %w", err)
	}

	s.metrics.ProfileRebuilds.Inc()
	s.logger.Info("Rebuilt %d profile rows from %d transactions in %dms",
		len(profileSet), len(history), time.Since(startTime).Milliseconds())
	return len(profileSet), nil
}

// Import stores raw daily transactions and rebuilds the profiles
func (s *ProfileService) Import(ctx context.Context, rows []dna.Transaction) (int, error) {
	if len(rows) == 0 {
		return 0, core.NewValidationError("rows", "no transactions to import")
	}

	if err := s.transactions.BulkInsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to insert transactions: %w", err)
	}
	s.logger.Info("Imported %d transaction rows", len(rows))

	return s.Rebuild(ctx)
}

// Entities lists the entities present in the profile store
func (s *ProfileService) Entities(ctx context.Context) ([]string, error) {
	return s.profiles.Entities(ctx)
}

// Span returns the stored history's first and last day
func (s *ProfileService) Span(ctx context.Context) (core.DayRange, error) {
	return s.transactions.Span(ctx)
}
