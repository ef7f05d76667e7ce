package app

import (
	"context"
	"fmt"
	"time"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/domain/event"
	"godna/domain/forecast"
	"godna/internal"
	"godna/internal/metrics"
	"godna/ports"
)

// ForecastService orchestrates the profile store and the projection
// pipeline: similarity weighting, DNA blending, layer compilation,
// calibration and projection. Every call rebuilds from pure DNA;
// nothing is cached between event-log changes.
type ForecastService struct {
	profiles ports.ProfileRepository
	settings ports.SettingsRepository
	logger   *internal.Logger
	metrics  *metrics.Metrics
}

// NewForecastService creates a forecast service
func NewForecastService(profiles ports.ProfileRepository, settings ports.SettingsRepository, logger *internal.Logger, m *metrics.Metrics) *ForecastService {
	return &ForecastService{
		profiles: profiles,
		settings: settings,
		logger:   logger.Named("forecast"),
		metrics:  m,
	}
}

// ForecastRequest defines inputs for one projection run. The projection
// year is the trial window's start year; an empty entity selection
// means every stored entity.
type ForecastRequest struct {
	Entities    []string
	Trial       forecast.TrialObservation
	Log         event.Log
	Granularity core.Granularity
}

// ForecastResult bundles the daily projection with the derived context
// behind it.
type ForecastResult struct {
	Entities   []string
	Year       int
	Weights    dna.SimilarityWeights
	DNA        dna.PureDNA
	Constants  forecast.Constants
	Projection *forecast.Projection
	Aggregates []forecast.AggregateRow
	Layers     []dna.LayerAverage
	RuntimeMs  int64
}

// ComputeProjection runs the full pipeline for one request
func (s *ForecastService) ComputeProjection(ctx context.Context, req ForecastRequest) (*ForecastResult, error) {
	startTime := time.Now()

	granularity := req.Granularity
	if granularity == "" {
		granularity = core.GranularityMonthly
	}

	entities, year, weights, pure, err := s.blend(ctx, req)
	if err != nil {
		s.metrics.ProjectionErrors.Inc()
		return nil, err
	}

	frame := dna.NewYearFrame(year)
	dna.CompileLayers(frame, pure, req.Log)

	consts, err := forecast.Calibrate(frame, req.Trial.Window, req.Trial.Adjusted())
	if err != nil {
		s.metrics.ProjectionErrors.Inc()
		return nil, err
	}
	projection := forecast.Project(frame, consts, req.Log)

	runtimeMs := time.Since(startTime).Milliseconds()
	s.metrics.ProjectionsTotal.Inc()
	s.metrics.ProjectionLatencyMs.Observe(float64(time.Since(startTime).Nanoseconds()) / 1e6)
	s.logger.Info("Projected year %d for %d entities with %d events in %dms",
		year, len(entities), len(req.Log), runtimeMs)

	return &ForecastResult{
		Entities:   entities,
		Year:       year,
		Weights:    weights,
		DNA:        pure,
		Constants:  consts,
		Projection: projection,
		Aggregates: forecast.AggregateProjection(projection, granularity),
		Layers:     frame.LayerAverages(granularity),
		RuntimeMs:  runtimeMs,
	}, nil
}

// Scenario assembles the projection scenario for the request without
// evaluating it. Audit runs replay the same scenario over log prefixes.
func (s *ForecastService) Scenario(ctx context.Context, req ForecastRequest) (forecast.Scenario, error) {
	_, year, _, pure, err := s.blend(ctx, req)
	if err != nil {
		return forecast.Scenario{}, err
	}
	return forecast.Scenario{Year: year, DNA: pure, Trial: req.Trial, Log: req.Log}, nil
}

// Weights scores the historical years for the request's trial window
// without projecting anything.
func (s *ForecastService) Weights(ctx context.Context, req ForecastRequest) (dna.SimilarityWeights, error) {
	_, _, weights, _, err := s.blend(ctx, req)
	if err != nil {
		return nil, err
	}
	return weights, nil
}

// blend resolves entities, loads their profiles and mixes the pure DNA
// for the request's trial window.
func (s *ForecastService) blend(ctx context.Context, req ForecastRequest) ([]string, int, dna.SimilarityWeights, dna.PureDNA, error) {
	if !req.Trial.Window.IsValid() {
		return nil, 0, nil, dna.PureDNA{}, fmt.Errorf("trial window %s: %w", req.Trial.Window, core.ErrInvalidDateRange)
	}

	entities, err := s.resolveEntities(ctx, req.Entities)
	if err != nil {
		return nil, 0, nil, dna.PureDNA{}, err
	}

	profiles, err := s.profiles.Query(ctx, ports.ProfileFilters{Entities: entities})
	if err != nil {
		return nil, 0, nil, dna.PureDNA{}, fmt.Errorf("failed to load profiles: %w", err)
	}

	year := req.Trial.Window.Start.Year()
	weights := dna.ComputeSimilarityWeights(profiles, entities, req.Trial.Window, year, req.Trial.Adjusted())
	pure := dna.BlendPureDNA(profiles, entities, weights)
	return entities, year, weights, pure, nil
}

// resolveEntities normalizes the requested selection, falling back to
// every stored entity when none are named.
func (s *ForecastService) resolveEntities(ctx context.Context, requested []string) ([]string, error) {
	entities := core.NormalizeEntities(requested)
	if len(entities) > 0 {
		return entities, nil
	}
	entities, err := s.profiles.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	if len(entities) == 0 {
		return nil, core.ErrNoEntitiesSelected
	}
	return entities, nil
}

// CampaignDefaults returns the suggested lift percentage per response
// shape for an entity.
func (s *ForecastService) CampaignDefaults(ctx context.Context, entity string) (map[event.Shape]float64, error) {
	return s.settings.CampaignDefaults(ctx, entity)
}

// SetCampaignDefault stores one scope+shape lift suggestion
func (s *ForecastService) SetCampaignDefault(ctx context.Context, entity string, shape event.Shape, liftPct float64) error {
	if err := s.settings.SetCampaignDefault(ctx, entity, shape, liftPct); err != nil {
		return fmt.Errorf("failed to store campaign default: %w", err)
	}
	s.logger.Info("Campaign default updated: entity=%q shape=%s lift=%.1f%%", entity, shape, liftPct)
	return nil
}
