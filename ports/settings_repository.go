package ports

import (
	"context"

	"godna/domain/event"
)

// CampaignScopeAll is the catch-all settings scope that applies to
// entities without a scope of their own.
const CampaignScopeAll = "__all__"

// DefaultCampaignLiftPct fills in shapes no scope configures.
const DefaultCampaignLiftPct = 25.0

// SettingsRepository defines the interface for campaign default
// settings: the suggested lift percentage per response shape, scoped
// per entity with a catch-all fallback.
type SettingsRepository interface {
	// CampaignDefaults returns the lift percentage per shape for an
	// entity. Resolution order is entity scope, then the catch-all
	// scope, then DefaultCampaignLiftPct; the result always covers
	// every shape.
	CampaignDefaults(ctx context.Context, entity string) (map[event.Shape]float64, error)

	// SetCampaignDefault upserts one scope+shape lift percentage. An
	// empty entity writes the catch-all scope.
	SetCampaignDefault(ctx context.Context, entity string, shape event.Shape, liftPct float64) error
}
