package postgres

import (
	"context"

	"godna/domain/core"
	"godna/domain/event"
	"godna/ports"

	"github.com/jmoiron/sqlx"
)

// SettingsRepositoryImpl implements SettingsRepository for PostgreSQL
type SettingsRepositoryImpl struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new PostgreSQL settings repository
func NewSettingsRepository(db *sqlx.DB) ports.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

// CampaignDefaults returns the lift percentage per shape for an entity,
// falling through entity scope, the catch-all scope and the built-in
// default so every shape is covered
func (r *SettingsRepositoryImpl) CampaignDefaults(ctx context.Context, entity string) (map[event.Shape]float64, error) {
	defaults := make(map[event.Shape]float64, len(event.Shapes()))
	for _, shape := range event.Shapes() {
		defaults[shape] = ports.DefaultCampaignLiftPct
	}

	scope := core.NormalizeEntity(entity)
	if scope == "" {
		scope = ports.CampaignScopeAll
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT entity, shape, lift_pct
		FROM campaign_settings
		WHERE entity IN ($1, $2)
	`, ports.CampaignScopeAll, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Catch-all rows apply first so entity rows win on overlap.
	entityRows := make(map[event.Shape]float64)
	for rows.Next() {
		var rowEntity, rawShape string
		var liftPct float64
		if err := rows.Scan(&rowEntity, &rawShape, &liftPct); err != nil {
			return nil, err
		}
		shape, err := event.ParseShape(rawShape)
		if err != nil {
			continue
		}
		if rowEntity == scope && scope != ports.CampaignScopeAll {
			entityRows[shape] = liftPct
		} else {
			defaults[shape] = liftPct
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for shape, liftPct := range entityRows {
		defaults[shape] = liftPct
	}

	return defaults, nil
}

// SetCampaignDefault upserts one scope+shape lift percentage
func (r *SettingsRepositoryImpl) SetCampaignDefault(ctx context.Context, entity string, shape event.Shape, liftPct float64) error {
	scope := core.NormalizeEntity(entity)
	if scope == "" {
		scope = ports.CampaignScopeAll
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_settings (entity, shape, lift_pct, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (entity, shape) DO UPDATE SET
			lift_pct = EXCLUDED.lift_pct,
			updated_at = NOW()
	`, scope, shape.String(), liftPct)

	return err
}
