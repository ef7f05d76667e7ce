package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"godna/domain/core"
	"godna/domain/forecast"
	"godna/ports"

	"github.com/jmoiron/sqlx"
)

// SignatureRepositoryImpl implements SignatureRepository for PostgreSQL
type SignatureRepositoryImpl struct {
	db *sqlx.DB
}

// NewSignatureRepository creates a new PostgreSQL signature repository
func NewSignatureRepository(db *sqlx.DB) ports.SignatureRepository {
	return &SignatureRepositoryImpl{db: db}
}

// signatureRow mirrors a shock_signatures row with driver-native types
type signatureRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Entities    []byte    `db:"entities"`
	WindowStart time.Time `db:"window_start"`
	WindowEnd   time.Time `db:"window_end"`
	Duration    int       `db:"duration"`

	FloorSessions    float64 `db:"floor_sessions"`
	FloorConversions float64 `db:"floor_conversions"`
	FloorRevenue     float64 `db:"floor_revenue"`

	OrganicConvRate float64 `db:"organic_conv_rate"`
	EventConvRate   float64 `db:"event_conv_rate"`
	ConvRateDelta   float64 `db:"conv_rate_delta"`

	ExcessSessions    float64 `db:"excess_sessions"`
	ExcessConversions float64 `db:"excess_conversions"`
	ExcessRevenue     float64 `db:"excess_revenue"`

	DailyAbs  []byte    `db:"daily_abs"`
	DailyRel  []byte    `db:"daily_rel"`
	CreatedAt time.Time `db:"created_at"`
}

func (row signatureRow) toDomain() (*forecast.Signature, error) {
	sig := &forecast.Signature{
		ID:                core.SignatureID(row.ID),
		Name:              row.Name,
		Window:            core.NewDayRange(core.DayOf(row.WindowStart), core.DayOf(row.WindowEnd)),
		Duration:          row.Duration,
		FloorSessions:     row.FloorSessions,
		FloorConversions:  row.FloorConversions,
		FloorRevenue:      row.FloorRevenue,
		OrganicConvRate:   row.OrganicConvRate,
		EventConvRate:     row.EventConvRate,
		ConvRateDelta:     row.ConvRateDelta,
		ExcessSessions:    row.ExcessSessions,
		ExcessConversions: row.ExcessConversions,
		ExcessRevenue:     row.ExcessRevenue,
		CreatedAt:         core.NewTimestamp(row.CreatedAt),
	}

	if len(row.Entities) > 0 {
		if err := json.Unmarshal(row.Entities, &sig.Entities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signature entities: %w", err)
		}
	}
	if len(row.DailyAbs) > 0 {
		if err := json.Unmarshal(row.DailyAbs, &sig.DailyAbs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signature daily_abs: %w", err)
		}
	}
	if len(row.DailyRel) > 0 {
		if err := json.Unmarshal(row.DailyRel, &sig.DailyRel); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signature daily_rel: %w", err)
		}
	}

	return sig, nil
}

// Save persists a newly extracted signature
func (r *SignatureRepositoryImpl) Save(ctx context.Context, sig *forecast.Signature) error {
	entitiesJSON, _ := json.Marshal(sig.Entities)
	dailyAbsJSON, _ := json.Marshal(sig.DailyAbs)
	dailyRelJSON, _ := json.Marshal(sig.DailyRel)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shock_signatures (
			id, name, entities, window_start, window_end, duration,
			floor_sessions, floor_conversions, floor_revenue,
			organic_conv_rate, event_conv_rate, conv_rate_delta,
			excess_sessions, excess_conversions, excess_revenue,
			daily_abs, daily_rel, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			entities = EXCLUDED.entities,
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			duration = EXCLUDED.duration,
			floor_sessions = EXCLUDED.floor_sessions,
			floor_conversions = EXCLUDED.floor_conversions,
			floor_revenue = EXCLUDED.floor_revenue,
			organic_conv_rate = EXCLUDED.organic_conv_rate,
			event_conv_rate = EXCLUDED.event_conv_rate,
			conv_rate_delta = EXCLUDED.conv_rate_delta,
			excess_sessions = EXCLUDED.excess_sessions,
			excess_conversions = EXCLUDED.excess_conversions,
			excess_revenue = EXCLUDED.excess_revenue,
			daily_abs = EXCLUDED.daily_abs,
			daily_rel = EXCLUDED.daily_rel`,
		sig.ID.String(), sig.Name, entitiesJSON,
		sig.Window.Start.Time(), sig.Window.End.Time(), sig.Duration,
		sig.FloorSessions, sig.FloorConversions, sig.FloorRevenue,
		sig.OrganicConvRate, sig.EventConvRate, sig.ConvRateDelta,
		sig.ExcessSessions, sig.ExcessConversions, sig.ExcessRevenue,
		dailyAbsJSON, dailyRelJSON, sig.CreatedAt.Time())

	return err
}

// Get retrieves a signature by id
func (r *SignatureRepositoryImpl) Get(ctx context.Context, id core.SignatureID) (*forecast.Signature, error) {
	var row signatureRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, entities, window_start, window_end, duration,
		       floor_sessions, floor_conversions, floor_revenue,
		       organic_conv_rate, event_conv_rate, conv_rate_delta,
		       excess_sessions, excess_conversions, excess_revenue,
		       daily_abs, daily_rel, created_at
		FROM shock_signatures
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrSignatureNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// GetByName retrieves the most recently extracted signature with the given name
func (r *SignatureRepositoryImpl) GetByName(ctx context.Context, name string) (*forecast.Signature, error) {
	var row signatureRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, entities, window_start, window_end, duration,
		       floor_sessions, floor_conversions, floor_revenue,
		       organic_conv_rate, event_conv_rate, conv_rate_delta,
		       excess_sessions, excess_conversions, excess_revenue,
		       daily_abs, daily_rel, created_at
		FROM shock_signatures
		WHERE name = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", core.ErrSignatureNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// List returns all stored signatures, newest first
func (r *SignatureRepositoryImpl) List(ctx context.Context) ([]forecast.Signature, error) {
	var rows []signatureRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, entities, window_start, window_end, duration,
		       floor_sessions, floor_conversions, floor_revenue,
		       organic_conv_rate, event_conv_rate, conv_rate_delta,
		       excess_sessions, excess_conversions, excess_revenue,
		       daily_abs, daily_rel, created_at
		FROM shock_signatures
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}

	sigs := make([]forecast.Signature, 0, len(rows))
	for _, row := range rows {
		sig, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, *sig)
	}
	return sigs, nil
}

// Delete removes a signature by id
func (r *SignatureRepositoryImpl) Delete(ctx context.Context, id core.SignatureID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM shock_signatures WHERE id = $1
	`, id.String())
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrSignatureNotFound, id)
	}
	return nil
}
