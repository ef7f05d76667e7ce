package postgres

import (
	"context"
	"fmt"
	"strings"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// profileInsertBatch keeps multi-row inserts well under the Postgres
// parameter limit (12 columns per row).
const profileInsertBatch = 500

// ProfileRepositoryImpl implements ProfileRepository for PostgreSQL
type ProfileRepositoryImpl struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db *sqlx.DB) ports.ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

// ReplaceAll atomically swaps the stored profiles for a freshly built set
func (r *ProfileRepositoryImpl) ReplaceAll(ctx context.Context, profiles dna.ProfileSet) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dna_profiles`); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}

	for start := 0; start < len(profiles); start += profileInsertBatch {
		end := start + profileInsertBatch
		if end > len(profiles) {
			end = len(profiles)
		}
		if err := insertProfileBatch(ctx, tx, profiles[start:end]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertProfileBatch(ctx context.Context, tx *sqlx.Tx, batch dna.ProfileSet) error {
	placeholders := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*12)
	for i, rec := range batch {
		base := i * 12
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11, base+12))
		args = append(args,
			rec.Entity, rec.Year, string(rec.Granularity), rec.Period,
			rec.Sessions, rec.Conversions, rec.Revenue,
			rec.ConvRate, rec.OrderValue,
			rec.IdxSessions, rec.IdxConvRate, rec.IdxOrderValue)
	}

	query := `
		INSERT INTO dna_profiles (
			entity, year, granularity, period,
			sessions, conversions, revenue,
			conv_rate, order_value,
			idx_sessions, idx_conv_rate, idx_order_value
		) VALUES ` + strings.Join(placeholders, ", ")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert profile batch: %w", err)
	}
	return nil
}

// Query returns profile rows matching the filters
func (r *ProfileRepositoryImpl) Query(ctx context.Context, filters ports.ProfileFilters) (dna.ProfileSet, error) {
	query := `
		SELECT entity, year, granularity, period,
		       sessions, conversions, revenue,
		       conv_rate, order_value,
		       idx_sessions, idx_conv_rate, idx_order_value
		FROM dna_profiles
	`

	var conditions []string
	var args []interface{}

	if len(filters.Entities) > 0 {
		args = append(args, pq.Array(core.NormalizeEntities(filters.Entities)))
		conditions = append(conditions, fmt.Sprintf("entity = ANY($%d)", len(args)))
	}
	if filters.Year != nil {
		args = append(args, *filters.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}
	if filters.Granularity != "" {
		args = append(args, string(filters.Granularity))
		conditions = append(conditions, fmt.Sprintf("granularity = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY entity, year, granularity, period"

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var profiles dna.ProfileSet
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Entities returns the distinct entity names present in the store
func (r *ProfileRepositoryImpl) Entities(ctx context.Context) ([]string, error) {
	var entities []string
	err := r.db.SelectContext(ctx, &entities, `
		SELECT DISTINCT entity FROM dna_profiles ORDER BY entity
	`)
	return entities, err
}

// Years returns the distinct scope years present in the store
func (r *ProfileRepositoryImpl) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := r.db.SelectContext(ctx, &years, `
		SELECT DISTINCT year FROM dna_profiles ORDER BY year
	`)
	return years, err
}

// Count returns the number of stored profile rows
func (r *ProfileRepositoryImpl) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM dna_profiles`)
	return count, err
}
