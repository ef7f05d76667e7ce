package migration

import (
	"context"
	"fmt"

	"godna/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createProfilesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create dna_profiles table")
	}

	if err := r.createTransactionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create daily_transactions table")
	}

	if err := r.createSignaturesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create shock_signatures table")
	}

	if err := r.addSignatureColumns(ctx, db); err != nil {
		return errors.Wrap(err, "failed to add shock_signatures columns")
	}

	if err := r.createCampaignSettingsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create campaign_settings table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.insertDefaultCampaignSettings(ctx, db); err != nil {
		return errors.Wrap(err, "failed to insert default campaign settings")
	}

	return nil
}

func (r *MigrationRunner) createProfilesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS dna_profiles (
			entity VARCHAR(255) NOT NULL,
			year INTEGER NOT NULL,
			granularity VARCHAR(20) NOT NULL,
			period INTEGER NOT NULL,
			sessions DOUBLE PRECISION NOT NULL DEFAULT 0,
			conversions DOUBLE PRECISION NOT NULL DEFAULT 0,
			revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			conv_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			order_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			idx_sessions DOUBLE PRECISION NOT NULL DEFAULT 0,
			idx_conv_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			idx_order_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (entity, year, granularity, period)
		)
	`)
	return err
}

func (r *MigrationRunner) createTransactionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS daily_transactions (
			entity VARCHAR(255) NOT NULL,
			day DATE NOT NULL,
			sessions DOUBLE PRECISION NOT NULL DEFAULT 0,
			conversions DOUBLE PRECISION NOT NULL DEFAULT 0,
			revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (entity, day)
		)
	`)
	return err
}

func (r *MigrationRunner) createSignaturesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS shock_signatures (
			id VARCHAR(50) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			entities JSONB NOT NULL DEFAULT '[]'::jsonb,
			window_start DATE NOT NULL,
			window_end DATE NOT NULL,
			duration INTEGER NOT NULL,
			floor_sessions DOUBLE PRECISION NOT NULL DEFAULT 0,
			floor_conversions DOUBLE PRECISION NOT NULL DEFAULT 0,
			floor_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			organic_conv_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			event_conv_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			conv_rate_delta DOUBLE PRECISION NOT NULL DEFAULT 0,
			excess_sessions DOUBLE PRECISION NOT NULL DEFAULT 0,
			excess_conversions DOUBLE PRECISION NOT NULL DEFAULT 0,
			excess_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			daily_abs JSONB NOT NULL DEFAULT '{}'::jsonb,
			daily_rel JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// addSignatureColumns upgrades signature rows written before entity
// scoping and conversion-rate deltas were stored.
func (r *MigrationRunner) addSignatureColumns(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		DO $$
		BEGIN
			-- Add entities column if it doesn't exist
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'shock_signatures' AND column_name = 'entities'
			) THEN
				ALTER TABLE shock_signatures ADD COLUMN entities JSONB NOT NULL DEFAULT '[]'::jsonb;
			END IF;

			-- Add conv_rate_delta column if it doesn't exist
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'shock_signatures' AND column_name = 'conv_rate_delta'
			) THEN
				ALTER TABLE shock_signatures ADD COLUMN conv_rate_delta DOUBLE PRECISION NOT NULL DEFAULT 0;
				UPDATE shock_signatures SET conv_rate_delta = event_conv_rate - organic_conv_rate;
			END IF;
		END $$;
	`)
	return err
}

func (r *MigrationRunner) createCampaignSettingsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaign_settings (
			entity VARCHAR(255) NOT NULL,
			shape VARCHAR(50) NOT NULL,
			lift_pct DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (entity, shape)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		// Profile indexes
		"CREATE INDEX IF NOT EXISTS idx_profiles_entity ON dna_profiles(entity)",
		"CREATE INDEX IF NOT EXISTS idx_profiles_year_granularity ON dna_profiles(year, granularity)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_day ON daily_transactions(day)",

		// Signature indexes
		"CREATE INDEX IF NOT EXISTS idx_signatures_name ON shock_signatures(name)",
		"CREATE INDEX IF NOT EXISTS idx_signatures_created_at ON shock_signatures(created_at DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}

func (r *MigrationRunner) insertDefaultCampaignSettings(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO campaign_settings (entity, shape, lift_pct)
		VALUES
			('__all__', 'step', 25.0),
			('__all__', 'linear_fade', 25.0),
			('__all__', 'front_loaded', 25.0),
			('__all__', 'delayed_peak', 25.0)
		ON CONFLICT (entity, shape) DO NOTHING
	`)
	if err != nil {
		// Log but don't fail on default settings insertion
		fmt.Printf("Warning: failed to insert default campaign settings: %v\n", err)
	}
	return nil
}
