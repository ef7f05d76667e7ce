package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const transactionInsertBatch = 1000

// TransactionRepositoryImpl implements TransactionRepository for PostgreSQL
type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *sqlx.DB) ports.TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

// transactionRow mirrors a daily_transactions row with driver-native types
type transactionRow struct {
	Entity      string    `db:"entity"`
	Day         time.Time `db:"day"`
	Sessions    float64   `db:"sessions"`
	Conversions float64   `db:"conversions"`
	Revenue     float64   `db:"revenue"`
}

func (row transactionRow) toDomain() dna.Transaction {
	return dna.Transaction{
		Entity:      row.Entity,
		Day:         core.DayOf(row.Day),
		Sessions:    row.Sessions,
		Conversions: row.Conversions,
		Revenue:     row.Revenue,
	}
}

func toDomainTransactions(rows []transactionRow) []dna.Transaction {
	out := make([]dna.Transaction, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}

// BulkInsert appends daily history rows, replacing rows already present
// for the same entity and day
func (r *TransactionRepositoryImpl) BulkInsert(ctx context.Context, rows []dna.Transaction) error {
	for start := 0; start < len(rows); start += transactionInsertBatch {
		end := start + transactionInsertBatch
		if end > len(rows) {
			end = len(rows)
		}
		if err := r.insertBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *TransactionRepositoryImpl) insertBatch(ctx context.Context, batch []dna.Transaction) error {
	placeholders := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*5)
	for i, row := range batch {
		base := i * 5
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args,
			core.NormalizeEntity(row.Entity), row.Day.Time(),
			row.Sessions, row.Conversions, row.Revenue)
	}

	query := `
		INSERT INTO daily_transactions (entity, day, sessions, conversions, revenue)
		VALUES ` + strings.Join(placeholders, ", ") + `
		ON CONFLICT (entity, day) DO UPDATE SET
			sessions = EXCLUDED.sessions,
			conversions = EXCLUDED.conversions,
			revenue = EXCLUDED.revenue`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert transaction batch: %w", err)
	}
	return nil
}

// History returns every row for the given entities ordered by day
func (r *TransactionRepositoryImpl) History(ctx context.Context, entities []string) ([]dna.Transaction, error) {
	query := `
		SELECT entity, day, sessions, conversions, revenue
		FROM daily_transactions
	`

	var args []interface{}
	if norm := core.NormalizeEntities(entities); len(norm) > 0 {
		args = append(args, pq.Array(norm))
		query += " WHERE entity = ANY($1)"
	}
	query += " ORDER BY day, entity"

	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toDomainTransactions(rows), nil
}

// Window returns rows for the entities inside an inclusive day range
func (r *TransactionRepositoryImpl) Window(ctx context.Context, entities []string, dayRange core.DayRange) ([]dna.Transaction, error) {
	query := `
		SELECT entity, day, sessions, conversions, revenue
		FROM daily_transactions
		WHERE day >= $1 AND day <= $2
	`

	args := []interface{}{dayRange.Start.Time(), dayRange.End.Time()}
	if norm := core.NormalizeEntities(entities); len(norm) > 0 {
		args = append(args, pq.Array(norm))
		query += " AND entity = ANY($3)"
	}
	query += " ORDER BY day, entity"

	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toDomainTransactions(rows), nil
}

// Entities returns the distinct entity names present in the history
func (r *TransactionRepositoryImpl) Entities(ctx context.Context) ([]string, error) {
	var entities []string
	err := r.db.SelectContext(ctx, &entities, `
		SELECT DISTINCT entity FROM daily_transactions ORDER BY entity
	`)
	return entities, err
}

// Span returns the first and last day covered by the history. An empty
// history yields the zero range.
func (r *TransactionRepositoryImpl) Span(ctx context.Context) (core.DayRange, error) {
	var first, last sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT MIN(day), MAX(day) FROM daily_transactions
	`).Scan(&first, &last)
	if err != nil {
		return core.DayRange{}, err
	}
	if !first.Valid || !last.Valid {
		return core.DayRange{}, nil
	}
	return core.NewDayRange(core.DayOf(first.Time), core.DayOf(last.Time)), nil
}

// DeleteAll clears the history ahead of a reseed
func (r *TransactionRepositoryImpl) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM daily_transactions`)
	return err
}
