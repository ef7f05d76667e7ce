package ports

import (
	"context"

	"godna/domain/core"
	"godna/domain/dna"
)

// TransactionRepository defines the interface for daily history storage.
// History rows are the system's raw input; everything else is derived
// from them.
type TransactionRepository interface {
	// BulkInsert appends daily history rows.
	BulkInsert(ctx context.Context, rows []dna.Transaction) error

	// History returns every row for the given entities ordered by day.
	// An empty entity list selects all entities.
	History(ctx context.Context, entities []string) ([]dna.Transaction, error)

	// Window returns rows for the entities inside an inclusive day range,
	// ordered by day.
	Window(ctx context.Context, entities []string, r core.DayRange) ([]dna.Transaction, error)

	// Entities returns the distinct entity names present in the history.
	Entities(ctx context.Context) ([]string, error)

	// Span returns the first and last day covered by the history.
	Span(ctx context.Context) (core.DayRange, error)

	// DeleteAll clears the history ahead of a reseed.
	DeleteAll(ctx context.Context) error
}
