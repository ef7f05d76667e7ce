package ports

import (
	"context"

	"godna/domain/core"
	"godna/domain/dna"
)

// ProfileRepository defines the interface for seasonality profile storage.
// Profiles are derived data: the store is replaced wholesale on rebuild
// and never mutated row by row.
type ProfileRepository interface {
	// ReplaceAll atomically swaps the stored profiles for a freshly built set.
	ReplaceAll(ctx context.Context, profiles dna.ProfileSet) error

	// Query returns profile rows matching the filters, ordered by entity,
	// year, granularity and period.
	Query(ctx context.Context, filters ProfileFilters) (dna.ProfileSet, error)

	// Entities returns the distinct entity names present in the store.
	Entities(ctx context.Context) ([]string, error)

	// Years returns the distinct scope years, including the overall
	// pseudo-year when present.
	Years(ctx context.Context) ([]int, error)

	// Count returns the number of stored profile rows.
	Count(ctx context.Context) (int, error)
}

// ProfileFilters narrows profile queries. Zero values mean "any".
type ProfileFilters struct {
	Entities    []string
	Year        *int
	Granularity core.Granularity
	Limit       int
}
