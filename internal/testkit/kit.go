package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/domain/event"
	"godna/domain/forecast"
	"godna/ports"
)

// TestKit provides in-memory adapters for every repository port plus a
// deterministic RNG, so services and commands can run without Postgres.
type TestKit struct {
	profiles     *InMemoryProfileAdapter
	transactions *InMemoryTransactionAdapter
	signatures   *InMemorySignatureAdapter
	settings     *InMemorySettingsAdapter
}

// NewTestKit creates a new test kit instance with empty stores
func NewTestKit() *TestKit {
	return &TestKit{
		profiles:     NewInMemoryProfileAdapter(),
		transactions: NewInMemoryTransactionAdapter(),
		signatures:   NewInMemorySignatureAdapter(),
		settings:     NewInMemorySettingsAdapter(),
	}
}

// ProfileRepository returns the in-memory profile adapter
func (t *TestKit) ProfileRepository() ports.ProfileRepository {
	return t.profiles
}

// TransactionRepository returns the in-memory transaction adapter
func (t *TestKit) TransactionRepository() ports.TransactionRepository {
	return t.transactions
}

// SignatureRepository returns the in-memory signature adapter
func (t *TestKit) SignatureRepository() ports.SignatureRepository {
	return t.signatures
}

// SettingsRepository returns the in-memory settings adapter
func (t *TestKit) SettingsRepository() ports.SettingsRepository {
	return t.settings
}

// RNG returns a deterministic stream source
func (t *TestKit) RNG() ports.RNG {
	return &RNGAdapter{}
}

// SeedDemand generates synthetic history, stores it and rebuilds the
// profile store from it.
func (t *TestKit) SeedDemand(ctx context.Context, config DemandGeneratorConfig) ([]dna.Transaction, error) {
	rows := NewDemandGenerator(config, t.RNG()).Generate()
	if err := t.transactions.BulkInsert(ctx, rows); err != nil {
		return nil, err
	}
	if err := t.profiles.ReplaceAll(ctx, dna.BuildProfiles(rows)); err != nil {
		return nil, err
	}
	return rows, nil
}

// RNGAdapter implements the RNG port with name-salted seeds
type RNGAdapter struct{}

// SeededStream creates a deterministic random number generator for a named stream
func (r *RNGAdapter) SeededStream(name string, seed int64) *rand.Rand {
	if name != "" {
		seed += int64(hashString(name))
	}
	return rand.New(rand.NewSource(seed))
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}

// InMemoryProfileAdapter implements ProfileRepository with in-memory storage
type InMemoryProfileAdapter struct {
	mu      sync.RWMutex
	records dna.ProfileSet
}

func NewInMemoryProfileAdapter() *InMemoryProfileAdapter {
	return &InMemoryProfileAdapter{}
}

func (s *InMemoryProfileAdapter) ReplaceAll(ctx context.Context, profiles dna.ProfileSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(dna.ProfileSet, len(profiles))
	copy(s.records, profiles)
	return nil
}

func (s *InMemoryProfileAdapter) Query(ctx context.Context, filters ports.ProfileFilters) (dna.ProfileSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := map[string]bool{}
	for _, e := range core.NormalizeEntities(filters.Entities) {
		want[e] = true
	}

	var results dna.ProfileSet
	for _, rec := range s.records {
		if len(want) > 0 && !want[core.NormalizeEntity(rec.Entity)] {
			continue
		}
		if filters.Year != nil && rec.Year != *filters.Year {
			continue
		}
		if filters.Granularity != "" && rec.Granularity != filters.Granularity {
			continue
		}
		results = append(results, rec)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Granularity != b.Granularity {
			return a.Granularity < b.Granularity
		}
		return a.Period < b.Period
	})

	if filters.Limit > 0 && len(results) > filters.Limit {
		results = results[:filters.Limit]
	}
	return results, nil
}

func (s *InMemoryProfileAdapter) Entities(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Entities(), nil
}

func (s *InMemoryProfileAdapter) Years(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[int]bool{}
	for _, rec := range s.records {
		seen[rec.Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func (s *InMemoryProfileAdapter) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// InMemoryTransactionAdapter implements TransactionRepository with in-memory storage
type InMemoryTransactionAdapter struct {
	mu   sync.RWMutex
	rows map[txKey]dna.Transaction
}

type txKey struct {
	entity string
	day    core.Day
}

func NewInMemoryTransactionAdapter() *InMemoryTransactionAdapter {
	return &InMemoryTransactionAdapter{rows: make(map[txKey]dna.Transaction)}
}

func (s *InMemoryTransactionAdapter) BulkInsert(ctx context.Context, rows []dna.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		row.Entity = core.NormalizeEntity(row.Entity)
		s.rows[txKey{entity: row.Entity, day: row.Day}] = row
	}
	return nil
}

func (s *InMemoryTransactionAdapter) History(ctx context.Context, entities []string) ([]dna.Transaction, error) {
	return s.collect(entities, nil), nil
}

func (s *InMemoryTransactionAdapter) Window(ctx context.Context, entities []string, dayRange core.DayRange) ([]dna.Transaction, error) {
	return s.collect(entities, &dayRange), nil
}

func (s *InMemoryTransactionAdapter) collect(entities []string, dayRange *core.DayRange) []dna.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := map[string]bool{}
	for _, e := range core.NormalizeEntities(entities) {
		want[e] = true
	}

	var results []dna.Transaction
	for key, row := range s.rows {
		if len(want) > 0 && !want[key.entity] {
			continue
		}
		if dayRange != nil && !dayRange.Contains(key.day) {
			continue
		}
		results = append(results, row)
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].Day.Equal(results[j].Day) {
			return results[i].Day.Before(results[j].Day)
		}
		return results[i].Entity < results[j].Entity
	})
	return results
}

func (s *InMemoryTransactionAdapter) Entities(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	for key := range s.rows {
		seen[key.entity] = true
	}
	entities := make([]string, 0, len(seen))
	for e := range seen {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	return entities, nil
}

func (s *InMemoryTransactionAdapter) Span(ctx context.Context) (core.DayRange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var first, last core.Day
	for key := range s.rows {
		if first.IsZero() || key.day.Before(first) {
			first = key.day
		}
		if last.IsZero() || key.day.After(last) {
			last = key.day
		}
	}
	if first.IsZero() {
		return core.DayRange{}, nil
	}
	return core.NewDayRange(first, last), nil
}

func (s *InMemoryTransactionAdapter) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[txKey]dna.Transaction)
	return nil
}

// InMemorySignatureAdapter implements SignatureRepository with in-memory storage
type InMemorySignatureAdapter struct {
	mu   sync.RWMutex
	sigs map[core.SignatureID]forecast.Signature
}

func NewInMemorySignatureAdapter() *InMemorySignatureAdapter {
	return &InMemorySignatureAdapter{sigs: make(map[core.SignatureID]forecast.Signature)}
}

func (s *InMemorySignatureAdapter) Save(ctx context.Context, sig *forecast.Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sigs[sig.ID] = *sig
	return nil
}

func (s *InMemorySignatureAdapter) Get(ctx context.Context, id core.SignatureID) (*forecast.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.sigs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSignatureNotFound, id)
	}
	return &sig, nil
}

func (s *InMemorySignatureAdapter) GetByName(ctx context.Context, name string) (*forecast.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *forecast.Signature
	for id := range s.sigs {
		sig := s.sigs[id]
		if sig.Name != name {
			continue
		}
		if newest == nil || sig.CreatedAt.After(newest.CreatedAt) {
			newest = &sig
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("%w: %q", core.ErrSignatureNotFound, name)
	}
	return newest, nil
}

func (s *InMemorySignatureAdapter) List(ctx context.Context) ([]forecast.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sigs := make([]forecast.Signature, 0, len(s.sigs))
	for _, sig := range s.sigs {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool {
		return sigs[i].CreatedAt.After(sigs[j].CreatedAt)
	})
	return sigs, nil
}

func (s *InMemorySignatureAdapter) Delete(ctx context.Context, id core.SignatureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sigs[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrSignatureNotFound, id)
	}
	delete(s.sigs, id)
	return nil
}

// InMemorySettingsAdapter implements SettingsRepository with in-memory storage
type InMemorySettingsAdapter struct {
	mu        sync.RWMutex
	overrides map[string]map[event.Shape]float64
}

func NewInMemorySettingsAdapter() *InMemorySettingsAdapter {
	return &InMemorySettingsAdapter{overrides: make(map[string]map[event.Shape]float64)}
}

func (s *InMemorySettingsAdapter) CampaignDefaults(ctx context.Context, entity string) (map[event.Shape]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defaults := make(map[event.Shape]float64, len(event.Shapes()))
	for _, shape := range event.Shapes() {
		defaults[shape] = ports.DefaultCampaignLiftPct
	}
	for shape, lift := range s.overrides[ports.CampaignScopeAll] {
		defaults[shape] = lift
	}
	scope := core.NormalizeEntity(entity)
	if scope != "" && scope != ports.CampaignScopeAll {
		for shape, lift := range s.overrides[scope] {
			defaults[shape] = lift
		}
	}
	return defaults, nil
}

func (s *InMemorySettingsAdapter) SetCampaignDefault(ctx context.Context, entity string, shape event.Shape, liftPct float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := core.NormalizeEntity(entity)
	if scope == "" {
		scope = ports.CampaignScopeAll
	}
	if s.overrides[scope] == nil {
		s.overrides[scope] = make(map[event.Shape]float64)
	}
	s.overrides[scope][shape] = liftPct
	return nil
}
