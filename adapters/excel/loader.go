package excel

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"godna/domain/core"
	"godna/domain/dna"
	"godna/ports"
)

// TransactionLoader converts a tabular source into daily transaction rows.
// Entity names are normalized so the same brand spelled with different
// casing or padding lands on one entity.
type TransactionLoader struct {
	reader ports.Reader
}

// NewTransactionLoader creates a loader over any tabular source
func NewTransactionLoader(reader ports.Reader) *TransactionLoader {
	return &TransactionLoader{reader: reader}
}

// Load reads the source and converts every data row into a transaction
func (l *TransactionLoader) Load(ctx context.Context) ([]dna.Transaction, error) {
	startTime := time.Now()

	table, err := l.reader.Read(ctx)
	if err != nil {
		return nil, err
	}

	dateCol, err := findColumn(table, "date")
	if err != nil {
		return nil, err
	}
	entityCol, err := findColumn(table, "brand", "entity")
	if err != nil {
		return nil, err
	}
	sessionsCol, err := findColumn(table, "sessions")
	if err != nil {
		return nil, err
	}
	conversionsCol, err := findColumn(table, "conversions")
	if err != nil {
		return nil, err
	}
	revenueCol, err := findColumn(table, "revenue")
	if err != nil {
		return nil, err
	}

	rows := make([]dna.Transaction, 0, len(table.Rows))
	entities := make(map[string]bool)
	for i := range table.Rows {
		rowNum := i + 2 // 1-indexed plus header row

		// Trailing blank rows are common in exported sheets.
		if table.Cell(i, dateCol) == "" && table.Cell(i, entityCol) == "" {
			continue
		}

		day, err := parseDayCell(table.Cell(i, dateCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		entity := core.NormalizeEntity(table.Cell(i, entityCol))
		if entity == "" {
			return nil, fmt.Errorf("row %d: empty entity name", rowNum)
		}
		sessions, err := parseNumberCell("sessions", table.Cell(i, sessionsCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		conversions, err := parseNumberCell("conversions", table.Cell(i, conversionsCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		revenue, err := parseNumberCell("revenue", table.Cell(i, revenueCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		rows = append(rows, dna.Transaction{
			Entity:      entity,
			Day:         day,
			Sessions:    sessions,
			Conversions: conversions,
			Revenue:     revenue,
		})
		entities[entity] = true
	}

	loadTime := time.Since(startTime)
	log.Printf("[TransactionLoader] Loaded %d rows across %d entities in %.2fms",
		len(rows), len(entities), float64(loadTime.Nanoseconds())/1e6)

	return rows, nil
}

// findColumn resolves the first matching header among accepted aliases
func findColumn(table ports.Table, names ...string) (int, error) {
	for _, name := range names {
		if idx := table.Column(name); idx >= 0 {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("missing required column %q", names[0])
}

// dayCellFormats are the date renderings seen across CSV exports and
// Excel's default cell formatting.
var dayCellFormats = []string{
	"1/2/06",
	"2006-01-02 15:04:05",
	"01-02-06",
}

// parseDayCell parses a date cell, tolerating Excel's formatted output
func parseDayCell(s string) (core.Day, error) {
	day, err := core.ParseDay(s)
	if err == nil {
		return day, nil
	}
	for _, layout := range dayCellFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DayOf(t), nil
		}
	}
	return core.Day{}, fmt.Errorf("invalid date %q", s)
}

// parseNumberCell parses a non-negative numeric cell
func parseNumberCell(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", name, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative %s value %q", name, s)
	}
	return v, nil
}
