package ports

import (
	"context"
	"strings"
)

// Reader provides tabular access to an external demand history source.
// File parsing stays behind this port so the ingestion path and its
// tests can swap sources without touching loaders.
type Reader interface {
	// Read returns the source table: a header row plus string-valued
	// data rows.
	Read(ctx context.Context) (Table, error)
}

// Table is one sheet of tabular source data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Column returns the index of a header, matched case-insensitively
// after trimming, or -1 when absent.
func (t Table) Column(name string) int {
	want := strings.TrimSpace(name)
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

// Cell returns the value at row/column, or "" when the row is ragged.
func (t Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}
