// Package tabular defines the row-oriented store that backs the ledger and the backlog.
//
// Rows are addressed by 1-based sheet row numbers. Row 1 is the header, so the
// slice returned by ReadRows holds the header at index 0 and data row i at index i.
package tabular

import (
	"context"
	"strings"
)

// RowWrite replaces the contents of one row
type RowWrite struct {
	Row    int
	Values []string
}

// Table is a single worksheet-like table
type Table interface {
	// ReadRows returns every row, header first. Trailing empty cells may be omitted.
	ReadRows(ctx context.Context) ([][]string, error)
	// WriteRows overwrites consecutive rows starting at startRow.
	WriteRows(ctx context.Context, startRow int, rows [][]string) error
	// AppendRows adds rows after the last non-empty row.
	AppendRows(ctx context.Context, rows [][]string) error
	// BatchWrite overwrites rows in place and appends new rows after the last
	// non-empty row, in one request; either all land or none do. Appended rows are
	// placed at commit time, so concurrent callers never overwrite each other's inserts.
	BatchWrite(ctx context.Context, writes []RowWrite, appends [][]string) error
	// DeleteRow removes a row and shifts the following rows up.
	DeleteRow(ctx context.Context, row int) error
}

// Cell returns row[i] or "" when the row is short
func Cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Pad returns row extended with empty cells to width
func Pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// IsBlank reports whether every cell in row is empty after trimming
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
