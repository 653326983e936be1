package tabular

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTable is an in-process Table used for tests and for running without a spreadsheet
type MemoryTable struct {
	mu   sync.RWMutex
	rows [][]string

	// FailNext makes the next mutating call return this error and change nothing
	FailNext error
}

// NewMemoryTable creates a table seeded with rows (header first)
func NewMemoryTable(rows ...[]string) *MemoryTable {
	t := &MemoryTable{}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	return t
}

// ReadRows implements Table
func (t *MemoryTable) ReadRows(_ context.Context) ([][]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// WriteRows implements Table
func (t *MemoryTable) WriteRows(_ context.Context, startRow int, rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.takeFailure(); err != nil {
		return err
	}
	if startRow < 1 {
		return fmt.Errorf("invalid start row %d", startRow)
	}
	for i, r := range rows {
		t.set(startRow+i, r)
	}
	return nil
}

// AppendRows implements Table
func (t *MemoryTable) AppendRows(_ context.Context, rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.takeFailure(); err != nil {
		return err
	}
	t.appendAfterLast(rows)
	return nil
}

// BatchWrite implements Table
func (t *MemoryTable) BatchWrite(_ context.Context, writes []RowWrite, appends [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.takeFailure(); err != nil {
		return err
	}
	for _, w := range writes {
		if w.Row < 1 {
			return fmt.Errorf("invalid row %d", w.Row)
		}
	}
	for _, w := range writes {
		t.set(w.Row, w.Values)
	}
	t.appendAfterLast(appends)
	return nil
}

// DeleteRow implements Table
func (t *MemoryTable) DeleteRow(_ context.Context, row int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.takeFailure(); err != nil {
		return err
	}
	if row < 1 || row > len(t.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	t.rows = append(t.rows[:row-1], t.rows[row:]...)
	return nil
}

// Len returns the number of stored rows including the header
func (t *MemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *MemoryTable) set(row int, values []string) {
	for len(t.rows) < row {
		t.rows = append(t.rows, nil)
	}
	t.rows[row-1] = append([]string(nil), values...)
}

func (t *MemoryTable) appendAfterLast(rows [][]string) {
	last := len(t.rows)
	for last > 0 && IsBlank(t.rows[last-1]) {
		last--
	}
	for i, r := range rows {
		t.set(last+1+i, r)
	}
}

func (t *MemoryTable) takeFailure() error {
	err := t.FailNext
	t.FailNext = nil
	return err
}
