// Package backlog tracks POs that are not yet in the vendor system and retries them daily.
package backlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xelth-com/receivinggo/internal/tabular"
)

var (
	// ErrAlreadyInBacklog is returned when adding a PO that is already tracked
	ErrAlreadyInBacklog = errors.New("PO already in backlog")
	// ErrNotInBacklog is returned when removing a PO that is not tracked
	ErrNotInBacklog = errors.New("PO not found in backlog")
)

// Header is the backlog sheet header row
var Header = []string{"PO Number", "Date Added", "Last Checked", "Status"}

const (
	colPONumber = iota
	colDateAdded
	colLastChecked
	colStatus
)

// Accepted legacy timestamp layouts; new values are written as RFC3339
var timeLayouts = []string{time.RFC3339, "1/2/2006, 3:04:05 PM", "1/2/2006"}

// Store keeps backlog entries in a table, one row per PO
type Store struct {
	table tabular.Table
	now   func() time.Time
}

// NewStore creates a store over table
func NewStore(table tabular.Table) *Store {
	return &Store{table: table, now: time.Now}
}

// List returns every tracked PO in sheet order
func (s *Store) List(ctx context.Context) ([]models.BacklogEntry, error) {
	rows, err := s.table.ReadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read backlog: %w", err)
	}
	var out []models.BacklogEntry
	for i := 1; i < len(rows); i++ {
		if strings.TrimSpace(tabular.Cell(rows[i], colPONumber)) == "" {
			continue
		}
		out = append(out, entryFromRow(rows[i], i+1))
	}
	return out, nil
}

// Get returns the entry for po
func (s *Store) Get(ctx context.Context, po string) (models.BacklogEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return models.BacklogEntry{}, err
	}
	po = strings.TrimSpace(po)
	for _, e := range entries {
		if e.PONumber == po {
			return e, nil
		}
	}
	return models.BacklogEntry{}, ErrNotInBacklog
}

// Add starts tracking po
func (s *Store) Add(ctx context.Context, po string) (models.BacklogEntry, error) {
	po = strings.TrimSpace(po)
	if po == "" {
		return models.BacklogEntry{}, fmt.Errorf("PO number is required")
	}

	rows, err := s.table.ReadRows(ctx)
	if err != nil {
		return models.BacklogEntry{}, fmt.Errorf("failed to read backlog: %w", err)
	}
	for i := 1; i < len(rows); i++ {
		if strings.TrimSpace(tabular.Cell(rows[i], colPONumber)) == po {
			return models.BacklogEntry{}, ErrAlreadyInBacklog
		}
	}

	if len(rows) == 0 || tabular.Cell(rows[0], colPONumber) != Header[colPONumber] {
		if err := s.table.WriteRows(ctx, 1, [][]string{Header}); err != nil {
			return models.BacklogEntry{}, fmt.Errorf("failed to write backlog header: %w", err)
		}
	}

	now := s.now().UTC()
	entry := models.BacklogEntry{PONumber: po, DateAdded: now, LastChecked: now, Status: models.BacklogStatusPending}
	if err := s.table.AppendRows(ctx, [][]string{rowFromEntry(entry)}); err != nil {
		return models.BacklogEntry{}, fmt.Errorf("failed to add PO to backlog: %w", err)
	}
	return entry, nil
}

// Remove stops tracking po and deletes its row
func (s *Store) Remove(ctx context.Context, po string) error {
	entry, err := s.Get(ctx, po)
	if err != nil {
		return err
	}
	if err := s.table.DeleteRow(ctx, entry.RowNumber); err != nil {
		return fmt.Errorf("failed to remove PO from backlog: %w", err)
	}
	return nil
}

// Touch records an unsuccessful check of po at the given time
func (s *Store) Touch(ctx context.Context, po string, at time.Time) error {
	entry, err := s.Get(ctx, po)
	if err != nil {
		return err
	}
	entry.LastChecked = at.UTC()
	if err := s.table.WriteRows(ctx, entry.RowNumber, [][]string{rowFromEntry(entry)}); err != nil {
		return fmt.Errorf("failed to update last checked: %w", err)
	}
	return nil
}

func entryFromRow(row []string, rowNumber int) models.BacklogEntry {
	status := strings.TrimSpace(tabular.Cell(row, colStatus))
	if status == "" {
		status = models.BacklogStatusPending
	}
	return models.BacklogEntry{
		PONumber:    strings.TrimSpace(tabular.Cell(row, colPONumber)),
		DateAdded:   parseTime(tabular.Cell(row, colDateAdded)),
		LastChecked: parseTime(tabular.Cell(row, colLastChecked)),
		Status:      status,
		RowNumber:   rowNumber,
	}
}

func rowFromEntry(e models.BacklogEntry) []string {
	return []string{e.PONumber, formatTime(e.DateAdded), formatTime(e.LastChecked), e.Status}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
