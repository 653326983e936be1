package sheets

import (
	"context"
	"fmt"

	"github.com/xelth-com/receivinggo/internal/tabular"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw = "RAW"
	cellFields    = "userEnteredValue"
)

var _ tabular.Table = (*Table)(nil)

// Table is one worksheet addressed in A1 notation
type Table struct {
	client *Client
	sheet  string
	width  int
}

// ReadRows implements tabular.Table
func (t *Table) ReadRows(ctx context.Context) ([][]string, error) {
	resp, err := t.client.srv.Spreadsheets.Values.Get(t.client.spreadsheetID, t.columns()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.sheet, err)
	}
	return fromValues(resp.Values), nil
}

// WriteRows implements tabular.Table
func (t *Table) WriteRows(ctx context.Context, startRow int, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	vr := &gsheets.ValueRange{Values: toValues(rows)}
	_, err := t.client.srv.Spreadsheets.Values.
		Update(t.client.spreadsheetID, t.rowRange(startRow, startRow+len(rows)-1), vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", t.sheet, err)
	}
	return nil
}

// AppendRows implements tabular.Table
func (t *Table) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	vr := &gsheets.ValueRange{Values: toValues(rows)}
	_, err := t.client.srv.Spreadsheets.Values.
		Append(t.client.spreadsheetID, t.columns(), vr).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", t.sheet, err)
	}
	return nil
}

// BatchWrite implements tabular.Table with a single spreadsheets.batchUpdate request.
// In-place rows become UpdateCells and new rows AppendCells, which the API places
// after the last row with data when the request is applied.
func (t *Table) BatchWrite(ctx context.Context, writes []tabular.RowWrite, appends [][]string) error {
	if len(writes) == 0 && len(appends) == 0 {
		return nil
	}
	id, err := t.client.sheetID(ctx, t.sheet)
	if err != nil {
		return err
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{Requests: batchRequests(id, writes, appends)}
	if _, err := t.client.srv.Spreadsheets.BatchUpdate(t.client.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to batch update %s: %w", t.sheet, err)
	}
	return nil
}

func batchRequests(sheetID int64, writes []tabular.RowWrite, appends [][]string) []*gsheets.Request {
	reqs := make([]*gsheets.Request, 0, len(writes)+1)
	for _, w := range writes {
		reqs = append(reqs, &gsheets.Request{
			UpdateCells: &gsheets.UpdateCellsRequest{
				Start:  &gsheets.GridCoordinate{SheetId: sheetID, RowIndex: int64(w.Row - 1)},
				Rows:   []*gsheets.RowData{rowData(w.Values)},
				Fields: cellFields,
			},
		})
	}
	if len(appends) > 0 {
		rows := make([]*gsheets.RowData, 0, len(appends))
		for _, r := range appends {
			rows = append(rows, rowData(r))
		}
		reqs = append(reqs, &gsheets.Request{
			AppendCells: &gsheets.AppendCellsRequest{SheetId: sheetID, Rows: rows, Fields: cellFields},
		})
	}
	return reqs
}

// DeleteRow implements tabular.Table
func (t *Table) DeleteRow(ctx context.Context, row int) error {
	id, err := t.client.sheetID(ctx, t.sheet)
	if err != nil {
		return err
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteDimension: &gsheets.DeleteDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    id,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := t.client.srv.Spreadsheets.BatchUpdate(t.client.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete row %d from %s: %w", row, t.sheet, err)
	}
	return nil
}

func (t *Table) columns() string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(t.sheet), ColumnLetter(t.width))
}

func (t *Table) rowRange(from, to int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(t.sheet), from, ColumnLetter(t.width), to)
}
