// Package report renders a PO's ledger rows as downloadable documents.
package report

import (
	"bytes"
	"fmt"

	"github.com/xelth-com/receivinggo/internal/ledger"
	"github.com/xelth-com/receivinggo/internal/models"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of ExportXLSX output
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportXLSX writes the rows of one PO in ledger column order
func ExportXLSX(po string, records []models.LineItemRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(po)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(ledger.Header))
	for i, h := range ledger.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range records {
		values := ledger.RowFromRecord(r)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetName makes po usable as a worksheet name (max 31 chars, no []:*?/\)
func sheetName(po string) string {
	out := make([]rune, 0, len(po))
	for _, r := range po {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			r = '_'
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	if len(out) == 0 {
		return "Ledger"
	}
	return string(out)
}
