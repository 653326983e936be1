package sheets

import (
	"fmt"
	"strings"

	gsheets "google.golang.org/api/sheets/v4"
)

// ColumnLetter converts a 1-based column number to its A1 letters (1 -> A, 27 -> AA)
func ColumnLetter(n int) string {
	if n < 1 {
		return "A"
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		vals := make([]interface{}, len(r))
		for j, c := range r {
			vals[j] = c
		}
		out[i] = vals
	}
	return out
}

func fromValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, r := range values {
		row := make([]string, len(r))
		for j, c := range r {
			if c != nil {
				row[j] = fmt.Sprint(c)
			}
		}
		out[i] = row
	}
	return out
}

// rowData stores every cell as a plain string, matching RAW value input
func rowData(row []string) *gsheets.RowData {
	cells := make([]*gsheets.CellData, len(row))
	for i := range row {
		v := row[i]
		cells[i] = &gsheets.CellData{UserEnteredValue: &gsheets.ExtendedValue{StringValue: &v}}
	}
	return &gsheets.RowData{Values: cells}
}
