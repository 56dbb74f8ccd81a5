package parsers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first worksheet of a workbook and applies the same
// header and record rules as Parse. Row numbers are spreadsheet row numbers.
func ParseXLSX(reader io.Reader, schema Schema) (*ParseResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	return ParseRows(padRows(rows), schema)
}

// padRows extends rows to the header width. GetRows drops trailing empty
// cells, which would otherwise look like short (malformed) rows.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if !isBlankRow(row) {
			width = len(row)
			break
		}
	}

	for i, row := range rows {
		if isBlankRow(row) || len(row) >= width {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		rows[i] = padded
	}
	return rows
}
