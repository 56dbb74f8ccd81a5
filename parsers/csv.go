package parsers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile is returned when the input has no header or no data rows
var ErrEmptyFile = errors.New("file is empty or has no data rows")

// MissingColumnsError is returned when the header lacks required columns
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Schema names the columns a file must carry and the columns that are read
type Schema struct {
	Required   []string
	Recognized []string // superset of Required
}

// HeaderIndex maps a lower-cased column name to its cell index
type HeaderIndex map[string]int

// Record is one data row reduced to recognized, non-blank fields
type Record struct {
	// RowNumber is the 1-based line of the row in the source file (header is row 1)
	RowNumber int

	Fields map[string]string

	// Malformed is set when the cell count differs from the header's
	Malformed bool
}

// ParseResult holds the header mapping and the data rows in file order
type ParseResult struct {
	Header  HeaderIndex
	Records []Record
}

type rawRow struct {
	line  int
	cells []string
}

// Parse tokenizes comma-separated content into records.
// The first non-blank line is the header; blank lines are skipped but still
// count toward row numbers so errors point at the right line of the file.
func Parse(content string, schema Schema) (*ParseResult, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(content, "\n")

	var rows []rawRow
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(rows) == 0 {
			// header is a plain comma split
			rows = append(rows, rawRow{line: i + 1, cells: strings.Split(line, ",")})
			continue
		}
		rows = append(rows, rawRow{line: i + 1, cells: SplitLine(line)})
	}

	return build(rows, schema)
}

// ParseRows applies the header and record rules to already tokenized rows,
// numbering them by their position (1-based)
func ParseRows(table [][]string, schema Schema) (*ParseResult, error) {
	var rows []rawRow
	for i, cells := range table {
		if isBlankRow(cells) {
			continue
		}
		rows = append(rows, rawRow{line: i + 1, cells: cells})
	}
	return build(rows, schema)
}

// SplitLine splits one line on commas, treating commas inside double quotes as
// literal. Each cell is trimmed and its outer quotes removed.
func SplitLine(line string) []string {
	var cells []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ',' && !inQuotes:
			cells = append(cells, cleanCell(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	cells = append(cells, cleanCell(current.String()))

	return cells
}

// ParseHeader builds the column index from a header line
func ParseHeader(line string) HeaderIndex {
	return makeHeaderIndex(strings.Split(line, ","))
}

func makeHeaderIndex(cells []string) HeaderIndex {
	idx := make(HeaderIndex, len(cells))
	for i, cell := range cells {
		name := strings.ToLower(cleanCell(cell))
		if name == "" {
			continue
		}
		// first occurrence wins
		if _, exists := idx[name]; !exists {
			idx[name] = i
		}
	}
	return idx
}

func build(rows []rawRow, schema Schema) (*ParseResult, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyFile
	}

	header := makeHeaderIndex(rows[0].cells)

	var missing []string
	for _, col := range schema.Required {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	headerWidth := len(rows[0].cells)
	result := &ParseResult{
		Header:  header,
		Records: make([]Record, 0, len(rows)-1),
	}

	for _, row := range rows[1:] {
		result.Records = append(result.Records, Record{
			RowNumber: row.line,
			Fields:    extractFields(row.cells, header, schema.Recognized),
			Malformed: len(row.cells) != headerWidth,
		})
	}

	return result, nil
}

// extractFields keeps recognized columns with non-blank values; unknown columns
// and cells beyond the header are ignored
func extractFields(cells []string, header HeaderIndex, recognized []string) map[string]string {
	fields := make(map[string]string, len(recognized))
	for _, name := range recognized {
		pos, ok := header[name]
		if !ok || pos >= len(cells) {
			continue
		}
		value := cleanCell(cells[pos])
		if value == "" {
			continue
		}
		fields[name] = value
	}
	return fields
}

func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
