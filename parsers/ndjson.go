package parsers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ParseNDJSON reads newline-delimited JSON objects into records.
// Keys are lower-cased; the header is the sorted union of keys across all
// objects. A line that is not a JSON object becomes a malformed record with
// no fields so that it surfaces in review instead of disappearing.
func ParseNDJSON(reader io.Reader, schema Schema) (*ParseResult, error) {
	scanner := bufio.NewScanner(reader)

	// Increase buffer size for large lines (up to 1MB per line)
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	type line struct {
		num    int
		values map[string]string
		bad    bool
	}

	var lines []line
	keys := make(map[string]bool)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		if raw == "" {
			continue
		}

		// UseNumber keeps numeric ids and phone numbers in their literal form
		var obj map[string]interface{}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil || dec.More() {
			lines = append(lines, line{num: lineNum, bad: true})
			continue
		}

		values := make(map[string]string, len(obj))
		for k, v := range obj {
			key := strings.ToLower(strings.TrimSpace(k))
			keys[key] = true
			if v == nil {
				continue
			}
			values[key] = fmt.Sprint(v)
		}
		lines = append(lines, line{num: lineNum, values: values})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ndjson: %w", err)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	headerCells := make([]string, 0, len(keys))
	for k := range keys {
		headerCells = append(headerCells, k)
	}
	sort.Strings(headerCells)

	// header occupies line 0 so objects keep their own line numbers
	rows := []rawRow{{line: 0, cells: headerCells}}
	for _, l := range lines {
		if l.bad {
			rows = append(rows, rawRow{line: l.num})
			continue
		}
		cells := make([]string, len(headerCells))
		for i, k := range headerCells {
			cells[i] = l.values[k]
		}
		rows = append(rows, rawRow{line: l.num, cells: cells})
	}

	return build(rows, schema)
}
