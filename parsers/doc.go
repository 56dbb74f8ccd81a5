// Package parsers turns uploaded import files into header-mapped records.
//
// Three input formats share one set of rules:
//   - CSV via Parse, using a quote-aware line tokenizer (SplitLine)
//   - XLSX via ParseXLSX (first worksheet)
//   - NDJSON via ParseNDJSON (one object per line)
//
// The first row is the header. Header names are trimmed, unquoted and
// lower-cased. If any column named in Schema.Required is absent the whole
// file is rejected with a *MissingColumnsError and no records are produced.
// Fewer than two non-blank rows yields ErrEmptyFile.
//
// Each data row becomes a Record holding only recognized columns with
// non-blank values; blank cells are absent rather than empty strings, and
// cells past the end of the header are ignored. Records keep the 1-based
// line number of the source row, so the first data line of a CSV is row 2.
//
// Example usage:
//
//	result, err := parsers.Parse(content, schema)
//	var missing *parsers.MissingColumnsError
//	switch {
//	case errors.Is(err, parsers.ErrEmptyFile):
//	    // nothing to import
//	case errors.As(err, &missing):
//	    fmt.Println(missing.Columns)
//	}
//
//	for _, rec := range result.Records {
//	    fmt.Println(rec.RowNumber, rec.Fields["email"])
//	}
package parsers
