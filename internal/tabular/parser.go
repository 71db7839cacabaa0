// Package tabular turns CSV text or spreadsheet value grids into rows of named cells.
// Parsing is best-effort and total: malformed input degrades, it never fails.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
)

// Table is a header row plus the data rows under it
type Table struct {
	Headers []string
	Rows    []Row
}

// Row is one data row. Cells are positional and always at least as long as the header.
type Row struct {
	headers []string
	cells   []string
}

// NewRow builds a row against headers, padding missing trailing cells with ""
func NewRow(headers, cells []string) Row {
	n := len(cells)
	if n < len(headers) {
		n = len(headers)
	}
	padded := make([]string, n)
	copy(padded, cells)
	return Row{headers: headers, cells: padded}
}

// Headers returns the header names in column order
func (r Row) Headers() []string { return r.headers }

// Cells returns the raw cell values in column order
func (r Row) Cells() []string { return r.cells }

// At returns the cell at a column index, or "" when out of range
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// Get looks a header up case-insensitively. The first matching column wins.
func (r Row) Get(header string) (string, bool) {
	want := normalizeHeader(header)
	for i, h := range r.headers {
		if normalizeHeader(h) == want {
			return r.cells[i], true
		}
	}
	return "", false
}

// Map returns the named cells as a map. Use Headers for ordering.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.headers))
	for i, h := range r.headers {
		if _, dup := m[h]; !dup {
			m[h] = r.cells[i]
		}
	}
	return m
}

// ParseDelimited parses RFC 4180 CSV text. The first non-blank line is the header.
func ParseDelimited(text string) *Table {
	text = strings.TrimPrefix(text, "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Keep whatever the reader salvaged from the bad record
				if record != nil {
					records = append(records, record)
				}
				continue
			}
			break
		}
		records = append(records, record)
	}

	return FromValues(records)
}

// FromValues converts a 2-D grid (as returned by a spreadsheet values API) into a Table.
// The first non-blank sub-array is the header row.
func FromValues(values [][]string) *Table {
	table := &Table{}
	start := -1
	for i, v := range values {
		if !isBlank(v) {
			start = i
			break
		}
	}
	if start < 0 {
		return table
	}

	table.Headers = make([]string, len(values[start]))
	for i, h := range values[start] {
		table.Headers[i] = strings.TrimSpace(h)
	}

	for _, v := range values[start+1:] {
		if isBlank(v) {
			continue
		}
		table.Rows = append(table.Rows, NewRow(table.Headers, v))
	}
	return table
}

// FromCells converts an untyped grid, stringifying every cell
func FromCells(values [][]interface{}) *Table {
	grid := make([][]string, len(values))
	for i, row := range values {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			grid[i][j] = cellString(cell)
		}
	}
	return FromValues(grid)
}

// WithHeaderAsData treats the header row as the first data row.
// Used for legacy fixed-column tabs that have no header line.
func (t *Table) WithHeaderAsData() *Table {
	if len(t.Headers) == 0 {
		return t
	}
	width := len(t.Headers)
	for _, r := range t.Rows {
		if len(r.cells) > width {
			width = len(r.cells)
		}
	}
	positional := make([]string, width)
	for i := range positional {
		positional[i] = fmt.Sprintf("column_%d", i+1)
	}

	out := &Table{Headers: positional}
	out.Rows = append(out.Rows, NewRow(positional, t.Headers))
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, NewRow(positional, r.cells))
	}
	return out
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Fingerprint hashes the header and every cell. Two tabs served the same sheet
// have equal fingerprints.
func (t *Table) Fingerprint() uint64 {
	h := fnv.New64a()
	if t == nil {
		return h.Sum64()
	}
	write := func(cells []string) {
		for _, c := range cells {
			h.Write([]byte(c))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	write(t.Headers)
	for _, r := range t.Rows {
		write(r.cells)
	}
	return h.Sum64()
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
