package sheets

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed CSV export: one header row plus the data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// HeaderAt returns the header cell at index i, or "" when the header row
// is narrower than that.
func (t *Table) HeaderAt(i int) string {
	if i < 0 || i >= len(t.Header) {
		return ""
	}
	return t.Header[i]
}

// Column returns the values of column i across all data rows. Rows too
// short to have the column contribute an empty string.
func (t *Table) Column(i int) []string {
	values := make([]string, len(t.Rows))
	for n, row := range t.Rows {
		if i >= 0 && i < len(row) {
			values[n] = row[i]
		}
	}
	return values
}

// parseTable reads a CSV export into a Table. Ragged rows are accepted;
// a UTF-8 BOM on the first header cell is stripped. An empty body yields
// a table with no rows.
func parseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return &Table{Header: header, Rows: records[1:]}, nil
}
