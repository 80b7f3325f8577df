package metadata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StrainColumn identifies rows when present; otherwise the first column does.
const StrainColumn = "strain"

// Table is metadata keyed by strain, preserving column and row order.
type Table struct {
	Columns []string

	key     string
	strains []string
	rows    map[string]map[string]string
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	t := &Table{
		Columns: append([]string(nil), columns...),
		rows:    map[string]map[string]string{},
	}
	t.key = keyColumn(t.Columns)
	return t
}

// Strains returns strain names in insertion order.
func (t *Table) Strains() []string {
	return append([]string(nil), t.strains...)
}

// Len returns the number of strains.
func (t *Table) Len() int {
	return len(t.strains)
}

// Row returns the values recorded for strain.
func (t *Table) Row(strain string) (map[string]string, bool) {
	row, ok := t.rows[strain]
	return row, ok
}

// Value returns the value of column for strain, or "".
func (t *Table) Value(strain, column string) string {
	return t.rows[strain][column]
}

func (t *Table) row(strain string) map[string]string {
	row, ok := t.rows[strain]
	if !ok {
		row = map[string]string{}
		t.rows[strain] = row
		t.strains = append(t.strains, strain)
	}
	return row
}

// ReadTable parses tab-separated metadata with a header row. Rows with the
// same strain are merged, the later row winning.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := NewTable(header)
	keyIdx := 0
	for i, c := range header {
		if c == t.key {
			keyIdx = i
			break
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if keyIdx >= len(record) || record[keyIdx] == "" {
			continue
		}

		row := t.row(record[keyIdx])
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
	}

	return t, nil
}

// Write emits the table as tab-separated values with a header row. Fields are
// quoted only when they contain a tab, a double quote or a line break, so
// leading spaces survive unquoted.
func (t *Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := writeRecord(bw, t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, strain := range t.strains {
		row := t.rows[strain]
		for i, column := range t.Columns {
			record[i] = row[column]
		}
		if err := writeRecord(bw, record); err != nil {
			return fmt.Errorf("write row %s: %w", strain, err)
		}
	}

	return bw.Flush()
}

func writeRecord(w *bufio.Writer, record []string) error {
	// A lone empty field is quoted so the line is not read back as blank.
	if len(record) == 1 && record[0] == "" {
		_, err := w.WriteString("\"\"\n")
		return err
	}
	for i, field := range record {
		if i > 0 {
			if err := w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if strings.ContainsAny(field, "\t\"\r\n") {
			field = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := w.WriteString(field); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func keyColumn(columns []string) string {
	for _, c := range columns {
		if c == StrainColumn {
			return c
		}
	}
	if len(columns) > 0 {
		return columns[0]
	}
	return StrainColumn
}
