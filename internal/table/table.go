// Package table loads and persists the flat company table. All fields are
// handled as text; row order and unrelated columns pass through untouched.
package table

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// StatusColumn is the name of the column holding per-row check results.
const StatusColumn = "status"

// Table is an ordered table of string rows with a designated company-name
// column and a mutable status column.
type Table struct {
	Header []string
	Rows   [][]string

	companyIdx int
	statusIdx  int
}

// Load reads a CSV or XLSX table from path and locates the required company
// column. A missing column is a fatal error: the caller must not start work.
func Load(path, column string) (*Table, error) {
	var records [][]string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err = readXLSX(path)
	} else {
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, eris.Errorf("table: %s has no header row", path)
	}

	header := records[0]
	companyIdx := -1
	for i, col := range header {
		if strings.TrimSpace(col) == column {
			companyIdx = i
			break
		}
	}
	if companyIdx == -1 {
		return nil, eris.Errorf("table: missing required column %q (columns found: %s)",
			column, strings.Join(header, ", "))
	}

	t := &Table{
		Header:     header,
		Rows:       records[1:],
		companyIdx: companyIdx,
		statusIdx:  -1,
	}

	for i, col := range header {
		if strings.TrimSpace(col) == StatusColumn {
			t.statusIdx = i
			break
		}
	}

	// Pad short rows so every row has a cell for every column.
	for i, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}

	return t, nil
}

// EnsureStatus appends a status column if the table does not have one.
// Existing status values are kept.
func (t *Table) EnsureStatus() {
	if t.statusIdx >= 0 {
		return
	}
	t.Header = append(t.Header, StatusColumn)
	t.statusIdx = len(t.Header) - 1
	for i, row := range t.Rows {
		t.Rows[i] = append(row, "")
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Company returns the company-name cell of row i.
func (t *Table) Company(i int) string { return t.Rows[i][t.companyIdx] }

// Status returns the status cell of row i, or "" if no status column exists.
func (t *Table) Status(i int) string {
	if t.statusIdx < 0 {
		return ""
	}
	return t.Rows[i][t.statusIdx]
}

// SetStatus writes the status cell of row i. EnsureStatus must have been
// called first.
func (t *Table) SetStatus(i int, status string) {
	t.Rows[i][t.statusIdx] = status
}

// Save writes the whole table to path as CSV. The write goes to a temp file
// in the same directory followed by a rename, so an interrupt mid-write never
// leaves a truncated table behind.
func (t *Table) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".awardcheck-*.csv")
	if err != nil {
		return eris.Wrap(err, "table: create temp file")
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(t.Header); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "table: write header")
	}
	if err := w.WriteAll(t.Rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "table: write rows")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "table: flush")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "table: close temp file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "table: rename to %s", path)
	}
	return nil
}

// readCSV reads all records from a CSV file. LazyQuotes and variable field
// counts are tolerated; exported tables are often hand-edited.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "table: read %s", path)
	}
	return records, nil
}
