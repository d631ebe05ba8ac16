// Package csvparse turns uploaded CSV text into header-keyed rows.
//
// Every non-blank line is one record, so the header is the first line with
// content. Quoted fields may contain commas; a line whose quoting is broken
// falls back to a plain comma split. Cells are trimmed and lose one pair of
// surrounding double quotes.
package csvparse

import (
	"encoding/csv"
	"strings"

	"github.com/hyperengineering/snsreport/internal/types"
)

const utf8BOM = "\ufeff"

// Table is the parsed content of a CSV document.
type Table struct {
	Header []string
	Rows   []types.RawRow
}

// Parse reads text as CSV. Input with fewer than two non-blank lines
// yields a Table with no rows and no error.
func Parse(text string) (*Table, error) {
	table := &Table{}
	for _, line := range strings.Split(strings.TrimPrefix(text, utf8BOM), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells := cleanCells(splitLine(line))
		if isBlank(cells) {
			continue
		}

		if table.Header == nil {
			table.Header = cells
			continue
		}
		table.Rows = append(table.Rows, zip(table.Header, cells))
	}

	return table, nil
}

// splitLine reads one line as a CSV record. Unbalanced or stray quotes make
// the reader fail; the line is then split on every comma.
func splitLine(line string) []string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	record, err := reader.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return record
}

// zip matches cells to headers by position. Missing trailing cells are
// empty; extra cells are dropped.
func zip(header, cells []string) types.RawRow {
	row := make(types.RawRow, len(header))
	for i, h := range header {
		if i < len(cells) {
			row[h] = cells[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

func cleanCells(record []string) []string {
	cells := make([]string, len(record))
	for i, v := range record {
		cells[i] = StripQuotes(strings.TrimSpace(v))
	}
	return cells
}

// StripQuotes removes one pair of surrounding double quotes.
func StripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
