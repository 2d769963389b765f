package export

import (
	"bytes"
	"fmt"
	"strings"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// Column describes one exported column. Quoted columns are always wrapped in double quotes.
type Column struct {
	Header string
	Quoted bool
}

// Dataset defines tabular export content.
type Dataset struct {
	Columns []Column
	Rows    [][]string
}

// Headers returns the column headers in order.
func (d Dataset) Headers() []string {
	headers := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		headers[i] = col.Header
	}
	return headers
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces a BOM-prefixed CSV document. The header line always ends with "\n";
// data rows are joined with "\n" and the last row has no line terminator.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	buf.WriteString(utf8BOM)
	buf.WriteString(strings.Join(data.Headers(), ","))
	buf.WriteByte('\n')
	for i, row := range data.Rows {
		if len(row) != len(data.Columns) {
			return nil, fmt.Errorf("csv row %d has %d fields, want %d", i, len(row), len(data.Columns))
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		for j, value := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			if data.Columns[j].Quoted {
				buf.WriteString(Quote(value))
			} else {
				buf.WriteString(value)
			}
		}
	}
	return buf.Bytes(), nil
}

// Quote wraps value in double quotes, doubling embedded quotes.
func Quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
