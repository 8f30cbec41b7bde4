// Package export writes Series as JSON, CSV, Excel workbooks or PNG images.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/rentalcharts/engine"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Output formats.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatPNG    = "png"
)

// Write renders series to w in format.
func Write(w io.Writer, series *engine.Series, format string) error {
	switch format {
	case "", FormatJSON:
		return WriteJSON(w, series, false)
	case FormatPretty:
		return WriteJSON(w, series, true)
	case FormatCSV:
		return WriteCSV(w, series)
	case FormatXLSX:
		return WriteXLSX(w, series)
	case FormatPNG:
		return WritePNG(w, series)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// WriteJSON writes v as one line of JSON, or indented when pretty.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// GRID — Spreadsheet projection shared by CSV and XLSX
// ============================================================================
// Single dataset → two columns (label, value)
// Multi dataset  → label + one column per dataset
// Table          → header + one line per row
// ============================================================================

// Grid is a header plus value rows.
type Grid struct {
	Header []string
	Rows   [][]any
}

// ToGrid projects a series into rows and columns.
func ToGrid(series *engine.Series) (Grid, error) {
	if series == nil {
		return Grid{}, engine.ErrNoData
	}

	if series.Table != nil {
		g := Grid{Header: append([]string(nil), series.Table.Columns...)}
		for _, row := range series.Table.Rows {
			line := make([]any, len(series.Table.Columns))
			for i, col := range series.Table.Columns {
				line[i] = row[col]
			}
			g.Rows = append(g.Rows, line)
		}
		return g, nil
	}

	if len(series.Datasets) == 0 {
		return Grid{}, engine.ErrNoData
	}

	g := Grid{Header: []string{"Label"}}
	for _, ds := range series.Datasets {
		name := ds.Label
		if name == "" {
			name = "Value"
		}
		g.Header = append(g.Header, name)
	}
	for i, label := range series.Labels {
		line := []any{label}
		for _, ds := range series.Datasets {
			if i < len(ds.Data) {
				line = append(line, ds.Data[i])
			} else {
				line = append(line, nil)
			}
		}
		g.Rows = append(g.Rows, line)
	}
	return g, nil
}

// WriteCSV writes the grid projection of series as CSV.
func WriteCSV(w io.Writer, series *engine.Series) error {
	g, err := ToGrid(series)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(g.Header); err != nil {
		return err
	}
	for _, line := range g.Rows {
		record := make([]string, len(line))
		for i, v := range line {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmtNum(t)
	case float32:
		return fmtNum(float64(t))
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// fmtNum prints whole numbers without decimals, fractions with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
