package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/rentalcharts/engine"
	"github.com/spektr-org/rentalcharts/schema"
)

// ============================================================================
// CSV HELPER — Parses an exported join into []engine.Row
// ============================================================================
// The caller reads the file from wherever it lives. Header cells become
// snake_case column names ("Payment Date" → payment_date, prefixed names
// stay as they are); numeric cells become float64, blank cells nil, the
// rest strings. Malformed lines are skipped.
// ============================================================================

// ParseCSV parses CSV bytes into rows keyed by the header.
func ParseCSV(data []byte) ([]engine.Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = schema.ToSnakeCase(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if keys[i] == "" {
			keys[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	var rows []engine.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		row := make(engine.Row, len(keys))
		for i, key := range keys {
			if i >= len(record) {
				row[key] = nil
				continue
			}
			row[key] = parseCell(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseCSVView parses CSV into a RowView.
func ParseCSVView(data []byte) (engine.RowView, error) {
	rows, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(rows), nil
}

func parseCell(raw string) any {
	val := strings.TrimSpace(raw)
	if val == "" {
		return nil
	}
	if f, ok := schema.ToFloat(val); ok && looksNumeric(val) {
		return f
	}
	return val
}

// looksNumeric keeps identifiers like "007" and phone numbers as text.
func looksNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return false
	}
	return !strings.ContainsAny(s, " +")
}
