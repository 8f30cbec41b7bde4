package engine

import (
	"strings"

	"github.com/spektr-org/rentalcharts/schema"
)

// ============================================================================
// TABLE BUILDER — Column projection over the raw rows
// ============================================================================
// Columns: keys with the primary domain's prefix; for payments, the
// canonical payments fields; otherwise every key. Keys come sorted from the
// view, so the projection is identical across runs.
// Rows: the first limit rows, unmodified.
// ============================================================================

// BuildTable projects a view into a table for the primary domain.
func BuildTable(domain string, view RowView, limit int) *TableData {
	if limit <= 0 {
		limit = DefaultTableLimit
	}
	if view == nil || view.Len() == 0 {
		return &TableData{Columns: []string{}, Rows: []Row{}}
	}

	keys := view.Keys()
	columns := prefixedColumns(keys, domain+"_")
	if len(columns) == 0 && domain == schema.Payments {
		columns = presentColumns(keys, schema.PaymentsTableFields)
	}
	if len(columns) == 0 {
		columns = append([]string(nil), keys...)
	}

	n := view.Len()
	if n > limit {
		n = limit
	}
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, view.Row(i))
	}

	return &TableData{Columns: columns, Rows: rows}
}

func prefixedColumns(keys []string, prefix string) []string {
	var out []string
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// presentColumns keeps the fields of want that appear in keys, in want's order.
func presentColumns(keys []string, want []string) []string {
	have := make(map[string]bool, len(keys))
	for _, k := range keys {
		have[k] = true
	}
	var out []string
	for _, w := range want {
		if have[w] {
			out = append(out, w)
		}
	}
	return out
}
