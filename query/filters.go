package query

import (
	"fmt"
	"strings"

	"github.com/spektr-org/rentalcharts/engine"
	"github.com/spektr-org/rentalcharts/schema"
)

// ============================================================================
// FILTERS — In-process filtering for sources that hold rows in memory
// ============================================================================
// Single pass: every filter is checked per row in one loop and rows must
// match ALL of them. Returns a SubView (index list into parent), no copy.
//
// Comparison: when both sides parse as numbers they compare numerically,
// when both parse as dates they compare chronologically, otherwise as
// case-insensitive strings.
// ============================================================================

// Operators understood by ApplyFilters and the SQL builder.
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpContains = "contains"
)

// ValidOperator reports whether op is a known filter operator.
// An empty operator means eq.
func ValidOperator(op string) bool {
	switch op {
	case "", OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpContains:
		return true
	}
	return false
}

// ApplyFilters returns a view of the rows of view matching every filter.
// Unprefixed filter fields are tried as-is and then as "<domain>_<field>".
func ApplyFilters(view engine.RowView, domain string, filters []engine.Filter) (engine.RowView, error) {
	if len(filters) == 0 {
		return view, nil
	}
	for _, f := range filters {
		if !ValidOperator(f.Operator) {
			return nil, fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Operator)
		}
	}

	keys := make(map[string]bool, len(view.Keys()))
	for _, k := range view.Keys() {
		keys[k] = true
	}
	columns := make([]string, len(filters))
	for i, f := range filters {
		columns[i] = filterColumn(keys, domain, f.Field)
	}

	return engine.Where(view, func(i int) bool {
		for j, f := range filters {
			if !matches(view.Value(i, columns[j]), f.Operator, f.Value) {
				return false
			}
		}
		return true
	}), nil
}

// FilterRows is ApplyFilters over a row slice.
func FilterRows(rows []engine.Row, domain string, filters []engine.Filter) ([]engine.Row, error) {
	view, err := ApplyFilters(engine.NewSliceView(rows), domain, filters)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Row, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		out = append(out, view.Row(i))
	}
	return out, nil
}

func filterColumn(keys map[string]bool, domain, field string) string {
	if keys[field] {
		return field
	}
	if prefixed := domain + "_" + field; keys[prefixed] {
		return prefixed
	}
	return field
}

func matches(cell any, op, want string) bool {
	if op == "" {
		op = OpEq
	}
	if cell == nil {
		// Absent values only satisfy a negative match.
		return op == OpNeq
	}

	if op == OpContains {
		text := strings.ToLower(fmt.Sprint(cell))
		return strings.Contains(text, strings.ToLower(want))
	}

	cmp := compare(cell, want)
	switch op {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

// compare orders cell against want: -1, 0 or 1.
func compare(cell any, want string) int {
	if a, ok := schema.ToFloat(cell); ok {
		if b, ok := schema.ToFloat(want); ok {
			return sign(a - b)
		}
	}
	if a, ok := schema.ToTime(cell, nil); ok {
		if b, ok := schema.ToTime(want, nil); ok {
			return a.Compare(b)
		}
	}
	text, ok := schema.ToText(cell)
	if !ok {
		text = fmt.Sprint(cell)
	}
	return strings.Compare(strings.ToLower(text), strings.ToLower(strings.TrimSpace(want)))
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}
