package engine

import (
	"errors"
	"time"
)

// ============================================================================
// ENGINE TYPES — Chart data aggregation for rental-management reports
// ============================================================================
// Row (joined, prefixed columns) + Descriptor (what to draw) → Series.
// ============================================================================

// ErrNoData signals that aggregation produced zero groups. It is distinct
// from a valid series whose values happen to be zero.
var ErrNoData = errors.New("no data")

// ErrInvalidDescriptor is wrapped by errors for unusable descriptors.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// ============================================================================
// ROW
// ============================================================================

// Row is one joined result row. Column names follow "<domain>_<field>"
// (payments_amount, clients_name); unprefixed canonical names may also appear.
// Values are strings, numbers, date strings or nil.
type Row map[string]any

// ============================================================================
// DESCRIPTOR
// ============================================================================

// Kind is the visualization type.
type Kind string

const (
	KindBar   Kind = "bar"
	KindLine  Kind = "line"
	KindPie   Kind = "pie"
	KindTable Kind = "table"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBar, KindLine, KindPie, KindTable:
		return true
	}
	return false
}

// Descriptor defines what to draw. Created by the UI, passed by value,
// never mutated by the engine.
type Descriptor struct {
	Kind    Kind     `json:"kind" yaml:"kind"`
	Domain  string   `json:"domain" yaml:"domain"`
	Title   string   `json:"title" yaml:"title"`
	Filters []Filter `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// Filter is a field constraint. Opaque to Aggregate: rows are expected to
// arrive already filtered by the query layer.
type Filter struct {
	Field    string `json:"field" yaml:"field"`       // "<domain>_<field>" or a field of the primary domain
	Operator string `json:"operator" yaml:"operator"` // "eq", "neq", "gt", "gte", "lt", "lte", "contains"
	Value    string `json:"value" yaml:"value"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group is one bucket produced by a grouping strategy.
// Builders convert groups into Series.
type Group struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Value     float64   `json:"value"`
	Count     int       `json:"count"`
	At        time.Time `json:"at,omitempty"` // set for date buckets
	SubGroups []Group   `json:"subGroups,omitempty"`
}

// ============================================================================
// SERIES — Render-ready output
// ============================================================================

// Series is the chart-kind-specific output. Bar/line/pie populate Labels and
// Datasets; table populates Table.
type Series struct {
	Kind     Kind       `json:"kind"`
	Title    string     `json:"title"`
	Labels   []string   `json:"labels,omitempty"`
	Datasets []Dataset  `json:"datasets,omitempty"`
	Table    *TableData `json:"table,omitempty"`
}

// Dataset is one plotted series with its style hints.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	Fill            bool      `json:"fill"`
}

// TableData is a column projection plus the unmodified rows.
type TableData struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Summary is a count/total digest of a row set.
type Summary struct {
	Domain    string  `json:"domain"`
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
	Formatted string  `json:"formatted"`
	Column    string  `json:"column,omitempty"` // amount column summed, if any
}
