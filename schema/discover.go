package schema

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ============================================================================
// COLUMN DISCOVERY — Heuristic classification of joined row columns
// ============================================================================
// Used when a domain has no declared role for what a chart needs, e.g. the
// generic "group by the first text column, sum the first number" fallback.
//
// Classification pipeline per column:
//   1. Sample cells → detect kind (numeric, date, bool, text)
//   2. Column name → flag identifier-like and timestamp-like columns
//   3. Catalog prefix → attribute the column to a domain
// ============================================================================

// ColumnKind is the detected value type of a column.
type ColumnKind int

const (
	ColumnEmpty ColumnKind = iota
	ColumnText
	ColumnNumeric
	ColumnDate
	ColumnBool
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnText:
		return "text"
	case ColumnNumeric:
		return "numeric"
	case ColumnDate:
		return "date"
	case ColumnBool:
		return "bool"
	default:
		return "empty"
	}
}

// ColumnProfile describes one discovered column.
type ColumnProfile struct {
	Key      string     `json:"key"`
	Domain   string     `json:"domain,omitempty"` // empty for unprefixed columns
	Field    string     `json:"field"`
	Kind     ColumnKind `json:"kind"`
	IDLike   bool       `json:"idLike,omitempty"`
	Temporal bool       `json:"temporal,omitempty"`
	NonNull  int        `json:"nonNull"`
	Unique   int        `json:"unique"`
	Samples  []string   `json:"samples,omitempty"`
}

// Categorical reports whether the column can be used as a grouping key.
func (p ColumnProfile) Categorical() bool {
	return p.Kind == ColumnText && !p.IDLike && !p.Temporal
}

// Summable reports whether the column can be summed.
func (p ColumnProfile) Summable() bool {
	return p.Kind == ColumnNumeric && !p.IDLike && !p.Temporal
}

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int // Max rows to inspect (0 = all). Default: 200
	MaxSamples int // Sample values kept per column. Default: 5
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{SampleSize: 200, MaxSamples: 5}
}

// ProfileColumns classifies each key by inspecting up to SampleSize rows.
// cell returns the value of column key in row i (nil when absent).
// Output order follows keys.
func ProfileColumns(keys []string, rows int, cell func(i int, key string) any, catalog Catalog, opts ...DiscoverOptions) []ColumnProfile {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	limit := rows
	if opt.SampleSize > 0 && opt.SampleSize < limit {
		limit = opt.SampleSize
	}

	profiles := make([]ColumnProfile, 0, len(keys))
	for _, key := range keys {
		values := make([]any, 0, limit)
		unique := make(map[string]bool)
		for i := 0; i < limit; i++ {
			v := cell(i, key)
			if isNullCell(v) {
				continue
			}
			values = append(values, v)
			unique[fmt.Sprint(v)] = true
		}

		domain, field, _ := catalog.SplitKey(key)
		p := ColumnProfile{
			Key:     key,
			Domain:  domain,
			Field:   field,
			Kind:    detectKind(values),
			IDLike:  IsIDLike(key),
			NonNull: len(values),
			Unique:  len(unique),
			Samples: collectSamples(unique, opt.MaxSamples),
		}
		p.Temporal = p.Kind == ColumnDate || IsTimestampLike(key)
		profiles = append(profiles, p)
	}
	return profiles
}

// FirstCategorical returns the first groupable text column, preferring
// columns of the given domain.
func FirstCategorical(profiles []ColumnProfile, domain string) (ColumnProfile, bool) {
	return firstMatching(profiles, domain, ColumnProfile.Categorical)
}

// FirstSummable returns the first summable numeric column, preferring
// columns of the given domain.
func FirstSummable(profiles []ColumnProfile, domain string) (ColumnProfile, bool) {
	return firstMatching(profiles, domain, ColumnProfile.Summable)
}

func firstMatching(profiles []ColumnProfile, domain string, match func(ColumnProfile) bool) (ColumnProfile, bool) {
	for _, p := range profiles {
		if p.Domain == domain && match(p) {
			return p, true
		}
	}
	for _, p := range profiles {
		if match(p) {
			return p, true
		}
	}
	return ColumnProfile{}, false
}

// ============================================================================
// KIND DETECTION
// ============================================================================

// detectKind requires 80%+ of non-null values to match for numeric/date/bool.
func detectKind(values []any) ColumnKind {
	if len(values) == 0 {
		return ColumnEmpty
	}

	numCount, dateCount, boolCount := 0, 0, 0
	for _, v := range values {
		if _, ok := v.(bool); ok {
			boolCount++
			continue
		}
		if IsNumeric(v) {
			numCount++
		} else if IsDate(v) {
			dateCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	switch {
	case boolCount >= threshold:
		return ColumnBool
	case dateCount >= threshold:
		return ColumnDate
	case numCount >= threshold:
		return ColumnNumeric
	}
	return ColumnText
}

func isNullCell(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		t := strings.TrimSpace(s)
		return t == "" || t == "null" || t == "NULL" || t == "N/A" || t == "n/a"
	}
	return false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// ToSnakeCase converts "Column Name" or "columnName" → "column_name".
func ToSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}

// DisplayName cleans a column key for human display.
// "payments_payment_type" → "Payments Payment Type"
func DisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples values, sorted for deterministic output.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)

	if maxSamples > 0 && len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
