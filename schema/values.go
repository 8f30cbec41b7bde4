package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// VALUES — Scalar shape detection for row cells
// ============================================================================
// Row cells arrive as whatever the data service produced: Go numbers,
// json.Number, numeric strings, date strings, time.Time or nil.
// These helpers answer "does this cell look like X" without panicking.
// ============================================================================

// DateLayouts are tried in order when a string cell is parsed as a date.
var DateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ToFloat converts a numeric cell or numeric string to float64.
// Non-finite values and non-numeric cells report ok=false.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseNumericString(n)
		if !ok {
			return 0, false
		}
		f = parsed
	case []byte:
		parsed, ok := parseNumericString(string(n))
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Float is ToFloat with malformed input mapped to 0.
func Float(v any) float64 {
	f, _ := ToFloat(v)
	return f
}

// IsNumeric reports whether a cell holds a number or a numeric string.
func IsNumeric(v any) bool {
	_, ok := ToFloat(v)
	return ok
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "") // "1,234.56"
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	if neg && (strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+")) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// ToTime parses a date cell. Bare numbers are never treated as dates.
func ToTime(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return parseDateString(t, loc)
	case []byte:
		return parseDateString(string(t), loc)
	}
	return time.Time{}, false
}

// IsDate reports whether a cell parses as a date.
func IsDate(v any) bool {
	_, ok := ToTime(v, time.UTC)
	return ok
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToText returns a trimmed, non-empty string cell.
func ToText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case []byte:
		str := strings.TrimSpace(string(s))
		return str, str != ""
	}
	return "", false
}

// IsText reports whether a cell is a non-empty string.
func IsText(v any) bool {
	_, ok := ToText(v)
	return ok
}

// IsIDLike reports whether a column name looks like an identifier.
func IsIDLike(key string) bool {
	k := strings.ToLower(key)
	return k == "id" || strings.Contains(k, "_id")
}

// IsTimestampLike reports whether a column name looks like a date or timestamp.
func IsTimestampLike(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "date") || strings.HasSuffix(k, "_at") || strings.Contains(k, "_at_") || strings.Contains(k, "time")
}
