// Package rental computes rental charges from form inputs.
package rental

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spektr-org/rentalcharts/schema"
)

// ============================================================================
// RENTAL TOTAL CALCULATOR
// ============================================================================
// hours = ceil((end-of-day(end) − start-of-day(start)) / 1h), at least 1
// total = hours × rate × quantity, rounded to cents
//
// Same-day and inverted ranges bill one hour. Pure; recomputed on every
// input change.
// ============================================================================

// Zero is the display value for totals that cannot be computed.
const Zero = "0.00"

// Quote is the raw calculator input as typed into the rental form.
type Quote struct {
	Start    string `json:"start" yaml:"start"`
	End      string `json:"end" yaml:"end"`
	Rate     string `json:"rate" yaml:"rate"`
	Quantity string `json:"quantity" yaml:"quantity"`
}

// Hours returns the billable hours between the start of start's day and the
// end of end's day, both taken in loc (UTC when nil).
func Hours(start, end time.Time, loc *time.Location) int64 {
	if loc == nil {
		loc = time.UTC
	}
	from := startOfDay(start.In(loc))
	to := endOfDay(end.In(loc))

	hours := int64(math.Ceil(float64(to.Sub(from)) / float64(time.Hour)))
	if hours < 1 {
		hours = 1
	}
	return hours
}

// Total returns hours × rate × quantity rounded to 2 decimal places.
func Total(start, end time.Time, rate, quantity decimal.Decimal, loc *time.Location) decimal.Decimal {
	hours := decimal.NewFromInt(Hours(start, end, loc))
	return hours.Mul(rate).Mul(quantity).Round(2)
}

// Calculate evaluates a quote and formats the total with two decimals.
// Any input that does not parse yields Zero.
func Calculate(q Quote, loc *time.Location) string {
	start, ok := schema.ToTime(q.Start, loc)
	if !ok {
		return Zero
	}
	end, ok := schema.ToTime(q.End, loc)
	if !ok {
		return Zero
	}
	rate, ok := parseDecimal(q.Rate)
	if !ok {
		return Zero
	}
	quantity, ok := parseDecimal(q.Quantity)
	if !ok {
		return Zero
	}
	return Total(start, end, rate, quantity, loc).StringFixed(2)
}

// ParseQuote reads "start,end,rate,quantity".
func ParseQuote(s string) (Quote, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Quote{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return Quote{Start: parts[0], End: parts[1], Rate: parts[2], Quantity: parts[3]}, true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
