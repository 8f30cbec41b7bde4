package engine

import (
	"github.com/spektr-org/rentalcharts/schema"
)

// ============================================================================
// SUMMARY — Count and amount total of a domain's rows
// ============================================================================
// Dashboard stat tiles. The amount column is resolved once from the first
// row that has one; malformed cells in that column count as 0.
// ============================================================================

// Summarize counts the rows of view and sums the domain's amount column.
func Summarize(domain string, view RowView, catalog schema.Catalog, opts ...Option) Summary {
	cfg := applyOptions(opts)
	s := Summary{Domain: domain}
	if view == nil || view.Len() == 0 {
		s.Formatted = FormatCurrency(0, cfg.Currency)
		return s
	}

	res := NewResolver(catalog, cfg.Location)
	keys := view.Keys()

	s.Count = view.Len()
	for i := 0; i < view.Len() && s.Column == ""; i++ {
		if key, ok := res.Resolve(keys, view.Row(i), domain, schema.RoleAmount); ok {
			s.Column = key
		}
	}
	if s.Column != "" {
		for i := 0; i < view.Len(); i++ {
			s.Total += schema.Float(view.Value(i, s.Column))
		}
	}
	s.Total = RoundTo2(s.Total)
	s.Formatted = FormatCurrency(s.Total, cfg.Currency)
	return s
}
