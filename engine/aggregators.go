package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spektr-org/rentalcharts/schema"
	"go.uber.org/zap"
)

// ============================================================================
// AGGREGATORS — Domain-specific grouping strategies
// ============================================================================
// Strategy is picked by (primary domain, kind):
//
//   payments  + bar/pie → client name      → sum(payment amount)
//   payments  + line    → payment day      → sum(payment amount)
//   equipment + bar/pie → equipment name   → count(joined rentals)
//   equipment + line    → equipment × day  → sum(rental total amount)
//   anything else, or a strategy with no groups → generic fallback
//
// A strategy returning no groups means "no applicable data".
// ============================================================================

// aggContext carries one Aggregate call's inputs to the strategies.
type aggContext struct {
	desc    Descriptor
	view    RowView
	keys    []string
	res     *Resolver
	catalog schema.Catalog
	cfg     *config
}

// grouping is a strategy result.
type grouping struct {
	groups   []Group
	metric   string // dataset label when the descriptor has no title
	strategy string
}

type strategy func(ctx *aggContext) grouping

// selectStrategy returns the domain-specific strategy, or nil for generic.
func selectStrategy(domain string, kind Kind) strategy {
	switch domain {
	case schema.Payments:
		if kind == KindLine {
			return paymentsByDay
		}
		return paymentsByClient
	case schema.Equipment:
		if kind == KindLine {
			return equipmentRevenueByDay
		}
		return equipmentRentalCounts
	}
	return nil
}

// groupRows runs the selected strategy and falls back to the generic one.
func groupRows(ctx *aggContext) grouping {
	if s := selectStrategy(ctx.desc.Domain, ctx.desc.Kind); s != nil {
		if g := s(ctx); len(g.groups) > 0 {
			return g
		}
		ctx.cfg.Logger.Debug("domain strategy produced no groups, using generic fallback",
			zap.String("domain", ctx.desc.Domain), zap.String("kind", string(ctx.desc.Kind)))
	}
	return genericGroups(ctx)
}

// ============================================================================
// PAYMENTS
// ============================================================================

func paymentsByClient(ctx *aggContext) grouping {
	b := newBuckets()
	for i := 0; i < ctx.view.Len(); i++ {
		row := ctx.view.Row(i)
		amount, ok := ctx.res.Number(ctx.keys, row, schema.Payments, schema.RoleAmount)
		if !ok {
			continue
		}
		client, ok := ctx.res.Text(ctx.keys, row, schema.Clients, schema.RoleName)
		if !ok {
			continue
		}
		b.add(client, client, time.Time{}, amount)
	}
	return grouping{groups: b.list(), metric: "Amount", strategy: "payments_by_client"}
}

func paymentsByDay(ctx *aggContext) grouping {
	b := newBuckets()
	for i := 0; i < ctx.view.Len(); i++ {
		row := ctx.view.Row(i)
		amount, ok := ctx.res.Number(ctx.keys, row, schema.Payments, schema.RoleAmount)
		if !ok {
			continue
		}
		at, ok := ctx.res.Time(ctx.keys, row, schema.Payments, schema.RoleDate)
		if !ok {
			continue
		}
		day := calendarDay(at, ctx.cfg.Location)
		b.add(dayKey(day), day.Format(ctx.cfg.DateLayout), day, amount)
	}
	groups := b.list()
	sortByDate(groups)
	return grouping{groups: groups, metric: "Amount", strategy: "payments_by_day"}
}

// ============================================================================
// EQUIPMENT
// ============================================================================

func equipmentRentalCounts(ctx *aggContext) grouping {
	b := newBuckets()
	for i := 0; i < ctx.view.Len(); i++ {
		row := ctx.view.Row(i)
		if !ctx.res.JoinHit(ctx.keys, row, schema.Rentals) {
			continue
		}
		name, ok := ctx.res.Text(ctx.keys, row, schema.Equipment, schema.RoleName)
		if !ok {
			continue
		}
		b.add(name, name, time.Time{}, 1)
	}
	return grouping{groups: b.list(), metric: "Rentals", strategy: "equipment_rental_counts"}
}

func equipmentRevenueByDay(ctx *aggContext) grouping {
	outer := newBuckets()
	inner := make(map[string]*buckets)

	for i := 0; i < ctx.view.Len(); i++ {
		row := ctx.view.Row(i)
		if !ctx.res.JoinHit(ctx.keys, row, schema.Rentals) {
			continue
		}
		name, ok := ctx.res.Text(ctx.keys, row, schema.Equipment, schema.RoleName)
		if !ok {
			continue
		}
		at, ok := ctx.res.Time(ctx.keys, row, schema.Rentals, schema.RoleDate)
		if !ok {
			continue
		}
		amount, ok := ctx.res.Number(ctx.keys, row, schema.Rentals, schema.RoleAmount)
		if !ok {
			continue
		}

		day := calendarDay(at, ctx.cfg.Location)
		outer.add(name, name, time.Time{}, amount)
		if inner[name] == nil {
			inner[name] = newBuckets()
		}
		inner[name].add(dayKey(day), day.Format(ctx.cfg.DateLayout), day, amount)
	}

	groups := outer.list()
	for i := range groups {
		groups[i].SubGroups = inner[groups[i].Key].list()
		sortByDate(groups[i].SubGroups)
	}
	return grouping{groups: groups, metric: "Revenue", strategy: "equipment_revenue_by_day"}
}

// ============================================================================
// GENERIC FALLBACK
// ============================================================================

// genericGroups groups by the first categorical column and sums the first
// numeric one. Pie charts count rows when no numeric column exists.
//
// Columns come from the declared type/amount roles first, then the generic
// category/measure heuristics, and only then from column profiling.
func genericGroups(ctx *aggContext) grouping {
	profiles := schema.ProfileColumns(ctx.keys, ctx.view.Len(), ctx.view.Value, ctx.catalog)

	category, hasCategory := firstColumn(ctx, schema.RoleType, schema.RoleCategory)
	if !hasCategory {
		if p, ok := schema.FirstCategorical(profiles, ctx.desc.Domain); ok {
			category, hasCategory = p.Key, true
		}
	}
	measure, hasMeasure := firstColumn(ctx, schema.RoleAmount, schema.RoleMeasure)
	if !hasMeasure {
		if p, ok := schema.FirstSummable(profiles, ctx.desc.Domain); ok {
			measure, hasMeasure = p.Key, true
		}
	}
	if !hasCategory || (!hasMeasure && ctx.desc.Kind != KindPie) {
		return grouping{strategy: "generic"}
	}
	traceColumn(ctx, "category", category, profiles)

	metric := "Count"
	if hasMeasure {
		traceColumn(ctx, "measure", measure, profiles)
		field := measure
		if _, f, ok := ctx.catalog.SplitKey(measure); ok {
			field = f
		}
		metric = schema.DisplayName(field)
	}

	b := newBuckets()
	for i := 0; i < ctx.view.Len(); i++ {
		label, ok := schema.ToText(ctx.view.Value(i, category))
		if !ok {
			continue
		}
		weight := 1.0
		if hasMeasure {
			weight = schema.Float(ctx.view.Value(i, measure))
		}
		b.add(label, label, time.Time{}, weight)
	}
	return grouping{groups: b.list(), metric: metric, strategy: "generic"}
}

// firstColumn returns the column of the first row resolving roles[0],
// falling through to later roles only when no row resolves an earlier one.
func firstColumn(ctx *aggContext, roles ...schema.Role) (string, bool) {
	for _, role := range roles {
		for i := 0; i < ctx.view.Len(); i++ {
			if key, ok := ctx.res.Resolve(ctx.keys, ctx.view.Row(i), ctx.desc.Domain, role); ok {
				return key, true
			}
		}
	}
	return "", false
}

func traceColumn(ctx *aggContext, use, key string, profiles []schema.ColumnProfile) {
	for _, p := range profiles {
		if p.Key != key {
			continue
		}
		ctx.cfg.Logger.Debug("generic column",
			zap.String("use", use),
			zap.String("column", p.Key),
			zap.String("kind", p.Kind.String()),
			zap.Int("non_null", p.NonNull),
			zap.Int("unique", p.Unique),
			zap.Strings("samples", p.Samples),
		)
		return
	}
}

// ============================================================================
// BUCKETS — first-seen ordered accumulation
// ============================================================================

type buckets struct {
	order  []string
	groups map[string]*Group
}

func newBuckets() *buckets {
	return &buckets{groups: make(map[string]*Group)}
}

func (b *buckets) add(key, label string, at time.Time, value float64) {
	g, exists := b.groups[key]
	if !exists {
		g = &Group{Key: key, Label: label, At: at}
		b.groups[key] = g
		b.order = append(b.order, key)
	}
	g.Value += value
	g.Count++
}

func (b *buckets) list() []Group {
	if b == nil || len(b.order) == 0 {
		return nil
	}
	out := make([]Group, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, *b.groups[key])
	}
	return out
}

// ============================================================================
// DATES
// ============================================================================

// calendarDay truncates t to midnight of its calendar day in loc.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// sortByDate orders date buckets chronologically by their underlying date.
func sortByDate(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].At.Before(groups[j].At)
	})
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatCurrency formats an amount with a unit prefix and comma separators.
func FormatCurrency(amount float64, unit string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	intPart := cents / 100
	decPart := cents % 100

	result := fmt.Sprintf("%s.%02d", FormatInt(int(intPart)), decPart)
	if unit != "" {
		result = unit + " " + result
	}
	if negative {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}
