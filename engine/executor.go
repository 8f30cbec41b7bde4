package engine

import (
	"fmt"

	"github.com/spektr-org/rentalcharts/schema"
	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — Aggregate entry point
// ============================================================================
// Pipeline:
//   1. Validate the descriptor against the catalog
//   2. Table → column projection, done
//   3. Chart → domain strategy (or generic fallback) → groups
//   4. Groups → chart-kind-specific Series
//
// Pure and re-entrant: no I/O, no state shared between calls.
// ============================================================================

// Aggregate turns a row view into a chart-ready Series.
//
// Returns ErrNoData when nothing applicable was found, and an error wrapping
// ErrInvalidDescriptor for an unknown kind or domain.
func Aggregate(desc Descriptor, view RowView, catalog schema.Catalog, opts ...Option) (*Series, error) {
	cfg := applyOptions(opts)

	if desc.Kind == "" {
		desc.Kind = KindBar
	}
	if !desc.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidDescriptor, desc.Kind)
	}
	if _, ok := catalog.Domain(desc.Domain); !ok {
		return nil, fmt.Errorf("%w: unknown domain %q", ErrInvalidDescriptor, desc.Domain)
	}
	if view == nil || view.Len() == 0 {
		return nil, ErrNoData
	}

	log := cfg.Logger.With(
		zap.String("domain", desc.Domain),
		zap.String("kind", string(desc.Kind)),
	)
	log.Debug("aggregating rows",
		zap.Int("rows", view.Len()),
		zap.Int("columns", len(view.Keys())),
		zap.Strings("implied", catalog.Implied(desc.Domain)),
	)

	if desc.Kind == KindTable {
		table := BuildTable(desc.Domain, view, cfg.TableLimit)
		if len(table.Rows) == 0 {
			return nil, ErrNoData
		}
		return &Series{Kind: KindTable, Title: desc.Title, Table: table}, nil
	}

	ctx := &aggContext{
		desc:    desc,
		view:    view,
		keys:    view.Keys(),
		res:     NewResolver(catalog, cfg.Location),
		catalog: catalog,
		cfg:     cfg,
	}
	g := groupRows(ctx)

	series := buildChart(desc, g, cfg.Palette)
	if series == nil {
		log.Debug("no groups produced", zap.String("strategy", g.strategy))
		return nil, ErrNoData
	}

	log.Debug("aggregation complete",
		zap.String("strategy", g.strategy),
		zap.Int("groups", len(g.groups)),
		zap.Int("datasets", len(series.Datasets)),
	)
	return series, nil
}

// AggregateRows is Aggregate over a plain row slice.
func AggregateRows(desc Descriptor, rows []Row, catalog schema.Catalog, opts ...Option) (*Series, error) {
	return Aggregate(desc, NewSliceView(rows), catalog, opts...)
}
