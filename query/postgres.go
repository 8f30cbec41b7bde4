package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/spektr-org/rentalcharts/engine"
	"github.com/spektr-org/rentalcharts/schema"
	"go.uber.org/zap"
)

// ============================================================================
// POSTGRES SOURCE — Joined rows straight from the rental database
// ============================================================================
// One table per domain, named after the domain id. The primary domain is
// LEFT JOINed with each related domain along the catalog's relations and
// every column is aliased "<domain>_<field>". Each joined domain with an id
// column also gets a "<domain>_joined" flag so join misses are explicit.
//
// Filter fields are checked against the catalog before they reach SQL;
// values are always bound parameters.
// ============================================================================

// OpenPostgres opens and pings a connection pool.
func OpenPostgres(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// PostgresSource reads joined rows through database/sql.
type PostgresSource struct {
	db      *sql.DB
	catalog schema.Catalog
	logger  *zap.Logger
}

// NewPostgresSource creates a source over an open pool.
func NewPostgresSource(db *sql.DB, catalog schema.Catalog, logger *zap.Logger) *PostgresSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresSource{db: db, catalog: catalog, logger: logger}
}

// Fetch runs the joined query for req.
func (s *PostgresSource) Fetch(ctx context.Context, req Request) ([]engine.Row, error) {
	query, args, err := BuildQuery(s.catalog, req)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("running joined query",
		zap.String("request_id", req.ID),
		zap.String("domain", req.Domain),
		zap.Int("args", len(args)),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", req.Domain, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []engine.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", req.Domain, err)
		}

		row := make(engine.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeCell(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", req.Domain, err)
	}
	return out, nil
}

// normalizeCell maps driver values onto the row value shapes.
func normalizeCell(v any) any {
	switch t := v.(type) {
	case []byte:
		// NUMERIC and TEXT arrive as bytes.
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}
	return v
}

// ============================================================================
// SQL BUILDER
// ============================================================================

var sqlOperators = map[string]string{
	"":    "=",
	OpEq:  "=",
	OpNeq: "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// BuildQuery renders the joined SELECT for req and its bind arguments.
// A nil Related joins the domains the catalog implies for req.Domain; an
// empty one selects the primary table alone.
func BuildQuery(catalog schema.Catalog, req Request) (string, []any, error) {
	primary, ok := catalog.Domain(req.Domain)
	if !ok {
		return "", nil, fmt.Errorf("%w: domain %q", ErrUnknownField, req.Domain)
	}
	related := req.Related
	if related == nil {
		related = catalog.Implied(req.Domain)
	}

	joined := []schema.Domain{primary}
	var joins []string
	for _, id := range related {
		d, ok := catalog.Domain(id)
		if !ok {
			return "", nil, fmt.Errorf("%w: domain %q", ErrUnknownField, id)
		}
		on, ok := joinCondition(primary, d)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s has no relation to %s", ErrUnknownField, req.Domain, id)
		}
		joins = append(joins, fmt.Sprintf("LEFT JOIN %s ON %s", pq.QuoteIdentifier(d.ID), on))
		joined = append(joined, d)
	}

	var selects []string
	for i, d := range joined {
		for _, f := range d.Fields {
			selects = append(selects, fmt.Sprintf("%s AS %s", column(d.ID, f), pq.QuoteIdentifier(d.Column(f))))
		}
		if i > 0 && d.HasField("id") {
			selects = append(selects, fmt.Sprintf("(%s IS NOT NULL) AS %s", column(d.ID, "id"), pq.QuoteIdentifier(d.Column("joined"))))
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selects, ", "))
	b.WriteString(" FROM ")
	b.WriteString(pq.QuoteIdentifier(primary.ID))
	for _, j := range joins {
		b.WriteString(" ")
		b.WriteString(j)
	}

	var args []any
	var where []string
	for _, f := range req.Filters {
		col, err := filterTarget(catalog, joined, f.Field)
		if err != nil {
			return "", nil, err
		}
		if f.Operator == OpContains {
			args = append(args, "%"+f.Value+"%")
			where = append(where, fmt.Sprintf("CAST(%s AS TEXT) ILIKE $%d", col, len(args)))
			continue
		}
		op, ok := sqlOperators[f.Operator]
		if !ok {
			return "", nil, fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Operator)
		}
		args = append(args, f.Value)
		where = append(where, fmt.Sprintf("%s %s $%d", col, op, len(args)))
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	if primary.HasField("id") {
		b.WriteString(" ORDER BY ")
		b.WriteString(column(primary.ID, "id"))
	}
	if req.Limit > 0 {
		args = append(args, req.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args, nil
}

// joinCondition finds the relation between primary and other in either direction.
func joinCondition(primary, other schema.Domain) (string, bool) {
	for _, rel := range primary.Relations {
		if rel.Domain == other.ID {
			return fmt.Sprintf("%s = %s", column(other.ID, rel.ForeignField), column(primary.ID, rel.LocalField)), true
		}
	}
	for _, rel := range other.Relations {
		if rel.Domain == primary.ID {
			return fmt.Sprintf("%s = %s", column(other.ID, rel.LocalField), column(primary.ID, rel.ForeignField)), true
		}
	}
	return "", false
}

// filterTarget maps a filter field onto a quoted column of a joined domain.
func filterTarget(catalog schema.Catalog, joined []schema.Domain, field string) (string, error) {
	if id, f, ok := catalog.SplitKey(field); ok {
		for _, d := range joined {
			if d.ID == id && d.HasField(f) {
				return column(d.ID, f), nil
			}
		}
	}
	if primary := joined[0]; primary.HasField(field) {
		return column(primary.ID, field), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
}

func column(table, field string) string {
	return pq.QuoteIdentifier(table) + "." + pq.QuoteIdentifier(field)
}
