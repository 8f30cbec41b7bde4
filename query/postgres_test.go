package query

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spektr-org/rentalcharts/engine"
	"github.com/spektr-org/rentalcharts/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var shopCatalog = schema.MustCatalog(
	schema.Domain{
		ID:     "orders",
		Fields: []string{"id", "customer_id", "total"},
		Relations: []schema.Relation{
			{Domain: "customers", LocalField: "customer_id", ForeignField: "id"},
		},
	},
	schema.Domain{ID: "customers", Fields: []string{"id", "name"}},
	schema.Domain{ID: "warehouses", Fields: []string{"code"}},
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresSource) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	src := NewPostgresSource(db, schema.DefaultCatalog(), zap.NewNop())
	return db, mock, src
}

func TestBuildQuery_JoinsFiltersAndLimit(t *testing.T) {
	query, args, err := BuildQuery(shopCatalog, Request{
		Domain: "orders",
		Filters: []engine.Filter{
			{Field: "customers_name", Operator: OpContains, Value: "ac"},
			{Field: "total", Operator: OpGte, Value: "10"},
		},
		Limit: 5,
	})
	require.NoError(t, err)

	want := `SELECT "orders"."id" AS "orders_id", "orders"."customer_id" AS "orders_customer_id", ` +
		`"orders"."total" AS "orders_total", "customers"."id" AS "customers_id", ` +
		`"customers"."name" AS "customers_name", ("customers"."id" IS NOT NULL) AS "customers_joined" ` +
		`FROM "orders" LEFT JOIN "customers" ON "customers"."id" = "orders"."customer_id" ` +
		`WHERE CAST("customers"."name" AS TEXT) ILIKE $1 AND "orders"."total" >= $2 ` +
		`ORDER BY "orders"."id" LIMIT $3`
	assert.Equal(t, want, query)
	assert.Equal(t, []any{"%ac%", "10", 5}, args)
}

func TestBuildQuery_ReverseRelation(t *testing.T) {
	query, args, err := BuildQuery(shopCatalog, Request{Domain: "customers", Related: []string{"orders"}})
	require.NoError(t, err)
	assert.Contains(t, query, `LEFT JOIN "orders" ON "orders"."customer_id" = "customers"."id"`)
	assert.Empty(t, args)
}

func TestBuildQuery_NoRelatedDomains(t *testing.T) {
	query, _, err := BuildQuery(shopCatalog, Request{Domain: "warehouses"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "warehouses"."code" AS "warehouses_code" FROM "warehouses"`, query)
}

func TestBuildQuery_EmptyRelatedSkipsJoins(t *testing.T) {
	implied, _, err := BuildQuery(shopCatalog, Request{Domain: "orders"})
	require.NoError(t, err)
	assert.Contains(t, implied, "LEFT JOIN")

	query, _, err := BuildQuery(shopCatalog, Request{Domain: "orders", Related: []string{}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "orders"."id" AS "orders_id", "orders"."customer_id" AS "orders_customer_id", `+
		`"orders"."total" AS "orders_total" FROM "orders" ORDER BY "orders"."id"`, query)
}

func TestBuildQuery_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown domain", Request{Domain: "invoices"}, ErrUnknownField},
		{"unknown related", Request{Domain: "orders", Related: []string{"invoices"}}, ErrUnknownField},
		{"unrelated domain", Request{Domain: "orders", Related: []string{"warehouses"}}, ErrUnknownField},
		{"undeclared field", Request{Domain: "orders", Filters: []engine.Filter{{Field: "total; DROP TABLE orders", Value: "1"}}}, ErrUnknownField},
		{"field of unjoined domain", Request{Domain: "orders", Related: []string{}, Filters: []engine.Filter{{Field: "customers_name", Value: "x"}}}, ErrUnknownField},
		{"bad operator", Request{Domain: "orders", Filters: []engine.Filter{{Field: "total", Operator: "like", Value: "1"}}}, ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildQuery(shopCatalog, tt.req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestPostgresSource_Fetch(t *testing.T) {
	db, mock, src := setupMockDB(t)
	defer db.Close()

	paidAt := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"payments_amount", "payments_payment_date", "clients_name", "clients_joined"}).
		AddRow([]byte("100.50"), paidAt, []byte("Acme"), true).
		AddRow([]byte("20"), paidAt, nil, false)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "payments" LEFT JOIN "clients" ON "clients"."id" = "payments"."client_id" WHERE "payments"."payment_type" = $1`)).
		WithArgs("cash").
		WillReturnRows(rows)

	got, err := src.Fetch(context.Background(), Request{
		ID:      "req-1",
		Domain:  schema.Payments,
		Related: []string{schema.Clients},
		Filters: []engine.Filter{{Field: "payment_type", Value: "cash"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "100.50", got[0]["payments_amount"])
	assert.Equal(t, "2024-03-10T09:30:00Z", got[0]["payments_payment_date"])
	assert.Equal(t, "Acme", got[0]["clients_name"])
	assert.Equal(t, true, got[0]["clients_joined"])
	assert.Nil(t, got[1]["clients_name"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, src := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(sql.ErrConnDone)

	_, err := src.Fetch(context.Background(), Request{Domain: schema.Equipment})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_InvalidRequestNeverQueries(t *testing.T) {
	db, mock, src := setupMockDB(t)
	defer db.Close()

	_, err := src.Fetch(context.Background(), Request{Domain: "invoices"})
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.NoError(t, mock.ExpectationsWereMet())
}
