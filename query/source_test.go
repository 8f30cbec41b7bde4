package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spektr-org/rentalcharts/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRows() []engine.Row {
	return []engine.Row{
		{"payments_amount": 100.0, "payments_payment_type": "cash", "payments_payment_date": "2024-01-05", "clients_name": "Acme"},
		{"payments_amount": "40", "payments_payment_type": "card", "payments_payment_date": "2024-02-10", "clients_name": "Bolt"},
		{"payments_amount": 15, "payments_payment_type": "Cash", "payments_payment_date": "2024-03-01", "clients_name": "Acme Rentals"},
		{"payments_amount": nil, "payments_payment_type": nil, "payments_payment_date": nil, "clients_name": "Ghost"},
	}
}

func names(rows []engine.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["clients_name"].(string))
	}
	return out
}

// ============================================================================
// FILTERS
// ============================================================================

func TestFilterRows(t *testing.T) {
	tests := []struct {
		name    string
		filters []engine.Filter
		want    []string
	}{
		{"none", nil, []string{"Acme", "Bolt", "Acme Rentals", "Ghost"}},
		{"eq case-insensitive", []engine.Filter{{Field: "payments_payment_type", Operator: OpEq, Value: "CASH"}}, []string{"Acme", "Acme Rentals"}},
		{"empty operator is eq", []engine.Filter{{Field: "payments_payment_type", Value: "card"}}, []string{"Bolt"}},
		{"unprefixed field", []engine.Filter{{Field: "payment_type", Operator: OpEq, Value: "card"}}, []string{"Bolt"}},
		{"numeric gt", []engine.Filter{{Field: "payments_amount", Operator: OpGt, Value: "20"}}, []string{"Acme", "Bolt"}},
		{"numeric lte", []engine.Filter{{Field: "amount", Operator: OpLte, Value: "40"}}, []string{"Bolt", "Acme Rentals"}},
		{"date gte", []engine.Filter{{Field: "payment_date", Operator: OpGte, Value: "Feb 1, 2024"}}, []string{"Bolt", "Acme Rentals"}},
		{"contains", []engine.Filter{{Field: "clients_name", Operator: OpContains, Value: "acme"}}, []string{"Acme", "Acme Rentals"}},
		{"neq keeps nil", []engine.Filter{{Field: "payment_type", Operator: OpNeq, Value: "cash"}}, []string{"Bolt", "Ghost"}},
		{"and-combined", []engine.Filter{
			{Field: "payment_type", Operator: OpEq, Value: "cash"},
			{Field: "amount", Operator: OpLt, Value: "50"},
		}, []string{"Acme Rentals"}},
		{"missing column", []engine.Filter{{Field: "nope", Value: "x"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := FilterRows(paymentRows(), "payments", tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(rows))
		})
	}
}

func TestFilterRows_InvalidOperator(t *testing.T) {
	_, err := FilterRows(paymentRows(), "payments", []engine.Filter{{Field: "amount", Operator: "like", Value: "1"}})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

// ============================================================================
// MEMORY SOURCE
// ============================================================================

func TestMemorySource(t *testing.T) {
	src := NewMemorySource()
	src.Set("payments", paymentRows())

	rows, err := src.Fetch(context.Background(), Request{Domain: "payments", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Bolt"}, names(rows))

	rows, err = src.Fetch(context.Background(), Request{
		Domain:  "payments",
		Filters: []engine.Filter{{Field: "payment_type", Value: "cash"}},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = src.Fetch(context.Background(), Request{Domain: "returns"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, Request{Domain: "payments"})
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// TIMEOUT RACE
// ============================================================================

func TestFetchWithTimeout_SourceWins(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, req Request) ([]engine.Row, error) {
		return []engine.Row{{"x": 1}}, nil
	})
	rows, err := FetchWithTimeout(context.Background(), src, Request{Domain: "payments"}, time.Second)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFetchWithTimeout_TimeoutWins(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// Ignores ctx on purpose: the race must still return.
	src := SourceFunc(func(ctx context.Context, req Request) ([]engine.Row, error) {
		<-release
		return nil, nil
	})

	start := time.Now()
	_, err := FetchWithTimeout(context.Background(), src, Request{Domain: "payments"}, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchWithTimeout_ContextAwareSource(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, req Request) ([]engine.Row, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := FetchWithTimeout(context.Background(), src, Request{}, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFetchWithTimeout_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	src := SourceFunc(func(ctx context.Context, req Request) ([]engine.Row, error) {
		return nil, boom
	})
	_, err := FetchWithTimeout(context.Background(), src, Request{}, time.Second)
	assert.ErrorIs(t, err, boom)

	_, err = FetchWithTimeout(context.Background(), src, Request{}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestRequestWithID(t *testing.T) {
	req := Request{Domain: "payments"}.WithID()
	assert.Len(t, req.ID, 36)

	same := req.WithID()
	assert.Equal(t, req.ID, same.ID)
}
