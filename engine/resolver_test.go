package engine

import (
	"testing"
	"time"

	"github.com/spektr-org/rentalcharts/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveKey(t *testing.T, catalog schema.Catalog, row Row, domain string, role schema.Role) (string, bool) {
	t.Helper()
	view := NewSliceView([]Row{row})
	return NewResolver(catalog, time.UTC).Resolve(view.Keys(), row, domain, role)
}

func TestResolve_DeclaredFieldWins(t *testing.T) {
	row := Row{
		"rentals_end_date":   "2024-01-05",
		"rentals_start_date": "2024-01-02",
	}
	key, ok := resolveKey(t, schema.DefaultCatalog(), row, schema.Rentals, schema.RoleDate)
	require.True(t, ok)
	assert.Equal(t, "rentals_start_date", key)
}

func TestResolve_HeuristicPrefixedToken(t *testing.T) {
	catalog := schema.MustCatalog(schema.Domain{ID: "widgets", Fields: []string{"b_name", "a_name"}})
	row := Row{
		"widgets_b_name": "beta",
		"widgets_a_name": "alpha",
	}
	key, ok := resolveKey(t, catalog, row, "widgets", schema.RoleName)
	require.True(t, ok)
	assert.Equal(t, "widgets_a_name", key, "ties break on sorted key order")
}

func TestResolve_UnprefixedAliasFallback(t *testing.T) {
	row := Row{"client_name": "Acme", "amount": "12.50"}

	key, ok := resolveKey(t, schema.DefaultCatalog(), row, schema.Clients, schema.RoleName)
	require.True(t, ok)
	assert.Equal(t, "client_name", key)

	key, ok = resolveKey(t, schema.DefaultCatalog(), row, schema.Payments, schema.RoleAmount)
	require.True(t, ok)
	assert.Equal(t, "amount", key)
}

func TestResolve_ShapeMismatchSkipsCandidate(t *testing.T) {
	row := Row{
		"clients_name":      42.0,
		"clients_full_name": "Jane Doe",
	}
	key, ok := resolveKey(t, schema.DefaultCatalog(), row, schema.Clients, schema.RoleName)
	require.True(t, ok)
	assert.Equal(t, "clients_full_name", key)
}

func TestResolve_AmountRejectsNonNumeric(t *testing.T) {
	row := Row{"payments_amount": "n/a"}
	_, ok := resolveKey(t, schema.DefaultCatalog(), row, schema.Payments, schema.RoleAmount)
	assert.False(t, ok)
}

func TestResolve_NameIgnoresIdentifierColumns(t *testing.T) {
	row := Row{"clients_name_id": "c-1"}
	_, ok := resolveKey(t, schema.DefaultCatalog(), row, schema.Clients, schema.RoleName)
	assert.False(t, ok)
}

func TestResolve_CategoryExcludesIDsAndTimestamps(t *testing.T) {
	row := Row{
		"rentals_client_id":  "c-9",
		"rentals_created_at": "2024-01-01",
		"rentals_status":     "active",
	}
	key, ok := resolveKey(t, schema.DefaultCatalog(), row, schema.Rentals, schema.RoleCategory)
	require.True(t, ok)
	assert.Equal(t, "rentals_status", key)
}

func TestResolve_MissIsNotAnError(t *testing.T) {
	key, ok := resolveKey(t, schema.DefaultCatalog(), Row{"x": 1}, schema.Payments, schema.RoleDate)
	assert.False(t, ok)
	assert.Empty(t, key)

	_, ok = NewResolver(schema.DefaultCatalog(), nil).Resolve(nil, nil, schema.Payments, schema.RoleDate)
	assert.False(t, ok)
}

func TestJoinHit(t *testing.T) {
	res := NewResolver(schema.DefaultCatalog(), time.UTC)
	keys := []string{"equipment_name", "rentals_id", "rentals_joined"}

	assert.True(t, res.JoinHit(keys, Row{"equipment_name": "Drill", "rentals_id": 1}, schema.Rentals))
	assert.False(t, res.JoinHit(keys, Row{"equipment_name": "Drill", "rentals_id": nil}, schema.Rentals))
	assert.False(t, res.JoinHit(keys, Row{"rentals_id": 1, "rentals_joined": false}, schema.Rentals),
		"explicit flag wins over column presence")
	assert.True(t, res.JoinHit(keys, Row{"rentals_joined": "true"}, schema.Rentals))
}
