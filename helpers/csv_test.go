package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentsCSV = []byte("\ufeffpayments_amount,Payment Date,clients_name,Phone,notes\n" +
	"100.50,2024-03-10,Acme,0712345678,\n" +
	"bad\"quote,2024-03-10,X,1,\n" +
	"\"1,200\",2024-03-11,Bolt Hire,+254 700,late\n")

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(paymentsCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 100.5, first["payments_amount"])
	assert.Equal(t, "2024-03-10", first["payment_date"])
	assert.Equal(t, "Acme", first["clients_name"])
	assert.Equal(t, "0712345678", first["phone"], "leading zeros stay text")
	assert.Nil(t, first["notes"])

	second := rows[1]
	assert.Equal(t, 1200.0, second["payments_amount"])
	assert.Equal(t, "+254 700", second["phone"])
	assert.Equal(t, "late", second["notes"])
}

func TestParseCSV_ShortRows(t *testing.T) {
	rows, err := ParseCSV([]byte("a,b,c\n1,x\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0]["a"])
	assert.Equal(t, "x", rows[0]["b"])
	assert.Contains(t, rows[0], "c")
	assert.Nil(t, rows[0]["c"])
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(nil)
	assert.Error(t, err)
}

func TestParseCSVView(t *testing.T) {
	view, err := ParseCSVView(paymentsCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Len())
	assert.Equal(t, []string{"clients_name", "notes", "payment_date", "payments_amount", "phone"}, view.Keys())
}
