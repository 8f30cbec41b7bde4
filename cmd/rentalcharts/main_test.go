package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spektr-org/rentalcharts/config"
	"github.com/spektr-org/rentalcharts/engine"
	"github.com/spektr-org/rentalcharts/export"
	"github.com/spektr-org/rentalcharts/query"
	"github.com/spektr-org/rentalcharts/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadPanels(t *testing.T) {
	path := writeFile(t, "panels.yaml", `
panels:
  - kind: bar
    domain: payments
    title: Revenue by client
  - kind: line
    domain: equipment
    filters:
      - field: equipment_category
        operator: eq
        value: power
`)
	descs, err := loadPanels(path)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, engine.Descriptor{Kind: engine.KindBar, Domain: schema.Payments, Title: "Revenue by client"}, descs[0])
	assert.Equal(t, []engine.Filter{{Field: "equipment_category", Operator: "eq", Value: "power"}}, descs[1].Filters)

	_, err = loadPanels(writeFile(t, "empty.yaml", "panels: []\n"))
	assert.Error(t, err)
}

func TestOpenSource_File(t *testing.T) {
	path := writeFile(t, "payments.csv", "Amount,Client Name\n100,A\n30,B\n")
	cfg := config.Default()

	src, closeSource, err := openSource(context.Background(), cfg, schema.DefaultCatalog(), path, schema.Payments, zap.NewNop())
	require.NoError(t, err)
	defer closeSource()

	rows, err := src.Fetch(context.Background(), query.Request{Domain: schema.Payments})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[0]["amount"])
	assert.Equal(t, "A", rows[0]["client_name"])
}

func TestOpenSource_MemoryNeedsFile(t *testing.T) {
	_, _, err := openSource(context.Background(), config.Default(), schema.DefaultCatalog(), "", schema.Payments, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenSource_HTTP(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Driver = config.DriverHTTP
	cfg.Source.HTTP.BaseURL = "http://127.0.0.1:1"

	src, closeSource, err := openSource(context.Background(), cfg, schema.DefaultCatalog(), "", schema.Payments, zap.NewNop())
	require.NoError(t, err)
	defer closeSource()
	assert.IsType(t, &query.HTTPSource{}, src)
}

func TestRun_ChartToFile(t *testing.T) {
	in := writeFile(t, "payments.csv", "Amount,Client Name\n100,A\n30,B\n")
	out := filepath.Join(t.TempDir(), "revenue.csv")

	var stdout bytes.Buffer
	err := run(options{
		filePath: in,
		domain:   schema.Payments,
		kind:     string(engine.KindBar),
		title:    "Revenue",
		format:   export.FormatCSV,
		outFile:  out,
	}, &stdout, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Zero(t, stdout.Len())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Label,Revenue\nA,100\nB,30\n", string(got))
}

func TestRun_Quote(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(options{quote: "2024-05-01,2024-05-02,10,2"}, &stdout, prometheus.NewRegistry()))
	assert.Equal(t, "960.00\n", stdout.String())
}

func TestRun_ReturnsErrors(t *testing.T) {
	var stdout bytes.Buffer
	err := run(options{quote: "2024-05-01"}, &stdout, prometheus.NewRegistry())
	assert.ErrorContains(t, err, "--quote expects")

	err = run(options{domain: schema.Payments, kind: "bar", format: export.FormatJSON}, &stdout, prometheus.NewRegistry())
	assert.ErrorContains(t, err, "failed to open source")
	assert.Zero(t, stdout.Len())
}
