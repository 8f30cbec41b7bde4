package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spektr-org/rentalcharts/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func barSeries() *engine.Series {
	return &engine.Series{
		Kind:   engine.KindBar,
		Title:  "Revenue",
		Labels: []string{"Acme", "Bolt"},
		Datasets: []engine.Dataset{
			{Label: "Revenue", Data: []float64{150, 30.5}},
		},
	}
}

func lineSeries() *engine.Series {
	return &engine.Series{
		Kind:   engine.KindLine,
		Title:  "Equipment revenue",
		Labels: []string{"2024-01-01", "2024-01-02"},
		Datasets: []engine.Dataset{
			{Label: "Drill", Data: []float64{50, 125}},
			{Label: "Saw", Data: []float64{0}},
		},
	}
}

func tableSeries() *engine.Series {
	return &engine.Series{
		Kind: engine.KindTable,
		Table: &engine.TableData{
			Columns: []string{"payments_amount", "payments_notes"},
			Rows: []engine.Row{
				{"payments_amount": 100.0, "payments_notes": "first, deposit"},
				{"payments_amount": "20", "payments_notes": nil},
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name   string
		series *engine.Series
		want   string
	}{
		{"single series", barSeries(), "Label,Revenue\nAcme,150\nBolt,30.50\n"},
		{"multi series", lineSeries(), "Label,Drill,Saw\n2024-01-01,50,0\n2024-01-02,125,\n"},
		{"table", tableSeries(), "payments_amount,payments_notes\n100,\"first, deposit\"\n20,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, tt.series))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteCSV_NoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, nil), engine.ErrNoData)
	assert.ErrorIs(t, WriteCSV(&buf, &engine.Series{Kind: engine.KindBar}), engine.ErrNoData)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, lineSeries()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Equipment revenue"}, f.GetSheetList())
	rows, err := f.GetRows("Equipment revenue")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Label", "Drill", "Saw"}, rows[0])
	assert.Equal(t, []string{"2024-01-01", "50", "0"}, rows[1])
	assert.Equal(t, []string{"2024-01-02", "125"}, rows[2])
}

func TestWriteXLSX_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, tableSeries()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, []string{"payments_amount", "payments_notes"}, rows[0])
	assert.Equal(t, []string{"100", "first, deposit"}, rows[1])
}

func TestWriteJSON(t *testing.T) {
	var compact, pretty bytes.Buffer
	require.NoError(t, Write(&compact, barSeries(), FormatJSON))
	require.NoError(t, Write(&pretty, barSeries(), FormatPretty))

	assert.Equal(t, 1, strings.Count(compact.String(), "\n"))
	assert.Greater(t, strings.Count(pretty.String(), "\n"), 1)

	var decoded engine.Series
	require.NoError(t, json.Unmarshal(compact.Bytes(), &decoded))
	assert.Equal(t, *barSeries(), decoded)
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, barSeries(), "pdf"), ErrUnsupportedFormat)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Revenue - Client", SheetName("Revenue / Client"))
	assert.Equal(t, DefaultSheetName, SheetName("  "))
	assert.Len(t, []rune(SheetName(strings.Repeat("x", 50))), 31)
}

func TestWritePNG(t *testing.T) {
	single := &engine.Series{
		Kind:     engine.KindLine,
		Title:    "Payments",
		Labels:   []string{"2024-01-01"},
		Datasets: []engine.Dataset{{Label: "Amount", Data: []float64{50}, BorderColor: "#4F46E5", Fill: true}},
	}
	pie := &engine.Series{
		Kind:   engine.KindPie,
		Labels: []string{"Drill", "Saw"},
		Datasets: []engine.Dataset{
			{Label: "Rentals", Data: []float64{3, 1}, BackgroundColor: []string{"#4F46E5", "#10B981"}},
		},
	}

	for name, series := range map[string]*engine.Series{
		"bar":         barSeries(),
		"multi line":  lineSeries(),
		"single line": single,
		"pie":         pie,
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, series, FormatPNG))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
		})
	}
}

func TestWritePNG_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WritePNG(&buf, tableSeries()), ErrUnsupportedFormat)
	assert.ErrorIs(t, WritePNG(&buf, nil), engine.ErrNoData)

	zeroPie := &engine.Series{
		Kind:     engine.KindPie,
		Labels:   []string{"A"},
		Datasets: []engine.Dataset{{Data: []float64{0}}},
	}
	assert.ErrorIs(t, WritePNG(&buf, zeroPie), engine.ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestValueRange(t *testing.T) {
	r := valueRange([]float64{0, 0})
	assert.Equal(t, 0.0, r.Min)
	assert.Equal(t, 1.0, r.Max)

	r = valueRange([]float64{-5, 20})
	assert.Equal(t, -5.0, r.Min)
	assert.Equal(t, 20.0, r.Max)
}
