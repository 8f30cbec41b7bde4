package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/rentalcharts/engine"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ============================================================================
// PNG — Server-side rendering of chart series
// ============================================================================
// bar  → BarChart, first dataset
// pie  → PieChart, slice colors from the dataset
// line → Chart with one ContinuousSeries per dataset on an index x-axis
//        labelled with the series labels
// Tables have no picture.
// ============================================================================

// Image size used by WritePNG.
const (
	PNGWidth  = 1024
	PNGHeight = 512
)

// WritePNG renders series as a PNG image.
func WritePNG(w io.Writer, series *engine.Series) error {
	if series == nil {
		return engine.ErrNoData
	}
	if series.Kind == engine.KindTable || series.Table != nil {
		return fmt.Errorf("%w: tables cannot be rendered as png", ErrUnsupportedFormat)
	}
	if len(series.Datasets) == 0 || len(series.Labels) == 0 {
		return engine.ErrNoData
	}

	var err error
	switch series.Kind {
	case engine.KindPie:
		err = renderPie(w, series)
	case engine.KindLine:
		err = renderLine(w, series)
	default:
		err = renderBar(w, series)
	}
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func renderBar(w io.Writer, series *engine.Series) error {
	ds := series.Datasets[0]
	bars := make([]chart.Value, 0, len(series.Labels))
	for i, label := range series.Labels {
		v := chart.Value{Label: label, Value: valueAt(ds.Data, i)}
		if c, ok := colorAt(ds.BackgroundColor, i); ok {
			v.Style = chart.Style{FillColor: c, StrokeColor: c}
		}
		bars = append(bars, v)
	}

	bw := barWidth(len(bars))
	bc := chart.BarChart{
		Title:      series.Title,
		Width:      PNGWidth,
		Height:     PNGHeight,
		BarWidth:   bw,
		BarSpacing: bw / 2,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{Range: valueRange(ds.Data)},
		Bars:  bars,
	}
	return bc.Render(chart.PNG, w)
}

func renderPie(w io.Writer, series *engine.Series) error {
	ds := series.Datasets[0]
	values := make([]chart.Value, 0, len(series.Labels))
	var total float64
	for i, label := range series.Labels {
		v := chart.Value{Label: label, Value: valueAt(ds.Data, i)}
		if v.Value <= 0 {
			continue
		}
		if c, ok := colorAt(ds.BackgroundColor, i); ok {
			v.Style = chart.Style{FillColor: c}
		}
		total += v.Value
		values = append(values, v)
	}
	if total <= 0 {
		return engine.ErrNoData
	}

	pc := chart.PieChart{
		Title:  series.Title,
		Width:  PNGHeight,
		Height: PNGHeight,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

func renderLine(w io.Writer, series *engine.Series) error {
	n := len(series.Labels)
	xs := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i, label := range series.Labels {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: label}
	}

	var all []float64
	lines := make([]chart.Series, 0, len(series.Datasets))
	for _, ds := range series.Datasets {
		ys := make([]float64, n)
		for i := range ys {
			ys[i] = valueAt(ds.Data, i)
		}
		all = append(all, ys...)

		x := xs
		// A single point has no x-range; stretch it to a flat segment.
		if n == 1 {
			x = []float64{0, 1}
			ys = []float64{ys[0], ys[0]}
		}
		style := chart.Style{StrokeWidth: 2}
		if c, ok := parseColor(ds.BorderColor); ok {
			style.StrokeColor = c
			if ds.Fill {
				style.FillColor = c.WithAlpha(64)
			}
		}
		lines = append(lines, chart.ContinuousSeries{
			Name:    ds.Label,
			XValues: x,
			YValues: ys,
			Style:   style,
		})
	}

	ch := chart.Chart{
		Title:  series.Title,
		Width:  PNGWidth,
		Height: PNGHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16},
		},
		XAxis:  chart.XAxis{Ticks: ticks},
		YAxis:  chart.YAxis{Range: valueRange(all)},
		Series: lines,
	}
	if len(lines) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, w)
}

func valueAt(data []float64, i int) float64 {
	if i < len(data) {
		return data[i]
	}
	return 0
}

// valueRange spans zero and every value; a flat series still gets a
// non-empty range.
func valueRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func barWidth(n int) int {
	if n == 0 {
		return 50
	}
	w := (PNGWidth - 200) / n * 2 / 3
	switch {
	case w < 10:
		return 10
	case w > 80:
		return 80
	}
	return w
}

func colorAt(colors []string, i int) (drawing.Color, bool) {
	if len(colors) == 0 {
		return drawing.Color{}, false
	}
	return parseColor(colors[i%len(colors)])
}

func parseColor(hex string) (drawing.Color, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 3 {
		return drawing.Color{}, false
	}
	return drawing.ColorFromHex(hex), true
}
