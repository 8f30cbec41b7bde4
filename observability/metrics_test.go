package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveAggregation("payments", "bar")
	m.ObserveAggregation("payments", "bar")
	m.ObserveAggregation("equipment", "line")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.aggregations.WithLabelValues("payments", "bar")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregations.WithLabelValues("equipment", "line")))

	m.ObserveNoData("returns", "pie")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.noData.WithLabelValues("returns", "pie")))

	m.ObserveFetchError("timeout")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchErrors.WithLabelValues("timeout")))

	m.ObserveFetch(0.02)
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"rentalcharts_aggregations_total",
		"rentalcharts_no_data_total",
		"rentalcharts_fetch_errors_total",
		"rentalcharts_fetch_duration_seconds",
	}, names)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAggregation("payments", "bar")
		m.ObserveNoData("payments", "bar")
		m.ObserveFetchError("upstream")
		m.ObserveFetch(1)
	})
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
