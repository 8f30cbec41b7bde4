// Package observability holds the Prometheus metrics of the reporting core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records aggregation and fetch outcomes. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	aggregations  *prometheus.CounterVec
	noData        *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalcharts_aggregations_total",
			Help: "Series successfully produced, by domain and chart kind.",
		}, []string{"domain", "kind"}),
		noData: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalcharts_no_data_total",
			Help: "Aggregations that found no applicable data.",
		}, []string{"domain", "kind"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalcharts_fetch_errors_total",
			Help: "Row fetches that failed, by reason.",
		}, []string{"reason"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentalcharts_fetch_duration_seconds",
			Help:    "Time spent fetching rows from the data source.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.aggregations, m.noData, m.fetchErrors, m.fetchDuration)
	}
	return m
}

func (m *Metrics) ObserveAggregation(domain, kind string) {
	if m == nil {
		return
	}
	m.aggregations.WithLabelValues(domain, kind).Inc()
}

func (m *Metrics) ObserveNoData(domain, kind string) {
	if m == nil {
		return
	}
	m.noData.WithLabelValues(domain, kind).Inc()
}

func (m *Metrics) ObserveFetchError(reason string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveFetch(seconds float64) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(seconds)
}
