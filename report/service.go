// Package report joins a row Source to the aggregation engine: one call per
// chart, stat tile or dashboard.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spektr-org/rentalcharts/engine"
	"github.com/spektr-org/rentalcharts/observability"
	"github.com/spektr-org/rentalcharts/query"
	"github.com/spektr-org/rentalcharts/schema"
	"go.uber.org/zap"
)

// ============================================================================
// SERVICE — Fetch → aggregate, with timeouts, logging and metrics
// ============================================================================
// Chart:     descriptor → request (primary + implied domains) → rows → Series
// Summary:   domain → rows → count / total tile
// Dashboard: descriptors → panels fetched in parallel (dashboard.go)
// ============================================================================

// Default timeouts and dashboard fan-out.
const (
	DefaultFetchTimeout     = 5 * time.Second
	DefaultDashboardTimeout = 10 * time.Second
	DefaultConcurrency      = 4
)

// Fetch error reasons recorded in metrics.
const (
	ReasonTimeout  = "timeout"
	ReasonCanceled = "canceled"
	ReasonInvalid  = "invalid"
	ReasonUpstream = "upstream"
)

// Options tunes a Service. Zero values take the defaults above.
type Options struct {
	FetchTimeout     time.Duration
	DashboardTimeout time.Duration
	Concurrency      int
	Engine           []engine.Option
}

type Service struct {
	source  query.Source
	catalog schema.Catalog
	logger  *zap.Logger
	metrics *observability.Metrics
	opts    Options
}

// NewService creates a Service. logger and metrics may be nil.
func NewService(source query.Source, catalog schema.Catalog, logger *zap.Logger, metrics *observability.Metrics, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.DashboardTimeout == 0 {
		opts.DashboardTimeout = DefaultDashboardTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Service{
		source:  source,
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// Chart fetches the rows desc needs and aggregates them.
//
// engine.ErrNoData is returned as-is so callers can render an empty state
// instead of an error.
func (s *Service) Chart(ctx context.Context, desc engine.Descriptor) (*engine.Series, error) {
	if desc.Kind == "" {
		desc.Kind = engine.KindBar
	}
	if !desc.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", engine.ErrInvalidDescriptor, desc.Kind)
	}
	if _, ok := s.catalog.Domain(desc.Domain); !ok {
		return nil, fmt.Errorf("%w: unknown domain %q", engine.ErrInvalidDescriptor, desc.Domain)
	}

	req := query.Request{
		Domain:  desc.Domain,
		Related: s.catalog.Implied(desc.Domain),
		Filters: desc.Filters,
	}.WithID()
	log := s.logger.With(
		zap.String("request_id", req.ID),
		zap.String("domain", desc.Domain),
		zap.String("kind", string(desc.Kind)),
	)

	rows, err := s.fetch(ctx, req, log)
	if err != nil {
		return nil, err
	}

	opts := append(append([]engine.Option(nil), s.opts.Engine...), engine.WithLogger(log))
	series, err := engine.AggregateRows(desc, rows, s.catalog, opts...)
	switch {
	case errors.Is(err, engine.ErrNoData):
		s.metrics.ObserveNoData(desc.Domain, string(desc.Kind))
		log.Info("no data for chart", zap.Int("rows", len(rows)))
		return nil, err
	case err != nil:
		log.Warn("aggregation rejected descriptor", zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveAggregation(desc.Domain, string(desc.Kind))
	log.Debug("chart ready", zap.Int("rows", len(rows)), zap.Int("labels", len(series.Labels)))
	return series, nil
}

// Summary returns the row count and amount total of domain, optionally
// narrowed by filters.
func (s *Service) Summary(ctx context.Context, domain string, filters ...engine.Filter) (engine.Summary, error) {
	if _, ok := s.catalog.Domain(domain); !ok {
		return engine.Summary{}, fmt.Errorf("%w: unknown domain %q", engine.ErrInvalidDescriptor, domain)
	}

	// Joined rows would repeat the primary row once per related match.
	req := query.Request{Domain: domain, Related: []string{}, Filters: filters}.WithID()
	log := s.logger.With(zap.String("request_id", req.ID), zap.String("domain", domain))

	rows, err := s.fetch(ctx, req, log)
	if err != nil {
		return engine.Summary{}, err
	}
	return engine.Summarize(domain, engine.NewSliceView(rows), s.catalog, s.opts.Engine...), nil
}

func (s *Service) fetch(ctx context.Context, req query.Request, log *zap.Logger) ([]engine.Row, error) {
	start := time.Now()
	rows, err := query.FetchWithTimeout(ctx, s.source, req, s.opts.FetchTimeout)
	s.metrics.ObserveFetch(time.Since(start).Seconds())
	if err != nil {
		reason := fetchErrorReason(err)
		s.metrics.ObserveFetchError(reason)
		log.Error("failed to fetch rows", zap.String("reason", reason), zap.Error(err))
		return nil, fmt.Errorf("fetch %s rows: %w", req.Domain, err)
	}
	log.Debug("rows fetched", zap.Int("rows", len(rows)), zap.Duration("took", time.Since(start)))
	return rows, nil
}

func fetchErrorReason(err error) string {
	switch {
	case errors.Is(err, query.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, query.ErrInvalidFilter), errors.Is(err, query.ErrUnknownField):
		return ReasonInvalid
	}
	return ReasonUpstream
}
