package query

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spektr-org/rentalcharts/engine"
	"go.uber.org/zap"
)

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	BaseURL string
	Timeout time.Duration // per attempt; default 30s
	Retries int
	Token   string // optional bearer token
}

type queryResponse struct {
	Rows  []engine.Row `json:"rows"`
	Error string       `json:"error,omitempty"`
}

// HTTPSource asks a remote data service for joined rows: POST /query with
// the Request as body, {"rows": [...]} back.
type HTTPSource struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPSource creates a source for the data service at opts.BaseURL.
func NewHTTPSource(opts HTTPOptions, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}

	return &HTTPSource{client: client, logger: logger}
}

// Fetch posts req to the data service.
func (s *HTTPSource) Fetch(ctx context.Context, req Request) ([]engine.Row, error) {
	var result, failure queryResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", req.ID).
		SetBody(req).
		SetResult(&result).
		SetError(&failure).
		Post("/query")
	if err != nil {
		s.logger.Error("data service call failed",
			zap.String("request_id", req.ID),
			zap.String("domain", req.Domain),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call data service: %w", err)
	}

	if resp.IsError() {
		msg := failure.Error
		if msg == "" {
			msg = resp.Status()
		}
		s.logger.Error("data service returned error",
			zap.String("request_id", req.ID),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return nil, fmt.Errorf("data service error: %s (status: %d)", msg, resp.StatusCode())
	}

	s.logger.Debug("rows received from data service",
		zap.String("request_id", req.ID),
		zap.Int("rows", len(result.Rows)),
	)
	return result.Rows, nil
}
