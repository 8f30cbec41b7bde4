package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spektr-org/rentalcharts/engine"
)

// ============================================================================
// SOURCE — Data-access port
// ============================================================================
// The reporting core never talks to storage directly. It asks a Source for
// the joined rows of a primary domain plus its related domains; adapters
// decide where the rows come from (memory, Postgres, a remote data service,
// a Redis cache in front of any of those).
// ============================================================================

var (
	// ErrTimeout is returned by FetchWithTimeout when the source did not
	// answer in time.
	ErrTimeout = errors.New("query timed out")

	// ErrUnknownField is wrapped when a request names a domain or field the
	// catalog does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidFilter is wrapped when a filter uses an unknown operator.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Request asks for the joined rows of Domain.
//
// Related lists the domains to join. nil means the domains the catalog
// implies for Domain; an empty, non-nil slice means Domain alone.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Domain  string          `json:"domain"`
	Related []string        `json:"related"`
	Filters []engine.Filter `json:"filters,omitempty"`
	Limit   int             `json:"limit,omitempty"` // 0 = no limit
}

// Source fetches rows. Implementations must be safe for concurrent use.
type Source interface {
	Fetch(ctx context.Context, req Request) ([]engine.Row, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req Request) ([]engine.Row, error)

func (f SourceFunc) Fetch(ctx context.Context, req Request) ([]engine.Row, error) {
	return f(ctx, req)
}

// NewRequestID returns a fresh id for log correlation.
func NewRequestID() string {
	return uuid.NewString()
}

// WithID returns req with an id assigned when it has none.
func (r Request) WithID() Request {
	if r.ID == "" {
		r.ID = NewRequestID()
	}
	return r
}

type fetchResult struct {
	rows []engine.Row
	err  error
}

// FetchWithTimeout races src.Fetch against timeout; whichever settles first
// wins. The derived context is handed to the source so adapters that honor
// cancellation stop early; adapters that don't are abandoned.
// A non-positive timeout disables the race.
func FetchWithTimeout(ctx context.Context, src Source, req Request, timeout time.Duration) ([]engine.Row, error) {
	if timeout <= 0 {
		return src.Fetch(ctx, req)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so an abandoned fetch can still deliver and exit.
	done := make(chan fetchResult, 1)
	go func() {
		rows, err := src.Fetch(ctx, req)
		done <- fetchResult{rows: rows, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() != nil {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return res.rows, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}
