package report

import (
	"context"
	"errors"

	"github.com/spektr-org/rentalcharts/engine"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Panel is one dashboard chart. Exactly one of Series, NoData or Err is set.
type Panel struct {
	Descriptor engine.Descriptor `json:"descriptor"`
	Series     *engine.Series    `json:"series,omitempty"`
	NoData     bool              `json:"noData"`
	Error      string            `json:"error,omitempty"`
	Err        error             `json:"-"`
}

// Dashboard renders every descriptor, at most Concurrency at a time, under
// the dashboard timeout. Panels are independent: one failing panel does not
// cancel the others. The result keeps the order of descs.
func (s *Service) Dashboard(ctx context.Context, descs []engine.Descriptor) []Panel {
	panels := make([]Panel, len(descs))
	if len(descs) == 0 {
		return panels
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.DashboardTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, desc := range descs {
		i, desc := i, desc
		g.Go(func() error {
			p := Panel{Descriptor: desc}
			series, err := s.Chart(ctx, desc)
			switch {
			case errors.Is(err, engine.ErrNoData):
				p.NoData = true
			case err != nil:
				p.Err = err
				p.Error = err.Error()
			default:
				p.Series = series
			}
			panels[i] = p
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, p := range panels {
		if p.Err != nil {
			failed++
		}
	}
	s.logger.Debug("dashboard rendered", zap.Int("panels", len(panels)), zap.Int("failed", failed))
	return panels
}
