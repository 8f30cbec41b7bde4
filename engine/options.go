package engine

import (
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Aggregate()
// ============================================================================

// DefaultTableLimit is how many rows a table series keeps.
const DefaultTableLimit = 50

// DefaultDateLayout formats date-bucket labels.
const DefaultDateLayout = "2006-01-02"

// DefaultPalette is the fixed color cycle for datasets and pie slices.
var DefaultPalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger     *zap.Logger
	Palette    []string
	DateLayout string
	TableLimit int
	Location   *time.Location
	Currency   string // unit prefix for formatted totals
}

// WithLogger sets the logger used for debug traces of each aggregation.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithPalette replaces the color cycle. Empty palettes are ignored.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// WithDateLayout sets the time layout used for date-bucket labels.
func WithDateLayout(layout string) Option {
	return func(c *config) {
		if layout != "" {
			c.DateLayout = layout
		}
	}
}

// WithTableLimit sets how many rows a table keeps (<= 0 keeps the default).
func WithTableLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.TableLimit = n
		}
	}
}

// WithLocation sets the zone calendar-day buckets are computed in.
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		if loc != nil {
			c.Location = loc
		}
	}
}

// WithCurrency sets the unit prefix of formatted totals (e.g. "USD").
func WithCurrency(unit string) Option {
	return func(c *config) {
		c.Currency = unit
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:     zap.NewNop(),
		Palette:    DefaultPalette,
		DateLayout: DefaultDateLayout,
		TableLimit: DefaultTableLimit,
		Location:   time.UTC,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
