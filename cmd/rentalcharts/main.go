package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spektr-org/rentalcharts/config"
	"github.com/spektr-org/rentalcharts/engine"
	"github.com/spektr-org/rentalcharts/export"
	"github.com/spektr-org/rentalcharts/helpers"
	"github.com/spektr-org/rentalcharts/logger"
	"github.com/spektr-org/rentalcharts/observability"
	"github.com/spektr-org/rentalcharts/query"
	"github.com/spektr-org/rentalcharts/rental"
	"github.com/spektr-org/rentalcharts/report"
	"github.com/spektr-org/rentalcharts/schema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// RENTALCHARTS CLI — Chart data for the rental dashboard
// ============================================================================

const version = "0.1.0"

// options carries the parsed command line into run.
type options struct {
	configPath string
	filePath   string
	domain     string
	kind       string
	title      string
	summary    bool
	dashboard  string
	format     string
	outFile    string
	quote      string
}

func main() {
	var opts options

	// ── Flags ─────────────────────────────────────────────────────────────
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML config (optional)")
	flag.StringVar(&opts.filePath, "file", "", "CSV of pre-joined rows (serves -domain from memory)")
	flag.StringVar(&opts.domain, "domain", schema.Payments, "Primary domain: payments, equipment, rentals, clients, returns")
	flag.StringVar(&opts.kind, "kind", string(engine.KindBar), "Chart kind: bar, line, pie, table")
	flag.StringVar(&opts.title, "title", "", "Chart title")
	flag.BoolVar(&opts.summary, "summary", false, "Print the count/total tile of -domain instead of a chart")
	flag.StringVar(&opts.dashboard, "dashboard", "", "YAML file listing panels to render together")
	flag.StringVar(&opts.format, "format", export.FormatJSON, "Output format: json, pretty, csv, xlsx, png")
	flag.StringVar(&opts.outFile, "out", "", "Write output to file instead of stdout")
	flag.StringVar(&opts.quote, "quote", "", "Rental total for start,end,rate,quantity and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `rentalcharts — Chart data for the rental dashboard

Usage:
  rentalcharts --file payments.csv --domain payments --kind bar --format csv
  rentalcharts --config config.yaml --domain equipment --kind line --format pretty
  rentalcharts --config config.yaml --dashboard panels.yaml
  rentalcharts --quote 2024-01-01,2024-01-02,50,1

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  RENTALCHARTS_*    Overrides for the config file (see config package)

Formats:
  json      Series as JSON (default)
  pretty    Pretty-printed JSON
  csv       Chart/table data as CSV (ready for Sheets/Excel)
  xlsx      Excel workbook with one sheet
  png       Rendered chart image (bar, line, pie)
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("rentalcharts %s\n", version)
		return
	}

	if err := run(opts, os.Stdout, prometheus.DefaultRegisterer); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one CLI invocation, writing to stdout unless -out is set.
func run(opts options, stdout io.Writer, reg prometheus.Registerer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loc, err := cfg.Chart.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	// ── Quote mode ────────────────────────────────────────────────────────
	if opts.quote != "" {
		q, ok := rental.ParseQuote(opts.quote)
		if !ok {
			return errors.New("--quote expects start,end,rate,quantity")
		}
		_, err := fmt.Fprintln(stdout, rental.Calculate(q, loc))
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "rentalcharts")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	catalog := schema.DefaultCatalog()

	// ── Source ────────────────────────────────────────────────────────────
	src, closeSource, err := openSource(ctx, cfg, catalog, opts.filePath, opts.domain, log)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer closeSource()

	svc := report.NewService(src, catalog, log, observability.NewMetrics(reg), report.Options{
		FetchTimeout:     cfg.Timeouts.Fetch,
		DashboardTimeout: cfg.Timeouts.Dashboard,
		Concurrency:      cfg.Dashboard.Concurrency,
		Engine: []engine.Option{
			engine.WithDateLayout(cfg.Chart.DateLayout),
			engine.WithTableLimit(cfg.Chart.TableLimit),
			engine.WithLocation(loc),
			engine.WithCurrency(cfg.Chart.Currency),
			engine.WithPalette(cfg.Chart.Palette),
		},
	})

	// ── Output writer ─────────────────────────────────────────────────────
	writer := stdout
	if opts.outFile != "" {
		f, err := os.Create(opts.outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	pretty := opts.format == export.FormatPretty

	switch {
	case opts.dashboard != "":
		descs, err := loadPanels(opts.dashboard)
		if err != nil {
			return fmt.Errorf("failed to read dashboard: %w", err)
		}
		panels := svc.Dashboard(ctx, descs)
		if err := export.WriteJSON(writer, panels, pretty); err != nil {
			return fmt.Errorf("failed to write dashboard: %w", err)
		}

	case opts.summary:
		sum, err := svc.Summary(ctx, opts.domain)
		if err != nil {
			return fmt.Errorf("summary failed: %w", err)
		}
		if err := export.WriteJSON(writer, sum, pretty); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}

	default:
		desc := engine.Descriptor{Kind: engine.Kind(opts.kind), Domain: opts.domain, Title: opts.title}
		series, err := svc.Chart(ctx, desc)
		if errors.Is(err, engine.ErrNoData) {
			fmt.Fprintln(os.Stderr, "No data.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("chart failed: %w", err)
		}
		if err := export.Write(writer, series, opts.format); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if opts.outFile != "" {
		log.Info("output written", zap.String("path", opts.outFile), zap.String("format", opts.format))
	}
	return nil
}

// ============================================================================
// SOURCE WIRING
// ============================================================================

// openSource builds the configured row source, wrapped in the Redis cache
// when enabled. A -file always serves rows from memory.
func openSource(ctx context.Context, cfg *config.Config, catalog schema.Catalog, file, domain string, log *zap.Logger) (query.Source, func(), error) {
	var (
		src     query.Source
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	driver := cfg.Source.Driver
	if file != "" {
		driver = config.DriverMemory
	}

	switch driver {
	case config.DriverMemory:
		if file == "" {
			return nil, nil, fmt.Errorf("--file is required with the memory driver")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, err
		}
		rows, err := helpers.ParseCSV(data)
		if err != nil {
			return nil, nil, err
		}
		mem := query.NewMemorySource()
		mem.Set(domain, rows)
		log.Info("loaded rows from file", zap.String("path", file), zap.Int("rows", len(rows)))
		src = mem

	case config.DriverPostgres:
		pg := cfg.Source.Postgres
		db, err := query.OpenPostgres(ctx, pg.DSN(), pg.MaxConns, pg.MaxIdle)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		src = query.NewPostgresSource(db, catalog, log)

	case config.DriverHTTP:
		h := cfg.Source.HTTP
		src = query.NewHTTPSource(query.HTTPOptions{
			BaseURL: h.BaseURL,
			Timeout: h.Timeout,
			Retries: h.Retries,
			Token:   h.Token,
		}, log)

	default:
		return nil, nil, fmt.Errorf("unknown source driver %q", driver)
	}

	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		closers = append(closers, func() { client.Close() })
		src = query.NewCachedSource(src, query.NewRedisKVStore(client), cfg.Cache.TTL, log)
	}

	return src, closeAll, nil
}

type dashboardFile struct {
	Panels []engine.Descriptor `yaml:"panels"`
}

func loadPanels(path string) ([]engine.Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var df dashboardFile
	if err := yaml.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(df.Panels) == 0 {
		return nil, fmt.Errorf("%s lists no panels", path)
	}
	return df.Panels, nil
}
