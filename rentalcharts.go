// Package rentalcharts turns joined rental-management rows into chart-ready series.
//
// Usage:
//
//	import "github.com/spektr-org/rentalcharts/engine"
//
//	series, err := engine.Aggregate(engine.Descriptor{
//	    Kind:   engine.KindBar,
//	    Domain: "payments",
//	    Title:  "Revenue by client",
//	}, engine.NewSliceView(rows), schema.DefaultCatalog())
//	if errors.Is(err, engine.ErrNoData) {
//	    // show "no data"
//	}
//
// Rows come from a query.Source (Postgres, HTTP data service, Redis-cached,
// or in-memory). The engine itself never performs I/O.
package rentalcharts
