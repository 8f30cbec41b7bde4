package query

import (
	"context"
	"sync"

	"github.com/spektr-org/rentalcharts/engine"
)

// MemorySource serves pre-joined rows held in memory, keyed by primary
// domain. Filters and Limit are applied on every fetch; Related is ignored
// because the stored rows are already joined.
type MemorySource struct {
	mu   sync.RWMutex
	rows map[string][]engine.Row
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{rows: make(map[string][]engine.Row)}
}

// Set replaces the rows served for domain.
func (m *MemorySource) Set(domain string, rows []engine.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[domain] = rows
}

// Fetch returns the filtered rows of req.Domain. Unknown domains yield no rows.
func (m *MemorySource) Fetch(ctx context.Context, req Request) ([]engine.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	stored := m.rows[req.Domain]
	m.mu.RUnlock()

	rows, err := FilterRows(stored, req.Domain, req.Filters)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	return rows, nil
}
