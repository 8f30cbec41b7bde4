package engine

import "sort"

// ============================================================================
// ROW VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView — wraps []Row, caches the sorted key union once at ingestion
//   SubView   — filtered subset (indices into parent, zero-copy)
// ============================================================================

// RowView provides indexed access to a row set.
type RowView interface {
	Len() int
	Row(index int) Row
	Value(index int, key string) any
	Keys() []string // sorted union of all column names
}

// ============================================================================
// SLICE VIEW
// ============================================================================

// SliceView wraps a []Row slice as a RowView.
type SliceView struct {
	rows []Row
	keys []string
}

// NewSliceView creates a RowView from rows. Column names are collected and
// sorted once so every resolution scan is deterministic.
func NewSliceView(rows []Row) RowView {
	v := &SliceView{rows: rows}
	v.cacheKeys()
	return v
}

func (v *SliceView) cacheKeys() {
	seen := make(map[string]bool)
	for _, r := range v.rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				v.keys = append(v.keys, k)
			}
		}
	}
	sort.Strings(v.keys)
}

func (v *SliceView) Len() int { return len(v.rows) }

func (v *SliceView) Row(i int) Row {
	if i < 0 || i >= len(v.rows) {
		return nil
	}
	return v.rows[i]
}

func (v *SliceView) Value(i int, key string) any {
	if i < 0 || i >= len(v.rows) {
		return nil
	}
	return v.rows[i][key]
}

func (v *SliceView) Keys() []string { return v.keys }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RowView.
type SubView struct {
	parent  RowView
	indices []int
}

func newSubView(parent RowView, indices []int) RowView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Row(i int) Row {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Row(v.indices[i])
}

func (v *SubView) Value(i int, key string) any {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Value(v.indices[i], key)
}

func (v *SubView) Keys() []string { return v.parent.Keys() }

// Where returns the rows of view matching keep, as a SubView.
func Where(view RowView, keep func(i int) bool) RowView {
	indices := make([]int, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}
