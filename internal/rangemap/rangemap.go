// Package rangemap implements components F and G: an ordered, non-
// overlapping Range-keyed map over *accessstate.State, plus the locator
// and parallel-iterator primitives hazard detection sweeps with.
package rangemap

import (
	"github.com/tidwall/btree"

	"github.com/ehrlich-b/go-syncval/internal/accessstate"
	"github.com/ehrlich-b/go-syncval/internal/core"
)

// Entry is one stored (range, state) pair.
type Entry struct {
	Range core.Range
	State *accessstate.State
}

func less(a, b Entry) bool {
	return a.Range.Begin < b.Range.Begin
}

// Map is an ordered map from non-overlapping core.Range to
// *accessstate.State, backed by a B-tree ordered on range start — the
// non-overlap invariant makes start-order a total order equivalent to
// the §3 comparator.
type Map struct {
	tree *btree.BTreeG[Entry]
}

// New returns an empty Map.
func New() *Map {
	return &Map{tree: btree.NewBTreeG(less)}
}

// Len returns the number of stored entries.
func (m *Map) Len() int { return m.tree.Len() }

// LowerBound finds the first stored entry whose range's end is strictly
// greater than r.Begin — §4.F lower_bound. It is not the tree's native
// lower-bound (which compares only Begin): a stored range that starts
// before r.Begin but extends past it must still be found, so the
// predecessor of the native lower-bound is also checked.
func (m *Map) LowerBound(r core.Range) (Entry, bool) {
	pivot := Entry{Range: core.Range{Begin: r.Begin, End: r.Begin}}

	var predecessor Entry
	hasPredecessor := false
	m.tree.Descend(pivot, func(e Entry) bool {
		if e.Range.Begin < r.Begin {
			predecessor = e
			hasPredecessor = true
			return false
		}
		return true
	})
	if hasPredecessor && predecessor.Range.End > r.Begin {
		return predecessor, true
	}

	var found Entry
	ok := false
	m.tree.Ascend(pivot, func(e Entry) bool {
		found = e
		ok = true
		return false
	})
	return found, ok
}

// Get returns the entry whose range exactly equals r, if any.
func (m *Map) Get(r core.Range) (Entry, bool) {
	return m.tree.Get(Entry{Range: r})
}

// intersecting returns the first stored entry intersecting r, if any.
func (m *Map) intersecting(r core.Range) (Entry, bool) {
	e, ok := m.LowerBound(r)
	if !ok {
		return Entry{}, false
	}
	if e.Range.Intersects(r) {
		return e, true
	}
	return Entry{}, false
}

// Insert adds (r, state) to the map. If r overlaps an existing entry,
// Insert rejects the insert and returns the intersecting entry instead —
// §4.F insert's "fall back to general insert which rejects overlapping
// ranges".
func (m *Map) Insert(r core.Range, state *accessstate.State) (Entry, bool) {
	if existing, overlap := m.intersecting(r); overlap {
		return existing, false
	}
	entry := Entry{Range: r, State: state}
	m.tree.Set(entry)
	return entry, true
}

// Delete removes the entry at exactly r, if any.
func (m *Map) Delete(r core.Range) {
	m.tree.Delete(Entry{Range: r})
}

// Split divides the entry covering index into two entries
// [begin, index) and [index, end), each carrying an independent clone of
// the original payload — §4.F split. A no-op if index falls on the
// entry's begin, or outside its range.
func (m *Map) Split(e Entry, index core.Address) {
	if index <= e.Range.Begin || index >= e.Range.End {
		return
	}
	m.tree.Delete(e)
	lower := core.Range{Begin: e.Range.Begin, End: index}
	upper := core.Range{Begin: index, End: e.Range.End}
	m.tree.Set(Entry{Range: lower, State: e.State.Clone()})
	m.tree.Set(Entry{Range: upper, State: e.State.Clone()})
}

// SplitAt finds and splits the entry covering index, if any, and returns
// the resulting lower-half entry.
func (m *Map) SplitAt(index core.Address) (Entry, bool) {
	e, ok := m.LowerBound(core.Range{Begin: index, End: index + 1})
	if !ok || !e.Range.Contains(index) {
		return Entry{}, false
	}
	if index == e.Range.Begin {
		return e, true
	}
	m.Split(e, index)
	return m.Get(core.Range{Begin: e.Range.Begin, End: index})
}

// Ascend calls fn for every entry whose range intersects r, in range
// order, until fn returns false.
func (m *Map) Ascend(r core.Range, fn func(Entry) bool) {
	start, ok := m.LowerBound(r)
	pivot := Entry{Range: core.Range{Begin: r.Begin, End: r.Begin}}
	if ok {
		pivot = start
	}
	m.tree.Ascend(pivot, func(e Entry) bool {
		if e.Range.Begin >= r.End {
			return false
		}
		if !e.Range.Intersects(r) {
			return true
		}
		return fn(e)
	})
}

// InfillUpdateRange walks the map over r, splitting at r's boundaries as
// needed, and for every gap inside r calls ops.Infill, for every existing
// entry inside r calls ops.Update — §4.F infill_update_range.
type RangeOps interface {
	Infill(r core.Range) *accessstate.State
	Update(e Entry)
}

func (m *Map) InfillUpdateRange(r core.Range, ops RangeOps) {
	if lower, ok := m.LowerBound(r); ok && lower.Range.Begin < r.Begin && lower.Range.End > r.Begin {
		m.Split(lower, r.Begin)
	}

	cursor := r.Begin
	for cursor < r.End {
		entry, found := m.LowerBound(core.Range{Begin: cursor, End: cursor + 1})
		if !found || entry.Range.Begin >= r.End {
			gap := core.Range{Begin: cursor, End: r.End}
			state := ops.Infill(gap)
			m.Insert(gap, state)
			cursor = r.End
			continue
		}
		if entry.Range.Begin > cursor {
			gap := core.Range{Begin: cursor, End: entry.Range.Begin}
			state := ops.Infill(gap)
			m.Insert(gap, state)
			cursor = entry.Range.Begin
			continue
		}
		if entry.Range.End > r.End {
			m.Split(entry, r.End)
			entry, _ = m.Get(core.Range{Begin: entry.Range.Begin, End: r.End})
		}
		ops.Update(entry)
		cursor = entry.Range.End
	}
}

// Consolidate sweeps the map merging any run of adjacent entries whose
// ranges touch and whose payloads are equal-by-cmp into a single entry —
// §4.F consolidate.
func (m *Map) Consolidate(equal func(a, b *accessstate.State) bool) {
	var all []Entry
	m.tree.Scan(func(e Entry) bool {
		all = append(all, e)
		return true
	})
	if len(all) == 0 {
		return
	}
	run := all[0]
	var merged []Entry
	for i := 1; i < len(all); i++ {
		next := all[i]
		if run.Range.End == next.Range.Begin && equal(run.State, next.State) {
			run.Range = run.Range.Union(next.Range)
			continue
		}
		merged = append(merged, run)
		run = next
	}
	merged = append(merged, run)

	if len(merged) == len(all) {
		return
	}
	m.tree.Clear()
	for _, e := range merged {
		m.tree.Set(e)
	}
}
