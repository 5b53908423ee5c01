package rangemap

import (
	"testing"

	"github.com/ehrlich-b/go-syncval/internal/accessstate"
	"github.com/ehrlich-b/go-syncval/internal/core"
)

func rng(begin, end int) core.Range {
	r, _ := core.NewRange(core.Address(begin), core.Address(end))
	return r
}

func TestInsertRejectsOverlap(t *testing.T) {
	m := New()
	if _, ok := m.Insert(rng(0, 10), accessstate.New()); !ok {
		t.Fatal("Insert into an empty map should succeed")
	}
	if _, ok := m.Insert(rng(5, 15), accessstate.New()); ok {
		t.Fatal("Insert should reject a range overlapping an existing entry")
	}
	if _, ok := m.Insert(rng(10, 20), accessstate.New()); !ok {
		t.Fatal("Insert should accept a range adjoining but not overlapping an existing entry")
	}
}

func TestLowerBoundFindsCoveringEntry(t *testing.T) {
	m := New()
	m.Insert(rng(10, 20), accessstate.New())

	got, ok := m.LowerBound(rng(15, 16))
	if !ok || got.Range != rng(10, 20) {
		t.Fatalf("LowerBound(15,16) = %v, %v, want the entry covering it", got.Range, ok)
	}

	got, ok = m.LowerBound(rng(25, 26))
	if ok {
		t.Fatalf("LowerBound past every stored entry should report nothing, got %v", got.Range)
	}
}

func TestSplit(t *testing.T) {
	m := New()
	e, _ := m.Insert(rng(0, 10), accessstate.New())

	m.Split(e, 5)
	if m.Len() != 2 {
		t.Fatalf("Split should produce two entries, got %d", m.Len())
	}
	lower, ok := m.Get(rng(0, 5))
	if !ok {
		t.Fatal("Split should produce a [0,5) entry")
	}
	upper, ok := m.Get(rng(5, 10))
	if !ok {
		t.Fatal("Split should produce a [5,10) entry")
	}
	if lower.State == upper.State {
		t.Error("Split's two halves should carry independent state clones, not a shared pointer")
	}
}

func TestSplitIsNoOpOutsideRange(t *testing.T) {
	m := New()
	e, _ := m.Insert(rng(0, 10), accessstate.New())
	m.Split(e, 0)
	if m.Len() != 1 {
		t.Error("splitting at the entry's own Begin should be a no-op")
	}
	m.Split(e, 10)
	if m.Len() != 1 {
		t.Error("splitting at the entry's own End should be a no-op")
	}
}

func TestAscendVisitsIntersectingEntriesInOrder(t *testing.T) {
	m := New()
	m.Insert(rng(0, 10), accessstate.New())
	m.Insert(rng(10, 20), accessstate.New())
	m.Insert(rng(20, 30), accessstate.New())

	var seen []core.Range
	m.Ascend(rng(5, 25), func(e Entry) bool {
		seen = append(seen, e.Range)
		return true
	})
	want := []core.Range{rng(0, 10), rng(10, 20), rng(20, 30)}
	if len(seen) != len(want) {
		t.Fatalf("Ascend visited %d entries, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Ascend order[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
}

type infillOnce struct{ calls int }

func (o *infillOnce) Infill(core.Range) *accessstate.State { o.calls++; return accessstate.New() }
func (o *infillOnce) Update(Entry)                         {}

func TestInfillUpdateRangeFillsGapsAndSplitsBoundaries(t *testing.T) {
	m := New()
	m.Insert(rng(5, 10), accessstate.New())

	ops := &infillOnce{}
	m.InfillUpdateRange(rng(0, 20), ops)

	if ops.calls != 2 {
		t.Errorf("InfillUpdateRange should fill exactly the two gaps [0,5) and [10,20), got %d infill calls", ops.calls)
	}
	if _, ok := m.Get(rng(0, 5)); !ok {
		t.Error("missing the [0,5) gap entry")
	}
	if _, ok := m.Get(rng(5, 10)); !ok {
		t.Error("the pre-existing [5,10) entry should survive untouched")
	}
	if _, ok := m.Get(rng(10, 20)); !ok {
		t.Error("missing the [10,20) gap entry")
	}
}

func TestInfillUpdateRangeSplitsAtPartialOverlap(t *testing.T) {
	m := New()
	m.Insert(rng(0, 20), accessstate.New())

	ops := &infillOnce{}
	m.InfillUpdateRange(rng(5, 10), ops)

	if ops.calls != 0 {
		t.Error("a range fully covered by one entry should need no infill")
	}
	if m.Len() != 3 {
		t.Fatalf("splitting [0,20) at [5,10) should leave 3 entries, got %d", m.Len())
	}
	for _, want := range []core.Range{rng(0, 5), rng(5, 10), rng(10, 20)} {
		if _, ok := m.Get(want); !ok {
			t.Errorf("missing expected entry %v after split", want)
		}
	}
}

func TestConsolidateMergesEqualAdjacentEntries(t *testing.T) {
	m := New()
	m.Insert(rng(0, 10), accessstate.New())
	m.Insert(rng(10, 20), accessstate.New())

	alwaysEqual := func(a, b *accessstate.State) bool { return true }
	m.Consolidate(alwaysEqual)

	if m.Len() != 1 {
		t.Fatalf("Consolidate should merge two equal adjacent entries into one, got %d entries", m.Len())
	}
	got, ok := m.Get(rng(0, 20))
	if !ok {
		t.Error("the merged entry should cover the union range [0,20)")
	}
	_ = got
}

func TestConsolidateLeavesUnequalEntriesApart(t *testing.T) {
	m := New()
	m.Insert(rng(0, 10), accessstate.New())
	m.Insert(rng(10, 20), accessstate.New())

	neverEqual := func(a, b *accessstate.State) bool { return false }
	m.Consolidate(neverEqual)

	if m.Len() != 2 {
		t.Errorf("Consolidate should not merge entries the predicate rejects, got %d entries", m.Len())
	}
}
