package rangemap

import "github.com/ehrlich-b/go-syncval/internal/core"

// Locator is §4.G: a cursor over a Map that tracks, for a moving index,
// whether that index falls inside a stored entry, and lets the index be
// advanced without a full lower-bound query in the common case of
// advancing within or just past the current entry.
type Locator struct {
	m     *Map
	index core.Address

	lowerBound    Entry
	hasLowerBound bool
	inside        bool
}

// NewLocator builds a Locator positioned at index.
func NewLocator(m *Map, index core.Address) *Locator {
	l := &Locator{m: m, index: index}
	l.reseek()
	return l
}

func (l *Locator) reseek() {
	e, ok := l.m.LowerBound(core.Range{Begin: l.index, End: l.index + 1})
	l.lowerBound = e
	l.hasLowerBound = ok
	l.inside = ok && e.Range.Contains(l.index)
}

// Index returns the current position.
func (l *Locator) Index() core.Address { return l.index }

// Inside reports whether the current position lies within a stored
// entry.
func (l *Locator) Inside() bool { return l.inside }

// Entry returns the lower-bound entry at the current position, if any.
func (l *Locator) Entry() (Entry, bool) { return l.lowerBound, l.hasLowerBound }

// AtEnd reports whether there is no lower-bound entry at all (the
// position is at or past the last stored range).
func (l *Locator) AtEnd() bool { return !l.hasLowerBound }

// DistanceToEdge returns the distance from the current position to the
// edge of the relevant range: if inside a stored entry, the distance to
// its end; otherwise the distance to the next stored entry's begin, or 0
// if there is none (at end).
func (l *Locator) DistanceToEdge() core.Address {
	if !l.hasLowerBound {
		return 0
	}
	if l.inside {
		return l.lowerBound.Range.End - l.index
	}
	return l.lowerBound.Range.Begin - l.index
}

// Seek advances the locator to newIndex, which must be >= the current
// index. If the current entry still covers newIndex it advances without
// a query; in every other case it runs a full lower-bound query.
func (l *Locator) Seek(newIndex core.Address) {
	if newIndex == l.index {
		return
	}
	l.index = newIndex
	if l.hasLowerBound {
		if l.inside && l.lowerBound.Range.Contains(newIndex) {
			return
		}
		if newIndex >= l.lowerBound.Range.End {
			// fast path: check the immediate successor before a full query
		}
	}
	l.reseek()
}

// ParallelIterator is §4.G: walks two locators in lockstep, yielding the
// maximal sub-range over which neither map crosses an entry boundary.
type ParallelIterator struct {
	a, b  *Locator
	Range core.Range
}

// NewParallelIterator builds a ParallelIterator starting at begin, over
// maps a and b, bounded above by limit.
func NewParallelIterator(a, b *Map, begin, limit core.Address) *ParallelIterator {
	p := &ParallelIterator{a: NewLocator(a, begin), b: NewLocator(b, begin)}
	p.recompute(limit)
	return p
}

func (p *ParallelIterator) recompute(limit core.Address) {
	da := p.a.DistanceToEdge()
	db := p.b.DistanceToEdge()
	begin := p.a.Index()

	var dist core.Address
	switch {
	case da == 0 && db == 0:
		dist = limit - begin
	case da == 0:
		dist = db
	case db == 0:
		dist = da
	case da < db:
		dist = da
	default:
		dist = db
	}
	end := begin + dist
	if end > limit {
		end = limit
	}
	p.Range = core.Range{Begin: begin, End: end}
}

// EntryA returns the current entry on side A, if any.
func (p *ParallelIterator) EntryA() (Entry, bool) { return p.a.Entry() }

// EntryB returns the current entry on side B, if any.
func (p *ParallelIterator) EntryB() (Entry, bool) { return p.b.Entry() }

// Done reports whether the iteration has reached its limit.
func (p *ParallelIterator) Done() bool { return p.Range.Empty() }

// Advance moves both locators to the end of the current sub-range and
// recomputes it, bounded by limit.
func (p *ParallelIterator) Advance(limit core.Address) {
	end := p.Range.End
	p.a.Seek(end)
	p.b.Seek(end)
	p.recompute(limit)
}
