// Package barrier implements component H: the driver that applies a
// batch of independent SyncBarrier values to a range map in one pass,
// guaranteeing that no barrier in the batch can chain through another
// member of the same batch.
package barrier

import (
	"github.com/ehrlich-b/go-syncval/internal/accessstate"
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/rangemap"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// Item is one barrier in a batch, paired with the scope rule it is
// applied under and whether it represents an image-layout transition.
type Item struct {
	Barrier          scopeexpand.Barrier
	Scope            accessstate.ScopeOps
	LayoutTransition bool
}

// Driver applies batches of Item to a rangemap.Map.
type Driver struct {
	Map *rangemap.Map
}

// New returns a Driver operating over m.
func New(m *rangemap.Map) *Driver {
	return &Driver{Map: m}
}

type infillOps struct{}

func (infillOps) Infill(core.Range) *accessstate.State { return accessstate.New() }
func (infillOps) Update(rangemap.Entry)                {}

// ApplyBatch runs §4.H: split the map at every affected range's
// endpoints, apply every Item in the batch to each resulting whole
// entry's pending fields, commit pending at tag, then consolidate.
func (d *Driver) ApplyBatch(r core.Range, items []Item, tag core.Tag, handleIndex uint32) {
	if len(items) == 0 {
		return
	}
	d.Map.InfillUpdateRange(r, infillOps{})

	d.Map.Ascend(r, func(e rangemap.Entry) bool {
		for _, item := range items {
			e.State.ApplyBarrier(item.Scope, item.Barrier, item.LayoutTransition)
		}
		e.State.CommitPending(tag, handleIndex)
		return true
	})

	d.Map.Consolidate(stateEqual)
}

// stateEqual is the equality predicate Consolidate merges adjacent
// entries under. Two states compare equal only when they are both empty
// (no write, no reads) — a conservative choice: any recorded access
// makes an entry uniquely identified by its own history, so only ranges
// that never diverged from the initial empty state are safe to fold back
// together after a barrier batch touches an already-infilled gap.
func stateEqual(a, b *accessstate.State) bool {
	return a.LastWrite == nil && b.LastWrite == nil && a.LastReads.Len() == 0 && b.LastReads.Len() == 0
}
