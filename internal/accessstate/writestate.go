package accessstate

import (
	"github.com/ehrlich-b/go-syncval/internal/accessscope"
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// WriteFlag annotates a WriteState with the render-pass/present context it
// was recorded under, independent of its access scope.
type WriteFlag = scopeexpand.Flag

// WriteState is component C: the single write recorded for a range.
type WriteState struct {
	AccessIndex core.AccessIndex
	Flags       WriteFlag
	Tag         core.Tag
	HandleIndex uint32
	Queue       core.QueueID

	// Barriers is the accumulated set of access indices this write has
	// been made visible to (committed, not pending).
	Barriers accessscope.Scope
	// DepChain is the accumulated union of dst exec scopes of barriers
	// whose source scope contained this write (committed).
	DepChain core.StageMask

	PendingBarriers        accessscope.Scope
	PendingDepChain        core.StageMask
	PendingLayoutOrdering  scopeexpand.OrderingBarrier
	hasPendingOrdering     bool
}

// NewWrite builds a fresh WriteState, clearing any prior barrier/chain
// state — the §4.C "set" mutator.
func NewWrite(idx core.AccessIndex, tagEx core.ExtendedTag, queue core.QueueID, flags WriteFlag) *WriteState {
	return &WriteState{
		AccessIndex:     idx,
		Flags:           flags,
		Tag:             tagEx.Tag,
		HandleIndex:     tagEx.HandleIndex,
		Queue:           queue,
		Barriers:        accessscope.New(),
		PendingBarriers: accessscope.New(),
	}
}

// Set overwrites identity and clears barriers, dep-chain and pending
// fields, per §4.C.
func (w *WriteState) Set(idx core.AccessIndex, tagEx core.ExtendedTag, queue core.QueueID, flags WriteFlag) {
	w.AccessIndex = idx
	w.Flags = flags
	w.Tag = tagEx.Tag
	w.HandleIndex = tagEx.HandleIndex
	w.Queue = queue
	w.Barriers = accessscope.New()
	w.DepChain = 0
	w.PendingBarriers = accessscope.New()
	w.PendingDepChain = 0
	w.hasPendingOrdering = false
}

// IsLoadOp reports whether this write originates from a render-pass load
// operation.
func (w *WriteState) IsLoadOp() bool { return w.Flags&scopeexpand.FlagLoadOp != 0 }

// IsStoreOp reports whether this write originates from a render-pass
// store operation.
func (w *WriteState) IsStoreOp() bool { return w.Flags&scopeexpand.FlagStoreOp != 0 }

// IsPresent reports whether this write is a present operation.
func (w *WriteState) IsPresent() bool { return w.Flags&scopeexpand.FlagPresent != 0 }

// IsWriteHazard reports whether newAccess is unsafe against this write:
// unsafe unless newAccess's index has been made visible via Barriers.
func (w *WriteState) IsWriteHazard(newAccess core.AccessIndex) bool {
	return !w.Barriers.Test(newAccess)
}

// WriteInChain reports execution-availability: whether srcExec intersects
// the accumulated dependency chain.
func (w *WriteState) WriteInChain(srcExec core.StageMask) bool {
	return (w.DepChain & srcExec) != 0
}

// WriteInScope reports visibility by direct access scope.
func (w *WriteState) WriteInScope(srcAccess accessscope.Scope) bool {
	return srcAccess.Test(w.AccessIndex)
}

// WriteOrDependencyChainInSourceScope is §4.C
// write_in_source_scope_or_chain.
func (w *WriteState) WriteOrDependencyChainInSourceScope(srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	return w.WriteInChain(normalizeExecScope(srcExec, srcAccess)) || w.WriteInScope(srcAccess)
}

// WriteInEventScope is §4.C write_in_event_scope: the write was already
// inside the first sync scope of a set-event when that event was set.
func (w *WriteState) WriteInEventScope(srcExec core.StageMask, srcAccess accessscope.Scope, scopeQueue core.QueueID, scopeTag core.Tag) bool {
	if w.Tag >= scopeTag || w.Queue != scopeQueue {
		return false
	}
	return w.WriteOrDependencyChainInSourceScope(srcExec, srcAccess)
}

// IsWriteBarrierHazard reports whether a barrier with the given
// queue/src-exec/src-access is unsafe against this write: unsafe unless
// the write is reachable via chain or direct scope.
func (w *WriteState) IsWriteBarrierHazard(_ core.QueueID, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	return !w.WriteOrDependencyChainInSourceScope(srcExec, srcAccess)
}

// IsOrdered reports whether this write is covered by the given ordering
// rule: either its access index is in the ordering's access scope, or its
// queue matches and its dep-chain/queue-submission-order puts it inside
// the ordering's exec scope.
func (w *WriteState) IsOrdered(ordering scopeexpand.OrderingBarrier, queue core.QueueID) bool {
	if ordering.AccessScope.Test(w.AccessIndex) {
		return true
	}
	if w.Queue == queue && w.DepChain&ordering.ExecScope != 0 {
		return true
	}
	return false
}

// MergeBarriers unions other's committed barrier/chain state into w,
// keeping w's identity. Used by Resolve when both states have a write at
// the same tag.
func (w *WriteState) MergeBarriers(other *WriteState) {
	w.Barriers.UnionInPlace(other.Barriers)
	w.DepChain |= other.DepChain
	w.PendingBarriers.UnionInPlace(other.PendingBarriers)
	w.PendingDepChain |= other.PendingDepChain
}

// UpdatePendingBarriers accumulates a barrier's destination scope into
// this write's pending fields — §4.C update_pending_barriers. It does not
// mutate committed Barriers/DepChain.
func (w *WriteState) UpdatePendingBarriers(dstAccess accessscope.Scope, dstExec core.StageMask) {
	w.PendingBarriers.UnionInPlace(dstAccess)
	w.PendingDepChain |= dstExec
}

// UpdatePendingLayoutOrdering accumulates an OrderingBarrier describing
// the src scope of a layout-transition barrier, used for the
// back-to-back-ILT special case.
func (w *WriteState) UpdatePendingLayoutOrdering(ob scopeexpand.OrderingBarrier) {
	if !w.hasPendingOrdering {
		w.PendingLayoutOrdering = ob
		w.hasPendingOrdering = true
	} else {
		w.PendingLayoutOrdering.ExecScope |= ob.ExecScope
		w.PendingLayoutOrdering.AccessScope = w.PendingLayoutOrdering.AccessScope.Union(ob.AccessScope)
	}
	w.PendingLayoutOrdering = InternOrderingBarrier(w.PendingLayoutOrdering)
}

// ApplyPendingBarriers commits pending barrier/chain state into the
// committed fields and clears pending — §4.C apply_pending_barriers,
// called from commit-pending (§4.E).
func (w *WriteState) ApplyPendingBarriers() {
	w.Barriers.UnionInPlace(w.PendingBarriers)
	w.DepChain |= w.PendingDepChain
	w.PendingBarriers = accessscope.New()
	w.PendingDepChain = 0
	w.hasPendingOrdering = false
}

// normalizeExecScope promotes a NONE (zero) source scope to TOP_OF_PIPE
// so that an AND-with-chain test behaves as "no barrier" rather than
// vacuously false, per §4.C special case. It only applies the promotion
// when both the stage mask and the access scope are empty.
func normalizeExecScope(srcExec core.StageMask, srcAccess accessscope.Scope) core.StageMask {
	if srcExec == 0 && srcAccess.None() {
		return core.StageTopOfPipe
	}
	return srcExec
}
