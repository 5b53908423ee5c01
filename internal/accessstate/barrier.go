package accessstate

import (
	"github.com/ehrlich-b/go-syncval/internal/accessscope"
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// ApplyBarrier is §4.E apply_barrier: accumulate a single barrier's
// effect into pending fields only. Nothing here is visible to Detect
// until CommitPending runs, which is what lets a batch of independent
// barriers be applied without any one of them chaining through another.
func (s *State) ApplyBarrier(scope ScopeOps, barrier scopeexpand.Barrier, layoutTransition bool) {
	if layoutTransition {
		if s.LastWrite == nil {
			s.LastWrite = NewWrite(core.AccessNone, core.ExtendedTag{Tag: core.InvalidTag, HandleIndex: core.NoHandleIndex}, core.InvalidQueue, 0)
		}
		s.LastWrite.UpdatePendingBarriers(barrier.DstAccess, barrier.DstExec.Stages)
		s.LastWrite.UpdatePendingLayoutOrdering(scopeexpand.OrderingBarrier{
			ExecScope:   barrier.SrcExec.Stages,
			AccessScope: barrier.SrcAccess,
		})
		s.PendingLayoutTransition = true
		return
	}

	if s.LastWrite != nil && scope.WriteInScope(s.LastWrite, barrier.SrcExec.Stages, barrier.SrcAccess) {
		s.LastWrite.UpdatePendingBarriers(barrier.DstAccess, barrier.DstExec.Stages)
	}

	if !s.PendingLayoutTransition {
		var stagesInScope core.StageMask
		s.LastReads.Each(func(r *ReadState) {
			if scope.ReadInScope(r, barrier.SrcExec.Stages, barrier.SrcAccess) {
				stagesInScope |= r.Stage
			}
		})
		s.LastReads.Each(func(r *ReadState) {
			if (r.Stage|r.SyncStages)&stagesInScope != 0 {
				r.PendingDepChain |= barrier.DstExec.Stages
			}
		})
	}
}

// CommitPending is §4.E commit pending (tag t): fold every pending field
// accumulated by one or more ApplyBarrier calls into the committed
// state, at submission tag t.
func (s *State) CommitPending(tag core.Tag, handleIndex uint32) {
	if s.PendingLayoutTransition {
		pendingBarriers := accessscope.New()
		var pendingDepChain core.StageMask
		var pendingOrdering scopeexpand.OrderingBarrier
		if s.LastWrite != nil {
			pendingBarriers = s.LastWrite.PendingBarriers
			pendingDepChain = s.LastWrite.PendingDepChain
			pendingOrdering = s.LastWrite.PendingLayoutOrdering
		}
		s.LastWrite = NewWrite(core.AccessImageLayoutTransition, core.ExtendedTag{Tag: tag, HandleIndex: handleIndex}, core.InvalidQueue, 0)
		s.LastWrite.PendingBarriers = pendingBarriers
		s.LastWrite.PendingDepChain = pendingDepChain
		s.FirstWriteLayoutOrdering = pendingOrdering
		s.LastWrite.ApplyPendingBarriers()
		s.PendingLayoutTransition = false
		return
	}
	s.LastReads.Each(func(r *ReadState) {
		r.Barriers |= r.PendingDepChain
		r.PendingDepChain = 0
	})
	s.recomputeReadAggregates()
	if s.LastWrite != nil {
		s.LastWrite.ApplyPendingBarriers()
	}
}

// ApplySemaphore is §4.E apply_semaphore: collapse the dependency chain
// through a cross-queue semaphore signal/wait pair.
func (s *State) ApplySemaphore(signalQueue core.QueueID, signalExec core.StageMask, signalAccess accessscope.Scope, waitExec core.StageMask, waitAccess accessscope.Scope) {
	s.LastReads.Each(func(r *ReadState) {
		if r.ReadInQueueScopeOrChain(signalQueue, signalExec) {
			r.Barriers = waitExec
		} else {
			r.Barriers = 0
		}
	})
	s.recomputeReadAggregates()
	if s.LastWrite == nil {
		return
	}
	if s.LastWrite.WriteOrDependencyChainInSourceScope(signalExec, signalAccess) {
		s.LastWrite.Barriers = waitAccess.Clone()
		s.LastWrite.DepChain = waitExec
	} else {
		s.LastWrite.Barriers = accessscope.New()
		s.LastWrite.DepChain = 0
	}
}

// ReadPredicate is a predicate supplied by the cross-queue coordinator to
// decide whether a recorded read/write is resolved by a queue-wait,
// semaphore-wait, or acquire-match — §4.E predicated clearing.
type ReadPredicate func(queue core.QueueID, tag core.Tag) bool

// ClearPredicated is §4.E predicated clearing: two-pass removal of reads
// (and possibly the write) that match pred. Surviving reads are
// re-packed into a fresh vector; the write is cleared entirely (it has
// no partial form) when it matches.
func (s *State) ClearPredicated(pred ReadPredicate) {
	var matchedStages core.StageMask
	s.LastReads.Each(func(r *ReadState) {
		if pred(r.Queue, r.Tag) {
			matchedStages |= r.Stage
		}
	})

	fresh := Vector{}
	s.LastReads.Each(func(r *ReadState) {
		if pred(r.Queue, r.Tag) {
			return
		}
		if (r.Stage|r.SyncStages)&matchedStages != 0 {
			r.SyncStages &^= matchedStages
		}
		fresh.Append(*r)
	})
	s.LastReads = fresh
	s.recomputeReadAggregates()

	if s.LastWrite != nil && pred(s.LastWrite.Queue, s.LastWrite.Tag) {
		s.LastWrite = nil
	}
}
