package accessstate

import (
	"github.com/ehrlich-b/go-syncval/internal/accessscope"
	"github.com/ehrlich-b/go-syncval/internal/core"
)

// ScopeOps is the §4.E sum type parameterising ApplyBarrier: it decides
// whether a given write/read is "in source scope" of the barrier being
// applied. Implemented as a Go interface with three concrete
// implementations rather than an inheritance hierarchy, matching how the
// rest of this module expresses closed sum types.
type ScopeOps interface {
	// WriteInScope reports whether w is in the barrier's effective
	// source scope.
	WriteInScope(w *WriteState, srcExec core.StageMask, srcAccess accessscope.Scope) bool
	// ReadInScope reports whether r is in the barrier's effective source
	// scope.
	ReadInScope(r *ReadState, srcExec core.StageMask, srcAccess accessscope.Scope) bool
}

// Untagged is the ordinary pipeline-barrier / subpass-dependency
// ScopeOps: any write or read reachable via direct scope or dependency
// chain is in scope, regardless of queue.
type Untagged struct{}

func (Untagged) WriteInScope(w *WriteState, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	return w.WriteOrDependencyChainInSourceScope(srcExec, srcAccess)
}

func (Untagged) ReadInScope(r *ReadState, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	return !r.IsReadBarrierHazard(core.InvalidQueue, srcExec, srcAccess)
}

// Queue restricts visibility to accesses happening on a specific queue —
// used for the implicit subpass/queue-submission-order dependency, where
// the barrier only synchronizes work already ordered on that queue.
type Queue struct {
	ID core.QueueID
}

func (q Queue) WriteInScope(w *WriteState, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	if w.Queue != q.ID {
		return false
	}
	return w.WriteOrDependencyChainInSourceScope(srcExec, srcAccess)
}

func (q Queue) ReadInScope(r *ReadState, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	return !r.IsReadBarrierHazard(q.ID, srcExec, srcAccess)
}

// Event restricts visibility to accesses that happened on SetQueue
// strictly before SetTag — the snapshot taken by set_event, replayed by
// wait_event.
type Event struct {
	SetQueue core.QueueID
	SetTag   core.Tag
}

func (e Event) WriteInScope(w *WriteState, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	return w.WriteInEventScope(srcExec, srcAccess, e.SetQueue, e.SetTag)
}

func (e Event) ReadInScope(r *ReadState, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	if r.Tag >= e.SetTag || r.Queue != e.SetQueue {
		return false
	}
	return r.ReadInQueueScopeOrChain(e.SetQueue, srcExec)
}
