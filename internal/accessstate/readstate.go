package accessstate

import (
	"github.com/ehrlich-b/go-syncval/internal/accessscope"
	"github.com/ehrlich-b/go-syncval/internal/core"
)

// ReadState is component D: one recorded read, the most recent read to
// have occurred in a given stage for a range. A range's AccessState holds
// at most one ReadState per stage.
type ReadState struct {
	Stage       core.StageMask
	AccessIndex core.AccessIndex
	// Barriers is the union of dst exec scopes of every barrier whose
	// src scope this read satisfied (committed).
	Barriers core.StageMask
	// SyncStages is the set of other read stages known to happen-after
	// this read via the barrier graph.
	SyncStages core.StageMask
	Tag         core.Tag
	HandleIndex uint32
	Queue       core.QueueID

	PendingDepChain core.StageMask
}

// Set installs fresh identity for stage, clearing accumulated barrier
// state — used when constructing a brand new per-stage read.
func (r *ReadState) Set(stage core.StageMask, idx core.AccessIndex, tagEx core.ExtendedTag, queue core.QueueID) {
	r.Stage = stage
	r.AccessIndex = idx
	r.Tag = tagEx.Tag
	r.HandleIndex = tagEx.HandleIndex
	r.Queue = queue
	r.Barriers = 0
	r.SyncStages = 0
	r.PendingDepChain = 0
}

// IsReadHazard is §4.D is_read_hazard: newStageMask is unsafe unless all
// of its stages are already reachable through r.Barriers.
func (r *ReadState) IsReadHazard(newStageMask core.StageMask) bool {
	return newStageMask != (newStageMask & r.Barriers)
}

// IsReadBarrierHazard is §4.D is_read_barrier_hazard. barrierQueue ==
// core.InvalidQueue means the barrier is not queue-restricted (an
// ordinary pipeline barrier, Untagged scope): the read's own stage
// always counts. Otherwise only a read recorded on barrierQueue counts
// directly; a read on another queue can still be reached through its
// accumulated Barriers chain.
func (r *ReadState) IsReadBarrierHazard(barrierQueue core.QueueID, srcExec core.StageMask, srcAccess accessscope.Scope) bool {
	effectiveStage := core.StageMask(0)
	if barrierQueue == core.InvalidQueue || r.Queue == barrierQueue {
		effectiveStage = r.Stage
	}
	srcExec = normalizeExecScope(srcExec, srcAccess)
	return (srcExec & (effectiveStage | r.Barriers)) == 0
}

// ReadInQueueScopeOrChain is used by event barriers: the read is in scope
// if either it is on queue and its stage is in exec, or exec intersects
// r.Barriers.
func (r *ReadState) ReadInQueueScopeOrChain(queue core.QueueID, exec core.StageMask) bool {
	if r.Queue == queue && (r.Stage&exec) != 0 {
		return true
	}
	return (exec & r.Barriers) != 0
}

// Vector is the small-vector-with-inline-capacity the spec calls for: at
// most one ReadState per stage, so in practice a handful of entries (one
// per pipeline stage touched since the last write). The first four reads
// live in an inline array and only further reads go to an overflow
// slice, so the common case of a few reads does not allocate.
type Vector struct {
	inline   [4]ReadState
	inlineN  int
	overflow []ReadState
}

// Len returns the number of reads currently stored.
func (v *Vector) Len() int {
	return v.inlineN + len(v.overflow)
}

// At returns a pointer to the i'th read, counting inline entries first.
func (v *Vector) At(i int) *ReadState {
	if i < v.inlineN {
		return &v.inline[i]
	}
	return &v.overflow[i-v.inlineN]
}

// Find returns the ReadState for stage, or nil.
func (v *Vector) Find(stage core.StageMask) *ReadState {
	for i := 0; i < v.Len(); i++ {
		if r := v.At(i); r.Stage == stage {
			return r
		}
	}
	return nil
}

// Append adds rs to the vector, spilling to the overflow slice once the
// inline capacity is exhausted.
func (v *Vector) Append(rs ReadState) {
	if v.inlineN < len(v.inline) {
		v.inline[v.inlineN] = rs
		v.inlineN++
		return
	}
	v.overflow = append(v.overflow, rs)
}

// Reset empties the vector without releasing overflow's backing array,
// so repeated clear-then-refill cycles (e.g. predicated clearing) don't
// churn the allocator.
func (v *Vector) Reset() {
	v.inlineN = 0
	v.overflow = v.overflow[:0]
}

// Each calls fn for every stored read, in insertion order.
func (v *Vector) Each(fn func(*ReadState)) {
	for i := 0; i < v.Len(); i++ {
		fn(v.At(i))
	}
}

// Clone returns an independent deep copy of v.
func (v *Vector) Clone() Vector {
	out := Vector{inlineN: v.inlineN}
	copy(out.inline[:], v.inline[:])
	if len(v.overflow) > 0 {
		out.overflow = append([]ReadState(nil), v.overflow...)
	}
	return out
}
