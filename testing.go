package syncval

import (
	"sync/atomic"

	"github.com/ehrlich-b/go-syncval/internal/accessstate"
	"github.com/ehrlich-b/go-syncval/internal/barrier"
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// TraceOp is one recorded operation in a synthetic access trace: either
// an access (Kind == "access") or a barrier application (Kind ==
// "barrier"). It is the shape both test fixtures and cmd/syncreplay's
// JSON trace files build on, so a trace authored for a test can be
// dumped to JSON and replayed by the example binary unchanged.
type TraceOp struct {
	Kind string `json:"kind"`

	Range Range `json:"range"`

	// Access op fields.
	Access   AccessIndex `json:"access,omitempty"`
	Stage    StageMask   `json:"stage,omitempty"`
	Ordering Ordering    `json:"ordering,omitempty"`
	Tag      ExtendedTag `json:"tag,omitempty"`
	Queue    QueueID     `json:"queue,omitempty"`

	// Barrier op fields.
	SrcStage   StageMask     `json:"src_stage,omitempty"`
	DstStage   StageMask     `json:"dst_stage,omitempty"`
	SrcAccess  []AccessIndex `json:"src_access,omitempty"`
	DstAccess  []AccessIndex `json:"dst_access,omitempty"`
	BarrierTag Tag           `json:"barrier_tag,omitempty"`
}

// AccessOp builds a TraceOp recording a plain access.
func AccessOp(r Range, access AccessIndex, stage StageMask, ordering Ordering, tag ExtendedTag, queue QueueID) TraceOp {
	return TraceOp{Kind: "access", Range: r, Access: access, Stage: stage, Ordering: ordering, Tag: tag, Queue: queue}
}

// BarrierOp builds a TraceOp recording a pipeline barrier spanning r.
func BarrierOp(r Range, srcStage, dstStage StageMask, srcAccess, dstAccess []AccessIndex, tag Tag) TraceOp {
	return TraceOp{Kind: "barrier", Range: r, SrcStage: srcStage, DstStage: dstStage, SrcAccess: srcAccess, DstAccess: dstAccess, BarrierTag: tag}
}

// ReplayResult pairs the TraceOp that produced it with the HazardResult
// Context.Update returned, for ops whose Update reported a hazard.
type ReplayResult struct {
	Index  int          `json:"index"`
	Op     TraceOp      `json:"op"`
	Hazard HazardResult `json:"hazard"`
}

// ReplayTrace runs ops against ctx in order, collecting every hazard
// Update reports. Barrier ops are applied as a single-item Untagged
// batch; callers needing ScopeOps other than Untagged should drive
// ctx.ApplyBarrierBatch directly instead of going through a trace.
func ReplayTrace(ctx *Context, ops []TraceOp, flags QueueFlags, disabled StageMask) []ReplayResult {
	var results []ReplayResult
	for i, op := range ops {
		switch op.Kind {
		case "barrier":
			b := scopeexpand.NewBarrier(op.SrcStage, op.DstStage, op.SrcAccess, op.DstAccess, flags, disabled, true, true, true, true)
			item := barrier.Item{Barrier: b, Scope: accessstate.Untagged{}}
			ctx.ApplyBarrierBatch(op.Range, []barrier.Item{item}, op.BarrierTag, core.NoHandleIndex)
		default:
			res := ctx.Update(op.Range, op.Access, op.Stage, op.Ordering, op.Tag, op.Queue)
			if res.IsHazard() {
				results = append(results, ReplayResult{Index: i, Op: op, Hazard: res})
			}
		}
	}
	return results
}

// CountingObserver is a test double implementing Observer, tracking how
// many times each callback fired — the Metrics-package analogue of the
// teacher's MockBackend call-count tracking.
type CountingObserver struct {
	detectCalls  atomic.Int64
	updateCalls  atomic.Int64
	resolveCalls atomic.Int64
	barrierCalls atomic.Int64
	semaphoreOps atomic.Int64
	eventOps     atomic.Int64
}

func (o *CountingObserver) ObserveDetect(uint8, uint64)   { o.detectCalls.Add(1) }
func (o *CountingObserver) ObserveUpdate()                { o.updateCalls.Add(1) }
func (o *CountingObserver) ObserveResolve()               { o.resolveCalls.Add(1) }
func (o *CountingObserver) ObserveBarrierBatch(bool)       { o.barrierCalls.Add(1) }
func (o *CountingObserver) ObserveSemaphoreOp(bool)        { o.semaphoreOps.Add(1) }
func (o *CountingObserver) ObserveEventOp(string)          { o.eventOps.Add(1) }

// CallCounts returns a snapshot of every counter, keyed by callback name.
func (o *CountingObserver) CallCounts() map[string]int64 {
	return map[string]int64{
		"detect":    o.detectCalls.Load(),
		"update":    o.updateCalls.Load(),
		"resolve":   o.resolveCalls.Load(),
		"barrier":   o.barrierCalls.Load(),
		"semaphore": o.semaphoreOps.Load(),
		"event":     o.eventOps.Load(),
	}
}

// Reset zeroes every counter.
func (o *CountingObserver) Reset() {
	o.detectCalls.Store(0)
	o.updateCalls.Store(0)
	o.resolveCalls.Store(0)
	o.barrierCalls.Store(0)
	o.semaphoreOps.Store(0)
	o.eventOps.Store(0)
}

var _ Observer = (*CountingObserver)(nil)
