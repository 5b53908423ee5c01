package syncval

import (
	"github.com/ehrlich-b/go-syncval/internal/accessscope"
	"github.com/ehrlich-b/go-syncval/internal/accessstate"
	"github.com/ehrlich-b/go-syncval/internal/barrier"
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/rangemap"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// Re-exported data-model types (§3), so callers never need to import an
// internal package directly to drive a Context.
type (
	Address          = core.Address
	Range            = core.Range
	Tag              = core.Tag
	ExtendedTag      = core.ExtendedTag
	QueueID          = core.QueueID
	QueueFlags       = core.QueueFlags
	StageMask        = core.StageMask
	AccessIndex      = core.AccessIndex
	AccessKind       = core.AccessKind
	AccessInfo       = core.AccessInfo
	AccessScope      = accessscope.Scope
	Ordering         = scopeexpand.Ordering
	OrderingBarrier  = scopeexpand.OrderingBarrier
	SyncBarrier      = scopeexpand.Barrier
	ExecScope        = scopeexpand.ExecScope
	Flag             = scopeexpand.Flag
	Hazard           = accessstate.Hazard
	HazardResult     = accessstate.HazardResult
	Usage            = accessstate.Usage
	ScopeOps         = accessstate.ScopeOps
	FirstAccessEntry = accessstate.FirstAccessEntry
)

// Re-exported constructors and constants used at call sites.
var (
	NewRange       = core.NewRange
	NewAccessScope = accessscope.Of
)

const (
	InvalidTag   = core.InvalidTag
	InvalidQueue = core.InvalidQueue

	QueueGraphics = core.QueueGraphics
	QueueCompute  = core.QueueCompute
	QueueTransfer = core.QueueTransfer

	OrderingNone                   = scopeexpand.OrderingNone
	OrderingColorAttachment        = scopeexpand.OrderingColorAttachment
	OrderingDepthStencilAttachment = scopeexpand.OrderingDepthStencilAttachment
	OrderingRaster                 = scopeexpand.OrderingRaster

	FlagLoadOp  = scopeexpand.FlagLoadOp
	FlagStoreOp = scopeexpand.FlagStoreOp
	FlagPresent = scopeexpand.FlagPresent
	FlagMarker  = scopeexpand.FlagMarker

	HazardNone              = accessstate.HazardNone
	HazardReadAfterWrite    = accessstate.HazardReadAfterWrite
	HazardWriteAfterRead    = accessstate.HazardWriteAfterRead
	HazardWriteAfterWrite   = accessstate.HazardWriteAfterWrite
	HazardReadRacingWrite   = accessstate.HazardReadRacingWrite
	HazardWriteRacingWrite  = accessstate.HazardWriteRacingWrite
	HazardWriteRacingRead   = accessstate.HazardWriteRacingRead
	HazardWriteAfterPresent = accessstate.HazardWriteAfterPresent
	HazardReadAfterPresent  = accessstate.HazardReadAfterPresent
	HazardPresentAfterRead  = accessstate.HazardPresentAfterRead
	HazardPresentAfterWrite = accessstate.HazardPresentAfterWrite

	AccessNone                  = core.AccessNone
	AccessIndirectCommandRead   = core.AccessIndirectCommandRead
	AccessIndexRead             = core.AccessIndexRead
	AccessVertexAttributeRead   = core.AccessVertexAttributeRead
	AccessColorAttachmentRead   = core.AccessColorAttachmentRead
	AccessColorAttachmentWrite  = core.AccessColorAttachmentWrite
	AccessTransferRead          = core.AccessTransferRead
	AccessTransferWrite         = core.AccessTransferWrite
	AccessResolveRead           = core.AccessResolveRead
	AccessResolveWrite          = core.AccessResolveWrite
	AccessBlitRead              = core.AccessBlitRead
	AccessBlitWrite             = core.AccessBlitWrite
	AccessHostRead              = core.AccessHostRead
	AccessHostWrite             = core.AccessHostWrite
	AccessPresentRead           = core.AccessPresentRead
	AccessImageLayoutTransition = core.AccessImageLayoutTransition
	AccessComputeShaderStorageRead  = core.AccessComputeShaderStorageRead
	AccessComputeShaderStorageWrite = core.AccessComputeShaderStorageWrite
	AccessFragmentShaderInputAttachmentRead = core.AccessFragmentShaderInputAttachmentRead

	StageTopOfPipe             = core.StageTopOfPipe
	StageDrawIndirect          = core.StageDrawIndirect
	StageVertexInput           = core.StageVertexInput
	StageVertexShader          = core.StageVertexShader
	StageFragmentShader        = core.StageFragmentShader
	StageColorAttachmentOutput = core.StageColorAttachmentOutput
	StageComputeShader         = core.StageComputeShader
	StageCopy                  = core.StageCopy
	StageResolve               = core.StageResolve
	StageBlit                  = core.StageBlit
	StageHost                  = core.StageHost
	StagePresentEngine         = core.StagePresentEngine
	StageBottomOfPipe          = core.StageBottomOfPipe
	StageAllGraphics           = core.StageAllGraphics
	StageAllCommands           = core.StageAllCommands
)

// presentHazardBase maps the four present-remapped kinds folded back to
// their base when a Context's Config disables ReportPresentAsHazard.
var presentHazardBase = map[Hazard]Hazard{
	HazardWriteAfterPresent: HazardWriteAfterWrite,
	HazardReadAfterPresent:  HazardReadAfterWrite,
	HazardPresentAfterRead:  HazardWriteAfterRead,
	HazardPresentAfterWrite: HazardWriteAfterWrite,
}

// Context is the per-resource entry point: one address space's range map
// (components F/G), the barrier driver over it (component H), and the
// queue capability flags scope expansion (component B) needs. It is the
// unit the recorder calls update/detect against, per spec.md §2's
// dataflow paragraph.
type Context struct {
	cfg    *Config
	ranges *rangemap.Map
	driver *barrier.Driver

	queueFlags core.QueueFlags
	disabled   core.StageMask

	metrics  *Metrics
	observer Observer
	logger   Logger
}

// NewContext returns a Context over a fresh, empty range map for one
// resource, scoped to a queue family capability mask (used to expand
// ALL_GRAPHICS/ALL_COMMANDS meta-stages).
func NewContext(queueFlags core.QueueFlags, cfg *Config) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := rangemap.New()
	return &Context{
		cfg:        cfg,
		ranges:     m,
		driver:     barrier.New(m),
		queueFlags: queueFlags,
		metrics:    NewMetrics(),
		observer:   cfg.observer(),
		logger:     cfg.logger(),
	}
}

// Metrics returns the Context's own counters.
func (c *Context) Metrics() *Metrics { return c.metrics }

type detectUpdateOps struct {
	usage    accessstate.Usage
	ordering scopeexpand.Ordering
	queue    core.QueueID
	result   HazardResult
	found    bool
}

func (o *detectUpdateOps) Infill(core.Range) *accessstate.State {
	st := accessstate.New()
	st.Update(o.usage, o.ordering, o.queue)
	return st
}

func (o *detectUpdateOps) Update(e rangemap.Entry) {
	preset := scopeexpand.GetOrderingRules(o.ordering)
	if !o.found {
		if res := e.State.Detect(o.usage, preset, o.queue); res.IsHazard() {
			o.result = res
			o.found = true
			return
		}
	}
	e.State.Update(o.usage, o.ordering, o.queue)
}

// Detect runs the read-only hazard check over r without mutating any
// state, per spec.md §2's detect dataflow. It walks every sub-range r
// intersects and returns the first hazard found. Stored entries are
// neither split nor infilled.
func (c *Context) Detect(r core.Range, access core.AccessIndex, stage core.StageMask, ordering scopeexpand.Ordering, tag core.ExtendedTag, queue core.QueueID) HazardResult {
	usage := accessstate.Usage{
		Access: access,
		Stage:  scopeexpand.MakeExecScope(stage, c.queueFlags, c.disabled).Stages,
		Tag:    tag,
		Queue:  queue,
	}
	preset := scopeexpand.GetOrderingRules(ordering)

	var result HazardResult
	found := false
	c.ranges.Ascend(r, func(e rangemap.Entry) bool {
		if res := e.State.Detect(usage, preset, queue); res.IsHazard() {
			result = res
			found = true
			return false
		}
		return true
	})
	if found {
		result.Hazard = c.remapPresentIfDisabled(result.Hazard)
	}
	return result
}

// Update is spec.md §2's combined detect-then-update dataflow: it
// locates r's affected sub-ranges (splitting at boundaries and
// infilling gaps as needed) and checks the new access against each
// existing sub-range's state until the first hazard is found. The
// sub-range that reports that hazard is left unchanged; every other
// sub-range, before or after it, records the access, so validation can
// continue past the hazard. Only the first hazard is returned.
func (c *Context) Update(r core.Range, access core.AccessIndex, stage core.StageMask, ordering scopeexpand.Ordering, tag core.ExtendedTag, queue core.QueueID) HazardResult {
	usage := accessstate.Usage{
		Access: access,
		Stage:  scopeexpand.MakeExecScope(stage, c.queueFlags, c.disabled).Stages,
		Tag:    tag,
		Queue:  queue,
	}
	ops := &detectUpdateOps{usage: usage, ordering: ordering, queue: queue}
	c.ranges.InfillUpdateRange(r, ops)
	c.metrics.RecordUpdate()
	c.observer.ObserveUpdate()
	if ops.found {
		ops.result.Hazard = c.remapPresentIfDisabled(ops.result.Hazard)
		c.metrics.RecordDetect(uint8(ops.result.Hazard), 0)
		c.observer.ObserveDetect(uint8(ops.result.Hazard), 0)
	}
	return ops.result
}

func (c *Context) remapPresentIfDisabled(h Hazard) Hazard {
	if c.cfg.ReportPresentAsHazard {
		return h
	}
	if base, ok := presentHazardBase[h]; ok {
		return base
	}
	return h
}

// DetectAsync runs §4.E's asynchronous hazard check over r: a write or
// read already recorded on queue at or after startTag races with the new
// access regardless of ordering, because by construction there is no
// barrier or subpass dependency connecting the two accesses — e.g. two
// subpasses with no edge between them in the render pass's dependency
// DAG, or two batches on the same queue no semaphore has yet linked.
func (c *Context) DetectAsync(r core.Range, access core.AccessIndex, stage core.StageMask, tag core.ExtendedTag, queue core.QueueID, startTag core.Tag) HazardResult {
	usage := accessstate.Usage{
		Access: access,
		Stage:  scopeexpand.MakeExecScope(stage, c.queueFlags, c.disabled).Stages,
		Tag:    tag,
		Queue:  queue,
	}
	var result HazardResult
	found := false
	c.ranges.Ascend(r, func(e rangemap.Entry) bool {
		if res := e.State.DetectAsync(usage, queue, startTag); res.IsHazard() {
			result = res
			found = true
			return false
		}
		return true
	})
	if found {
		c.metrics.RecordDetect(uint8(result.Hazard), 0)
		c.observer.ObserveDetect(uint8(result.Hazard), 0)
	}
	return result
}

type detectRecordedOps struct {
	recorded         *accessstate.State
	queue            core.QueueID
	tagBegin, tagEnd core.Tag
	result           HazardResult
	found            bool
}

func (detectRecordedOps) Infill(core.Range) *accessstate.State { return accessstate.New() }

func (o *detectRecordedOps) Update(e rangemap.Entry) {
	if o.found {
		return
	}
	if res := e.State.DetectRecorded(o.recorded, o.queue, o.tagBegin, o.tagEnd); res.IsHazard() {
		o.result = res
		o.found = true
	}
}

// DetectRecorded replays other's first-use log over r against c — spec.md
// §3/§6 "recorded_access": a secondary/child context's recorded accesses
// are checked against c's active state the same way the live recorder
// would have checked them, without re-walking other's whole command
// stream. Only the portion of other's log whose tags fall in
// [tagBegin, tagEnd) is considered.
func (c *Context) DetectRecorded(r core.Range, other *Context, queue core.QueueID, tagBegin, tagEnd core.Tag) HazardResult {
	var result HazardResult
	other.ranges.Ascend(r, func(oe rangemap.Entry) bool {
		ops := &detectRecordedOps{recorded: oe.State, queue: queue, tagBegin: tagBegin, tagEnd: tagEnd}
		c.ranges.InfillUpdateRange(oe.Range, ops)
		if ops.found {
			result = ops.result
			return false
		}
		return true
	})
	if result.IsHazard() {
		c.metrics.RecordDetect(uint8(result.Hazard), 0)
		c.observer.ObserveDetect(uint8(result.Hazard), 0)
	}
	return result
}

// ApplyBarrierBatch applies a batch of independent barriers to r in one
// pass — component H — and consolidates afterward. tag/handleIndex stamp
// any placeholder layout-transition write the batch installs.
func (c *Context) ApplyBarrierBatch(r core.Range, items []barrier.Item, tag core.Tag, handleIndex uint32) {
	c.driver.ApplyBatch(r, items, tag, handleIndex)
	c.metrics.RecordBarrierBatch(true)
	c.observer.ObserveBarrierBatch(true)
}

// ApplySemaphore walks r applying component E's apply_semaphore to every
// entry, collapsing the dependency chain across a cross-queue semaphore
// signal/wait pair.
func (c *Context) ApplySemaphore(r core.Range, signalQueue core.QueueID, signalExec core.StageMask, signalAccess AccessScope, waitExec core.StageMask, waitAccess AccessScope) {
	c.ranges.Ascend(r, func(e rangemap.Entry) bool {
		e.State.ApplySemaphore(signalQueue, signalExec, signalAccess, waitExec, waitAccess)
		return true
	})
}

// ClearPredicated walks r applying predicated clearing (§4.E) to every
// entry — used by the cross-queue coordinator to resolve queue-waits,
// semaphore-waits, and acquire-matches.
func (c *Context) ClearPredicated(r core.Range, pred accessstate.ReadPredicate) {
	c.ranges.Ascend(r, func(e rangemap.Entry) bool {
		e.State.ClearPredicated(pred)
		return true
	})
}

// ResolveInto merges other's recorded state over r into c, used when
// absorbing a secondary/child context's accesses. Both contexts must
// cover the same address space; ranges present only in other are copied
// in directly.
func (c *Context) ResolveInto(r core.Range, other *Context) {
	other.ranges.Ascend(r, func(oe rangemap.Entry) bool {
		c.ranges.InfillUpdateRange(oe.Range, resolveOps{other: oe.State})
		return true
	})
	c.ranges.Consolidate(func(a, b *accessstate.State) bool {
		return a.LastWrite == nil && b.LastWrite == nil && a.LastReads.Len() == 0 && b.LastReads.Len() == 0
	})
}

type resolveOps struct {
	other *accessstate.State
}

func (o resolveOps) Infill(core.Range) *accessstate.State { return o.other.Clone() }

func (o resolveOps) Update(e rangemap.Entry) {
	e.State.Resolve(o.other)
}

// Len returns the number of stored ranges, mostly useful for tests
// asserting on split/consolidate behavior.
func (c *Context) Len() int { return c.ranges.Len() }

type offsetTagsOps struct{ delta core.Tag }

func (offsetTagsOps) Infill(core.Range) *accessstate.State { return accessstate.New() }

func (o offsetTagsOps) Update(e rangemap.Entry) {
	e.State.OffsetTags(o.delta)
}

// OffsetTags shifts every tag recorded over r by delta: used when a
// secondary command buffer's locally-tagged first-use log and access
// state are rebased onto this Context's tag space during replay.
func (c *Context) OffsetTags(r core.Range, delta core.Tag) {
	c.ranges.InfillUpdateRange(r, offsetTagsOps{delta: delta})
}

// SetEvent snapshots r's current state and records barrier/queue/tag on
// the named event registered with coord, so a later WaitEvent replays
// the barrier restricted to accesses that happened before tag on queue —
// §4.I Events.
func (c *Context) SetEvent(r core.Range, coord *Coordinator, name string, b SyncBarrier, queue core.QueueID, tag core.Tag) error {
	ev, ok := coord.inner.Event(name)
	if !ok {
		return &SubmissionError{Op: "SetEvent", Queue: int32(queue), Code: ErrUnknownEvent, Msg: "event " + name + " not registered"}
	}
	states := make(map[string]*accessstate.State)
	c.ranges.Ascend(r, func(e rangemap.Entry) bool {
		states[e.Range.String()] = e.State
		return true
	})
	ev.Set(b, queue, tag, states)
	return nil
}

// WaitEvent applies the barrier recorded by the most recent SetEvent on
// name, restricted to the Event(set_queue, set_tag) scope-ops, to r.
func (c *Context) WaitEvent(r core.Range, coord *Coordinator, name string) error {
	ev, ok := coord.inner.Event(name)
	if !ok {
		return &SubmissionError{Op: "WaitEvent", Queue: -1, Code: ErrUnknownEvent, Msg: "event " + name + " not registered"}
	}
	scope, hasSnapshot := ev.ScopeOps()
	if !hasSnapshot {
		return &SubmissionError{Op: "WaitEvent", Queue: -1, Code: ErrUnknownEvent, Msg: "event " + name + " has no recorded set"}
	}
	snapshot := ev.Snapshot()
	item := barrier.Item{Barrier: snapshot.Barrier, Scope: scope}
	c.ApplyBarrierBatch(r, []barrier.Item{item}, snapshot.SetTag, core.NoHandleIndex)
	return nil
}

// ResetEvent invalidates the named event's recorded snapshot.
func (c *Context) ResetEvent(coord *Coordinator, name string) error {
	ev, ok := coord.inner.Event(name)
	if !ok {
		return &SubmissionError{Op: "ResetEvent", Queue: -1, Code: ErrUnknownEvent, Msg: "event " + name + " not registered"}
	}
	ev.Reset()
	return nil
}
