// Package accessstate implements components C, D and E: the per-range
// access-state machine that detects and records hazards between GPU
// commands, plus the barrier/semaphore/event application rules that
// mutate it.
package accessstate

import (
	"github.com/ehrlich-b/go-syncval/internal/accessscope"
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// State is component E: the per-range access-state machine — at most one
// write and one read per pipeline stage, plus the bookkeeping needed to
// classify the next access against them.
type State struct {
	LastWrite *WriteState
	LastReads Vector

	LastReadStages        core.StageMask
	ReadExecutionBarriers core.StageMask
	InputAttachmentRead   bool

	PendingLayoutTransition bool

	FirstAccesses            FirstAccessLog
	FirstReadStages          core.StageMask
	FirstWriteLayoutOrdering scopeexpand.OrderingBarrier
}

// New returns an empty State, as installed for a range on its first
// access.
func New() *State {
	return &State{}
}

// Clone returns an independent deep copy of s, used to populate a
// HazardResult snapshot and by Resolve/event-set snapshotting.
func (s *State) Clone() *State {
	out := &State{
		LastReads:               s.LastReads.Clone(),
		LastReadStages:          s.LastReadStages,
		ReadExecutionBarriers:   s.ReadExecutionBarriers,
		InputAttachmentRead:     s.InputAttachmentRead,
		PendingLayoutTransition: s.PendingLayoutTransition,
		FirstAccesses:           s.FirstAccesses.Clone(),
		FirstReadStages:         s.FirstReadStages,
		FirstWriteLayoutOrdering: s.FirstWriteLayoutOrdering,
	}
	if s.LastWrite != nil {
		w := *s.LastWrite
		w.Barriers = s.LastWrite.Barriers.Clone()
		w.PendingBarriers = s.LastWrite.PendingBarriers.Clone()
		out.LastWrite = &w
	}
	return out
}

// recomputeReadAggregates refreshes LastReadStages and
// ReadExecutionBarriers from the current LastReads vector, per the §3
// AccessState invariant.
func (s *State) recomputeReadAggregates() {
	var stages, barriers core.StageMask
	s.LastReads.Each(func(r *ReadState) {
		stages |= r.Stage
		barriers |= r.Barriers
	})
	s.LastReadStages = stages
	s.ReadExecutionBarriers = barriers
}

// orderedStages is §4.E ordered_stages(state, queue, ordering): the
// subset of last-read stages in ordering's exec scope, issued on queue.
// If ordering's access scope contains the input-attachment-read bit and
// the range has recorded an input-attachment read, FRAGMENT_SHADER is
// added.
func (s *State) orderedStages(queue core.QueueID, ordering scopeexpand.OrderingBarrier) core.StageMask {
	var out core.StageMask
	s.LastReads.Each(func(r *ReadState) {
		if r.Queue == queue && (r.Stage&ordering.ExecScope) != 0 {
			out |= r.Stage
		}
	})
	if s.InputAttachmentRead && ordering.AccessScope.Test(core.AccessFragmentShaderInputAttachmentRead) {
		out |= core.StageFragmentShader
	}
	return out
}

// Detect is §4.E hazard detection: classify usage against the state
// without mutating it.
func (s *State) Detect(usage Usage, ordering scopeexpand.OrderingBarrier, queue core.QueueID) HazardResult {
	switch {
	case usage.IsRead():
		return s.detectRead(usage, ordering, queue)
	case usage.Access == core.AccessImageLayoutTransition:
		return s.detectLayoutTransition(usage, ordering, queue)
	default:
		return s.detectWrite(usage, ordering, queue)
	}
}

func (s *State) detectRead(usage Usage, ordering scopeexpand.OrderingBarrier, queue core.QueueID) HazardResult {
	if s.LastWrite == nil {
		return HazardResult{}
	}
	if (s.ReadExecutionBarriers & usage.Stage) != 0 {
		return HazardResult{}
	}
	if !s.LastWrite.IsWriteHazard(usage.Access) {
		return HazardResult{}
	}
	raw := true
	if ordering.AccessScope.Any() || ordering.ExecScope != 0 {
		mostRecentOrdered := s.LastWrite.IsOrdered(ordering, queue) || s.orderedStages(queue, ordering) != 0
		raw = !mostRecentOrdered
	}
	if !raw {
		return HazardResult{}
	}
	return s.priorWriteResult(HazardReadAfterWrite, usage)
}

func (s *State) detectLayoutTransition(usage Usage, ordering scopeexpand.OrderingBarrier, queue core.QueueID) HazardResult {
	return s.detectBarrierHazard(usage, queue, ordering.ExecScope, ordering.AccessScope)
}

// detectBarrierHazard checks usage (an image-layout-transition write)
// against every accumulated write/read as if it were itself a barrier
// application with the given source scope — used when a layout
// transition is recorded as a plain access rather than via ApplyBarrier.
func (s *State) detectBarrierHazard(usage Usage, queue core.QueueID, srcExec core.StageMask, srcAccess accessscope.Scope) HazardResult {
	if s.LastWrite != nil && s.LastWrite.IsWriteBarrierHazard(queue, srcExec, srcAccess) {
		return s.priorWriteResult(HazardWriteAfterWrite, usage)
	}
	var hazardRead *ReadState
	s.LastReads.Each(func(r *ReadState) {
		if hazardRead != nil {
			return
		}
		if r.IsReadBarrierHazard(queue, srcExec, srcAccess) {
			hazardRead = r
		}
	})
	if hazardRead != nil {
		return s.priorReadResult(HazardWriteAfterRead, usage, hazardRead)
	}
	return HazardResult{}
}

func (s *State) detectWrite(usage Usage, ordering scopeexpand.OrderingBarrier, queue core.QueueID) HazardResult {
	writeIsOrdered := ordering.AccessScope.Test(usage.Access)
	if s.LastReads.Len() > 0 {
		var orderedStages core.StageMask
		if writeIsOrdered {
			orderedStages = s.orderedStages(queue, ordering)
		}
		var result HazardResult
		found := false
		s.LastReads.Each(func(r *ReadState) {
			if found {
				return
			}
			if r.Stage&orderedStages != 0 {
				return
			}
			if r.IsReadHazard(usage.Stage) {
				result = s.priorReadResult(HazardWriteAfterRead, usage, r)
				found = true
			}
		})
		if found {
			return result
		}
		return HazardResult{}
	}
	if s.LastWrite == nil {
		return HazardResult{}
	}
	if s.LastWrite.IsOrdered(ordering, queue) && writeIsOrdered {
		return HazardResult{}
	}
	if s.isBackToBackLayoutTransition(usage) {
		if !s.LastWrite.PendingLayoutOrdering.AccessScope.Intersects(ordering.AccessScope) &&
			!s.LastWrite.Barriers.Intersects(ordering.AccessScope) {
			return s.priorWriteResult(HazardWriteAfterWrite, usage)
		}
		return HazardResult{}
	}
	if s.LastWrite.IsWriteHazard(usage.Access) {
		return s.priorWriteResult(HazardWriteAfterWrite, usage)
	}
	return HazardResult{}
}

// isBackToBackLayoutTransition is the §4.C special case: two successive
// image-layout-transition writes on the same queue are treated as
// in-order, not a hazard, unless the first's recorded barriers miss the
// ordering scope the second needs.
func (s *State) isBackToBackLayoutTransition(usage Usage) bool {
	return usage.Access == core.AccessImageLayoutTransition &&
		s.LastWrite.AccessIndex == core.AccessImageLayoutTransition &&
		s.LastWrite.Queue == usage.Queue
}

func (s *State) priorWriteResult(base Hazard, usage Usage) HazardResult {
	hazard := remapPresent(base, s.LastWrite.IsPresent(), usage.Flags&scopeexpand.FlagPresent != 0)
	return HazardResult{
		Hazard:      hazard,
		PriorAccess: s.LastWrite.AccessIndex,
		PriorTag:    core.ExtendedTag{Tag: s.LastWrite.Tag, HandleIndex: s.LastWrite.HandleIndex},
		PriorQueue:  s.LastWrite.Queue,
		Usage:       usage,
		Snapshot:    s.Clone(),
	}
}

func (s *State) priorReadResult(base Hazard, usage Usage, r *ReadState) HazardResult {
	hazard := remapPresent(base, false, usage.Flags&scopeexpand.FlagPresent != 0)
	return HazardResult{
		Hazard:      hazard,
		PriorAccess: r.AccessIndex,
		PriorTag:    core.ExtendedTag{Tag: r.Tag, HandleIndex: r.HandleIndex},
		PriorQueue:  r.Queue,
		Usage:       usage,
		Snapshot:    s.Clone(),
	}
}

// DetectAsync is §4.E's asynchronous hazard check: unlike Detect, it
// takes no OrderingBarrier, because there is by definition no barrier or
// subpass dependency connecting usage to whatever s already holds — it
// is the check for two pieces of work with no edge between them in the
// dependency DAG (independent subpasses, or two batches on the same
// queue that no semaphore/barrier has yet linked). A prior write on queue
// at or after startTag races with any usage, and a prior read on queue at
// or after startTag races with a write usage, regardless of stage or
// access-scope membership; a read usage never races with a prior read.
func (s *State) DetectAsync(usage Usage, queue core.QueueID, startTag core.Tag) HazardResult {
	racingWrite := s.LastWrite != nil && s.LastWrite.Queue == queue && s.LastWrite.Tag >= startTag
	if usage.IsRead() {
		if racingWrite {
			return s.asyncPriorWriteResult(HazardReadRacingWrite, usage)
		}
		return HazardResult{}
	}
	if racingWrite {
		return s.asyncPriorWriteResult(HazardWriteRacingWrite, usage)
	}
	var result HazardResult
	found := false
	s.LastReads.Each(func(r *ReadState) {
		if found {
			return
		}
		if r.Queue == queue && r.Tag >= startTag {
			result = s.asyncPriorReadResult(HazardWriteRacingRead, usage, r)
			found = true
		}
	})
	return result
}

func (s *State) asyncPriorWriteResult(hazard Hazard, usage Usage) HazardResult {
	return HazardResult{
		Hazard:      hazard,
		PriorAccess: s.LastWrite.AccessIndex,
		PriorTag:    core.ExtendedTag{Tag: s.LastWrite.Tag, HandleIndex: s.LastWrite.HandleIndex},
		PriorQueue:  s.LastWrite.Queue,
		Usage:       usage,
		Snapshot:    s.Clone(),
	}
}

func (s *State) asyncPriorReadResult(hazard Hazard, usage Usage, r *ReadState) HazardResult {
	return HazardResult{
		Hazard:      hazard,
		PriorAccess: r.AccessIndex,
		PriorTag:    core.ExtendedTag{Tag: r.Tag, HandleIndex: r.HandleIndex},
		PriorQueue:  r.Queue,
		Usage:       usage,
		Snapshot:    s.Clone(),
	}
}

// DetectAsyncFromLog replays recorded's first-use log against s, calling
// DetectAsync for each entry whose tag falls in [tagBegin, tagEnd). This
// is the async counterpart of DetectRecorded, used to find racing hazards
// between a recorded/secondary context and anything already recorded
// here with no barrier connecting the two.
func (s *State) DetectAsyncFromLog(recorded *FirstAccessLog, tagBegin, tagEnd, startTag core.Tag, queue core.QueueID) HazardResult {
	for _, e := range recorded.Entries() {
		if e.Tag.Tag < tagBegin || e.Tag.Tag >= tagEnd {
			continue
		}
		usage := Usage{Access: e.Access, Tag: e.Tag, Flags: e.Flags}
		if hazard := s.DetectAsync(usage, queue, startTag); hazard.IsHazard() {
			entry := e
			hazard.RecordedAccess = &entry
			return hazard
		}
	}
	return HazardResult{}
}

// DetectRecorded replays recorded's first-use log against s — §3
// FirstAccess: "the recorded first-use log is checked against the active
// state". Every entry whose tag falls within [tagBegin, tagEnd) is
// checked in turn under its own recorded ordering rule; the first hazard
// found stops the walk and carries the triggering log entry in
// HazardResult.RecordedAccess. If the log is closed, its final entry (the
// write that closed it) is checked last under a widened ordering rule
// that folds in recorded's first-read stages and layout-transition
// ordering, mirroring how that write would have been checked had the
// whole log been recorded directly into s.
func (s *State) DetectRecorded(recorded *State, queue core.QueueID, tagBegin, tagEnd core.Tag) HazardResult {
	entries := recorded.FirstAccesses.Entries()
	if len(entries) == 0 {
		return HazardResult{}
	}
	count := len(entries)
	doWriteLast := recorded.FirstAccesses.Closed()
	if doWriteLast {
		count--
	}
	for i := 0; i < count; i++ {
		e := entries[i]
		if e.Tag.Tag < tagBegin {
			continue
		}
		if e.Tag.Tag >= tagEnd {
			doWriteLast = false
			break
		}
		usage := Usage{Access: e.Access, Tag: e.Tag, Flags: e.Flags}
		ordering := scopeexpand.GetOrderingRules(e.Ordering)
		if hazard := s.Detect(usage, ordering, queue); hazard.IsHazard() {
			entry := e
			hazard.RecordedAccess = &entry
			return hazard
		}
	}
	if !doWriteLast {
		return HazardResult{}
	}
	last := entries[len(entries)-1]
	if last.Tag.Tag < tagBegin || last.Tag.Tag >= tagEnd {
		return HazardResult{}
	}
	ordering := scopeexpand.GetOrderingRules(last.Ordering)
	if last.Access == core.AccessImageLayoutTransition {
		ordering.ExecScope |= recorded.FirstWriteLayoutOrdering.ExecScope
		ordering.AccessScope = ordering.AccessScope.Union(recorded.FirstWriteLayoutOrdering.AccessScope)
	}
	if recorded.FirstReadStages != 0 {
		ordering.ExecScope |= recorded.FirstReadStages
		ordering.AccessScope = ordering.AccessScope.Union(accessscope.Of(last.Access))
	}
	usage := Usage{Access: last.Access, Tag: last.Tag, Flags: last.Flags}
	if hazard := s.Detect(usage, ordering, queue); hazard.IsHazard() {
		entry := last
		hazard.RecordedAccess = &entry
		return hazard
	}
	return HazardResult{}
}

// Update records a non-hazardous access, per §4.E Update.
func (s *State) Update(usage Usage, ordering scopeexpand.Ordering, queue core.QueueID) {
	if usage.IsRead() {
		s.updateRead(usage, queue)
	} else {
		s.setWrite(usage, queue)
	}
	s.appendFirstAccess(usage, ordering)
}

func (s *State) updateRead(usage Usage, queue core.QueueID) {
	r := s.LastReads.Find(usage.Stage)
	if r == nil {
		s.LastReads.Append(ReadState{})
		r = s.LastReads.At(s.LastReads.Len() - 1)
		r.Set(usage.Stage, usage.Access, usage.Tag, queue)
	} else {
		r.Set(usage.Stage, usage.Access, usage.Tag, queue)
	}
	// Clear this stage's sync_stages unless barriered to itself; fix up
	// every other stage's sync_stages against that read's own barriers.
	r.SyncStages &^= usage.Stage
	s.LastReads.Each(func(other *ReadState) {
		if other == r {
			return
		}
		if other.Barriers&r.Stage != 0 {
			other.SyncStages |= r.Stage
		} else {
			other.SyncStages &^= r.Stage
		}
	})
	if usage.Stage == core.StageFragmentShader {
		s.InputAttachmentRead = usage.Access == core.AccessFragmentShaderInputAttachmentRead
	}
	s.recomputeReadAggregates()
}

func (s *State) setWrite(usage Usage, queue core.QueueID) {
	s.LastReads.Reset()
	s.LastReadStages = 0
	s.ReadExecutionBarriers = 0
	s.InputAttachmentRead = false
	if s.LastWrite == nil {
		s.LastWrite = NewWrite(usage.Access, usage.Tag, queue, usage.Flags)
		return
	}
	pendingBarriers := s.LastWrite.PendingBarriers
	pendingDepChain := s.LastWrite.PendingDepChain
	s.LastWrite.Set(usage.Access, usage.Tag, queue, usage.Flags)
	s.LastWrite.PendingBarriers = pendingBarriers
	s.LastWrite.PendingDepChain = pendingDepChain
}

func (s *State) appendFirstAccess(usage Usage, ordering scopeexpand.Ordering) {
	if s.FirstAccesses.Closed() {
		return
	}
	if usage.IsRead() && (s.ReadExecutionBarriers&usage.Stage) != 0 {
		return
	}
	s.FirstAccesses.Append(FirstAccessEntry{
		Access:   usage.Access,
		Tag:      usage.Tag,
		Ordering: ordering,
		Flags:    usage.Flags,
	})
	if usage.IsRead() {
		s.FirstReadStages |= usage.Stage
	}
}

// OffsetTags shifts every tag recorded in s by delta: the committed
// write's tag, every read's tag, and every first-access log entry's tag.
// This is how a secondary command buffer's locally-tagged first-use log
// and access state are rebased onto a primary context's tag space when
// the secondary is replayed into it.
func (s *State) OffsetTags(delta core.Tag) {
	if s.LastWrite != nil {
		s.LastWrite.Tag += delta
	}
	s.LastReads.Each(func(r *ReadState) {
		r.Tag += delta
	})
	s.FirstAccesses.OffsetTags(delta)
}

// Resolve merges other into s over the same range — §4.E Resolve. The
// caller is responsible for having already reported or ruled out hazards
// between the two (e.g. because other is a secondary/async context).
func (s *State) Resolve(other *State) {
	switch {
	case s.LastWrite != nil && other.LastWrite != nil:
		if other.LastWrite.Tag > s.LastWrite.Tag {
			merged := *other.LastWrite
			merged.Barriers = other.LastWrite.Barriers.Clone()
			merged.PendingBarriers = other.LastWrite.PendingBarriers.Clone()
			merged.MergeBarriers(s.LastWrite)
			s.LastWrite = &merged
		} else if other.LastWrite.Tag == s.LastWrite.Tag {
			s.LastWrite.MergeBarriers(other.LastWrite)
		}
		s.mergeReads(other)
	case other.LastWrite != nil:
		w := *other.LastWrite
		w.Barriers = other.LastWrite.Barriers.Clone()
		w.PendingBarriers = other.LastWrite.PendingBarriers.Clone()
		s.LastWrite = &w
		s.LastReads = other.LastReads.Clone()
		s.recomputeReadAggregates()
		s.InputAttachmentRead = other.InputAttachmentRead
	case s.LastWrite != nil:
		// keep s as-is
	default:
		s.mergeReads(other)
	}
	s.FirstAccesses.MergeFrom(&other.FirstAccesses)
}

// mergeReads implements the §4.E read merge rule: for each read in
// other, if a read on the same stage exists here, keep the later tag and
// adopt its barriers (union on tie); otherwise append.
func (s *State) mergeReads(other *State) {
	other.LastReads.Each(func(o *ReadState) {
		if existing := s.LastReads.Find(o.Stage); existing != nil {
			switch {
			case o.Tag > existing.Tag:
				*existing = *o
			case o.Tag == existing.Tag:
				existing.Barriers |= o.Barriers
				existing.SyncStages |= o.SyncStages
			}
			return
		}
		s.LastReads.Append(*o)
	})
	s.recomputeReadAggregates()
}
