// Package scopeexpand implements component B: expansion of a recorded
// source/destination stage+access pair into the concrete stage mask and
// access scope an access-state update or hazard check compares against,
// plus the small set of attachment "ordering rule" presets a subpass's
// load/store operations are checked against.
package scopeexpand

import (
	"github.com/ehrlich-b/go-syncval/internal/accessscope"
	"github.com/ehrlich-b/go-syncval/internal/core"
)

// ExecScope holds an expanded stage mask. It keeps only the concrete
// stages; the meta-stage bits it was expanded from are not retained.
type ExecScope struct {
	Stages core.StageMask
}

// Barrier is a fully expanded src/dst scope pair — what component H
// applies to an AccessState.
type Barrier struct {
	SrcExec   ExecScope
	SrcAccess accessscope.Scope
	DstExec   ExecScope
	DstAccess accessscope.Scope
}

// Ordering is one of the small set of attachment load/store ordering
// rules a subpass dependency may request, mirroring the SyncOrdering
// enum of the system this package's algorithms are grounded on.
type Ordering uint8

const (
	OrderingNone Ordering = iota
	OrderingColorAttachment
	OrderingDepthStencilAttachment
	OrderingRaster
)

// OrderingBarrier is a preset (exec scope, access scope) pair describing
// "what counts as already ordered" for a given Ordering — e.g. for
// OrderingColorAttachment, writes to a color attachment by an earlier
// subpass are considered ordered (not hazards) against reads/writes by a
// later one, because the renderpass's implicit subpass dependency
// already chains them.
type OrderingBarrier struct {
	ExecScope   core.StageMask
	AccessScope accessscope.Scope
}

var orderingPresets [4]OrderingBarrier

func init() {
	orderingPresets[OrderingNone] = OrderingBarrier{
		ExecScope:   0,
		AccessScope: accessscope.New(),
	}
	orderingPresets[OrderingColorAttachment] = OrderingBarrier{
		ExecScope: core.StageColorAttachmentOutput,
		AccessScope: accessscope.Of(
			core.AccessColorAttachmentRead,
			core.AccessColorAttachmentWrite,
		),
	}
	orderingPresets[OrderingDepthStencilAttachment] = OrderingBarrier{
		ExecScope: core.StageEarlyFragmentTests | core.StageLateFragmentTests,
		AccessScope: accessscope.Of(
			core.AccessEarlyFragmentTestsDepthStencilRead,
			core.AccessEarlyFragmentTestsDepthStencilWrite,
			core.AccessLateFragmentTestsDepthStencilRead,
			core.AccessLateFragmentTestsDepthStencilWrite,
		),
	}
	raster := orderingPresets[OrderingColorAttachment]
	raster.ExecScope |= orderingPresets[OrderingDepthStencilAttachment].ExecScope
	raster.AccessScope = raster.AccessScope.Union(orderingPresets[OrderingDepthStencilAttachment].AccessScope)
	orderingPresets[OrderingRaster] = raster
}

// GetOrderingRules returns the preset OrderingBarrier for o.
func GetOrderingRules(o Ordering) OrderingBarrier {
	return orderingPresets[o]
}

// Flag is a bitmask of side annotations carried alongside an access,
// distinct from the access scope itself: whether it originates from a
// render-pass load/store op, or from a present operation.
type Flag uint32

const (
	FlagLoadOp Flag = 1 << iota
	FlagStoreOp
	FlagPresent
	FlagMarker
)

// MakeExecScope expands meta-stage bits in mask (ALL_GRAPHICS,
// ALL_COMMANDS) against the given queue capability flags, and removes
// any stage disabled for this device/queue combination.
func MakeExecScope(mask core.StageMask, flags core.QueueFlags, disabled core.StageMask) ExecScope {
	return ExecScope{Stages: core.ExpandMeta(mask, flags, disabled)}
}

// AccessScopeFor expands the given access indices — resolving the
// SHADER_READ/SHADER_WRITE meta-accesses against stageScope and applying
// the acceleration-structure build/copy alias patch — into a concrete
// accessscope.Scope.
func AccessScopeFor(indices []core.AccessIndex, stageScope core.StageMask, shaderRead, shaderWrite bool) accessscope.Scope {
	expanded := core.ExpandMetaAccess(indices, stageScope, shaderRead, shaderWrite)
	expanded = append(expanded, core.AccelerationStructureAliasPatch(expanded)...)
	return accessscope.Of(expanded...)
}

// MakeSrc builds the expanded source half of a barrier: its execution
// scope widened to EarlierOrEqual (a source stage synchronizes with
// everything logically at or before it) and its access scope as given.
func MakeSrc(stages core.StageMask, indices []core.AccessIndex, flags core.QueueFlags, disabled core.StageMask, shaderRead, shaderWrite bool) (ExecScope, accessscope.Scope) {
	exec := MakeExecScope(stages, flags, disabled)
	exec.Stages = core.EarlierOrEqual(exec.Stages)
	return exec, AccessScopeFor(indices, exec.Stages, shaderRead, shaderWrite)
}

// MakeDst builds the expanded destination half of a barrier: its
// execution scope widened to LaterOrEqual (a destination stage
// synchronizes with everything logically at or after it).
func MakeDst(stages core.StageMask, indices []core.AccessIndex, flags core.QueueFlags, disabled core.StageMask, shaderRead, shaderWrite bool) (ExecScope, accessscope.Scope) {
	exec := MakeExecScope(stages, flags, disabled)
	exec.Stages = core.LaterOrEqual(exec.Stages)
	return exec, AccessScopeFor(indices, exec.Stages, shaderRead, shaderWrite)
}

// NewBarrier expands a recorded src/dst stage+access pair into a
// fully-resolved Barrier ready for component H to apply.
func NewBarrier(srcStages, dstStages core.StageMask, srcIndices, dstIndices []core.AccessIndex, flags core.QueueFlags, disabled core.StageMask, shaderReadSrc, shaderWriteSrc, shaderReadDst, shaderWriteDst bool) Barrier {
	srcExec, srcAccess := MakeSrc(srcStages, srcIndices, flags, disabled, shaderReadSrc, shaderWriteSrc)
	dstExec, dstAccess := MakeDst(dstStages, dstIndices, flags, disabled, shaderReadDst, shaderWriteDst)
	return Barrier{SrcExec: srcExec, SrcAccess: srcAccess, DstExec: dstExec, DstAccess: dstAccess}
}
