package accessstate

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// TestBarrierAlwaysClearsItsOwnDestinationHazard is a property check of
// the §4.C/§4.E contract: committing a barrier whose destination access
// scope contains some access index must clear the WAW/RAW hazard that
// same index would otherwise report against the write already recorded.
func TestBarrierAlwaysClearsItsOwnDestinationHazard(t *testing.T) {
	indices := core.AllAccessIndices()

	rapid.Check(t, func(rt *rapid.T) {
		srcIdx := rapid.SampledFrom(indices).Draw(rt, "srcIdx")
		dstIdx := rapid.SampledFrom(indices).Draw(rt, "dstIdx")
		if !core.IsWrite(srcIdx) {
			return
		}
		// AccessImageLayoutTransition is detected via detectLayoutTransition,
		// a different dataflow (it only ever arrives through ApplyBarrier's
		// layoutTransition=true path in practice), not the plain barrier
		// visibility this property checks.
		if dstIdx == core.AccessImageLayoutTransition {
			return
		}

		s := New()
		s.Update(Usage{Access: srcIdx, Stage: core.StageOf(srcIdx), Tag: tag(1)}, scopeexpand.OrderingNone, 0)

		barrier := scopeexpand.NewBarrier(
			core.StageOf(srcIdx), core.StageOf(dstIdx),
			[]core.AccessIndex{srcIdx}, []core.AccessIndex{dstIdx},
			core.QueueGraphics|core.QueueCompute|core.QueueTransfer, 0, false, false, false, false,
		)
		s.ApplyBarrier(Untagged{}, barrier, false)
		s.CommitPending(2, core.NoHandleIndex)

		res := s.Detect(Usage{Access: dstIdx, Stage: core.StageOf(dstIdx), Tag: tag(3)}, noOrdering(), 0)
		if res.IsHazard() {
			rt.Fatalf("Detect(%s) after a barrier whose dst access explicitly covers it reported %s", core.Info(dstIdx).Name, res.Hazard)
		}
	})
}

// TestResolveIsCommutativeOnWriteTagOrdering checks that merging two
// States via Resolve always keeps whichever write has the later tag,
// independent of which State initiates the call.
func TestResolveIsCommutativeOnWriteTagOrdering(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tagA := rapid.Int64Range(0, 1000).Draw(rt, "tagA")
		tagB := rapid.Int64Range(0, 1000).Draw(rt, "tagB")
		if tagA == tagB {
			return
		}

		a := New()
		a.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(tagA)}, scopeexpand.OrderingNone, 0)
		b := New()
		b.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(tagB)}, scopeexpand.OrderingNone, 1)

		a.Resolve(b)

		want := tagA
		if tagB > tagA {
			want = tagB
		}
		if int64(a.LastWrite.Tag) != want {
			rt.Fatalf("Resolve should keep the later tag: got %d, want %d", a.LastWrite.Tag, want)
		}
	})
}
