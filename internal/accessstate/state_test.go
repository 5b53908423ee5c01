package accessstate

import (
	"testing"

	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

func tag(n int64) core.ExtendedTag {
	return core.ExtendedTag{Tag: core.Tag(n), HandleIndex: core.NoHandleIndex}
}

func noOrdering() scopeexpand.OrderingBarrier {
	return scopeexpand.GetOrderingRules(scopeexpand.OrderingNone)
}

func TestDetectReadAfterWrite(t *testing.T) {
	s := New()
	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1)}
	s.Update(write, scopeexpand.OrderingNone, 0)

	read := Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(2)}
	res := s.Detect(read, noOrdering(), 0)
	if res.Hazard != HazardReadAfterWrite {
		t.Fatalf("Detect(read after write) = %s, want READ_AFTER_WRITE", res.Hazard)
	}
}

func TestDetectWriteAfterRead(t *testing.T) {
	s := New()
	read := Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(1)}
	s.Update(read, scopeexpand.OrderingNone, 0)

	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(2)}
	res := s.Detect(write, noOrdering(), 0)
	if res.Hazard != HazardWriteAfterRead {
		t.Fatalf("Detect(write after read) = %s, want WRITE_AFTER_READ", res.Hazard)
	}
}

func TestDetectWriteAfterWrite(t *testing.T) {
	s := New()
	first := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1)}
	s.Update(first, scopeexpand.OrderingNone, 0)

	second := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(2)}
	res := s.Detect(second, noOrdering(), 0)
	if res.Hazard != HazardWriteAfterWrite {
		t.Fatalf("Detect(write after write) = %s, want WRITE_AFTER_WRITE", res.Hazard)
	}
}

func TestDetectNoHazardAfterBarrier(t *testing.T) {
	s := New()
	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1)}
	s.Update(write, scopeexpand.OrderingNone, 0)

	barrier := scopeexpand.NewBarrier(
		core.StageCopy, core.StageCopy,
		[]core.AccessIndex{core.AccessTransferWrite}, []core.AccessIndex{core.AccessTransferRead},
		core.QueueGraphics, 0, false, false, false, false,
	)
	s.ApplyBarrier(Untagged{}, barrier, false)
	s.CommitPending(core.Tag(2), core.NoHandleIndex)

	read := Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(3)}
	res := s.Detect(read, noOrdering(), 0)
	if res.IsHazard() {
		t.Fatalf("Detect(read after barriered write) = %s, want no hazard", res.Hazard)
	}
}

func TestDetectPresentRemap(t *testing.T) {
	s := New()
	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1)}
	s.Update(write, scopeexpand.OrderingNone, 0)

	present := Usage{Access: core.AccessPresentRead, Stage: core.StagePresentEngine, Tag: tag(2), Flags: WriteFlag(scopeexpand.FlagPresent)}
	res := s.Detect(present, noOrdering(), 0)
	if res.Hazard != HazardPresentAfterWrite {
		t.Fatalf("Detect(present after write) = %s, want PRESENT_AFTER_WRITE", res.Hazard)
	}
}

func TestUpdateDoesNotHazardAgainstItselfAfterDetect(t *testing.T) {
	s := New()
	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1)}
	if res := s.Detect(write, noOrdering(), 0); res.IsHazard() {
		t.Fatalf("first write into an empty State should never hazard, got %s", res.Hazard)
	}
	s.Update(write, scopeexpand.OrderingNone, 0)
	if s.LastWrite == nil || s.LastWrite.AccessIndex != core.AccessTransferWrite {
		t.Fatal("Update should record the write as LastWrite")
	}
}

func TestResolveMergesLaterWrite(t *testing.T) {
	a := New()
	a.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1)}, scopeexpand.OrderingNone, 0)

	b := New()
	b.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(5)}, scopeexpand.OrderingNone, 1)

	a.Resolve(b)
	if a.LastWrite.Tag != core.Tag(5) {
		t.Errorf("Resolve should adopt the later write's tag, got %d", a.LastWrite.Tag)
	}
}

func TestResolveKeepsOwnWriteWhenLater(t *testing.T) {
	a := New()
	a.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(9)}, scopeexpand.OrderingNone, 0)

	b := New()
	b.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(2)}, scopeexpand.OrderingNone, 1)

	a.Resolve(b)
	if a.LastWrite.Tag != core.Tag(9) {
		t.Errorf("Resolve should keep the already-later write's tag, got %d", a.LastWrite.Tag)
	}
}

func TestOffsetTags(t *testing.T) {
	s := New()
	s.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1)}, scopeexpand.OrderingNone, 0)
	s.Update(Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(2)}, scopeexpand.OrderingNone, 0)

	s.OffsetTags(100)

	if s.LastReads.At(0).Tag != core.Tag(102) {
		t.Errorf("OffsetTags should shift the read's tag, got %d", s.LastReads.At(0).Tag)
	}
	entries := s.FirstAccesses.Entries()
	if len(entries) == 0 || entries[0].Tag.Tag != core.Tag(101) {
		t.Errorf("OffsetTags should shift first-access log entries' tags, got %+v", entries)
	}
}

func TestFirstAccessLogClosesOnWrite(t *testing.T) {
	s := New()
	s.Update(Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(1)}, scopeexpand.OrderingNone, 0)
	if s.FirstAccesses.Closed() {
		t.Fatal("a read alone should not close the first-access log")
	}
	s.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(2)}, scopeexpand.OrderingNone, 0)
	if !s.FirstAccesses.Closed() {
		t.Error("a write should close the first-access log")
	}
	if len(s.FirstAccesses.Entries()) != 2 {
		t.Errorf("the log should carry both the read and the closing write, got %d entries", len(s.FirstAccesses.Entries()))
	}
}

func TestDetectAsyncReadRacingWrite(t *testing.T) {
	s := New()
	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(10), Queue: 0}
	s.Update(write, scopeexpand.OrderingNone, 0)

	read := Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(11), Queue: 0}
	res := s.DetectAsync(read, 0, core.Tag(5))
	if res.Hazard != HazardReadRacingWrite {
		t.Fatalf("DetectAsync(read vs racing write) = %s, want READ_RACING_WRITE", res.Hazard)
	}
}

func TestDetectAsyncWriteRacingWrite(t *testing.T) {
	s := New()
	first := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(10), Queue: 0}
	s.Update(first, scopeexpand.OrderingNone, 0)

	second := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(11), Queue: 0}
	res := s.DetectAsync(second, 0, core.Tag(5))
	if res.Hazard != HazardWriteRacingWrite {
		t.Fatalf("DetectAsync(write vs racing write) = %s, want WRITE_RACING_WRITE", res.Hazard)
	}
}

func TestDetectAsyncWriteRacingRead(t *testing.T) {
	s := New()
	read := Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(10), Queue: 0}
	s.Update(read, scopeexpand.OrderingNone, 0)

	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(11), Queue: 0}
	res := s.DetectAsync(write, 0, core.Tag(5))
	if res.Hazard != HazardWriteRacingRead {
		t.Fatalf("DetectAsync(write vs racing read) = %s, want WRITE_RACING_READ", res.Hazard)
	}
}

func TestDetectAsyncIgnoresAccessesBeforeStartTag(t *testing.T) {
	s := New()
	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(2), Queue: 0}
	s.Update(write, scopeexpand.OrderingNone, 0)

	read := Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(3), Queue: 0}
	res := s.DetectAsync(read, 0, core.Tag(10))
	if res.IsHazard() {
		t.Fatalf("DetectAsync should not hazard against an access recorded before startTag, got %s", res.Hazard)
	}
}

func TestDetectAsyncIgnoresOtherQueue(t *testing.T) {
	s := New()
	write := Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(10), Queue: 1}
	s.Update(write, scopeexpand.OrderingNone, 1)

	read := Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(11), Queue: 0}
	res := s.DetectAsync(read, 0, core.Tag(0))
	if res.IsHazard() {
		t.Fatalf("DetectAsync should only race accesses recorded on the queried queue, got %s", res.Hazard)
	}
}

func TestDetectAsyncFromLogReportsRecordedAccess(t *testing.T) {
	s := New()
	s.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(10), Queue: 0}, scopeexpand.OrderingNone, 0)

	recorded := &FirstAccessLog{}
	recorded.Append(FirstAccessEntry{Access: core.AccessTransferRead, Tag: tag(1)})
	recorded.Append(FirstAccessEntry{Access: core.AccessTransferWrite, Tag: tag(2)})

	res := s.DetectAsyncFromLog(recorded, core.Tag(0), core.Tag(100), core.Tag(5), 0)
	if res.Hazard != HazardReadRacingWrite {
		t.Fatalf("DetectAsyncFromLog = %s, want READ_RACING_WRITE", res.Hazard)
	}
	if res.RecordedAccess == nil || res.RecordedAccess.Access != core.AccessTransferRead {
		t.Fatalf("DetectAsyncFromLog should stamp the recorded entry that raced, got %+v", res.RecordedAccess)
	}
}

func TestDetectAsyncFromLogRespectsTagRange(t *testing.T) {
	s := New()
	s.Update(Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(10), Queue: 0}, scopeexpand.OrderingNone, 0)

	recorded := &FirstAccessLog{}
	// A read entry in range never races (DetectAsync only races reads
	// against a prior write, and s has none); a write entry outside the
	// range would race against s's recorded read if it were checked.
	recorded.Append(FirstAccessEntry{Access: core.AccessTransferRead, Tag: tag(1)})
	recorded.Append(FirstAccessEntry{Access: core.AccessTransferWrite, Tag: tag(2)})

	res := s.DetectAsyncFromLog(recorded, core.Tag(0), core.Tag(2), core.Tag(5), 0)
	if res.IsHazard() {
		t.Fatalf("DetectAsyncFromLog should skip entries at/after tagEnd, got %s", res.Hazard)
	}
}

func TestDetectRecordedReportsRecordedAccessOnFirstRead(t *testing.T) {
	s := New()
	s.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1), Queue: 0}, scopeexpand.OrderingNone, 0)

	recorded := New()
	recorded.Update(Usage{Access: core.AccessTransferRead, Stage: core.StageCopy, Tag: tag(1), Queue: 1}, scopeexpand.OrderingNone, 1)

	res := s.DetectRecorded(recorded, 0, core.Tag(0), core.Tag(100))
	if res.Hazard != HazardReadAfterWrite {
		t.Fatalf("DetectRecorded = %s, want READ_AFTER_WRITE", res.Hazard)
	}
	if res.RecordedAccess == nil || res.RecordedAccess.Access != core.AccessTransferRead {
		t.Fatalf("DetectRecorded should stamp the recorded entry that raced, got %+v", res.RecordedAccess)
	}
}

func TestDetectRecordedChecksClosingWrite(t *testing.T) {
	s := New()
	s.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1), Queue: 0}, scopeexpand.OrderingNone, 0)

	recorded := New()
	recorded.Update(Usage{Access: core.AccessTransferWrite, Stage: core.StageCopy, Tag: tag(1), Queue: 1}, scopeexpand.OrderingNone, 1)

	res := s.DetectRecorded(recorded, 0, core.Tag(0), core.Tag(100))
	if res.Hazard != HazardWriteAfterWrite {
		t.Fatalf("DetectRecorded(closing write) = %s, want WRITE_AFTER_WRITE", res.Hazard)
	}
	if res.RecordedAccess == nil || res.RecordedAccess.Access != core.AccessTransferWrite {
		t.Fatalf("DetectRecorded should stamp the closing write entry, got %+v", res.RecordedAccess)
	}
}

func TestDetectRecordedNoHazardWhenEmpty(t *testing.T) {
	s := New()
	recorded := New()
	res := s.DetectRecorded(recorded, 0, core.Tag(0), core.Tag(100))
	if res.IsHazard() {
		t.Fatalf("DetectRecorded over an empty log should never hazard, got %s", res.Hazard)
	}
}
