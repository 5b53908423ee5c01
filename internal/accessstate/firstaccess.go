package accessstate

import (
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// FirstAccessEntry is one record in a range's first-use log: either one
// of the reads that occurred before the first write, or the single write
// that closes the log.
type FirstAccessEntry struct {
	Access      core.AccessIndex
	Tag         core.ExtendedTag
	Ordering    scopeexpand.Ordering
	Flags       WriteFlag
}

// FirstAccessLog records, for a range, every read issued before its
// first write and then that write itself, after which the log is
// closed. It lets a secondary/recorded command buffer's first-use
// pattern be replayed against an active context's state without
// re-walking the whole command stream — §3 FirstAccess.
type FirstAccessLog struct {
	entries []FirstAccessEntry
	closed  bool
}

// Closed reports whether the log has already recorded a write.
func (l *FirstAccessLog) Closed() bool { return l.closed }

// Append adds entry to the log unless it is already closed. Appending a
// write closes it.
func (l *FirstAccessLog) Append(entry FirstAccessEntry) {
	if l.closed {
		return
	}
	l.entries = append(l.entries, entry)
	if core.IsWrite(entry.Access) {
		l.closed = true
	}
}

// Entries returns the recorded log entries in tag order.
func (l *FirstAccessLog) Entries() []FirstAccessEntry {
	return l.entries
}

// Reset clears the log back to empty/open.
func (l *FirstAccessLog) Reset() {
	l.entries = l.entries[:0]
	l.closed = false
}

// Clone returns an independent deep copy of l.
func (l *FirstAccessLog) Clone() FirstAccessLog {
	return FirstAccessLog{
		entries: append([]FirstAccessEntry(nil), l.entries...),
		closed:  l.closed,
	}
}

// OffsetTags shifts every entry's tag by delta, in place.
func (l *FirstAccessLog) OffsetTags(delta core.Tag) {
	for i := range l.entries {
		l.entries[i].Tag.Tag += delta
	}
}

// MergeFrom merges other's log into l by tag order, per §4.E Resolve,
// only while l is still open.
func (l *FirstAccessLog) MergeFrom(other *FirstAccessLog) {
	for _, e := range other.entries {
		if l.closed {
			return
		}
		l.Append(e)
	}
}
