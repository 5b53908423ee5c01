package queuecoord

import (
	"github.com/ehrlich-b/go-syncval/internal/accessstate"
	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/scopeexpand"
)

// EventSnapshot is what set_event captures: the barrier it was set with
// and the per-resource states visible under that barrier's src scope at
// the moment of set — §4.I Events.
type EventSnapshot struct {
	Barrier  scopeexpand.Barrier
	SetQueue core.QueueID
	SetTag   core.Tag
	// States maps an opaque resource key to the cloned state captured at
	// set time, for resources the caller chose to snapshot.
	States map[string]*accessstate.State
}

// Event is a device-scope synchronization primitive: set records a
// barrier and a state snapshot, wait replays it under an Event ScopeOps,
// reset invalidates it — §4.I.
type Event struct {
	snapshot *EventSnapshot
}

// NewEvent returns a fresh, unset Event.
func NewEvent() *Event { return &Event{} }

// Set snapshots resources under barrier's src scope.
func (e *Event) Set(barrier scopeexpand.Barrier, queue core.QueueID, tag core.Tag, states map[string]*accessstate.State) {
	snapshot := &EventSnapshot{Barrier: barrier, SetQueue: queue, SetTag: tag, States: make(map[string]*accessstate.State, len(states))}
	for k, st := range states {
		snapshot.States[k] = st.Clone()
	}
	e.snapshot = snapshot
}

// Snapshot returns the recorded snapshot, or nil if the event has never
// been set or was reset since its last set. A wait does not clear it.
func (e *Event) Snapshot() *EventSnapshot { return e.snapshot }

// ScopeOps returns the Event ScopeOps a wait_event call should apply the
// recorded barrier under, or false if the event has no recorded set.
func (e *Event) ScopeOps() (accessstate.Event, bool) {
	if e.snapshot == nil {
		return accessstate.Event{}, false
	}
	return accessstate.Event{SetQueue: e.snapshot.SetQueue, SetTag: e.snapshot.SetTag}, true
}

// Reset invalidates the recorded snapshot.
func (e *Event) Reset() { e.snapshot = nil }
