package accessstate

import "github.com/ehrlich-b/go-syncval/internal/core"

// Hazard classifies the kind of synchronization conflict detected
// between a new access and a prior one.
type Hazard uint8

const (
	HazardNone Hazard = iota
	HazardReadAfterWrite
	HazardWriteAfterRead
	HazardWriteAfterWrite
	HazardReadRacingWrite
	HazardWriteRacingWrite
	HazardWriteRacingRead
	HazardWriteAfterPresent
	HazardReadAfterPresent
	HazardPresentAfterRead
	HazardPresentAfterWrite
)

var hazardNames = [...]string{
	HazardNone:              "NONE",
	HazardReadAfterWrite:    "READ_AFTER_WRITE",
	HazardWriteAfterRead:    "WRITE_AFTER_READ",
	HazardWriteAfterWrite:   "WRITE_AFTER_WRITE",
	HazardReadRacingWrite:   "READ_RACING_WRITE",
	HazardWriteRacingWrite:  "WRITE_RACING_WRITE",
	HazardWriteRacingRead:   "WRITE_RACING_READ",
	HazardWriteAfterPresent: "WRITE_AFTER_PRESENT",
	HazardReadAfterPresent:  "READ_AFTER_PRESENT",
	HazardPresentAfterRead:  "PRESENT_AFTER_READ",
	HazardPresentAfterWrite: "PRESENT_AFTER_WRITE",
}

func (h Hazard) String() string {
	if int(h) < len(hazardNames) {
		return hazardNames[h]
	}
	return "UNKNOWN"
}

// IsHazard reports whether h represents an actual conflict.
func (h Hazard) IsHazard() bool { return h != HazardNone }

// remapPresent re-maps one of the four base hazard kinds to its
// present-specific variant when either side of the conflict is a present
// operation, per §4 "Failure semantics".
func remapPresent(base Hazard, priorIsPresent, newIsPresent bool) Hazard {
	switch {
	case base == HazardReadAfterWrite && priorIsPresent:
		return HazardReadAfterPresent
	case base == HazardWriteAfterWrite && priorIsPresent:
		return HazardWriteAfterPresent
	case base == HazardWriteAfterRead && newIsPresent:
		return HazardPresentAfterRead
	case (base == HazardWriteAfterWrite || base == HazardReadAfterWrite) && newIsPresent:
		return HazardPresentAfterWrite
	default:
		return base
	}
}

// Usage describes the access being checked or recorded: its identity,
// the queue/tag it carries, and the stage mask/access-scope membership
// already resolved by component B.
type Usage struct {
	Access      core.AccessIndex
	Stage       core.StageMask
	Tag         core.ExtendedTag
	Queue       core.QueueID
	Flags       WriteFlag
	// InputAttachmentRead marks a fragment-shader input-attachment read,
	// consulted by ordered_stages per §4.E.
	InputAttachmentRead bool
}

// IsRead reports whether usage describes a read access.
func (u Usage) IsRead() bool { return core.IsRead(u.Access) }

// HazardResult is the outcome of a Detect call: either HazardNone (no
// conflict, caller may proceed to Update) or a populated conflict
// description. The access-state is never mutated by Detect.
type HazardResult struct {
	Hazard      Hazard
	PriorAccess core.AccessIndex
	PriorTag    core.ExtendedTag
	PriorQueue  core.QueueID
	Usage       Usage
	// Snapshot is a deep copy of the state that produced this result,
	// taken at detection time so later mutation of the live state cannot
	// retroactively change a reported hazard.
	Snapshot *State
	// RecordedAccess is set when this result came from replaying a
	// recorded first-use log (DetectRecorded/DetectAsyncFromLog) rather
	// than from a live Detect call: the log entry that surfaced the
	// hazard, for reporting which recorded command produced it.
	RecordedAccess *FirstAccessEntry
}

// IsHazard reports whether r represents an actual conflict.
func (r HazardResult) IsHazard() bool { return r.Hazard.IsHazard() }
