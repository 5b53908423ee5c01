package queuecoord

import (
	"fmt"

	"github.com/ehrlich-b/go-syncval/internal/core"
)

// SemaphoreKind distinguishes timeline from binary semaphores.
type SemaphoreKind uint8

const (
	SemaphoreBinary SemaphoreKind = iota
	SemaphoreTimeline
)

// SignalOp records one signal submitted to a semaphore.
type SignalOp struct {
	Queue core.QueueID
	Value uint64
	Tag   core.Tag
}

// WaitOp records one wait submitted against a semaphore.
type WaitOp struct {
	Queue core.QueueID
	Value uint64
	Tag   core.Tag
}

// Semaphore tracks the signal/wait history of one binary or timeline
// semaphore — §4.I.
type Semaphore struct {
	Kind SemaphoreKind

	// Timeline state.
	lastSignalled uint64
	signals       []SignalOp
	pendingWaits  []WaitOp

	// Binary state.
	outstandingSignal *SignalOp
}

// NewTimelineSemaphore returns a fresh timeline semaphore starting at 0.
func NewTimelineSemaphore() *Semaphore {
	return &Semaphore{Kind: SemaphoreTimeline}
}

// NewBinarySemaphore returns a fresh, unsignalled binary semaphore.
func NewBinarySemaphore() *Semaphore {
	return &Semaphore{Kind: SemaphoreBinary}
}

// Signal records a signal submission, enforcing the non-decreasing
// invariant for timeline semaphores and the single-outstanding-signal
// invariant for binary semaphores.
func (s *Semaphore) Signal(op SignalOp) error {
	if s.Kind == SemaphoreBinary {
		if s.outstandingSignal != nil {
			return fmt.Errorf("queuecoord: binary semaphore signalled while previous signal unconsumed")
		}
		s.outstandingSignal = &op
		return nil
	}
	if op.Value < s.lastSignalled {
		return fmt.Errorf("queuecoord: timeline semaphore signal value %d precedes last signalled value %d", op.Value, s.lastSignalled)
	}
	s.lastSignalled = op.Value
	s.signals = append(s.signals, op)
	return nil
}

// Wait records a wait submission. For a timeline semaphore it resolves
// immediately if a signal with value >= op.Value already exists,
// otherwise it is recorded as pending resolution. For a binary semaphore
// it requires an outstanding signal to consume.
func (s *Semaphore) Wait(op WaitOp) (resolved bool, resolvedAgainst *SignalOp, err error) {
	if s.Kind == SemaphoreBinary {
		if s.outstandingSignal == nil {
			return false, nil, fmt.Errorf("queuecoord: binary semaphore wait with no matching signal submitted")
		}
		sig := s.outstandingSignal
		s.outstandingSignal = nil
		return true, sig, nil
	}
	if best := s.resolveTimeline(op.Value); best != nil {
		return true, best, nil
	}
	s.pendingWaits = append(s.pendingWaits, op)
	return false, nil, nil
}

// resolveTimeline returns the earliest signal whose value is >= target,
// across any queue.
func (s *Semaphore) resolveTimeline(target uint64) *SignalOp {
	var best *SignalOp
	for i := range s.signals {
		sig := &s.signals[i]
		if sig.Value < target {
			continue
		}
		if best == nil || sig.Tag < best.Tag {
			best = sig
		}
	}
	return best
}

// ResolvePending attempts to resolve every still-pending wait against
// newly recorded signals, returning the now-resolved (wait, signal)
// pairs in submission order.
func (s *Semaphore) ResolvePending() []struct {
	Wait   WaitOp
	Signal SignalOp
} {
	var resolved []struct {
		Wait   WaitOp
		Signal SignalOp
	}
	var still []WaitOp
	for _, w := range s.pendingWaits {
		if sig := s.resolveTimeline(w.Value); sig != nil {
			resolved = append(resolved, struct {
				Wait   WaitOp
				Signal SignalOp
			}{Wait: w, Signal: *sig})
			continue
		}
		still = append(still, w)
	}
	s.pendingWaits = still
	return resolved
}

// HasUnresolvedWaits reports whether any wait submitted to this
// semaphore is still pending resolution — used to postpone dependent
// binary-ordering operations on the same queue per the wait-before-
// signal rule.
func (s *Semaphore) HasUnresolvedWaits() bool {
	return len(s.pendingWaits) > 0
}
