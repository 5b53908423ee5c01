package syncval

import (
	"context"

	"github.com/ehrlich-b/go-syncval/internal/core"
	"github.com/ehrlich-b/go-syncval/internal/queuecoord"
)

// Coordinator re-exports component I: per-queue submission ordering,
// timeline/binary semaphores, events and wait-before-signal resolution,
// wired through Context's ApplySemaphore/SetEvent/WaitEvent/ResetEvent.
type Coordinator struct {
	inner *queuecoord.Coordinator
	cfg   *Config

	lastSubmittedTag map[core.QueueID]core.Tag
}

// NewCoordinator returns a Coordinator bound to ctx; cancelling ctx (or
// calling Close) stops every queue worker.
func NewCoordinator(ctx context.Context, cfg *Config) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Coordinator{
		inner:            queuecoord.New(ctx),
		cfg:              cfg,
		lastSubmittedTag: make(map[core.QueueID]core.Tag),
	}
}

// Submit enqueues work onto queue's FIFO. If EnableQueueSubmitValidation
// is set, tag must be strictly greater than the last tag submitted to
// this queue; violations report *SubmissionError wrapping
// ErrInvalidSubmission instead of being submitted.
func (co *Coordinator) Submit(queue core.QueueID, tag core.Tag, work func() error) error {
	if co.cfg.EnableQueueSubmitValidation {
		if last, ok := co.lastSubmittedTag[queue]; ok && tag <= last {
			return &SubmissionError{
				Op:    "Submit",
				Queue: int32(queue),
				Code:  ErrInvalidSubmission,
				Msg:   "submission tag did not increase on this queue",
			}
		}
	}
	co.lastSubmittedTag[queue] = tag
	co.inner.Submit(queue, tag, work)
	return nil
}

// RegisterTimelineSemaphore registers a fresh timeline semaphore under
// name.
func (co *Coordinator) RegisterTimelineSemaphore(name string) error {
	if err := co.inner.RegisterTimelineSemaphore(name); err != nil {
		return wrapSubmissionError("RegisterTimelineSemaphore", err)
	}
	return nil
}

// RegisterBinarySemaphore registers a fresh binary semaphore under name.
func (co *Coordinator) RegisterBinarySemaphore(name string) error {
	if err := co.inner.RegisterBinarySemaphore(name); err != nil {
		return wrapSubmissionError("RegisterBinarySemaphore", err)
	}
	return nil
}

// Signal records a signal submission against the named semaphore.
func (co *Coordinator) Signal(name string, queue core.QueueID, value uint64, tag core.Tag) error {
	sem, ok := co.inner.Semaphore(name)
	if !ok {
		return &SubmissionError{Op: "Signal", Queue: int32(queue), Semaphore: name, Code: ErrUnknownSemaphore}
	}
	co.cfg.observer().ObserveSemaphoreOp(true)
	if err := sem.Signal(queuecoord.SignalOp{Queue: queue, Value: value, Tag: tag}); err != nil {
		return wrapSubmissionError("Signal", err)
	}
	return nil
}

// Wait records a wait submission against the named semaphore, returning
// whether it resolved immediately (binary semaphores always resolve
// synchronously against an outstanding signal; timeline semaphores
// resolve immediately only if a sufficient signal already exists).
func (co *Coordinator) Wait(name string, queue core.QueueID, value uint64, tag core.Tag) (resolved bool, err error) {
	sem, ok := co.inner.Semaphore(name)
	if !ok {
		return false, &SubmissionError{Op: "Wait", Queue: int32(queue), Semaphore: name, Code: ErrUnknownSemaphore}
	}
	co.cfg.observer().ObserveSemaphoreOp(false)
	resolved, _, waitErr := sem.Wait(queuecoord.WaitOp{Queue: queue, Value: value, Tag: tag})
	if waitErr != nil {
		return false, wrapSubmissionError("Wait", waitErr)
	}
	return resolved, nil
}

// DetectAsyncRace checks ctx's state over r for a hazard against any
// access already recorded on queue at or after the last tag this
// Coordinator submitted to that queue — the cross-submission async-racing
// check for two batches on the same queue with no semaphore or barrier
// yet linking them. Queues this Coordinator has never submitted to race
// against tag 0 (everything recorded so far).
func (co *Coordinator) DetectAsyncRace(ctx *Context, r core.Range, access core.AccessIndex, stage core.StageMask, tag core.ExtendedTag, queue core.QueueID) HazardResult {
	startTag := co.lastSubmittedTag[queue]
	return ctx.DetectAsync(r, access, stage, tag, queue, startTag)
}

// RegisterEvent registers a fresh, unset event under name.
func (co *Coordinator) RegisterEvent(name string) {
	co.inner.RegisterEvent(name)
}

// WaitDeviceIdle blocks until every queue's currently-enqueued work has
// drained.
func (co *Coordinator) WaitDeviceIdle(ctx context.Context) error {
	return co.inner.WaitDeviceIdle(ctx)
}

// Close stops every queue worker and releases resources.
func (co *Coordinator) Close() {
	co.inner.Close()
}
