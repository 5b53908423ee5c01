package syncval

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped) by *SubmissionError for
// errors.Is-style matching against a category rather than a specific
// message.
var (
	ErrEmptyRange        = errors.New("syncval: range is empty or inverted")
	ErrOverlappingRange  = errors.New("syncval: range overlaps an existing entry")
	ErrUnknownSemaphore  = errors.New("syncval: unknown semaphore")
	ErrUnknownEvent      = errors.New("syncval: unknown event")
	ErrUnknownQueue      = errors.New("syncval: unknown queue")
	ErrInvalidSubmission = errors.New("syncval: invalid submission ordering")
)

// SubmissionError is a structured error describing what went wrong while
// recording or resolving a submission against the core: a malformed
// range, an unknown semaphore/event name, a timeline value that violates
// the non-decreasing invariant, and so on. It is distinct from a
// detected hazard, which is reported as a HazardResult value, not an
// error — a hazard is the core doing its job, not failing at it.
type SubmissionError struct {
	Op        string // operation that failed, e.g. "ApplySemaphore"
	Queue     int32  // queue involved, or -1 if not applicable
	Semaphore string // semaphore name, if applicable
	Code      error  // one of the Err* sentinels above
	Msg       string
	Inner     error
}

func (e *SubmissionError) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Queue >= 0 {
		parts = append(parts, fmt.Sprintf("queue=%d", e.Queue))
	}
	if e.Semaphore != "" {
		parts = append(parts, fmt.Sprintf("semaphore=%s", e.Semaphore))
	}
	msg := e.Msg
	if msg == "" && e.Code != nil {
		msg = e.Code.Error()
	}
	if len(parts) > 0 {
		return fmt.Sprintf("syncval: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("syncval: %s", msg)
}

// Unwrap returns the underlying cause, preferring Code over Inner so
// errors.Is matches the sentinel even when Inner also wraps a
// third-party error.
func (e *SubmissionError) Unwrap() error {
	if e.Code != nil {
		return e.Code
	}
	return e.Inner
}

func newSubmissionError(op string, code error, msg string) *SubmissionError {
	return &SubmissionError{Op: op, Queue: -1, Code: code, Msg: msg}
}

func newQueueSubmissionError(op string, queue int32, code error, msg string) *SubmissionError {
	return &SubmissionError{Op: op, Queue: queue, Code: code, Msg: msg}
}

func newSemaphoreSubmissionError(op, semaphore string, code error, msg string) *SubmissionError {
	return &SubmissionError{Op: op, Queue: -1, Semaphore: semaphore, Code: code, Msg: msg}
}

// wrapSubmissionError wraps an existing error with syncval context,
// reusing its code/semaphore when inner is already a *SubmissionError.
func wrapSubmissionError(op string, inner error) *SubmissionError {
	if inner == nil {
		return nil
	}
	var se *SubmissionError
	if errors.As(inner, &se) {
		return &SubmissionError{
			Op:        op,
			Queue:     se.Queue,
			Semaphore: se.Semaphore,
			Code:      se.Code,
			Msg:       se.Msg,
			Inner:     se.Inner,
		}
	}
	return &SubmissionError{Op: op, Queue: -1, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err's SubmissionError chain matches code.
func IsCode(err error, code error) bool {
	var se *SubmissionError
	if errors.As(err, &se) {
		return errors.Is(se.Code, code)
	}
	return false
}
