// Package syncval is the synchronization-validation core of a graphics-API
// validation layer. Given a stream of recorded GPU commands referencing
// resources (buffers and images) and explicit synchronization primitives
// (pipeline barriers, events, semaphores, subpass dependencies, queue
// submissions), it computes, for each memory range of each resource,
// whether the next access conflicts with previously recorded accesses.
//
// The package trusts the recorded stream: it does not decide why an
// access was issued, does not own GPU memory, does not schedule
// execution, and does not format human-readable diagnostics. It returns
// structured HazardResult values for the caller to report.
package syncval
