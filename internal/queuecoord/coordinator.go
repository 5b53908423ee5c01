// Package queuecoord implements component I: the cross-queue
// coordinator — per-queue submission ordering, timeline/binary
// semaphores, events, and wait-before-signal bookkeeping.
package queuecoord

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ehrlich-b/go-syncval/internal/core"
)

// Submission is one batch of work submitted to a queue: the tag it is
// stamped with and the ordered work function to run once any semaphore
// waits it depends on have resolved.
type Submission struct {
	Tag  core.Tag
	Work func() error
}

// queueWorker is the per-queue goroutine FIFO: work submitted to a given
// queue runs strictly in submission order on its own goroutine, the
// idiomatic channel-based equivalent of the teacher's per-queue OS-thread
// io loop — no kernel thread-affinity requirement exists in this domain,
// so LockOSThread is dropped (see design notes).
type queueWorker struct {
	id      core.QueueID
	work    chan Submission
	done    chan struct{}
	errOnce sync.Once
	err     error
}

func newQueueWorker(ctx context.Context, id core.QueueID) *queueWorker {
	w := &queueWorker{id: id, work: make(chan Submission, 64), done: make(chan struct{})}
	go w.loop(ctx)
	return w
}

func (w *queueWorker) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-w.work:
			if !ok {
				return
			}
			if err := sub.Work(); err != nil {
				w.errOnce.Do(func() { w.err = fmt.Errorf("queue %d submission (tag %d): %w", w.id, sub.Tag, err) })
			}
		}
	}
}

func (w *queueWorker) submit(sub Submission) {
	w.work <- sub
}

func (w *queueWorker) close() {
	close(w.work)
}

// Coordinator is the component I cross-queue coordinator: it owns one
// queueWorker per known queue, plus the semaphore and event tables those
// workers' submitted work consults.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	workers    map[core.QueueID]*queueWorker
	semaphores map[string]*Semaphore
	events     map[string]*Event
}

// New returns a Coordinator bound to ctx; cancelling ctx (or calling
// Close) stops every queue worker.
func New(ctx context.Context) *Coordinator {
	ctx, cancel := context.WithCancel(ctx)
	return &Coordinator{
		ctx:        ctx,
		cancel:     cancel,
		workers:    make(map[core.QueueID]*queueWorker),
		semaphores: make(map[string]*Semaphore),
		events:     make(map[string]*Event),
	}
}

func (c *Coordinator) workerFor(id core.QueueID) *queueWorker {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.workers[id]
	if !ok {
		w = newQueueWorker(c.ctx, id)
		c.workers[id] = w
	}
	return w
}

// Submit enqueues work onto queue's FIFO, preserving queue-submission
// order per §4.I.
func (c *Coordinator) Submit(queue core.QueueID, tag core.Tag, work func() error) {
	c.workerFor(queue).submit(Submission{Tag: tag, Work: work})
}

// RegisterTimelineSemaphore registers a fresh timeline semaphore under
// name, returning an error if the name is already in use.
func (c *Coordinator) RegisterTimelineSemaphore(name string) error {
	return c.registerSemaphore(name, NewTimelineSemaphore())
}

// RegisterBinarySemaphore registers a fresh binary semaphore under name.
func (c *Coordinator) RegisterBinarySemaphore(name string) error {
	return c.registerSemaphore(name, NewBinarySemaphore())
}

func (c *Coordinator) registerSemaphore(name string, s *Semaphore) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.semaphores[name]; exists {
		return fmt.Errorf("queuecoord: semaphore %q already registered", name)
	}
	c.semaphores[name] = s
	return nil
}

// Semaphore returns the registered semaphore, if any.
func (c *Coordinator) Semaphore(name string) (*Semaphore, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.semaphores[name]
	return s, ok
}

// RegisterEvent registers a fresh, unset event under name.
func (c *Coordinator) RegisterEvent(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.events[name]; !exists {
		c.events[name] = NewEvent()
	}
}

// Event returns the registered event, if any.
func (c *Coordinator) Event(name string) (*Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.events[name]
	return e, ok
}

// WaitDeviceIdle blocks until every queue's currently-enqueued work has
// drained, fanning the per-queue drains out concurrently.
func (c *Coordinator) WaitDeviceIdle(ctx context.Context) error {
	c.mu.Lock()
	workers := make([]*queueWorker, 0, len(c.workers))
	for _, w := range c.workers {
		workers = append(workers, w)
	}
	c.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error {
			drained := make(chan struct{})
			w.submit(Submission{Work: func() error { close(drained); return nil }})
			select {
			case <-drained:
				return w.err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Close stops every queue worker and releases resources.
func (c *Coordinator) Close() {
	c.mu.Lock()
	workers := make([]*queueWorker, 0, len(c.workers))
	for _, w := range c.workers {
		workers = append(workers, w)
	}
	c.mu.Unlock()
	for _, w := range workers {
		w.close()
	}
	c.cancel()
	for _, w := range workers {
		<-w.done
	}
}
