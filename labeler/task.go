package labeler

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Task is a remote call submitted without waiting for it. The caller may
// ignore it, wait on it or cancel it.
type Task struct {
	name   string
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

func completedTask(name string, err error) *Task {
	t := &Task{name: name, done: make(chan struct{}), err: err, cancel: func() {}}
	close(t.done)
	return t
}

// Done is closed once the call has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the call returns or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is the call's result; nil until Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Cancel aborts the call if it is still in flight.
func (t *Task) Cancel() {
	t.cancel()
}

// Submitter runs fire-and-forget remote calls and keeps track of the ones
// still in flight so shutdown can drain them. Calls submitted with Enqueue
// run one at a time in submission order; calls submitted with Submit run
// concurrently.
type Submitter struct {
	logger  hclog.Logger
	timeout time.Duration

	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond
	pending  int
	closed   bool
	queue    []queuedCall
	draining bool
}

type queuedCall struct {
	task *Task
	ctx  context.Context
	fn   func(ctx context.Context) error
}

// NewSubmitter creates a submitter whose calls are bounded by timeout.
func NewSubmitter(logger hclog.Logger, timeout time.Duration) *Submitter {
	ctx, stop := context.WithCancel(context.Background())
	s := &Submitter{
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		stop:    stop,
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Submit starts fn in its own goroutine. Failures are logged, never returned
// to the submitting code path.
func (s *Submitter) Submit(name string, fn func(ctx context.Context) error) *Task {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return completedTask(name, context.Canceled)
	}
	s.pending++
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(s.ctx)
	t := &Task{name: name, done: make(chan struct{}), cancel: cancel}
	go s.run(queuedCall{task: t, ctx: ctx, fn: fn})
	return t
}

// Enqueue appends fn to the ordered queue and returns without waiting.
// Queued calls reach the service in the order they were enqueued; the
// timeout of each starts when it leaves the queue.
func (s *Submitter) Enqueue(name string, fn func(ctx context.Context) error) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return completedTask(name, context.Canceled)
	}
	s.pending++

	ctx, cancel := context.WithCancel(s.ctx)
	t := &Task{name: name, done: make(chan struct{}), cancel: cancel}
	s.queue = append(s.queue, queuedCall{task: t, ctx: ctx, fn: fn})
	if !s.draining {
		s.draining = true
		go s.drain()
	}
	return t
}

// drain runs queued calls until the queue is empty.
func (s *Submitter) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		call := s.queue[0]
		s.queue[0] = queuedCall{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.run(call)
	}
}

func (s *Submitter) run(call queuedCall) {
	t := call.task
	defer s.finish()
	defer t.cancel()
	defer close(t.done)

	// cancelled while waiting in the queue
	if err := call.ctx.Err(); err != nil {
		t.err = err
		return
	}

	ctx, cancel := context.WithTimeout(call.ctx, s.timeout)
	defer cancel()
	t.err = call.fn(ctx)
	if t.err != nil {
		s.logger.Warn("remote call failed", "task", t.name, "error", t.err)
	}
}

func (s *Submitter) finish() {
	s.mu.Lock()
	s.pending--
	if s.pending == 0 {
		s.idle.Broadcast()
	}
	s.mu.Unlock()
}

// Flush waits until no call is in flight.
func (s *Submitter) Flush() {
	s.mu.Lock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

// Close refuses new calls, then waits up to grace for the pending ones
// before cancelling them.
func (s *Submitter) Close(grace time.Duration) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.Flush()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(grace):
		s.logger.Warn("cancelling pending remote calls")
		s.stop()
		<-drained
	}
	s.stop()
}
