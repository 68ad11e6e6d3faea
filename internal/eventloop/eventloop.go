// Package eventloop is jsengine's single cooperative execution thread
// (spec.md §5.1, §5.3): one FIFO queue of tasks, each run to its next
// suspension point before the dispatcher polls again. Promise reactions
// and timer callbacks share the same queue as ordinary evaluation tasks —
// spec.md §5.2 notes a single FIFO suffices as long as reactions are
// scheduled through it in attachment order, so ScheduleTask doubles as
// both queueMicrotask and the macrotask enqueue SetTimeout/SetInterval use.
//
// Grounded on grafana-k6's internal/js/eventloop (same problem: one JS
// thread, Go goroutines doing the actual waiting, callbacks handed back
// onto the loop) and on golang.org/x/sync/errgroup's supervised-goroutine
// pattern for the timer activities (timers.go).
package eventloop

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/asynkron/jsengine/internal/runtime"
)

// Loop is the one event-loop thread a Realm runs on. Every exported method
// is safe to call from any goroutine; the dispatcher itself (Run) runs on
// whichever goroutine calls it, and Evaluate calls made from that same
// goroutine are detected and run inline instead of deadlocking against
// themselves (spec.md §5.3 "re-entrant calls... bypass the queue").
type Loop struct {
	log logrus.FieldLogger

	mu            sync.Mutex
	queue         []func()
	wake          chan struct{}
	pending       int  // queued tasks + armed timers, for diagnostics/drain
	loopGoroutine bool // true only while Run is executing a dequeued task
	closed        bool
	done          chan struct{}

	timers *timerSet

	// OnUnhandledRejection is invoked (on the loop goroutine) once per
	// Promise that settles rejected with no handler attached by the end of
	// the microtask checkpoint (spec.md §5.6 exception records).
	OnUnhandledRejection func(value runtime.Value)

	// OnUncaught is invoked when a task panics or a root Evaluate task
	// returns an error that nothing above it will observe (spec.md §5.6
	// "Exception records").
	OnUncaught func(err error)
}

// New constructs an idle Loop; call Run (typically `go loop.Run(ctx)`) to
// start its dispatcher.
func New(log logrus.FieldLogger) *Loop {
	if log == nil {
		log = logrus.StandardLogger()
	}
	l := &Loop{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	l.timers = newTimerSet(l)
	return l
}

// Pending reports the number of queued tasks plus armed timers, the
// pending-task counter spec.md §5.3 names as part of the drain protocol.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// ScheduleTask appends fn to the FIFO; safe from any goroutine, including
// the loop's own (a reaction scheduled while another task is running just
// joins the back of the queue, preserving attachment order).
func (l *Loop) ScheduleTask(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.pending++
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Evaluate runs fn as a root task and blocks for its result. Called from
// the loop's own goroutine — e.g. a native function invoked while the loop
// is mid-task calling back into the embedder, which calls Evaluate again —
// it runs fn immediately instead of enqueuing, since enqueuing would wait
// on the very dispatcher loop that's currently blocked inside this call.
func (l *Loop) Evaluate(ctx context.Context, fn func() (runtime.Value, error)) (runtime.Value, error) {
	l.mu.Lock()
	reentrant := l.loopGoroutine
	l.mu.Unlock()
	if reentrant {
		return fn()
	}

	type result struct {
		v   runtime.Value
		err error
	}
	resCh := make(chan result, 1)
	l.ScheduleTask(func() {
		v, err := fn()
		resCh <- result{v, err}
	})
	select {
	case r := <-resCh:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, context.Canceled
	}
}

// Run drains the task queue until ctx is canceled or Shutdown is called.
// Intended to run on a dedicated goroutine for the Realm's lifetime
// (spec.md §5.1 "exactly one event-loop thread").
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			select {
			case <-ctx.Done():
				l.Shutdown()
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.loopGoroutine = true
		l.mu.Unlock()

		l.runTask(fn)

		l.mu.Lock()
		l.loopGoroutine = false
		l.pending--
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			l.Shutdown()
			return ctx.Err()
		default:
		}
	}
}

// runTask recovers a panicking task so one misbehaving callback can't take
// the whole dispatcher down; it's reported the same way an uncaught
// exception is.
func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in event loop task: %v", r)
			l.log.WithField("task", "panic").Error(err)
			if l.OnUncaught != nil {
				l.OnUncaught(err)
			}
		}
	}()
	fn()
}

// Shutdown stops the dispatcher and cancels every armed timer activity,
// joining them before returning (spec.md §5.4 "force-cancel on shutdown").
// Safe to call more than once and from any goroutine.
func (l *Loop) Shutdown() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	l.timers.cancelAll()
}

// ReportUnhandledRejection is the function a caller wires as
// builtins.Options.UnhandledRejection: it always logs, then forwards to
// OnUnhandledRejection if one is set.
func (l *Loop) ReportUnhandledRejection(v runtime.Value) {
	l.log.WithField("reason", v).Warn("unhandled promise rejection")
	if l.OnUnhandledRejection != nil {
		l.OnUnhandledRejection(v)
	}
}
