package eventloop

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// timerSet tracks every armed setTimeout/setInterval activity so Shutdown
// can cancel and join them deterministically (SPEC_FULL.md §2.1:
// golang.org/x/sync/errgroup "supervises the set of detached per-timer
// goroutines so Shutdown can cancel and join them deterministically").
type timerSet struct {
	loop *Loop

	mu      sync.Mutex
	nextID  int
	cancels map[int]context.CancelFunc

	group *errgroup.Group
	gctx  context.Context
}

func newTimerSet(l *Loop) *timerSet {
	ts := &timerSet{loop: l, cancels: map[int]context.CancelFunc{}}
	ts.group, ts.gctx = errgroup.WithContext(context.Background())
	return ts
}

// set arms a timer activity: a detached goroutine that waits delay, then
// schedules fn onto the loop. repeat re-arms it after every fire
// (setInterval); otherwise it retires itself after the first (setTimeout).
func (ts *timerSet) set(delay time.Duration, repeat bool, fn func()) int {
	ts.mu.Lock()
	ts.nextID++
	id := ts.nextID
	ctx, cancel := context.WithCancel(ts.gctx)
	ts.cancels[id] = cancel
	ts.mu.Unlock()

	ts.loop.mu.Lock()
	ts.loop.pending++
	ts.loop.mu.Unlock()

	ts.group.Go(func() error {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				ts.finish(id)
				return nil
			case <-timer.C:
				ts.loop.ScheduleTask(fn)
				if !repeat {
					ts.finish(id)
					return nil
				}
				timer.Reset(delay)
			}
		}
	})
	return id
}

// clear cancels a timer activity by id; clearing an id that already fired
// (setTimeout) or was already cleared is a no-op, matching
// clearTimeout/clearInterval's lenient ECMA-262 contract.
func (ts *timerSet) clear(id int) {
	ts.mu.Lock()
	cancel, ok := ts.cancels[id]
	ts.mu.Unlock()
	if ok {
		cancel()
	}
}

func (ts *timerSet) finish(id int) {
	ts.mu.Lock()
	if _, ok := ts.cancels[id]; !ok {
		ts.mu.Unlock()
		return
	}
	delete(ts.cancels, id)
	ts.mu.Unlock()

	ts.loop.mu.Lock()
	ts.loop.pending--
	ts.loop.mu.Unlock()
}

// cancelAll cancels every armed timer activity and waits for their
// goroutines to exit, the join Shutdown needs to leave nothing running
// behind it (checked by the package's goleak-wrapped tests).
func (ts *timerSet) cancelAll() {
	ts.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(ts.cancels))
	for _, c := range ts.cancels {
		cancels = append(cancels, c)
	}
	ts.mu.Unlock()
	for _, c := range cancels {
		c()
	}
	_ = ts.group.Wait()
}

// SetTimeout arms a one-shot timer activity, returning its id.
func (l *Loop) SetTimeout(delay time.Duration, fn func()) int {
	return l.timers.set(delay, false, fn)
}

// SetInterval arms a repeating timer activity, returning its id.
func (l *Loop) SetInterval(delay time.Duration, fn func()) int {
	return l.timers.set(delay, true, fn)
}

// ClearTimer cancels a timer activity armed by SetTimeout or SetInterval.
func (l *Loop) ClearTimer(id int) {
	l.timers.clear(id)
}
