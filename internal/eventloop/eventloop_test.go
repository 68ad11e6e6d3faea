package eventloop_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/asynkron/jsengine/internal/eventloop"
	"github.com/asynkron/jsengine/internal/runtime"
)

// withLoop registers goleak.VerifyNone as this test's FIRST cleanup (so it
// runs LAST — t.Cleanup is LIFO), then starts a Loop's dispatcher on its
// own goroutine and registers a second cleanup that stops it and joins
// that goroutine. Any further per-test cleanups (closing a channel a
// blocking task waits on, say) must be registered after this call so they
// run before the loop is stopped, which in turn runs before goleak checks
// for anything left behind.
func withLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })

	loop := eventloop.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop
}

func TestScheduleTaskRunsInFIFOOrder(t *testing.T) {
	loop := withLoop(t)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 1; i <= 3; i++ {
		i := i
		loop.ScheduleTask(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestEvaluateReturnsRootTaskResult(t *testing.T) {
	loop := withLoop(t)

	v, err := loop.Evaluate(context.Background(), func() (runtime.Value, error) {
		return runtime.Number(42), nil
	})
	require.NoError(t, err)
	require.Equal(t, runtime.Number(42), v)
}

func TestEvaluateHonorsContextTimeout(t *testing.T) {
	loop := withLoop(t)

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	loop.ScheduleTask(func() { <-block }) // occupies the dispatcher

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := loop.Evaluate(ctx, func() (runtime.Value, error) {
		return runtime.Undefined, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReentrantEvaluateRunsInline(t *testing.T) {
	loop := withLoop(t)

	v, err := loop.Evaluate(context.Background(), func() (runtime.Value, error) {
		// A native callback invoked while this task is running calls back
		// into Evaluate, same as a host function re-entering the engine;
		// it must not deadlock waiting for the dispatcher it's currently
		// occupying.
		return loop.Evaluate(context.Background(), func() (runtime.Value, error) {
			return runtime.String("inner"), nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, runtime.String("inner"), v)
}

func TestSetTimeoutFiresOnLoop(t *testing.T) {
	loop := withLoop(t)

	fired := make(chan struct{})
	loop.SetTimeout(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("setTimeout never fired")
	}
}

func TestSetIntervalRepeatsUntilCleared(t *testing.T) {
	loop := withLoop(t)

	var count int32
	id := loop.SetInterval(5*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(40 * time.Millisecond)
	loop.ClearTimer(id)
	after := atomic.LoadInt32(&count)
	require.Greater(t, after, int32(1))
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, after, atomic.LoadInt32(&count))
}

func TestClearTimerBeforeFirePreventsCallback(t *testing.T) {
	loop := withLoop(t)

	id := loop.SetTimeout(50*time.Millisecond, func() { t.Fatal("cleared timer fired") })
	loop.ClearTimer(id)
	time.Sleep(80 * time.Millisecond)
}

func TestShutdownJoinsTimerGoroutines(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	loop := eventloop.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()

	loop.SetInterval(5*time.Millisecond, func() {})
	loop.SetTimeout(time.Hour, func() {})
	loop.Shutdown()
	cancel()
	<-done
}

func TestUnhandledRejectionHook(t *testing.T) {
	loop := withLoop(t)

	reported := make(chan runtime.Value, 1)
	loop.OnUnhandledRejection = func(v runtime.Value) { reported <- v }

	// ReportUnhandledRejection is what a builtins.Options.UnhandledRejection
	// binding calls once a rejected Promise reaches the end of a microtask
	// checkpoint with no handler attached.
	loop.ReportUnhandledRejection(runtime.String("boom"))
	select {
	case v := <-reported:
		require.Equal(t, runtime.String("boom"), v)
	case <-time.After(time.Second):
		t.Fatal("OnUnhandledRejection never fired")
	}
}
