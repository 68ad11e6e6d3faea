package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/jsengine/internal/diagnostics"
)

func TestDebugPublishesToSubscriber(t *testing.T) {
	rec := diagnostics.New("realm-1")
	ch := rec.DebugMessages()

	rec.Debug("hello", map[string]interface{}{"count": 3})

	got := <-ch
	require.Equal(t, diagnostics.KindDebug, got.Kind)
	require.Equal(t, "hello", got.Message)
	require.Equal(t, "realm-1", got.RealmID)
	require.NotEmpty(t, got.ID)
	require.Equal(t, float64(3), got.Field("fields.count").Num)
}

func TestExceptionCarriesStack(t *testing.T) {
	rec := diagnostics.New("realm-1")
	ch := rec.Exceptions()

	rec.Exception("boom", "at f (1:1)\nat g (2:1)")

	got := <-ch
	require.Equal(t, diagnostics.KindException, got.Kind)
	require.Equal(t, "at f (1:1)\nat g (2:1)", got.Field("fields.stack").String())
}

func TestAsyncEventIsNoOpUntilEnabled(t *testing.T) {
	rec := diagnostics.New("realm-1")
	ch := rec.AsyncTrace()

	rec.AsyncEvent("next-called", nil)
	select {
	case <-ch:
		t.Fatal("expected no event while async tracing is disabled")
	default:
	}

	rec.EnableAsyncTrace(true)
	rec.AsyncEvent("next-called", nil)
	got := <-ch
	require.Equal(t, diagnostics.KindAsyncTrace, got.Kind)
	require.Equal(t, "next-called", got.Message)
}

func TestMultipleSubscribersEachReceiveTheRecord(t *testing.T) {
	rec := diagnostics.New("realm-1")
	a := rec.DebugMessages()
	b := rec.DebugMessages()

	rec.Debug("hi", nil)

	ga := <-a
	gb := <-b
	require.Equal(t, ga.ID, gb.ID)
}

func TestSlowSubscriberDropsRatherThanBlocksPublisher(t *testing.T) {
	rec := diagnostics.New("realm-1")
	_ = rec.DebugMessages() // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			rec.Debug("spam", nil)
		}
	}()
	<-done
}
