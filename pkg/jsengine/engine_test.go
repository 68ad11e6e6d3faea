package jsengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/jsengine/internal/config"
	"github.com/asynkron/jsengine/pkg/jsengine"
)

func TestEvaluateReturnsConvertedValue(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	v, err := eng.Evaluate(context.Background(), `1 + 2`)
	require.NoError(t, err)
	require.Equal(t, float64(3), v)
}

// TestEvaluateResolvesInstalledGlobals pins the fix to
// internal/runtime/environment.go: an ordinary top-level script reading a
// bare `console` identifier must resolve to the built-in installed on
// realm.GlobalObject, not silently evaluate to undefined.
func TestEvaluateResolvesInstalledGlobals(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	v, err := eng.Evaluate(context.Background(), `typeof console.log`)
	require.NoError(t, err)
	require.Equal(t, "function", v)
}

func TestSetGlobalValueIsVisibleAsBareIdentifier(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	require.NoError(t, eng.SetGlobalValue(context.Background(), "answer", float64(42)))

	v, err := eng.Evaluate(context.Background(), `answer * 2`)
	require.NoError(t, err)
	require.Equal(t, float64(84), v)
}

func TestSetGlobalFunctionRoundTripsArgsAndReturn(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	err := eng.SetGlobalFunction(context.Background(), "add", func(args []interface{}) (interface{}, error) {
		a, _ := args[0].(float64)
		b, _ := args[1].(float64)
		return a + b, nil
	})
	require.NoError(t, err)

	v, err := eng.Evaluate(context.Background(), `add(40, 2)`)
	require.NoError(t, err)
	require.Equal(t, float64(42), v)
}

func TestSetGlobalFunctionErrorBecomesCatchableThrow(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	err := eng.SetGlobalFunction(context.Background(), "fail", func(args []interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)

	v, err := eng.Evaluate(context.Background(), `
		let caught = "";
		try { fail(); } catch (e) { caught = e.message; }
		caught;
	`)
	require.NoError(t, err)
	require.Equal(t, "boom", v)
}

func TestEvaluateModuleResolvesRelativeImportsViaModuleLoader(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	eng.SetModuleLoader(func(specifier, referrer string) (string, error) {
		if specifier == "math" {
			return `export function double(x) { return x * 2; }`, nil
		}
		return "", errors.New("unknown module: " + specifier)
	})

	ns, err := eng.EvaluateModule(context.Background(), `
		import { double } from "./math";
		export const result = double(21);
	`, "entry.js")
	require.NoError(t, err)

	nsMap, ok := ns.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(42), nsMap["result"])
}

func TestEvaluateTimesOutOnRunawayLoop(t *testing.T) {
	eng := jsengine.New(jsengine.WithExecutionTimeout(50 * time.Millisecond))
	defer eng.Close()

	_, err := eng.Evaluate(context.Background(), `while (true) {}`)
	require.Error(t, err)
}

func TestDebugMessagesCapturesDebugCalls(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	msgs := eng.DebugMessages()
	_, err := eng.Evaluate(context.Background(), `__debug("hello", {count: 3});`)
	require.NoError(t, err)

	select {
	case rec := <-msgs:
		require.Equal(t, "hello", rec.Message)
		require.EqualValues(t, 3, rec.Field("fields.count").Num)
	case <-time.After(time.Second):
		t.Fatal("expected a debug record")
	}
}

func TestExceptionsCapturesUncaughtThrow(t *testing.T) {
	eng := jsengine.New()
	defer eng.Close()

	excs := eng.Exceptions()
	_, err := eng.Evaluate(context.Background(), `throw new TypeError("kaboom");`)
	require.Error(t, err)

	select {
	case rec := <-excs:
		require.Equal(t, "kaboom", rec.Message)
	case <-time.After(time.Second):
		t.Fatal("expected an exception record")
	}
}

func TestFromConfigComposesWithFunctionalOptions(t *testing.T) {
	depth := 50
	eng := jsengine.New(
		jsengine.WithExecutionTimeout(5*time.Second),
		jsengine.FromConfig(config.Overlay{MaxCallDepth: &depth}),
	)
	defer eng.Close()

	_, err := eng.Evaluate(context.Background(), `
		function recurse(n) { return recurse(n + 1); }
		recurse(0);
	`)
	require.Error(t, err)
}
