package interp

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/jsengine/internal/parser"
	"github.com/asynkron/jsengine/internal/runtime"
	"github.com/asynkron/jsengine/internal/transform"
)

// newTestInterpreter builds a bare Realm with just enough intrinsic
// scaffolding (Object.prototype/Function.prototype/Array.prototype) for the
// evaluator to run class, closure, and destructuring semantics without
// internal/builtins installed, mirroring how a unit test for one evaluator
// concern shouldn't need the whole standard library wired up.
func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	realm := runtime.NewRealm()
	objProto := runtime.NewObject(nil)
	realm.SetIntrinsic("Object.prototype", objProto)
	fnProto := runtime.NewObject(objProto)
	realm.SetIntrinsic("Function.prototype", fnProto)
	arrProto := runtime.NewObject(objProto)
	realm.SetIntrinsic("Array.prototype", arrProto)
	realm.SetIntrinsic("Error.prototype", runtime.NewObject(objProto))
	realm.GlobalObject = runtime.NewObject(objProto)
	realm.GlobalEnv = runtime.NewEnvironment()
	it := New(realm, 500, nil)

	// Minimal index-based Symbol.iterator, standing in for the real one
	// internal/builtins installs on Array.prototype, so array destructuring
	// and for-of over array literals work in isolation from that package.
	arrProto.SetHidden(runtime.SymbolKey(runtime.SymbolIterator), it.nativeFunction("[Symbol.iterator]", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		arr, _ := this.(*runtime.Object)
		i := 0
		iterObj := realm.NewPlainObject()
		iterObj.SetHidden(runtime.StringKey("next"), it.nativeFunction("next", func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			result := realm.NewPlainObject()
			lenV, _ := arr.Get(runtime.StringKey("length"), arr)
			n := int(lenV.(runtime.Number))
			if i >= n {
				result.SetData(runtime.StringKey("done"), runtime.Boolean(true))
				result.SetData(runtime.StringKey("value"), runtime.Undefined)
				return result, nil
			}
			val, _ := arr.Get(runtime.StringKey(strconv.Itoa(i)), arr)
			i++
			result.SetData(runtime.StringKey("done"), runtime.Boolean(false))
			result.SetData(runtime.StringKey("value"), val)
			return result, nil
		}))
		return iterObj, nil
	}))
	return it
}

func run(t *testing.T, src string) (runtime.Value, error) {
	t.Helper()
	p := parser.New(src, parser.Options{})
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	transform.Program(prog)
	it := newTestInterpreter(t)
	return it.RunProgram(prog)
}

func TestArithmeticAndTemplateLiterals(t *testing.T) {
	v, err := run(t, "let a = 2, b = 3; `${a + b} items`;")
	require.NoError(t, err)
	require.Equal(t, runtime.String("5 items"), v)
}

func TestClosureAndRecursion(t *testing.T) {
	v, err := run(t, `
		function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2); }
		fib(10);
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(55), v)
}

func TestDestructuringWithDefaultsAndRest(t *testing.T) {
	v, err := run(t, `
		function f({a, b = 10, ...rest}) { return a + b + rest.c; }
		f({a: 1, c: 2});
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(13), v)
}

func TestArrayDestructuringRest(t *testing.T) {
	v, err := run(t, `
		let [first, , ...rest] = [1, 2, 3, 4];
		first + rest.length;
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(3), v)
}

func TestClassesFieldsAndPrivateMembers(t *testing.T) {
	v, err := run(t, `
		class Counter {
			#count = 0;
			inc() { this.#count += 1; return this.#count; }
		}
		let c = new Counter();
		c.inc();
		c.inc();
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(2), v)
}

func TestDerivedClassSuperAndFieldOrder(t *testing.T) {
	v, err := run(t, `
		class Base {
			constructor(x) { this.x = x; }
		}
		class Derived extends Base {
			y = this.x + 1;
			constructor(x) { super(x); }
		}
		let d = new Derived(10);
		d.x + d.y;
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(21), v)
}

func TestGeneratorYieldsSequence(t *testing.T) {
	v, err := run(t, `
		function* range(n) {
			for (let i = 0; i < n; i++) yield i;
		}
		let sum = 0;
		for (const v of range(4)) sum += v;
		sum;
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(6), v)
}

func TestGeneratorReturnValue(t *testing.T) {
	v, err := run(t, `
		function* g() { yield 1; return 99; }
		let it = g();
		it.next();
		it.next().value;
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.Number(99), v)
}

func TestTryCatchFinallyOrdering(t *testing.T) {
	v, err := run(t, `
		let log = "";
		function f() {
			try {
				log += "t";
				throw "boom";
			} catch (e) {
				log += "c" + e;
				return log;
			} finally {
				log += "f";
			}
		}
		f();
	`)
	require.NoError(t, err)
	require.Equal(t, runtime.String("tcboom"), v)
}

func TestStackOverflowBecomesRangeError(t *testing.T) {
	_, err := run(t, `
		function loop() { return loop(); }
		loop();
	`)
	require.Error(t, err)
	te, ok := err.(*ThrownError)
	require.True(t, ok, "expected a thrown JS error, got %T: %v", err, err)
	obj, ok := te.Value.(*runtime.Object)
	require.True(t, ok)
	msg, _ := obj.Get(runtime.StringKey("message"), obj)
	require.Equal(t, runtime.String("Maximum call stack size exceeded"), msg)
}
