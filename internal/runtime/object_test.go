package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayLengthGrowsOnIndexAssignment(t *testing.T) {
	arr := NewArray(nil, []Value{Number(1), Number(2)})
	arr.Set(StringKey("5"), Number(9), arr)
	lenProp := arr.GetOwnProperty(StringKey("length"))
	require.Equal(t, Number(6), lenProp.Value)
}

func TestArrayLengthShrinkDeletesIndices(t *testing.T) {
	arr := NewArray(nil, []Value{Number(1), Number(2), Number(3)})
	err := arr.SetArrayLength(1)
	require.NoError(t, err)
	require.False(t, arr.HasOwn(StringKey("1")))
	require.False(t, arr.HasOwn(StringKey("2")))
	require.True(t, arr.HasOwn(StringKey("0")))
}

func TestOwnKeysOrdering(t *testing.T) {
	o := NewObject(nil)
	o.SetData(StringKey("b"), String("b"))
	o.SetData(StringKey("2"), String("two"))
	o.SetData(StringKey("a"), String("a"))
	o.SetData(StringKey("0"), String("zero"))
	keys := o.OwnKeys()
	var got []string
	for _, k := range keys {
		got = append(got, k.String())
	}
	require.Equal(t, []string{"0", "2", "b", "a"}, got)
}

func TestPrototypeChainGet(t *testing.T) {
	proto := NewObject(nil)
	proto.SetData(StringKey("greeting"), String("hi"))
	child := NewObject(proto)
	v, err := child.Get(StringKey("greeting"), child)
	require.NoError(t, err)
	require.Equal(t, String("hi"), v)
}

func TestAccessorProperty(t *testing.T) {
	o := NewObject(nil)
	getter := NewObject(nil)
	getter.Call = func(this Value, args []Value) (Value, error) {
		return Number(42), nil
	}
	o.DefineOwnProperty(StringKey("x"), &Property{IsAccessor: true, Get: getter, Enumerable: true, Configurable: true})
	v, err := o.Get(StringKey("x"), o)
	require.NoError(t, err)
	require.Equal(t, Number(42), v)
}

func TestEnvironmentTDZ(t *testing.T) {
	env := NewEnvironment()
	env.DefineLexical("x", false)
	_, err, found := env.Get("x")
	require.True(t, found)
	require.ErrorIs(t, err, ErrTDZ)

	env.InitializeBinding("x", Number(1))
	v, err, found := env.Get("x")
	require.True(t, found)
	require.NoError(t, err)
	require.Equal(t, Number(1), v)
}

func TestEnvironmentConstReassignmentFails(t *testing.T) {
	env := NewEnvironment()
	env.DefineLexical("x", true)
	env.InitializeBinding("x", Number(1))
	err, found := env.Set("x", Number(2))
	require.True(t, found)
	require.Error(t, err)
}

func TestEnvironmentChainLookup(t *testing.T) {
	outer := NewEnvironment()
	outer.DefineVar("x")
	outer.InitializeBinding("x", Number(7))
	inner := NewEnclosedEnvironment(outer)
	v, err, found := inner.Get("x")
	require.True(t, found)
	require.NoError(t, err)
	require.Equal(t, Number(7), v)
}
