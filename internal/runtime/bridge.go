package runtime

import (
	"fmt"
	"reflect"
)

// ToGo converts a runtime.Value into a plain Go value (string, float64,
// bool, nil, []interface{}, map[string]interface{}) for embedder-facing
// APIs (spec.md §3.6 "host value bridge"), mirroring the teacher's adapter_
// *.go naming convention (internal/interp/adapter_values.go) for the
// boundary between the interpreter's internal value types and the host.
func ToGo(v Value) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case undefinedType:
		return nil
	case nullType:
		return nil
	case Boolean:
		return bool(t)
	case Number:
		return float64(t)
	case String:
		return string(t)
	case *BigInt:
		return t.Digits
	case *Symbol:
		return t
	case *Object:
		return objectToGo(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func objectToGo(o *Object) interface{} {
	if o.IsArrayExotic {
		lenProp := o.GetOwnProperty(StringKey("length"))
		n := 0
		if lenProp != nil {
			if ln, ok := lenProp.Value.(Number); ok {
				n = int(ln)
			}
		}
		out := make([]interface{}, n)
		for i := 0; i < n; i++ {
			v, _ := o.Get(StringKey(fmt.Sprintf("%d", i)), o)
			out[i] = ToGo(v)
		}
		return out
	}
	out := make(map[string]interface{})
	for _, key := range o.OwnKeys() {
		if key.IsSymbol() {
			continue
		}
		p := o.GetOwnProperty(key)
		if p == nil || !p.Enumerable {
			continue
		}
		v, _ := o.Get(key, o)
		out[key.String()] = ToGo(v)
	}
	return out
}

// FromGo converts a plain Go value into a runtime.Value, for values an
// embedder passes in via SetGlobalValue (spec.md §6.1). newObject/newArray
// are supplied by the caller (the interp package, via its Realm) so this
// package never needs to know about Realm-specific prototypes.
func FromGo(v interface{}, newObject func() *Object, newArray func([]Value) *Object) (Value, error) {
	if v == nil {
		return Null, nil
	}
	switch t := v.(type) {
	case Value:
		return t, nil
	case bool:
		return Boolean(t), nil
	case string:
		return String(t), nil
	case int:
		return Number(t), nil
	case int32:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case float64:
		return Number(t), nil
	case []interface{}:
		elems := make([]Value, len(t))
		for i, el := range t {
			cv, err := FromGo(el, newObject, newArray)
			if err != nil {
				return nil, err
			}
			elems[i] = cv
		}
		return newArray(elems), nil
	case map[string]interface{}:
		obj := newObject()
		for k, el := range t {
			cv, err := FromGo(el, newObject, newArray)
			if err != nil {
				return nil, err
			}
			obj.SetData(StringKey(k), cv)
		}
		return obj, nil
	default:
		return nil, fromGoReflect(v, newObject, newArray)
	}
}

func fromGoReflect(v interface{}, newObject func() *Object, newArray func([]Value) *Object) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return fmt.Errorf("jsengine: unsupported host value type %T; convert to []interface{}/map[string]interface{} first", v)
	default:
		return fmt.Errorf("jsengine: unsupported host value type %T", v)
	}
}
