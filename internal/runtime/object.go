package runtime

import (
	"fmt"
	"math"
	"strconv"
)

// Property is a single own property record: either a data property (Value
// set) or an accessor property (Get/Set set), never both (spec.md §3.2).
type Property struct {
	Value        Value
	Get          Value // *FunctionObject, or nil
	Set          Value // *FunctionObject, or nil
	Writable     bool
	Enumerable   bool
	Configurable bool
	IsAccessor   bool
}

// Object is the runtime representation of every JavaScript reference value:
// plain objects, arrays, functions, errors, and every built-in exotic
// object. Grounded on the teacher's ObjectInstance (internal/interp/runtime
// /object.go), generalized from a fixed class-field map to the full
// property-descriptor model JavaScript requires.
type Object struct {
	Class      string // internal [[Class]] slot: "Object", "Array", "Function", "Error", ...
	Proto      *Object
	Extensible bool

	props   map[PropertyKey]*Property
	order   []PropertyKey
	orderIx map[PropertyKey]int

	// IsArrayExotic marks objects that enforce the Array `length` invariant
	// (spec.md §3.2): setting an integer-index property past the current
	// length auto-grows length, and setting `length` to a smaller value
	// deletes indices at or above the new length.
	IsArrayExotic bool

	// Call/Construct are non-nil for callable objects ([[Call]]/
	// [[Construct]] internal methods, spec.md §3.1). The evaluator package
	// supplies the concrete closures; runtime only stores them.
	Call      func(this Value, args []Value) (Value, error)
	Construct func(args []Value, newTarget *Object) (Value, error)

	// Internal holds host-defined private state for exotic objects (Map's
	// hash table, Date's instant, RegExp's compiled pattern, Promise's
	// state machine, bound-function target, etc.) so a single Object type
	// can back every built-in without a type-switch explosion upstream.
	Internal interface{}

	// PrivateFields holds class private instance fields (#x), keyed by a
	// *PrivateFieldKey unique per class declaration, per spec.md's class
	// semantics. Not enumerable, not reachable via property operations.
	PrivateFields map[*PrivateFieldKey]Value
}

// PrivateFieldKey identifies one `#name` declaration. Two classes that both
// declare `#x` get distinct keys, so a branded-check `#x in obj` only
// matches instances of the declaring class (spec.md §4.7 class semantics).
type PrivateFieldKey struct {
	Name string
}

// NewObject creates a plain object with the given prototype (nil for
// Object.prototype's own creation, i.e. the object with no prototype).
func NewObject(proto *Object) *Object {
	return &Object{
		Class:      "Object",
		Proto:      proto,
		Extensible: true,
		props:      make(map[PropertyKey]*Property),
		orderIx:    make(map[PropertyKey]int),
	}
}

func (o *Object) Type() string { return "object" }

func (o *Object) String() string {
	if o.Call != nil {
		return "function " + o.Class + "() { [native code] }"
	}
	return "[object " + o.Class + "]"
}

func (o *Object) IsNil() bool { return o == nil }

// GetOwnProperty returns the own property for key, or nil if absent.
func (o *Object) GetOwnProperty(key PropertyKey) *Property {
	return o.props[key]
}

// HasOwn reports whether key is an own property.
func (o *Object) HasOwn(key PropertyKey) bool {
	_, ok := o.props[key]
	return ok
}

// DefineOwnProperty installs or overwrites an own property, maintaining
// insertion order and the Array length invariant when IsArrayExotic.
func (o *Object) DefineOwnProperty(key PropertyKey, p *Property) bool {
	if _, exists := o.props[key]; !exists {
		if !o.Extensible {
			return false
		}
		o.orderIx[key] = len(o.order)
		o.order = append(o.order, key)
	}
	o.props[key] = p
	if o.IsArrayExotic {
		o.adjustLengthForIndex(key)
	}
	return true
}

func (o *Object) adjustLengthForIndex(key PropertyKey) {
	idx, ok := key.isArrayIndex()
	if !ok {
		return
	}
	lenProp := o.props[StringKey("length")]
	if lenProp == nil {
		return
	}
	cur, _ := lenProp.Value.(Number)
	if float64(idx)+1 > float64(cur) {
		lenProp.Value = Number(float64(idx) + 1)
	}
}

// SetArrayLength implements the exotic [[Set]] for Array's `length`
// property: shrinking it deletes every own index at or above the new
// length (spec.md §3.2).
func (o *Object) SetArrayLength(newLen uint32) error {
	lenProp := o.props[StringKey("length")]
	if lenProp == nil {
		return fmt.Errorf("object has no length property")
	}
	if !lenProp.Writable {
		return fmt.Errorf("TypeError: Cannot assign to read only property 'length'")
	}
	oldLen, _ := lenProp.Value.(Number)
	if uint32(oldLen) > newLen {
		for i := uint32(oldLen); i > newLen; i-- {
			o.DeleteOwn(StringKey(strconv.FormatUint(uint64(i-1), 10)))
		}
	}
	lenProp.Value = Number(newLen)
	return nil
}

// DeleteOwn removes an own property, preserving order indices of the rest.
func (o *Object) DeleteOwn(key PropertyKey) bool {
	p, ok := o.props[key]
	if !ok {
		return true
	}
	if !p.Configurable {
		return false
	}
	delete(o.props, key)
	ix := o.orderIx[key]
	o.order = append(o.order[:ix], o.order[ix+1:]...)
	delete(o.orderIx, key)
	for i := ix; i < len(o.order); i++ {
		o.orderIx[o.order[i]] = i
	}
	return true
}

// OwnKeys returns own property keys in spec.md §3.2 order: ascending
// integer indices, then strings in insertion order, then symbols in
// insertion order.
func (o *Object) OwnKeys() []PropertyKey {
	return sortPropertyKeys(o.order, o.orderIx)
}

// Get performs the full [[Get]] algorithm, walking the prototype chain and
// invoking accessor getters (spec.md §3.2).
func (o *Object) Get(key PropertyKey, receiver Value) (Value, error) {
	for cur := o; cur != nil; cur = cur.Proto {
		if p, ok := cur.props[key]; ok {
			if p.IsAccessor {
				if p.Get == nil {
					return Undefined, nil
				}
				getter, ok := p.Get.(*Object)
				if !ok || getter.Call == nil {
					return Undefined, nil
				}
				return getter.Call(receiver, nil)
			}
			return p.Value, nil
		}
	}
	return Undefined, nil
}

// Set performs the full [[Set]] algorithm, including shadowing an inherited
// accessor setter and the Array length invariant (spec.md §3.2).
func (o *Object) Set(key PropertyKey, value Value, receiver *Object) error {
	for cur := o; cur != nil; cur = cur.Proto {
		if p, ok := cur.props[key]; ok {
			if p.IsAccessor {
				if p.Set == nil {
					return nil // silently ignored per spec (non-strict); strict mode throws upstream
				}
				setter, ok := p.Set.(*Object)
				if !ok || setter.Call == nil {
					return nil
				}
				_, err := setter.Call(receiver, []Value{value})
				return err
			}
			if cur == receiver {
				if !p.Writable {
					return fmt.Errorf("TypeError: Cannot assign to read only property %q", key.String())
				}
				if key.String() == "length" && receiver.IsArrayExotic {
					n, ok := toArrayLength(value)
					if ok {
						return receiver.SetArrayLength(n)
					}
				}
				p.Value = value
				if receiver.IsArrayExotic {
					receiver.adjustLengthForIndex(key)
				}
				return nil
			}
			break
		}
	}
	if !receiver.Extensible {
		return nil
	}
	receiver.DefineOwnProperty(key, &Property{Value: value, Writable: true, Enumerable: true, Configurable: true})
	return nil
}

func toArrayLength(v Value) (uint32, bool) {
	n, ok := v.(Number)
	if !ok {
		return 0, false
	}
	f := float64(n)
	if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0, false
	}
	return uint32(f), true
}

// SetData is a convenience for installing a plain writable/enumerable/
// configurable data property, the common case for user object literals.
func (o *Object) SetData(key PropertyKey, v Value) {
	o.DefineOwnProperty(key, &Property{Value: v, Writable: true, Enumerable: true, Configurable: true})
}

// SetHidden installs a non-enumerable data property, used for prototype
// methods and internal slots that `for...in`/Object.keys must not see.
func (o *Object) SetHidden(key PropertyKey, v Value) {
	o.DefineOwnProperty(key, &Property{Value: v, Writable: true, Enumerable: false, Configurable: true})
}

// NewArray creates an exotic Array object with the given initial elements.
func NewArray(proto *Object, elements []Value) *Object {
	arr := NewObject(proto)
	arr.Class = "Array"
	arr.IsArrayExotic = true
	arr.DefineOwnProperty(StringKey("length"), &Property{Value: Number(len(elements)), Writable: true})
	for i, el := range elements {
		arr.SetData(StringKey(strconv.Itoa(i)), el)
	}
	return arr
}
