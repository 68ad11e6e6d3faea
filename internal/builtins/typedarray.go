package builtins

import (
	"encoding/binary"
	"math"

	"github.com/asynkron/jsengine/internal/runtime"
)

// arrayBufferData is the Internal payload of an ArrayBuffer: a raw byte
// slice, the storage every typed array view shares (spec.md §4.6).
type arrayBufferData struct {
	bytes []byte
}

func installArrayBuffer(realm *runtime.Realm) {
	proto := realm.Intrinsic("ArrayBuffer.prototype")
	ctor := native(realm, "ArrayBuffer", 1, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor ArrayBuffer requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		n := toInt(arg(args, 0))
		if n < 0 {
			return nil, rangeErr(realm, "Invalid array buffer length")
		}
		o := runtime.NewObject(proto)
		o.Class = "ArrayBuffer"
		o.Internal = &arrayBufferData{bytes: make([]byte, n)}
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)
	byteLenGetter := native(realm, "get byteLength", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return runtime.Number(0), nil
		}
		d, ok := o.Internal.(*arrayBufferData)
		if !ok {
			return runtime.Number(0), nil
		}
		return runtime.Number(len(d.bytes)), nil
	})
	proto.DefineOwnProperty(runtime.StringKey("byteLength"), &runtime.Property{IsAccessor: true, Get: byteLenGetter, Configurable: true})
	method(realm, proto, "slice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "ArrayBuffer.prototype.slice called on non-ArrayBuffer")
		}
		d, ok := o.Internal.(*arrayBufferData)
		if !ok {
			return nil, typeErr(realm, "ArrayBuffer.prototype.slice called on non-ArrayBuffer")
		}
		start, end := sliceBounds(len(d.bytes), arg(args, 0), arg(args, 1))
		out := runtime.NewObject(proto)
		out.Class = "ArrayBuffer"
		out.Internal = &arrayBufferData{bytes: append([]byte{}, d.bytes[start:end]...)}
		return out, nil
	})

	realm.SetIntrinsic("ArrayBuffer", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("ArrayBuffer"), ctor)

	installTypedArrayKinds(realm)
	installDataView(realm)
}

// typedArrayData is the Internal payload of every TypedArray view: the
// backing ArrayBuffer, a byte offset, and the element width/decoder for
// this view's kind.
type typedArrayData struct {
	buffer     *arrayBufferData
	byteOffset int
	length     int
	elemSize   int
	kind       string
}

var typedArrayKinds = []struct {
	name     string
	elemSize int
}{
	{"Int8Array", 1}, {"Uint8Array", 1}, {"Uint8ClampedArray", 1},
	{"Int16Array", 2}, {"Uint16Array", 2},
	{"Int32Array", 4}, {"Uint32Array", 4},
	{"Float32Array", 4}, {"Float64Array", 8},
}

// installTypedArrayKinds wires one constructor + prototype per typed-array
// kind (spec.md §4.6 "ArrayBuffer-backed typed arrays"); read/write go
// through encoding/binary.LittleEndian since JS typed arrays are
// platform-endian and every realistic embedding target here is LE.
func installTypedArrayKinds(realm *runtime.Realm) {
	for _, kind := range typedArrayKinds {
		kind := kind
		proto := realm.NewPlainObject()
		realm.SetIntrinsic(kind.name+".prototype", proto)

		method(realm, proto, "get", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return typedArrayGet(this, toInt(arg(args, 0))), nil
		})
		method(realm, proto, "set", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			typedArraySet(this, toInt(arg(args, 1)), toNumber(arg(args, 0)))
			return runtime.Undefined, nil
		})
		lenGetter := native(realm, "get length", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			o, ok := this.(*runtime.Object)
			if !ok {
				return runtime.Number(0), nil
			}
			d, ok := o.Internal.(*typedArrayData)
			if !ok {
				return runtime.Number(0), nil
			}
			return runtime.Number(d.length), nil
		})
		proto.DefineOwnProperty(runtime.StringKey("length"), &runtime.Property{IsAccessor: true, Get: lenGetter, Configurable: true})
		method(realm, proto, "fill", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			o := this.(*runtime.Object)
			d := o.Internal.(*typedArrayData)
			v := toNumber(arg(args, 0))
			for i := 0; i < d.length; i++ {
				typedArraySet(this, i, v)
			}
			return this, nil
		})

		ctor := native(realm, kind.name, 1, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			return nil, typeErr(realm, "Constructor "+kind.name+" requires 'new'")
		})
		ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
			var buf *arrayBufferData
			offset := 0
			length := 0
			switch a0 := arg(args, 0).(type) {
			case runtime.Number:
				length = int(a0)
				buf = &arrayBufferData{bytes: make([]byte, length*kind.elemSize)}
			case *runtime.Object:
				if ab, ok := a0.Internal.(*arrayBufferData); ok {
					buf = ab
					if len(args) > 1 {
						offset = toInt(args[1])
					}
					length = (len(buf.bytes) - offset) / kind.elemSize
					if len(args) > 2 {
						length = toInt(args[2])
					}
				} else {
					vals := arrayElements(a0)
					buf = &arrayBufferData{bytes: make([]byte, len(vals)*kind.elemSize)}
					length = len(vals)
				}
			default:
				buf = &arrayBufferData{bytes: nil}
			}
			o := runtime.NewObject(proto)
			o.Class = kind.name
			o.Internal = &typedArrayData{buffer: buf, byteOffset: offset, length: length, elemSize: kind.elemSize, kind: kind.name}
			if vals, ok := arg(args, 0).(*runtime.Object); ok {
				if _, isBuf := vals.Internal.(*arrayBufferData); !isBuf {
					for i, v := range arrayElements(vals) {
						typedArraySet(o, i, toNumber(v))
					}
				}
			}
			return o, nil
		}
		ctor.SetHidden(runtime.StringKey("prototype"), proto)
		proto.SetHidden(runtime.StringKey("constructor"), ctor)
		ctor.SetHidden(runtime.StringKey("BYTES_PER_ELEMENT"), runtime.Number(kind.elemSize))

		realm.SetIntrinsic(kind.name, ctor)
		realm.GlobalObject.SetHidden(runtime.StringKey(kind.name), ctor)
	}
}

func typedArrayGet(this runtime.Value, i int) runtime.Value {
	o, ok := this.(*runtime.Object)
	if !ok {
		return runtime.Undefined
	}
	d, ok := o.Internal.(*typedArrayData)
	if !ok || i < 0 || i >= d.length {
		return runtime.Undefined
	}
	off := d.byteOffset + i*d.elemSize
	b := d.buffer.bytes
	switch d.kind {
	case "Int8Array":
		return runtime.Number(int8(b[off]))
	case "Uint8Array", "Uint8ClampedArray":
		return runtime.Number(b[off])
	case "Int16Array":
		return runtime.Number(int16(binary.LittleEndian.Uint16(b[off:])))
	case "Uint16Array":
		return runtime.Number(binary.LittleEndian.Uint16(b[off:]))
	case "Int32Array":
		return runtime.Number(int32(binary.LittleEndian.Uint32(b[off:])))
	case "Uint32Array":
		return runtime.Number(binary.LittleEndian.Uint32(b[off:]))
	case "Float32Array":
		return runtime.Number(math.Float32frombits(binary.LittleEndian.Uint32(b[off:])))
	case "Float64Array":
		return runtime.Number(math.Float64frombits(binary.LittleEndian.Uint64(b[off:])))
	}
	return runtime.Undefined
}

func typedArraySet(this runtime.Value, i int, v float64) {
	o, ok := this.(*runtime.Object)
	if !ok {
		return
	}
	d, ok := o.Internal.(*typedArrayData)
	if !ok || i < 0 || i >= d.length {
		return
	}
	off := d.byteOffset + i*d.elemSize
	b := d.buffer.bytes
	switch d.kind {
	case "Int8Array", "Uint8Array":
		b[off] = byte(int64(v))
	case "Uint8ClampedArray":
		c := v
		if c < 0 {
			c = 0
		}
		if c > 255 {
			c = 255
		}
		b[off] = byte(c)
	case "Int16Array", "Uint16Array":
		binary.LittleEndian.PutUint16(b[off:], uint16(int64(v)))
	case "Int32Array", "Uint32Array":
		binary.LittleEndian.PutUint32(b[off:], uint32(int64(v)))
	case "Float32Array":
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(float32(v)))
	case "Float64Array":
		binary.LittleEndian.PutUint64(b[off:], math.Float64bits(v))
	}
}

func installDataView(realm *runtime.Realm) {
	proto := realm.NewPlainObject()
	realm.SetIntrinsic("DataView.prototype", proto)
	ctor := native(realm, "DataView", 1, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return nil, typeErr(realm, "Constructor DataView requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		buf, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "First argument to DataView constructor must be an ArrayBuffer")
		}
		ab, ok := buf.Internal.(*arrayBufferData)
		if !ok {
			return nil, typeErr(realm, "First argument to DataView constructor must be an ArrayBuffer")
		}
		offset := 0
		if len(args) > 1 {
			offset = toInt(args[1])
		}
		o := runtime.NewObject(proto)
		o.Class = "DataView"
		o.Internal = &typedArrayData{buffer: ab, byteOffset: offset, length: len(ab.bytes) - offset, elemSize: 1, kind: "Uint8Array"}
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)

	getAt := func(name, kind string, size int) {
		method(realm, proto, name, 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			o := this.(*runtime.Object)
			d := o.Internal.(*typedArrayData)
			view := &typedArrayData{buffer: d.buffer, byteOffset: d.byteOffset + toInt(arg(args, 0)), length: 1, elemSize: size, kind: kind}
			tmp := runtime.NewObject(nil)
			tmp.Internal = view
			return typedArrayGet(tmp, 0), nil
		})
	}
	getAt("getInt8", "Int8Array", 1)
	getAt("getUint8", "Uint8Array", 1)
	getAt("getInt16", "Int16Array", 2)
	getAt("getUint16", "Uint16Array", 2)
	getAt("getInt32", "Int32Array", 4)
	getAt("getUint32", "Uint32Array", 4)
	getAt("getFloat32", "Float32Array", 4)
	getAt("getFloat64", "Float64Array", 8)

	setAt := func(name, kind string, size int) {
		method(realm, proto, name, 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			o := this.(*runtime.Object)
			d := o.Internal.(*typedArrayData)
			view := &typedArrayData{buffer: d.buffer, byteOffset: d.byteOffset + toInt(arg(args, 0)), length: 1, elemSize: size, kind: kind}
			tmp := runtime.NewObject(nil)
			tmp.Internal = view
			typedArraySet(tmp, 0, toNumber(arg(args, 1)))
			return runtime.Undefined, nil
		})
	}
	setAt("setInt8", "Int8Array", 1)
	setAt("setUint8", "Uint8Array", 1)
	setAt("setInt16", "Int16Array", 2)
	setAt("setUint16", "Uint16Array", 2)
	setAt("setInt32", "Int32Array", 4)
	setAt("setUint32", "Uint32Array", 4)
	setAt("setFloat32", "Float32Array", 4)
	setAt("setFloat64", "Float64Array", 8)

	realm.SetIntrinsic("DataView", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("DataView"), ctor)
}
