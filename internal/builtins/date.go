package builtins

import (
	"fmt"
	"time"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installDate wires Date via time.Time (spec.md §4.6), storing epoch
// milliseconds as the Internal payload the way userFunction stores its
// closure — Date has no sensible representation as a plain Go struct field
// on runtime.Object, so it goes through Internal like every other built-in
// exotic object in this package.
func installDate(realm *runtime.Realm) {
	proto := realm.Intrinsic("Date.prototype")

	ctor := native(realm, "Date", 7, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(time.Now().UTC().Format(time.RFC1123)), nil
	})
	ctor.Construct = func(args []runtime.Value, _ *runtime.Object) (runtime.Value, error) {
		o := runtime.NewObject(proto)
		o.Class = "Date"
		o.Internal = dateMillis(args)
		return o, nil
	}
	ctor.SetHidden(runtime.StringKey("prototype"), proto)
	proto.SetHidden(runtime.StringKey("constructor"), ctor)
	method(realm, ctor, "now", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Number(float64(time.Now().UnixMilli())), nil
	})
	method(realm, ctor, "parse", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		t, err := parseDateString(toStr(arg(args, 0)))
		if err != nil {
			return runtime.Number(nan()), nil
		}
		return runtime.Number(float64(t.UnixMilli())), nil
	})
	method(realm, ctor, "UTC", 7, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(dateMillis(args)), nil
	})

	get := func(name string, fn func(time.Time) float64) {
		method(realm, proto, name, 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			return runtime.Number(fn(thisTime(this))), nil
		})
	}
	get("getFullYear", func(t time.Time) float64 { return float64(t.Year()) })
	get("getMonth", func(t time.Time) float64 { return float64(t.Month() - 1) })
	get("getDate", func(t time.Time) float64 { return float64(t.Day()) })
	get("getDay", func(t time.Time) float64 { return float64(t.Weekday()) })
	get("getHours", func(t time.Time) float64 { return float64(t.Hour()) })
	get("getMinutes", func(t time.Time) float64 { return float64(t.Minute()) })
	get("getSeconds", func(t time.Time) float64 { return float64(t.Second()) })
	get("getMilliseconds", func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) })
	get("getUTCFullYear", func(t time.Time) float64 { return float64(t.UTC().Year()) })
	get("getUTCMonth", func(t time.Time) float64 { return float64(t.UTC().Month() - 1) })
	get("getUTCDate", func(t time.Time) float64 { return float64(t.UTC().Day()) })
	get("getUTCHours", func(t time.Time) float64 { return float64(t.UTC().Hour()) })
	get("getTimezoneOffset", func(t time.Time) float64 { _, off := t.Zone(); return float64(-off / 60) })
	method(realm, proto, "getTime", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Number(float64(thisTime(this).UnixMilli())), nil
	})
	method(realm, proto, "valueOf", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Number(float64(thisTime(this).UnixMilli())), nil
	})
	method(realm, proto, "setTime", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		o, ok := this.(*runtime.Object)
		if !ok {
			return nil, typeErr(realm, "Date.prototype.setTime called on non-Date")
		}
		ms := toNumber(arg(args, 0))
		o.Internal = ms
		return runtime.Number(ms), nil
	})
	method(realm, proto, "toISOString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(thisTime(this).UTC().Format("2006-01-02T15:04:05.000Z")), nil
	})
	method(realm, proto, "toJSON", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(thisTime(this).UTC().Format("2006-01-02T15:04:05.000Z")), nil
	})
	method(realm, proto, "toString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(thisTime(this).Format(time.RFC1123)), nil
	})
	method(realm, proto, "toDateString", 0, func(this runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.String(thisTime(this).Format("Mon Jan 02 2006")), nil
	})

	realm.SetIntrinsic("Date", ctor)
	realm.GlobalObject.SetHidden(runtime.StringKey("Date"), ctor)
}

func thisTime(this runtime.Value) time.Time {
	o, ok := this.(*runtime.Object)
	if !ok {
		return time.Unix(0, 0).UTC()
	}
	ms, ok := o.Internal.(float64)
	if !ok {
		return time.Unix(0, 0).UTC()
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func dateMillis(args []runtime.Value) float64 {
	switch len(args) {
	case 0:
		return float64(time.Now().UnixMilli())
	case 1:
		if s, ok := args[0].(runtime.String); ok {
			t, err := parseDateString(string(s))
			if err != nil {
				return nan()
			}
			return float64(t.UnixMilli())
		}
		return toNumber(args[0])
	default:
		year := toInt(arg(args, 0))
		month := toInt(arg(args, 1))
		day := 1
		if len(args) > 2 {
			day = toInt(args[2])
		}
		hour, minute, sec, nsec := 0, 0, 0, 0
		if len(args) > 3 {
			hour = toInt(args[3])
		}
		if len(args) > 4 {
			minute = toInt(args[4])
		}
		if len(args) > 5 {
			sec = toInt(args[5])
		}
		if len(args) > 6 {
			nsec = toInt(args[6]) * 1e6
		}
		t := time.Date(year, time.Month(month+1), day, hour, minute, sec, nsec, time.UTC)
		return float64(t.UnixMilli())
	}
}

func parseDateString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02", time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
