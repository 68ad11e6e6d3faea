package builtins

import (
	"strconv"
	"strings"

	"github.com/asynkron/jsengine/internal/runtime"
)

// installJSON wires JSON.stringify/parse (spec.md §4.6). Hand-rolled over
// runtime.Value directly rather than routing through encoding/json or the
// tidwall gjson/sjson pair: those operate on []byte document trees, and
// stringify/parse need to walk/produce the engine's own Object graph
// (prototype-aware toJSON hooks, Property insertion order), which neither
// library's API is shaped for. gjson/sjson are reserved for
// internal/diagnostics' structured log records instead (SPEC_FULL.md
// §2.1 domain-stack table).
func installJSON(realm *runtime.Realm) {
	j := realm.NewPlainObject()

	j.SetHidden(runtime.StringKey("stringify"), native(realm, "stringify", 3, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		indent := ""
		if len(args) > 2 {
			switch v := args[2].(type) {
			case runtime.Number:
				n := int(v)
				if n > 10 {
					n = 10
				}
				if n > 0 {
					indent = strings.Repeat(" ", n)
				}
			case runtime.String:
				indent = string(v)
			}
		}
		var b strings.Builder
		ok, err := jsonStringify(&b, arg(args, 0), indent, "", map[*runtime.Object]bool{})
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.Undefined, nil
		}
		return runtime.String(b.String()), nil
	}))
	j.SetHidden(runtime.StringKey("parse"), native(realm, "parse", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := toStr(arg(args, 0))
		p := &jsonParser{realm: realm, s: s}
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos != len(p.s) {
			return nil, syntaxErr(realm, "Unexpected token in JSON")
		}
		return v, nil
	}))

	j.SetHidden(runtime.SymbolKey(runtime.SymbolToStringTag), runtime.String("JSON"))
	realm.SetIntrinsic("JSON", j)
	realm.GlobalObject.SetHidden(runtime.StringKey("JSON"), j)
}

func jsonStringify(b *strings.Builder, v runtime.Value, indent, cur string, seen map[*runtime.Object]bool) (bool, error) {
	if o, ok := v.(*runtime.Object); ok {
		if toJSON, _ := o.Get(runtime.StringKey("toJSON"), o); toJSON != runtime.Undefined {
			if fn, ok := toJSON.(*runtime.Object); ok && fn.Call != nil {
				res, err := fn.Call(o, nil)
				if err != nil {
					return false, err
				}
				return jsonStringify(b, res, indent, cur, seen)
			}
		}
	}
	switch t := v.(type) {
	case nil:
		return false, nil
	case runtime.Boolean:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return true, nil
	case runtime.Number:
		f := float64(t)
		if f != f || f > 1e308 || f < -1e308 {
			b.WriteString("null")
		} else {
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return true, nil
	case runtime.String:
		writeJSONString(b, string(t))
		return true, nil
	case *runtime.Object:
		if seen[t] {
			return false, nil
		}
		seen[t] = true
		defer delete(seen, t)
		if t.Call != nil {
			return false, nil
		}
		next := cur + indent
		if t.IsArrayExotic {
			elems := arrayElements(t)
			b.WriteByte('[')
			for i, e := range elems {
				if i > 0 {
					b.WriteByte(',')
				}
				newline(b, indent, next)
				ok, err := jsonStringify(b, e, indent, next, seen)
				if err != nil {
					return false, err
				}
				if !ok {
					b.WriteString("null")
				}
			}
			if len(elems) > 0 {
				newline(b, indent, cur)
			}
			b.WriteByte(']')
			return true, nil
		}
		b.WriteByte('{')
		first := true
		for _, k := range t.OwnKeys() {
			if k.IsSymbol() {
				continue
			}
			p := t.GetOwnProperty(k)
			if p == nil || !p.Enumerable {
				continue
			}
			pv, _ := t.Get(k, t)
			var tmp strings.Builder
			ok, err := jsonStringify(&tmp, pv, indent, next, seen)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			newline(b, indent, next)
			writeJSONString(b, k.String())
			b.WriteByte(':')
			if indent != "" {
				b.WriteByte(' ')
			}
			b.WriteString(tmp.String())
		}
		if !first {
			newline(b, indent, cur)
		}
		b.WriteByte('}')
		return true, nil
	default:
		return false, nil
	}
}

func newline(b *strings.Builder, indent, cur string) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(cur)
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString("\\u")
				b.WriteString(strconv.FormatInt(int64(r), 16))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// jsonParser is a small hand-rolled recursive-descent JSON parser building
// runtime.Value directly (an encoding/json Unmarshal into interface{} would
// need a second pass to turn map[string]interface{}/[]interface{} into
// Objects anyway, so there's no value in routing through it).
type jsonParser struct {
	realm *runtime.Realm
	s     string
	pos   int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue() (runtime.Value, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, syntaxErr(p.realm, "Unexpected end of JSON input")
	}
	switch c := p.s[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return runtime.String(s), nil
	case c == 't':
		return p.expect("true", runtime.Boolean(true))
	case c == 'f':
		return p.expect("false", runtime.Boolean(false))
	case c == 'n':
		return p.expect("null", runtime.Null)
	default:
		return p.parseNumber()
	}
}

func (p *jsonParser) expect(lit string, v runtime.Value) (runtime.Value, error) {
	if p.pos+len(lit) > len(p.s) || p.s[p.pos:p.pos+len(lit)] != lit {
		return nil, syntaxErr(p.realm, "Unexpected token in JSON")
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseNumber() (runtime.Value, error) {
	start := p.pos
	for p.pos < len(p.s) && strings.ContainsRune("+-0123456789.eE", rune(p.s[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return nil, syntaxErr(p.realm, "Unexpected token in JSON")
	}
	f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return nil, syntaxErr(p.realm, "Unexpected number in JSON")
	}
	return runtime.Number(f), nil
}

func (p *jsonParser) parseString() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.s) {
				break
			}
			switch p.s[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 < len(p.s) {
					n, err := strconv.ParseInt(p.s[p.pos+1:p.pos+5], 16, 32)
					if err == nil {
						b.WriteRune(rune(n))
					}
					p.pos += 4
				}
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", syntaxErr(p.realm, "Unterminated string in JSON")
}

func (p *jsonParser) parseArray() (runtime.Value, error) {
	p.pos++ // [
	var elems []runtime.Value
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return p.realm.NewArray(elems), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, syntaxErr(p.realm, "Unexpected end of JSON input")
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == ']' {
			p.pos++
			return p.realm.NewArray(elems), nil
		}
		return nil, syntaxErr(p.realm, "Unexpected token in JSON")
	}
}

func (p *jsonParser) parseObject() (runtime.Value, error) {
	p.pos++ // {
	o := p.realm.NewPlainObject()
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return o, nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != '"' {
			return nil, syntaxErr(p.realm, "Unexpected token in JSON")
		}
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return nil, syntaxErr(p.realm, "Unexpected token in JSON")
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		o.SetData(runtime.StringKey(key), v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, syntaxErr(p.realm, "Unexpected end of JSON input")
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == '}' {
			p.pos++
			return o, nil
		}
		return nil, syntaxErr(p.realm, "Unexpected token in JSON")
	}
}
