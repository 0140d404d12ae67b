package tabular

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a schema-less JSON-like value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *Object
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a sequence of values
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

// ObjectValue wraps an Object. A nil object is treated as an empty one.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Field is a single key/value pair used by Obj
type Field struct {
	Key   string
	Value Value
}

// F builds a Field
func F(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

// Obj builds an object value with fields in the given order
func Obj(fields ...Field) Value {
	o := NewObject()
	for _, f := range fields {
		o.Set(f.Key, f.Value)
	}
	return ObjectValue(o)
}

// Kind reports the variant
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns the array payload. The slice must not be modified.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the object payload
func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

// Lookup resolves a dotted path against nested objects
func (v Value) Lookup(path string) (Value, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		o, ok := cur.AsObject()
		if !ok {
			return Value{}, false
		}
		next, ok := o.Get(seg)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// MarshalJSON encodes the value preserving object key order
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes any JSON document preserving object key order
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(FormatNumber(v.n))
	case KindString:
		enc, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range v.obj.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			enc, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(enc)
			buf.WriteByte(':')
			if err := v.obj.vals[key].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("tabular: cannot encode %s", v.kind)
	}
	return nil
}

// Object is an insertion-ordered string-keyed map
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject creates an empty object
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set stores v under key. Re-setting an existing key keeps its original position.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value stored under key
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys
func (o *Object) Len() int { return len(o.keys) }

// FromAny converts decoded Go values into a Value tree. Keys of Go maps have no
// order, so they are sorted to keep the result deterministic.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("tabular: invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			o.Set(k, v)
		}
		return ObjectValue(o), nil
	default:
		return Value{}, fmt.Errorf("tabular: unsupported type %T", x)
	}
}

// FormatNumber renders n the way a browser's default number-to-string
// conversion does: shortest round-trip digits, no trailing ".0", and exponent
// notation outside [1e-6, 1e21).
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
