package lang

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// DataKind identifies the variant of a [Data] value.
type DataKind uint8

const (
	KindNil        DataKind = iota // nil
	KindBool                       // bool
	KindInt                        // int
	KindFloat                      // float
	KindString                     // string
	KindArray                      // array
	KindDictionary                 // dictionary
)

var dataKindName = [...]string{
	KindNil:        "nil",
	KindBool:       "bool",
	KindInt:        "int",
	KindFloat:      "float",
	KindString:     "string",
	KindArray:      "array",
	KindDictionary: "dictionary",
}

func (k DataKind) String() string {
	if int(k) < len(dataKindName) {
		return dataKindName[k]
	}

	return "DataKind(" + strconv.Itoa(int(k)) + ")"
}

// Data is a dynamically typed template value. The zero Data is nil.
//
// Arrays and dictionaries are treated as immutable once constructed;
// operations that change a collection build a new one.
type Data struct {
	a    []Data
	d    map[string]Data
	s    string
	i    int64
	f    float64
	kind DataKind
	b    bool
}

// Nil returns the nil value.
func Nil() Data { return Data{} }

// Bool returns a boolean value.
func Bool(b bool) Data { return Data{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Data { return Data{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Data { return Data{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Data { return Data{kind: KindString, s: s} }

// Array returns an array value holding elems.
func Array(elems ...Data) Data {
	if elems == nil {
		elems = []Data{}
	}

	return Data{kind: KindArray, a: elems}
}

// Dictionary returns a dictionary value holding m.
func Dictionary(m map[string]Data) Data {
	if m == nil {
		m = map[string]Data{}
	}

	return Data{kind: KindDictionary, d: m}
}

// Kind returns the variant of v.
func (v Data) Kind() DataKind { return v.kind }

// IsNil reports whether v is nil.
func (v Data) IsNil() bool { return v.kind == KindNil }

// AsBool returns the boolean held by v.
func (v Data) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v.
func (v Data) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the number held by v, converting integers.
func (v Data) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the string held by v.
func (v Data) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns the elements held by v.
func (v Data) AsArray() ([]Data, bool) { return v.a, v.kind == KindArray }

// AsDictionary returns the entries held by v.
func (v Data) AsDictionary() (map[string]Data, bool) {
	return v.d, v.kind == KindDictionary
}

// Len returns the number of elements of a collection or characters of a
// string, and false for any other kind.
func (v Data) Len() (int, bool) {
	switch v.kind {
	case KindArray:
		return len(v.a), true
	case KindDictionary:
		return len(v.d), true
	case KindString:
		return len([]rune(v.s)), true
	default:
		return 0, false
	}
}

// Keys returns the dictionary keys of v in iteration order.
func (v Data) Keys() []string {
	if v.kind != KindDictionary {
		return nil
	}

	return slices.Sorted(maps.Keys(v.d))
}

// Truthy reports whether v satisfies a conditional guard.
// Nil, false, zero numbers, and the empty string are false; any collection
// is true.
func (v Data) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray, KindDictionary:
		return true
	default:
		return false
	}
}

// Equal reports whether v and w hold equal values. Integers and floats
// compare numerically.
func (v Data) Equal(w Data) bool {
	if v.isNumber() && w.isNumber() {
		if v.kind == KindInt && w.kind == KindInt {
			return v.i == w.i
		}

		a, _ := v.AsFloat()
		b, _ := w.AsFloat()

		return a == b
	}

	if v.kind != w.kind {
		return false
	}

	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == w.b
	case KindString:
		return v.s == w.s
	case KindArray:
		return slices.EqualFunc(v.a, w.a, Data.Equal)
	case KindDictionary:
		return maps.EqualFunc(v.d, w.d, Data.Equal)
	default:
		return false
	}
}

func (v Data) isNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// String returns the text written to output when v is interpolated.
// Nil renders empty and strings render verbatim; collections use the
// bracket notation of their literal syntax.
func (v Data) String() string {
	switch v.kind {
	case KindNil:
		return ""
	case KindString:
		return v.s
	default:
		var sb strings.Builder

		v.writeNested(&sb)

		return sb.String()
	}
}

// Literal returns v in template literal syntax, e.g. ["a": 1, "b": nil].
func (v Data) Literal() string {
	var sb strings.Builder

	v.writeNested(&sb)

	return sb.String()
}

func (v Data) writeNested(sb *strings.Builder) {
	switch v.kind {
	case KindNil:
		sb.WriteString("nil")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(formatFloat(v.f))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindArray:
		sb.WriteByte('[')

		for i, e := range v.a {
			if i > 0 {
				sb.WriteString(", ")
			}

			e.writeNested(sb)
		}

		sb.WriteByte(']')
	case KindDictionary:
		if len(v.d) == 0 {
			sb.WriteString("[:]")

			return
		}

		sb.WriteByte('[')

		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			v.d[k].writeNested(sb)
		}

		sb.WriteByte(']')
	}
}

// formatFloat renders integral floats with a trailing ".0" so they remain
// distinguishable from integers.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 0) || math.IsNaN(f):
		return strconv.FormatFloat(f, 'g', -1, 64)
	case math.Abs(f) >= 1e16:
		return strconv.FormatFloat(f, 'g', -1, 64)
	case f == math.Trunc(f):
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// Native converts v to plain Go values: nil, bool, int64, float64, string,
// []any, and map[string]any.
func (v Data) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.a))
		for i, e := range v.a {
			out[i] = e.Native()
		}

		return out
	case KindDictionary:
		out := make(map[string]any, len(v.d))
		for k, e := range v.d {
			out[k] = e.Native()
		}

		return out
	default:
		return nil
	}
}

// FromNative converts a Go value to Data. Slices, arrays, and maps convert
// recursively; map keys are formatted with [fmt.Sprint]. Values of any other
// type convert to their [fmt.Sprint] string.
func FromNative(x any) Data {
	switch t := x.(type) {
	case nil:
		return Nil()
	case Data:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case []byte:
		return String(string(t))
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case []Data:
		return Array(t...)
	case map[string]Data:
		return Dictionary(t)
	case []any:
		out := make([]Data, len(t))
		for i, e := range t {
			out[i] = FromNative(e)
		}

		return Array(out...)
	case map[string]any:
		out := make(map[string]Data, len(t))
		for k, e := range t {
			out[k] = FromNative(e)
		}

		return Dictionary(out)
	}

	rv := reflect.ValueOf(x)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil()
		}

		return FromNative(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Float(float64(u))
		}

		return Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Slice, reflect.Array:
		out := make([]Data, rv.Len())
		for i := range out {
			out[i] = FromNative(rv.Index(i).Interface())
		}

		return Array(out...)
	case reflect.Map:
		out := make(map[string]Data, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = FromNative(iter.Value().Interface())
		}

		return Dictionary(out)
	default:
		return String(fmt.Sprint(x))
	}
}

// Context converts a map of Go values to a serialization context.
func Context(m map[string]any) map[string]Data {
	out := make(map[string]Data, len(m))
	for k, v := range m {
		out[k] = FromNative(v)
	}

	return out
}
