package value

import (
	"fmt"
	"reflect"
	"sort"
	"unicode/utf8"
)

// Limits bounds the depth and size of a reflective capture
type Limits struct {
	// MaxDepth is how many levels of nesting are descended before
	// degrading to an opaque placeholder
	MaxDepth int

	// MaxItems caps sequence and mapping sizes; excess items are counted,
	// not silently dropped
	MaxItems int

	// MaxStringLen caps captured string lengths
	MaxStringLen int
}

// DefaultLimits returns the standard capture bounds
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:     4,
		MaxItems:     32,
		MaxStringLen: 256,
	}
}

// Capture converts an arbitrary Go value into the tagged union using the
// default limits. Unknown kinds degrade to Opaque rather than failing.
func Capture(v any) Value {
	return CaptureWithLimits(v, DefaultLimits())
}

// CaptureWithLimits converts an arbitrary Go value into the tagged union,
// bounded by the given limits.
func CaptureWithLimits(v any, limits Limits) Value {
	if v == nil {
		return Null()
	}
	if already, ok := v.(Value); ok {
		return already
	}
	return capture(reflect.ValueOf(v), limits, limits.MaxDepth)
}

func capture(rv reflect.Value, limits Limits, depth int) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null()

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return capture(rv.Elem(), limits, depth)

	case reflect.Bool:
		return Bool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Int(int64(rv.Uint()))

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())

	case reflect.String:
		return captureString(rv.String(), limits)

	case reflect.Slice, reflect.Array:
		if depth <= 0 {
			return Opaque(rv.Type().String())
		}
		// Numeric slices become 1-D tensors so their payload stays exact.
		if t, ok := captureTensor(rv); ok {
			return t
		}
		return captureSequence(rv, limits, depth)

	case reflect.Map:
		if depth <= 0 {
			return Opaque(rv.Type().String())
		}
		return captureMapping(rv, limits, depth)

	case reflect.Struct:
		if depth <= 0 {
			return Opaque(rv.Type().String())
		}
		return captureStruct(rv, limits, depth)

	default:
		// chan, func, unsafe pointer, complex
		return Opaque(rv.Type().String())
	}
}

// captureString caps a string at MaxStringLen bytes, backing up to the
// nearest rune boundary so the kept prefix stays valid UTF-8. Elided
// bytes are counted in Truncated, same as elided collection items.
func captureString(s string, limits Limits) Value {
	if len(s) <= limits.MaxStringLen {
		return String(s)
	}
	cut := limits.MaxStringLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	v := String(s[:cut])
	v.Truncated = len(s) - cut
	return v
}

func captureTensor(rv reflect.Value) (Value, bool) {
	elem := rv.Type().Elem()
	switch elem.Kind() {
	case reflect.Float64, reflect.Float32:
		data := make([]float64, rv.Len())
		for i := range data {
			data[i] = rv.Index(i).Float()
		}
		return NewTensor([]int{rv.Len()}, elem.String(), data), true
	default:
		return Value{}, false
	}
}

func captureSequence(rv reflect.Value, limits Limits, depth int) Value {
	n := rv.Len()
	keep := n
	if keep > limits.MaxItems {
		keep = limits.MaxItems
	}
	items := make([]Value, keep)
	for i := 0; i < keep; i++ {
		items[i] = capture(rv.Index(i), limits, depth-1)
	}
	return Value{Kind: KindSequence, Items: items, Truncated: n - keep}
}

func captureMapping(rv reflect.Value, limits Limits, depth int) Value {
	keys := rv.MapKeys()
	n := len(keys)
	keep := n
	if keep > limits.MaxItems {
		keep = limits.MaxItems
	}

	// Keys are stringified and sorted so that which entries survive
	// truncation does not depend on map iteration order.
	pairs := make([]mapEntry, 0, n)
	for _, k := range keys {
		pairs = append(pairs, mapEntry{key: fmt.Sprint(k.Interface()), val: rv.MapIndex(k)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	fields := make(map[string]Value, keep)
	for i := 0; i < keep; i++ {
		fields[pairs[i].key] = capture(pairs[i].val, limits, depth-1)
	}
	return Value{Kind: KindMapping, Fields: fields, Truncated: n - keep}
}

type mapEntry struct {
	key string
	val reflect.Value
}

func captureStruct(rv reflect.Value, limits Limits, depth int) Value {
	rt := rv.Type()
	fields := make(map[string]Value)
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		fields[f.Name] = capture(rv.Field(i), limits, depth-1)
	}
	if len(fields) == 0 {
		return Opaque(rt.String())
	}
	return Value{Kind: KindMapping, Fields: fields}
}
