package value

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which arm of the capturable value union is populated.
// The set is closed: capture, serialization and verification switch over
// these kinds exhaustively.
type Kind string

const (
	// KindScalar is a single string, float, int, bool or null value
	KindScalar Kind = "scalar"
	// KindSequence is an ordered list of values
	KindSequence Kind = "sequence"
	// KindMapping is a string-keyed map of values
	KindMapping Kind = "mapping"
	// KindTensor is an n-dimensional numeric array (shape + flattened data)
	KindTensor Kind = "tensor"
	// KindTable is a columnar table (column names + rows)
	KindTable Kind = "table"
	// KindOpaque is a value that could not be captured; only its type name survives
	KindOpaque Kind = "opaque"
)

// Value is the closed tagged union of capturable value kinds.
// Exactly one arm matching Kind is populated.
type Value struct {
	Kind Kind `json:"kind"`

	Scalar *Scalar          `json:"scalar,omitempty"`
	Items  []Value          `json:"items,omitempty"`
	Fields map[string]Value `json:"fields,omitempty"`
	Tensor *Tensor          `json:"tensor,omitempty"`
	Table  *Table           `json:"table,omitempty"`

	// TypeName is set for the opaque arm
	TypeName string `json:"type_name,omitempty"`

	// Truncated counts items elided from a size-bounded sequence or
	// mapping, or bytes elided from a length-capped string scalar.
	// Zero means the value was captured in full.
	Truncated int `json:"truncated,omitempty"`
}

// ScalarType identifies the concrete type held by a Scalar
type ScalarType string

const (
	ScalarString ScalarType = "string"
	ScalarFloat  ScalarType = "float"
	ScalarInt    ScalarType = "int"
	ScalarBool   ScalarType = "bool"
	ScalarNull   ScalarType = "null"
)

// Scalar holds a single primitive value
type Scalar struct {
	Type  ScalarType `json:"type"`
	Str   string     `json:"str,omitempty"`
	Float float64    `json:"-"`
	Int   int64      `json:"int,omitempty"`
	Bool  bool       `json:"bool,omitempty"`
}

// scalarJSON is the wire form of Scalar. Floats travel as strings produced
// by strconv so that NaN and infinities survive JSON round trips.
type scalarJSON struct {
	Type  ScalarType `json:"type"`
	Str   string     `json:"str,omitempty"`
	Float string     `json:"float,omitempty"`
	Int   int64      `json:"int,omitempty"`
	Bool  bool       `json:"bool,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (s Scalar) MarshalJSON() ([]byte, error) {
	out := scalarJSON{Type: s.Type, Str: s.Str, Int: s.Int, Bool: s.Bool}
	if s.Type == ScalarFloat {
		out.Float = strconv.FormatFloat(s.Float, 'g', -1, 64)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var in scalarJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Type = in.Type
	s.Str = in.Str
	s.Int = in.Int
	s.Bool = in.Bool
	if in.Type == ScalarFloat {
		f, err := strconv.ParseFloat(in.Float, 64)
		if err != nil {
			return fmt.Errorf("parse scalar float %q: %w", in.Float, err)
		}
		s.Float = f
	}
	return nil
}

// Tensor is an n-dimensional numeric array with a flattened row-major payload
type Tensor struct {
	Shape    []int     `json:"shape"`
	ElemType string    `json:"elem_type"`
	Data     []float64 `json:"-"`
}

// tensorJSON carries tensor data as base64 of the big-endian IEEE 754 bits,
// which is both NaN-safe and byte-exact across round trips.
type tensorJSON struct {
	Shape    []int  `json:"shape"`
	ElemType string `json:"elem_type"`
	Data     string `json:"data"`
}

// MarshalJSON implements json.Marshaler
func (t Tensor) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 8*len(t.Data))
	for i, f := range t.Data {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return json.Marshal(tensorJSON{
		Shape:    t.Shape,
		ElemType: t.ElemType,
		Data:     base64.StdEncoding.EncodeToString(buf),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Tensor) UnmarshalJSON(data []byte) error {
	var in tensorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		return fmt.Errorf("decode tensor data: %w", err)
	}
	if len(raw)%8 != 0 {
		return fmt.Errorf("tensor data length %d is not a multiple of 8", len(raw))
	}
	t.Shape = in.Shape
	t.ElemType = in.ElemType
	t.Data = make([]float64, len(raw)/8)
	for i := range t.Data {
		t.Data[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
	}
	return nil
}

// Len returns the element count implied by the shape
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Table is a columnar table of captured values
type Table struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// Constructors for each union arm.

// String returns a string scalar value
func String(s string) Value {
	return Value{Kind: KindScalar, Scalar: &Scalar{Type: ScalarString, Str: s}}
}

// Float returns a float scalar value
func Float(f float64) Value {
	return Value{Kind: KindScalar, Scalar: &Scalar{Type: ScalarFloat, Float: f}}
}

// Int returns an int scalar value
func Int(i int64) Value {
	return Value{Kind: KindScalar, Scalar: &Scalar{Type: ScalarInt, Int: i}}
}

// Bool returns a bool scalar value
func Bool(b bool) Value {
	return Value{Kind: KindScalar, Scalar: &Scalar{Type: ScalarBool, Bool: b}}
}

// Null returns the null scalar value
func Null() Value {
	return Value{Kind: KindScalar, Scalar: &Scalar{Type: ScalarNull}}
}

// Seq returns a sequence value over the given items
func Seq(items ...Value) Value {
	return Value{Kind: KindSequence, Items: items}
}

// Map returns a mapping value over the given fields
func Map(fields map[string]Value) Value {
	return Value{Kind: KindMapping, Fields: fields}
}

// NewTensor returns a tensor value; data is flattened row-major
func NewTensor(shape []int, elemType string, data []float64) Value {
	return Value{Kind: KindTensor, Tensor: &Tensor{Shape: shape, ElemType: elemType, Data: data}}
}

// NewTable returns a table value
func NewTable(columns []string, rows [][]Value) Value {
	return Value{Kind: KindTable, Table: &Table{Columns: columns, Rows: rows}}
}

// Opaque returns an opaque placeholder carrying only the type name
func Opaque(typeName string) Value {
	return Value{Kind: KindOpaque, TypeName: typeName}
}

// IsNull reports whether v is the null scalar
func (v Value) IsNull() bool {
	return v.Kind == KindScalar && v.Scalar != nil && v.Scalar.Type == ScalarNull
}

// CanonicalJSON returns deterministic JSON bytes for v, suitable for hashing.
// encoding/json writes map keys in sorted order and the union's custom
// marshalers are deterministic, so marshaling is canonical by construction.
func (v Value) CanonicalJSON() ([]byte, error) {
	return json.Marshal(v)
}

// String renders a compact human-readable form of the value
func (v Value) String() string {
	var b strings.Builder
	v.render(&b)
	return b.String()
}

func (v Value) render(b *strings.Builder) {
	switch v.Kind {
	case KindScalar:
		if v.Scalar == nil {
			b.WriteString("null")
			return
		}
		switch v.Scalar.Type {
		case ScalarString:
			fmt.Fprintf(b, "%q", v.Scalar.Str)
		case ScalarFloat:
			b.WriteString(strconv.FormatFloat(v.Scalar.Float, 'g', -1, 64))
		case ScalarInt:
			b.WriteString(strconv.FormatInt(v.Scalar.Int, 10))
		case ScalarBool:
			b.WriteString(strconv.FormatBool(v.Scalar.Bool))
		case ScalarNull:
			b.WriteString("null")
		}
	case KindSequence:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.render(b)
		}
		if v.Truncated > 0 {
			fmt.Fprintf(b, ", … %d more items", v.Truncated)
		}
		b.WriteByte(']')
	case KindMapping:
		keys := make([]string, 0, len(v.Fields))
		for k := range v.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", k)
			f := v.Fields[k]
			f.render(b)
		}
		if v.Truncated > 0 {
			fmt.Fprintf(b, ", … %d more items", v.Truncated)
		}
		b.WriteByte('}')
	case KindTensor:
		if v.Tensor != nil {
			fmt.Fprintf(b, "tensor%v<%s>", v.Tensor.Shape, v.Tensor.ElemType)
		}
	case KindTable:
		if v.Table != nil {
			fmt.Fprintf(b, "table(%d cols × %d rows)", len(v.Table.Columns), len(v.Table.Rows))
		}
	case KindOpaque:
		fmt.Fprintf(b, "<%s>", v.TypeName)
	}
}
