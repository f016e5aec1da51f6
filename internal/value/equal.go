package value

import "math"

// Equal reports structural equality of two values. Float comparison is
// exact but NaN-aware: NaN compares equal to NaN, so a captured NaN
// round-trips as equal to itself.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind || a.Truncated != b.Truncated {
		return false
	}

	switch a.Kind {
	case KindScalar:
		return scalarEqual(a.Scalar, b.Scalar)

	case KindSequence:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true

	case KindMapping:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for k, av := range a.Fields {
			bv, ok := b.Fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true

	case KindTensor:
		return tensorEqual(a.Tensor, b.Tensor)

	case KindTable:
		return tableEqual(a.Table, b.Table)

	case KindOpaque:
		return a.TypeName == b.TypeName

	default:
		return false
	}
}

func scalarEqual(a, b *Scalar) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ScalarString:
		return a.Str == b.Str
	case ScalarFloat:
		return floatEqual(a.Float, b.Float)
	case ScalarInt:
		return a.Int == b.Int
	case ScalarBool:
		return a.Bool == b.Bool
	case ScalarNull:
		return true
	default:
		return false
	}
}

func tensorEqual(a, b *Tensor) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ElemType != b.ElemType || len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if !floatEqual(a.Data[i], b.Data[i]) {
			return false
		}
	}
	return true
}

func tableEqual(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Columns) != len(b.Columns) || len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	for i := range a.Rows {
		if len(a.Rows[i]) != len(b.Rows[i]) {
			return false
		}
		for j := range a.Rows[i] {
			if !Equal(a.Rows[i][j], b.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
