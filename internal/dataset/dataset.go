package dataset

import (
	"math"

	"github.com/visvikbharti/reprokit/internal/errors"
	"github.com/visvikbharti/reprokit/internal/value"
)

// ElemType identifies the element type of a column
type ElemType string

const (
	Float64 ElemType = "float64"
	Int64   ElemType = "int64"
	String  ElemType = "string"
)

// Column is a single named column. Numeric columns carry their cells in
// Floats (Int64 columns store exact values in Ints and mirror them into
// Floats for summary statistics); String columns carry Labels. Missing
// marks missing cells in every representation.
type Column struct {
	Name    string
	Type    ElemType
	Floats  []float64
	Ints    []int64
	Labels  []string
	Missing []bool
}

// Len returns the number of cells in the column
func (c *Column) Len() int {
	switch c.Type {
	case String:
		return len(c.Labels)
	case Int64:
		return len(c.Ints)
	default:
		return len(c.Floats)
	}
}

// Dataset is the tabular structure the engine fingerprints. Column order is
// the physical layout and deliberately carries no meaning: fingerprinting
// canonicalizes by sorting columns on name.
type Dataset struct {
	Name    string
	Columns []Column
}

// New creates an empty dataset with the given name
func New(name string) *Dataset {
	return &Dataset{Name: name}
}

// AddFloat64 appends a float64 column. NaN cells are treated as missing.
func (d *Dataset) AddFloat64(name string, values []float64) *Dataset {
	missing := make([]bool, len(values))
	for i, v := range values {
		missing[i] = math.IsNaN(v)
	}
	d.Columns = append(d.Columns, Column{
		Name:    name,
		Type:    Float64,
		Floats:  values,
		Missing: missing,
	})
	return d
}

// AddInt64 appends an int64 column with no missing cells
func (d *Dataset) AddInt64(name string, values []int64) *Dataset {
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	d.Columns = append(d.Columns, Column{
		Name:    name,
		Type:    Int64,
		Ints:    values,
		Floats:  floats,
		Missing: make([]bool, len(values)),
	})
	return d
}

// AddString appends a string column with no missing cells
func (d *Dataset) AddString(name string, values []string) *Dataset {
	d.Columns = append(d.Columns, Column{
		Name:    name,
		Type:    String,
		Labels:  values,
		Missing: make([]bool, len(values)),
	})
	return d
}

// SetMissing marks a cell missing. Out-of-range indexes are ignored.
func (d *Dataset) SetMissing(column string, row int) {
	for i := range d.Columns {
		c := &d.Columns[i]
		if c.Name != column {
			continue
		}
		if row < 0 || row >= len(c.Missing) {
			return
		}
		c.Missing[row] = true
		if c.Type != String && row < len(c.Floats) {
			c.Floats[row] = math.NaN()
		}
	}
}

// Shape returns (rows, cols). Rows is the length of the first column;
// Validate enforces that all columns agree.
func (d *Dataset) Shape() (rows, cols int) {
	cols = len(d.Columns)
	if cols > 0 {
		rows = d.Columns[0].Len()
	}
	return rows, cols
}

// Column returns the named column, or nil if absent
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// Validate checks structural soundness: at least one column, every column
// named, and all columns the same length.
func (d *Dataset) Validate() error {
	if len(d.Columns) == 0 {
		return errors.Newf(errors.ErrCodeDataEmpty, "dataset %q has no columns", d.Name)
	}

	rows := d.Columns[0].Len()
	for i := range d.Columns {
		c := &d.Columns[i]
		if c.Name == "" {
			return errors.Newf(errors.ErrCodeDataUnnamedColumn,
				"dataset %q: column %d has no name", d.Name, i)
		}
		if c.Len() != rows {
			return errors.Newf(errors.ErrCodeDataRaggedColumn,
				"dataset %q: column %q has %d rows, expected %d", d.Name, c.Name, c.Len(), rows)
		}
		if len(c.Missing) != c.Len() {
			return errors.Newf(errors.ErrCodeDataRaggedColumn,
				"dataset %q: column %q missing-mask has %d entries, expected %d",
				d.Name, c.Name, len(c.Missing), c.Len())
		}
	}
	return nil
}

// MissingCount returns the total number of missing cells
func (d *Dataset) MissingCount() int {
	n := 0
	for i := range d.Columns {
		for _, m := range d.Columns[i].Missing {
			if m {
				n++
			}
		}
	}
	return n
}

// ToValue converts the dataset to a table value for capture and embedding
func (d *Dataset) ToValue() value.Value {
	rows, cols := d.Shape()
	columns := make([]string, cols)
	for i := range d.Columns {
		columns[i] = d.Columns[i].Name
	}

	out := make([][]value.Value, rows)
	for r := 0; r < rows; r++ {
		row := make([]value.Value, cols)
		for ci := range d.Columns {
			c := &d.Columns[ci]
			switch {
			case c.Missing[r]:
				row[ci] = value.Null()
			case c.Type == String:
				row[ci] = value.String(c.Labels[r])
			case c.Type == Int64:
				row[ci] = value.Int(c.Ints[r])
			default:
				row[ci] = value.Float(c.Floats[r])
			}
		}
		out[r] = row
	}
	return value.NewTable(columns, out)
}

// FromValue reconstructs a dataset from a table value. Cell types are
// inferred per column from the first non-null cell.
func FromValue(name string, v value.Value) (*Dataset, error) {
	if v.Kind != value.KindTable || v.Table == nil {
		return nil, errors.Newf(errors.ErrCodeDataUnsupported,
			"value of kind %q cannot be reconstructed as a dataset", v.Kind)
	}

	t := v.Table
	d := New(name)
	for ci, col := range t.Columns {
		elem := columnElemType(t, ci)
		switch elem {
		case String:
			labels := make([]string, len(t.Rows))
			missing := make([]bool, len(t.Rows))
			for r, row := range t.Rows {
				if row[ci].IsNull() {
					missing[r] = true
					continue
				}
				labels[r] = row[ci].Scalar.Str
			}
			d.Columns = append(d.Columns, Column{Name: col, Type: String, Labels: labels, Missing: missing})
		case Int64:
			ints := make([]int64, len(t.Rows))
			floats := make([]float64, len(t.Rows))
			missing := make([]bool, len(t.Rows))
			for r, row := range t.Rows {
				if row[ci].IsNull() {
					missing[r] = true
					floats[r] = math.NaN()
					continue
				}
				ints[r] = row[ci].Scalar.Int
				floats[r] = float64(ints[r])
			}
			d.Columns = append(d.Columns, Column{Name: col, Type: Int64, Ints: ints, Floats: floats, Missing: missing})
		default:
			floats := make([]float64, len(t.Rows))
			missing := make([]bool, len(t.Rows))
			for r, row := range t.Rows {
				if row[ci].IsNull() {
					missing[r] = true
					floats[r] = math.NaN()
					continue
				}
				floats[r] = row[ci].Scalar.Float
			}
			d.Columns = append(d.Columns, Column{Name: col, Type: Float64, Floats: floats, Missing: missing})
		}
	}
	return d, nil
}

func columnElemType(t *value.Table, ci int) ElemType {
	for _, row := range t.Rows {
		if ci >= len(row) || row[ci].IsNull() {
			continue
		}
		if row[ci].Kind != value.KindScalar || row[ci].Scalar == nil {
			continue
		}
		switch row[ci].Scalar.Type {
		case value.ScalarString:
			return String
		case value.ScalarInt:
			return Int64
		case value.ScalarFloat:
			return Float64
		}
	}
	return Float64
}

// EstimatedBytes approximates the in-memory footprint of the dataset,
// used by the serializer's embedding size ceiling.
func (d *Dataset) EstimatedBytes() int64 {
	var n int64
	for i := range d.Columns {
		c := &d.Columns[i]
		switch c.Type {
		case String:
			for _, s := range c.Labels {
				n += int64(len(s)) + 16
			}
		default:
			n += int64(c.Len()) * 8
		}
		n += int64(len(c.Missing))
	}
	return n
}
