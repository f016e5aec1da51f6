package fingerprint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/zeebo/blake3"

	"github.com/visvikbharti/reprokit/internal/dataset"
	"github.com/visvikbharti/reprokit/internal/errors"
)

// MissingPattern classifies how missing cells are distributed in a dataset
type MissingPattern string

const (
	// MissingNone means the dataset has no missing cells
	MissingNone MissingPattern = "none"
	// MissingSystematic means an entire row or column is fully missing
	MissingSystematic MissingPattern = "systematic"
	// MissingRandom means missing cells exist but no full row/column is missing
	MissingRandom MissingPattern = "random"
)

// ColumnStats summarizes the non-missing numeric cells of one column.
// A fully-missing column has N == 0 and NaN for every statistic.
type ColumnStats struct {
	N    int
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// columnStatsJSON is the wire form of ColumnStats. Floats travel as
// strconv strings so that the NaN stats of a fully-missing column, or an
// infinite Min/Max, survive JSON round trips.
type columnStatsJSON struct {
	N    int    `json:"n"`
	Mean string `json:"mean"`
	Std  string `json:"std"`
	Min  string `json:"min"`
	Max  string `json:"max"`
}

// MarshalJSON implements json.Marshaler
func (s ColumnStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(columnStatsJSON{
		N:    s.N,
		Mean: strconv.FormatFloat(s.Mean, 'g', -1, 64),
		Std:  strconv.FormatFloat(s.Std, 'g', -1, 64),
		Min:  strconv.FormatFloat(s.Min, 'g', -1, 64),
		Max:  strconv.FormatFloat(s.Max, 'g', -1, 64),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (s *ColumnStats) UnmarshalJSON(data []byte) error {
	var in columnStatsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.N = in.N
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{in.Mean, &s.Mean}, {in.Std, &s.Std}, {in.Min, &s.Min}, {in.Max, &s.Max},
	} {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return fmt.Errorf("parse column stat %q: %w", f.raw, err)
		}
		*f.dst = v
	}
	return nil
}

// Fingerprint identifies the exact logical content of a dataset,
// independent of its physical layout. Immutable once produced.
type Fingerprint struct {
	Name string `json:"name"`

	// Hash is the combined content hash: blake3(HeaderHash || BodyHash)
	Hash string `json:"hash"`

	// HeaderHash covers the sorted column names and element types, so a
	// schema change is detectable independently of a value change
	HeaderHash string `json:"header_hash"`

	// BodyHash covers the canonicalized cell values
	BodyHash string `json:"body_hash"`

	Shape          [2]int                 `json:"shape"` // rows, cols
	ElemTypes      map[string]string      `json:"elem_types"`
	ByteSize       int64                  `json:"byte_size"`
	MissingCount   int                    `json:"missing_count"`
	MissingPattern MissingPattern         `json:"missing_pattern"`
	Summary        map[string]ColumnStats `json:"summary"`
	CreatedAt      time.Time              `json:"created_at"`
}

// New fingerprints a dataset. The dataset is canonicalized first: columns
// are visited in sorted name order and cells are serialized to one fixed
// byte layout, so two physically different representations of the same
// logical content produce the same hash.
func New(ds *dataset.Dataset, name string) (*Fingerprint, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	sorted := sortedColumns(ds)

	headerHash := hashHeader(sorted)
	bodyHash, err := hashBody(sorted)
	if err != nil {
		return nil, err
	}

	combined := blake3.New()
	combined.Write([]byte(headerHash))
	combined.Write([]byte(bodyHash))

	rows, cols := ds.Shape()
	fp := &Fingerprint{
		Name:           name,
		Hash:           fmt.Sprintf("%x", combined.Sum(nil)),
		HeaderHash:     headerHash,
		BodyHash:       bodyHash,
		Shape:          [2]int{rows, cols},
		ElemTypes:      make(map[string]string, cols),
		ByteSize:       ds.EstimatedBytes(),
		MissingCount:   ds.MissingCount(),
		MissingPattern: classifyMissing(ds),
		Summary:        make(map[string]ColumnStats, cols),
		CreatedAt:      time.Now().UTC(),
	}

	for _, c := range sorted {
		fp.ElemTypes[c.Name] = string(c.Type)
		if c.Type != dataset.String {
			fp.Summary[c.Name] = columnStats(c)
		}
	}

	return fp, nil
}

// sortedColumns returns the dataset's columns ordered by name, the
// canonical order for hashing.
func sortedColumns(ds *dataset.Dataset) []*dataset.Column {
	cols := make([]*dataset.Column, len(ds.Columns))
	for i := range ds.Columns {
		cols[i] = &ds.Columns[i]
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return cols
}

func hashHeader(cols []*dataset.Column) string {
	h := blake3.New()
	for _, c := range cols {
		writeString(h, c.Name)
		writeString(h, string(c.Type))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func hashBody(cols []*dataset.Column) (string, error) {
	h := blake3.New()
	for _, c := range cols {
		writeString(h, c.Name)
		for i := 0; i < c.Len(); i++ {
			if c.Missing[i] {
				h.Write([]byte{0x00})
				continue
			}
			h.Write([]byte{0x01})
			switch c.Type {
			case dataset.String:
				writeString(h, c.Labels[i])
			case dataset.Int64:
				var buf [8]byte
				binary.BigEndian.PutUint64(buf[:], uint64(c.Ints[i]))
				h.Write(buf[:])
			case dataset.Float64:
				writeFloat(h, c.Floats[i])
			default:
				return "", errors.Newf(errors.ErrCodeDataUnsupported,
					"column %q has unsupported element type %q", c.Name, c.Type)
			}
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func writeString(h *blake3.Hasher, s string) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
	h.Write(buf[:])
	h.Write([]byte(s))
}

// writeFloat serializes a float64 as big-endian IEEE 754 bits with every
// NaN normalized to one quiet pattern, so NaN payload bits never perturb
// the hash.
func writeFloat(h *blake3.Hasher, f float64) {
	bits := math.Float64bits(f)
	if math.IsNaN(f) {
		bits = 0x7FF8000000000000
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], bits)
	h.Write(buf[:])
}

// classifyMissing implements the pattern rule: none if zero missing,
// systematic if any entire row or entire column is fully missing,
// otherwise random.
func classifyMissing(ds *dataset.Dataset) MissingPattern {
	rows, cols := ds.Shape()
	total := ds.MissingCount()
	if total == 0 {
		return MissingNone
	}

	for i := range ds.Columns {
		c := &ds.Columns[i]
		full := c.Len() > 0
		for _, m := range c.Missing {
			if !m {
				full = false
				break
			}
		}
		if full {
			return MissingSystematic
		}
	}

	for r := 0; r < rows; r++ {
		full := cols > 0
		for i := range ds.Columns {
			if !ds.Columns[i].Missing[r] {
				full = false
				break
			}
		}
		if full {
			return MissingSystematic
		}
	}

	return MissingRandom
}

func columnStats(c *dataset.Column) ColumnStats {
	st := ColumnStats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for i, f := range c.Floats {
		if c.Missing[i] {
			continue
		}
		st.N++
		sum += f
		if f < st.Min {
			st.Min = f
		}
		if f > st.Max {
			st.Max = f
		}
	}
	if st.N == 0 {
		return ColumnStats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Std: math.NaN()}
	}

	st.Mean = sum / float64(st.N)
	var ss float64
	for i, f := range c.Floats {
		if c.Missing[i] {
			continue
		}
		d := f - st.Mean
		ss += d * d
	}
	if st.N > 1 {
		st.Std = math.Sqrt(ss / float64(st.N-1))
	}
	return st
}
