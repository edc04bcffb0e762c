package binary

import (
	"encoding/binary"
	"fmt"
	"math"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// Value is the decoded content of a field. Scalars decode to a one-element
// slice.
type Value struct {
	Field  Field
	floats []float64
	ints   []int64
}

// Float returns the first element as a float64
func (v Value) Float() float64 {
	if len(v.floats) == 0 {
		return 0
	}
	return v.floats[0]
}

// Int returns the first element as an int64
func (v Value) Int() int64 {
	if len(v.ints) == 0 {
		return 0
	}
	return v.ints[0]
}

// Bool returns the first element as a bool
func (v Value) Bool() bool {
	return v.Int() != 0
}

// Floats returns every element as float64
func (v Value) Floats() []float64 {
	out := make([]float64, len(v.floats))
	copy(out, v.floats)
	return out
}

// Ints returns every element as int64
func (v Value) Ints() []int64 {
	out := make([]int64, len(v.ints))
	copy(out, v.ints)
	return out
}

// Len returns the number of decoded elements
func (v Value) Len() int {
	return len(v.floats)
}

// Values maps field names to decoded values
type Values map[string]Value

// Reader decodes fields with a fixed byte order
type Reader struct {
	order binary.ByteOrder
}

// NewReader creates a reader; a nil order means little-endian
func NewReader(order binary.ByteOrder) *Reader {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Reader{order: order}
}

// Decode interprets buf[f.Offset : f.Offset+f.Length] per the field type
func (r *Reader) Decode(buf []byte, f Field) (Value, error) {
	if err := f.validate(); err != nil {
		return Value{}, err
	}
	if f.Offset < 0 || f.Length < 0 || f.End() > len(buf) {
		return Value{}, apperrors.TruncatedBuffer(f.Name, f.End(), len(buf))
	}

	raw := buf[f.Offset:f.End()]
	size := f.Type.Size()
	count := f.Length / size

	v := Value{
		Field:  f,
		floats: make([]float64, count),
		ints:   make([]int64, count),
	}

	for i := 0; i < count; i++ {
		chunk := raw[i*size : (i+1)*size]
		switch f.Type {
		case Float32:
			x := math.Float32frombits(r.order.Uint32(chunk))
			v.floats[i] = float64(x)
			v.ints[i] = int64(x)
		case Float64:
			x := math.Float64frombits(r.order.Uint64(chunk))
			v.floats[i] = x
			v.ints[i] = int64(x)
		case Int32:
			x := int32(r.order.Uint32(chunk))
			v.floats[i] = float64(x)
			v.ints[i] = int64(x)
		case Uint32:
			x := r.order.Uint32(chunk)
			v.floats[i] = float64(x)
			v.ints[i] = int64(x)
		case Int16:
			x := int16(r.order.Uint16(chunk))
			v.floats[i] = float64(x)
			v.ints[i] = int64(x)
		case Uint16:
			x := r.order.Uint16(chunk)
			v.floats[i] = float64(x)
			v.ints[i] = int64(x)
		case Bool:
			if chunk[0] != 0 {
				v.floats[i] = 1
				v.ints[i] = 1
			}
		default:
			return Value{}, apperrors.InvalidField(f.Name, fmt.Sprintf("unsupported element type %s", f.Type))
		}
	}

	return v, nil
}

// DecodeAll decodes each field independently and stops at the first error
func (r *Reader) DecodeAll(buf []byte, fields ...Field) (Values, error) {
	values := make(Values, len(fields))
	for _, f := range fields {
		v, err := r.Decode(buf, f)
		if err != nil {
			return nil, err
		}
		values[f.Name] = v
	}
	return values, nil
}
