// Package binary decodes fixed-offset fields out of binary instrument
// records. A Field describes where a value lives; decoding slices the buffer
// and interprets the bytes per the field's element type. Nothing is ever
// zero-filled: a field that runs past the buffer is a TruncatedBuffer error.
package binary

import (
	"fmt"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// ElementType is the scalar type of a field or of each array element
type ElementType int

const (
	Float32 ElementType = iota
	Float64
	Int32
	Uint32
	Int16
	Uint16
	Bool
)

// Size returns the width of one element in bytes
func (t ElementType) Size() int {
	switch t {
	case Float64:
		return 8
	case Float32, Int32, Uint32:
		return 4
	case Int16, Uint16:
		return 2
	case Bool:
		return 1
	default:
		return 0
	}
}

func (t ElementType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
}

// Field describes one scalar or array inside a binary record. Length is in
// bytes; a Length larger than the element size makes the field an array.
type Field struct {
	Name   string
	Offset int
	Length int
	Type   ElementType
}

// Scalar creates a single-element field
func Scalar(name string, offset int, typ ElementType) Field {
	return Field{Name: name, Offset: offset, Length: typ.Size(), Type: typ}
}

// Array creates a field of count consecutive elements
func Array(name string, offset int, typ ElementType, count int) Field {
	return Field{Name: name, Offset: offset, Length: count * typ.Size(), Type: typ}
}

// WithLength returns a copy of the field with a new byte length. It is the
// second pass for fields whose size depends on an earlier decoded value.
func (f Field) WithLength(length int) Field {
	f.Length = length
	return f
}

// WithCount is WithLength expressed in elements
func (f Field) WithCount(count int) Field {
	return f.WithLength(count * f.Type.Size())
}

// End returns the exclusive end offset of the field
func (f Field) End() int {
	return f.Offset + f.Length
}

// Count returns the number of elements the field spans
func (f Field) Count() int {
	size := f.Type.Size()
	if size == 0 {
		return 0
	}
	return f.Length / size
}

func (f Field) validate() error {
	size := f.Type.Size()
	if size == 0 {
		return apperrors.InvalidField(f.Name, fmt.Sprintf("unknown element type %s", f.Type))
	}
	if f.Length%size != 0 {
		return apperrors.InvalidField(f.Name,
			fmt.Sprintf("length %d is not a multiple of %s size %d", f.Length, f.Type, size))
	}
	return nil
}
