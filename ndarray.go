package bjdata

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// ElemKind identifies the element type of a packed array.
type ElemKind int

const (
	Int8 ElemKind = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float16
	Float32
	Float64
	Char
)

// Size returns the width of one element in bytes.
func (k ElemKind) Size() int {
	switch k {
	case Int8, Uint8, Char:
		return 1
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

func (k ElemKind) String() string {
	switch k {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Char:
		return "char"
	}
	return fmt.Sprintf("ElemKind(%d)", int(k))
}

// elemKindOf maps a fixed-width type marker to its element kind.
func elemKindOf(marker byte) (ElemKind, bool) {
	switch marker {
	case markerInt8:
		return Int8, true
	case markerUint8:
		return Uint8, true
	case markerInt16:
		return Int16, true
	case markerUint16:
		return Uint16, true
	case markerInt32:
		return Int32, true
	case markerUint32:
		return Uint32, true
	case markerInt64:
		return Int64, true
	case markerUint64:
		return Uint64, true
	case markerFloat16:
		return Float16, true
	case markerFloat32:
		return Float32, true
	case markerFloat64:
		return Float64, true
	case markerChar:
		return Char, true
	}
	return 0, false
}

// elemMarker is the inverse of elemKindOf.
func elemMarker(k ElemKind) byte {
	switch k {
	case Int8:
		return markerInt8
	case Uint8:
		return markerUint8
	case Int16:
		return markerInt16
	case Uint16:
		return markerUint16
	case Int32:
		return markerInt32
	case Uint32:
		return markerUint32
	case Int64:
		return markerInt64
	case Uint64:
		return markerUint64
	case Float16:
		return markerFloat16
	case Float32:
		return markerFloat32
	case Float64:
		return markerFloat64
	case Char:
		return markerChar
	}
	return markerNone
}

// isFixedLenType reports whether t marks a fixed-width element type.
func isFixedLenType(t byte) bool {
	_, ok := elemKindOf(t)
	return ok
}

// NDArray is a packed array decoded from an optimized typed container: a
// shape vector, an element kind, and the elements laid out contiguously in
// row-major order. Data holds the element bytes exactly as they appeared in
// the stream; the stream's byte order applies when interpreting them.
type NDArray struct {
	Shape []int64
	Kind  ElemKind
	Data  []byte
}

// NewNDArray constructs a packed array over data, which must hold exactly
// prod(shape) elements of the given kind.
func NewNDArray(shape []int64, kind ElemKind, data []byte) (*NDArray, error) {
	n := int64(1)
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("bjdata: ndarray: negative dimension %d", dim)
		}
		n *= dim
	}
	if want := n * int64(kind.Size()); int64(len(data)) != want {
		return nil, fmt.Errorf("bjdata: ndarray: %d data bytes for shape %v of %v (want %d)",
			len(data), shape, kind, want)
	}
	return &NDArray{Shape: shape, Kind: kind, Data: data}, nil
}

// Len returns the total number of elements.
func (a *NDArray) Len() int {
	n := int64(1)
	for _, dim := range a.Shape {
		n *= dim
	}
	return int(n)
}

// ElemSize returns the width of one element in bytes.
func (a *NDArray) ElemSize() int {
	return a.Kind.Size()
}

// Int64s returns the elements widened to int64, interpreting Data in the
// given byte order (the order the stream was decoded with). It accepts the
// signed kinds and the unsigned kinds that fit, i.e. everything but Uint64
// and the float kinds.
func (a *NDArray) Int64s(order binary.ByteOrder) ([]int64, error) {
	out := make([]int64, a.Len())
	size := a.Kind.Size()
	for i := range out {
		raw := a.Data[i*size:]
		switch a.Kind {
		case Int8:
			out[i] = int64(int8(raw[0]))
		case Uint8, Char:
			out[i] = int64(raw[0])
		case Int16:
			out[i] = int64(int16(order.Uint16(raw)))
		case Uint16:
			out[i] = int64(order.Uint16(raw))
		case Int32:
			out[i] = int64(int32(order.Uint32(raw)))
		case Uint32:
			out[i] = int64(order.Uint32(raw))
		case Int64:
			out[i] = int64(order.Uint64(raw))
		default:
			return nil, fmt.Errorf("bjdata: ndarray: cannot represent %v elements as int64", a.Kind)
		}
	}
	return out, nil
}

// Uint64s returns the elements widened to uint64, interpreting Data in the
// given byte order. It accepts the unsigned kinds only.
func (a *NDArray) Uint64s(order binary.ByteOrder) ([]uint64, error) {
	out := make([]uint64, a.Len())
	size := a.Kind.Size()
	for i := range out {
		raw := a.Data[i*size:]
		switch a.Kind {
		case Uint8, Char:
			out[i] = uint64(raw[0])
		case Uint16:
			out[i] = uint64(order.Uint16(raw))
		case Uint32:
			out[i] = uint64(order.Uint32(raw))
		case Uint64:
			out[i] = order.Uint64(raw)
		default:
			return nil, fmt.Errorf("bjdata: ndarray: cannot represent %v elements as uint64", a.Kind)
		}
	}
	return out, nil
}

// Float64s returns the elements widened to float64, interpreting Data in
// the given byte order. It accepts the float kinds only.
func (a *NDArray) Float64s(order binary.ByteOrder) ([]float64, error) {
	out := make([]float64, a.Len())
	size := a.Kind.Size()
	for i := range out {
		raw := a.Data[i*size:]
		switch a.Kind {
		case Float16:
			out[i] = float64(float16.Frombits(order.Uint16(raw)).Float32())
		case Float32:
			out[i] = float64(math.Float32frombits(order.Uint32(raw)))
		case Float64:
			out[i] = math.Float64frombits(order.Uint64(raw))
		default:
			return nil, fmt.Errorf("bjdata: ndarray: cannot represent %v elements as float64", a.Kind)
		}
	}
	return out, nil
}
