package bjdata

import (
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// TypeError is the error that Encode returns for an unsupported Go type.
type TypeError struct {
	typ string
}

func (te *TypeError) Error() string {
	return fmt.Sprintf("bjdata: no support for type '%s'", te.typ)
}

// An Encoder encodes Go values into a BJData byte stream.
type Encoder struct {
	w      io.Writer
	config *EncoderConfig
}

// EncoderConfig allows to tune Encoder.
type EncoderConfig struct {
	// ContainerCount emits arrays and objects with an explicit `#` element
	// count instead of end markers.
	ContainerCount bool

	// SortKeys emits Go map objects with their keys sorted. Map values
	// always keep their insertion order.
	SortKeys bool

	// NoFloat32 widens float32 values to float64 on output.
	NoFloat32 bool

	// LittleEndian selects the byte order of multi-byte values; false means
	// big-endian, i.e. UBJSON network order.
	LittleEndian bool

	// Default, if !nil, is consulted with values of otherwise unsupported
	// types; its result is encoded in their place.
	Default func(v any) (any, error)
}

// NewEncoder returns a new Encoder struct with default values.
func NewEncoder(w io.Writer) *Encoder {
	return NewEncoderWithConfig(w, &EncoderConfig{})
}

// NewEncoderWithConfig is similar to NewEncoder, but allows specifying the
// encoder configuration.
func NewEncoderWithConfig(w io.Writer, config *EncoderConfig) *Encoder {
	return &Encoder{w: w, config: config}
}

// Encode writes the BJData encoding of v to w, the encoder's writer.
func (e *Encoder) Encode(v any) error {
	return e.encode(reflectValueOf(v))
}

// emitb writes byte vector into encoder output.
func (e *Encoder) emitb(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

// emits writes string into encoder output.
func (e *Encoder) emits(s string) error {
	return e.emitb([]byte(s))
}

// emit writes byte arguments into encoder output.
func (e *Encoder) emit(bv ...byte) error {
	return e.emitb(bv)
}

func (e *Encoder) encode(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Invalid:
		return e.emit(markerNull)

	case reflect.Bool:
		if rv.Bool() {
			return e.emit(markerTrue)
		}
		return e.emit(markerFalse)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.encodeInt(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return e.encodeUint64(u)
		}
		return e.encodeInt(int64(u))

	case reflect.Float32:
		if e.config.NoFloat32 {
			return e.encodeFloat64(rv.Float())
		}
		return e.encodeFloat32(float32(rv.Float()))

	case reflect.Float64:
		return e.encodeFloat64(rv.Float())

	case reflect.String:
		return e.encodeString(rv.String())

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return e.encodeBytes(rv.Bytes())
		}
		if pairs, ok := rv.Interface().([]Pair); ok {
			return e.encodePairs(pairs)
		}
		return e.encodeArray(rv)

	case reflect.Array:
		return e.encodeArray(rv)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return e.encodeDefault(rv)
		}
		return e.encodeGoMap(rv)

	case reflect.Struct:
		switch v := rv.Interface().(type) {
		case decimal.Decimal:
			return e.encodeHighPrec(v)
		case Map:
			return e.encodeMap(v)
		}
		return e.encodeDefault(rv)

	case reflect.Interface:
		// recurse until we get a concrete type
		return e.encode(rv.Elem())

	case reflect.Ptr:
		if rv.IsNil() {
			return e.emit(markerNull)
		}
		if arr, ok := rv.Interface().(*NDArray); ok {
			return e.encodeNDArray(arr)
		}
		return e.encode(rv.Elem())

	default:
		return e.encodeDefault(rv)
	}
}

// encodeDefault runs the Default hook on values the encoder has no native
// representation for.
func (e *Encoder) encodeDefault(rv reflect.Value) error {
	if def := e.config.Default; def != nil {
		v, err := def(rv.Interface())
		if err != nil {
			return err
		}
		return e.encode(reflectValueOf(v))
	}
	return &TypeError{typ: rv.Type().String()}
}

// putUint emits an unsigned value of the given byte width in the configured
// byte order.
func (e *Encoder) putUint(u uint64, size int) error {
	var b [8]byte
	order := orderOf(e.config.LittleEndian)
	switch size {
	case 1:
		b[0] = byte(u)
	case 2:
		order.PutUint16(b[:2], uint16(u))
	case 4:
		order.PutUint32(b[:4], uint32(u))
	case 8:
		order.PutUint64(b[:8], u)
	}
	return e.emitb(b[:size])
}

// encodeInt emits i with the smallest sufficient integer marker.
func (e *Encoder) encodeInt(i int64) error {
	switch {
	case i >= 0 && i <= math.MaxUint8:
		return e.emit(markerUint8, byte(i))
	case i >= math.MinInt8 && i < 0:
		return e.emit(markerInt8, byte(i))
	case i >= math.MinInt16 && i <= math.MaxInt16:
		if err := e.emit(markerInt16); err != nil {
			return err
		}
		return e.putUint(uint64(i), 2)
	case i >= 0 && i <= math.MaxUint16:
		if err := e.emit(markerUint16); err != nil {
			return err
		}
		return e.putUint(uint64(i), 2)
	case i >= math.MinInt32 && i <= math.MaxInt32:
		if err := e.emit(markerInt32); err != nil {
			return err
		}
		return e.putUint(uint64(i), 4)
	case i >= 0 && i <= math.MaxUint32:
		if err := e.emit(markerUint32); err != nil {
			return err
		}
		return e.putUint(uint64(i), 4)
	default:
		if err := e.emit(markerInt64); err != nil {
			return err
		}
		return e.putUint(uint64(i), 8)
	}
}

func (e *Encoder) encodeUint64(u uint64) error {
	if err := e.emit(markerUint64); err != nil {
		return err
	}
	return e.putUint(u, 8)
}

func (e *Encoder) encodeFloat32(f float32) error {
	if err := e.emit(markerFloat32); err != nil {
		return err
	}
	return e.putUint(uint64(math.Float32bits(f)), 4)
}

func (e *Encoder) encodeFloat64(f float64) error {
	if err := e.emit(markerFloat64); err != nil {
		return err
	}
	return e.putUint(math.Float64bits(f), 8)
}

func (e *Encoder) encodeString(s string) error {
	if err := e.emit(markerString); err != nil {
		return err
	}
	if err := e.encodeInt(int64(len(s))); err != nil {
		return err
	}
	return e.emits(s)
}

func (e *Encoder) encodeHighPrec(d decimal.Decimal) error {
	s := d.String()
	if err := e.emit(markerHighPrec); err != nil {
		return err
	}
	if err := e.encodeInt(int64(len(s))); err != nil {
		return err
	}
	return e.emits(s)
}

// encodeBytes emits a byte slice as a counted uint8-typed array.
func (e *Encoder) encodeBytes(b []byte) error {
	if err := e.emit(markerArrayStart, markerType, markerUint8, markerCount); err != nil {
		return err
	}
	if err := e.encodeInt(int64(len(b))); err != nil {
		return err
	}
	return e.emitb(b)
}

// dimMarker picks the narrowest unsigned marker that can hold every
// dimension of shape.
func dimMarker(shape []int64) (byte, int) {
	maxDim := int64(0)
	for _, d := range shape {
		if d > maxDim {
			maxDim = d
		}
	}
	switch {
	case maxDim <= math.MaxUint8:
		return markerUint8, 1
	case maxDim <= math.MaxUint16:
		return markerUint16, 2
	case maxDim <= math.MaxUint32:
		return markerUint32, 4
	}
	return markerUint64, 8
}

// encodeNDArray emits the optimized container header `[$T#[` with a counted
// typed dimension vector, followed by the packed payload verbatim.
func (e *Encoder) encodeNDArray(a *NDArray) error {
	elem := elemMarker(a.Kind)
	if elem == markerNone {
		return &TypeError{typ: fmt.Sprintf("NDArray kind %v", a.Kind)}
	}
	if err := e.emit(markerArrayStart, markerType, elem, markerCount); err != nil {
		return err
	}

	dm, size := dimMarker(a.Shape)
	if err := e.emit(markerArrayStart, markerType, dm, markerCount); err != nil {
		return err
	}
	if err := e.encodeInt(int64(len(a.Shape))); err != nil {
		return err
	}
	for _, dim := range a.Shape {
		if err := e.putUint(uint64(dim), size); err != nil {
			return err
		}
	}

	return e.emitb(a.Data)
}

func (e *Encoder) encodeArray(arr reflect.Value) error {
	l := arr.Len()

	if e.config.ContainerCount {
		if err := e.emit(markerArrayStart, markerCount); err != nil {
			return err
		}
		if err := e.encodeInt(int64(l)); err != nil {
			return err
		}
		for i := 0; i < l; i++ {
			if err := e.encode(arr.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := e.emit(markerArrayStart); err != nil {
		return err
	}
	for i := 0; i < l; i++ {
		if err := e.encode(arr.Index(i)); err != nil {
			return err
		}
	}
	return e.emit(markerArrayEnd)
}

// encodeKey emits an object key: length prefix plus raw bytes, no marker.
func (e *Encoder) encodeKey(key string) error {
	if err := e.encodeInt(int64(len(key))); err != nil {
		return err
	}
	return e.emits(key)
}

func (e *Encoder) objectStart(n int) error {
	if e.config.ContainerCount {
		if err := e.emit(markerObjectStart, markerCount); err != nil {
			return err
		}
		return e.encodeInt(int64(n))
	}
	return e.emit(markerObjectStart)
}

func (e *Encoder) objectEnd() error {
	if e.config.ContainerCount {
		return nil
	}
	return e.emit(markerObjectEnd)
}

func (e *Encoder) encodeMap(m Map) error {
	if err := e.objectStart(m.Len()); err != nil {
		return err
	}
	for _, k := range m.Keys() {
		if err := e.encodeKey(k); err != nil {
			return err
		}
		if err := e.encode(reflectValueOf(m.Get(k))); err != nil {
			return err
		}
	}
	return e.objectEnd()
}

func (e *Encoder) encodePairs(pairs []Pair) error {
	if err := e.objectStart(len(pairs)); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := e.encodeKey(p.Key); err != nil {
			return err
		}
		if err := e.encode(reflectValueOf(p.Value)); err != nil {
			return err
		}
	}
	return e.objectEnd()
}

func (e *Encoder) encodeGoMap(m reflect.Value) error {
	keys := make([]string, 0, m.Len())
	for _, k := range m.MapKeys() {
		keys = append(keys, k.String())
	}
	if e.config.SortKeys {
		slices.Sort(keys)
	}

	if err := e.objectStart(len(keys)); err != nil {
		return err
	}
	kt := m.Type().Key()
	for _, k := range keys {
		if err := e.encodeKey(k); err != nil {
			return err
		}
		if err := e.encode(m.MapIndex(reflect.ValueOf(k).Convert(kt))); err != nil {
			return err
		}
	}
	return e.objectEnd()
}

func reflectValueOf(v any) reflect.Value {
	rv, ok := v.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(v)
	}
	return rv
}
