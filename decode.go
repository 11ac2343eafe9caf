package bjdata

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/x448/float16"
)

// maxNestingDepth bounds container recursion so that adversarial input
// cannot exhaust the stack.
const maxNestingDepth = 1000

// DecoderConfig allows to tune Decoder.
type DecoderConfig struct {
	// ObjectHook, if !nil, is called with every decoded object and its
	// result is used in place of the Map.
	//
	// It is ignored when ObjectPairsHook is set.
	ObjectHook func(m Map) (any, error)

	// ObjectPairsHook, if !nil, switches object decoding to a mode that
	// preserves the ordered (key, value) pairs, duplicates included, and
	// calls the hook with them. The hook's result is used as the decoded
	// value.
	ObjectPairsHook func(pairs []Pair) (any, error)

	// NoBytes disables the []byte representation of counted uint8 arrays;
	// they decode to a list of integers instead.
	NoBytes bool

	// InternObjectKeys deduplicates object key strings within one Decode
	// call, so that repeated keys share storage.
	InternObjectKeys bool

	// LittleEndian selects the byte order of multi-byte values. When false
	// (the default) values are read big-endian, i.e. UBJSON network order;
	// BJData streams are conventionally little-endian.
	LittleEndian bool
}

// Decoder is a decoder for BJData streams.
type Decoder struct {
	read   ReadFunc
	seek   SeekFunc // nil unless the input is seekable
	config *DecoderConfig
}

// NewDecoder constructs a new Decoder which will decode the stream in r.
//
// If r implements io.Seeker the input is read in buffered look-ahead units
// and every Decode call leaves r positioned at the first byte it did not
// consume. Otherwise r is read exactly as much as each value requires.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderWithConfig(r, &DecoderConfig{})
}

// NewDecoderWithConfig is similar to NewDecoder, but allows specifying
// decoder configuration.
func NewDecoderWithConfig(r io.Reader, config *DecoderConfig) *Decoder {
	read := func(n int) ([]byte, error) {
		p := make([]byte, n)
		m, err := io.ReadFull(r, p)
		switch err {
		case nil, io.ErrUnexpectedEOF:
			return p[:m], nil
		case io.EOF:
			return nil, nil
		}
		return nil, err
	}
	var seek SeekFunc
	if s, ok := r.(io.Seeker); ok {
		seek = s.Seek
	}
	return NewDecoderFunc(read, seek, config)
}

// NewDecoderFunc constructs a Decoder reading through read. If seek is not
// nil the input is treated as seekable: reads are buffered in look-ahead
// units of at least 256 bytes, and unconsumed look-ahead is returned to the
// stream through seek at the end of every Decode call.
func NewDecoderFunc(read ReadFunc, seek SeekFunc, config *DecoderConfig) *Decoder {
	if config == nil {
		config = &DecoderConfig{}
	}
	return &Decoder{read: read, seek: seek, config: config}
}

// Decode decodes one value from the input stream and returns it or an error.
//
// io.EOF is returned if the stream ends before the first byte of a value;
// a stream ending anywhere later is an ErrInsufficientInput decode error.
func (d *Decoder) Decode() (any, error) {
	var src source
	if d.seek != nil {
		src = &seekSource{readFn: d.read, seekFn: d.seek}
	} else {
		src = &funcSource{readFn: d.read}
	}
	return decodeTop(src, d.config)
}

// DecodeBytes decodes one value from data.
func DecodeBytes(data []byte) (any, error) {
	return DecodeBytesWithConfig(data, nil)
}

// DecodeBytesWithConfig is similar to DecodeBytes, but allows specifying
// decoder configuration.
func DecodeBytesWithConfig(data []byte, config *DecoderConfig) (any, error) {
	if config == nil {
		config = &DecoderConfig{}
	}
	return decodeTop(&fixedSource{data: data}, config)
}

// decodeTop runs one full decode over a fresh buffer and unconditionally
// tears the buffer down, keeping an earlier decode error over a close error.
func decodeTop(src source, config *DecoderConfig) (v any, err error) {
	buf := &decoderBuffer{src: src, config: *config}
	defer func() {
		if cerr := buf.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	v, err = decodeValue(buf, nil)
	if err == io.EOF && buf.totalRead > 0 {
		// input ended mid-value; a bare EOF is only clean before the
		// first marker
		err = buf.errAt(ErrInsufficientInput)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// decodeValue decodes a single value of any kind. givenMarker, when not nil,
// is the value's already-read marker; otherwise one byte is read first.
func decodeValue(b *decoderBuffer, givenMarker *byte) (any, error) {
	var marker byte
	if givenMarker == nil {
		var err error
		marker, err = b.readByte("type marker")
		if err != nil {
			return nil, err
		}
	} else {
		marker = *givenMarker
	}

	switch marker {
	case markerNull:
		return nil, nil
	case markerTrue:
		return true, nil
	case markerFalse:
		return false, nil
	case markerChar:
		return decodeChar(b)
	case markerString:
		return decodeString(b)
	case markerHighPrec:
		return decodeHighPrec(b)
	case markerInt8:
		return decodeInt8(b)
	case markerUint8:
		return decodeUint8(b)
	case markerInt16:
		return decodeInt16(b)
	case markerUint16:
		return decodeUint16(b)
	case markerInt32:
		return decodeInt32(b)
	case markerUint32:
		return decodeUint32(b)
	case markerInt64:
		return decodeInt64(b)
	case markerUint64:
		return decodeUint64(b)
	case markerFloat16:
		return decodeFloat16(b)
	case markerFloat32:
		return decodeFloat32(b)
	case markerFloat64:
		return decodeFloat64(b)
	case markerArrayStart:
		if b.depth >= maxNestingDepth {
			return nil, b.errAt(ErrRecursionExceeded)
		}
		b.depth++
		v, err := decodeArray(b)
		b.depth--
		return v, err
	case markerObjectStart:
		if b.depth >= maxNestingDepth {
			return nil, b.errAt(ErrRecursionExceeded)
		}
		b.depth++
		var v any
		var err error
		if b.config.ObjectPairsHook != nil {
			v, err = decodeObjectPairs(b)
		} else {
			v, err = decodeObject(b)
		}
		b.depth--
		return v, err
	default:
		return nil, b.errAt(fmt.Errorf("%w: %q", ErrInvalidMarker, marker))
	}
}

// orderOf maps the endianness preference to a byte order.
func orderOf(little bool) binary.ByteOrder {
	if little {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// order returns the byte order selected by the LittleEndian preference.
func (b *decoderBuffer) order() binary.ByteOrder {
	return orderOf(b.config.LittleEndian)
}

func decodeInt8(b *decoderBuffer) (int64, error) {
	c, err := b.readByte("int8")
	return int64(int8(c)), err
}

func decodeUint8(b *decoderBuffer) (int64, error) {
	c, err := b.readByte("uint8")
	return int64(c), err
}

func decodeInt16(b *decoderBuffer) (int64, error) {
	raw, err := b.read(2, nil, "int16")
	if err != nil {
		return 0, err
	}
	return int64(int16(b.order().Uint16(raw))), nil
}

func decodeUint16(b *decoderBuffer) (int64, error) {
	raw, err := b.read(2, nil, "uint16")
	if err != nil {
		return 0, err
	}
	return int64(b.order().Uint16(raw)), nil
}

func decodeInt32(b *decoderBuffer) (int64, error) {
	raw, err := b.read(4, nil, "int32")
	if err != nil {
		return 0, err
	}
	return int64(int32(b.order().Uint32(raw))), nil
}

func decodeUint32(b *decoderBuffer) (int64, error) {
	raw, err := b.read(4, nil, "uint32")
	if err != nil {
		return 0, err
	}
	return int64(b.order().Uint32(raw)), nil
}

func decodeInt64(b *decoderBuffer) (int64, error) {
	raw, err := b.read(8, nil, "int64")
	if err != nil {
		return 0, err
	}
	return int64(b.order().Uint64(raw)), nil
}

func decodeUint64(b *decoderBuffer) (uint64, error) {
	raw, err := b.read(8, nil, "uint64")
	if err != nil {
		return 0, err
	}
	return b.order().Uint64(raw), nil
}

func decodeFloat16(b *decoderBuffer) (float64, error) {
	raw, err := b.read(2, nil, "float16")
	if err != nil {
		return 0, err
	}
	return float64(float16.Frombits(b.order().Uint16(raw)).Float32()), nil
}

func decodeFloat32(b *decoderBuffer) (float64, error) {
	raw, err := b.read(4, nil, "float32")
	if err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(b.order().Uint32(raw))), nil
}

func decodeFloat64(b *decoderBuffer) (float64, error) {
	raw, err := b.read(8, nil, "float64")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(b.order().Uint64(raw)), nil
}

// decodeIntNonNegative decodes an integer of any width and rejects negative
// values; lengths and counts go through here. givenMarker, when not nil, is
// the integer's already-read marker. A negative value is reported at the
// offset where the integer's value bytes start.
func decodeIntNonNegative(b *decoderBuffer, givenMarker *byte) (int64, error) {
	var marker byte
	if givenMarker == nil {
		var err error
		marker, err = b.readByte("length marker")
		if err != nil {
			return 0, err
		}
	} else {
		marker = *givenMarker
	}
	start := b.totalRead

	var v int64
	var err error
	switch marker {
	case markerUint8:
		v, err = decodeUint8(b)
	case markerInt8:
		v, err = decodeInt8(b)
	case markerUint16:
		v, err = decodeUint16(b)
	case markerInt16:
		v, err = decodeInt16(b)
	case markerUint32:
		v, err = decodeUint32(b)
	case markerInt32:
		v, err = decodeInt32(b)
	case markerUint64:
		var u uint64
		u, err = decodeUint64(b)
		v = int64(u) // values beyond int64 wrap negative and are rejected below
	case markerInt64:
		v, err = decodeInt64(b)
	default:
		return 0, b.errAt(fmt.Errorf("%w: integer marker expected, got %q", ErrInvalidMarker, marker))
	}
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, &DecodeError{Off: start, Err: ErrNegativeLength}
	}
	return v, nil
}

func decodeChar(b *decoderBuffer) (string, error) {
	c, err := b.readByte("char")
	if err != nil {
		return "", err
	}
	if c >= utf8.RuneSelf {
		return "", b.errAt(fmt.Errorf("%w: char 0x%02x", ErrUTF8Decode, c))
	}
	return string(rune(c)), nil
}

func decodeString(b *decoderBuffer) (string, error) {
	length, err := decodeIntNonNegative(b, nil)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	raw, err := b.readPayload(length, "string")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", b.errAt(fmt.Errorf("%w: string", ErrUTF8Decode))
	}
	return string(raw), nil
}

func decodeHighPrec(b *decoderBuffer) (decimal.Decimal, error) {
	s, err := decodeString(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, b.errAt(fmt.Errorf("%w: high-precision decimal: %w", ErrFactoryFailure, err))
	}
	return dec, nil
}
