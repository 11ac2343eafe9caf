package bjdata

import (
	"fmt"
	"unicode/utf8"
)

// containerParams is the parsed optional `$type` / `#count` preamble shared
// by arrays and objects.
type containerParams struct {
	// next marker to consume: the first element's marker, or the closing
	// marker of an unsized container
	marker byte
	// whether the container carries an explicit element count
	counting bool
	// number of elements if counting, 1 otherwise
	count int64
	// global element type, markerNone if none
	typ byte
}

// allocHint bounds a decoded element count before it is used as a
// preallocation size, so a lying count cannot reserve arbitrary memory.
func allocHint(n int64) int {
	const maxHint = 4096
	if n > maxHint {
		return maxHint
	}
	return int(n)
}

// validContainerType reports whether m may follow a '$'.
func validContainerType(m byte) bool {
	switch m {
	case markerNull, markerTrue, markerFalse, markerChar, markerString,
		markerInt8, markerUint8, markerInt16, markerUint16,
		markerInt32, markerUint32, markerInt64, markerUint64,
		markerFloat16, markerFloat32, markerFloat64,
		markerHighPrec, markerArrayStart, markerObjectStart:
		return true
	}
	return false
}

// isNoDataType reports whether t is a marker whose value is implied by the
// marker itself, with no payload bytes.
func isNoDataType(t byte) bool {
	return t == markerNull || t == markerTrue || t == markerFalse
}

func noDataValue(t byte) any {
	switch t {
	case markerTrue:
		return true
	case markerFalse:
		return false
	}
	return nil
}

// getContainerParams parses the container preamble, positioned at the first
// byte after '[' or '{'. When wantDims is set (array path) it also accepts
// the optimized N-D header `#[`, whose dimension vector is itself a counted
// or end-terminated array of integers; the returned dims are nil otherwise.
func getContainerParams(b *decoderBuffer, inMapping, wantDims bool) (containerParams, []int64, error) {
	var params containerParams
	var dims []int64

	marker, err := b.readByte("container type, count or first key/value type")
	if err != nil {
		return params, nil, err
	}

	// fixed type for all values
	if marker == markerType {
		typ, err := b.readByte("container type")
		if err != nil {
			return params, nil, err
		}
		if !validContainerType(typ) {
			return params, nil, b.errAt(fmt.Errorf("%w: %q", ErrInvalidContainerType, typ))
		}
		params.typ = typ
		marker, err = b.readByte("container count or first key/value type")
		if err != nil {
			return params, nil, err
		}
	} else {
		params.typ = markerNone
	}

	switch {
	case marker == markerCount:
		params.counting = true
		marker, err = b.readByte("container count marker or N-D dimension array marker")
		if err != nil {
			return params, nil, err
		}

		if marker == markerArrayStart && wantDims {
			// optimized N-D header: the count is the product of a nested
			// dimension vector
			inner, _, err := getContainerParams(b, false, false)
			if err != nil {
				return params, nil, err
			}
			params.count = 1
			if inner.counting {
				// typed counted dimension vector: lengths are raw
				// values of the inner fixed type
				dims = make([]int64, 0, inner.count)
				for i := int64(0); i < inner.count; i++ {
					length, err := decodeIntNonNegative(b, &inner.typ)
					if err != nil {
						return params, nil, err
					}
					params.count *= length
					dims = append(dims, length)
				}
			} else {
				// end-terminated dimension vector: each length carries
				// its own marker
				marker = inner.marker
				for marker != markerArrayEnd {
					length, err := decodeIntNonNegative(b, &marker)
					if err != nil {
						return params, nil, err
					}
					params.count *= length
					dims = append(dims, length)
					marker, err = b.readByte("length marker")
					if err != nil {
						return params, nil, err
					}
				}
			}
		} else {
			params.count, err = decodeIntNonNegative(b, &marker)
			if err != nil {
				return params, nil, err
			}
		}

		// read ahead to capture the first element's marker, which is absent
		// when the global type already provides it
		if params.count > 0 && (inMapping || params.typ == markerNone) {
			marker, err = b.readByte("first key/value type")
			if err != nil {
				return params, nil, err
			}
		} else {
			marker = params.typ
		}

	case params.typ == markerNone:
		// count not provided; the container runs until its end marker
		params.count = 1

	default:
		return params, nil, b.errAt(ErrTypedContainerWithoutCount)
	}

	params.marker = marker
	return params, dims, nil
}

func decodeArray(b *decoderBuffer) (any, error) {
	params, dims, err := getContainerParams(b, false, true)
	if err != nil {
		return nil, err
	}
	marker := params.marker

	if !params.counting {
		list := []any{}
		for marker != markerArrayEnd {
			if marker == markerNoop {
				marker, err = b.readByte("array value marker")
				if err != nil {
					return nil, err
				}
				continue
			}
			v, err := decodeValue(b, &marker)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
			if params.typ == markerNone {
				marker, err = b.readByte("array value marker")
				if err != nil {
					return nil, err
				}
			}
		}
		return list, nil
	}

	switch {
	// counted uint8 array: a binary blob, unless asked not to
	case params.typ == markerUint8 && !b.config.NoBytes && len(dims) == 0:
		return b.readPayload(params.count, "bytes array")

	// packed N-D array
	case len(dims) > 0 && params.typ != markerNone:
		return decodePacked(b, dims, params.typ, params.count)

	// no-data global type: the container carries no element bytes at all
	case isNoDataType(params.typ):
		v := noDataValue(params.typ)
		list := make([]any, params.count)
		for i := range list {
			list[i] = v
		}
		return list, nil

	// fixed-width 1-D packed array
	case isFixedLenType(params.typ) && params.count > 0 &&
		!(params.typ == markerUint8 && b.config.NoBytes):
		return decodePacked(b, []int64{params.count}, params.typ, params.count)

	default:
		list := make([]any, 0, allocHint(params.count))
		for count := params.count; count > 0; {
			if marker == markerNoop {
				marker, err = b.readByte("array value marker")
				if err != nil {
					return nil, err
				}
				continue
			}
			v, err := decodeValue(b, &marker)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
			count--
			if count > 0 && params.typ == markerNone {
				marker, err = b.readByte("array value marker")
				if err != nil {
					return nil, err
				}
			}
		}
		return list, nil
	}
}

// decodePacked reads count elements of the fixed-width type typ straight
// into the backing storage of a new NDArray of the given shape.
func decodePacked(b *decoderBuffer, dims []int64, typ byte, count int64) (*NDArray, error) {
	kind, ok := elemKindOf(typ)
	if !ok {
		return nil, b.errAt(fmt.Errorf("%w: %q is not a packed element type", ErrInvalidContainerType, typ))
	}
	data, err := b.readPayload(count*int64(kind.Size()), "packed array")
	if err != nil {
		return nil, err
	}
	arr, err := NewNDArray(dims, kind, data)
	if err != nil {
		return nil, b.errAt(fmt.Errorf("%w: %w", ErrFactoryFailure, err))
	}
	return arr, nil
}

// decodeObjectKey decodes one object key: a length-prefixed UTF-8 string
// whose length marker has already been read.
func decodeObjectKey(b *decoderBuffer, marker byte) (string, error) {
	length, err := decodeIntNonNegative(b, &marker)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	raw, err := b.readPayload(length, "object key")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", b.errAt(fmt.Errorf("%w: object key", ErrUTF8Decode))
	}
	key := string(raw)
	if b.config.InternObjectKeys {
		key = b.intern(key)
	}
	return key, nil
}

func decodeObject(b *decoderBuffer) (any, error) {
	params, _, err := getContainerParams(b, true, false)
	if err != nil {
		return nil, err
	}
	marker := params.marker

	hint := 0
	if params.counting {
		hint = allocHint(params.count)
	}
	obj := NewMapWithSizeHint(hint)

	// special case: no data values, keys only
	if params.counting && isNoDataType(params.typ) {
		v := noDataValue(params.typ)
		for count := params.count; count > 0; {
			key, err := decodeObjectKey(b, marker)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
			count--
			if count > 0 {
				marker, err = b.readByte("object key length")
				if err != nil {
					return nil, err
				}
			}
		}
	} else {
		var fixed *byte
		if params.typ != markerNone {
			fixed = &params.typ
		}

		count := params.count
		for count > 0 && (params.counting || marker != markerObjectEnd) {
			if marker == markerNoop {
				marker, err = b.readByte("object key length")
				if err != nil {
					return nil, err
				}
				continue
			}
			key, err := decodeObjectKey(b, marker)
			if err != nil {
				return nil, err
			}
			value, err := decodeValue(b, fixed)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
			if params.counting {
				count--
			}
			if count > 0 {
				marker, err = b.readByte("object key length")
				if err != nil {
					return nil, err
				}
			}
		}
	}

	if hook := b.config.ObjectHook; hook != nil {
		return hook(obj)
	}
	return obj, nil
}

func decodeObjectPairs(b *decoderBuffer) (any, error) {
	params, _, err := getContainerParams(b, true, false)
	if err != nil {
		return nil, err
	}
	marker := params.marker

	var pairs []Pair
	if params.counting {
		pairs = make([]Pair, 0, allocHint(params.count))

		// special case: no data values, keys only
		if isNoDataType(params.typ) {
			v := noDataValue(params.typ)
			for count := params.count; count > 0; {
				key, err := decodeObjectKey(b, marker)
				if err != nil {
					return nil, err
				}
				pairs = append(pairs, Pair{Key: key, Value: v})
				count--
				if count > 0 {
					marker, err = b.readByte("object key length")
					if err != nil {
						return nil, err
					}
				}
			}
		} else {
			var fixed *byte
			if params.typ != markerNone {
				fixed = &params.typ
			}
			for count := params.count; count > 0; {
				if marker == markerNoop {
					marker, err = b.readByte("object key length")
					if err != nil {
						return nil, err
					}
					continue
				}
				key, err := decodeObjectKey(b, marker)
				if err != nil {
					return nil, err
				}
				value, err := decodeValue(b, fixed)
				if err != nil {
					return nil, err
				}
				pairs = append(pairs, Pair{Key: key, Value: value})
				count--
				if count > 0 {
					marker, err = b.readByte("object key length")
					if err != nil {
						return nil, err
					}
				}
			}
		}
	} else {
		pairs = []Pair{}
		var fixed *byte
		if params.typ != markerNone {
			fixed = &params.typ
		}
		for marker != markerObjectEnd {
			if marker == markerNoop {
				marker, err = b.readByte("object key length")
				if err != nil {
					return nil, err
				}
				continue
			}
			key, err := decodeObjectKey(b, marker)
			if err != nil {
				return nil, err
			}
			value, err := decodeValue(b, fixed)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, Pair{Key: key, Value: value})
			marker, err = b.readByte("object key length")
			if err != nil {
				return nil, err
			}
		}
	}

	return b.config.ObjectPairsHook(pairs)
}
