package bjdata

// conversion in between decoded Go values.

import (
	"fmt"
	"math"
)

// AsInt64 tries to represent a decoded value as int64.
//
// Most integer markers decode as int64, but uint64 values do not; Go code
// should use AsInt64 to accept normal-range integers independently of the
// marker they were carried by.
func AsInt64(x any) (int64, error) {
	switch x := x.(type) {
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 outside of int64 range")
		}
		return int64(x), nil
	}
	return 0, fmt.Errorf("expect int64|uint64; got %T", x)
}

// AsUint64 tries to represent a decoded value as uint64.
//
// It is the unsigned counterpart of AsInt64: it accepts uint64 values
// directly and non-negative int64 values.
func AsUint64(x any) (uint64, error) {
	switch x := x.(type) {
	case uint64:
		return x, nil
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("negative int64 outside of uint64 range")
		}
		return uint64(x), nil
	}
	return 0, fmt.Errorf("expect int64|uint64; got %T", x)
}

// AsFloat64 tries to represent a decoded value as float64.
//
// It accepts any decoded numeric value, integers included.
func AsFloat64(x any) (float64, error) {
	switch x := x.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("expect float64|int64|uint64; got %T", x)
}

// AsString tries to represent a decoded value as string.
func AsString(x any) (string, error) {
	if s, ok := x.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expect string; got %T", x)
}

// AsBytes tries to represent a decoded value as a byte slice.
//
// It succeeds for counted uint8 arrays, and for packed uint8 arrays decoded
// as NDArray.
func AsBytes(x any) ([]byte, error) {
	switch x := x.(type) {
	case []byte:
		return x, nil
	case *NDArray:
		if x.Kind == Uint8 {
			return x.Data, nil
		}
	}
	return nil, fmt.Errorf("expect bytes; got %T", x)
}
