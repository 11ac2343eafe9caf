package bjdata

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientInput indicates that the input ended in the middle of a
	// value or of a length prefix.
	ErrInsufficientInput = errors.New("bjdata: insufficient input")

	// ErrInvalidMarker indicates a byte at a marker position that is not in
	// the marker alphabet, or is not valid in its context.
	ErrInvalidMarker = errors.New("bjdata: invalid marker")

	// ErrInvalidContainerType indicates a '$' followed by a byte that is not
	// a value marker.
	ErrInvalidContainerType = errors.New("bjdata: invalid container type")

	// ErrNegativeLength indicates a negative decoded count or length.
	ErrNegativeLength = errors.New("bjdata: negative count/length unexpected")

	// ErrTypedContainerWithoutCount indicates a container with a '$' type but
	// no '#' count.
	ErrTypedContainerWithoutCount = errors.New("bjdata: container type without count")

	// ErrUTF8Decode indicates string or object key bytes that are not valid UTF-8.
	ErrUTF8Decode = errors.New("bjdata: invalid UTF-8")

	// ErrRecursionExceeded indicates that containers were nested deeper than
	// the decoder allows.
	ErrRecursionExceeded = errors.New("bjdata: maximum container nesting depth exceeded")

	// ErrFactoryFailure indicates that constructing a decoded value (a
	// high-precision decimal or a packed array) failed.
	ErrFactoryFailure = errors.New("bjdata: value construction failed")

	// ErrIOFailure indicates that a user-supplied read or seek callback failed.
	ErrIOFailure = errors.New("bjdata: input callback failed")
)

// DecodeError is the error that Decode returns when the input cannot be
// decoded. Off is the number of bytes consumed when the error was observed,
// except for ErrNegativeLength, where it is the offset at which the negative
// length value starts; Err is the reason and matches one of the Err*
// sentinel errors above.
type DecodeError struct {
	Off int64
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s (at byte %d)", e.Err, e.Off)
}

func (e *DecodeError) Unwrap() error { return e.Err }
