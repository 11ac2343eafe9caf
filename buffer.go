package bjdata

import (
	"fmt"
	"io"
)

// bufferFPSize is the minimum number of bytes requested from a seekable
// stream in one go, i.e. the look-ahead unit.
const bufferFPSize = 256

// ReadFunc reads up to n bytes from an input stream, returning a fresh chunk
// on each call. A zero-length result with a nil error signals end of input.
// The returned chunk must not be longer than n bytes.
type ReadFunc func(n int) ([]byte, error)

// SeekFunc repositions an input stream. It has io.Seeker semantics; the
// decoder only ever calls it with whence == io.SeekCurrent.
type SeekFunc func(offset int64, whence int) (int64, error)

// source is one read backend of a decoderBuffer.
type source interface {
	// read returns up to n bytes. A zero-length result means the input is
	// exhausted; a shorter-than-requested result means the input ended
	// mid-item. When dst is not nil the bytes are copied into it and a
	// prefix of dst is returned; otherwise the returned slice may alias
	// backend storage and is valid only until the next read.
	read(n int, dst []byte) ([]byte, error)

	// close releases backend resources. A seekable backend first returns
	// unconsumed look-ahead to the stream.
	close() error
}

// fixedSource reads from a single in-memory byte slice.
type fixedSource struct {
	data []byte
	pos  int
}

func (s *fixedSource) read(n int, dst []byte) ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, nil
	}
	if rest := len(s.data) - s.pos; n > rest {
		n = rest
	}
	chunk := s.data[s.pos : s.pos+n]
	s.pos += n
	if dst != nil {
		return dst[:copy(dst, chunk)], nil
	}
	return chunk, nil
}

func (s *fixedSource) close() error { return nil }

// funcSource reads from a user callback. Every read invokes the callback
// once and returns its chunk whole; chunks are never aggregated across calls.
type funcSource struct {
	readFn ReadFunc
}

func (s *funcSource) read(n int, dst []byte) ([]byte, error) {
	chunk, err := s.readFn(n)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrIOFailure, err)
	}
	if len(chunk) == 0 {
		return nil, nil
	}
	if dst != nil {
		return dst[:copy(dst, chunk)], nil
	}
	return chunk, nil
}

func (s *funcSource) close() error { return nil }

// seekSource reads from a user callback in look-ahead units of at least
// bufferFPSize bytes, serving requests out of the buffered view. On close,
// the unconsumed tail of the view is returned to the stream through the seek
// callback so that the caller sees the stream positioned at the first byte
// the decoder did not consume.
type seekSource struct {
	readFn  ReadFunc
	seekFn  SeekFunc
	view    []byte
	pos     int
	scratch []byte
}

func (s *seekSource) read(n int, dst []byte) ([]byte, error) {
	// enough data in the existing view
	if rest := len(s.view) - s.pos; n <= rest {
		chunk := s.view[s.pos : s.pos+n]
		s.pos += n
		if dst != nil {
			return dst[:copy(dst, chunk)], nil
		}
		return chunk, nil
	}

	tmp := dst
	if tmp == nil {
		if cap(s.scratch) < n {
			s.scratch = make([]byte, n)
		}
		tmp = s.scratch[:n]
	}

	// carry the remainder of the current view over, then refill
	rem := copy(tmp, s.view[s.pos:])
	s.view, s.pos = nil, 0

	chunk, err := s.readFn(max(bufferFPSize, n-rem))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrIOFailure, err)
	}
	s.view = chunk
	if rem == 0 && len(chunk) == 0 {
		return nil, nil
	}

	take := n - rem
	if take > len(chunk) {
		take = len(chunk)
	}
	copy(tmp[rem:], chunk[:take])
	s.pos = take
	return tmp[:rem+take], nil
}

func (s *seekSource) close() error {
	rewind := int64(s.pos - len(s.view))
	s.view, s.pos = nil, 0
	if rewind < 0 {
		if _, err := s.seekFn(rewind, io.SeekCurrent); err != nil {
			return fmt.Errorf("%w: seek: %w", ErrIOFailure, err)
		}
	}
	return nil
}

// decoderBuffer is the per-Decode state: the input source, the count of
// bytes handed to the decoder so far (authoritative cursor for error
// offsets), the normalized preferences, and the container nesting depth.
type decoderBuffer struct {
	src       source
	totalRead int64
	config    DecoderConfig
	depth     int
	interned  map[string]string
}

// errAt wraps err into a DecodeError at the current input offset.
func (b *decoderBuffer) errAt(err error) error {
	return &DecodeError{Off: b.totalRead, Err: err}
}

// read returns exactly n bytes. It returns io.EOF when no input remains at
// all (meaningful only at a top-level value boundary), and a DecodeError
// wrapping ErrInsufficientInput when the input ends mid-item.
func (b *decoderBuffer) read(n int, dst []byte, item string) ([]byte, error) {
	chunk, err := b.src.read(n, dst)
	b.totalRead += int64(len(chunk))
	if err != nil {
		return nil, b.errAt(err)
	}
	if len(chunk) == 0 && n > 0 {
		return nil, io.EOF
	}
	if len(chunk) < n {
		return nil, b.errAt(fmt.Errorf("%w (%s): requested %d bytes, got %d",
			ErrInsufficientInput, item, n, len(chunk)))
	}
	return chunk, nil
}

// payloadChunk bounds how much readPayload allocates ahead of the input
// actually arriving.
const payloadChunk = 1 << 20

// readPayload returns exactly n payload bytes in caller-owned storage.
// Large payloads are read in bounded chunks, so a lying length prefix fails
// on missing input instead of allocating the claimed size up front.
func (b *decoderBuffer) readPayload(n int64, item string) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	if n <= payloadChunk {
		buf := make([]byte, n)
		if _, err := b.read(int(n), buf, item); err != nil {
			return nil, err
		}
		return buf, nil
	}
	buf := make([]byte, 0, payloadChunk)
	for remaining := n; remaining > 0; {
		step := remaining
		if step > payloadChunk {
			step = payloadChunk
		}
		chunk, err := b.read(int(step), nil, item)
		if err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
		remaining -= step
	}
	return buf, nil
}

func (b *decoderBuffer) readByte(item string) (byte, error) {
	chunk, err := b.read(1, nil, item)
	if err != nil {
		return 0, err
	}
	return chunk[0], nil
}

// intern deduplicates object key strings when InternObjectKeys is set.
func (b *decoderBuffer) intern(s string) string {
	if v, ok := b.interned[s]; ok {
		return v
	}
	if b.interned == nil {
		b.interned = make(map[string]string)
	}
	b.interned[s] = s
	return s
}

// close tears the buffer down. It must run unconditionally, error or not:
// for seekable input it rewinds unread look-ahead first. A close error is
// subordinate to an earlier decode error.
func (b *decoderBuffer) close() error {
	return b.src.close()
}
