package bjdata

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStream is a fake seekable stream over a byte slice. limit caps how
// many bytes a single read returns, regardless of how many were requested.
type testStream struct {
	data    []byte
	pos     int
	limit   int
	seekErr error
	seeks   int
}

func (s *testStream) read(n int) ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, nil
	}
	if s.limit > 0 && n > s.limit {
		n = s.limit
	}
	if rest := len(s.data) - s.pos; n > rest {
		n = rest
	}
	chunk := append([]byte(nil), s.data[s.pos:s.pos+n]...)
	s.pos += n
	return chunk, nil
}

func (s *testStream) seek(offset int64, whence int) (int64, error) {
	s.seeks++
	if whence != io.SeekCurrent {
		return int64(s.pos), fmt.Errorf("unexpected whence %d", whence)
	}
	if s.seekErr != nil {
		return int64(s.pos), s.seekErr
	}
	s.pos += int(offset)
	return int64(s.pos), nil
}

func TestSeekableChunking(t *testing.T) {
	// the same input must decode identically through the fixed backend and
	// through a seekable stream served in chunks of any size, and the
	// stream cursor must end up exactly after the consumed value
	value := "[U\x01SU\x03abcU\x02]"
	trailer := "rest-of-stream"
	want, err := DecodeBytes([]byte(value))
	require.NoError(t, err)

	// every read must cover at least the largest single item (the 3-byte
	// string payload); beyond that any chunking is equivalent
	for limit := 3; limit <= len(value)+1; limit++ {
		s := &testStream{data: []byte(value + trailer), limit: limit}
		d := NewDecoderFunc(s.read, s.seek, nil)
		v, err := d.Decode()
		require.NoError(t, err, "limit %d", limit)
		require.True(t, deepEqual(v, want), "limit %d: have %#v, want %#v", limit, v, want)
		assert.Equal(t, len(value), s.pos, "limit %d: stream cursor", limit)
	}
}

func TestSeekableLookahead(t *testing.T) {
	// payload larger than the look-ahead unit arrives in one stitched read
	payload := strings.Repeat("x", 3*bufferFPSize) // 768 bytes
	data := "Su\x03\x00" + payload

	s := &testStream{data: []byte(data + "tail")}
	d := NewDecoderFunc(s.read, s.seek, nil)
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, payload, v)
	assert.Equal(t, len(data), s.pos)
}

func TestSeekableSuccessiveValues(t *testing.T) {
	s := &testStream{data: []byte("U\x01" + "U\x02" + "T")}
	d := NewDecoderFunc(s.read, s.seek, nil)

	for _, want := range []any{int64(1), int64(2), true} {
		v, err := d.Decode()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	_, err := d.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestCallableBackend(t *testing.T) {
	// plain callable input: every request goes to the callback, no
	// buffering, no seeking
	s := &testStream{data: []byte("SU\x05hello")}
	d := NewDecoderFunc(s.read, nil, nil)
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	assert.Zero(t, s.seeks)
}

func TestCallableShortRead(t *testing.T) {
	// a callable that cannot satisfy a mid-value request is an error, not
	// a retry
	s := &testStream{data: []byte("SU\x05he")}
	d := NewDecoderFunc(s.read, nil, nil)
	_, err := d.Decode()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientInput)
}

func TestCallableFailure(t *testing.T) {
	boom := errors.New("boom")
	read := func(n int) ([]byte, error) { return nil, boom }
	d := NewDecoderFunc(read, nil, nil)
	_, err := d.Decode()
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, boom)
}

func TestSeekRewindSubordinateToDecodeError(t *testing.T) {
	// the rewind still runs on a failed decode, and a rewind failure never
	// masks the decode error
	s := &testStream{data: []byte("X" + "lookahead bytes")}
	d := NewDecoderFunc(s.read, s.seek, nil)
	_, err := d.Decode()
	assert.ErrorIs(t, err, ErrInvalidMarker)

	s = &testStream{data: []byte("X" + "lookahead bytes"), seekErr: errors.New("seek broken")}
	d = NewDecoderFunc(s.read, s.seek, nil)
	_, err = d.Decode()
	assert.ErrorIs(t, err, ErrInvalidMarker)
	assert.Equal(t, 1, s.seeks)
}

func TestSeekRewindFailureSurfaces(t *testing.T) {
	// with a clean decode, a failing rewind is the call's error
	s := &testStream{data: []byte("T" + "lookahead bytes"), seekErr: errors.New("seek broken")}
	d := NewDecoderFunc(s.read, s.seek, nil)
	_, err := d.Decode()
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestReaderBackendSelection(t *testing.T) {
	data := []byte("[U\x01U\x02]xyz")
	want, err := DecodeBytes(data[:6])
	require.NoError(t, err)

	// io.ReadSeeker input buffers and rewinds
	r := strings.NewReader(string(data))
	v, err := NewDecoder(r).Decode()
	require.NoError(t, err)
	require.True(t, deepEqual(v, want))
	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 6, pos)

	// plain io.Reader input reads exactly as much as needed
	pr := struct{ io.Reader }{strings.NewReader(string(data))}
	v, err = NewDecoder(pr).Decode()
	require.NoError(t, err)
	require.True(t, deepEqual(v, want))
	rest, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(rest))
}

func TestFixedSourceShortAndEOF(t *testing.T) {
	s := &fixedSource{data: []byte("abc")}

	chunk, err := s.read(2, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(chunk))

	// short read at the end of the buffer
	chunk, err = s.read(5, nil)
	require.NoError(t, err)
	assert.Equal(t, "c", string(chunk))

	// exhausted
	chunk, err = s.read(1, nil)
	require.NoError(t, err)
	assert.Len(t, chunk, 0)
}

func TestDecodeErrorOffsetReporting(t *testing.T) {
	_, err := DecodeBytes([]byte("Si\xff"))
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	assert.EqualValues(t, 2, derr.Off)
	assert.ErrorIs(t, derr, ErrNegativeLength)
	assert.Contains(t, derr.Error(), "at byte 2")
}
