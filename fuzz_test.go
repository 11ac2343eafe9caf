package bjdata

import (
	"bytes"
	"testing"
)

// FuzzDecode checks that decoding arbitrary input never panics, and that
// encode is a left inverse of decode on everything decode accepts:
// encoding a decoded value and decoding it back must converge, i.e.
// encode(decode(encode(obj))) == encode(obj) byte for byte.
func FuzzDecode(f *testing.F) {
	for _, tt := range decodeTests {
		if tt.config == nil {
			f.Add([]byte(tt.data))
		}
	}
	for _, tt := range decodeErrTests {
		f.Add([]byte(tt.data))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		obj, err := DecodeBytes(data)
		if err != nil {
			return
		}

		var buf bytes.Buffer
		if err := NewEncoder(&buf).Encode(obj); err != nil {
			// must succeed, as obj was obtained via successful decode
			t.Fatalf("encode error: %s\nobject: %#v", err, obj)
		}
		encoded := buf.String()

		obj2, err := DecodeBytes(buf.Bytes())
		if err != nil {
			// must succeed, as buf contains valid output from the encoder
			t.Fatalf("decode back error: %s\ndata: %q", err, encoded)
		}

		buf.Reset()
		if err := NewEncoder(&buf).Encode(obj2); err != nil {
			t.Fatalf("re-encode error: %s\nobject: %#v", err, obj2)
		}
		if buf.String() != encoded {
			t.Fatalf("encode·decode·encode != encode:\nhave: %q\nwant: %q", buf.String(), encoded)
		}
	})
}
