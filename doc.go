// Package bjdata is a library for decoding/encoding the BJData binary
// serialization format, a superset of UBJSON.
//
// Use Decoder to decode a value from an input stream, for example:
//
//	d := bjdata.NewDecoder(r)
//	obj, err := d.Decode() // obj is any, representing the decoded value
//
// or DecodeBytes for in-memory input. Use Encoder to encode a value into an
// output stream:
//
//	e := bjdata.NewEncoder(w)
//	err := e.Encode(obj)
//
// The following table summarizes mapping in between BJData and Go values:
//
//	BJData                Go
//	------                --
//
//	null (Z)           ↔  nil
//	true/false (T/F)   ↔  bool
//	int (i,U,I,u,l,m)  ↔  int64
//	int64 (L)          ↔  int64
//	uint64 (M)         ↔  uint64
//	float (h,d,D)      ↔  float64
//	char (C)           →  string of length 1
//	string (S)         ↔  string
//	high-prec (H)      ↔  decimal.Decimal
//	uint8 array ([$U#) ↔  []byte
//	packed array       ↔  *NDArray
//	array ([ ])        ↔  []any
//	object ({ })       ↔  Map
//
// Objects decode to Map, a string-keyed mapping that preserves the key order
// of the input. The DecoderConfig hooks can replace that: ObjectHook is
// called with every decoded Map, and ObjectPairsHook switches the decoder to
// an order- and duplicate-preserving []Pair representation.
//
// # Byte order
//
// Multi-byte values carry no per-value byte order; it is a stream-level
// convention. BJData streams are little-endian, UBJSON streams big-endian
// (network order). Both Decoder and Encoder default to big-endian and switch
// with the LittleEndian configuration field.
//
// # Input streams
//
// A Decoder reads through a pull callback. Plain io.Reader input is read
// exactly as much as each value requires. Input that also implements
// io.Seeker is read in buffered look-ahead units instead, and at the end of
// every Decode call the unconsumed look-ahead is seeked back, so the caller
// finds the stream positioned at the first byte after the decoded value.
// NewDecoderFunc gives direct control over both callbacks.
//
// Decoding untrusted input is safe in the usual Go sense: malformed input
// produces a DecodeError (with the byte offset of the problem), never
// arbitrary behavior, and container nesting is depth-limited.
package bjdata
