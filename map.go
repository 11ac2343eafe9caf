package bjdata

// Insertion-ordered mapping used for decoded objects.

import (
	"fmt"
	"hash/maphash"
	"strings"

	"github.com/aristanetworks/gomap"
	"golang.org/x/exp/slices"
)

// Pair is one key/value item of an object decoded in pair-preserving mode.
type Pair struct {
	Key   string
	Value any
}

// Map represents a decoded BJData object.
//
// It preserves the order in which keys first appear in the input. Setting a
// key that is already present replaces the value but keeps the original
// position, so an input with duplicate keys decodes with "last value wins"
// at the first occurrence's position.
//
// Note: similarly to builtin map, Map is a pointer-like type: its zero value
// represents a nil mapping that is empty and invalid to use Set on.
type Map struct {
	m     *gomap.Map[string, any]
	order *[]string
}

func keyEqual(a, b string) bool { return a == b }

func keyHash(seed maphash.Seed, k string) uint64 {
	return maphash.String(seed, k)
}

// NewMap returns a new empty Map.
func NewMap() Map {
	return NewMapWithSizeHint(0)
}

// NewMapWithSizeHint returns a new empty Map with preallocated space for
// size items.
func NewMapWithSizeHint(size int) Map {
	order := make([]string, 0, size)
	return Map{m: gomap.NewHint[string, any](size, keyEqual, keyHash), order: &order}
}

// NewMapWithData returns a new Map with preset data.
//
// kv should be key₁, value₁, key₂, value₂, ...
func NewMapWithData(kv ...any) Map {
	if len(kv)%2 != 0 {
		panic("odd number of arguments")
	}
	m := NewMapWithSizeHint(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

// Get returns the value associated with key.
//
// nil is returned if the key is not present.
func (m Map) Get(key string) any {
	value, _ := m.Get_(key)
	return value
}

// Get_ is comma-ok version of Get.
func (m Map) Get_(key string) (value any, ok bool) {
	return m.m.Get(key)
}

// Set associates key with value.
//
// A key already present keeps its position in the order; a new key is
// appended at the end.
func (m Map) Set(key string, value any) {
	if _, have := m.m.Get(key); !have {
		*m.order = append(*m.order, key)
	}
	m.m.Set(key, value)
}

// Del removes key from the mapping.
func (m Map) Del(key string) {
	if _, have := m.m.Get(key); !have {
		return
	}
	m.m.Delete(key)
	if i := slices.Index(*m.order, key); i >= 0 {
		*m.order = slices.Delete(*m.order, i, i+1)
	}
}

// Len returns the number of items in the mapping.
func (m Map) Len() int {
	return m.m.Len()
}

// Keys returns the keys in insertion order. The returned slice is shared
// with the Map and must not be modified.
func (m Map) Keys() []string {
	return *m.order
}

// Iter returns an iterator over all entries in insertion order.
func (m Map) Iter() func(yield func(string, any) bool) {
	return func(yield func(string, any) bool) {
		for _, k := range *m.order {
			v, _ := m.m.Get(k)
			if !yield(k, v) {
				break
			}
		}
	}
}

// String returns human-readable representation of the mapping.
func (m Map) String() string {
	return m.sprintf("%v")
}

// GoString returns detailed human-readable representation of the mapping.
func (m Map) GoString() string {
	return fmt.Sprintf("%T%s", m, m.sprintf("%#v"))
}

// sprintf serves String and GoString.
func (m Map) sprintf(format string) string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range *m.order {
		if i > 0 {
			b.WriteString(", ")
		}
		v, _ := m.m.Get(k)
		fmt.Fprintf(&b, "%q: "+format, k, v)
	}
	b.WriteString("}")
	return b.String()
}
