package bjdata

// Utilities that complement std reflect package.

import (
	"reflect"

	"github.com/shopspring/decimal"
)

// deepEqual is like reflect.DeepEqual but also supports Map and
// decimal.Decimal.
//
// It is needed because reflect.DeepEqual considers two Maps not-equal as
// each is made with its own hash seed, and two Decimals with equal value may
// differ in exponent representation. Maps are compared as unordered.
func deepEqual(a, b any) bool {
	switch a := a.(type) {
	case Map:
		mb, ok := b.(Map)
		if !ok || a.Len() != mb.Len() {
			return false
		}
		eq := true
		a.Iter()(func(k string, va any) bool {
			vb, have := mb.Get_(k)
			if !have || !deepEqual(va, vb) {
				eq = false
				return false
			}
			return true
		})
		return eq

	case decimal.Decimal:
		db, ok := b.(decimal.Decimal)
		return ok && a.Equal(db)

	case []any:
		lb, ok := b.([]any)
		if !ok || len(a) != len(lb) {
			return false
		}
		for i := range a {
			if !deepEqual(a[i], lb[i]) {
				return false
			}
		}
		return true

	case []Pair:
		pb, ok := b.([]Pair)
		if !ok || len(a) != len(pb) {
			return false
		}
		for i := range a {
			if a[i].Key != pb[i].Key || !deepEqual(a[i].Value, pb[i].Value) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}
