package bjdata

import (
	"math"
	"testing"
)

func TestAsInt64(t *testing.T) {
	tests := []struct {
		in   any
		out  int64
		werr bool
	}{
		{int64(1), 1, false},
		{uint64(2), 2, false},
		{uint64(math.MaxInt64), math.MaxInt64, false},
		{uint64(math.MaxInt64) + 1, 0, true},
		{"1", 0, true},
		{float64(1), 0, true},
	}
	for _, tt := range tests {
		v, err := AsInt64(tt.in)
		if (err != nil) != tt.werr {
			t.Errorf("AsInt64(%v): unexpected error state: %v", tt.in, err)
			continue
		}
		if err == nil && v != tt.out {
			t.Errorf("AsInt64(%v) = %v, want %v", tt.in, v, tt.out)
		}
	}
}

func TestAsUint64(t *testing.T) {
	tests := []struct {
		in   any
		out  uint64
		werr bool
	}{
		{uint64(1), 1, false},
		{uint64(math.MaxUint64), math.MaxUint64, false},
		{int64(2), 2, false},
		{int64(-1), 0, true},
		{"1", 0, true},
		{float64(1), 0, true},
	}
	for _, tt := range tests {
		v, err := AsUint64(tt.in)
		if (err != nil) != tt.werr {
			t.Errorf("AsUint64(%v): unexpected error state: %v", tt.in, err)
			continue
		}
		if err == nil && v != tt.out {
			t.Errorf("AsUint64(%v) = %v, want %v", tt.in, v, tt.out)
		}
	}
}

func TestAsFloat64(t *testing.T) {
	for _, in := range []any{float64(1), int64(1), uint64(1)} {
		v, err := AsFloat64(in)
		if err != nil || v != 1.0 {
			t.Errorf("AsFloat64(%v) = %v, %v", in, v, err)
		}
	}
	if _, err := AsFloat64("1"); err == nil {
		t.Error("AsFloat64(string): expected error")
	}
}

func TestAsString(t *testing.T) {
	if s, err := AsString("x"); err != nil || s != "x" {
		t.Errorf("AsString: %v, %v", s, err)
	}
	if _, err := AsString(1); err == nil {
		t.Error("AsString(int): expected error")
	}
}

func TestAsBytes(t *testing.T) {
	if b, err := AsBytes([]byte{1}); err != nil || len(b) != 1 {
		t.Errorf("AsBytes: %v, %v", b, err)
	}
	arr := &NDArray{Shape: []int64{2}, Kind: Uint8, Data: []byte{1, 2}}
	if b, err := AsBytes(arr); err != nil || len(b) != 2 {
		t.Errorf("AsBytes(ndarray): %v, %v", b, err)
	}
	arr = &NDArray{Shape: []int64{1}, Kind: Uint16, Data: []byte{1, 2}}
	if _, err := AsBytes(arr); err == nil {
		t.Error("AsBytes(uint16 ndarray): expected error")
	}
	if _, err := AsBytes("x"); err == nil {
		t.Error("AsBytes(string): expected error")
	}
}
