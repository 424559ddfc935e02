package processor

import (
	"math"
	"testing"
)

func TestCastToUint16(t *testing.T) {
	in := []float64{0, 1, 1.4, 1.5, 2.6, 6552.5, 65534.4, 65535, 70000}
	want := []uint16{0, 1, 1, 2, 3, 6553, 65534, 65535, 65535}

	out := CastToUint16(in)
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, out[i], want[i])
		}
	}
}

func TestCastToUint16NoData(t *testing.T) {
	in := []float64{math.NaN(), -5, -0.4, 0}
	out := CastToUint16(in)
	for i, v := range out {
		if v != 0 {
			t.Errorf("index %d: got %d, want 0", i, v)
		}
	}
}
