package mathx

import (
	"math"
	"math/big"
	"math/rand"
	"testing"
)

func refMulDiv(a, b, c uint64) *big.Int {
	p := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return p.Quo(p, new(big.Int).SetUint64(c))
}

func TestMulDiv_Uint8Exhaustive(t *testing.T) {
	for _, c := range []uint8{1, 2, 3, 7, 100, 127, 128, 129, 200, 255} {
		for a := 0; a < 256; a++ {
			for b := 0; b < 256; b++ {
				want := refMulDiv(uint64(a), uint64(b), uint64(c))
				if !want.IsUint64() || want.Uint64() > math.MaxUint8 {
					continue
				}
				if got := MulDiv(uint8(a), uint8(b), c); uint64(got) != want.Uint64() {
					t.Fatalf("MulDiv(%d,%d,%d)=%d want %s", a, b, c, got, want)
				}
			}
		}
	}
}

func TestMulDiv_Uint16Boundaries(t *testing.T) {
	vals := []uint16{0, 1, 2, 180, 720, 2000, 0x7FFF, 0x8000, 0xFFFE, 0xFFFF}
	for _, a := range vals {
		for _, b := range vals {
			for _, c := range vals[1:] {
				want := refMulDiv(uint64(a), uint64(b), uint64(c))
				if want.Uint64() > math.MaxUint16 || !want.IsUint64() {
					continue
				}
				if got := MulDiv(a, b, c); uint64(got) != want.Uint64() {
					t.Fatalf("MulDiv(%d,%d,%d)=%d want %s", a, b, c, got, want)
				}
			}
		}
	}
}

func TestMulDiv_Uint32Random(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	checked := 0
	for checked < 20000 {
		a, b := r.Uint32(), r.Uint32()
		c := r.Uint32()
		switch r.Intn(4) {
		case 0:
			c = math.MaxUint32 - uint32(r.Intn(16))
		case 1:
			a = math.MaxUint32 - uint32(r.Intn(16))
			c = a
		}
		if c == 0 {
			continue
		}
		want := refMulDiv(uint64(a), uint64(b), uint64(c))
		if want.Uint64() > math.MaxUint32 {
			continue
		}
		checked++
		if got := MulDiv(a, b, c); uint64(got) != want.Uint64() {
			t.Fatalf("MulDiv(%d,%d,%d)=%d want %s", a, b, c, got, want)
		}
	}
}

func TestMulDiv_Uint64NearMax(t *testing.T) {
	cases := [][3]uint64{
		{math.MaxUint64, math.MaxUint64, math.MaxUint64},
		{math.MaxUint64, 3, 4},
		{math.MaxUint64 - 1, math.MaxUint64 - 2, math.MaxUint64},
		{1 << 63, 1 << 62, 1 << 63},
		{0x123456789ABCDEF0, 0xFEDCBA9876543210, 0xFFFFFFFFFFFFFFF1},
		{12345, 0, 7},
	}
	for _, tc := range cases {
		a, b, c := tc[0], tc[1], tc[2]
		want := refMulDiv(a, b, c)
		if !want.IsUint64() {
			t.Fatalf("bad case %v: quotient overflows", tc)
		}
		if got := MulDiv(a, b, c); got != want.Uint64() {
			t.Fatalf("MulDiv(%d,%d,%d)=%d want %s", a, b, c, got, want)
		}
	}
}

func TestMulDiv_TruncatesTowardZero(t *testing.T) {
	if got := MulDiv[uint32](7, 3, 4); got != 5 {
		t.Fatalf("got %d want 5", got)
	}
	if got := MulDiv[uint32](1, 1, 2); got != 0 {
		t.Fatalf("got %d want 0", got)
	}
}

func TestMulDiv_ZeroDivisorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = MulDiv[uint16](1, 2, 0)
}

func TestClampAndToward(t *testing.T) {
	if Clamp(15, 0, 10) != 10 || Clamp(-1, 0, 10) != 0 || Clamp(5, 10, 0) != 5 {
		t.Fatal("clamp failed")
	}
	if Toward(3, 5) != 4 || Toward(5, 3) != 4 || Toward(4, 4) != 4 {
		t.Fatal("toward failed")
	}
}
