package mathx

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// MulDiv returns floor(a*b/c) without ever holding more than twice the width
// of T. The product is accumulated one bit of b at a time into a double-width
// sum whose upper word is reduced against c on the same cycle, so each cycle
// yields one quotient digit. A rollout of the same width then divides the low
// word through. Quotients wider than T are truncated to T.
//
// c == 0 panics, as native integer division does.
func MulDiv[T constraints.Unsigned](a, b, c T) T {
	if c == 0 {
		panic("mathx: MulDiv by zero")
	}
	w := int(unsafe.Sizeof(a)) << 3
	top := T(1) << (w - 1)

	var st, sb, q T // sum top, sum bottom, quotient

	for i := 0; i < w; i++ {
		over := st&top != 0
		st <<= 1
		if sb&top != 0 {
			st |= 1
		}
		sb <<= 1
		if b&top != 0 {
			sb += a
			if sb < a {
				st++
				if st == 0 {
					over = true
				}
			}
		}
		b <<= 1

		// The upper word stays below c between cycles, so at most two
		// subtractions are needed here.
		q <<= 1
		for over || st >= c {
			st -= c
			over = false
			q++
		}
	}

	for i := 0; i < w; i++ {
		over := st&top != 0
		st <<= 1
		if sb&top != 0 {
			st |= 1
		}
		sb <<= 1

		q <<= 1
		if over || st >= c {
			st -= c
			q |= 1
		}
	}
	return q
}
