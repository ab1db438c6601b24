package conv

import (
	"math"
	"strconv"
	"testing"
)

func TestAppendInt(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 9, 10, 12345, -98765, math.MaxInt64, math.MinInt64} {
		if got := string(AppendInt(nil, n)); got != strconv.FormatInt(n, 10) {
			t.Fatalf("AppendInt(%d) = %q", n, got)
		}
	}
}

func TestAppendUint(t *testing.T) {
	for _, n := range []uint64{0, 7, 100, math.MaxUint32, math.MaxUint64} {
		if got := string(AppendUint([]byte("x"), n)); got != "x"+strconv.FormatUint(n, 10) {
			t.Fatalf("AppendUint(%d) = %q", n, got)
		}
	}
}

func TestAppendField(t *testing.T) {
	got := string(AppendField([]byte("servo"), "id", 3))
	if got != "servo id=3" {
		t.Fatalf("got %q", got)
	}
}
