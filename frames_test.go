package structset

import (
	"errors"
	"testing"
)

func TestFrameSize(Te *testing.T) {
	cases := []struct {
		counts []int
		want   int
	}{
		{[]int{1, 2, 3}, 1},
		{[]int{4, 8, 12}, 4},
		{[]int{6}, 6},
		{[]int{6, 9}, 3},
		{[]int{2, 2, 2, 4}, 2},
	}
	for _, c := range cases {
		got, err := FrameSize(c.counts)
		if err != nil {
			Te.Fatal(err)
		}
		if got != c.want {
			Te.Errorf("FrameSize(%v)=%d, want %d", c.counts, got, c.want)
		}
		for _, n := range c.counts {
			if n%got != 0 {
				Te.Errorf("FrameSize(%v)=%d does not divide %d", c.counts, got, n)
			}
		}
	}
	for _, bad := range [][]int{nil, {}, {3, 0}, {-2, 4}} {
		if _, err := FrameSize(bad); !errors.Is(err, ErrValidation) {
			Te.Errorf("FrameSize(%v) should fail with a validation error, got %v", bad, err)
		}
	}
}

func TestGcdLaws(Te *testing.T) {
	for a := 1; a < 40; a++ {
		for b := 1; b < 40; b++ {
			g := gcd(a, b)
			if a%g != 0 || b%g != 0 {
				Te.Fatalf("gcd(%d,%d)=%d is not a common divisor", a, b, g)
			}
			if g != gcd(b, a) {
				Te.Fatalf("gcd(%d,%d) not symmetric", a, b)
			}
			for d := g + 1; d <= a && d <= b; d++ {
				if a%d == 0 && b%d == 0 {
					Te.Fatalf("gcd(%d,%d)=%d but %d is a larger common divisor", a, b, g, d)
				}
			}
		}
	}
}

func TestPrefixSum(Te *testing.T) {
	got := prefixSum([]int{1, 2, 3})
	want := []int{0, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			Te.Fatalf("prefixSum: got %v, want %v", got, want)
		}
	}
}
