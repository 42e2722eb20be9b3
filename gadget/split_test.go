package gadget

import (
	"reflect"
	"testing"
)

func intSliceOps() ShareOps[[]int] {
	return ShareOps[[]int]{
		NVals: func(s []int) int { return len(s) },
		Slice: func(s []int, lo, hi int) []int { return append([]int{}, s[lo:hi]...) },
		Concat: func(a, b []int) ([]int, error) {
			return append(append([]int{}, a...), b...), nil
		},
	}
}

func pointwiseAdd(a, b []int) ([]int, error) {
	out := make([]int, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}

func TestSplitAccumulatePowerOfTwo(t *testing.T) {
	got, err := SplitAccumulate([]int{1, 2, 3, 4}, intSliceOps(), pointwiseAdd)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1 + 3 + 2 + 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitAccumulateOddWidth(t *testing.T) {
	// N=5: halves of 2 combine to {1+3,2+4}={4,6}; remainder {5} carried in,
	// giving {4,6,5}; next level halves of 1 combine to {4+6}={10}, remainder
	// {5} carried in giving {10,5}; final level combines to {15}.
	got, err := SplitAccumulate([]int{1, 2, 3, 4, 5}, intSliceOps(), pointwiseAdd)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 15 {
		t.Errorf("got %v, want [15]", got)
	}
}

func TestSplitAccumulateSingleton(t *testing.T) {
	got, err := SplitAccumulate([]int{42}, intSliceOps(), pointwiseAdd)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{42}) {
		t.Errorf("got %v, want [42]", got)
	}
}
