package tables

import "testing"

// TestFactorNormalization checks property 8: the factor table sums to ~1
// for u <= 1.
func TestFactorNormalization(t *testing.T) {
	for _, u := range []float64{0.0, 0.1, 0.5, 1.0} {
		tb, err := New(u, 10, 10)
		if err != nil {
			t.Fatalf("New(%g): %v", u, err)
		}
		sum := 0.0
		for _, f := range tb.Factor {
			sum += f
		}
		if diff := sum - 1; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("u=%g: factor sum = %g, want ~1", u, sum)
		}
	}
}

// TestFactorIdentityAtZero checks property 6: factor[0]=1, factor[l>=1]=0
// when u=0.
func TestFactorIdentityAtZero(t *testing.T) {
	tb, err := New(0, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Factor[0] != 1 {
		t.Errorf("factor[0] = %g, want 1", tb.Factor[0])
	}
	for l := 1; l < len(tb.Factor); l++ {
		if tb.Factor[l] != 0 {
			t.Errorf("factor[%d] = %g, want 0", l, tb.Factor[l])
		}
	}
}

// TestMatrixRowSumsToOne verifies each source class's outgoing weight
// (diagonal self-weight plus all off-diagonal entries) sums to 1, which is
// the per-class precondition for property 1 (mass conservation).
func TestMatrixRowSumsToOne(t *testing.T) {
	tb, err := New(0.3, 6, 6)
	if err != nil {
		t.Fatal(err)
	}
	sums := make(map[int]float64)
	for _, e := range tb.M {
		sums[e.Src] += e.Weight
	}
	for src, sum := range sums {
		if diff := sum - 1; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("two-segment class %d: outgoing weight sums to %g, want 1", src, sum)
		}
	}

	sums1 := make(map[int]float64)
	for _, e := range tb.M1 {
		sums1[e.Src] += e.Weight
	}
	for src, sum := range sums1 {
		if diff := sum - 1; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("one-segment class %d: outgoing weight sums to %g, want 1", src, sum)
		}
	}
}

// TestMatrixAdmissibility verifies property 2: no two-segment entry routes
// mass beyond the per-segment cap kmax.
func TestMatrixAdmissibility(t *testing.T) {
	kmax := 5
	tb, err := New(0.8, kmax, kmax)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range tb.M {
		dstJ, dstK := e.Dst/(kmax+1), e.Dst%(kmax+1)
		if dstJ > kmax || dstK > kmax {
			t.Errorf("entry %+v routes mass to (%d,%d), beyond kmax=%d", e, dstJ, dstK, kmax)
		}
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	if _, err := New(0.1, 0, 1); err == nil {
		t.Error("expected error for kmax=0")
	}
	if _, err := New(0.1, 2, -1); err == nil {
		t.Error("expected error for negative mutcap")
	}
	if _, err := New(-1, 2, 1); err == nil {
		t.Error("expected error for negative u")
	}
}
