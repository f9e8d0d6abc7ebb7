package recorder

import (
	"math"
	"testing"

	"virogen/internal/population"
)

func newTensor(t *testing.T, hosts, kmax int) *population.Tensor {
	t.Helper()
	tn, err := population.New(hosts, kmax)
	if err != nil {
		t.Fatal(err)
	}
	return tn
}

func TestRecordMeanLoadEmptyHostIsNegativeOne(t *testing.T) {
	tn := newTensor(t, 1, 3)
	if err := tn.Reset(0, []float64{1}, []float64{1}); err != nil {
		t.Fatal(err)
	}
	row, err := Record(tn, 0, 0, KrecordMean)
	if err != nil {
		t.Fatal(err)
	}
	if row.K2[1] != -1 {
		t.Errorf("K2[1] = %g, want -1 for empty host", row.K2[1])
	}
	if row.K2[0] != -1 {
		t.Errorf("K2[0] = %g, want -1 when grand total is 0", row.K2[0])
	}
}

func TestRecordMeanLoadWeightsByHost(t *testing.T) {
	tn := newTensor(t, 2, 4)
	if err := tn.Reset(1, []float64{0, 0}, []float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	buf := tn.Cur2()
	tn.P2[buf][1][2][0] = 100 // host 1: mean load 2
	tn.P2[buf][2][0][4] = 300 // host 2: mean load 4
	tn.RefreshTotals()

	row, err := Record(tn, 0, 0, KrecordMean)
	if err != nil {
		t.Fatal(err)
	}
	if got := row.K2[1]; math.Abs(got-2) > 1e-9 {
		t.Errorf("K2[1] = %g, want 2", got)
	}
	if got := row.K2[2]; math.Abs(got-4) > 1e-9 {
		t.Errorf("K2[2] = %g, want 4", got)
	}
	// global = 2*(100/400) + 4*(300/400) = 0.5 + 3 = 3.5
	if got := row.K2[0]; math.Abs(got-3.5) > 1e-9 {
		t.Errorf("K2[0] = %g, want 3.5", got)
	}
}

func TestRecordMinLoad(t *testing.T) {
	tn := newTensor(t, 1, 5)
	if err := tn.Reset(0, []float64{0}, []float64{0}); err != nil {
		t.Fatal(err)
	}
	buf := tn.Cur2()
	tn.P2[buf][1][2][1] = 10
	tn.P2[buf][1][0][5] = 10
	tn.RefreshTotals()

	row, err := Record(tn, 0, 0, KrecordMin)
	if err != nil {
		t.Fatal(err)
	}
	if row.K2[1] != 3 {
		t.Errorf("K2[1] = %g, want 3 (min of 3 and 5)", row.K2[1])
	}
	if row.K2[0] != 3 {
		t.Errorf("K2[0] = %g, want 3", row.K2[0])
	}
}

func TestRecordRejectsBadKrecord(t *testing.T) {
	tn := newTensor(t, 1, 2)
	if err := tn.Reset(0, []float64{0}, []float64{0}); err != nil {
		t.Fatal(err)
	}
	if _, err := Record(tn, 0, 0, 2); err == nil {
		t.Error("expected error for invalid krecord")
	}
}

func TestHeaderLayout(t *testing.T) {
	h1 := Header(2, 1)
	if h1[0] != "rep" || h1[1] != "gen" {
		t.Errorf("timestep=1 header missing rep,gen prefix: %v", h1)
	}
	h0 := Header(2, 0)
	if h0[0] != "rep" || h0[1] == "gen" {
		t.Errorf("timestep=0 header should omit gen: %v", h0)
	}
}
