// Package population holds the double-buffered particle-count tensor the
// stage kernels read and write. The buffer-and-swap idiom mirrors the
// teacher's permsA/permsB generational buffers: each stage reads the
// "current" buffer and writes the "other" one, then the driver swaps
// cursors rather than mutating in place (spec design note: "do not attempt
// in-place mutation").
package population

import "fmt"

// Tensor is the full particle-count state for one replicate: two-segment
// counts P2[buf][host][j][k] and one-segment counts P1[buf][host][j], plus
// per-host totals. Host index 0 is the migration pool; hosts 1..H are real
// hosts. Tensor is not safe for concurrent use - each replicate worker owns
// one.
type Tensor struct {
	Hosts int // H; indices 0..Hosts are valid (0 is the pool)
	Kmax  int

	// P2[buf][h][j][k], buf in {0,1}, h in [0,Hosts], j,k in [0,Kmax].
	P2 [2][][][]float64
	// P1[buf][h][j], j in [0, 2*Kmax].
	P1 [2][][]float64

	// Per-host totals, index 0 holds the grand sum across hosts 1..Hosts.
	N2 []float64
	N1 []float64
	N  []float64

	cur2 int
	cur1 int
}

// New allocates a tensor sized for hosts (not counting the pool) and the
// given per-segment mutation cap.
func New(hosts, kmax int) (*Tensor, error) {
	if hosts < 1 {
		return nil, fmt.Errorf("population: host_num must be >= 1, got %d", hosts)
	}
	if kmax < 1 {
		return nil, fmt.Errorf("population: kmax must be >= 1, got %d", kmax)
	}
	t := &Tensor{Hosts: hosts, Kmax: kmax}
	for b := 0; b < 2; b++ {
		t.P2[b] = make([][][]float64, hosts+1)
		t.P1[b] = make([][]float64, hosts+1)
		for h := 0; h <= hosts; h++ {
			t.P2[b][h] = make([][]float64, kmax+1)
			for j := 0; j <= kmax; j++ {
				t.P2[b][h][j] = make([]float64, kmax+1)
			}
			t.P1[b][h] = make([]float64, 2*kmax+1)
		}
	}
	t.N2 = make([]float64, hosts+1)
	t.N1 = make([]float64, hosts+1)
	t.N = make([]float64, hosts+1)
	return t, nil
}

// Cur2 and Cur1 return the index of the buffer each arity currently treats
// as "live" input. They are advanced independently because the two arities
// are double-buffered separately (spec §3: "the driver keeps two
// independent cursors").
func (t *Tensor) Cur2() int { return t.cur2 }
func (t *Tensor) Cur1() int { return t.cur1 }

// Other2 and Other1 return the write-target buffer for the next stage.
func (t *Tensor) Other2() int { return 1 - t.cur2 }
func (t *Tensor) Other1() int { return 1 - t.cur1 }

// Swap2 and Swap1 flip the live cursor after a stage has written its
// output into the "other" buffer.
func (t *Tensor) Swap2() { t.cur2 = 1 - t.cur2 }
func (t *Tensor) Swap1() { t.cur1 = 1 - t.cur1 }

// ZeroP2 clears one buffer's two-segment counts, the precondition the
// stage kernels require of their write target (spec §4.1's "writing
// targets must be zeroed by the caller before entry"). P2 and P1 are
// zeroed independently because the two arities advance on independent
// cursors and may not share a live buffer index at a given stage.
func (t *Tensor) ZeroP2(buf int) {
	for h := 0; h <= t.Hosts; h++ {
		for j := 0; j <= t.Kmax; j++ {
			row := t.P2[buf][h][j]
			for k := range row {
				row[k] = 0
			}
		}
	}
}

// ZeroP1 clears one buffer's one-segment counts.
func (t *Tensor) ZeroP1(buf int) {
	for h := 0; h <= t.Hosts; h++ {
		row1 := t.P1[buf][h]
		for j := range row1 {
			row1[j] = 0
		}
	}
}

// ZeroBuffer clears one buffer's worth of counts for both arities.
func (t *Tensor) ZeroBuffer(buf int) {
	t.ZeroP2(buf)
	t.ZeroP1(buf)
}

// Reset zeroes both buffers and totals and seeds the initial condition:
// P2[.][h][0][0] = N0*pop2init[h-1], P1[.][h][0] = N0*pop1init[h-1] for
// h in [1,Hosts], per spec §3's replicate lifecycle.
func (t *Tensor) Reset(n0 float64, pop2init, pop1init []float64) error {
	if len(pop2init) != t.Hosts {
		return fmt.Errorf("population: pop2init has %d entries, want %d", len(pop2init), t.Hosts)
	}
	if len(pop1init) != t.Hosts {
		return fmt.Errorf("population: pop1init has %d entries, want %d", len(pop1init), t.Hosts)
	}
	t.ZeroBuffer(0)
	t.ZeroBuffer(1)
	t.cur2 = 0
	t.cur1 = 0
	for h := 1; h <= t.Hosts; h++ {
		t.P2[0][h][0][0] = n0 * pop2init[h-1]
		t.P1[0][h][0] = n0 * pop1init[h-1]
	}
	t.RefreshTotals()
	return nil
}

// RefreshTotals recomputes N2, N1, N from the current (cur2/cur1) buffers.
// Stage kernels call this after writing their output and swapping, per the
// "recomputed only after the stage" ordering the reproduction kernel relies
// on (spec §9's within-generation snapshot caveat).
func (t *Tensor) RefreshTotals() {
	grand2, grand1 := 0.0, 0.0
	for h := 1; h <= t.Hosts; h++ {
		sum2 := 0.0
		for j := 0; j <= t.Kmax; j++ {
			row := t.P2[t.cur2][h][j]
			for k := 0; k <= t.Kmax; k++ {
				sum2 += row[k]
			}
		}
		sum1 := 0.0
		for _, v := range t.P1[t.cur1][h] {
			sum1 += v
		}
		t.N2[h] = sum2
		t.N1[h] = sum1
		t.N[h] = sum2 + sum1
		grand2 += sum2
		grand1 += sum1
	}
	t.N2[0] = grand2
	t.N1[0] = grand1
	t.N[0] = grand2 + grand1
}

// Extinct reports whether the pool-arity extinction condition triggers:
// N2[0] == 0 or N1[0] == 0, the inclusive-or the reference design flags as
// an open question (spec §9(a)) but preserves verbatim here.
func (t *Tensor) Extinct() bool {
	return t.N2[0] == 0 || t.N1[0] == 0
}
