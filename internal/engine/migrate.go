package engine

import (
	"virogen/internal/population"
	"virogen/internal/rng"
)

// Migrate runs the two migration sub-phases in order: deposit, then draw.
// Deposit moves a mig fraction of every real host's mass into the pool
// (host 0); draw then redistributes pool mass back out via independent
// Poisson transmission draws, mean pool/H*tr per destination host, and
// clears the pool. The pool is non-empty only between these two sub-steps
// within a generation (spec §3, §9 - "model as a regular host slot").
func Migrate(t *population.Tensor, src *rng.Source, p Params) {
	in2, out2 := t.Cur2(), t.Other2()
	in1, out1 := t.Cur1(), t.Other1()
	t.ZeroP2(out2)
	t.ZeroP1(out1)

	kmax := t.Kmax
	maxJ1 := 2 * kmax
	hosts := t.Hosts

	// Deposit: out[h] = in[h]*(1-mig) for h in [1,H]; removed mass
	// accumulates into out[0] (the pool). Host 0 has no source mass of its
	// own to deposit (it is transient and cleared at end of the prior
	// generation).
	for h := 1; h <= hosts; h++ {
		inRow := t.P2[in2][h]
		outRow := t.P2[out2][h]
		poolRow := t.P2[out2][0]
		for j := 0; j <= kmax; j++ {
			for k := 0; k <= kmax; k++ {
				mass := inRow[j][k]
				kept := mass * (1 - p.Mig)
				outRow[j][k] += kept
				poolRow[j][k] += mass - kept
			}
		}

		in1Row := t.P1[in1][h]
		out1Row := t.P1[out1][h]
		pool1Row := t.P1[out1][0]
		for j := 0; j <= maxJ1; j++ {
			mass := in1Row[j]
			kept := mass * (1 - p.Mig)
			out1Row[j] += kept
			pool1Row[j] += mass - kept
		}
	}

	// Draw: each real host samples Poisson(pool/H*tr) out of the pool for
	// every class, added on top of what deposit already kept.
	poolRow := t.P2[out2][0]
	pool1Row := t.P1[out1][0]
	for h := 1; h <= hosts; h++ {
		outRow := t.P2[out2][h]
		for j := 0; j <= kmax; j++ {
			for k := 0; k <= kmax; k++ {
				mean := poolRow[j][k] / float64(hosts) * p.Tr
				if mean == 0 {
					continue
				}
				outRow[j][k] += float64(src.Poisson(mean))
			}
		}

		out1Row := t.P1[out1][h]
		for j := 0; j <= maxJ1; j++ {
			mean := pool1Row[j] / float64(hosts) * p.Tr
			if mean == 0 {
				continue
			}
			out1Row[j] += float64(src.Poisson(mean))
		}
	}

	// Pool is cleared after the draw sub-step.
	for j := 0; j <= kmax; j++ {
		row := poolRow[j]
		for k := range row {
			row[k] = 0
		}
	}
	for j := range pool1Row {
		pool1Row[j] = 0
	}

	t.Swap2()
	t.Swap1()
	t.RefreshTotals()
}
