package engine

import (
	"math"

	"virogen/internal/population"
	"virogen/internal/rng"
)

// Reproduce draws an independent Poisson count for every class, with mean
//
//	lambda(h,j,k) = P_in[h][j][k] * (1-s)^(j+k) * (1-c) * 2 / (1 + N[h]/K)
//
// for two-segment classes, and the analogous one-segment mean without the
// (1-c) factor. Reproduction is the only stage that turns real-valued mass
// into integers (spec §4.3). Per the within-generation snapshot caveat
// (spec §9), N[h] is read here *before* this stage's totals are refreshed -
// the host loop must not see its own stage's output.
func Reproduce(t *population.Tensor, src *rng.Source, p Params) {
	in2, out2 := t.Cur2(), t.Other2()
	in1, out1 := t.Cur1(), t.Other1()
	t.ZeroP2(out2)
	t.ZeroP1(out1)

	kmax := t.Kmax
	maxJ1 := 2 * kmax

	for h := 0; h <= t.Hosts; h++ {
		limiter := 2 / (1 + t.N[h]/p.K)

		inRow := t.P2[in2][h]
		outRow := t.P2[out2][h]
		for j := 0; j <= kmax; j++ {
			for k := 0; k <= kmax; k++ {
				if j+k == 2*kmax {
					continue
				}
				mass := inRow[j][k]
				if mass == 0 {
					continue
				}
				lambda := mass * math.Pow(1-p.S, float64(j+k)) * (1 - p.C) * limiter
				outRow[j][k] += float64(src.Poisson(lambda))
			}
		}

		in1Row := t.P1[in1][h]
		out1Row := t.P1[out1][h]
		for j := 0; j <= maxJ1; j++ {
			if j == maxJ1 {
				continue
			}
			mass := in1Row[j]
			if mass == 0 {
				continue
			}
			lambda := mass * math.Pow(1-p.S, float64(j)) * limiter
			out1Row[j] += float64(src.Poisson(lambda))
		}
	}

	t.Swap2()
	t.Swap1()
	t.RefreshTotals()
}
