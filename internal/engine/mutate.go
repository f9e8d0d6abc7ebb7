package engine

import (
	"virogen/internal/population"
	"virogen/internal/tables"
)

// Mutate applies the precomputed mutation transition matrix to the tensor's
// current buffer, writing the redistributed mass into the other buffer and
// swapping. It is mass-preserving per host (property 1, spec §8): every
// unit of input mass is routed to exactly one destination class in M (or
// M1), including the diagonal "stays in place" entries tables.New bakes in.
func Mutate(t *population.Tensor, tb *tables.Tables) {
	in2, out2 := t.Cur2(), t.Other2()
	in1, out1 := t.Cur1(), t.Other1()
	t.ZeroP2(out2)
	t.ZeroP1(out1)

	kmax := tb.Kmax
	for h := 0; h <= t.Hosts; h++ {
		src := t.P2[in2][h]
		dst := t.P2[out2][h]
		for _, e := range tb.M {
			srcJ, srcK := e.Src/(kmax+1), e.Src%(kmax+1)
			mass := src[srcJ][srcK]
			if mass == 0 {
				continue
			}
			dstJ, dstK := e.Dst/(kmax+1), e.Dst%(kmax+1)
			dst[dstJ][dstK] += mass * e.Weight
		}

		src1 := t.P1[in1][h]
		dst1 := t.P1[out1][h]
		for _, e := range tb.M1 {
			mass := src1[e.Src]
			if mass == 0 {
				continue
			}
			dst1[e.Dst] += mass * e.Weight
		}
	}

	t.Swap2()
	t.Swap1()
	t.RefreshTotals()
}
