package engine

import "virogen/internal/population"

// Reassort applies deterministic mean-field re-pairing of segments: a
// fraction r of each host's two-segment mass is redistributed as the outer
// product of its own segment marginals, preserving both marginals exactly
// (property 3, spec §8). One-segment particles are untouched by
// reassortment and simply carried to the other P1 buffer unchanged.
func Reassort(t *population.Tensor, r float64) {
	in2, out2 := t.Cur2(), t.Other2()
	in1, out1 := t.Cur1(), t.Other1()
	t.ZeroP2(out2)

	kmax := t.Kmax
	jp := make([]float64, kmax+1)
	kp := make([]float64, kmax+1)

	for h := 0; h <= t.Hosts; h++ {
		src := t.P2[in2][h]
		n2 := t.N2[h]
		if n2 > 0 {
			for j := range jp {
				jp[j] = 0
			}
			for k := range kp {
				kp[k] = 0
			}
			for j := 0; j <= kmax; j++ {
				row := src[j]
				for k := 0; k <= kmax; k++ {
					jp[j] += row[k]
					kp[k] += row[k]
				}
			}
			for j := range jp {
				jp[j] /= n2
			}
			for k := range kp {
				kp[k] /= n2
			}
		}

		dst := t.P2[out2][h]
		for j := 0; j <= kmax; j++ {
			row := src[j]
			outRow := dst[j]
			for k := 0; k <= kmax; k++ {
				linked := (1 - r) * row[k]
				var reshuffled float64
				if n2 > 0 {
					reshuffled = r * n2 * jp[j] * kp[k]
				}
				outRow[k] = linked + reshuffled
			}
		}

		copy(t.P1[out1][h], t.P1[in1][h])
	}

	t.Swap2()
	t.Swap1()
	t.RefreshTotals()
}
