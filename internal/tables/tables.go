// Package tables precomputes the two read-only structures the mutation
// kernel folds over every generation: the Poisson PMF "factor" table and the
// sparse mutation transition matrix derived from it. Both depend only on
// (u, kmax, mutcap) and are built once per process; replicate workers share
// them without locking (see internal/rng for the per-worker PRNG state that
// is NOT shared).
package tables

import (
	"fmt"
	"math"

	"virogen/internal/rng"
)

// Entry is one (source class, destination class, weight) triple in a
// flattened mutation transition matrix, per the sparse-triple storage the
// reference design calls for instead of a dense (kmax+1)^2 square matrix.
type Entry struct {
	Src, Dst int
	Weight   float64
}

// Tables holds the precomputed factor table and mutation matrices for a
// fixed (u, kmax, mutcap) triple.
type Tables struct {
	Kmax   int
	Mutcap int

	// Factor[l] = P(Poisson(2u) = l), l in [0, 2*kmax].
	Factor []float64

	// M holds the two-segment transition entries, flattened class index
	// iota(j,k) = (kmax+1)*j + k, including the diagonal "stays in place"
	// entries. A self-weight is 1 minus that class's off-diagonal weights,
	// so it absorbs the factor mass beyond L = min(mutcap, 2*kmax-j-k) and
	// may exceed factor[0].
	M []Entry

	// M1 holds the one-segment transition entries indexed directly by
	// mutation count j in [0, 2*kmax].
	M1 []Entry
}

// iotaIndex flattens a two-segment class (j,k) into M's index space.
func iotaIndex(kmax, j, k int) int { return (kmax+1)*j + k }

// New builds the factor table and mutation matrices for mean per-virion
// mutation rate u (per segment), per-segment cap kmax, and per-generation
// mutation cap mutcap.
func New(u float64, kmax, mutcap int) (*Tables, error) {
	if kmax < 1 {
		return nil, fmt.Errorf("tables: kmax must be >= 1, got %d", kmax)
	}
	if mutcap < 0 {
		return nil, fmt.Errorf("tables: mutcap must be >= 0, got %d", mutcap)
	}
	if u < 0 {
		return nil, fmt.Errorf("tables: u must be >= 0, got %g", u)
	}

	lambda := 2 * u
	maxL := 2 * kmax
	factor := make([]float64, maxL+1)
	if lambda == 0 {
		factor[0] = 1
	} else {
		logLambda := math.Log(lambda)
		for l := 0; l <= maxL; l++ {
			logP := -lambda + float64(l)*logLambda - rng.LogGamma(float64(l)+1)
			factor[l] = math.Exp(logP)
		}
	}

	t := &Tables{
		Kmax:   kmax,
		Mutcap: mutcap,
		Factor: factor,
	}
	t.buildTwoSegment()
	t.buildOneSegment()
	return t, nil
}

func (t *Tables) buildTwoSegment() {
	kmax := t.Kmax
	n := (kmax + 1) * (kmax + 1)
	entries := make([]Entry, 0, n*2)

	for j := 0; j <= kmax; j++ {
		for k := 0; k <= kmax; k++ {
			src := iotaIndex(kmax, j, k)
			remaining := 2*kmax - j - k
			if remaining < 0 {
				remaining = 0
			}
			L := t.Mutcap
			if remaining < L {
				L = remaining
			}

			selfWeight := 1.0
			for l := 1; l <= L; l++ {
				fl := t.Factor[l]
				if fl == 0 {
					continue
				}
				selfWeight -= fl

				reachJ := j+l > kmax
				reachK := k+l > kmax
				var count int
				switch {
				case !reachJ && !reachK:
					count = l + 1
				case reachJ != reachK:
					count = kmax - max(j, k) + 1
				default:
					count = 2*kmax - j - k - l + 1
				}
				if count < 1 {
					count = 1
				}
				w := fl / float64(count)

				for l2 := 0; l2 <= l; l2++ {
					l3 := l - l2
					if j+l2 > kmax || k+l3 > kmax {
						continue
					}
					dst := iotaIndex(kmax, j+l2, k+l3)
					entries = append(entries, Entry{Src: src, Dst: dst, Weight: w})
				}
			}
			if selfWeight < 0 {
				selfWeight = 0
			}
			entries = append(entries, Entry{Src: src, Dst: src, Weight: selfWeight})
		}
	}
	t.M = entries
}

func (t *Tables) buildOneSegment() {
	kmax := t.Kmax
	maxJ := 2 * kmax
	entries := make([]Entry, 0, (maxJ+1)*2)

	for j := 0; j <= maxJ; j++ {
		remaining := maxJ - j
		L := t.Mutcap
		if remaining < L {
			L = remaining
		}
		selfWeight := 1.0
		for l := 1; l <= L; l++ {
			fl := t.Factor[l]
			if fl == 0 {
				continue
			}
			selfWeight -= fl
			entries = append(entries, Entry{Src: j, Dst: j + l, Weight: fl})
		}
		if selfWeight < 0 {
			selfWeight = 0
		}
		entries = append(entries, Entry{Src: j, Dst: j, Weight: selfWeight})
	}
	t.M1 = entries
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
