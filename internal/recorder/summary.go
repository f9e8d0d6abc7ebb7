package recorder

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary is a distributional summary across replicates: extinction
// generation, final global mean mutation load, and final global population
// size. The extinction generation is the Gen of each replicate's last row:
// the generation an untilext run stopped at, or gen_num-1 for a run that
// reached the end; a run that did not go extinct is not told apart from one
// that went extinct in its last generation. The engine is
// repeated many times "to obtain distributions over extinction times, mean
// mutation loads, and population sizes" (spec §1) - this is that
// reduction.
type Summary struct {
	ExtinctionGenMean, ExtinctionGenStd float64
	FinalLoadMean, FinalLoadStd        float64
	FinalPopMean, FinalPopStd          float64
	FinalLoadMedian                    float64
}

// Summarize reduces one row per replicate (its last recorded row) into a
// Summary using gonum's weighted mean/variance primitives.
func Summarize(lastRowPerReplicate []Row, genNum int) Summary {
	n := len(lastRowPerReplicate)
	if n == 0 {
		return Summary{}
	}

	extGens := make([]float64, n)
	loads := make([]float64, n)
	pops := make([]float64, n)
	for i, row := range lastRowPerReplicate {
		extGens[i] = float64(row.Gen)
		loads[i] = row.K2[0]
		pops[i] = row.Pop2[0] + row.Pop1[0]
	}

	sortedLoads := append([]float64(nil), loads...)
	sort.Float64s(sortedLoads)

	return Summary{
		ExtinctionGenMean: stat.Mean(extGens, nil),
		ExtinctionGenStd:  stat.StdDev(extGens, nil),
		FinalLoadMean:     stat.Mean(loads, nil),
		FinalLoadStd:      stat.StdDev(loads, nil),
		FinalPopMean:      stat.Mean(pops, nil),
		FinalPopStd:       stat.StdDev(pops, nil),
		FinalLoadMedian:   stat.Quantile(0.5, stat.Empirical, sortedLoads, nil),
	}
}
