// Package recorder reduces a population tensor to the per-host summary
// rows the CLI writes to CSV: either mean mutation load or minimum
// mutation load per host, plus population sizes (spec §4.5).
package recorder

import (
	"fmt"

	"virogen/internal/population"
)

const (
	// KrecordMean selects the mean-load recording mode.
	KrecordMean = 0
	// KrecordMin selects the minimum-load recording mode.
	KrecordMin = 1
)

// Row is one CSV-ready summary of a tensor at a point in time. Index 0 of
// each per-host slice holds the global (pooled-across-hosts) value;
// indices 1..Hosts hold per-host values, matching the CSV column layout in
// spec §6.
type Row struct {
	Rep  int
	Gen  int // generation index; a per-replicate row carries the replicate's last generation
	Pop1 []float64
	Pop2 []float64
	K1   []float64
	K2   []float64
}

// Record reduces the tensor's current buffers into one Row for replicate
// rep, generation gen, using the requested krecord mode.
func Record(t *population.Tensor, rep, gen, krecord int) (Row, error) {
	hosts := t.Hosts
	row := Row{
		Rep:  rep,
		Gen:  gen,
		Pop1: make([]float64, hosts+1),
		Pop2: make([]float64, hosts+1),
		K1:   make([]float64, hosts+1),
		K2:   make([]float64, hosts+1),
	}
	copy(row.Pop1, t.N1)
	copy(row.Pop2, t.N2)

	switch krecord {
	case KrecordMean:
		recordMeanLoad(t, &row)
	case KrecordMin:
		recordMinLoad(t, &row)
	default:
		return Row{}, fmt.Errorf("recorder: krecord must be 0 or 1, got %d", krecord)
	}
	return row, nil
}

func recordMeanLoad(t *population.Tensor, row *Row) {
	buf2, buf1 := t.Cur2(), t.Cur1()
	kmax := t.Kmax

	for h := 1; h <= t.Hosts; h++ {
		if t.N2[h] == 0 {
			row.K2[h] = -1
		} else {
			sum := 0.0
			for j := 0; j <= kmax; j++ {
				r := t.P2[buf2][h][j]
				for k := 0; k <= kmax; k++ {
					sum += r[k] * float64(j+k)
				}
			}
			row.K2[h] = sum / t.N2[h]
		}

		if t.N1[h] == 0 {
			row.K1[h] = -1
		} else {
			sum := 0.0
			for j, v := range t.P1[buf1][h] {
				sum += v * float64(j)
			}
			row.K1[h] = sum / t.N1[h]
		}
	}

	row.K2[0] = weightedGlobal(row.K2[1:], t.N2)
	row.K1[0] = weightedGlobal(row.K1[1:], t.N1)
}

// weightedGlobal implements spec §9(b): the global mean weights each
// host's own mean by N[h]/N[0], and yields -1 if the grand total N[0] is
// zero (all hosts empty). Each arity is weighted by its own totals (N2 for
// k2, N1 for k1) rather than the combined N - see DESIGN.md's Open Question
// decision 5 for why.
func weightedGlobal(perHost []float64, totals []float64) float64 {
	if totals[0] == 0 {
		return -1
	}
	sum := 0.0
	for h, mean := range perHost {
		if mean < 0 {
			continue
		}
		sum += mean * totals[h+1] / totals[0]
	}
	return sum
}

func recordMinLoad(t *population.Tensor, row *Row) {
	buf2, buf1 := t.Cur2(), t.Cur1()
	kmax := t.Kmax
	ceiling2 := 2*kmax + 1

	globalMin2 := ceiling2
	globalMin1 := ceiling2
	for h := 1; h <= t.Hosts; h++ {
		min2 := ceiling2
		for j := 0; j <= kmax; j++ {
			r := t.P2[buf2][h][j]
			for k := 0; k <= kmax; k++ {
				if r[k] > 0 && j+k < min2 {
					min2 = j + k
				}
			}
		}
		if min2 == ceiling2 {
			row.K2[h] = -1
		} else {
			row.K2[h] = float64(min2)
			if min2 < globalMin2 {
				globalMin2 = min2
			}
		}

		min1 := ceiling2
		for j, v := range t.P1[buf1][h] {
			if v > 0 && j < min1 {
				min1 = j
			}
		}
		if min1 == ceiling2 {
			row.K1[h] = -1
		} else {
			row.K1[h] = float64(min1)
			if min1 < globalMin1 {
				globalMin1 = min1
			}
		}
	}

	if globalMin2 == ceiling2 {
		row.K2[0] = -1
	} else {
		row.K2[0] = float64(globalMin2)
	}
	if globalMin1 == ceiling2 {
		row.K1[0] = -1
	} else {
		row.K1[0] = float64(globalMin1)
	}
}
