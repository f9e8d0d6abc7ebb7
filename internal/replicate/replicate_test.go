package replicate

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"virogen/internal/recorder"
)

func silentLogger() zerolog.Logger {
	return zerolog.Nop()
}

func baseConfig() Config {
	return Config{
		Rep: 1, GenNum: 50, Timestep: 1, Krecord: 0, Untilext: 0,
		HostNum: 1, Kmax: 5, Mutcap: 2,
		N0: 10, K: 100, U: 0, S: 0, C: 0, R: 0, Mig: 0, Tr: 0,
		Seed:     1,
		Pop2Init: []float64{1},
		Pop1Init: []float64{0},
	}
}

// TestScenarioS1DeterministicExtinction mirrors spec scenario S1: with no
// mutation, reassortment, cost, or migration, two-segment population size
// should climb monotonically toward K and one-segment population should
// stay at zero throughout.
func TestScenarioS1DeterministicExtinction(t *testing.T) {
	cfg := baseConfig()
	rows, err := Run(context.Background(), cfg, silentLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows) != cfg.GenNum {
		t.Fatalf("got %d rows, want %d", len(rows), cfg.GenNum)
	}
	for i, row := range rows {
		if row.Pop1[1] != 0 {
			t.Errorf("gen %d: Pop1[1] = %g, want 0", i, row.Pop1[1])
		}
	}
	// Growth is stochastic (Poisson draws), so only check the broad trend:
	// early generations well below K, later generations settled near K.
	if rows[2].Pop2[1] >= 80 {
		t.Errorf("gen 2: Pop2 = %g, expected still well below K early on", rows[2].Pop2[1])
	}
	final := rows[len(rows)-1].Pop2[1]
	if math.Abs(final-100) > 25 {
		t.Errorf("final Pop2 = %g, want near K=100", final)
	}
}

// TestScenarioS6ReplicateDeterminism mirrors spec scenario S6: identical
// seed and parameters yield bit-identical output.
func TestScenarioS6ReplicateDeterminism(t *testing.T) {
	cfg := baseConfig()
	cfg.U = 0.3
	cfg.R = 0.2
	cfg.Mig = 0.1
	cfg.Tr = 0.5
	cfg.HostNum = 2
	cfg.Pop2Init = []float64{0.5, 0.5}
	cfg.Pop1Init = []float64{0.5, 0.5}

	rowsA, err := Run(context.Background(), cfg, silentLogger())
	if err != nil {
		t.Fatal(err)
	}
	rowsB, err := Run(context.Background(), cfg, silentLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(rowsA) != len(rowsB) {
		t.Fatalf("row counts differ: %d vs %d", len(rowsA), len(rowsB))
	}
	for i := range rowsA {
		if !rowsEqual(rowsA[i], rowsB[i]) {
			t.Fatalf("row %d differs between identical-seed runs:\n%+v\n%+v", i, rowsA[i], rowsB[i])
		}
	}
}

func rowsEqual(a, b recorder.Row) bool {
	if a.Rep != b.Rep || a.Gen != b.Gen {
		return false
	}
	return floatSliceEqual(a.Pop1, b.Pop1) && floatSliceEqual(a.Pop2, b.Pop2) &&
		floatSliceEqual(a.K1, b.K1) && floatSliceEqual(a.K2, b.K2)
}

func floatSliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConfigValidateRejectsMismatchedInit(t *testing.T) {
	cfg := baseConfig()
	cfg.Pop2Init = []float64{1, 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for mismatched pop2init length")
	}
}

func TestUntilextTerminatesEarly(t *testing.T) {
	cfg := baseConfig()
	cfg.N0 = 0
	cfg.Untilext = 1
	cfg.GenNum = 50
	rows, err := Run(context.Background(), cfg, silentLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1 (immediate extinction)", len(rows))
	}
}
