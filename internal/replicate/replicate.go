// Package replicate is the generation/replicate driver: it sequences the
// four stage kernels, manages buffer cursors implicitly through
// population.Tensor, applies the extinction check, and fans independent
// replicates out across worker goroutines. Each replicate owns its own
// tensor and rng.Source (spec §5: "no mutable state shared" across
// replicates), so results are identical regardless of how many workers run
// them - only the goroutine scheduling, not the output, is concurrent.
package replicate

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"virogen/internal/engine"
	"virogen/internal/population"
	"virogen/internal/recorder"
	"virogen/internal/rng"
	"virogen/internal/tables"
)

// Config holds every parameter a replicate needs, independent of how it is
// reported (recorder.FilenameParams) or parsed (internal/config).
type Config struct {
	Rep      int
	GenNum   int
	Timestep int
	Krecord  int
	Untilext int

	HostNum int
	Kmax    int
	Mutcap  int

	N0  float64
	K   float64
	U   float64
	S   float64
	C   float64
	R   float64
	Mig float64
	Tr  float64

	Seed int64

	Pop2Init []float64
	Pop1Init []float64

	// LogFreq is the generation cadence for the zerolog progress logger:
	// a progress line is emitted every LogFreq generations within a
	// replicate's run, and once all replicates finish Run emits a
	// "replicate complete" line for every LogFreq-th replicate and the
	// last one. It never affects
	// the CSV contract (spec §6) - it is consumed only by logging,
	// mirroring SIRSimulation's logFreq field. <= 0 selects
	// DefaultLogFreq.
	LogFreq int
}

// DefaultLogFreq is used whenever Config.LogFreq is left at its zero value.
const DefaultLogFreq = 10

// Validate rejects configuration errors before the generation loop starts
// (spec §7).
func (c Config) Validate() error {
	if c.Rep < 1 {
		return fmt.Errorf("replicate: rep must be >= 1, got %d", c.Rep)
	}
	if c.GenNum < 1 {
		return fmt.Errorf("replicate: gen_num must be >= 1, got %d", c.GenNum)
	}
	if c.Timestep != 0 && c.Timestep != 1 {
		return fmt.Errorf("replicate: timestep must be 0 or 1, got %d", c.Timestep)
	}
	if c.Krecord != 0 && c.Krecord != 1 {
		return fmt.Errorf("replicate: krecord must be 0 or 1, got %d", c.Krecord)
	}
	if c.Untilext != 0 && c.Untilext != 1 {
		return fmt.Errorf("replicate: untilext must be 0 or 1, got %d", c.Untilext)
	}
	if c.HostNum < 1 {
		return fmt.Errorf("replicate: host_num must be >= 1, got %d", c.HostNum)
	}
	if c.Kmax < 1 {
		return fmt.Errorf("replicate: kmax must be >= 1, got %d", c.Kmax)
	}
	if c.Mutcap < 0 {
		return fmt.Errorf("replicate: mutcap must be >= 0, got %d", c.Mutcap)
	}
	if c.N0 < 0 {
		return fmt.Errorf("replicate: N0 must be >= 0, got %g", c.N0)
	}
	if len(c.Pop2Init) != c.HostNum {
		return fmt.Errorf("replicate: pop2init has %d entries, want host_num=%d", len(c.Pop2Init), c.HostNum)
	}
	if len(c.Pop1Init) != c.HostNum {
		return fmt.Errorf("replicate: pop1init has %d entries, want host_num=%d", len(c.Pop1Init), c.HostNum)
	}
	if c.LogFreq < 0 {
		return fmt.Errorf("replicate: log_freq must be >= 0, got %d", c.LogFreq)
	}
	return engine.Params{S: c.S, C: c.C, R: c.R, Mig: c.Mig, Tr: c.Tr, K: c.K}.Validate()
}

// Run executes all Rep replicates, parallelised across worker goroutines,
// and returns every replicate's rows concatenated in replicate order
// (contiguous per replicate, per spec §5's ordering guarantee).
func Run(ctx context.Context, cfg Config, log zerolog.Logger) ([]recorder.Row, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tb, err := tables.New(cfg.U, cfg.Kmax, cfg.Mutcap)
	if err != nil {
		return nil, err
	}
	params := engine.Params{S: cfg.S, C: cfg.C, R: cfg.R, Mig: cfg.Mig, Tr: cfg.Tr, K: cfg.K}

	logFreq := cfg.LogFreq
	if logFreq <= 0 {
		logFreq = DefaultLogFreq
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > cfg.Rep {
		workers = cfg.Rep
	}
	if workers < 1 {
		workers = 1
	}

	results := make([][]recorder.Row, cfg.Rep)
	errs := make([]error, cfg.Rep)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for repIdx := range jobs {
				if ctx.Err() != nil {
					errs[repIdx] = ctx.Err()
					continue
				}
				rows, err := runOne(cfg, tb, params, repIdx, log, logFreq)
				if err != nil {
					errs[repIdx] = err
					continue
				}
				results[repIdx] = rows
			}
		}()
	}
	for i := 0; i < cfg.Rep; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("replicate %d: %w", i, err)
		}
	}

	total := 0
	for _, rows := range results {
		total += len(rows)
	}
	out := make([]recorder.Row, 0, total)
	for i, rows := range results {
		out = append(out, rows...)
		if (i+1)%logFreq == 0 || i == len(results)-1 {
			log.Debug().Int("rep", i).Int("rows", len(rows)).Msg("replicate complete")
		}
	}
	return out, nil
}

// runOne runs a single replicate for gen_num generations, stopping early at
// extinction only when untilext is 1, and returns its recorded rows. Each replicate gets a PRNG seeded
// deterministically from (cfg.Seed, repIdx) so the result is independent of
// goroutine scheduling (spec property/scenario S6). It emits a zerolog
// progress line every logFreq generations.
func runOne(cfg Config, tb *tables.Tables, params engine.Params, repIdx int, log zerolog.Logger, logFreq int) ([]recorder.Row, error) {
	tensor, err := population.New(cfg.HostNum, cfg.Kmax)
	if err != nil {
		return nil, err
	}
	if err := tensor.Reset(cfg.N0, cfg.Pop2Init, cfg.Pop1Init); err != nil {
		return nil, err
	}
	src := rng.New(cfg.Seed + int64(repIdx))

	var rows []recorder.Row
	lastGen := 0
	for gen := 0; gen < cfg.GenNum; gen++ {
		engine.Mutate(tensor, tb)
		engine.Reassort(tensor, params.R)
		engine.Reproduce(tensor, src, params)
		engine.Migrate(tensor, src, params)
		lastGen = gen

		if (gen+1)%logFreq == 0 {
			log.Debug().Int("rep", repIdx).Int("gen", gen).Float64("N", tensor.N[0]).Msg("progress")
		}

		if cfg.Timestep == 1 {
			row, err := recorder.Record(tensor, repIdx, gen, cfg.Krecord)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}

		if cfg.Untilext == 1 && tensor.Extinct() {
			break
		}
	}

	if cfg.Timestep == 0 {
		row, err := recorder.Record(tensor, repIdx, lastGen, cfg.Krecord)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
