// Command virogen runs the metapopulation evolution engine end to end:
// parse the positional CLI contract, run the requested replicates, and
// write the resulting rows to a collision-avoiding CSV file under
// ./data/<destination>/ (spec §6).
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"virogen/internal/config"
	"virogen/internal/recorder"
	"virogen/internal/replicate"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// The positional contract (spec §6) is unchanged and remains primary;
	// a trailing 23rd argument is accepted as an optional TOML override
	// file path (SPEC_FULL.md §11's additive config-file loading path).
	positional := args
	var overridePath string
	if len(args) == config.NumPositionalArgs+1 {
		positional = args[:config.NumPositionalArgs]
		overridePath = args[config.NumPositionalArgs]
	}

	cfg, err := config.ParseArgs(positional)
	if err != nil {
		log.Error().Err(err).Msg("configuration error")
		return 1
	}

	if overridePath != "" {
		cfg, err = config.LoadOverrides(cfg, overridePath)
		if err != nil {
			log.Error().Err(err).Msg("config file error")
			return 1
		}
	}

	if err := config.SelfCheck(cfg); err != nil {
		log.Error().Err(err).Msg("startup self-check failed")
		return 1
	}

	log.Info().
		Str("destination", cfg.Destination).
		Int("rep", cfg.Run.Rep).
		Int("gen_num", cfg.Run.GenNum).
		Int("host_num", cfg.Run.HostNum).
		Msg("starting replicates")

	rows, err := replicate.Run(context.Background(), cfg.Run, log)
	if err != nil {
		log.Error().Err(err).Msg("simulation failed")
		return 1
	}

	path := recorder.ResolvePath(cfg.Destination, filenameParams(cfg))
	if err := recorder.WriteCSV(path, cfg.Run.HostNum, cfg.Run.Timestep, rows); err != nil {
		log.Error().Err(err).Msg("failed to write output")
		return 1
	}

	summary := summarize(rows, cfg.Run.GenNum)
	log.Info().
		Float64("extinction_gen_mean", summary.ExtinctionGenMean).
		Float64("final_load_mean", summary.FinalLoadMean).
		Float64("final_pop_mean", summary.FinalPopMean).
		Msg("replicate summary")

	log.Info().Str("path", path).Int("rows", len(rows)).Msg("done")
	return 0
}

// summarize picks each replicate's last row (the terminal state, whether
// reached by exhausting gen_num or by early extinction) and reduces them
// to the cross-replicate distributions spec §1 asks for.
func summarize(rows []recorder.Row, genNum int) recorder.Summary {
	last := make(map[int]recorder.Row)
	for _, row := range rows {
		if prev, ok := last[row.Rep]; !ok || row.Gen >= prev.Gen {
			last[row.Rep] = row
		}
	}
	finals := make([]recorder.Row, 0, len(last))
	for _, row := range last {
		finals = append(finals, row)
	}
	return recorder.Summarize(finals, genNum)
}

func filenameParams(cfg config.Config) recorder.FilenameParams {
	r := cfg.Run
	return recorder.FilenameParams{
		Rep: r.Rep, S: r.S, N0: r.N0, K: r.K, U: r.U, GenNum: r.GenNum,
		C: r.C, R: r.R, Seed: r.Seed, HostNum: r.HostNum, Kmax: r.Kmax,
		Tr: r.Tr, Mig: r.Mig, Mutcap: r.Mutcap,
		Timestep: r.Timestep, Krecord: r.Krecord, Untilext: r.Untilext,
	}
}

