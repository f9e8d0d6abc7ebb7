// Package config parses the engine's command-line contract: a strictly
// positional, fixed-order argument list (spec §6), not the teacher's
// flag-based CLI - the reference tool's interface is part of the
// specification and is reproduced verbatim rather than generalized.
// An optional TOML file can override the parsed defaults for scripted
// parameter sweeps, grounded on the TOML-config-file idiom the retrieval
// pack's single-host simulator uses.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"virogen/internal/replicate"
	"virogen/internal/rng"
)

// argOrder names the 22 positional CLI arguments in the exact order spec
// §6 lists them, used only for error messages.
var argOrder = []string{
	"destination", "timestep", "krecord", "untilext", "rep",
	"s", "N0", "K", "u", "gen_num", "c", "r", "seed",
	"host_num", "kmax", "pop2init_str", "pop2init_len",
	"pop1init_str", "pop1init_len", "tr", "mig", "mutcap",
}

// NumPositionalArgs is the length of the fixed positional argument list
// ParseArgs requires, exported so cmd/virogen can recognize the optional
// trailing config-file argument (spec.md §6's contract plus SPEC_FULL.md
// §11's additive file-loader path) without hard-coding the count twice.
const NumPositionalArgs = len(argOrder)

// Config is the fully parsed, validated run configuration: the CLI's
// Destination plus the replicate.Config the engine actually consumes.
type Config struct {
	Destination string
	Run         replicate.Config
}

// ParseArgs parses the fixed-order positional argument list (normally
// os.Args[1:]) into a Config.
func ParseArgs(args []string) (Config, error) {
	if len(args) != len(argOrder) {
		return Config{}, fmt.Errorf("config: expected %d positional arguments (%s), got %d",
			len(argOrder), strings.Join(argOrder, ", "), len(args))
	}

	destination := args[0]
	timestep, err := parseInt("timestep", args[1])
	if err != nil {
		return Config{}, err
	}
	krecord, err := parseInt("krecord", args[2])
	if err != nil {
		return Config{}, err
	}
	untilext, err := parseInt("untilext", args[3])
	if err != nil {
		return Config{}, err
	}
	rep, err := parseInt("rep", args[4])
	if err != nil {
		return Config{}, err
	}
	s, err := parseFloat("s", args[5])
	if err != nil {
		return Config{}, err
	}
	n0, err := parseFloat("N0", args[6])
	if err != nil {
		return Config{}, err
	}
	k, err := parseFloat("K", args[7])
	if err != nil {
		return Config{}, err
	}
	u, err := parseFloat("u", args[8])
	if err != nil {
		return Config{}, err
	}
	genNum, err := parseInt("gen_num", args[9])
	if err != nil {
		return Config{}, err
	}
	c, err := parseFloat("c", args[10])
	if err != nil {
		return Config{}, err
	}
	r, err := parseFloat("r", args[11])
	if err != nil {
		return Config{}, err
	}
	seed, err := parseInt64("seed", args[12])
	if err != nil {
		return Config{}, err
	}
	hostNum, err := parseInt("host_num", args[13])
	if err != nil {
		return Config{}, err
	}
	kmax, err := parseInt("kmax", args[14])
	if err != nil {
		return Config{}, err
	}
	pop2Str := args[15]
	pop2Len, err := parseInt("pop2init_len", args[16])
	if err != nil {
		return Config{}, err
	}
	pop1Str := args[17]
	pop1Len, err := parseInt("pop1init_len", args[18])
	if err != nil {
		return Config{}, err
	}
	tr, err := parseFloat("tr", args[19])
	if err != nil {
		return Config{}, err
	}
	mig, err := parseFloat("mig", args[20])
	if err != nil {
		return Config{}, err
	}
	mutcap, err := parseInt("mutcap", args[21])
	if err != nil {
		return Config{}, err
	}

	pop2init, err := parseInitList("pop2init_str", pop2Str, pop2Len, hostNum)
	if err != nil {
		return Config{}, err
	}
	pop1init, err := parseInitList("pop1init_str", pop1Str, pop1Len, hostNum)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Destination: destination,
		Run: replicate.Config{
			Rep: rep, GenNum: genNum, Timestep: timestep, Krecord: krecord, Untilext: untilext,
			HostNum: hostNum, Kmax: kmax, Mutcap: mutcap,
			N0: n0, K: k, U: u, S: s, C: c, R: r, Mig: mig, Tr: tr,
			Seed: seed, Pop2Init: pop2init, Pop1Init: pop1init,
		},
	}
	if err := cfg.Run.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseInitList parses a '~'-terminated list of per-host proportions,
// checking the declared character length against the string's actual
// length before trusting its contents (spec §6, §7's mismatched-length
// configuration error).
func parseInitList(name, raw string, declaredLen, hostNum int) ([]float64, error) {
	if len(raw) != declaredLen {
		return nil, fmt.Errorf("config: %s has length %d, %s_len says %d", name, len(raw), name, declaredLen)
	}
	trimmed := strings.TrimSuffix(raw, "~")
	if trimmed == "" {
		return nil, fmt.Errorf("config: %s is empty", name)
	}
	parts := strings.Split(trimmed, "~")
	if len(parts) != hostNum {
		return nil, fmt.Errorf("config: %s has %d proportions, want host_num=%d", name, len(parts), hostNum)
	}
	out := make([]float64, hostNum)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("config: %s entry %d (%q): %w", name, i, p, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseInt(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return v, nil
}

func parseInt64(name, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return v, nil
}

func parseFloat(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return v, nil
}

// FileOverrides is the optional TOML sidecar schema for scripted parameter
// sweeps; any field absent from the file is left untouched (a field the file
// sets, even to zero, is applied), so a file only needs to set the
// parameters a sweep actually varies.
type FileOverrides struct {
	S       *float64 `toml:"s"`
	N0      *float64 `toml:"N0"`
	K       *float64 `toml:"K"`
	U       *float64 `toml:"u"`
	C       *float64 `toml:"c"`
	R       *float64 `toml:"r"`
	Tr      *float64 `toml:"tr"`
	Mig     *float64 `toml:"mig"`
	Seed    *int64   `toml:"seed"`
	GenNum  *int     `toml:"gen_num"`
	Rep     *int     `toml:"rep"`
	LogFreq *int     `toml:"log_freq"`
}

// LoadOverrides reads a TOML file of optional parameter overrides and
// applies the ones present onto cfg, returning the merged result.
func LoadOverrides(cfg Config, path string) (Config, error) {
	var f FileOverrides
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return Config{}, fmt.Errorf("config: decode override file %s: %w", path, err)
	}
	if f.S != nil {
		cfg.Run.S = *f.S
	}
	if f.N0 != nil {
		cfg.Run.N0 = *f.N0
	}
	if f.K != nil {
		cfg.Run.K = *f.K
	}
	if f.U != nil {
		cfg.Run.U = *f.U
	}
	if f.C != nil {
		cfg.Run.C = *f.C
	}
	if f.R != nil {
		cfg.Run.R = *f.R
	}
	if f.Tr != nil {
		cfg.Run.Tr = *f.Tr
	}
	if f.Mig != nil {
		cfg.Run.Mig = *f.Mig
	}
	if f.Seed != nil {
		cfg.Run.Seed = *f.Seed
	}
	if f.GenNum != nil {
		cfg.Run.GenNum = *f.GenNum
	}
	if f.Rep != nil {
		cfg.Run.Rep = *f.Rep
	}
	if f.LogFreq != nil {
		cfg.Run.LogFreq = *f.LogFreq
	}
	if err := cfg.Run.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SelfCheck cross-validates the engine's Poisson sampler against the
// reference randomvariate implementation at startup, catching a gross
// misconfiguration (an absurd lambda from a malformed N0, which is used as
// the check's lambda) before any
// replicate work begins. It is deliberately run once, single-threaded, at
// startup - see internal/rng.SelfCheckPoisson for why it cannot run on the
// hot path.
func SelfCheck(cfg Config) error {
	lambda := cfg.Run.N0
	if lambda <= 0 {
		return nil
	}
	mean, variance, err := rng.SelfCheckPoisson(lambda, 2000)
	if err != nil {
		return fmt.Errorf("config: self-check: %w", err)
	}
	// A Poisson distribution has mean == variance; allow generous slack
	// since this is a finite-sample empirical check, not an exact test.
	if diff := mean - lambda; diff > lambda*0.2+5 || diff < -(lambda*0.2+5) {
		return fmt.Errorf("config: self-check: empirical Poisson mean %.3f far from lambda %.3f (variance %.3f)", mean, lambda, variance)
	}
	return nil
}
