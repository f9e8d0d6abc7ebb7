package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FilenameParams carries the scalar run parameters the output filename must
// embed (spec §6: "filename pattern embeds all scalar parameters").
type FilenameParams struct {
	Rep      int
	S        float64
	N0       float64
	K        float64
	U        float64
	GenNum   int
	C        float64
	R        float64
	Seed     int64
	HostNum  int
	Kmax     int
	Tr       float64
	Mig      float64
	Mutcap   int
	Timestep int
	Krecord  int
	Untilext int
}

func g(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func baseFilename(p FilenameParams) string {
	return fmt.Sprintf(
		"rep%d_s%s_N0%s_K%s_u%s_gen%d_c%s_r%s_seed%d_host%d_kmax%d_tr%s_mig%s_mutcap%d_ts%d_kr%d_ue%d",
		p.Rep, g(p.S), g(p.N0), g(p.K), g(p.U), p.GenNum, g(p.C), g(p.R), p.Seed,
		p.HostNum, p.Kmax, g(p.Tr), g(p.Mig), p.Mutcap, p.Timestep, p.Krecord, p.Untilext,
	)
}

// ResolvePath picks a non-clobbering path under ./data/<destination>/ for
// the given parameters, appending a disambiguating "(n)" suffix the first
// time the bare name collides with an existing file.
func ResolvePath(destination string, p FilenameParams) string {
	dir := filepath.Join("data", destination)
	base := baseFilename(p)
	path := filepath.Join(dir, base+".csv")
	for n := 1; fileExists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s(%d).csv", base, n))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Header returns the CSV header for the given host count and timestep
// mode, per spec §6's two layouts.
func Header(hosts, timestep int) []string {
	var h []string
	if timestep == 1 {
		h = append(h, "rep", "gen")
	} else {
		h = append(h, "rep")
	}
	for idx := 0; idx <= hosts; idx++ {
		h = append(h,
			fmt.Sprintf("pop1.%d", idx),
			fmt.Sprintf("pop2.%d", idx),
			fmt.Sprintf("k1.%d", idx),
			fmt.Sprintf("k2.%d", idx),
		)
	}
	return h
}

// WriteCSV creates the output file (making its parent directory as needed)
// and writes the header plus one row per entry in rows, in order - the
// "replicate's rows remain contiguous" ordering guarantee of spec §5.
func WriteCSV(path string, hosts, timestep int, rows []Row) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("recorder: create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recorder: create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(Header(hosts, timestep)); err != nil {
		return fmt.Errorf("recorder: write header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, 0, 2+4*(hosts+1))
		record = append(record, strconv.Itoa(row.Rep))
		if timestep == 1 {
			record = append(record, strconv.Itoa(row.Gen))
		}
		for idx := 0; idx <= hosts; idx++ {
			record = append(record,
				truncated(row.Pop1[idx]),
				truncated(row.Pop2[idx]),
				truncated(row.K1[idx]),
				truncated(row.K2[idx]),
			)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("recorder: write row: %w", err)
		}
	}
	return w.Error()
}

// truncated formats a value with four decimal places; strconv's 'f'
// formatting rounds at the fifth place rather than cutting it off.
func truncated(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
