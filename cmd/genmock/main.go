// Command genmock writes a mock dcom tree holding valid and invalid
// observation filenames for every built-in provider. The tree exercises the
// ingestion scanner and the windowed queries without access to real data.
//
// Usage:
//
//	go run ./cmd/genmock -root data/mock/dcom -cycle 2025031612 -files 6
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// nameFunc renders a valid filename for an observation starting at t.
type nameFunc func(t time.Time, i int) string

func swath(product, version, sat string, t time.Time) string {
	const marker = "20060102150405"
	return fmt.Sprintf("%s_%s_%s_s%s0_e%s0_c%s0.nc", product, version, sat,
		t.Format(marker), t.Add(90*time.Second).Format(marker), t.Add(45*time.Minute).Format(marker))
}

var generators = map[string]nameFunc{
	domain.ProviderGHRSST: func(t time.Time, i int) string {
		sats := []string{"AVHRRF_MB", "VIIRS_N20", "AVHRRF_MC"}
		return fmt.Sprintf("%s-OSPO-L3U_GHRSST-SSTsubskin-%s-ACSPO_V2.80-v02.0-fv01.0.nc", t.Format("20060102150405"), sats[i%len(sats)])
	},
	domain.ProviderRADS: func(t time.Time, i int) string {
		sats := []string{"j3", "3a", "c2"}
		return fmt.Sprintf("rads_adt_%s_%04d%03d.nc", sats[i%len(sats)], t.Year(), t.YearDay())
	},
	domain.ProviderNesdisAMSR2: func(t time.Time, i int) string {
		hemi := []string{"NH", "SH"}[i%2]
		return swath("AMSR2-SEAICE-"+hemi, "v2r2", "GW1", t)
	},
	domain.ProviderNesdisMiRS: func(t time.Time, i int) string {
		sats := []string{"n20", "n21", "npp", "ma1", "gpm"}
		return swath("NPR-MIRS-IMG", "v11r9", sats[i%len(sats)], t)
	},
	domain.ProviderNesdisJPSSRR: func(t time.Time, i int) string {
		return swath("JRR-IceConcentration", "v3r3", []string{"j01", "npp"}[i%2], t)
	},
	domain.ProviderJRRAOD: func(t time.Time, i int) string {
		return swath("JRR-AOD", "v3r2", []string{"n21", "n20"}[i%2], t)
	},
	domain.ProviderSMAP: func(t time.Time, i int) string {
		return fmt.Sprintf("SMAP_L2B_SSS_NRT_%05d_%s_%s.h5", 54000+i, []string{"A", "D"}[i%2], t.Format("20060102T150405"))
	},
	domain.ProviderSMOS: func(t time.Time, i int) string {
		return fmt.Sprintf("SM_OPER_MIR_OSUDP2_%s_%s_700_001_1.nc", t.Format("20060102T150405"), t.Add(50*time.Minute).Format("20060102T150405"))
	},
}

// invalid names are matched by the provider's glob but rejected by its grammar.
var invalid = map[string][]string{
	domain.ProviderGHRSST:       {"20250316_invalid-OSPO-L3U_GHRSST-x.nc"},
	domain.ProviderRADS:         {"rads_adt_j3_2025400.nc"},
	domain.ProviderNesdisAMSR2:  {"AMSR2-SEAICE-EQ_v2r2_GW1_invalid.nc", "readme.nc"},
	domain.ProviderNesdisMiRS:   {"NPR-MIRS-IMG_v11r9_xx9_s202503161200000_e202503161201000_c202503161230000.nc"},
	domain.ProviderNesdisJPSSRR: {"JRR-IceConcentration_v3r3_j01_invalid.nc"},
	domain.ProviderJRRAOD:       {"JRR-AOD_v3r2_n21_s202503161200000.nc"},
	domain.ProviderSMAP:         {"SMAP_L2B_SSS_NRT_54047_A.h5"},
	domain.ProviderSMOS:         {"SM_OPER_MIR_OSUDP2_invalid.nc"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	root := flag.String("root", "", "dcom root to populate")
	cycleFlag := flag.String("cycle", "", "cycle YYYYMMDDHH the files straddle (default: the last synoptic hour)")
	perProvider := flag.Int("files", 6, "valid files per provider and obs dir")
	spread := flag.Duration("spread", 6*time.Hour, "observation times span cycle ± spread/2")
	flag.Parse()

	if *root == "" || *perProvider < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -root")
	}

	cycle, err := resolveCycle(*cycleFlag, clockwork.NewRealClock())
	if err != nil {
		return err
	}

	total := 0
	for _, provider := range domain.ProviderNames() {
		cc, err := domain.NewCatalogConfig(provider, *root, nil, "")
		if err != nil {
			return err
		}
		n, err := writeProvider(cc, cycle, *perProvider, *spread)
		if err != nil {
			return fmt.Errorf("provider %s: %w", provider, err)
		}
		log.Printf("%s: %d files", provider, n)
		total += n
	}
	log.Printf("total: %d files under %s for cycle %s", total, *root, cycle.Format("2006010215"))
	return nil
}

// resolveCycle parses the -cycle flag or falls back to the most recent
// 00/06/12/18 UTC cycle.
func resolveCycle(s string, clock clockwork.Clock) (time.Time, error) {
	if s != "" {
		return domain.ParseCycle(s)
	}
	now := clock.Now().UTC()
	return now.Truncate(6 * time.Hour), nil
}

// writeProvider writes up to n valid names plus the invalid names into every base
// directory of cc. Dated directories follow each observation's day.
func writeProvider(cc domain.CatalogConfig, cycle time.Time, n int, spread time.Duration) (int, error) {
	gen := generators[cc.Provider]
	step := spread / time.Duration(n)
	start := cycle.Add(-spread / 2)

	written := 0
	for _, baseDir := range cc.BaseDirs {
		seen := make(map[string]bool, n)
		for i := range n {
			obs := start.Add(time.Duration(i) * step)
			dir, name := datedDir(baseDir, obs), gen(obs, i)
			// Daily products repeat names within a day.
			if seen[dir+name] {
				continue
			}
			seen[dir+name] = true
			if err := touch(dir, name, obs); err != nil {
				return written, err
			}
			written++
		}
		for _, name := range invalid[cc.Provider] {
			if err := touch(datedDir(baseDir, cycle), name, cycle); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// datedDir substitutes the YYYYMMDD directory into a <root>/*/<obsDir> pattern.
func datedDir(pattern string, t time.Time) string {
	root, obsDir := filepath.Dir(pattern), ""
	for filepath.Base(root) != "*" {
		obsDir = filepath.Join(filepath.Base(root), obsDir)
		root = filepath.Dir(root)
	}
	obsDir = filepath.Join(obsDir, filepath.Base(pattern))
	return filepath.Join(filepath.Dir(root), t.Format("20060102"), obsDir)
}

func touch(dir, name string, mtime time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return err
	}
	return os.Chtimes(path, mtime, mtime)
}
