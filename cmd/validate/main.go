// Command validate checks catalog integrity for every configured provider:
// stored records must re-parse to the same fields under the provider's
// grammar, and every parseable file on disk must be cataloged. With
// -check-files it also reports records whose file is gone from the dcom tree.
//
// Configuration comes from the same environment variables as obscatalog.
//
// Usage:
//
//	DCOM_ROOT=data/mock/dcom CATALOG_DIR=data/mock/catalog go run ./cmd/validate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/obs-catalog-service/internal/adapter/fs"
	"github.com/couchcryptid/obs-catalog-service/internal/adapter/store"
	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/config"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	checkFiles := flag.Bool("check-files", false, "fail on cataloged files missing from disk")
	maxErrors := flag.Int("max-errors", 20, "errors printed per failing phase")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	os.Exit(run(ctx, *checkFiles, *maxErrors))
}

func run(ctx context.Context, checkFiles bool, maxErrors int) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	ccs, stores, err := store.OpenAll(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer func() {
		for _, s := range stores {
			_ = s.Close()
		}
	}()

	fmt.Println("=== Observation Catalog Integrity Validation ===")
	fmt.Println()

	var phases []*phase
	for i, cc := range ccs {
		ps, n, err := validateProvider(ctx, cc, stores[i], checkFiles)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", cc.Provider, err)
			return 1
		}
		fmt.Printf("%s: %d records\n", cc.Provider, n)
		phases = append(phases, ps...)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrors {
				fmt.Printf("  ... and %d more\n", len(p.errors)-maxErrors)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("\033[31mValidation failed\033[0m")
		return 1
	}
	fmt.Println("\033[32mAll checks passed\033[0m")
	return 0
}

// validateProvider runs every phase for one catalog and returns the phases
// plus the number of stored records.
func validateProvider(ctx context.Context, cc domain.CatalogConfig, s catalog.Store, checkFiles bool) ([]*phase, int, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	onDisk, err := fs.Discover(cc.FilePatterns())
	if err != nil {
		return nil, 0, err
	}

	phases := []*phase{
		validateRecords(cc, recs),
		validateCoverage(cc, recs, onDisk),
	}
	if checkFiles {
		phases = append(phases, validateFilesExist(cc, recs))
	}
	return phases, len(recs), nil
}

// validateRecords re-parses each stored filename and compares the fields.
// Filesystem receipt times are not derivable from the name and are ignored.
func validateRecords(cc domain.CatalogConfig, recs []domain.Record) *phase {
	p := &phase{name: cc.Provider + ": records match grammar"}
	ignoreReceipt := cmpopts.IgnoreFields(domain.Record{}, "ReceiptTime")

	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			p.errorf("%v", err)
			continue
		}
		if rec.ObsTime.Location() != time.UTC {
			p.errorf("%s: obs_time %s is not UTC", rec.Filename, rec.ObsTime)
		}

		want, err := cc.Grammar.Parse(rec.Filename)
		var perr *domain.ParseError
		switch {
		case errors.As(err, &perr):
			p.errorf("%s: stored but does not parse: %s", rec.Filename, perr.Reason)
			continue
		case err != nil:
			p.errorf("%s: %v", rec.Filename, err)
			continue
		}

		opts := cmp.Options{cmpopts.EquateEmpty()}
		if cc.Grammar.Receipt != domain.ReceiptMarker {
			opts = append(opts, ignoreReceipt)
		}
		if diff := cmp.Diff(want, rec, opts...); diff != "" {
			p.errorf("%s: stored record differs from grammar (-want +got):\n%s", rec.Filename, diff)
		}
	}
	return p
}

// validateCoverage reports parseable files on disk that are not cataloged.
func validateCoverage(cc domain.CatalogConfig, recs []domain.Record, onDisk []string) *phase {
	p := &phase{name: cc.Provider + ": disk files cataloged"}
	stored := make(map[string]bool, len(recs))
	for _, rec := range recs {
		stored[rec.Filename] = true
	}
	for _, path := range onDisk {
		if stored[path] {
			continue
		}
		if _, err := cc.Grammar.Parse(path); err != nil {
			continue
		}
		p.errorf("%s: parseable but not cataloged", path)
	}
	return p
}

func validateFilesExist(cc domain.CatalogConfig, recs []domain.Record) *phase {
	p := &phase{name: cc.Provider + ": cataloged files exist"}
	for _, rec := range recs {
		if _, err := os.Stat(rec.Filename); err != nil {
			p.errorf("%s: %v", rec.Filename, err)
		}
	}
	return p
}
