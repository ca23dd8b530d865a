package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

type queryFlags struct {
	provider     string
	begin        string
	end          string
	cycle        string
	windowHours  float64
	instrument   string
	satellite    string
	obsType      string
	checkReceipt string
}

func newQueryCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the cataloged files valid for an assimilation window, one per line",
		Example: `  obscatalog query -p ghrsst --cycle 2025031612 --window-hours 3 --check-receipt gdas
  obscatalog query -p rads --begin 2025-03-16T09:00:00Z --end 2025-03-16T15:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			env, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer env.close()

			c, err := env.registry.Get(f.provider)
			if err != nil {
				return err
			}
			files, err := c.Query(ctx, req)
			if err != nil {
				return err
			}
			for _, file := range files {
				fmt.Fprintln(cmd.OutOrStdout(), file)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.provider, "provider", "p", "", "provider to query")
	fl.StringVar(&f.begin, "begin", "", "window begin (RFC 3339)")
	fl.StringVar(&f.end, "end", "", "window end (RFC 3339)")
	fl.StringVar(&f.cycle, "cycle", "", "cycle time YYYYMMDDHH; the window is cycle ± window-hours")
	fl.Float64Var(&f.windowHours, "window-hours", 3, "half-width of the cycle window in hours")
	fl.StringVar(&f.instrument, "instrument", "", "instrument filter")
	fl.StringVar(&f.satellite, "satellite", "", "satellite filter")
	fl.StringVar(&f.obsType, "obs-type", "", "obs_type filter")
	fl.StringVar(&f.checkReceipt, "check-receipt", "none", "receipt emulation: none, gdas or gfs")
	_ = cmd.MarkFlagRequired("provider")
	cmd.MarkFlagsMutuallyExclusive("cycle", "begin")
	cmd.MarkFlagsMutuallyExclusive("cycle", "end")
	cmd.MarkFlagsRequiredTogether("begin", "end")
	cmd.MarkFlagsOneRequired("cycle", "begin")
	return cmd
}

func (f queryFlags) request() (catalog.QueryRequest, error) {
	mode, err := domain.ParseReceiptMode(f.checkReceipt)
	if err != nil {
		return catalog.QueryRequest{}, err
	}
	req := catalog.QueryRequest{
		Instrument:   f.instrument,
		Satellite:    f.satellite,
		ObsType:      f.obsType,
		CheckReceipt: mode,
	}

	if f.cycle != "" {
		halfWidth, err := domain.WindowHalfWidth(f.windowHours)
		if err != nil {
			return req, fmt.Errorf("--window-hours: %w", err)
		}
		cycle, err := domain.ParseCycle(f.cycle)
		if err != nil {
			return req, err
		}
		req.WindowBegin, req.WindowEnd = domain.CycleWindow(cycle, halfWidth)
		return req, nil
	}

	if req.WindowBegin, err = time.Parse(time.RFC3339, f.begin); err != nil {
		return req, fmt.Errorf("--begin: %w", err)
	}
	if req.WindowEnd, err = time.Parse(time.RFC3339, f.end); err != nil {
		return req, fmt.Errorf("--end: %w", err)
	}
	req.WindowBegin, req.WindowEnd = req.WindowBegin.UTC(), req.WindowEnd.UTC()
	return req, nil
}
