package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

func newIngestCmd() *cobra.Command {
	var providers []string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass and print the scan reports as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			env, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer env.close()

			if len(providers) == 0 {
				providers = env.registry.Providers()
			}
			reports := make([]domain.ScanReport, 0, len(providers))
			for _, name := range providers {
				c, err := env.registry.Get(name)
				if err != nil {
					return err
				}
				report, err := c.Ingest(ctx)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}
	cmd.Flags().StringSliceVarP(&providers, "provider", "p", nil, "providers to ingest (default: all configured)")
	return cmd
}
