package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/obs-catalog-service/internal/adapter/postgres"
	"github.com/couchcryptid/obs-catalog-service/internal/config"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the configured providers with their directory and file patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ccs, err := cfg.CatalogConfigs()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tLAYOUT\tBASE DIRS\tPATTERNS\tSTORE")
			for _, cc := range ccs {
				store := cc.StoreLocation
				if cfg.StoreBackend == config.BackendPostgres {
					store = "postgres:" + postgres.TableName(cc.Provider)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					cc.Provider,
					cc.Grammar.Layout,
					strings.Join(cc.BaseDirs, ","),
					strings.Join(cc.Grammar.FilePatterns, ","),
					store,
				)
			}
			return tw.Flush()
		},
	}
}
