package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/annuaire/internal/config"
	"github.com/agenthands/annuaire/internal/seed"
	"github.com/agenthands/annuaire/internal/store"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a legacy CSV export straight into the database",
		Long: "Load a legacy CSV export straight into the database named by DATABASE_URL\n" +
			"(or the [database] section of the config file). Columns use the French headers.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := opts.parseKind()
			if err != nil {
				return err
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("no database configured, set DATABASE_URL")
			}
			log := opts.logger()

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			pg, err := store.Open(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			n, err := seed.Load(cmd.Context(), pg, kind, f, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d %s records.\n", n, kind)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
