package main

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/annuaire/internal/console"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every record of the selected kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := opts.parseKind()
			if err != nil {
				return err
			}
			c := opts.client(opts.logger())

			recs, err := c.List(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return console.PrintRecords(cmd.OutOrStdout(), kind, recs)
		},
	}
}
