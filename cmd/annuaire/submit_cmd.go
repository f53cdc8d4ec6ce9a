package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agenthands/annuaire/internal/client"
	"github.com/agenthands/annuaire/internal/console"
	"github.com/agenthands/annuaire/internal/record"
	"github.com/agenthands/annuaire/internal/workflow"
)

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var (
		text string
		url  string
		file string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Import records from text, a web page or a file, then resolve duplicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := opts.parseKind()
			if err != nil {
				return err
			}
			if text == "" && url == "" && file == "" {
				return fmt.Errorf("one of --text, --url or --file is required")
			}
			log := opts.logger()
			c := opts.client(log)
			out := cmd.OutOrStdout()

			in := client.Input{Text: text, URL: url}
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in.FileName, in.File = filepath.Base(file), f
			}

			outcome, err := c.Submit(cmd.Context(), kind, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %d inserted, %d with possible duplicates.\n",
				outcome.Message, len(outcome.Inserted), len(outcome.Duplicates))
			if !outcome.HasConflicts() {
				return nil
			}

			refresh := func(ctx context.Context, kind record.Kind) error {
				recs, err := c.List(ctx, kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s now holds %d records.\n", kind, len(recs))
				return nil
			}
			session := console.NewSession(cmd.InOrStdin(), out, c, refresh, log)
			phase, err := session.Resolve(cmd.Context(), kind, outcome.Duplicates)
			if err != nil {
				return err
			}
			if phase == workflow.Cancelled {
				return fmt.Errorf("duplicate resolution cancelled")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Free text to parse")
	cmd.Flags().StringVar(&url, "url", "", "Web page to scrape (takes precedence)")
	cmd.Flags().StringVar(&file, "file", "", "CSV, XLSX or text file to upload (takes precedence over --text)")
	return cmd
}
