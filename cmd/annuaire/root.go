package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agenthands/annuaire/internal/client"
	"github.com/agenthands/annuaire/internal/config"
	"github.com/agenthands/annuaire/internal/logging"
	"github.com/agenthands/annuaire/internal/record"
)

type rootOptions struct {
	api      string
	kind     string
	logLevel string
}

func (o *rootOptions) parseKind() (record.Kind, error) {
	return record.ParseKind(o.kind)
}

func (o *rootOptions) logger() *logrus.Logger {
	return logging.New(config.LogConfig{Level: o.logLevel, Format: "text"}, os.Stderr)
}

func (o *rootOptions) client(log logrus.FieldLogger) *client.Client {
	return client.New(o.api, client.WithLogger(log))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	defaultAPI := os.Getenv("ANNUAIRE_API")
	if defaultAPI == "" {
		defaultAPI = client.DefaultBaseURL
	}

	cmd := &cobra.Command{
		Use:           "annuaire",
		Short:         "Directory and event records: list, import and resolve duplicates",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.api, "api", defaultAPI, "API base URL (env ANNUAIRE_API)")
	cmd.PersistentFlags().StringVarP(&opts.kind, "kind", "k", "annuaire", "Record kind: annuaire or evenement")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	cmd.AddCommand(newListCmd(opts), newSubmitCmd(opts), newSeedCmd(opts))
	return cmd
}
