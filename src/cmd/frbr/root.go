package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/addcmd"
	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/cmd/frbr/configcmd"
	"catalog/src/cmd/frbr/datecmd"
	"catalog/src/cmd/frbr/exportcmd"
	"catalog/src/cmd/frbr/identcmd"
	"catalog/src/cmd/frbr/indexcmd"
	"catalog/src/cmd/frbr/lookupcmd"
	"catalog/src/cmd/frbr/nextcmd"
	"catalog/src/cmd/frbr/relatecmd"
	"catalog/src/cmd/frbr/searchcmd"
)

func newRootCommand() (*cobra.Command, *cmdctx.Context) {
	var configFlag, metricsFlag string
	cc := cmdctx.New(&configFlag, &metricsFlag)

	rootCmd := &cobra.Command{
		Use:           "frbr",
		Short:         "FRBR bibliographic catalog CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "configuration file path (default ./catalog.toml)")
	rootCmd.PersistentFlags().StringVar(&metricsFlag, "metrics-file", "", "write catalog counters to this Prometheus textfile on exit")

	identCmd := &cobra.Command{
		Use:   "ident",
		Short: "Validate and normalize ISBN, ISSN and LCCN identifiers",
	}
	identCmd.AddCommand(identcmd.NewISBN(), identcmd.NewISSN(), identcmd.NewLCCN())

	rootCmd.AddCommand(
		addcmd.New(cc),
		lookupcmd.New(cc),
		searchcmd.New(cc),
		indexcmd.New(cc),
		exportcmd.New(cc),
		relatecmd.New(cc),
		datecmd.New(cc),
		nextcmd.New(),
		identCmd,
		configcmd.New(cc),
	)
	return rootCmd, cc
}

// execute runs one invocation and releases the shared context.
func execute(ctx context.Context, args []string) error {
	cmd, cc := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, cc.Close())
}
