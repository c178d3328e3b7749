package lookupcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/openlibrary"
)

// New returns the lookup command which drafts a record from an ISBN.
func New(cc *cmdctx.Context) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:          "lookup <isbn>",
		Short:        "Draft a manifestation from Open Library (Google Books fallback)",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := openlibrary.FetchByISBN(ctx, args[0])
			if err != nil {
				return err
			}
			rec := cmdctx.Record{Manifestation: d.Manifestation, Creators: d.Creators, Publishers: d.Publishers}
			if !save {
				return cmdctx.EncodeYAML(cmd.OutOrStdout(), rec)
			}
			svc, err := cc.Service(ctx)
			if err != nil {
				return err
			}
			m, err := cmdctx.SaveRecord(ctx, svc, rec)
			if err != nil {
				return err
			}
			rec.Manifestation = m
			if err := cmdctx.EncodeYAML(cmd.OutOrStdout(), rec); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "saved %s (source %s)\n", m.ID, d.Source)
			return err
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save the draft and its agents to the catalog")
	return cmd
}
