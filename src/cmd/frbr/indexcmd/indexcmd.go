package indexcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/schema"
)

// New returns the index command which rebuilds the metadata indexes.
func New(cc *cmdctx.Context) *cobra.Command {
	var commit, push bool
	cmd := &cobra.Command{
		Use:          "index",
		Short:        "Rebuild metadata indexes (ISBN, titles)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cc.Store()
			if err != nil {
				return err
			}
			entries, err := st.ReadAll()
			if err != nil {
				return err
			}
			builders := []func(context.Context, []schema.Manifestation) (string, error){
				st.BuildISBNIndex,
				st.BuildTitleIndex,
			}
			var written []string
			for _, b := range builders {
				p, err := b(cmd.Context(), entries)
				if err != nil {
					return err
				}
				written = append(written, p)
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p); err != nil {
					return err
				}
			}
			if !commit {
				return nil
			}
			return cc.Snapshot(cmd.Context(), cmd.ErrOrStderr(), written, "index: rebuild metadata", push)
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the rebuilt indexes")
	cmd.Flags().BoolVar(&push, "push", false, "push after committing")
	return cmd
}
