package exportcmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/ordering"
	"catalog/src/internal/store"
)

// New returns the export command which writes every manifestation as BibTeX.
func New(cc *cmdctx.Context) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Export all manifestations to BibTeX (stdout unless --output)",
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
			cat, err := cc.Relations(cmd.Context())
			if err != nil {
				return err
			}
			creators := cat.Relation(ordering.Creator)
			names := func(id string) []string {
				var heads []string
				for _, ms := range creators.Members(id) {
					heads = append(heads, ms.Member)
				}
				return heads
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := store.ExportBibTeX(w, entries, names); err != nil {
				return err
			}
			if out == "" {
				return nil
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d entries)\n", out, len(entries))
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output .bib file")
	return cmd
}
