package searchcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/schema"
	"catalog/src/internal/store"
)

// New returns the search command for title words and ISBN lookups.
func New(cc *cmdctx.Context) *cobra.Command {
	var isbn string
	cmd := &cobra.Command{
		Use:          "search [word]...",
		Short:        "Find manifestations whose titles contain every word, or by --isbn",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && strings.TrimSpace(isbn) == "" {
				return fmt.Errorf("provide title words or --isbn")
			}
			st, err := cc.Store()
			if err != nil {
				return err
			}
			entries, err := st.ReadAll()
			if err != nil {
				return err
			}
			if isbn != "" {
				entries = store.FindByISBN(entries, isbn)
			}
			entries = store.FilterByTitleAND(entries, args)
			if len(entries) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no matches")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render(entries))
			return err
		},
	}
	cmd.Flags().StringVar(&isbn, "isbn", "", "match either ISBN form")
	return cmd
}

func render(entries []schema.Manifestation) string {
	rows := make([][]string, 0, len(entries))
	for _, m := range entries {
		published := ""
		if m.DateOfPublication != nil {
			published = m.DateOfPublication.Format("2006-01-02")
		}
		rows = append(rows, []string{m.ID, m.OriginalTitle, m.ISBN, published})
	}
	return cmdctx.RenderTable(
		[]string{"ID", "Title", "ISBN", "Published"},
		rows,
		[]cmdctx.Alignment{cmdctx.AlignLeft, cmdctx.AlignLeft, cmdctx.AlignLeft, cmdctx.AlignRight},
	)
}
