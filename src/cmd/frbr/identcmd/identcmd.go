package identcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/identifier"
)

// ErrInvalid is returned after printing when any argument fails validation,
// so scripts can rely on the exit status.
var ErrInvalid = errors.New("one or more identifiers are invalid")

// NewISBN returns the isbn command: validate and convert ISBN-10/13.
func NewISBN() *cobra.Command {
	return &cobra.Command{
		Use:          "isbn <isbn>...",
		Short:        "Validate ISBNs and show both forms",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			bad := false
			for _, raw := range args {
				id := identifier.ValidateISBN(raw)
				row := []string{raw, id.Kind.String(), validText(id.Valid)}
				if pair, ok := identifier.CanonicalizeISBN(raw); ok {
					row = append(row, pair.ISBN13, pair.ISBN10, identifier.Hyphenate(pair.ISBN13))
				} else {
					bad = true
				}
				rows = append(rows, row)
			}
			return render(cmd, []string{"Input", "Kind", "Valid", "ISBN-13", "ISBN-10", "Hyphenated"}, rows, bad)
		},
	}
}

// NewISSN returns the issn command.
func NewISSN() *cobra.Command {
	return &cobra.Command{
		Use:          "issn <issn>...",
		Short:        "Validate ISSNs",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderParsed(cmd, args, identifier.ParseISSN)
		},
	}
}

// NewLCCN returns the lccn command.
func NewLCCN() *cobra.Command {
	return &cobra.Command{
		Use:          "lccn <lccn>...",
		Short:        "Normalize and validate Library of Congress control numbers",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderParsed(cmd, args, identifier.ParseLCCN)
		},
	}
}

func renderParsed(cmd *cobra.Command, args []string, parse func(string) identifier.Identifier) error {
	rows := make([][]string, 0, len(args))
	bad := false
	for _, raw := range args {
		id := parse(raw)
		bad = bad || !id.Valid
		rows = append(rows, []string{raw, validText(id.Valid), id.Canonical})
	}
	return render(cmd, []string{"Input", "Valid", "Canonical"}, rows, bad)
}

func render(cmd *cobra.Command, headers []string, rows [][]string, bad bool) error {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), cmdctx.RenderTable(headers, rows, nil)); err != nil {
		return err
	}
	if bad {
		return ErrInvalid
	}
	return nil
}

func validText(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
