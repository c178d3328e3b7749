package datecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/dates"
)

// New returns the date command, which shows how a date string resolves.
func New(cc *cmdctx.Context) *cobra.Command {
	var closing, acquired bool
	cmd := &cobra.Command{
		Use:          "date <text>",
		Short:        "Resolve a bibliographic date (publication by default)",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.Config()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			p := dates.Parser{Location: loc}
			out := cmd.OutOrStdout()
			switch {
			case acquired:
				text, err := p.CheckAcquired(args[0])
				if err != nil {
					return err
				}
				d := p.ParseClosing(text)
				_, err = fmt.Fprintf(out, "%s\t%s\n", text, resolved(d))
				return err
			default:
				mode := dates.Opening
				if closing {
					mode = dates.Closing
				}
				d, err := p.Parse(args[0], mode)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, resolved(d))
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&closing, "closing", false, "resolve as a discontinuance date (missing parts go to the end of the period)")
	cmd.Flags().BoolVar(&acquired, "acquired", false, "check as an item acquisition date")
	cmd.MarkFlagsMutuallyExclusive("closing", "acquired")
	return cmd
}

// resolved formats d; dates filled in from a year or month are marked.
func resolved(d dates.FuzzyDate) string {
	if !d.OK {
		return "(unset)"
	}
	out := d.Resolved.Format("2006-01-02")
	if d.Partial() {
		out += " (partial)"
	}
	return out
}
