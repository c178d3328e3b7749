package nextcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/numbering"
	"catalog/src/internal/sequence"
)

// New returns the next command, which predicts the labels of the following
// issue of a periodical.
func New() *cobra.Command {
	var text numbering.SerialText
	var patternPath string
	cmd := &cobra.Command{
		Use:          "next",
		Short:        "Predict the next volume, issue and serial labels",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern sequence.Pattern
			if patternPath != "" {
				f, err := os.Open(patternPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if pattern, err = sequence.LoadDefinition(f); err != nil {
					return fmt.Errorf("%s: %w", patternPath, err)
				}
			}
			current := numbering.Normalize(text, numbering.Options{})
			next := sequence.Predict(pattern, current, text)
			rows := [][]string{
				{"volume", text.Volume, next.Volume},
				{"issue", text.Issue, next.Issue},
				{"serial", text.Serial, next.Serial},
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cmdctx.RenderTable([]string{"Field", "Current", "Next"}, rows, nil))
			return err
		},
	}
	cmd.Flags().StringVar(&text.Volume, "volume", "", "current volume label")
	cmd.Flags().StringVar(&text.Issue, "issue", "", "current issue label (digits or Jan..Dec)")
	cmd.Flags().StringVar(&text.Serial, "serial", "", "current serial number label")
	cmd.Flags().StringVar(&patternPath, "pattern", "", "YAML numbering pattern (kind: issues_per_volume|continuous|volume_only)")
	return cmd
}
