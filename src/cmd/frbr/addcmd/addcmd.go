package addcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/catalog"
	"catalog/src/internal/schema"
)

// New returns the add command which saves manifestation or item YAML files
// through the catalog pipeline.
func New(cc *cmdctx.Context) *cobra.Command {
	var asItem, importMode, commit, push bool
	cmd := &cobra.Command{
		Use:          "add <file.yaml>...",
		Short:        "Validate and save manifestation (or --item) records",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if importMode {
				cc.Override(func(f *catalog.Flags) { f.DuringImport = true })
			}
			ctx := cmd.Context()
			svc, err := cc.Service(ctx)
			if err != nil {
				return err
			}
			st, err := cc.Store()
			if err != nil {
				return err
			}
			var written []string
			for _, file := range args {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				var path, id string
				if asItem {
					it, err := addItem(ctx, svc, raw)
					if err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
					path, id = st.ItemPath(it.ID), it.ID
				} else {
					m, err := addManifestation(ctx, svc, raw)
					if err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
					path, id = st.ManifestationPath(m.ID), m.ID
				}
				written = append(written, path)
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "saved %s %s\n", id, path); err != nil {
					return err
				}
			}
			if !commit {
				return nil
			}
			return cc.Snapshot(ctx, cmd.ErrOrStderr(), written, fmt.Sprintf("add: %d record(s)", len(written)), push)
		},
	}
	cmd.Flags().BoolVar(&asItem, "item", false, "treat the files as item records")
	cmd.Flags().BoolVar(&importMode, "import", false, "keep invalid ISBNs as wrong_isbn instead of failing")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the written files in the data directory")
	cmd.Flags().BoolVar(&push, "push", false, "push after committing")
	return cmd
}

func addManifestation(ctx context.Context, svc *catalog.Service, raw []byte) (schema.Manifestation, error) {
	var rec cmdctx.Record
	if err := cmdctx.DecodeStrict(raw, &rec); err != nil {
		return schema.Manifestation{}, err
	}
	return cmdctx.SaveRecord(ctx, svc, rec)
}

func addItem(ctx context.Context, svc *catalog.Service, raw []byte) (schema.Item, error) {
	var it schema.Item
	if err := cmdctx.DecodeStrict(raw, &it); err != nil {
		return schema.Item{}, err
	}
	return svc.SaveItem(ctx, it)
}
