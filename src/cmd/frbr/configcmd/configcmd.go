package configcmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/config"
)

// New returns the config command group.
func New(cc *cmdctx.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(newInit(), newShow(cc), newValidate(cc))
	return cmd
}

func newInit() *cobra.Command {
	var targetPath string
	var overwrite bool
	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Write a configuration file with the default settings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.ProjectConfigName
			}
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create config directory %q: %w", dir, err)
				}
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			f, err := os.Create(target)
			if err != nil {
				return err
			}
			cfg := config.Default()
			if err := cfg.Encode(f); err != nil {
				f.Close()
				return fmt.Errorf("write config: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", target)
			return err
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing file")
	return cmd
}

func newShow(cc *cmdctx.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "show",
		Short:        "Print the effective configuration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cc.Config()
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}

func newValidate(cc *cmdctx.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "validate",
		Short:        "Validate the configuration file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := cc.ConfigSource()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			_, err = fmt.Fprintln(out, "Configuration valid")
			return err
		},
	}
}
