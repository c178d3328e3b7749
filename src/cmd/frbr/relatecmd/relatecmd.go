package relatecmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"catalog/src/cmd/frbr/cmdctx"
	"catalog/src/internal/ordering"
)

// New returns the relate command group for ordered memberships.
func New(cc *cmdctx.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relate",
		Short: "Maintain ordered creator, realizer, producer and item memberships",
	}
	cmd.AddCommand(newAppend(cc), newRemove(cc), newMove(cc), newList(cc), newDestroy(cc))
	return cmd
}

func newAppend(cc *cmdctx.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "append <role> <scope> <member>",
		Short:        "Append member at the end of scope",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ordering.ParseRole(args[0])
			if err != nil {
				return err
			}
			svc, err := cc.Service(cmd.Context())
			if err != nil {
				return err
			}
			ms, err := svc.Relate(cmd.Context(), role, args[1], args[2])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s #%d\n", args[1], ms.Member, ms.Position)
			return err
		},
	}
}

func newRemove(cc *cmdctx.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "remove <role> <scope> <member>",
		Short:        "Remove member from scope and close the gap",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ordering.ParseRole(args[0])
			if err != nil {
				return err
			}
			svc, err := cc.Service(cmd.Context())
			if err != nil {
				return err
			}
			return svc.Unrelate(cmd.Context(), role, args[1], args[2])
		},
	}
}

func newMove(cc *cmdctx.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "move <role> <scope> <member> <position>",
		Short:        "Move member to position (clamped to the scope size)",
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ordering.ParseRole(args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("position %q: %w", args[3], err)
			}
			svc, err := cc.Service(cmd.Context())
			if err != nil {
				return err
			}
			ms, err := svc.Move(cmd.Context(), role, args[1], args[2], pos)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s #%d\n", args[1], ms.Member, ms.Position)
			return err
		},
	}
}

func newList(cc *cmdctx.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "list <role> <scope>",
		Short:        "List the members of scope in position order",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := ordering.ParseRole(args[0])
			if err != nil {
				return err
			}
			cat, err := cc.Relations(cmd.Context())
			if err != nil {
				return err
			}
			members := cat.Relation(role).Members(args[1])
			rows := make([][]string, 0, len(members))
			for _, ms := range members {
				rows = append(rows, []string{strconv.Itoa(ms.Position), ms.Member})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cmdctx.RenderTable(
				[]string{"Position", role.MemberKind()},
				rows,
				[]cmdctx.Alignment{cmdctx.AlignRight, cmdctx.AlignLeft},
			))
			return err
		},
	}
}

func newDestroy(cc *cmdctx.Context) *cobra.Command {
	return &cobra.Command{
		Use:          "destroy <kind> <id>",
		Short:        "Drop every membership referencing a record (kind: manifestation, item, agent)",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := cc.Service(cmd.Context())
			if err != nil {
				return err
			}
			return svc.Destroy(cmd.Context(), args[0], args[1])
		},
	}
}
