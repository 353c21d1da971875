package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/constants"
)

func newRemoveCmd(opts *globalOptions) *cobra.Command {
	var rf ruleFlags

	cmd := &cobra.Command{
		Use:   "remove <name> <cron>",
		Short: "Remove a repeatable job and its pending occurrence",
		Long: `Remove the rule from the repeat index together with its upcoming delayed
occurrence. The rule is identified by name, cron expression and the same
--tz, --end-date and --job-id it was added with.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			rule, err := rf.identity(args[1])
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				removed, err := a.sched.Remove(ctx, name, rule)
				if err != nil {
					return fmt.Errorf("failed to remove %s: %w", name, err)
				}

				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, constants.MsgJobNotFound, name)
					fmt.Fprint(out, constants.MsgJobNotFoundHint)
					return nil
				}
				fmt.Fprintf(out, constants.MsgJobRemoved, name)
				return nil
			})
		},
	}

	rf.bind(cmd)

	return cmd
}
