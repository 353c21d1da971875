package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/constants"
	"github.com/aatumaykin/repeatq/internal/scheduler"
)

func newAdvanceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <job-id>",
		Short: "Schedule the occurrence that follows a stored one",
		Long: `Load a scheduled occurrence and feed its options back into the scheduler,
as a worker does once the occurrence has run. The rule's count and previous
fire time come from the stored job, so --limit is enforced across calls.
Advancing the same job twice schedules the same following occurrence once.`,
		Example: `  repeatq advance "repeat:0c8f2a...:1700006400000"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				job, err := a.store.Get(ctx, id)
				if err != nil {
					return err
				}

				occ, err := a.sched.Next(ctx, job.Name, job.Data, job.Opts)
				if errors.Is(err, scheduler.ErrNoRule) {
					return fmt.Errorf(constants.MsgJobNotRepeatable, id)
				}
				if err != nil {
					return fmt.Errorf("failed to advance %s: %w", id, err)
				}

				printOccurrence(cmd.OutOrStdout(), occ)
				return nil
			})
		},
	}
}
