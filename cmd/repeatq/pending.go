package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/constants"
	"github.com/aatumaykin/repeatq/internal/logger"
)

func newPendingCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List delayed occurrences waiting to fire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				pending, err := a.store.Delayed(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(pending) == 0 {
					fmt.Fprint(out, constants.MsgPendingNotFound)
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tDUE")
				for _, p := range pending {
					name := "-"
					if job, err := a.store.Get(ctx, p.ID); err == nil {
						name = job.Name
					} else {
						a.log.Warn("delayed job without data",
							logger.Field{Key: "job_id", Value: p.ID},
							logger.Field{Key: "error", Value: err})
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, name, time.UnixMilli(p.DueMillis).UTC().Format(time.RFC3339))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, constants.MsgPendingTotal, len(pending))
				return nil
			})
		},
	}
}
