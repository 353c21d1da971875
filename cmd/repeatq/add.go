package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/constants"
	"github.com/aatumaykin/repeatq/internal/repeat"
	"github.com/aatumaykin/repeatq/internal/scheduler"
)

func newAddCmd(opts *globalOptions) *cobra.Command {
	var (
		rf    ruleFlags
		limit int
		data  string
	)

	cmd := &cobra.Command{
		Use:   "add <name> <cron>",
		Short: "Schedule the next occurrence of a repeatable job",
		Long: `Record the rule in the repeat index and submit its next occurrence as a
delayed job. Running the command again before the occurrence fires is a no-op.`,
		Example: `  repeatq add report "0 9 * * 1" --tz Europe/Berlin --data '{"format":"pdf"}'
  repeatq add cleanup "0 0 L * *" --limit 12`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			rule, err := rf.rule(args[1])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				if limit < 0 {
					return fmt.Errorf("--limit must be >= 0")
				}
				rule.Limit = &limit
			}

			payload, err := parseData(data)
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				occ, err := a.sched.Next(ctx, name, payload, repeat.JobOptions{JobID: rf.jobID, Repeat: &rule})
				if err != nil {
					return fmt.Errorf("failed to schedule %s: %w", name, err)
				}

				printOccurrence(cmd.OutOrStdout(), occ)
				return nil
			})
		},
	}

	rf.bind(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of occurrences (0 never fires)")
	cmd.Flags().StringVar(&data, "data", "", "job payload as a JSON object")

	return cmd
}

// printOccurrence reports the outcome of one scheduling call. A nil occ means
// the rule had nothing left to schedule.
func printOccurrence(out io.Writer, occ *scheduler.Occurrence) {
	if occ == nil {
		fmt.Fprint(out, constants.MsgJobNoOccurrence)
		return
	}

	fmt.Fprint(out, constants.MsgJobScheduled)
	fmt.Fprintf(out, constants.MsgJobID, occ.ID)
	fmt.Fprintf(out, constants.MsgJobKey, occ.Key)
	fmt.Fprintf(out, constants.MsgJobFireAt, occ.FireAt.Format(constants.PreviewTimeLayout))
	fmt.Fprintf(out, constants.MsgJobDelay, occ.Delay)
	fmt.Fprintf(out, constants.MsgJobCount, occ.Count)
	if occ.Job.Duplicate {
		fmt.Fprint(out, constants.MsgJobDuplicate)
	}
}
