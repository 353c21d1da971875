package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/constants"
	"github.com/aatumaykin/repeatq/internal/cron"
)

func newNextCmd(opts *globalOptions) *cobra.Command {
	var (
		tz      string
		from    string
		endDate string
		count   int
	)

	cmd := &cobra.Command{
		Use:   "next <cron>",
		Short: "Preview upcoming fire times of a cron expression",
		Long: `Print the next fire times of a cron expression without touching Redis.
Supports an optional seconds field, @descriptors and L (last day of month)
in the day-of-month field.`,
		Example: `  repeatq next "0 0 L * *" --count 3
  repeatq next "0 9 * * 1-5" --tz Europe/Berlin --from 2024-01-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := args[0]
			if count < 1 || count > constants.MaxPreviewCount {
				return fmt.Errorf("--count must be between 1 and %d", constants.MaxPreviewCount)
			}

			resolver := cron.NewResolver()
			if err := resolver.Validate(expr); err != nil {
				return err
			}
			if err := cron.ValidateTimezone(tz); err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			display, err := cfg.Cron.Location()
			if err != nil {
				return fmt.Errorf("cron.timezone: %w", err)
			}
			if tz != "" {
				if display, err = time.LoadLocation(tz); err != nil {
					return err
				}
			}

			ref := time.Now()
			if from != "" {
				if ref, err = parseTime(from); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
			}
			ref = ref.In(display)

			evalOpts := cron.Options{TZ: tz}
			if endDate != "" {
				end, err := parseTime(endDate)
				if err != nil {
					return fmt.Errorf("invalid --end-date: %w", err)
				}
				evalOpts.EndDate = &end
			}

			out := cmd.OutOrStdout()
			printed := 0
			for printed < count {
				next, ok := resolver.Next(ref, expr, evalOpts)
				if !ok {
					break
				}
				fmt.Fprintln(out, next.In(display).Format(constants.PreviewTimeLayout))
				ref = next
				printed++
			}
			if printed == 0 {
				fmt.Fprint(out, constants.MsgNoFireTimes)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tz, "tz", "", "IANA timezone of the expression (default: cron.timezone)")
	cmd.Flags().StringVar(&from, "from", "", "reference time (RFC3339 or YYYY-MM-DD, default: now)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "stop at this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVarP(&count, "count", "n", constants.DefaultPreviewCount, "number of fire times to print")

	return cmd
}
