package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/repeatq/internal/constants"
	"github.com/aatumaykin/repeatq/internal/repeat"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		offset int64
		limit  int64
		desc   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List repeatable jobs ordered by next fire time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case constants.OutputTable, constants.OutputJSON, constants.OutputYAML:
			default:
				return fmt.Errorf("invalid --output %q (expected: table, json, yaml)", output)
			}

			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				entries, err := a.sched.List(ctx, offset, limit, !desc)
				if err != nil {
					return err
				}
				return printEntries(cmd.OutOrStdout(), entries, output)
			})
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "skip this many entries")
	cmd.Flags().Int64Var(&limit, "limit", 0, "maximum entries to print (0 lists all)")
	cmd.Flags().BoolVar(&desc, "desc", false, "latest fire time first")
	cmd.Flags().StringVarP(&output, "output", "o", constants.OutputTable, "output format: table, json, yaml")

	return cmd
}

func newCountCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of repeatable jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				n, err := a.sched.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func printEntries(w io.Writer, entries []repeat.Entry, format string) error {
	if entries == nil {
		entries = []repeat.Entry{}
	}

	switch format {
	case constants.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case constants.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(entries) == 0 {
		fmt.Fprint(w, constants.MsgJobsNotFound)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tCRON\tTZ\tEND DATE\tNEXT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Name, dash(e.ID), e.Cron, dash(e.TZ), formatMillis(e.EndDate), formatMillis(e.Next))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, constants.MsgJobsTotal, len(entries))
	return nil
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
