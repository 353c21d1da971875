package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/repeatq/internal/constants"
	"github.com/aatumaykin/repeatq/internal/cron"
	"github.com/aatumaykin/repeatq/internal/repeat"
	"github.com/aatumaykin/repeatq/internal/workers"
)

// ruleFile is the document read by `repeatq apply`.
type ruleFile struct {
	Jobs []ruleSpec `yaml:"jobs"`
}

type ruleSpec struct {
	Name        string         `yaml:"name"`
	Data        map[string]any `yaml:"data"`
	repeat.Rule `yaml:",inline"`
}

func loadRuleFile(path string) ([]ruleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	resolver := cron.NewResolver()
	var errs []error
	for i, spec := range doc.Jobs {
		if spec.Name == "" {
			errs = append(errs, fmt.Errorf("jobs[%d]: name is required", i))
		}
		if err := resolver.Validate(spec.Cron); err != nil {
			errs = append(errs, fmt.Errorf("jobs[%d] %s: %w", i, spec.Name, err))
		}
		if err := cron.ValidateTimezone(spec.TZ); err != nil {
			errs = append(errs, fmt.Errorf("jobs[%d] %s: %w", i, spec.Name, err))
		}
		if spec.Limit != nil && *spec.Limit < 0 {
			errs = append(errs, fmt.Errorf("jobs[%d] %s: limit must be >= 0", i, spec.Name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc.Jobs, nil
}

func newApplyCmd(opts *globalOptions) *cobra.Command {
	var poolSize int

	cmd := &cobra.Command{
		Use:   "apply <rules.yaml>",
		Short: "Schedule every repeatable job declared in a YAML file",
		Long: `Read a list of repeatable jobs and schedule the next occurrence of each,
several at a time. Applying the same file again is a no-op for occurrences
that are already scheduled.

  jobs:
    - name: report
      cron: "0 9 * * 1"
      tz: Europe/Berlin
      limit: 10
      data:
        format: pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := loadRuleFile(args[0])
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				tasks := make([]workers.Task, 0, len(specs))
				for _, spec := range specs {
					spec := spec
					tasks = append(tasks, workers.Task{
						ID: spec.Name,
						Run: func(ctx context.Context) (string, error) {
							rule := spec.Rule
							occ, err := a.sched.Next(ctx, spec.Name, spec.Data, repeat.JobOptions{JobID: rule.JobID, Repeat: &rule})
							switch {
							case err != nil:
								return "", err
							case occ == nil:
								return "no upcoming occurrence", nil
							case occ.Job.Duplicate:
								return "already scheduled " + occ.ID, nil
							default:
								return "scheduled " + occ.ID + " at " + occ.FireAt.Format(constants.PreviewTimeLayout), nil
							}
						},
					})
				}

				out := cmd.OutOrStdout()
				failed := 0
				for _, r := range workers.RunAll(ctx, poolSize, tasks, a.log) {
					if r.Error != nil {
						failed++
						fmt.Fprintf(out, "❌ %s: %v\n", r.TaskID, r.Error)
						continue
					}
					fmt.Fprintf(out, "✅ %s: %s\n", r.TaskID, r.Output)
				}
				fmt.Fprintf(out, constants.MsgApplySummary, len(tasks)-failed, failed)

				if failed > 0 {
					return fmt.Errorf("%d of %d jobs failed", failed, len(tasks))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&poolSize, "workers", "w", workers.DefaultPoolSize, "number of jobs scheduled concurrently")

	return cmd
}
