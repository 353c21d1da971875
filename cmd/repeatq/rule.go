package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/cron"
	"github.com/aatumaykin/repeatq/internal/repeat"
)

// ruleFlags are the flags that, together with the cron expression, identify
// a repeatable job.
type ruleFlags struct {
	tz      string
	endDate string
	jobID   string
}

func (f *ruleFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tz, "tz", "", "IANA timezone of the expression (default: cron.timezone)")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "no occurrence after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.jobID, "job-id", "", "explicit job id bound to the rule")
}

// rule validates expr and the flags and builds the rule.
func (f *ruleFlags) rule(expr string) (repeat.Rule, error) {
	if err := cron.NewResolver().Validate(expr); err != nil {
		return repeat.Rule{}, err
	}
	if err := cron.ValidateTimezone(f.tz); err != nil {
		return repeat.Rule{}, err
	}
	return f.identity(expr)
}

// identity builds the rule without evaluating expr, so rules stored with an
// expression that no longer parses can still be addressed.
func (f *ruleFlags) identity(expr string) (repeat.Rule, error) {
	rule := repeat.Rule{Cron: expr, TZ: f.tz, JobID: f.jobID}
	if f.endDate != "" {
		end, err := parseTime(f.endDate)
		if err != nil {
			return repeat.Rule{}, fmt.Errorf("invalid --end-date: %w", err)
		}
		rule.EndDate = &end
	}
	return rule, nil
}

// parseTime accepts RFC3339 or a bare date taken as midnight UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}

// parseData decodes the --data payload. Empty means no payload.
func parseData(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, fmt.Errorf("invalid --data: expected a JSON object: %w", err)
	}
	return data, nil
}
