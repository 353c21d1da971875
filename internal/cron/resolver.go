// Package cron resolves the next fire time of a cron expression.
// It uses robfig/cron/v3 for parsing and evaluation and adds support for the
// "L" (last day of month) token in the day-of-month position.
package cron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Options bound the evaluation of an expression.
type Options struct {
	TZ      string     // IANA zone name; empty means the location of the reference instant
	EndDate *time.Time // no occurrence after this instant is returned
}

// Resolver computes next fire times. It is safe for concurrent use.
type Resolver struct {
	parser cron.Parser
}

// NewResolver creates a resolver accepting an optional seconds field,
// the standard five fields and @descriptors.
func NewResolver() *Resolver {
	return &Resolver{
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

var defaultResolver = NewResolver()

// NextFireTime is Resolver.Next on the default resolver.
func NextFireTime(from time.Time, expr string, opts Options) (time.Time, bool) {
	return defaultResolver.Next(from, expr, opts)
}

// Next returns the first instant strictly after from that matches expr.
// It returns false when there is no such instant: the expression is malformed,
// the timezone is unknown, nothing matches, or the match lies after EndDate.
func (r *Resolver) Next(from time.Time, expr string, opts Options) (time.Time, bool) {
	loc, err := location(opts.TZ, from)
	if err != nil {
		return time.Time{}, false
	}
	from = from.In(loc)

	if hasLastDay(expr) {
		return r.nextLastDay(from, expr, opts)
	}

	sched, err := r.parser.Parse(expr)
	if err != nil {
		return time.Time{}, false
	}
	return bounded(sched.Next(from), opts)
}

// Validate reports why expr cannot be evaluated, or nil.
func (r *Resolver) Validate(expr string) error {
	normalized := expr
	if hasLastDay(expr) {
		normalized = substituteLastDay(expr, 31)
	}
	if _, err := r.parser.Parse(normalized); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// ValidateTimezone reports whether tz names a loadable location.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return nil
}

func location(tz string, from time.Time) (*time.Location, error) {
	if tz == "" {
		return from.Location(), nil
	}
	return time.LoadLocation(tz)
}

func bounded(t time.Time, opts Options) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	if opts.EndDate != nil && t.After(*opts.EndDate) {
		return time.Time{}, false
	}
	return t, true
}
