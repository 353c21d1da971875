// Package repeat holds the recurrence model shared by the index, the job
// store and the scheduler, and derives the deterministic keys and ids that
// make rescheduling an occurrence idempotent.
package repeat

import "time"

// Rule describes a repeating job. Count is advanced by the scheduler on every
// call and must be handed back by the caller on the next one.
type Rule struct {
	Cron    string     `json:"cron" yaml:"cron"`
	TZ      string     `json:"tz,omitempty" yaml:"tz,omitempty"`
	EndDate *time.Time `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Limit   *int       `json:"limit,omitempty" yaml:"limit,omitempty"`
	Count   int        `json:"count,omitempty" yaml:"count,omitempty"`
	JobID   string     `json:"jobId,omitempty" yaml:"jobId,omitempty"` // explicit id, bound on the first occurrence only
}

// Exhausted reports whether Count has gone past Limit.
func (r Rule) Exhausted() bool {
	return r.Limit != nil && r.Count > *r.Limit
}

// JobOptions travel with every job created for a rule. Feeding the options of
// a finished job back into the scheduler yields the following occurrence.
type JobOptions struct {
	JobID      string `json:"jobId,omitempty"`
	PrevMillis int64  `json:"prevMillis,omitempty"`
	Delay      int64  `json:"delay"`     // milliseconds
	Timestamp  int64  `json:"timestamp"` // creation time, unix milliseconds
	Repeat     *Rule  `json:"repeat,omitempty"`
}

// Clone returns a copy that does not share the rule with o.
func (o JobOptions) Clone() JobOptions {
	c := o
	if o.Repeat != nil {
		r := *o.Repeat
		c.Repeat = &r
	}
	return c
}

// Entry is a decoded member of the recurrence index paired with its score.
type Entry struct {
	Key     string `json:"key" yaml:"key"`
	Name    string `json:"name" yaml:"name"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	EndDate int64  `json:"endDate,omitempty" yaml:"endDate,omitempty"` // unix milliseconds, 0 when unbounded
	TZ      string `json:"tz,omitempty" yaml:"tz,omitempty"`
	Cron    string `json:"cron" yaml:"cron"`
	Next    int64  `json:"next" yaml:"next"` // next fire time, unix milliseconds
}

// NextTime returns Next as a time.Time.
func (e Entry) NextTime() time.Time {
	return time.UnixMilli(e.Next)
}
