// Package scheduler produces the occurrences of repeating jobs. Each call to
// Next resolves one fire time, records the rule in the recurrence index and
// submits a delayed job whose id is derived from the rule and the fire time,
// so concurrent or repeated calls for the same occurrence converge on one job.
//
// The scheduler keeps no state between calls: the rule's count and the
// previous fire time travel with the job options the caller hands back.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aatumaykin/repeatq/internal/cron"
	"github.com/aatumaykin/repeatq/internal/jobstore"
	"github.com/aatumaykin/repeatq/internal/logger"
	"github.com/aatumaykin/repeatq/internal/metrics"
	"github.com/aatumaykin/repeatq/internal/repeat"
)

// ErrNoRule is returned when job options carry no repeat rule.
var ErrNoRule = errors.New("job options carry no repeat rule")

// Index is the ordered recurrence index.
type Index interface {
	Upsert(ctx context.Context, key string, nextMillis int64) error
	RemoveWithJob(ctx context.Context, key, templateID string) (bool, error)
	List(ctx context.Context, offset, limit int64, asc bool) ([]repeat.Entry, error)
	Count(ctx context.Context) (int64, error)
}

// JobStore creates delayed jobs. Creating an id that already exists must not
// produce a second job.
type JobStore interface {
	Create(ctx context.Context, name string, data map[string]any, opts repeat.JobOptions) (*jobstore.Job, error)
}

// Occurrence is one scheduled fire of a rule.
type Occurrence struct {
	ID         string
	Name       string
	Key        string // index member of the rule
	FireAt     time.Time
	PrevMillis int64 // FireAt in unix milliseconds; the reference for the next call
	Delay      time.Duration
	Timestamp  time.Time
	Count      int
	Job        *jobstore.Job
}

// Scheduler computes and submits occurrences.
type Scheduler struct {
	index    Index
	store    JobStore
	resolver *cron.Resolver
	clock    clockwork.Clock
	location *time.Location
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLocation sets the timezone used for rules that do not name one.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithResolver(r *cron.Resolver) Option {
	return func(s *Scheduler) { s.resolver = r }
}

// New creates a scheduler over index and store.
func New(index Index, store JobStore, log *logger.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		index:    index,
		store:    store,
		resolver: cron.NewResolver(),
		clock:    clockwork.NewRealClock(),
		location: time.Local,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next schedules the occurrence following opts.PrevMillis (or now, whichever
// is later) and returns it. It returns nil, nil when the rule is exhausted:
// the limit is reached, the expression has no further match, or it cannot be
// evaluated. opts.Repeat is updated in place.
//
// Backend errors are returned as is. An index entry written before a failed
// job creation is left in place; retrying the call converges on the same id.
func (s *Scheduler) Next(ctx context.Context, name string, data map[string]any, opts repeat.JobOptions) (*Occurrence, error) {
	rule := opts.Repeat
	if rule == nil {
		return nil, ErrNoRule
	}

	if opts.PrevMillis == 0 && opts.JobID != "" {
		rule.JobID = opts.JobID
	}

	rule.Count++
	if rule.Exhausted() {
		s.metrics.RecordOutcome(metrics.ResultLimitReached)
		s.logger.DebugCtx(ctx, "repeat limit reached",
			logger.Field{Key: "name", Value: name},
			logger.Field{Key: "count", Value: rule.Count},
			logger.Field{Key: "limit", Value: *rule.Limit})
		return nil, nil
	}

	ref := s.clock.Now()
	if opts.PrevMillis > ref.UnixMilli() {
		ref = time.UnixMilli(opts.PrevMillis)
	}
	if rule.TZ == "" {
		ref = ref.In(s.location)
	}

	fireAt, ok := s.resolver.Next(ref, rule.Cron, cron.Options{TZ: rule.TZ, EndDate: rule.EndDate})
	if !ok {
		s.metrics.RecordOutcome(metrics.ResultNoNext)
		s.logNoNext(ctx, name, *rule)
		return nil, nil
	}
	nextMillis := fireAt.UnixMilli()

	prefix := repeat.IDPrefix(*rule)
	key := repeat.IndexKey(name, *rule, prefix)
	if err := s.index.Upsert(ctx, key, nextMillis); err != nil {
		s.metrics.RecordBackendError("upsert")
		return nil, err
	}

	id := repeat.OccurrenceID(name, prefix, nextMillis, repeat.Hash(key))

	// Read the clock again: the index write may have taken a while.
	now := s.clock.Now()
	delayMillis := nextMillis - now.UnixMilli()
	if delayMillis < 0 {
		delayMillis = 0
	}

	jobOpts := opts.Clone()
	jobOpts.JobID = id
	jobOpts.Delay = delayMillis
	jobOpts.Timestamp = now.UnixMilli()
	jobOpts.PrevMillis = nextMillis

	job, err := s.store.Create(ctx, name, data, jobOpts)
	if err != nil {
		s.metrics.RecordBackendError("create")
		return nil, err
	}

	delay := time.Duration(delayMillis) * time.Millisecond
	s.metrics.RecordScheduled(delay, job.Duplicate)
	s.logger.DebugCtx(ctx, "occurrence scheduled",
		logger.Field{Key: "name", Value: name},
		logger.Field{Key: "job_id", Value: id},
		logger.Field{Key: "fire_at", Value: fireAt},
		logger.Field{Key: "delay", Value: delay.String()},
		logger.Field{Key: "count", Value: rule.Count},
		logger.Field{Key: "duplicate", Value: job.Duplicate})

	return &Occurrence{
		ID:         id,
		Name:       name,
		Key:        key,
		FireAt:     fireAt,
		PrevMillis: nextMillis,
		Delay:      delay,
		Timestamp:  now,
		Count:      rule.Count,
		Job:        job,
	}, nil
}

func (s *Scheduler) logNoNext(ctx context.Context, name string, rule repeat.Rule) {
	fields := []logger.Field{
		{Key: "name", Value: name},
		{Key: "cron", Value: rule.Cron},
		{Key: "tz", Value: rule.TZ},
	}
	if err := s.resolver.Validate(rule.Cron); err != nil {
		s.logger.WarnCtx(ctx, "repeat rule cannot be evaluated", append(fields, logger.Field{Key: "reason", Value: err.Error()})...)
		return
	}
	if err := cron.ValidateTimezone(rule.TZ); err != nil {
		s.logger.WarnCtx(ctx, "repeat rule cannot be evaluated", append(fields, logger.Field{Key: "reason", Value: err.Error()})...)
		return
	}
	s.logger.DebugCtx(ctx, "repeat rule has no further occurrence", fields...)
}

// Remove deletes the rule from the index together with its upcoming
// occurrence if that is still delayed. Occurrences already promoted or run
// are not touched. It reports whether the rule was present; removing an
// unknown rule is not an error.
func (s *Scheduler) Remove(ctx context.Context, name string, rule repeat.Rule) (bool, error) {
	prefix := repeat.IDPrefix(rule)
	key := repeat.IndexKey(name, rule, prefix)
	template := repeat.TemplateID(name, prefix, repeat.Hash(key))

	removed, err := s.index.RemoveWithJob(ctx, key, template)
	if err != nil {
		s.metrics.RecordBackendError("remove")
		return false, err
	}
	if removed {
		s.metrics.RecordCancellation()
		s.logger.InfoCtx(ctx, "repeatable job removed",
			logger.Field{Key: "name", Value: name},
			logger.Field{Key: "key", Value: key})
	}
	return removed, nil
}

// List returns index entries ordered by next fire time. limit <= 0 lists all.
func (s *Scheduler) List(ctx context.Context, offset, limit int64, asc bool) ([]repeat.Entry, error) {
	entries, err := s.index.List(ctx, offset, limit, asc)
	if err != nil {
		s.metrics.RecordBackendError("list")
		return nil, err
	}
	return entries, nil
}

// Count returns the number of rules in the index.
func (s *Scheduler) Count(ctx context.Context) (int64, error) {
	n, err := s.index.Count(ctx)
	if err != nil {
		s.metrics.RecordBackendError("count")
		return 0, err
	}
	return n, nil
}
