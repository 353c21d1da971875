package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/repeatq/internal/jobstore"
	"github.com/aatumaykin/repeatq/internal/repeat"
)

func TestScheduler_Next_DailyWithLimit(t *testing.T) {
	start := mustTime("2024-03-10T15:04:05Z")
	env := newTestEnv(t, start)
	ctx := context.Background()

	opts := repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 0 * * *", Limit: intPtr(2)}}

	first, err := env.sched.Next(ctx, "daily", map[string]any{"report": "sales"}, opts)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 1, opts.Repeat.Count, "rule is updated in place")
	assert.True(t, mustTime("2024-03-11T00:00:00Z").Equal(first.FireAt))
	assert.Equal(t, 8*time.Hour+55*time.Minute+55*time.Second, first.Delay)
	assert.Equal(t, first.FireAt.UnixMilli(), first.PrevMillis)
	assert.Equal(t, "daily::::0 0 * * *", first.Key)

	stored, err := env.store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PrevMillis, stored.Opts.PrevMillis)
	assert.Equal(t, int64(32155000), stored.Delay)
	assert.Equal(t, start.UnixMilli(), stored.Timestamp)
	require.NotNil(t, stored.Opts.Repeat)
	assert.Equal(t, 1, stored.Opts.Repeat.Count)

	second, err := env.sched.Next(ctx, "daily", stored.Data, stored.Opts)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 2, second.Count)
	assert.True(t, mustTime("2024-03-12T00:00:00Z").Equal(second.FireAt))
	assert.Equal(t, first.Delay+24*time.Hour, second.Delay)
	assert.NotEqual(t, first.ID, second.ID)

	third, err := env.sched.Next(ctx, "daily", stored.Data, second.Job.Opts)
	require.NoError(t, err)
	assert.Nil(t, third)

	entries, err := env.sched.List(ctx, 0, 0, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.PrevMillis, entries[0].Next, "exhausted rule does not touch the index")
}

func TestScheduler_Next_LimitProducesExactCount(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-01-01T00:00:30Z"))
	ctx := context.Background()

	opts := repeat.JobOptions{Repeat: &repeat.Rule{Cron: "* * * * *", Limit: intPtr(3)}}

	produced := 0
	for i := 0; i < 5; i++ {
		occ, err := env.sched.Next(ctx, "minutely", nil, opts)
		require.NoError(t, err)
		if occ == nil {
			continue
		}
		produced++
		opts = occ.Job.Opts
	}

	assert.Equal(t, 3, produced)

	expected := `
# HELP repeatq_occurrences_total Scheduling calls by outcome
# TYPE repeatq_occurrences_total counter
repeatq_occurrences_total{result="limit_reached"} 2
repeatq_occurrences_total{result="scheduled"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(env.reg, strings.NewReader(expected), "repeatq_occurrences_total"))
}

func TestScheduler_Next_MonotonicProgress(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	ctx := context.Background()

	opts := repeat.JobOptions{Repeat: &repeat.Rule{Cron: "*/15 * * * *"}}

	var prev time.Time
	for i := 0; i < 8; i++ {
		occ, err := env.sched.Next(ctx, "quarter", nil, opts)
		require.NoError(t, err)
		require.NotNil(t, occ)

		assert.True(t, occ.FireAt.After(prev), "iteration %d: %s not after %s", i, occ.FireAt, prev)
		assert.Equal(t, 0, occ.FireAt.Minute()%15)
		prev = occ.FireAt

		// The job runs when it is due and hands its options back.
		env.clock.Advance(occ.Delay)
		opts = occ.Job.Opts
	}

	assert.True(t, mustTime("2024-05-01T12:00:00Z").Equal(prev))
}

func TestScheduler_Next_RacingAheadUsesPrevMillis(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	ctx := context.Background()

	first, err := env.sched.Next(ctx, "hourly", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 * * * *"}})
	require.NoError(t, err)
	require.NotNil(t, first)

	// Called again before the first occurrence fired.
	second, err := env.sched.Next(ctx, "hourly", nil, first.Job.Opts)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, mustTime("2024-05-01T11:00:00Z").Equal(first.FireAt))
	assert.True(t, mustTime("2024-05-01T12:00:00Z").Equal(second.FireAt))
}

func TestScheduler_Next_Idempotent(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	ctx := context.Background()

	a, err := env.sched.Next(ctx, "hourly", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 * * * *"}})
	require.NoError(t, err)
	b, err := env.sched.Next(ctx, "hourly", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 * * * *"}})
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.False(t, a.Job.Duplicate)
	assert.True(t, b.Job.Duplicate)

	pending, err := env.store.Delayed(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	count, err := env.sched.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestScheduler_Next_ConcurrentProducersConverge(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	ctx := context.Background()

	const producers = 8
	ids := make([]string, producers)
	duplicates := make([]bool, producers)
	errs := make([]error, producers)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			occ, err := env.sched.Next(ctx, "hourly", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 * * * *"}})
			errs[i] = err
			if occ != nil {
				ids[i] = occ.ID
				duplicates[i] = occ.Job.Duplicate
			}
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < producers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if !duplicates[i] {
			created++
		}
	}
	assert.Equal(t, 1, created)

	pending, err := env.store.Delayed(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestScheduler_Next_ExplicitJobID(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	ctx := context.Background()

	first, err := env.sched.Next(ctx, "report", nil, repeat.JobOptions{
		JobID:  "weekly",
		Repeat: &repeat.Rule{Cron: "0 9 * * 1"},
	})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "report:weekly:::0 9 * * 1", first.Key)
	assert.Equal(t, "weekly", first.Job.Opts.Repeat.JobID)
	assert.True(t, strings.HasPrefix(first.ID, "repeat:"))

	// The chained call carries the occurrence id, which must not be rebound.
	second, err := env.sched.Next(ctx, "report", nil, first.Job.Opts)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, "weekly", second.Job.Opts.Repeat.JobID)

	count, err := env.sched.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestScheduler_Next_NoFurtherOccurrence(t *testing.T) {
	past := mustTime("2024-01-01T00:00:00Z")

	tests := []struct {
		name string
		rule repeat.Rule
	}{
		{name: "end date passed", rule: repeat.Rule{Cron: "0 0 * * *", EndDate: &past}},
		{name: "malformed expression", rule: repeat.Rule{Cron: "every tuesday"}},
		{name: "unknown timezone", rule: repeat.Rule{Cron: "0 0 * * *", TZ: "Atlantis/Capital"}},
		{name: "impossible date", rule: repeat.Rule{Cron: "0 0 31 2 *"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
			ctx := context.Background()

			rule := tt.rule
			occ, err := env.sched.Next(ctx, "job", nil, repeat.JobOptions{Repeat: &rule})
			require.NoError(t, err)
			assert.Nil(t, occ)
			assert.Equal(t, 1, rule.Count)

			count, err := env.sched.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestScheduler_Next_Timezone(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-01-10T00:00:00Z"))

	occ, err := env.sched.Next(context.Background(), "standup", nil, repeat.JobOptions{
		Repeat: &repeat.Rule{Cron: "0 9 * * *", TZ: "America/New_York"},
	})
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.True(t, mustTime("2024-01-10T14:00:00Z").Equal(occ.FireAt))
	assert.Equal(t, "standup:::America/New_York:0 9 * * *", occ.Key)
}

func TestScheduler_Next_LastDayOfMonth(t *testing.T) {
	env := newTestEnv(t, mustTime("2023-01-31T10:00:00Z"))

	occ, err := env.sched.Next(context.Background(), "month-end", nil, repeat.JobOptions{
		Repeat: &repeat.Rule{Cron: "0 0 L * *"},
	})
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.True(t, mustTime("2023-02-28T00:00:00Z").Equal(occ.FireAt))
}

func TestScheduler_Next_DelayRecomputedAfterIndexWrite(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	slow := &slowIndex{Index: env.index, clock: env.clock, lag: 5 * time.Minute}
	sched := New(slow, env.store, testLogger(), WithClock(env.clock), WithLocation(time.UTC))

	occ, err := sched.Next(context.Background(), "quarter", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "*/15 * * * *"}})
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.True(t, mustTime("2024-05-01T10:15:00Z").Equal(occ.FireAt))
	assert.Equal(t, 3*time.Minute, occ.Delay)
	assert.True(t, mustTime("2024-05-01T10:12:00Z").Equal(occ.Timestamp))
}

func TestScheduler_Next_DelayClampedAtZero(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	slow := &slowIndex{Index: env.index, clock: env.clock, lag: time.Hour}
	sched := New(slow, env.store, testLogger(), WithClock(env.clock), WithLocation(time.UTC))

	occ, err := sched.Next(context.Background(), "quarter", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "*/15 * * * *"}})
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.Zero(t, occ.Delay)
	assert.Zero(t, occ.Job.Delay)
}

func TestScheduler_Next_IndexFailurePropagates(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	boom := errors.New("READONLY You can't write against a read only replica")
	store := &failingStore{}
	sched := New(&failingIndex{Index: env.index, err: boom}, store, testLogger(), WithClock(env.clock))

	occ, err := sched.Next(context.Background(), "job", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 * * * *"}})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, occ)
	assert.Zero(t, store.calls)
}

func TestScheduler_Next_StoreFailureLeavesIndexEntry(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	boom := errors.New("connection reset by peer")
	store := &failingStore{err: boom}
	sched := New(env.index, store, testLogger(), WithClock(env.clock))

	occ, err := sched.Next(context.Background(), "job", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 * * * *"}})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, occ)
	assert.Equal(t, 1, store.calls)

	count, err := env.index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestScheduler_QueryErrorsPropagateUnwrapped(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	boom := errors.New("LOADING Redis is loading the dataset in memory")
	sched := New(&failingIndex{Index: env.index, err: boom}, env.store, testLogger(), WithClock(env.clock))

	entries, err := sched.List(context.Background(), 0, 0, true)
	assert.Equal(t, boom, err)
	assert.Nil(t, entries)

	n, err := sched.Count(context.Background())
	assert.Equal(t, boom, err)
	assert.Zero(t, n)
}

func TestScheduler_Next_WithoutRule(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))

	_, err := env.sched.Next(context.Background(), "job", nil, repeat.JobOptions{})
	assert.ErrorIs(t, err, ErrNoRule)
}

func TestScheduler_Remove(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	ctx := context.Background()

	rule := repeat.Rule{Cron: "0 9 * * 1", JobID: "weekly"}
	occ, err := env.sched.Next(ctx, "report", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 9 * * 1", JobID: "weekly"}})
	require.NoError(t, err)
	require.NotNil(t, occ)

	other, err := env.sched.Next(ctx, "daily", nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: "0 0 * * *"}})
	require.NoError(t, err)
	require.NotNil(t, other)

	removed, err := env.sched.Remove(ctx, "report", rule)
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err := env.sched.List(ctx, 0, 0, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "daily", entries[0].Name)

	_, err = env.store.Get(ctx, occ.ID)
	assert.ErrorIs(t, err, jobstore.ErrJobNotFound)

	_, err = env.store.Get(ctx, other.ID)
	assert.NoError(t, err)

	removed, err = env.sched.Remove(ctx, "report", rule)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestScheduler_ListAndCount(t *testing.T) {
	env := newTestEnv(t, mustTime("2024-05-01T10:07:00Z"))
	ctx := context.Background()

	for _, r := range []struct{ name, cron string }{
		{"hourly", "0 * * * *"},
		{"daily", "0 0 * * *"},
		{"quarter", "*/15 * * * *"},
	} {
		occ, err := env.sched.Next(ctx, r.name, nil, repeat.JobOptions{Repeat: &repeat.Rule{Cron: r.cron}})
		require.NoError(t, err)
		require.NotNil(t, occ)
	}

	asc, err := env.sched.List(ctx, 0, 0, true)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, []string{"quarter", "hourly", "daily"}, []string{asc[0].Name, asc[1].Name, asc[2].Name})

	desc, err := env.sched.List(ctx, 0, 1, false)
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, "daily", desc[0].Name)
	assert.True(t, mustTime("2024-05-02T00:00:00Z").Equal(desc[0].NextTime()))

	count, err := env.sched.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
