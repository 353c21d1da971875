package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/repeatq/internal/index"
	"github.com/aatumaykin/repeatq/internal/jobstore"
	"github.com/aatumaykin/repeatq/internal/logger"
	"github.com/aatumaykin/repeatq/internal/metrics"
	"github.com/aatumaykin/repeatq/internal/queue"
	"github.com/aatumaykin/repeatq/internal/repeat"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type testEnv struct {
	sched *Scheduler
	index *index.Index
	store *jobstore.Store
	clock fakeClock
	reg   *prometheus.Registry
	mr    *miniredis.Miniredis
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// testLogger creates a test logger instance
func testLogger() *logger.Logger {
	log, err := logger.New(logger.Config{Level: "debug", Format: "text", Output: "discard"})
	if err != nil {
		panic(err)
	}
	return log
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	keys := queue.NewKeys("test", "q")
	env := &testEnv{
		index: index.New(client, keys),
		store: jobstore.New(client, keys, nil),
		clock: clockwork.NewFakeClockAt(now),
		reg:   prometheus.NewRegistry(),
		mr:    mr,
	}
	env.sched = New(env.index, env.store, testLogger(),
		WithClock(env.clock),
		WithLocation(time.UTC),
		WithMetrics(metrics.InitPrometheusMetrics("repeatq", env.reg)),
	)
	return env
}

func intPtr(v int) *int { return &v }

// slowIndex advances the clock on every write to simulate backend latency.
type slowIndex struct {
	*index.Index
	clock fakeClock
	lag   time.Duration
}

func (s *slowIndex) Upsert(ctx context.Context, key string, nextMillis int64) error {
	s.clock.Advance(s.lag)
	return s.Index.Upsert(ctx, key, nextMillis)
}

type failingIndex struct {
	*index.Index
	err error
}

func (f *failingIndex) Upsert(context.Context, string, int64) error {
	return f.err
}

func (f *failingIndex) List(context.Context, int64, int64, bool) ([]repeat.Entry, error) {
	return nil, f.err
}

func (f *failingIndex) Count(context.Context) (int64, error) {
	return 0, f.err
}

type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) Create(context.Context, string, map[string]any, repeat.JobOptions) (*jobstore.Job, error) {
	f.calls++
	return nil, f.err
}
