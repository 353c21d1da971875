package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/repeatq/internal/config"
	"github.com/aatumaykin/repeatq/internal/constants"
	"github.com/aatumaykin/repeatq/internal/index"
	"github.com/aatumaykin/repeatq/internal/jobstore"
	"github.com/aatumaykin/repeatq/internal/logger"
	"github.com/aatumaykin/repeatq/internal/metrics"
	"github.com/aatumaykin/repeatq/internal/queue"
	"github.com/aatumaykin/repeatq/internal/scheduler"
	"github.com/aatumaykin/repeatq/internal/version"
)

// app wires the scheduler to Redis for one CLI invocation.
type app struct {
	log    *logger.Logger
	client *redis.Client
	reg    *prometheus.Registry
	store  *jobstore.Store
	sched  *scheduler.Scheduler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetDefault(log)

	loc, err := cfg.Cron.Location()
	if err != nil {
		return nil, fmt.Errorf("cron.timezone: %w", err)
	}

	log.Debug("starting", logger.Field{Key: "version", Value: version.Short()},
		logger.Field{Key: "redis", Value: config.MaskURL(cfg.Redis.URL)},
		logger.Field{Key: "queue", Value: cfg.Queue.Name})

	client, err := queue.Connect(ctx, queue.ConnectOptions{
		URL:         cfg.Redis.URL,
		DialTimeout: cfg.Redis.DialTimeout(),
		Retry:       cfg.Retry.Policy(),
	}, log)
	if err != nil {
		return nil, err
	}

	keys := queue.NewKeys(cfg.Queue.Prefix, cfg.Queue.Name)
	log = log.With(logger.Field{Key: "queue", Value: keys.Base()})
	reg := prometheus.NewRegistry()
	store := jobstore.New(client, keys, log)

	sched := scheduler.New(index.New(client, keys), store, log,
		scheduler.WithLocation(loc),
		scheduler.WithMetrics(metrics.InitPrometheusMetrics(cfg.Metrics.Namespace, reg)),
	)

	return &app{
		log:    log,
		client: client,
		reg:    reg,
		store:  store,
		sched:  sched,
	}, nil
}

func (a *app) Close() error {
	return a.client.Close()
}

// withApp loads the configuration, connects and runs fn. Metrics are written
// out afterwards when requested, even if fn failed.
func (o *globalOptions) withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultCommandTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	runErr := fn(ctx, a)
	if err := o.writeMetrics(a.reg); err != nil && runErr == nil {
		return err
	}
	return runErr
}
