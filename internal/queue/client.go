package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/repeatq/internal/logger"
	"github.com/aatumaykin/repeatq/internal/retry"
)

// ConnectOptions configure the Redis client.
type ConnectOptions struct {
	URL         string
	DialTimeout time.Duration
	Retry       retry.Config
}

// Connect parses the Redis URL, opens a client and pings it, retrying
// transient failures. The caller owns the returned client.
func Connect(ctx context.Context, opts ConnectOptions, log *logger.Logger) (*redis.Client, error) {
	if log == nil {
		log = logger.Nop()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.DialTimeout > 0 {
		redisOpts.DialTimeout = opts.DialTimeout
	}

	client := redis.NewClient(redisOpts)

	err = retry.Do(ctx, opts.Retry, log, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, redisOpts.DialTimeout+time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	log.Debug("connected to redis", logger.Field{Key: "addr", Value: redisOpts.Addr}, logger.Field{Key: "db", Value: redisOpts.DB})
	return client, nil
}
