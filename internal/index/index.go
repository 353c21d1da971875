// Package index stores recurrence index entries in a Redis sorted set scored
// by their next fire time in unix milliseconds.
package index

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/repeatq/internal/queue"
	"github.com/aatumaykin/repeatq/internal/repeat"
)

// removeWithJobScript deletes an index entry together with the occurrence it
// still has pending. The pending job id is the template id followed by the
// entry's score; the job hash is only deleted when that id was still delayed.
//
// KEYS[1] repeat set, KEYS[2] delayed set
// ARGV[1] template id, ARGV[2] index member, ARGV[3] job key prefix
var removeWithJobScript = redis.NewScript(`
local millis = redis.call("ZSCORE", KEYS[1], ARGV[2])
if millis then
  local jobId = ARGV[1] .. millis
  if redis.call("ZREM", KEYS[2], jobId) == 1 then
    redis.call("DEL", ARGV[3] .. jobId)
  end
end
return redis.call("ZREM", KEYS[1], ARGV[2])
`)

// Index is the ordered recurrence index of one queue.
type Index struct {
	client redis.Cmdable
	keys   queue.Keys
}

// New creates an index over client for the queue named by keys.
func New(client redis.Cmdable, keys queue.Keys) *Index {
	return &Index{client: client, keys: keys}
}

// Upsert adds key or moves it to nextMillis.
func (i *Index) Upsert(ctx context.Context, key string, nextMillis int64) error {
	err := i.client.ZAdd(ctx, i.keys.Repeat(), redis.Z{
		Score:  float64(nextMillis),
		Member: key,
	}).Err()
	if err != nil {
		return fmt.Errorf("upsert repeat key: %w", err)
	}
	return nil
}

// RemoveWithJob atomically deletes key and its pending occurrence, identified
// by templateID plus the entry's score. It reports whether key existed.
func (i *Index) RemoveWithJob(ctx context.Context, key, templateID string) (bool, error) {
	removed, err := removeWithJobScript.Run(ctx, i.client,
		[]string{i.keys.Repeat(), i.keys.Delayed()},
		templateID, key, i.keys.Base(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("remove repeatable: %w", err)
	}
	return removed == 1, nil
}

// List returns up to limit entries starting at offset, ordered by next fire
// time. limit <= 0 lists to the end.
func (i *Index) List(ctx context.Context, offset, limit int64, asc bool) ([]repeat.Entry, error) {
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = offset + limit - 1
	}

	var (
		zs  []redis.Z
		err error
	)
	if asc {
		zs, err = i.client.ZRangeWithScores(ctx, i.keys.Repeat(), offset, stop).Result()
	} else {
		zs, err = i.client.ZRevRangeWithScores(ctx, i.keys.Repeat(), offset, stop).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("list repeat keys: %w", err)
	}

	entries := make([]repeat.Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected member type %T", repeat.ErrMalformedKey, z.Member)
		}
		entry, err := repeat.ParseIndexKey(member)
		if err != nil {
			return nil, err
		}
		entry.Next = int64(z.Score)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Count returns the number of entries.
func (i *Index) Count(ctx context.Context) (int64, error) {
	n, err := i.client.ZCard(ctx, i.keys.Repeat()).Result()
	if err != nil {
		return 0, fmt.Errorf("count repeat keys: %w", err)
	}
	return n, nil
}
