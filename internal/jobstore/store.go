// Package jobstore persists delayed jobs in Redis. Jobs are keyed by id and
// creation is add-if-absent, so submitting the same id twice yields one job.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/repeatq/internal/logger"
	"github.com/aatumaykin/repeatq/internal/queue"
	"github.com/aatumaykin/repeatq/internal/repeat"
)

var (
	// ErrJobNotFound is returned by Get for unknown ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrMalformedMember is returned when the delayed set holds something
	// other than a job id.
	ErrMalformedMember = errors.New("malformed delayed member")
)

// addJobScript writes the job hash and queues the id unless the hash exists.
//
// KEYS[1] job hash, KEYS[2] delayed set, KEYS[3] wait list
// ARGV[1] id, ARGV[2] name, ARGV[3] data, ARGV[4] opts,
// ARGV[5] timestamp, ARGV[6] delay, ARGV[7] due time
var addJobScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "name", ARGV[2], "data", ARGV[3], "opts", ARGV[4], "timestamp", ARGV[5], "delay", ARGV[6])
if tonumber(ARGV[6]) > 0 then
  redis.call("ZADD", KEYS[2], ARGV[7], ARGV[1])
else
  redis.call("LPUSH", KEYS[3], ARGV[1])
end
return 1
`)

// Job is a stored job.
type Job struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Data      map[string]any    `json:"data,omitempty"`
	Opts      repeat.JobOptions `json:"opts"`
	Timestamp int64             `json:"timestamp"` // unix milliseconds
	Delay     int64             `json:"delay"`     // milliseconds
	Duplicate bool              `json:"-"`         // set by Create when the id already existed
}

// Due returns the time the job becomes runnable.
func (j *Job) Due() time.Time {
	return time.UnixMilli(j.Timestamp + j.Delay)
}

// Pending is a delayed job id with its due time.
type Pending struct {
	ID        string
	DueMillis int64
}

// Store is the job store of one queue.
type Store struct {
	client redis.Cmdable
	keys   queue.Keys
	logger *logger.Logger
}

// New creates a store over client for the queue named by keys.
func New(client redis.Cmdable, keys queue.Keys, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{client: client, keys: keys, logger: log}
}

// Create stores a job. An empty opts.JobID gets a random id; a zero
// opts.Timestamp becomes now. If a job with the same id exists, it is
// returned unchanged with Duplicate set.
func (s *Store) Create(ctx context.Context, name string, data map[string]any, opts repeat.JobOptions) (*Job, error) {
	if opts.JobID == "" {
		opts.JobID = uuid.NewString()
	}
	if opts.Timestamp == 0 {
		opts.Timestamp = time.Now().UnixMilli()
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode job data: %w", err)
	}
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("encode job options: %w", err)
	}

	added, err := addJobScript.Run(ctx, s.client,
		[]string{s.keys.Job(opts.JobID), s.keys.Delayed(), s.keys.Wait()},
		opts.JobID, name, string(dataJSON), string(optsJSON),
		strconv.FormatInt(opts.Timestamp, 10),
		strconv.FormatInt(opts.Delay, 10),
		strconv.FormatInt(opts.Timestamp+opts.Delay, 10),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("create job %s: %w", opts.JobID, err)
	}

	if added == 0 {
		existing, err := s.Get(ctx, opts.JobID)
		if err != nil {
			return nil, err
		}
		existing.Duplicate = true
		s.logger.Debug("job already exists",
			logger.Field{Key: "job_id", Value: opts.JobID},
			logger.Field{Key: "name", Value: name})
		return existing, nil
	}

	s.logger.Debug("job created",
		logger.Field{Key: "job_id", Value: opts.JobID},
		logger.Field{Key: "name", Value: name},
		logger.Field{Key: "delay_ms", Value: opts.Delay})

	return &Job{
		ID:        opts.JobID,
		Name:      name,
		Data:      data,
		Opts:      opts,
		Timestamp: opts.Timestamp,
		Delay:     opts.Delay,
	}, nil
}

// Get loads a job by id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	fields, err := s.client.HGetAll(ctx, s.keys.Job(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	job := &Job{ID: id, Name: fields["name"]}
	if raw := fields["data"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Data); err != nil {
			return nil, fmt.Errorf("decode data of job %s: %w", id, err)
		}
	}
	if raw := fields["opts"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Opts); err != nil {
			return nil, fmt.Errorf("decode options of job %s: %w", id, err)
		}
	}
	if job.Timestamp, err = parseMillis(fields["timestamp"]); err != nil {
		return nil, fmt.Errorf("decode timestamp of job %s: %w", id, err)
	}
	if job.Delay, err = parseMillis(fields["delay"]); err != nil {
		return nil, fmt.Errorf("decode delay of job %s: %w", id, err)
	}
	return job, nil
}

// Delayed lists delayed job ids ordered by due time.
func (s *Store) Delayed(ctx context.Context) ([]Pending, error) {
	zs, err := s.client.ZRangeWithScores(ctx, s.keys.Delayed(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list delayed jobs: %w", err)
	}

	return pendingFromScores(zs)
}

func pendingFromScores(zs []redis.Z) ([]Pending, error) {
	pending := make([]Pending, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: delayed member %v", ErrMalformedMember, z.Member)
		}
		pending = append(pending, Pending{ID: id, DueMillis: int64(z.Score)})
	}
	return pending, nil
}

func parseMillis(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
