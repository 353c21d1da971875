// Package workers runs independent tasks on a bounded pool of goroutines and
// reports one result per task. It is used to schedule many repeatable jobs
// concurrently against the same backend.
package workers

import (
	"context"
	"time"
)

// TaskFunc executes one task. The returned string is a short summary.
type TaskFunc func(ctx context.Context) (string, error)

// Task represents a unit of work to be executed by a worker.
type Task struct {
	ID  string   // Unique task identifier
	Run TaskFunc // Work to execute
}

// Result represents the outcome of a task execution.
type Result struct {
	TaskID   string        // ID of the executed task
	Output   string        // Task output
	Error    error         // Error if execution failed
	Duration time.Duration // Execution duration
}

// PoolMetrics tracks execution metrics for the worker pool.
type PoolMetrics struct {
	TasksSubmitted uint64
	TasksCompleted uint64
	TasksFailed    uint64
	TotalDuration  time.Duration
}

const (
	DefaultPoolSize  = 4
	DefaultQueueSize = 64
)
