package workers

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/aatumaykin/repeatq/internal/logger"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// WorkerPool manages a pool of goroutine workers for concurrent task execution.
type WorkerPool struct {
	taskQueue chan Task
	resultCh  chan Result
	workers   int
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *logger.Logger

	mu      sync.RWMutex
	metrics PoolMetrics
	closed  bool
}

// NewPool creates a worker pool. Non-positive sizes fall back to defaults.
func NewPool(workers int, bufferSize int, log *logger.Logger) *WorkerPool {
	return NewPoolContext(context.Background(), workers, bufferSize, log)
}

// NewPoolContext is NewPool with tasks running under a context derived from parent.
func NewPoolContext(parent context.Context, workers int, bufferSize int, log *logger.Logger) *WorkerPool {
	if workers <= 0 {
		workers = DefaultPoolSize
	}
	if bufferSize < 0 {
		bufferSize = DefaultQueueSize
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &WorkerPool{
		taskQueue: make(chan Task, bufferSize),
		resultCh:  make(chan Result, bufferSize),
		workers:   workers,
		ctx:       ctx,
		cancel:    cancel,
		logger:    log,
	}
}

// Start initializes and starts all worker goroutines.
func (p *WorkerPool) Start() {
	p.logger.Debug("starting worker pool",
		logger.Field{Key: "workers", Value: p.workers},
		logger.Field{Key: "buffer_size", Value: cap(p.taskQueue)})

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task. It blocks while the queue is full until ctx is done.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.metrics.TasksSubmitted++
	p.mu.Unlock()

	select {
	case p.taskQueue <- task:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		p.metrics.TasksSubmitted--
		p.mu.Unlock()
		return ctx.Err()
	}
}

// Results returns a read-only channel for receiving task results. It is
// closed once every queued task has finished after Close or Stop.
func (p *WorkerPool) Results() <-chan Result {
	return p.resultCh
}

// Close stops accepting tasks and lets the workers drain the queue. The
// results channel is closed when the last task is done.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.taskQueue)
	go func() {
		p.wg.Wait()
		close(p.resultCh)
	}()
}

// Stop cancels the pool context, so queued tasks finish with its error, and
// waits for the workers to exit. Results must still be drained by the caller
// when the queue holds more tasks than the results buffer.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.Close()
	p.wg.Wait()

	m := p.Metrics()
	p.logger.Debug("worker pool stopped",
		logger.Field{Key: "tasks_submitted", Value: m.TasksSubmitted},
		logger.Field{Key: "tasks_completed", Value: m.TasksCompleted},
		logger.Field{Key: "tasks_failed", Value: m.TasksFailed})
}

// WorkerCount returns the number of workers.
func (p *WorkerPool) WorkerCount() int {
	return p.workers
}

// Metrics returns the current pool metrics.
func (p *WorkerPool) Metrics() PoolMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metrics
}

// RunAll executes tasks on a fresh pool of size workers and returns their
// results in task order.
func RunAll(ctx context.Context, workers int, tasks []Task, log *logger.Logger) []Result {
	pool := NewPoolContext(ctx, workers, len(tasks), log)
	pool.Start()

	results := make([]Result, len(tasks))
	for i, task := range tasks {
		// Positions key the results so duplicate ids cannot collide.
		slot := Task{ID: strconv.Itoa(i), Run: task.Run}
		if err := pool.Submit(ctx, slot); err != nil {
			results[i] = Result{TaskID: task.ID, Error: err}
		}
	}
	pool.Close()

	for r := range pool.Results() {
		i, _ := strconv.Atoi(r.TaskID)
		r.TaskID = tasks[i].ID
		results[i] = r
	}
	pool.Stop()
	return results
}
