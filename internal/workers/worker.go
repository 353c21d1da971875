package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/aatumaykin/repeatq/internal/logger"
)

// worker processes tasks until the queue is closed.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for task := range p.taskQueue {
		p.processTask(id, task)
	}
}

// processTask handles a single task execution with metrics and error handling.
func (p *WorkerPool) processTask(workerID int, task Task) {
	start := time.Now()

	result := p.execute(p.ctx, task)
	result.Duration = time.Since(start)

	p.mu.Lock()
	if result.Error != nil {
		p.metrics.TasksFailed++
	} else {
		p.metrics.TasksCompleted++
	}
	p.metrics.TotalDuration += result.Duration
	p.mu.Unlock()

	p.resultCh <- result

	p.logger.Debug("task processed",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "duration_ms", Value: result.Duration.Milliseconds()},
		logger.Field{Key: "error", Value: result.Error})
}

// execute runs the task, turning a panic into an error.
func (p *WorkerPool) execute(ctx context.Context, task Task) (result Result) {
	result.TaskID = task.ID

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}
	if task.Run == nil {
		result.Error = fmt.Errorf("task %s has nothing to run", task.ID)
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("panic during task execution: %v", r)
			p.logger.Error("task panic recovered", result.Error,
				logger.Field{Key: "task_id", Value: task.ID})
		}
	}()

	result.Output, result.Error = task.Run(ctx)
	return result
}
