package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

type WorkerPool struct {
	taskQueue chan Task
	wg        sync.WaitGroup
	mu        sync.RWMutex // guards sends against close
	isClosing atomic.Bool  // thread-safe value
	logger    zerolog.Logger
}

func NewWorkerPool(size, queue int, logger zerolog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{
		taskQueue: make(chan Task, queue),
		logger:    logger.With().Str("component", "worker").Logger(),
	}

	// Start the workers
	for range size {
		wp.wg.Add(1) // add to WaitGroup
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done() // signal when worker finished
	for task := range wp.taskQueue {
		wp.run(context.Background(), task)
	}
}

func (wp *WorkerPool) run(ctx context.Context, task Task) {
	if err := task(ctx); err != nil {
		wp.logger.Debug().Err(err).Msg("worker task failed")
	}
}

// Submit queues t. It reports false when the pool is shutting down or the
// queue is full, in which case t was not queued.
func (wp *WorkerPool) Submit(t Task) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.isClosing.Load() {
		return false
	}
	select {
	case wp.taskQueue <- t: // send task to worker pool
		return true
	default:
		return false
	}
}

// Go queues t, or runs it on the calling goroutine when the queue cannot
// take it. The task always runs exactly once.
func (wp *WorkerPool) Go(ctx context.Context, t Task) {
	if wp.Submit(t) {
		return
	}
	if wp.isClosing.Load() {
		wp.logger.Debug().Msg("pool shut down, running task inline")
	} else {
		wp.logger.Debug().Msg("task queue full, running task inline")
	}
	wp.run(ctx, t)
}

// Shutdown closes the queue and waits for workers to finish
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.isClosing.Swap(true) {
		wp.mu.Unlock()
		return
	}
	close(wp.taskQueue) // Stop accepting new tasks
	wp.mu.Unlock()
	wp.wg.Wait() // Wait for all active workers to finish tasks
}
