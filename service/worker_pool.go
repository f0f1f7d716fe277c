package service

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrPoolClosed is returned by Submit after Close
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one unit of work run by a WorkerPool
type Job interface {
	Execute(ctx context.Context) error
}

// JobFunc adapts a function to the Job interface
type JobFunc func(ctx context.Context) error

func (f JobFunc) Execute(ctx context.Context) error { return f(ctx) }

// WorkerPool runs jobs on a fixed number of goroutines.
// Queued jobs are drained on Close.
type WorkerPool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWorkerPool starts size workers; size <= 0 means one per CPU
func NewWorkerPool(ctx context.Context, size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2),
		ctx:      poolCtx,
		cancel:   cancel,
	}
	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	log.Debug().Int("workers", size).Msg("Worker pool started")
	return pool
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for job := range p.jobQueue {
		if err := job.Execute(p.ctx); err != nil {
			log.Error().Err(err).Msg("Worker failed to execute job")
		}
	}
}

// Submit queues a job, blocking while the queue is full.
// It gives up when ctx is done or the pool is closed.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobQueue <- job:
		return nil
	}
}

// Close stops accepting jobs, waits for queued ones, then releases the pool
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

// Size returns the number of workers
func (p *WorkerPool) Size() int {
	return p.workers
}
