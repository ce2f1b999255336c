// Package worker runs background sync jobs on a bounded queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull  = errors.New("job queue is full")
	ErrPoolClosed = errors.New("worker pool is closed")
)

// Job is one unit of background work
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs submitted jobs on a fixed number of workers. Submit never
// blocks; a full queue rejects the job.
type Pool struct {
	jobs    chan Job
	workers int
	logger  *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewPool creates a pool with the given worker count and queue capacity
func NewPool(workers, queueSize int, logger *logrus.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for w := 0; w < p.workers; w++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(workerID, job)
			}
		}(w)
	}
}

// Submit queues job for execution
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		p.logger.WithField("job", job.Name).Warn("Job queue full, dropping job")
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When
// ctx expires first, running jobs see their context cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func (p *Pool) run(workerID int, job Job) {
	start := time.Now()
	fields := logrus.Fields{"worker": workerID, "job": job.Name}

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(fields).WithError(fmt.Errorf("panic: %v", r)).Error("Job panicked")
		}
	}()

	if err := job.Run(p.ctx); err != nil {
		p.logger.WithFields(fields).WithError(err).Warn("Job failed")
		return
	}
	fields["duration_ms"] = time.Since(start).Milliseconds()
	p.logger.WithFields(fields).Debug("Job completed")
}
