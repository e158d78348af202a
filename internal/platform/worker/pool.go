// Package worker provides a generic worker pool for concurrent task execution.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrBackpressure is returned when a job cannot be enqueued because the
// queue is full and the drop policy rejects it.
var ErrBackpressure = errors.New("worker: queue full, job dropped")

// DropPolicy controls what happens when the job queue is full.
type DropPolicy int

const (
	// DropPolicyBlock blocks Submit until queue space is available.
	DropPolicyBlock DropPolicy = iota
	// DropPolicyNewest rejects the incoming job with ErrBackpressure.
	DropPolicyNewest
)

// Job represents a unit of work to be executed by a worker.
type Job struct {
	// ID is an optional identifier for the job (useful for correlating results)
	ID string
	// Execute is the function to run. It receives a context and returns a result and error.
	Execute func(ctx context.Context) (interface{}, error)
}

// Result represents the outcome of a job execution.
type Result struct {
	// JobID is the ID of the job that produced this result
	JobID string
	// Value is the result of the job execution (nil if error)
	Value interface{}
	// Err is the error from job execution (nil if successful)
	Err error
}

// Stats holds pool counters.
type Stats struct {
	JobsSubmitted int64
	JobsCompleted int64
	JobsFailed    int64
	JobsDropped   int64
}

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	// Workers is the number of concurrent workers (default 1)
	Workers int
	// QueueSize is the job queue buffer size (default 0, unbuffered)
	QueueSize int
	// DropPolicy controls behavior when the queue is full (default block)
	DropPolicy DropPolicy
}

// Pool is a worker pool that processes jobs concurrently.
// It maintains a fixed number of worker goroutines that pull jobs from a queue.
// Results are never silently dropped: workers block until the result is
// consumed or the pool shuts down.
type Pool struct {
	workers    int
	dropPolicy DropPolicy
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc

	submitted int64
	completed int64
	failed    int64
	dropped   int64
}

// NewPool creates a new worker pool with the specified number of workers
// and a blocking drop policy.
func NewPool(ctx context.Context, workers int, queueSize int) *Pool {
	return NewPoolWithConfig(ctx, PoolConfig{
		Workers:   workers,
		QueueSize: queueSize,
	})
}

// NewPoolWithConfig creates a new worker pool.
// The pool starts immediately and workers begin waiting for jobs.
func NewPoolWithConfig(ctx context.Context, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}

	poolCtx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers:    cfg.Workers,
		dropPolicy: cfg.DropPolicy,
		jobQueue:   make(chan Job, cfg.QueueSize),
		results:    make(chan Result, cfg.QueueSize),
		ctx:        poolCtx,
		cancel:     cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// worker is the main worker goroutine loop.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			value, err := job.Execute(p.ctx)
			if err != nil {
				atomic.AddInt64(&p.failed, 1)
			} else {
				atomic.AddInt64(&p.completed, 1)
			}
			// Block until consumed; results must not be lost mid-batch
			select {
			case p.results <- Result{JobID: job.ID, Value: value, Err: err}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit adds a job to the pool's queue.
// With DropPolicyBlock it blocks until space is available or the pool's
// context is cancelled. With DropPolicyNewest it behaves like TrySubmit.
func (p *Pool) Submit(job Job) error {
	if p.dropPolicy == DropPolicyNewest {
		return p.TrySubmit(job)
	}

	if err := p.ctx.Err(); err != nil {
		return err
	}

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobQueue <- job:
		atomic.AddInt64(&p.submitted, 1)
		return nil
	}
}

// TrySubmit adds a job to the queue without blocking.
// Returns ErrBackpressure if the queue is full.
func (p *Pool) TrySubmit(job Job) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobQueue <- job:
		atomic.AddInt64(&p.submitted, 1)
		return nil
	default:
		atomic.AddInt64(&p.dropped, 1)
		return ErrBackpressure
	}
}

// SubmitAndWait submits multiple jobs and waits for all their results.
// Results arrive in completion order, not submission order; callers that
// need ordering should correlate by Job.ID.
func (p *Pool) SubmitAndWait(jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	// Submission runs concurrently with collection so batches larger
	// than the queue capacity cannot deadlock.
	submitted := make(chan int, 1)
	go func() {
		n := 0
		for _, job := range jobs {
			if err := p.Submit(job); err != nil {
				break
			}
			n++
		}
		submitted <- n
	}()

	results := make([]Result, 0, len(jobs))
	expected := len(jobs)
	for len(results) < expected {
		select {
		case <-p.ctx.Done():
			return results
		case n := <-submitted:
			expected = n
			submitted = nil
		case result := <-p.results:
			results = append(results, result)
		}
	}

	return results
}

// Results returns the results channel for consuming job results.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close gracefully shuts down the pool.
// It stops accepting new jobs and waits for all workers to finish.
func (p *Pool) Close() {
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
	close(p.results)
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// DropPolicy returns the pool's drop policy.
func (p *Pool) DropPolicy() DropPolicy {
	return p.dropPolicy
}

// QueueLen returns the current number of jobs waiting in the queue.
func (p *Pool) QueueLen() int {
	return len(p.jobQueue)
}

// Stats returns pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		JobsSubmitted: atomic.LoadInt64(&p.submitted),
		JobsCompleted: atomic.LoadInt64(&p.completed),
		JobsFailed:    atomic.LoadInt64(&p.failed),
		JobsDropped:   atomic.LoadInt64(&p.dropped),
	}
}
