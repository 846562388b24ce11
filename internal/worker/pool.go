package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"butterfly/internal/metrics"

	"github.com/rs/zerolog"
)

// Task is one unit of background work. The context carries the per-task timeout.
type Task func(ctx context.Context) error

type job struct {
	name string
	fn   Task
}

// Pool runs fire-and-forget tasks on a fixed number of goroutines fed by a
// bounded queue. Submit never blocks: when the queue is full the task is
// dropped and logged. Task errors are logged and counted, never retried.
type Pool struct {
	queue   chan job
	workers int
	timeout time.Duration
	logger  *zerolog.Logger

	mu      sync.Mutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewPool(workers, queueSize int, timeout time.Duration, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Pool{
		queue:   make(chan job, queueSize),
		workers: workers,
		timeout: timeout,
		logger:  logger,
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

	p.logger.Info().Int("workers", p.workers).Int("queue", cap(p.queue)).Msg("worker pool started")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop()
	}
}

// Submit enqueues fn and reports whether it was accepted.
func (p *Pool) Submit(name string, fn Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn().Str("task", name).Msg("worker pool stopped, task dropped")
		metrics.IncWorkerTask("dropped")
		return false
	}

	select {
	case p.queue <- job{name: name, fn: fn}:
		return true
	default:
		p.logger.Warn().Str("task", name).Msg("worker queue full, dropped")
		metrics.IncWorkerTask("dropped")
		return false
	}
}

// Stop closes the queue and waits for queued tasks to finish or ctx to expire.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info().Msg("worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

// Pending returns the number of queued tasks.
func (p *Pool) Pending() int {
	return len(p.queue)
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for j := range p.queue {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Str("task", j.name).Interface("panic", r).Msg("worker task panicked")
			metrics.IncWorkerTask("panic")
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		p.logger.Error().Err(err).Str("task", j.name).Dur("duration", time.Since(start)).Msg("worker task failed")
		metrics.IncWorkerTask("error")
		return
	}
	p.logger.Debug().Str("task", j.name).Dur("duration", time.Since(start)).Msg("worker task done")
	metrics.IncWorkerTask("ok")
}
