package jobs

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/filety/scribe/errors"
	"github.com/filety/scribe/logger"
)

// Submission failures. The queue rejecting under load is expected
// backpressure, not a bug.
var (
	ErrQueueFull  = apperrors.New(apperrors.ErrCodeServiceBusy, "Service is busy. Try again shortly.", http.StatusServiceUnavailable)
	ErrPoolClosed = apperrors.New(apperrors.ErrCodeServiceBusy, "Service is shutting down.", http.StatusServiceUnavailable)
)

// Task is one unit of background work. It must drive its job to a terminal
// state on every path; the pool never retries.
type Task func(ctx context.Context)

// PoolMetrics holds the pool's counters on the global meter provider. When no
// meter provider is installed the instruments are no-ops.
type PoolMetrics struct {
	submitted metric.Int64Counter
	completed metric.Int64Counter
	rejected  metric.Int64Counter
}

// NewPoolMetrics creates the pool's metric instruments.
func NewPoolMetrics() (*PoolMetrics, error) {
	meter := otel.Meter("scribe/jobs")

	submitted, err := meter.Int64Counter("jobs.submitted",
		metric.WithDescription("Jobs accepted into the worker queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.submitted counter: %w", err)
	}
	completed, err := meter.Int64Counter("jobs.completed",
		metric.WithDescription("Job tasks that finished running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.completed counter: %w", err)
	}
	rejected, err := meter.Int64Counter("jobs.rejected",
		metric.WithDescription("Submissions rejected because the queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jobs.rejected counter: %w", err)
	}

	return &PoolMetrics{submitted: submitted, completed: completed, rejected: rejected}, nil
}

// Pool runs tasks on a fixed number of workers fed by a buffered queue.
type Pool struct {
	queue   chan Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	metrics *PoolMetrics
	log     *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers goroutines consuming a queue of queueSize tasks.
func NewPool(workers, queueSize int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	metrics, err := NewPoolMetrics()
	if err != nil {
		log.Warn("pool metrics unavailable", logger.ErrorFields("init", err))
		metrics = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:   make(chan Task, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		metrics: metrics,
		log:     log.WithComponent("worker-pool"),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	p.log.Info("worker pool started", logger.Fields(
		"workers", workers,
		"queue_size", queueSize,
	))
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.queue {
		p.runTask(id, task)
	}
}

func (p *Pool) runTask(worker int, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("task panicked", logger.Fields(
				"worker", worker,
				"panic", fmt.Sprint(rec),
			))
		}
		if p.metrics != nil {
			p.metrics.completed.Add(p.ctx, 1)
		}
	}()
	task(p.ctx)
}

// Submit enqueues a task. A full queue rejects the submission immediately
// instead of blocking the caller.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}

	select {
	case p.queue <- task:
		p.mu.Unlock()
		if p.metrics != nil {
			p.metrics.submitted.Add(p.ctx, 1)
		}
		return nil
	default:
		p.mu.Unlock()
		if p.metrics != nil {
			p.metrics.rejected.Add(p.ctx, 1)
		}
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for queued tasks to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	p.log.Info("worker pool stopped")
}
