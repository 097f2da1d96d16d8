package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/joseph-ayodele/tradeslip/internal/metrics"
)

// WorkerQueue runs a Handler over jobs with a fixed pool of workers and a bounded buffer.
type WorkerQueue struct {
	handle  Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
	workers int
	timeout time.Duration

	ch       chan Job
	quit     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	quitOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*WorkerQueue)

func WithWorkers(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *WorkerQueue) { q.metrics = m }
}

func NewWorkerQueue(handle Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		handle:  handle,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		quit:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(i + 1)
		}
	})
}

func (q *WorkerQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Debug("worker started", "worker_id", workerID)

	for job := range q.ch {
		q.metrics.SetQueueDepth(len(q.ch))
		q.run(workerID, job)
	}

	q.logger.Debug("worker stopped", "worker_id", workerID)
}

func (q *WorkerQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("handler panicked", "worker_id", workerID, "path", job.Path, "panic", r)
		}
	}()

	start := time.Now()
	if err := q.handle(ctx, job); err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
		return
	}
	q.logger.Info("processed file successfully", "worker_id", workerID, "path", job.Path,
		"duration_ms", time.Since(start).Milliseconds(), "waited_ms", start.Sub(job.SubmittedAt).Milliseconds())
}

// Enqueue blocks while the buffer is full, until ctx is done or the queue shuts down.
func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.metrics.QueueRejected()
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.metrics.QueueRejected()
			return errors.Wrap(ctx.Err(), "enqueue")
		case <-q.quit:
			q.metrics.QueueRejected()
			return ErrQueueClosed
		}
	}
	q.metrics.SetQueueDepth(len(q.ch))
	q.logger.Debug("queued file for processing", "path", job.Path)
	return nil
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for ctx.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
	q.quitOnce.Do(func() { close(q.quit) })

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
