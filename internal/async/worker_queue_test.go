package async

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestWorkerQueueProcessesEveryJob(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Path)
		return nil
	}, quiet, WithWorkers(3), WithQueueSize(10))

	for _, p := range []string{"a.pdf", "b.pdf", "c.png", "d.jpg"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	q.Shutdown(context.Background())

	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf", "c.png", "d.jpg"}, seen)
}

func TestWorkerQueueRejectsAfterShutdown(t *testing.T) {
	q := NewWorkerQueue(func(context.Context, Job) error { return nil }, quiet)
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Path: "late.pdf"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	assert.NotPanics(t, func() { q.Shutdown(context.Background()) })
}

func TestWorkerQueueAppliesTimeout(t *testing.T) {
	var timedOut atomic.Bool
	q := NewWorkerQueue(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		timedOut.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	}, quiet, WithWorkers(1), WithProcessTimeout(20*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	q.Shutdown(context.Background())

	assert.True(t, timedOut.Load())
}

func TestWorkerQueueBackpressureHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewWorkerQueue(func(context.Context, Job) error {
		<-release
		return nil
	}, quiet, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(release)
		q.Shutdown(context.Background())
	}()

	// One job in the worker, one in the buffer.
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "1"}))
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "2"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Path: "3"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerQueueSurvivesPanic(t *testing.T) {
	var calls atomic.Int32
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		calls.Add(1)
		if job.Path == "bad" {
			panic("boom")
		}
		return nil
	}, quiet, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "bad"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "good"}))
	q.Shutdown(context.Background())

	assert.Equal(t, int32(2), calls.Load())
}
