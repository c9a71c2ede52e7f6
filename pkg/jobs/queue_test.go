package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed int64
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt64(&processed, 1) == 3 {
			close(done)
		}
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "j", Type: "noop"}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs not processed in time")
	}
	assert.Equal(t, int64(3), atomic.LoadInt64(&processed))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "j"})
	require.Error(t, err)
}

func TestQueueRetriesThenDrops(t *testing.T) {
	var attempts int64
	var mu sync.Mutex
	var dropped []Job
	jobDone := make(chan struct{})

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt64(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
		OnDrop: func(job Job, err error) {
			mu.Lock()
			dropped = append(dropped, job)
			mu.Unlock()
			close(jobDone)
		},
	})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "fail"}))

	select {
	case <-jobDone:
	case <-time.After(2 * time.Second):
		t.Fatal("job never dropped")
	}

	// initial attempt plus MaxRetries retries
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, dropped, 1)
	assert.Equal(t, "j1", dropped[0].ID)
	assert.Equal(t, 3, dropped[0].Attempt)
}

func TestBackoffCapsAtMaxDelay(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{
		RetryDelay:    time.Second,
		MaxRetryDelay: 4 * time.Second,
	})

	assert.Equal(t, time.Second, q.backoff(1))
	assert.Equal(t, 2*time.Second, q.backoff(2))
	assert.Equal(t, 4*time.Second, q.backoff(3))
	assert.Equal(t, 4*time.Second, q.backoff(10))
}
