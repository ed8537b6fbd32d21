package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	processed := []string{}
	done := make(chan struct{}, 2)

	queue := NewQueue("test", func(_ context.Context, job Job) error {
		mu.Lock()
		processed = append(processed, job.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, Config{Workers: 1})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "j1", Type: "noop"}))
	require.NoError(t, queue.Enqueue(Job{ID: "j2", Type: "noop"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not processed")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"j1", "j2"}, processed)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	queue := NewQueue("test", func(context.Context, Job) error {
		mu.Lock()
		attempts++
		current := attempts
		mu.Unlock()
		if current < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, Config{Workers: 1, MaxRetries: 5, RetryDelay: time.Millisecond})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "j1", Type: "flaky"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed after retries")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	queue := NewQueue("test", func(context.Context, Job) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("permanent")
	}, Config{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	queue.Start(context.Background())

	require.NoError(t, queue.Enqueue(Job{ID: "j1", Type: "broken"}))
	time.Sleep(100 * time.Millisecond)
	queue.Stop()

	mu.Lock()
	defer mu.Unlock()
	// Initial attempt plus two retries.
	assert.Equal(t, 3, attempts)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("test", func(context.Context, Job) error { return nil }, Config{})
	err := queue.Enqueue(Job{ID: "j1"})
	require.Error(t, err)
}

func TestQueueEnqueueWhenFull(t *testing.T) {
	block := make(chan struct{})
	queue := NewQueue("test", func(context.Context, Job) error {
		<-block
		return nil
	}, Config{Workers: 1, QueueSize: 1})
	queue.Start(context.Background())
	defer func() {
		close(block)
		queue.Stop()
	}()

	// First job occupies the worker, second fills the buffer.
	require.NoError(t, queue.Enqueue(Job{ID: "j1"}))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, queue.Enqueue(Job{ID: "j2"}))
	err := queue.Enqueue(Job{ID: "j3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}
