package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countJob struct {
	counter *int64
}

type countResult struct{}

func (countResult) GetError() error { return nil }

func (j *countJob) Execute(ctx context.Context) Result {
	atomic.AddInt64(j.counter, 1)
	return countResult{}
}

type blockJob struct{}

func (blockJob) Execute(ctx context.Context) Result {
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
	}
	return countResult{}
}

func TestPool_RunsAllJobs(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	var counter int64
	for i := 0; i < 50; i++ {
		pool.Submit(&countJob{counter: &counter})
	}

	results := pool.Wait()

	if got := atomic.LoadInt64(&counter); got != 50 {
		t.Errorf("Expected 50 executions, got %d", got)
	}
	if len(results) != 50 {
		t.Errorf("Expected 50 results, got %d", len(results))
	}
}

func TestPool_SingleWorkerFallback(t *testing.T) {
	pool := NewPool(context.Background(), 0)
	pool.Start()

	var counter int64
	pool.Submit(&countJob{counter: &counter})

	results := pool.Wait()
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

func TestPool_ShutdownCancelsInFlight(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(blockJob{})
	pool.Submit(blockJob{})

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not cancel blocked jobs")
	}
}

func TestPool_ParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()

	pool.Submit(blockJob{})
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Cancelled parent context did not release workers")
	}
}
