package service

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

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3)
	assert.Equal(t, 3, pool.Size())

	var count int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(context.Background(), JobFunc(func(context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
			return nil
		})))
	}
	wg.Wait()
	pool.Close()

	assert.Equal(t, int32(50), count)
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2)
	defer pool.Close()

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(context.Background(), JobFunc(func(context.Context) error {
			defer wg.Done()
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil
		})))
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestWorkerPool_DefaultSize(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0)
	defer pool.Close()
	assert.Greater(t, pool.Size(), 0)
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1)
	pool.Close()
	pool.Close() // idempotent

	err := pool.Submit(context.Background(), JobFunc(func(context.Context) error { return nil }))
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestWorkerPool_SubmitCancelled(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1)
	defer pool.Close()

	release := make(chan struct{})
	block := JobFunc(func(context.Context) error {
		<-release
		return nil
	})
	// one running job plus a full queue of two
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(context.Background(), block))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, block)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	close(release)
}
