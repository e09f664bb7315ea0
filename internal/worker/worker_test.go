package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	wp := NewWorkerPool(4, 16, zerolog.Nop())

	var done atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		wp.Go(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			done.Add(1)
			return nil
		})
	}
	wg.Wait()
	wp.Shutdown()

	assert.Equal(t, int32(10), done.Load())
}

func TestWorkerPoolRunsInlineWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, 1, zerolog.Nop())
	defer wp.Shutdown()

	block := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, wp.Submit(func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}))
	<-started
	assert.True(t, wp.Submit(func(ctx context.Context) error { return nil }))
	assert.False(t, wp.Submit(func(ctx context.Context) error { return nil }))

	ran := false
	wp.Go(context.Background(), func(ctx context.Context) error {
		ran = true
		return errors.New("logged, not returned")
	})
	assert.True(t, ran)
	close(block)
}

func TestWorkerPoolSubmitAfterShutdown(t *testing.T) {
	wp := NewWorkerPool(2, 4, zerolog.Nop())
	wp.Shutdown()
	wp.Shutdown()

	assert.False(t, wp.Submit(func(ctx context.Context) error { return nil }))

	ran := false
	wp.Go(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.True(t, ran)
}
