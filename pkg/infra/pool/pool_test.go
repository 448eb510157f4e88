package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("validation", ValidationPool, ValidationPoolConfig(8))
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, "validation", p.Name())
	assert.Equal(t, ValidationPool, p.Type())
	assert.Equal(t, 8, p.Cap())
}

func TestNewPoolRejectsZeroCapacity(t *testing.T) {
	_, err := NewPool("bad", DefaultPool, &Config{Capacity: 0})
	assert.ErrorIs(t, err, ErrInvalidPoolConfig)
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{Capacity: 10, ExpiryDuration: 5 * time.Second})
	require.NoError(t, err)
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()

	assert.EqualValues(t, 100, counter.Load())
}

func TestPoolForEachVisitsEveryIndex(t *testing.T) {
	p, err := NewPool("test", ValidationPool, ValidationPoolConfig(4))
	require.NoError(t, err)
	defer p.Release()

	results := make([]int, 50)
	err = p.ForEach(context.Background(), len(results), func(i int) {
		results[i] = i * i
	})
	require.NoError(t, err)

	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestPoolForEachAfterRelease(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{Capacity: 2})
	require.NoError(t, err)
	p.Release()

	var visited atomic.Int32
	require.NoError(t, p.ForEach(context.Background(), 5, func(int) { visited.Add(1) }))
	assert.EqualValues(t, 5, visited.Load())

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestPoolForEachCancelled(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{Capacity: 2})
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var visited atomic.Int32
	err = p.ForEach(ctx, 10, func(int) { visited.Add(1) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, visited.Load())
}

func TestPoolPanicIsRecovered(t *testing.T) {
	recovered := make(chan any, 1)
	p, err := NewPool("test", DefaultPool, &Config{
		Capacity:     1,
		PanicHandler: func(v any) { recovered <- v },
	})
	require.NoError(t, err)
	defer p.Release()

	require.NoError(t, p.Submit(func() { panic("boom") }))

	select {
	case v := <-recovered:
		assert.Equal(t, "boom", v)
	case <-time.After(2 * time.Second):
		t.Fatal("panic handler was not called")
	}
	assert.EqualValues(t, 1, p.Stats().PanicRecovered)
}
