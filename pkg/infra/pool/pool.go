package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Type defines the type of worker pool.
type Type string

const (
	// DefaultPool is the general purpose pool.
	DefaultPool Type = "default"
	// ValidationPool runs CPU-only record validation during bulk calls.
	ValidationPool Type = "validation"
)

// Config defines the configuration for the worker pool.
type Config struct {
	// Capacity is the maximum number of concurrently running goroutines.
	Capacity int
	// ExpiryDuration is how long an idle worker is kept.
	ExpiryDuration time.Duration
	// PreAlloc pre-allocates the worker queue.
	PreAlloc bool
	// Nonblocking makes Submit fail with ErrPoolOverload instead of waiting.
	Nonblocking bool
	// MaxBlockingTasks bounds waiting submitters when Nonblocking is false (0 = unbounded).
	MaxBlockingTasks int
	// PanicHandler overrides the default panic logging.
	PanicHandler func(any)
}

// DefaultPoolConfig returns the default pool configuration.
func DefaultPoolConfig() *Config {
	return &Config{
		Capacity:       1000,
		ExpiryDuration: 10 * time.Second,
	}
}

// ValidationPoolConfig returns a blocking pool sized for per-record validation.
func ValidationPoolConfig(capacity int) *Config {
	return &Config{
		Capacity:       capacity,
		ExpiryDuration: 30 * time.Second,
		PreAlloc:       true,
	}
}

// Pool represents a worker pool.
type Pool struct {
	name     string
	typ      Type
	pool     *ants.Pool
	config   *Config
	stats    statsCounter
	closed   atomic.Bool
	closedMu sync.Mutex
}

type statsCounter struct {
	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

// Stats contains statistics about the worker pool.
type Stats struct {
	SubmittedTasks int64
	CompletedTasks int64
	RejectedTasks  int64
	PanicRecovered int64
}

// NewPool creates a new worker pool with the given configuration.
func NewPool(name string, typ Type, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidPoolConfig, config.Capacity)
	}

	p := &Pool{
		name:   name,
		typ:    typ,
		config: config,
	}

	pool, err := ants.NewPool(config.Capacity, p.antsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = pool

	logger.Infow("Worker pool created",
		"name", name,
		"type", string(typ),
		"capacity", config.Capacity,
	)

	return p, nil
}

func (p *Pool) antsOptions() []ants.Option {
	handler := p.config.PanicHandler
	if handler == nil {
		handler = func(v any) {
			logger.Errorw("Worker panic recovered", "pool", p.name, "panic", v)
		}
	}

	return []ants.Option{
		ants.WithExpiryDuration(p.config.ExpiryDuration),
		ants.WithPreAlloc(p.config.PreAlloc),
		ants.WithNonblocking(p.config.Nonblocking),
		ants.WithMaxBlockingTasks(p.config.MaxBlockingTasks),
		ants.WithPanicHandler(func(v any) {
			p.stats.panics.Add(1)
			handler(v)
		}),
	}
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Type returns the pool type.
func (p *Pool) Type() Type {
	return p.typ
}

// Cap returns the pool capacity.
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Running returns the number of running workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Submit submits a task to the pool.
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		p.stats.submitted.Add(1)
		task()
		p.stats.completed.Add(1)
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.rejected.Add(1)
			return ErrPoolOverload
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}

	return nil
}

// ForEach runs fn(i) for every i in [0, n) on the pool and waits for all of
// them. A task that cannot be submitted runs on the calling goroutine, so
// every index is always visited exactly once. Indices not yet started when
// ctx is done are skipped and ctx.Err() is returned.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int)) error {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}

		i := i
		wg.Add(1)
		run := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			fn(i)
		}
		if err := p.Submit(run); err != nil {
			run()
		}
	}
	wg.Wait()

	return ctx.Err()
}

// Release closes the pool and releases resources.
func (p *Pool) Release() {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	if p.closed.Load() {
		return
	}

	p.closed.Store(true)
	p.pool.Release()
	logger.Infow("Worker pool released", "name", p.name)
}

// Stats returns a snapshot of the pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		SubmittedTasks: p.stats.submitted.Load(),
		CompletedTasks: p.stats.completed.Load(),
		RejectedTasks:  p.stats.rejected.Load(),
		PanicRecovered: p.stats.panics.Load(),
	}
}
