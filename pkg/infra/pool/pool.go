// Package pool wraps ants worker pools with stats and panic recovery.
package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config defines the configuration for a worker pool.
type Config struct {
	// Capacity is the maximum number of concurrent goroutines.
	Capacity int
	// ExpiryDuration is the idle lifetime of a worker goroutine.
	ExpiryDuration time.Duration
	// Nonblocking makes Submit return an error instead of waiting
	// when the pool is full.
	Nonblocking bool
	// MaxBlockingTasks caps queued tasks when Nonblocking is false.
	// Zero means unlimited.
	MaxBlockingTasks int
	// PanicHandler handles panics escaping a task. When nil, panics
	// are logged and swallowed.
	PanicHandler func(any)
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() *Config {
	return &Config{
		Capacity:       100,
		ExpiryDuration: 10 * time.Second,
	}
}

// UploadConfig returns the configuration for object storage upload
// fan-out. Uploads are short and network bound, a small pool is enough.
func UploadConfig() *Config {
	return &Config{
		Capacity:       16,
		ExpiryDuration: 30 * time.Second,
	}
}

// Pool is a named worker pool.
type Pool struct {
	name   string
	pool   *ants.Pool
	closed atomic.Bool

	submitted atomic.Int64
	completed atomic.Int64
	panics    atomic.Int64
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Submitted int64
	Completed int64
	Panics    int64
	Running   int
	Free      int
}

// New creates a worker pool.
func New(name string, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pool{name: name}

	opts := []ants.Option{
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithMaxBlockingTasks(config.MaxBlockingTasks),
	}
	handler := config.PanicHandler
	opts = append(opts, ants.WithPanicHandler(func(r any) {
		p.panics.Add(1)
		if handler != nil {
			handler(r)
			return
		}
		logger.Errorw("Worker panic recovered", "pool", name, "panic", r)
	}))

	inner, err := ants.NewPool(config.Capacity, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	p.pool = inner

	return p, nil
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// ErrPoolClosed is returned by Submit after Release.
var ErrPoolClosed = errors.New("pool is closed")

// Submit schedules task on the pool.
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	p.submitted.Add(1)
	err := p.pool.Submit(func() {
		defer p.completed.Add(1)
		task()
	})
	if err != nil {
		return fmt.Errorf("failed to submit task to pool %s: %w", p.name, err)
	}
	return nil
}

// Map runs fn over n indexes on the pool and waits for all of them.
// Results land in index-addressed slots, so output order matches input
// order regardless of scheduling. Tasks that could not be scheduled run
// inline.
func (p *Pool) Map(n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		i := i
		if err := p.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			fn(i)
			wg.Done()
		}
	}
	wg.Wait()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panics:    p.panics.Load(),
		Running:   p.pool.Running(),
		Free:      p.pool.Free(),
	}
}

// Release shuts the pool down. Submit fails afterwards.
func (p *Pool) Release() {
	if p.closed.CompareAndSwap(false, true) {
		p.pool.Release()
	}
}
