// Package parallel runs independent jobs, such as per-class exports and
// comparisons, on a bounded set of workers.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Config bounds a parallel run.
type Config struct {
	// Workers is the number of concurrent workers; 0 means DefaultConfig.
	Workers int
	// Timeout bounds the whole run; 0 means none.
	Timeout time.Duration
}

// DefaultConfig uses one worker per CPU, between 2 and 8.
func DefaultConfig() Config {
	return Config{Workers: min(max(runtime.NumCPU(), 2), 8)}
}

// WithWorkers returns a copy of c with n workers.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// WithTimeout returns a copy of c with a run timeout.
func (c Config) WithTimeout(d time.Duration) Config {
	c.Timeout = d
	return c
}

// Result is the outcome of one job.
type Result[T any, R any] struct {
	Input    T
	Value    R
	Err      error
	Duration time.Duration
}

// Stats summarizes a run.
type Stats struct {
	Total   int
	Failed  int
	Elapsed time.Duration
	Slowest time.Duration
}

// Map applies fn to every input and returns the results in input order.
// Jobs that never started because ctx ended carry ctx.Err().
func Map[T any, R any](ctx context.Context, inputs []T, cfg Config, fn func(ctx context.Context, input T) (R, error)) ([]Result[T, R], Stats) {
	stats := Stats{Total: len(inputs)}
	if len(inputs) == 0 {
		return nil, stats
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	results := make([]Result[T, R], len(inputs))
	started := make([]bool, len(inputs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range min(cfg.Workers, len(inputs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				t0 := time.Now()
				v, err := fn(ctx, inputs[idx])
				results[idx] = Result[T, R]{Input: inputs[idx], Value: v, Err: err, Duration: time.Since(t0)}
			}
		}()
	}

feed:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
			started[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	for i := range results {
		if !started[i] {
			results[i] = Result[T, R]{Input: inputs[i], Err: ctx.Err()}
		}
		if results[i].Err != nil {
			stats.Failed++
		}
		stats.Slowest = max(stats.Slowest, results[i].Duration)
	}
	stats.Elapsed = time.Since(start)
	return results, stats
}

// ForEach runs fn for every item and returns how many succeeded. All
// failures are combined into one error.
func ForEach[T any](ctx context.Context, items []T, cfg Config, fn func(ctx context.Context, item T) error) (int, error) {
	results, _ := Map(ctx, items, cfg, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})

	var merr *multierror.Error
	ok := 0
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, r.Err)
			continue
		}
		ok++
	}
	return ok, merr.ErrorOrNil()
}

// Progress reports completed jobs on a fixed interval until stopped.
type Progress struct {
	total     int64
	completed atomic.Int64
	callback  func(completed, total int64)
	interval  time.Duration
	stopCh    chan struct{}
	stopped   atomic.Bool
}

// NewProgress creates a Progress; interval defaults to 500ms.
func NewProgress(total int64, callback func(completed, total int64), interval time.Duration) *Progress {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Progress{total: total, callback: callback, interval: interval, stopCh: make(chan struct{})}
}

// Start reports in a background goroutine until Stop or ctx ends.
func (p *Progress) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-ticker.C:
				if p.callback != nil {
					p.callback(p.completed.Load(), p.total)
				}
			}
		}
	}()
}

// Increment records one completed job.
func (p *Progress) Increment() {
	p.completed.Add(1)
}

// Stop ends reporting and sends a final report. Later calls do nothing.
func (p *Progress) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopCh)
		if p.callback != nil {
			p.callback(p.completed.Load(), p.total)
		}
	}
}

// Completed returns the number of completed jobs.
func (p *Progress) Completed() int64 {
	return p.completed.Load()
}
