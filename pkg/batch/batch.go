// Package batch executes work items with a fixed concurrency ceiling and
// aggregates their outcomes.
//
// A Runner gates items through a FIFO permit pool. Workers send outcomes to
// a single coordinating goroutine (the caller of Run), which is the only
// writer of the Result. Two completion policies are supported:
//   - FailFast: return on the first item error and stop starting new items
//   - CollectAll: run every item and record failures in the Result
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/tasks"
)

// Mode selects the batch completion policy.
type Mode int

const (
	// CollectAll runs every item and records per-item failures.
	CollectAll Mode = iota

	// FailFast aborts the batch on the first item failure.
	FailFast
)

// String returns the mode name.
func (m Mode) String() string {
	if m == FailFast {
		return "fail-fast"
	}
	return "collect-all"
}

// DefaultConcurrency is the permit pool size when none is configured.
const DefaultConcurrency = 10

// Config configures a Runner.
type Config struct {
	// Concurrency is the maximum number of operations in flight.
	// Default: 10
	Concurrency int

	// Mode is the completion policy.
	// Default: CollectAll
	Mode Mode

	// RateLimit caps operation starts per second. Zero means unlimited.
	RateLimit float64
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: DefaultConcurrency,
		Mode:        CollectAll,
	}
}

// Op performs the remote operation for one item. It must be safe to call
// from multiple goroutines.
type Op[C, V any] func(ctx context.Context, item tasks.WorkItem[C]) (V, error)

// CombineFunc folds a successful item's value into the accumulator.
type CombineFunc[V any] func(acc, v V) V

// DescribeFunc renders the remote request an item attempts, for reports.
type DescribeFunc[C any] func(item tasks.WorkItem[C]) string

// Progress is reported to the progress callback after each item completes.
type Progress struct {
	Completed int
	Total     int
	Succeeded int
	Failed    int

	// Last is the contract of the item that just completed.
	Last calendar.ContractPeriod

	// Err is the item's error, if it failed.
	Err error
}

// Runner executes work items with bounded concurrency.
//
// A Runner may be reused; each Run call gets a fresh permit pool and Result.
type Runner[C, V any] struct {
	cfg      Config
	op       Op[C, V]
	combine  CombineFunc[V]
	describe DescribeFunc[C]
	progress func(Progress)
	batchID  string
}

// NewRunner creates a runner for op. Zero config values take defaults.
func NewRunner[C, V any](cfg Config, op Op[C, V]) *Runner[C, V] {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Runner[C, V]{cfg: cfg, op: op}
}

// WithCombine sets the fold for successful values. Without it Result.Value
// stays at its zero value.
func (r *Runner[C, V]) WithCombine(fn CombineFunc[V]) *Runner[C, V] {
	r.combine = fn
	return r
}

// WithDescriber sets how failed requests are described in FailureRecords.
// The default is the contract symbol.
func (r *Runner[C, V]) WithDescriber(fn DescribeFunc[C]) *Runner[C, V] {
	r.describe = fn
	return r
}

// WithProgress sets a callback invoked from the coordinating goroutine after
// each item completes.
func (r *Runner[C, V]) WithProgress(fn func(Progress)) *Runner[C, V] {
	r.progress = fn
	return r
}

// WithBatchID sets the batch correlation ID. The default is a random UUID.
func (r *Runner[C, V]) WithBatchID(id string) *Runner[C, V] {
	r.batchID = id
	return r
}

// outcome carries one worker result to the coordinator.
type outcome[C, V any] struct {
	item  tasks.WorkItem[C]
	value V
	err   error
}

// Run executes items and returns the aggregated result.
//
// In FailFast mode the first item error is returned as an *ItemError along
// with the partial result; in-flight operations see a cancelled context and
// their results are discarded. In CollectAll mode item errors never fail
// the call. Both modes return a *SchedulingError if a permit or rate-limit
// slot cannot be obtained, e.g. because ctx ended.
func (r *Runner[C, V]) Run(ctx context.Context, items []tasks.WorkItem[C]) (*Result[V], error) {
	started := time.Now()

	batchID := r.batchID
	if batchID == "" {
		batchID = uuid.New().String()
	}
	res := &Result[V]{
		BatchID: batchID,
		Total:   len(items),
		Failed:  []FailureRecord{},
	}
	if len(items) == 0 {
		res.finalize(started)
		return res, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to len(items) so workers never block after the coordinator
	// has returned early.
	outcomes := make(chan outcome[C, V], len(items))
	schedErr := make(chan error, 1)
	go r.dispatch(runCtx, items, outcomes, schedErr)

	completed := 0
	for o := range outcomes {
		completed++
		if o.err != nil {
			failure := r.failure(o)
			res.Failed = append(res.Failed, failure)
			r.notify(res, completed, o)

			if r.cfg.Mode == FailFast {
				cancel()
				res.finalize(started)
				return res, &ItemError{Index: failure.Index, Key: failure.Key, Request: failure.Request, Err: o.err}
			}
			continue
		}

		res.Succeeded++
		if r.combine != nil {
			res.Value = r.combine(res.Value, o.value)
		}
		r.notify(res, completed, o)
	}

	res.finalize(started)

	select {
	case err := <-schedErr:
		return res, &SchedulingError{Err: err}
	default:
	}
	return res, nil
}

// dispatch starts one worker per item once a permit is held. It closes out
// after every started worker has reported.
func (r *Runner[C, V]) dispatch(ctx context.Context, items []tasks.WorkItem[C], out chan<- outcome[C, V], schedErr chan<- error) {
	sem := semaphore.NewWeighted(int64(r.cfg.Concurrency))

	var limiter *rate.Limiter
	if r.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.RateLimit), 1)
	}

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		close(out)
	}()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			schedErr <- err
			return
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			schedErr <- fmt.Errorf("acquire permit: %w", err)
			return
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				sem.Release(1)
				schedErr <- fmt.Errorf("rate limit wait: %w", err)
				return
			}
		}

		wg.Add(1)
		go func(it tasks.WorkItem[C]) {
			defer wg.Done()
			defer sem.Release(1)

			v, err := r.invoke(ctx, it)
			out <- outcome[C, V]{item: it, value: v, err: err}
		}(item)
	}
}

// invoke calls op, converting a panic into an item error.
func (r *Runner[C, V]) invoke(ctx context.Context, item tasks.WorkItem[C]) (v V, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrOperationPanic, p)
		}
	}()
	return r.op(ctx, item)
}

func (r *Runner[C, V]) failure(o outcome[C, V]) FailureRecord {
	request := o.item.Key.Symbol
	if r.describe != nil {
		request = r.describe(o.item)
	}
	return FailureRecord{
		Index:   o.item.Index,
		Key:     o.item.Key,
		Request: request,
		Error:   o.err.Error(),
	}
}

func (r *Runner[C, V]) notify(res *Result[V], completed int, o outcome[C, V]) {
	if r.progress == nil {
		return
	}
	r.progress(Progress{
		Completed: completed,
		Total:     res.Total,
		Succeeded: res.Succeeded,
		Failed:    len(res.Failed),
		Last:      o.item.Key,
		Err:       o.err,
	})
}
