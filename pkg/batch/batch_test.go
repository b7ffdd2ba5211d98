package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/tasks"
)

func makeItems(n int) []tasks.WorkItem[int] {
	items := make([]tasks.WorkItem[int], n)
	for i := range items {
		items[i] = tasks.WorkItem[int]{
			Index: i,
			Key: calendar.ContractPeriod{
				Asset:         "CL",
				Symbol:        fmt.Sprintf("CL%02d", i),
				CoverageStart: calendar.Date(2023, 1, 1),
				CoverageEnd:   calendar.Date(2023, 2, 1),
			},
			Context: i,
		}
	}
	return items
}

// concurrencyProbe records the highest number of simultaneous calls.
type concurrencyProbe struct {
	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64
}

func (p *concurrencyProbe) enter() {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	for {
		cur := p.peak.Load()
		if n <= cur || p.peak.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (p *concurrencyProbe) exit() { p.inFlight.Add(-1) }

func sumFloat(acc, v float64) float64 { return acc + v }

func TestRun_CollectAllScenario(t *testing.T) {
	failing := map[int]bool{3: true, 11: true, 17: true}
	probe := &concurrencyProbe{}

	op := func(ctx context.Context, item tasks.WorkItem[int]) (float64, error) {
		probe.enter()
		defer probe.exit()
		time.Sleep(5 * time.Millisecond)
		if failing[item.Context] {
			return 0, fmt.Errorf("quote unavailable for %s", item.Key.Symbol)
		}
		return 1.5, nil
	}

	res, err := NewRunner(Config{Concurrency: 5, Mode: CollectAll}, op).
		WithCombine(sumFloat).
		WithDescriber(func(it tasks.WorkItem[int]) string { return "GET " + it.Key.Symbol }).
		Run(context.Background(), makeItems(20))
	require.NoError(t, err)

	assert.Equal(t, 20, res.Total)
	assert.Equal(t, 17, res.Succeeded)
	require.Len(t, res.Failed, 3)
	assert.True(t, res.Complete())
	assert.InDelta(t, 17*1.5, res.Value, 1e-9)
	assert.NotEmpty(t, res.BatchID)

	assert.Equal(t, []string{"CL03", "CL11", "CL17"}, res.FailedSymbols())
	assert.Equal(t, "GET CL03", res.Failed[0].Request)
	assert.Equal(t, "quote unavailable for CL03", res.Failed[0].Error)

	assert.LessOrEqual(t, probe.peak.Load(), int64(5))
	assert.Equal(t, int64(20), probe.calls.Load())
}

func TestRun_NeverExceedsConcurrency(t *testing.T) {
	for _, limit := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			probe := &concurrencyProbe{}
			op := func(ctx context.Context, item tasks.WorkItem[int]) (struct{}, error) {
				probe.enter()
				defer probe.exit()
				time.Sleep(2 * time.Millisecond)
				return struct{}{}, nil
			}

			res, err := NewRunner(Config{Concurrency: limit}, op).Run(context.Background(), makeItems(40))
			require.NoError(t, err)
			assert.Equal(t, 40, res.Succeeded)
			assert.LessOrEqual(t, probe.peak.Load(), int64(limit))
			assert.Equal(t, int64(0), probe.inFlight.Load())
		})
	}
}

func TestRun_PermitsReleasedOnFailureAndPanic(t *testing.T) {
	op := func(ctx context.Context, item tasks.WorkItem[int]) (int, error) {
		switch item.Context % 3 {
		case 0:
			return 0, errors.New("boom")
		case 1:
			panic("unexpected")
		}
		return 1, nil
	}

	// A single permit would deadlock if any exit path leaked it.
	res, err := NewRunner(Config{Concurrency: 1}, op).
		WithCombine(func(a, b int) int { return a + b }).
		Run(context.Background(), makeItems(9))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 3, res.Value)
	require.Len(t, res.Failed, 6)
	assert.True(t, res.Complete())

	var panics int
	for _, f := range res.Failed {
		if f.Index%3 == 1 {
			panics++
			assert.Contains(t, f.Error, ErrOperationPanic.Error())
		}
	}
	assert.Equal(t, 3, panics)
}

func TestRun_FailFast(t *testing.T) {
	boom := errors.New("download failed")
	var started atomic.Int64

	op := func(ctx context.Context, item tasks.WorkItem[int]) (int64, error) {
		started.Add(1)
		if item.Context == 3 {
			return 0, boom
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return 10, nil
		}
	}

	items := makeItems(20)
	res, err := NewRunner(Config{Concurrency: 2, Mode: FailFast}, op).Run(context.Background(), items)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsItemError(err))
	assert.False(t, IsSchedulingError(err))

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "CL03", itemErr.Key.Symbol)
	assert.Equal(t, 3, itemErr.Index)

	require.NotNil(t, res)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "CL03", res.Failed[0].Key.Symbol)

	// Give already-dispatched workers time to drain, then confirm the
	// dispatcher stopped before the end of the batch.
	time.Sleep(50 * time.Millisecond)
	assert.Less(t, started.Load(), int64(len(items)))
}

func TestRun_FailFastAllSucceed(t *testing.T) {
	op := func(ctx context.Context, item tasks.WorkItem[int]) (int64, error) { return 2, nil }
	res, err := NewRunner(Config{Mode: FailFast}, op).
		WithCombine(func(a, b int64) int64 { return a + b }).
		Run(context.Background(), makeItems(12))
	require.NoError(t, err)
	assert.Equal(t, 12, res.Succeeded)
	assert.Equal(t, int64(24), res.Value)
	assert.Empty(t, res.Failed)
}

func TestRun_SchedulingErrorOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	var once sync.Once

	op := func(opCtx context.Context, item tasks.WorkItem[int]) (int, error) {
		once.Do(func() { close(release) })
		<-opCtx.Done()
		return 0, opCtx.Err()
	}

	go func() {
		<-release
		cancel()
	}()

	res, err := NewRunner(Config{Concurrency: 1, Mode: CollectAll}, op).Run(ctx, makeItems(5))
	require.Error(t, err)
	assert.True(t, IsSchedulingError(err))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.False(t, res.Complete())
}

func TestRun_EmptyBatch(t *testing.T) {
	op := func(ctx context.Context, item tasks.WorkItem[int]) (int, error) {
		t.Fatal("op must not be called")
		return 0, nil
	}
	res, err := NewRunner(DefaultConfig(), op).WithBatchID("b-1").Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "b-1", res.BatchID)
	assert.Equal(t, 0, res.Total)
	assert.True(t, res.Complete())
}

func TestRun_ProgressFromCoordinator(t *testing.T) {
	var seen []Progress
	op := func(ctx context.Context, item tasks.WorkItem[int]) (int, error) {
		if item.Context == 0 {
			return 0, errors.New("nope")
		}
		return 1, nil
	}

	_, err := NewRunner(Config{Concurrency: 4}, op).
		WithProgress(func(p Progress) { seen = append(seen, p) }).
		Run(context.Background(), makeItems(6))
	require.NoError(t, err)

	require.Len(t, seen, 6)
	last := seen[len(seen)-1]
	assert.Equal(t, 6, last.Completed)
	assert.Equal(t, 6, last.Total)
	assert.Equal(t, 5, last.Succeeded)
	assert.Equal(t, 1, last.Failed)
}

func TestRun_RateLimit(t *testing.T) {
	op := func(ctx context.Context, item tasks.WorkItem[int]) (int, error) { return 1, nil }

	start := time.Now()
	res, err := NewRunner(Config{Concurrency: 4, RateLimit: 100}, op).Run(context.Background(), makeItems(5))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Succeeded)
	// Burst of one, then 10ms spacing.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(Config{}, func(ctx context.Context, item tasks.WorkItem[int]) (int, error) { return 0, nil })
	assert.Equal(t, DefaultConcurrency, r.cfg.Concurrency)
	assert.Equal(t, CollectAll, r.cfg.Mode)
	assert.Equal(t, "collect-all", CollectAll.String())
	assert.Equal(t, "fail-fast", FailFast.String())
}
