package batch

import (
	"sort"
	"time"

	"github.com/3leaps/gofutures/pkg/calendar"
)

// FailureRecord captures one failed item for diagnostics. Failed items are
// never retried by the runner.
type FailureRecord struct {
	Index   int                     `json:"index"`
	Key     calendar.ContractPeriod `json:"key"`
	Request string                  `json:"request"`
	Error   string                  `json:"error"`
}

// Result is the accumulated outcome of a batch.
//
// The runner owns a Result until Run returns it; callers should treat it as
// read-only afterwards.
type Result[V any] struct {
	// BatchID correlates logs and output records for this batch.
	BatchID string

	// Total is the number of submitted items.
	Total int

	// Succeeded counts items whose operation returned no error.
	Succeeded int

	// Failed lists failed items, sorted by submission index.
	Failed []FailureRecord

	// Value is the fold of every successful item's value.
	Value V

	// Duration is the wall time of the batch.
	Duration time.Duration
}

// Complete reports whether every item reached a terminal state.
func (r *Result[V]) Complete() bool {
	return r.Succeeded+len(r.Failed) == r.Total
}

// FailedSymbols returns the contract symbols of failed items in order.
func (r *Result[V]) FailedSymbols() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Key.Symbol)
	}
	return out
}

func (r *Result[V]) finalize(started time.Time) {
	sort.Slice(r.Failed, func(i, j int) bool { return r.Failed[i].Index < r.Failed[j].Index })
	r.Duration = time.Since(started)
}
