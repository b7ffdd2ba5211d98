// Package tasks turns asset symbols and a date range into schedulable work
// items, one per contract period.
package tasks

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/3leaps/gofutures/pkg/calendar"
)

// WorkItem is the unit the batch runner schedules.
//
// Context carries whatever the remote operation needs (request parameters,
// output key). The builder and runner never inspect it.
type WorkItem[C any] struct {
	// Index is the item's position in the build output.
	Index int

	// Key identifies the contract period this item covers.
	Key calendar.ContractPeriod

	// Context is the operation-specific payload.
	Context C
}

// ContextFactory builds the operation context for one contract period.
type ContextFactory[C any] func(p calendar.ContractPeriod) C

// Namespacer creates logical output buckets (directories, key prefixes).
//
// EnsureNamespace must be idempotent: creating an existing namespace is not
// an error.
type Namespacer interface {
	EnsureNamespace(ctx context.Context, name string) error
}

// Request describes the work to build.
type Request struct {
	Symbols []string
	Start   time.Time
	End     time.Time

	// Calendar options forwarded to calendar.GenerateContractPeriods.
	Calendar []calendar.Option

	// Namespace maps a period to its output namespace.
	// Nil uses DefaultNamespace.
	Namespace func(p calendar.ContractPeriod) string
}

// DefaultNamespace groups output by asset and contract year ("CL/2023").
func DefaultNamespace(p calendar.ContractPeriod) string {
	return path.Join(p.Asset, strconv.Itoa(p.Year))
}

// Build generates the contract periods for req and returns one work item per
// period.
//
// Each period's namespace is ensured before its item is appended, so workers
// never race on namespace creation. Each distinct namespace is ensured once
// per build. A nil ns skips namespace creation.
//
// Calendar errors such as *calendar.UnsupportedAssetError are returned as-is.
func Build[C any](ctx context.Context, req Request, factory ContextFactory[C], ns Namespacer) ([]WorkItem[C], error) {
	periods, err := calendar.GenerateContractPeriods(req.Symbols, req.Start, req.End, req.Calendar...)
	if err != nil {
		return nil, err
	}

	nameFn := req.Namespace
	if nameFn == nil {
		nameFn = DefaultNamespace
	}

	ensured := make(map[string]bool)
	items := make([]WorkItem[C], 0, len(periods))
	for i, p := range periods {
		if ns != nil {
			name := nameFn(p)
			if !ensured[name] {
				if err := ns.EnsureNamespace(ctx, name); err != nil {
					return nil, fmt.Errorf("ensure namespace %s: %w", name, err)
				}
				ensured[name] = true
			}
		}

		items = append(items, WorkItem[C]{
			Index:   i,
			Key:     p,
			Context: factory(p),
		})
	}
	return items, nil
}
