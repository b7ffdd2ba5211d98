package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/provider"
	"github.com/3leaps/gofutures/pkg/tasks"
)

// InventoryEntry reports whether a contract's data is stored.
type InventoryEntry struct {
	Period  calendar.ContractPeriod
	Key     string
	Present bool
	Object  provider.ObjectSummary
}

// Inventory lists the contracts in plan and matches them against stored
// objects, one List per namespace.
func (s *Service) Inventory(ctx context.Context, plan Plan) ([]InventoryEntry, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	items, err := tasks.Build(ctx, s.request(plan), s.factory, nil)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]provider.ObjectSummary)
	listed := make(map[string]bool)
	for _, it := range items {
		ns := tasks.DefaultNamespace(it.Key)
		if listed[ns] {
			continue
		}
		listed[ns] = true
		objs, err := provider.ListAll(ctx, s.store, ns+"/")
		if err != nil {
			return nil, err
		}
		for _, o := range objs {
			stored[o.Key] = o
		}
	}

	entries := make([]InventoryEntry, 0, len(items))
	present := 0
	for _, it := range items {
		obj, ok := stored[it.Context.Key]
		if ok {
			present++
		}
		entries = append(entries, InventoryEntry{Period: it.Key, Key: it.Context.Key, Present: ok, Object: obj})
	}

	s.logger.Info("Inventory complete",
		zap.Int("contracts", len(entries)),
		zap.Int("present", present),
		zap.Int("missing", len(entries)-present),
	)
	return entries, nil
}
