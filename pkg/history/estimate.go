package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/3leaps/gofutures/pkg/batch"
	"github.com/3leaps/gofutures/pkg/marketdata"
	"github.com/3leaps/gofutures/pkg/tasks"
)

// Estimate prices every contract in plan and returns the total cost in USD.
//
// Estimates run in CollectAll mode: a contract that cannot be priced is
// recorded in Result.Failed and excluded from the total. The returned error
// is non-nil only when the plan is invalid or the batch could not be
// scheduled.
func (s *Service) Estimate(ctx context.Context, plan Plan) (*batch.Result[float64], error) {
	items, err := tasks.Build(ctx, s.request(plan), s.factory, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Estimating contract costs",
		zap.Int("contracts", len(items)),
		zap.String("dataset", s.cfg.Dataset),
		zap.String("schema", s.cfg.Schema),
		zap.Int("concurrency", s.cfg.Concurrency),
	)

	runner := batch.NewRunner(s.runnerConfig(batch.CollectAll), s.estimateOne).
		WithCombine(func(acc, v float64) float64 { return acc + v }).
		WithDescriber(func(it tasks.WorkItem[job]) string { return it.Context.Request.Describe(marketdata.OpGetCost) }).
		WithProgress(s.logProgress)

	res, err := runner.Run(ctx, items)
	if res != nil {
		s.logger.Info("Estimate complete",
			zap.String("batch_id", res.BatchID),
			zap.Float64("total_cost", res.Value),
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", len(res.Failed)),
			zap.Duration("duration", res.Duration),
		)
	}
	return res, err
}

func (s *Service) estimateOne(ctx context.Context, it tasks.WorkItem[job]) (float64, error) {
	cost, err := s.client.GetCost(ctx, it.Context.Request)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Priced contract", append(periodFields(it.Key), zap.Float64("cost", cost))...)
	return cost, nil
}

func (s *Service) logProgress(p batch.Progress) {
	if p.Err != nil {
		s.logger.Warn("Contract failed", append(periodFields(p.Last), zap.Error(p.Err))...)
	}
	if s.progress != nil {
		s.progress(p)
	}
}
