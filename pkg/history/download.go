package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/3leaps/gofutures/pkg/batch"
	"github.com/3leaps/gofutures/pkg/marketdata"
	"github.com/3leaps/gofutures/pkg/provider"
	"github.com/3leaps/gofutures/pkg/tasks"
)

// ErrNoStore is returned by operations that need storage when the Service
// was created without one.
var ErrNoStore = errors.New("history: no storage configured")

// ErrObjectExists is the item error for an already stored contract under
// the fail on-exists policy.
var ErrObjectExists = errors.New("object already exists")

// Download fetches every contract in plan and stores it under
// ObjectKey. The result value is the number of bytes stored.
//
// Downloads run in FailFast mode: the first failing contract stops the batch
// and is returned as a *batch.ItemError alongside the partial result.
// Namespaces ("CL/2023") are created before any download starts.
func (s *Service) Download(ctx context.Context, plan Plan) (*batch.Result[int64], error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if err := ValidateOnExists(s.cfg.OnExists); err != nil {
		return nil, err
	}

	items, err := tasks.Build(ctx, s.request(plan), s.factory, s.store)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Downloading contract data",
		zap.Int("contracts", len(items)),
		zap.String("dataset", s.cfg.Dataset),
		zap.String("schema", s.cfg.Schema),
		zap.String("on_exists", s.cfg.OnExists),
		zap.Int("concurrency", s.cfg.Concurrency),
	)

	runner := batch.NewRunner(s.runnerConfig(batch.FailFast), s.downloadOne).
		WithCombine(func(acc, v int64) int64 { return acc + v }).
		WithDescriber(func(it tasks.WorkItem[job]) string { return it.Context.Request.Describe(marketdata.OpGetRange) }).
		WithProgress(s.logProgress)

	res, err := runner.Run(ctx, items)
	if res != nil {
		s.logger.Info("Download finished",
			zap.String("batch_id", res.BatchID),
			zap.Int64("bytes", res.Value),
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", len(res.Failed)),
			zap.Duration("duration", res.Duration),
		)
	}
	return res, err
}

func (s *Service) downloadOne(ctx context.Context, it tasks.WorkItem[job]) (int64, error) {
	key := it.Context.Key

	if s.cfg.OnExists != OnExistsOverwrite {
		meta, err := s.store.Head(ctx, key)
		switch {
		case err == nil:
			if s.cfg.OnExists == OnExistsFail {
				return 0, fmt.Errorf("%s: %w", key, ErrObjectExists)
			}
			s.logger.Debug("Skipping stored contract", append(periodFields(it.Key), zap.String("key", key), zap.Int64("size", meta.Size))...)
			return 0, nil
		case !provider.IsNotFound(err):
			return 0, err
		}
	}

	body, size, err := s.client.GetRange(ctx, it.Context.Request)
	if err != nil {
		return 0, err
	}

	spooled, err := newSpooledBody(body, size, s.cfg.SpoolMaxMemoryBytes)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", it.Key.Symbol, err)
	}
	defer func() { _ = spooled.Close() }()

	if err := s.store.PutObject(ctx, key, spooled.Reader(), spooled.Size()); err != nil {
		return 0, err
	}

	s.logger.Debug("Stored contract", append(periodFields(it.Key), zap.String("key", key), zap.Int64("bytes", spooled.Size()))...)
	return spooled.Size(), nil
}
