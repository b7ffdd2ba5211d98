package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/3leaps/gofutures/internal/observability"
	"github.com/3leaps/gofutures/pkg/batch"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/history"
	"github.com/3leaps/gofutures/pkg/manifest"
	"github.com/3leaps/gofutures/pkg/marketdata"
	"github.com/3leaps/gofutures/pkg/output"
	"github.com/3leaps/gofutures/pkg/provider"
)

// jobSpec is one batch run, built from flags or a job manifest.
type jobSpec struct {
	Operation   string
	Plan        history.Plan
	History     history.Config
	MarketData  marketdata.Config
	Storage     storageOptions
	Destination string
	Progress    bool
}

// newMarketDataClient is replaced in tests.
var newMarketDataClient = func(cfg marketdata.Config) (marketdata.Client, error) {
	return marketdata.NewHTTPClient(cfg)
}

// executeJob runs spec and emits JSONL records: progress, per-contract
// failures or objects, then a summary.
func executeJob(ctx context.Context, spec jobSpec) error {
	jobID := uuid.New().String()
	log := observability.CLILogger.With(zap.String("job_id", jobID), zap.String("operation", spec.Operation))

	var client marketdata.Client
	if spec.Operation != manifest.OperationInventory {
		c, err := newMarketDataClient(spec.MarketData)
		if err != nil {
			log.Error("Invalid market data configuration", zap.Error(err))
			return exitError(foundry.ExitInvalidArgument, "Market data API key is required (set DATABENTO_API_KEY)", err)
		}
		client = c
	}

	store, loc, err := openStore(ctx, spec.Storage)
	if err != nil {
		log.Error("Failed to open storage", zap.Error(err))
		if errors.Is(err, ErrInvalidURI) || errors.Is(err, ErrUnsupportedProvider) || errors.Is(err, ErrMissingBucket) {
			return exitError(foundry.ExitInvalidArgument, "Invalid storage location", err)
		}
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to storage provider", err)
	}
	defer func() { _ = store.Close() }()

	writer, cleanup, err := createWriter(spec.Destination, jobID, loc.Provider)
	if err != nil {
		log.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	svc := history.New(client, store, spec.History, log)
	if spec.Progress {
		svc.WithProgress(func(p batch.Progress) {
			rec := output.NewProgressRecord(p)
			if p.Completed == p.Total {
				rec.Phase = output.PhaseComplete
			}
			if err := writer.WriteProgress(ctx, rec); err != nil {
				log.Warn("Failed to write progress record", zap.Error(err))
			}
		})
	}

	log.Info("Starting batch",
		zap.Strings("symbols", spec.Plan.Symbols),
		zap.String("start", calendar.FormatDate(spec.Plan.Start)),
		zap.String("end", calendar.FormatDate(spec.Plan.End)),
		zap.String("storage", loc.String()))

	switch spec.Operation {
	case manifest.OperationEstimate:
		return runEstimate(ctx, svc, spec.Plan, writer, log)
	case manifest.OperationDownload:
		return runDownload(ctx, svc, spec.Plan, writer, log)
	case manifest.OperationInventory:
		return runInventory(ctx, svc, spec.Plan, writer, log)
	default:
		return exitError(foundry.ExitInvalidArgument, "Unknown operation", fmt.Errorf("%q", spec.Operation))
	}
}

func runEstimate(ctx context.Context, svc *history.Service, plan history.Plan, w output.Writer, log *zap.Logger) error {
	res, err := svc.Estimate(ctx, plan)
	if err != nil && res == nil {
		return batchFailure(ctx, w, "Estimate", err)
	}

	reportPath := persistReport(log, func() error { return svc.WriteEstimateReport(context.WithoutCancel(ctx), res) }, svc.Config().ReportPath)
	writeOutcome(ctx, w, log, manifest.OperationEstimate, res, reportPath)

	if err != nil {
		return batchFailure(ctx, w, "Estimate", err)
	}
	if len(res.Failed) > 0 {
		log.Warn("Some contracts could not be priced",
			zap.Int("failed", len(res.Failed)),
			zap.Strings("symbols", res.FailedSymbols()),
			zap.String("report", reportPath))
	}
	return nil
}

func runDownload(ctx context.Context, svc *history.Service, plan history.Plan, w output.Writer, log *zap.Logger) error {
	res, err := svc.Download(ctx, plan)
	if res == nil {
		return batchFailure(ctx, w, "Download", err)
	}

	reportPath := persistReport(log, func() error { return svc.WriteDownloadReport(context.WithoutCancel(ctx), res) }, svc.Config().ReportPath)
	writeOutcome(ctx, w, log, manifest.OperationDownload, res, reportPath)

	if err != nil {
		return batchFailure(ctx, w, "Download", err)
	}
	return nil
}

func runInventory(ctx context.Context, svc *history.Service, plan history.Plan, w output.Writer, log *zap.Logger) error {
	entries, err := svc.Inventory(ctx, plan)
	if err != nil {
		return batchFailure(ctx, w, "Inventory", err)
	}

	sum := &output.SummaryRecord{Operation: manifest.OperationInventory, Total: len(entries)}
	var bytes int64
	for _, e := range entries {
		if !e.Present {
			sum.Failed++
			sum.FailedSymbols = append(sum.FailedSymbols, e.Period.Symbol)
			continue
		}
		sum.Succeeded++
		bytes += e.Object.Size
		if err := w.WriteObject(ctx, &output.ObjectRecord{
			Key:          e.Key,
			Size:         e.Object.Size,
			ETag:         e.Object.ETag,
			LastModified: e.Object.LastModified,
			Symbol:       e.Period.Symbol,
		}); err != nil {
			log.Warn("Failed to write object record", zap.Error(err))
		}
	}
	sum.Value = bytes
	if err := w.WriteSummary(ctx, sum); err != nil {
		log.Warn("Failed to write summary record", zap.Error(err))
	}
	return nil
}

// persistReport stores the failure report and returns its path, or "" if
// storing failed.
func persistReport(log *zap.Logger, write func() error, path string) string {
	if err := write(); err != nil {
		log.Warn("Failed to store failure report", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}

func writeOutcome[V any](ctx context.Context, w output.Writer, log *zap.Logger, op string, res *batch.Result[V], reportPath string) {
	ctx = context.WithoutCancel(ctx)
	for _, f := range res.Failed {
		if err := w.WriteFailure(ctx, output.NewFailureRecord(f)); err != nil {
			log.Warn("Failed to write failure record", zap.Error(err))
		}
	}

	sum := &output.SummaryRecord{
		Operation:     op,
		Total:         res.Total,
		Succeeded:     res.Succeeded,
		Failed:        len(res.Failed),
		Value:         res.Value,
		Duration:      res.Duration,
		DurationHuman: res.Duration.String(),
		FailedSymbols: res.FailedSymbols(),
		ReportPath:    reportPath,
	}
	if err := w.WriteSummary(ctx, sum); err != nil {
		log.Warn("Failed to write summary record", zap.Error(err))
	}
}

// batchFailure emits an error record for err and maps it to an exit code.
func batchFailure(ctx context.Context, w output.Writer, op string, err error) error {
	rec := &output.ErrorRecord{Code: output.ErrCodeInternal, Message: err.Error()}
	code := int(foundry.ExitExternalServiceUnavailable)
	msg := op + " failed"

	var ua *calendar.UnsupportedAssetError
	var ie *batch.ItemError
	switch {
	case errors.As(err, &ua):
		rec.Code, rec.Symbol = output.ErrCodeUnsupportedAsset, ua.Symbol
		code, msg = int(foundry.ExitInvalidArgument), "Unsupported asset"
	case errors.Is(err, calendar.ErrInvalidRange), errors.Is(err, calendar.ErrNoSymbols):
		code, msg = int(foundry.ExitInvalidArgument), "Invalid contract selection"
	case errors.Is(err, context.Canceled):
		rec.Code = output.ErrCodeScheduling
		code, msg = int(foundry.ExitSignalInt), op+" cancelled"
	case errors.As(err, &ie):
		rec.Code, rec.Symbol = output.ErrCodeItemFailed, ie.Key.Symbol
		rec.Details = map[string]string{"request": ie.Request}
	case batch.IsSchedulingError(err):
		rec.Code = output.ErrCodeScheduling
	case provider.IsAccessDenied(err), marketdata.IsUnauthorized(err):
		rec.Code = output.ErrCodeAccessDenied
		msg = "Access denied"
	case provider.IsTransient(err):
		msg = "Storage temporarily unavailable"
	}

	observability.CLILogger.Error(msg, zap.Error(err))
	if werr := w.WriteError(context.WithoutCancel(ctx), rec); werr != nil {
		observability.CLILogger.Warn("Failed to write error record", zap.Error(werr))
	}
	return exitError(code, msg, err)
}

// splitSymbols flattens comma separated symbol flags.
func splitSymbols(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
