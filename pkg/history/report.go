package history

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/3leaps/gofutures/pkg/batch"
	"github.com/3leaps/gofutures/pkg/provider"
)

// FormatCost renders a USD amount for reports.
func FormatCost(v float64) string { return fmt.Sprintf("$%.4f", v) }

// FormatBytes renders a stored byte count for reports.
func FormatBytes(v int64) string { return fmt.Sprintf("%d bytes", v) }

// WriteReport renders res and stores it at key, overwriting any previous
// report.
func WriteReport[V any](ctx context.Context, dst provider.ObjectPutter, key string, res *batch.Result[V], format func(V) string) error {
	var buf bytes.Buffer
	if err := batch.RenderReport(&buf, res, format); err != nil {
		return err
	}
	if err := dst.PutObject(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return fmt.Errorf("store report %s: %w", key, err)
	}
	return nil
}

// WriteEstimateReport stores the report for an estimate batch at the
// configured report path.
func (s *Service) WriteEstimateReport(ctx context.Context, res *batch.Result[float64]) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := WriteReport(ctx, s.store, s.cfg.ReportPath, res, FormatCost); err != nil {
		return err
	}
	s.logger.Info("Wrote failure report", zap.String("path", s.cfg.ReportPath), zap.Int("failed", len(res.Failed)))
	return nil
}

// WriteDownloadReport stores the report for a download batch at the
// configured report path.
func (s *Service) WriteDownloadReport(ctx context.Context, res *batch.Result[int64]) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := WriteReport(ctx, s.store, s.cfg.ReportPath, res, FormatBytes); err != nil {
		return err
	}
	s.logger.Info("Wrote failure report", zap.String("path", s.cfg.ReportPath), zap.Int("failed", len(res.Failed)))
	return nil
}
