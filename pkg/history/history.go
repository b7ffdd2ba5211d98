// Package history runs historical market-data batches: cost estimates and
// downloads for every contract period in a date range.
//
// A Service wires the calendar, task builder and batch runner to a
// marketdata.Client and a storage provider. One Service holds one client
// handle, shared by all workers of a batch.
package history

import (
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/3leaps/gofutures/pkg/batch"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/marketdata"
	"github.com/3leaps/gofutures/pkg/provider"
	"github.com/3leaps/gofutures/pkg/tasks"
)

// On-exists policies for downloads whose object is already stored.
const (
	OnExistsSkip      = "skip"
	OnExistsOverwrite = "overwrite"
	OnExistsFail      = "fail"
)

// ObjectSuffix is appended to the contract symbol to form its object name.
const ObjectSuffix = ".dbn.zst"

// Config configures a Service.
type Config struct {
	Dataset string
	Schema  string

	// Concurrency is the maximum number of remote calls in flight.
	// Default: batch.DefaultConcurrency
	Concurrency int

	// RateLimit caps remote call starts per second. Zero means unlimited.
	RateLimit float64

	// ReportPath is the storage key of the failure report.
	// Default: batch.DefaultReportPath
	ReportPath string

	// OnExists decides what Download does with already stored contracts:
	// skip | overwrite | fail.
	// Default: skip
	OnExists string

	// SpoolMaxMemoryBytes bounds in-memory buffering of downloads of unknown
	// length; larger payloads are spooled to a temp file.
	SpoolMaxMemoryBytes int64

	// YearDigits is the number of year digits in contract symbols (1 or 2).
	YearDigits int
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		Dataset:             marketdata.DefaultDataset,
		Schema:              marketdata.DefaultSchema,
		Concurrency:         batch.DefaultConcurrency,
		ReportPath:          batch.DefaultReportPath,
		OnExists:            OnExistsSkip,
		SpoolMaxMemoryBytes: DefaultSpoolMaxMemoryBytes,
		YearDigits:          1,
	}
}

// Plan selects the contracts a batch covers.
type Plan struct {
	Symbols   []string
	Start     time.Time
	End       time.Time
	Selection calendar.Selection
}

// Service runs estimate and download batches.
type Service struct {
	client   marketdata.Client
	store    provider.Store
	logger   *zap.Logger
	cfg      Config
	progress func(batch.Progress)
}

// New creates a Service. store may be nil for estimate-only use. Zero config
// values take defaults.
func New(client marketdata.Client, store provider.Store, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.Dataset == "" {
		cfg.Dataset = def.Dataset
	}
	if cfg.Schema == "" {
		cfg.Schema = def.Schema
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = def.ReportPath
	}
	if cfg.OnExists == "" {
		cfg.OnExists = def.OnExists
	}
	if cfg.SpoolMaxMemoryBytes <= 0 {
		cfg.SpoolMaxMemoryBytes = def.SpoolMaxMemoryBytes
	}
	if cfg.YearDigits == 0 {
		cfg.YearDigits = def.YearDigits
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, store: store, logger: logger, cfg: cfg}
}

// WithProgress sets a callback for per-contract progress.
func (s *Service) WithProgress(fn func(batch.Progress)) *Service {
	s.progress = fn
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// ValidateOnExists checks an on-exists policy name.
func ValidateOnExists(policy string) error {
	switch policy {
	case OnExistsSkip, OnExistsOverwrite, OnExistsFail:
		return nil
	default:
		return fmt.Errorf("invalid on-exists policy %q (expected skip, overwrite or fail)", policy)
	}
}

// ObjectKey returns the storage key of a contract's data ("CL/2023/CLF3.dbn.zst").
func ObjectKey(p calendar.ContractPeriod) string {
	return path.Join(tasks.DefaultNamespace(p), p.Symbol+ObjectSuffix)
}

// job is the per-contract context carried by work items.
type job struct {
	Request marketdata.Request
	Key     string
}

func (s *Service) request(plan Plan) tasks.Request {
	return tasks.Request{
		Symbols: plan.Symbols,
		Start:   plan.Start,
		End:     plan.End,
		Calendar: []calendar.Option{
			calendar.WithSelection(plan.Selection),
			calendar.WithYearDigits(s.cfg.YearDigits),
		},
	}
}

func (s *Service) factory(p calendar.ContractPeriod) job {
	return job{
		Request: marketdata.NewRequest(s.cfg.Dataset, s.cfg.Schema, p),
		Key:     ObjectKey(p),
	}
}

func (s *Service) runnerConfig(mode batch.Mode) batch.Config {
	return batch.Config{
		Concurrency: s.cfg.Concurrency,
		Mode:        mode,
		RateLimit:   s.cfg.RateLimit,
	}
}

func periodFields(p calendar.ContractPeriod) []zap.Field {
	return []zap.Field{
		zap.String("symbol", p.Symbol),
		zap.String("start", calendar.FormatDate(p.CoverageStart)),
		zap.String("end", calendar.FormatDate(p.CoverageEnd)),
	}
}
