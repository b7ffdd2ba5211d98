package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3leaps/gofutures/internal/config"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/history"
)

// planFlags are the contract selection flags shared by the calendar and
// batch commands.
type planFlags struct {
	symbols    []string
	start      string
	end        string
	selection  string
	yearDigits int
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.symbols, "symbols", "s", nil, "Asset symbols or glob patterns (e.g. CL,ES or 'E?')")
	cmd.Flags().StringVar(&f.start, "start", "", "Range start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&f.end, "end", "", "Range end, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&f.selection, "selection", "", "Contract selection (expiry|contract-month; default from config)")
	cmd.Flags().IntVar(&f.yearDigits, "year-digits", 0, "Year digits in contract symbols (1|2; default from config)")

	_ = cmd.MarkFlagRequired("symbols")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

// resolve expands the symbol patterns and parses the range, filling unset
// flags from cfg. It returns the plan and the effective year digits.
func (f *planFlags) resolve(cfg *config.Config) (history.Plan, int, error) {
	symbols, err := calendar.ExpandSymbols(splitSymbols(f.symbols))
	if err != nil {
		return history.Plan{}, 0, err
	}
	start, err := calendar.ParseDate(f.start)
	if err != nil {
		return history.Plan{}, 0, fmt.Errorf("--start: expected YYYY-MM-DD, got %q", f.start)
	}
	end, err := calendar.ParseDate(f.end)
	if err != nil {
		return history.Plan{}, 0, fmt.Errorf("--end: expected YYYY-MM-DD, got %q", f.end)
	}

	sel := cfg.Selection()
	if f.selection != "" {
		var ok bool
		if sel, ok = calendar.ParseSelection(f.selection); !ok {
			return history.Plan{}, 0, fmt.Errorf("--selection: unknown mode %q", f.selection)
		}
	}

	digits := cfg.Batch.YearDigits
	if f.yearDigits != 0 {
		digits = f.yearDigits
	}
	if digits < 1 || digits > 2 {
		return history.Plan{}, 0, fmt.Errorf("--year-digits: must be 1 or 2, got %d", digits)
	}

	return history.Plan{Symbols: symbols, Start: start, End: end, Selection: sel}, digits, nil
}

// batchFlags are the runner flags shared by estimate, download and inventory.
type batchFlags struct {
	storage     string
	output      string
	quiet       bool
	concurrency int
	rateLimit   float64
	onExists    string
}

func (f *batchFlags) register(cmd *cobra.Command, withOnExists bool) {
	cmd.Flags().StringVar(&f.storage, "storage", "", "Storage location: directory, file:// or s3://bucket/prefix (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "stdout", "Output destination (stdout or file path)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress progress records")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "Concurrent remote calls (default from config)")
	cmd.Flags().Float64Var(&f.rateLimit, "rate-limit", 0, "Maximum call starts per second (default from config)")
	if withOnExists {
		cmd.Flags().StringVar(&f.onExists, "on-exists", "", "Policy for stored contracts (skip|overwrite|fail; default from config)")
	}
}

// jobSpec builds the batch run for op from cfg and the flags.
func (f *batchFlags) jobSpec(op string, plan history.Plan, digits int, cfg *config.Config) (jobSpec, error) {
	hc := cfg.HistoryConfig()
	hc.YearDigits = digits
	if f.concurrency != 0 {
		if f.concurrency < 1 || f.concurrency > 64 {
			return jobSpec{}, fmt.Errorf("--concurrency: must be 1-64, got %d", f.concurrency)
		}
		hc.Concurrency = f.concurrency
	}
	if f.rateLimit < 0 {
		return jobSpec{}, fmt.Errorf("--rate-limit: must not be negative")
	}
	if f.rateLimit > 0 {
		hc.RateLimit = f.rateLimit
	}
	if f.onExists != "" {
		if err := history.ValidateOnExists(f.onExists); err != nil {
			return jobSpec{}, fmt.Errorf("--on-exists: %w", err)
		}
		hc.OnExists = f.onExists
	}

	storage := storageFromConfig(cfg.Storage)
	if f.storage != "" {
		storage.URI = f.storage
	}

	return jobSpec{
		Operation:   op,
		Plan:        plan,
		History:     hc,
		MarketData:  cfg.MarketDataConfig(),
		Storage:     storage,
		Destination: f.output,
		Progress:    !f.quiet,
	}, nil
}
