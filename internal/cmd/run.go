package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofutures/internal/observability"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/history"
	"github.com/3leaps/gofutures/pkg/manifest"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch job from manifest",
	Long: `Run an estimate, download or inventory batch as defined in a YAML or JSON
manifest file.

The manifest selects the contracts, the data to request, the runner limits,
the storage location and the output destination. The market data API key
always comes from configuration or DATABENTO_API_KEY.

Example:
  gofutures run --job download.yaml
  gofutures run --job download.yaml --output results.jsonl
  gofutures run --job download.yaml --quiet
  gofutures run --job download.yaml --dry-run`,
	Args: cobra.NoArgs,
	RunE: runJob,
}

var (
	runJobPath string
	runOutput  string
	runQuiet   bool
	runDryRun  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runJobPath, "job", "j", "", "Path to job manifest (required)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Override output destination")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress progress records")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Validate manifest and show plan without executing")

	_ = runCmd.MarkFlagRequired("job")
}

func runJob(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(runJobPath)
	if err != nil {
		observability.CLILogger.Error("Failed to load manifest",
			zap.String("path", runJobPath),
			zap.Error(err))
		if errors.Is(err, fs.ErrNotExist) {
			return exitError(foundry.ExitFileNotFound, "Manifest not found", err)
		}
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	if runOutput != "" {
		m.Output.Destination = runOutput
	}
	if runQuiet {
		enabled := false
		m.Output.Progress = &enabled
	}

	plan, err := m.Plan()
	if err != nil {
		observability.CLILogger.Error("Invalid contract selection", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid contract selection", err)
	}

	observability.CLILogger.Debug("Loaded manifest",
		zap.String("path", runJobPath),
		zap.String("operation", m.Operation),
		zap.Strings("symbols", plan.Symbols))

	if runDryRun {
		return showJobPlan(m, plan)
	}

	spec := jobSpec{
		Operation:   m.Operation,
		Plan:        plan,
		History:     mergeHistoryConfig(m.HistoryConfig(), currentConfig().HistoryConfig()),
		MarketData:  currentConfig().MarketDataConfig(),
		Storage:     storageFromManifest(m.Storage),
		Destination: m.Output.Destination,
		Progress:    m.Output.ProgressEnabled(),
	}
	return executeJob(cmd.Context(), spec)
}

// mergeHistoryConfig fills zero manifest values from the application config.
func mergeHistoryConfig(m, app history.Config) history.Config {
	if m.Dataset == "" {
		m.Dataset = app.Dataset
	}
	if m.Schema == "" {
		m.Schema = app.Schema
	}
	if m.Concurrency == 0 {
		m.Concurrency = app.Concurrency
	}
	if m.RateLimit == 0 {
		m.RateLimit = app.RateLimit
	}
	if m.OnExists == "" {
		m.OnExists = app.OnExists
	}
	if m.ReportPath == "" {
		m.ReportPath = app.ReportPath
	}
	if m.SpoolMaxMemoryBytes == 0 {
		m.SpoolMaxMemoryBytes = app.SpoolMaxMemoryBytes
	}
	if m.YearDigits == 0 {
		m.YearDigits = app.YearDigits
	}
	return m
}

// showJobPlan displays what would run without executing.
func showJobPlan(m *manifest.Manifest, plan history.Plan) error {
	periods, err := calendar.GenerateContractPeriods(plan.Symbols, plan.Start, plan.End,
		calendar.WithSelection(plan.Selection), calendar.WithYearDigits(m.Contracts.YearDigits))
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid contract selection", err)
	}

	out := stdout
	_, _ = fmt.Fprintln(out, "=== Job Plan (dry-run) ===")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Operation:   %s\n", m.Operation)
	_, _ = fmt.Fprintf(out, "Symbols:     %v\n", plan.Symbols)
	_, _ = fmt.Fprintf(out, "Range:       %s .. %s (%s)\n",
		calendar.FormatDate(plan.Start), calendar.FormatDate(plan.End), plan.Selection)
	_, _ = fmt.Fprintf(out, "Contracts:   %d\n", len(periods))
	for _, p := range periods {
		_, _ = fmt.Fprintf(out, "  - %-8s expiry=%s coverage=%s..%s\n", p.Symbol,
			calendar.FormatDate(p.Expiry),
			calendar.FormatDate(p.CoverageStart),
			calendar.FormatDate(p.CoverageEnd))
	}
	_, _ = fmt.Fprintln(out)
	if m.Batch.Concurrency > 0 {
		_, _ = fmt.Fprintf(out, "Concurrency: %d\n", m.Batch.Concurrency)
	}
	if m.Batch.RateLimit > 0 {
		_, _ = fmt.Fprintf(out, "Rate Limit:  %.1f req/s\n", m.Batch.RateLimit)
	}
	if m.Storage.Provider == "s3" {
		_, _ = fmt.Fprintf(out, "Storage:     s3://%s/%s\n", m.Storage.Bucket, m.Storage.Prefix)
	} else {
		_, _ = fmt.Fprintf(out, "Storage:     %s\n", m.Storage.Path)
	}
	_, _ = fmt.Fprintf(out, "Output:      %s\n", m.Output.Destination)
	_, _ = fmt.Fprintf(out, "Progress:    %v\n", m.Output.ProgressEnabled())
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Manifest validated successfully. Remove --dry-run to execute.")
	return nil
}
