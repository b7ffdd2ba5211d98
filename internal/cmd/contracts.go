package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofutures/internal/observability"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/output"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List contract periods for a date range",
	Long: `List the futures contracts selected by a date range, with their expiry
and the coverage window used for data requests.

No network access is needed; contracts are derived from asset-class rules.

Examples:
  gofutures contracts --symbols CL --start 2023-01-01 --end 2023-12-31
  gofutures contracts --symbols 'E?',NQ --start 2023-03-01 --end 2023-03-31 --year-digits 2
  gofutures contracts --symbols CL --start 2023-03-01 --end 2023-03-31 --selection contract-month --output table`,
	Args: cobra.NoArgs,
	RunE: runContracts,
}

var (
	contractsPlan   planFlags
	contractsOutput string
)

func init() {
	rootCmd.AddCommand(contractsCmd)

	contractsPlan.register(contractsCmd)
	contractsCmd.Flags().StringVarP(&contractsOutput, "output", "o", "jsonl", "Output format (jsonl|table)")
}

func runContracts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if contractsOutput != "jsonl" && contractsOutput != "table" {
		return exitError(foundry.ExitInvalidArgument, "Invalid --output value", fmt.Errorf("expected jsonl or table"))
	}

	plan, digits, err := contractsPlan.resolve(currentConfig())
	if err != nil {
		observability.CLILogger.Error("Invalid contract selection", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid contract selection", err)
	}

	periods, err := calendar.GenerateContractPeriods(plan.Symbols, plan.Start, plan.End,
		calendar.WithSelection(plan.Selection), calendar.WithYearDigits(digits))
	if err != nil {
		observability.CLILogger.Error("Failed to generate contracts", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid contract selection", err)
	}
	observability.CLILogger.Debug("Generated contracts",
		zap.Strings("symbols", plan.Symbols),
		zap.Int("count", len(periods)))

	if contractsOutput == "table" {
		return outputContractsTable(periods)
	}

	w := output.NewJSONLWriter(stdout, uuid.New().String(), "")
	defer func() { _ = w.Close() }()
	for _, p := range periods {
		if err := w.WriteContract(ctx, output.NewContractRecord(p)); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
	}
	return nil
}

func outputContractsTable(periods []calendar.ContractPeriod) error {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ASSET\tSYMBOL\tMONTH\tEXPIRY\tCOVERAGE START\tCOVERAGE END")
	for _, p := range periods {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d-%02d\t%s\t%s\t%s\n",
			p.Asset, p.Symbol, p.Year, int(p.Month),
			calendar.FormatDate(p.Expiry),
			calendar.FormatDate(p.CoverageStart),
			calendar.FormatDate(p.CoverageEnd))
	}
	return tw.Flush()
}
