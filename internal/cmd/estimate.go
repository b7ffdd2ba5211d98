package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofutures/internal/observability"
	"github.com/3leaps/gofutures/pkg/manifest"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the cost of historical data for contracts",
	Long: `Query the market data vendor for the cost of each selected contract's
coverage window and report the total.

Contracts whose cost cannot be retrieved are listed as failure records and
written to the failure report in storage. The batch continues past them.

Examples:
  gofutures estimate --symbols CL,ES --start 2023-01-01 --end 2023-12-31
  gofutures estimate --symbols '*' --start 2024-01-01 --end 2024-06-30 --concurrency 4 --quiet`,
	Args: cobra.NoArgs,
	RunE: runEstimateCmd,
}

var (
	estimatePlan  planFlags
	estimateBatch batchFlags
)

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimatePlan.register(estimateCmd)
	estimateBatch.register(estimateCmd, false)
}

func runEstimateCmd(cmd *cobra.Command, args []string) error {
	return runBatchCommand(cmd, manifest.OperationEstimate, &estimatePlan, &estimateBatch)
}

// runBatchCommand resolves flags into a job and executes it.
func runBatchCommand(cmd *cobra.Command, op string, pf *planFlags, bf *batchFlags) error {
	cfg := currentConfig()
	plan, digits, err := pf.resolve(cfg)
	if err != nil {
		observability.CLILogger.Error("Invalid contract selection", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid contract selection", err)
	}
	spec, err := bf.jobSpec(op, plan, digits, cfg)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid batch flags", err)
	}
	return executeJob(cmd.Context(), spec)
}
