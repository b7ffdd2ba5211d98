package cmd

import (
	"github.com/spf13/cobra"

	"github.com/3leaps/gofutures/pkg/manifest"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Report which contracts are already in storage",
	Long: `Match the selected contracts against the storage location and emit an
object record for every stored contract. The summary lists the contracts
that are missing.

No market data access is needed.

Examples:
  gofutures inventory --symbols CL --start 2023-01-01 --end 2023-12-31
  gofutures inventory --symbols '*' --start 2023-01-01 --end 2023-12-31 --storage s3://my-bucket/futures`,
	Args: cobra.NoArgs,
	RunE: runInventoryCmd,
}

var (
	inventoryPlan  planFlags
	inventoryBatch batchFlags
)

func init() {
	rootCmd.AddCommand(inventoryCmd)

	inventoryPlan.register(inventoryCmd)
	inventoryBatch.register(inventoryCmd, false)
}

func runInventoryCmd(cmd *cobra.Command, args []string) error {
	return runBatchCommand(cmd, manifest.OperationInventory, &inventoryPlan, &inventoryBatch)
}
