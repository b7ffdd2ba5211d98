package cmd

import (
	"github.com/spf13/cobra"

	"github.com/3leaps/gofutures/pkg/manifest"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download historical data for contracts into storage",
	Long: `Fetch each selected contract's coverage window from the market data
vendor and store it as <ASSET>/<YEAR>/<SYMBOL>.dbn.zst under the storage location.

Contracts already in storage are handled by --on-exists (skip, overwrite or
fail). The batch stops at the first failed contract; the failure and the
request that caused it are written to the failure report.

Examples:
  gofutures download --symbols CL --start 2023-01-01 --end 2023-12-31
  gofutures download --symbols ES,NQ --start 2023-01-01 --end 2023-12-31 --storage s3://my-bucket/futures
  gofutures download --symbols CL --start 2023-01-01 --end 2023-12-31 --on-exists overwrite --rate-limit 5`,
	Args: cobra.NoArgs,
	RunE: runDownloadCmd,
}

var (
	downloadPlan  planFlags
	downloadBatch batchFlags
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadPlan.register(downloadCmd)
	downloadBatch.register(downloadCmd, true)
}

func runDownloadCmd(cmd *cobra.Command, args []string) error {
	return runBatchCommand(cmd, manifest.OperationDownload, &downloadPlan, &downloadBatch)
}
