package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(stdout, "%s %s\n", ServiceName, versionInfo.Version)
		_, _ = fmt.Fprintf(stdout, "  commit:     %s\n", versionInfo.Commit)
		_, _ = fmt.Fprintf(stdout, "  built:      %s\n", versionInfo.BuildDate)
		_, _ = fmt.Fprintf(stdout, "  go version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
