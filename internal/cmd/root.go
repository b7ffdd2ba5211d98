// Package cmd implements the gofutures command line.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/3leaps/gofutures/internal/config"
	"github.com/3leaps/gofutures/internal/observability"
	"github.com/3leaps/gofutures/internal/server/handlers"
)

// ServiceName names the binary, its logger and its config file.
const ServiceName = "gofutures"

// VersionInfo holds build metadata injected by main.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var versionInfo = VersionInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}

var (
	cfgFile   string
	verbose   bool
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   ServiceName,
	Short: "Futures contract calendar and historical data batches",
	Long: `gofutures derives futures contract expiries, roll windows and ticker
symbols from asset-class rules, and runs bounded-concurrency batches of
historical data cost estimates and downloads for those contracts.

Configuration is read from --config, then GOFUTURES_* environment variables.
DATABENTO_API_KEY is accepted for the market data API key.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initConfig() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// SetVersionInfo records build metadata for the version command and API.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, BuildDate: buildDate}
	handlers.SetVersionInfo(version, commit, buildDate)
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, normally cancelled on
// SIGINT/SIGTERM.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setDefaults() {
	config.SetDefaults(viper.GetViper())
}

// initConfig loads configuration into appConfig and initializes logging.
func initConfig() error {
	v := viper.GetViper()
	setDefaults()
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return exitError(foundry.ExitFileReadError, "Failed to read config", err)
		}
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	appConfig = cfg

	opts := observability.LoggerOptions{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if verbose {
		opts.Level = "debug"
	}
	observability.InitCLILoggerWithOptions(ServiceName, opts)

	if cfgFile != "" {
		observability.CLILogger.Debug("Loaded config file", zap.String("path", v.ConfigFileUsed()))
	}
	return nil
}

// currentConfig returns the loaded configuration, or defaults when
// initConfig has not run (as in tests).
func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (exit code %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %v (exit code %d)", e.Message, e.Err, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode returns the exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}
