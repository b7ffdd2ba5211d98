// Package observability holds the process-wide loggers.
package observability

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by commands. It discards everything until
// InitCLILogger runs.
var CLILogger = zap.NewNop()

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	// Level is debug, info, warn or error. Default: info.
	Level string

	// Format is console or json. Default: console.
	Format string

	// Output receives log entries. Default: os.Stderr.
	Output io.Writer
}

// InitCLILogger replaces CLILogger with a console logger on stderr named
// after the service. verbose lowers the level to debug.
func InitCLILogger(service string, verbose bool) {
	level := "info"
	if verbose {
		level = "debug"
	}
	InitCLILoggerWithOptions(service, LoggerOptions{Level: level})
}

// InitCLILoggerWithOptions replaces CLILogger using explicit options.
func InitCLILoggerWithOptions(service string, opts LoggerOptions) {
	CLILogger = NewLogger(opts).Named(service)
}

// NewLogger builds a zap logger. Records go to stderr so stdout stays free
// for JSONL output.
func NewLogger(opts LoggerOptions) *zap.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var enc zapcore.Encoder
	if strings.EqualFold(opts.Format, FormatJSON) {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), ParseLevel(opts.Level))
	return zap.New(core)
}

// ParseLevel maps a level name to a zap level. Unknown names mean info.
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
