// Package config loads the gofutures application configuration.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// config file, GOFUTURES_* environment variables and runtime overrides.
// DATABENTO_API_KEY is accepted as an alias for GOFUTURES_MARKETDATA_API_KEY.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/3leaps/gofutures/pkg/batch"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/history"
	"github.com/3leaps/gofutures/pkg/marketdata"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "GOFUTURES"

// ByteSize is a byte count that decodes from "16MiB" style strings.
type ByteSize int64

// Config is the application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	Data       DataConfig       `mapstructure:"data"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`

	// Format is console or json.
	Format string `mapstructure:"format"`
}

type MarketDataConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DataConfig struct {
	Dataset string `mapstructure:"dataset"`
	Schema  string `mapstructure:"schema"`
}

type BatchConfig struct {
	Concurrency   int      `mapstructure:"concurrency"`
	RateLimit     float64  `mapstructure:"rate_limit"`
	OnExists      string   `mapstructure:"on_exists"`
	Selection     string   `mapstructure:"selection"`
	YearDigits    int      `mapstructure:"year_digits"`
	SpoolMaxBytes ByteSize `mapstructure:"spool_max_memory"`
}

type StorageConfig struct {
	// URI is a local directory, file:// URI or s3://bucket/prefix. Empty
	// means the per-user application data directory.
	URI            string `mapstructure:"uri"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	Profile        string `mapstructure:"profile"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	ReportPath     string `mapstructure:"report_path"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("marketdata.api_key", "")
	v.SetDefault("marketdata.base_url", marketdata.DefaultBaseURL)
	v.SetDefault("marketdata.timeout", marketdata.DefaultTimeout.String())

	v.SetDefault("data.dataset", marketdata.DefaultDataset)
	v.SetDefault("data.schema", marketdata.DefaultSchema)

	v.SetDefault("batch.concurrency", batch.DefaultConcurrency)
	v.SetDefault("batch.rate_limit", 0)
	v.SetDefault("batch.on_exists", history.OnExistsSkip)
	v.SetDefault("batch.selection", calendar.SelectByExpiry.String())
	v.SetDefault("batch.year_digits", 1)
	v.SetDefault("batch.spool_max_memory", "16MiB")

	v.SetDefault("storage.uri", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.profile", "")
	v.SetDefault("storage.force_path_style", false)
	v.SetDefault("storage.report_path", batch.DefaultReportPath)
}

// BindEnv enables GOFUTURES_* lookups plus the short aliases.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("marketdata.api_key", EnvPrefix+"_MARKETDATA_API_KEY", "DATABENTO_API_KEY")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", EnvPrefix+"_PORT")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", EnvPrefix+"_LOG_LEVEL")
}

// Load builds a Config from defaults, the environment and overrides, which
// are nested maps keyed like the config file.
func Load(overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	for _, o := range overrides {
		if err := v.MergeConfigMap(o); err != nil {
			return nil, fmt.Errorf("merge overrides: %w", err)
		}
	}
	return Decode(v)
}

// LoadFile is Load with a config file between defaults and the environment.
func LoadFile(path string, overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	for _, o := range overrides {
		if err := v.MergeConfigMap(o); err != nil {
			return nil, fmt.Errorf("merge overrides: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToByteSizeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func stringToByteSizeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(ByteSize(0)) || from.Kind() != reflect.String {
			return data, nil
		}
		n, err := humanize.ParseBytes(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid byte size %q: %w", data, err)
		}
		return ByteSize(n), nil
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &FieldError{Field: "server.port", Message: fmt.Sprintf("out of range: %d", c.Server.Port)}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &FieldError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return &FieldError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
		return &FieldError{Field: "batch.concurrency", Message: fmt.Sprintf("must be 1-64, got %d", c.Batch.Concurrency)}
	}
	if c.Batch.RateLimit < 0 {
		return &FieldError{Field: "batch.rate_limit", Message: "must not be negative"}
	}
	if err := history.ValidateOnExists(c.Batch.OnExists); err != nil {
		return &FieldError{Field: "batch.on_exists", Message: err.Error()}
	}
	if _, ok := calendar.ParseSelection(c.Batch.Selection); !ok {
		return &FieldError{Field: "batch.selection", Message: fmt.Sprintf("unknown mode %q", c.Batch.Selection)}
	}
	if c.Batch.YearDigits < 1 || c.Batch.YearDigits > 2 {
		return &FieldError{Field: "batch.year_digits", Message: "must be 1 or 2"}
	}
	return nil
}

// Selection returns the parsed batch selection mode.
func (c *Config) Selection() calendar.Selection {
	sel, _ := calendar.ParseSelection(c.Batch.Selection)
	return sel
}

// HistoryConfig maps the batch and data sections to a history.Config.
func (c *Config) HistoryConfig() history.Config {
	return history.Config{
		Dataset:             c.Data.Dataset,
		Schema:              c.Data.Schema,
		Concurrency:         c.Batch.Concurrency,
		RateLimit:           c.Batch.RateLimit,
		ReportPath:          c.Storage.ReportPath,
		OnExists:            c.Batch.OnExists,
		SpoolMaxMemoryBytes: int64(c.Batch.SpoolMaxBytes),
		YearDigits:          c.Batch.YearDigits,
	}
}

// MarketDataConfig maps the marketdata section to a client config.
func (c *Config) MarketDataConfig() marketdata.Config {
	return marketdata.Config{
		APIKey:  c.MarketData.APIKey,
		BaseURL: c.MarketData.BaseURL,
		Timeout: c.MarketData.Timeout,
	}
}

// FieldError reports an invalid configuration value.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}
