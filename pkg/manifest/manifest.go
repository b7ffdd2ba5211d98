// Package manifest provides loading and validation of gofutures job manifests.
//
// A job manifest is a YAML or JSON file describing one batch run: which
// contracts to cover, which data to request, how to run the batch, and where
// to store results.
//
// Manifests are validated against an embedded JSON Schema before they are
// decoded. The schema enforces strict typing and disallows unknown properties.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	operation: download
//	contracts:
//	  symbols: [CL, "E?"]
//	  start: "2023-01-01"
//	  end: "2023-12-31"
//	batch:
//	  concurrency: 8
//	storage:
//	  provider: file
//	  path: ./data
package manifest

import (
	"fmt"
	"time"

	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/history"
)

// Operations a manifest can run.
const (
	OperationEstimate  = "estimate"
	OperationDownload  = "download"
	OperationInventory = "inventory"
)

// Manifest represents a validated job manifest.
type Manifest struct {
	// Schema is an optional JSON Schema reference for editor support.
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	// Version is the manifest schema version. Must be "1.0".
	Version string `json:"version" yaml:"version"`

	// Operation is one of estimate, download, inventory.
	Operation string `json:"operation" yaml:"operation"`

	Contracts ContractsConfig `json:"contracts" yaml:"contracts"`
	Data      DataConfig      `json:"data,omitempty" yaml:"data,omitempty"`
	Batch     BatchConfig     `json:"batch,omitempty" yaml:"batch,omitempty"`
	Storage   StorageConfig   `json:"storage,omitempty" yaml:"storage,omitempty"`
	Output    OutputConfig    `json:"output,omitempty" yaml:"output,omitempty"`
}

// ContractsConfig selects contract periods.
type ContractsConfig struct {
	// Symbols are asset symbols or glob patterns ("CL", "E?", "*").
	Symbols []string `json:"symbols" yaml:"symbols"`

	// Start and End bound the range, YYYY-MM-DD, inclusive.
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`

	// Selection is "expiry" (default) or "contract-month".
	Selection string `json:"selection,omitempty" yaml:"selection,omitempty"`

	// YearDigits is the symbol year width. Default: 1.
	YearDigits int `json:"year_digits,omitempty" yaml:"year_digits,omitempty"`
}

// DataConfig selects the vendor dataset and schema.
type DataConfig struct {
	Dataset string `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Schema  string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// BatchConfig configures the batch runner.
type BatchConfig struct {
	// Concurrency is the number of concurrent remote calls.
	// Range: 1-64. Default: 10.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	// RateLimit is the maximum call starts per second (0 = unlimited).
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	// OnExists is skip, overwrite or fail. Downloads only. Default: skip.
	OnExists string `json:"on_exists,omitempty" yaml:"on_exists,omitempty"`
}

// StorageConfig configures where data and reports are stored.
type StorageConfig struct {
	// Provider is "file" or "s3".
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	// Path is the base directory for the file provider.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	Bucket         string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix         string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region         string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint       string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Profile        string `json:"profile,omitempty" yaml:"profile,omitempty"`
	ForcePathStyle bool   `json:"force_path_style,omitempty" yaml:"force_path_style,omitempty"`

	// ReportPath is the storage key of the failure report.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// OutputConfig configures record output.
type OutputConfig struct {
	// Destination is "stdout" or "file:/path/to/output.jsonl".
	// Default: "stdout".
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// Progress enables per-contract progress records. Default: true.
	Progress *bool `json:"progress,omitempty" yaml:"progress,omitempty"`
}

// Default values for optional configuration fields.
const (
	// DefaultVersion is the current manifest schema version.
	DefaultVersion = "1.0"

	// DefaultStorageProvider is used when storage is omitted.
	DefaultStorageProvider = "file"

	// DefaultStoragePath is the file provider base directory.
	DefaultStoragePath = "data"

	// DefaultDestination is the default output destination.
	DefaultDestination = "stdout"

	// DefaultProgress is the default value for progress emission.
	DefaultProgress = true
)

// ApplyDefaults fills in default values for optional fields.
//
// Batch and data defaults are left to history.New so there is one source
// for them.
func (m *Manifest) ApplyDefaults() {
	if m.Contracts.Selection == "" {
		m.Contracts.Selection = calendar.SelectByExpiry.String()
	}
	if m.Contracts.YearDigits == 0 {
		m.Contracts.YearDigits = 1
	}
	if m.Storage.Provider == "" {
		m.Storage.Provider = DefaultStorageProvider
	}
	if m.Storage.Provider == DefaultStorageProvider && m.Storage.Path == "" {
		m.Storage.Path = DefaultStoragePath
	}
	if m.Output.Destination == "" {
		m.Output.Destination = DefaultDestination
	}
	if m.Output.Progress == nil {
		defaultProgress := DefaultProgress
		m.Output.Progress = &defaultProgress
	}
}

// ProgressEnabled returns whether progress records should be emitted.
func (o *OutputConfig) ProgressEnabled() bool {
	if o.Progress == nil {
		return DefaultProgress
	}
	return *o.Progress
}

// Plan resolves the contract selection: symbol patterns are expanded against
// the calendar registry and dates parsed.
func (m *Manifest) Plan() (history.Plan, error) {
	symbols, err := calendar.ExpandSymbols(m.Contracts.Symbols)
	if err != nil {
		return history.Plan{}, err
	}
	start, err := parseDate("contracts.start", m.Contracts.Start)
	if err != nil {
		return history.Plan{}, err
	}
	end, err := parseDate("contracts.end", m.Contracts.End)
	if err != nil {
		return history.Plan{}, err
	}
	if end.Before(start) {
		return history.Plan{}, fmt.Errorf("contracts: end %s is before start %s", m.Contracts.End, m.Contracts.Start)
	}

	sel, ok := calendar.ParseSelection(m.Contracts.Selection)
	if !ok {
		return history.Plan{}, fmt.Errorf("contracts: invalid selection %q", m.Contracts.Selection)
	}

	return history.Plan{Symbols: symbols, Start: start, End: end, Selection: sel}, nil
}

// HistoryConfig maps the data, batch and storage sections to a service
// configuration.
func (m *Manifest) HistoryConfig() history.Config {
	return history.Config{
		Dataset:     m.Data.Dataset,
		Schema:      m.Data.Schema,
		Concurrency: m.Batch.Concurrency,
		RateLimit:   m.Batch.RateLimit,
		OnExists:    m.Batch.OnExists,
		ReportPath:  m.Storage.ReportPath,
		YearDigits:  m.Contracts.YearDigits,
	}
}

func parseDate(field, s string) (time.Time, error) {
	// YAML timestamps may arrive with a time part; only the date matters.
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	t, err := calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date %q (expected YYYY-MM-DD)", field, s)
	}
	return t, nil
}
