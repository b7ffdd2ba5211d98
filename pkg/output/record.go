// Package output provides JSONL output for contract listings and batch runs.
//
// Output is structured as typed record envelopes containing contracts,
// stored objects, failures, and progress updates. Each line is a
// self-contained JSON object that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: gofutures.<type>.v<version>
const (
	// TypeContract identifies contract period records.
	TypeContract = "gofutures.contract.v1"

	// TypeObject identifies stored object records.
	TypeObject = "gofutures.object.v1"

	// TypeFailure identifies per-contract failure records.
	TypeFailure = "gofutures.failure.v1"

	// TypeError identifies batch-fatal error records.
	TypeError = "gofutures.error.v1"

	// TypeProgress identifies progress update records.
	TypeProgress = "gofutures.progress.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "gofutures.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// The type field determines how to interpret the Data payload.
type Record struct {
	// Type identifies the record type (e.g., "gofutures.contract.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this run (the batch ID for batches).
	JobID string `json:"job_id"`

	// Provider identifies the storage provider (e.g., "s3", "file"), if any.
	Provider string `json:"provider"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ContractRecord is the data payload for a generated contract period.
//
// Dates use YYYY-MM-DD.
type ContractRecord struct {
	Asset         string `json:"asset"`
	Symbol        string `json:"symbol"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Expiry        string `json:"expiry"`
	CoverageStart string `json:"coverage_start"`
	CoverageEnd   string `json:"coverage_end"`
}

// ObjectRecord is the data payload for a stored contract data object.
type ObjectRecord struct {
	// Key is the object key relative to the storage root.
	Key string `json:"key"`

	// Size is the object size in bytes.
	Size int64 `json:"size"`

	// ETag is the entity tag, when the provider reports one.
	ETag string `json:"etag,omitempty"`

	// LastModified is when the object was last modified.
	LastModified time.Time `json:"last_modified"`

	// Symbol is the contract symbol, when the key maps to one.
	Symbol string `json:"symbol,omitempty"`
}

// FailureRecord is the data payload for a contract whose operation failed.
type FailureRecord struct {
	Index   int    `json:"index"`
	Symbol  string `json:"symbol"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Request string `json:"request"`
	Error   string `json:"error"`
}

// ErrorRecord is the data payload for errors that end a run.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Symbol is the contract related to this error, if applicable.
	Symbol string `json:"symbol,omitempty"`

	// Details contains additional error context.
	Details any `json:"details,omitempty"`
}

// Error codes for ErrorRecord.
const (
	// ErrCodeUnsupportedAsset indicates a symbol has no calendar rule.
	ErrCodeUnsupportedAsset = "UNSUPPORTED_ASSET"

	// ErrCodeScheduling indicates the batch could not schedule work.
	ErrCodeScheduling = "SCHEDULING"

	// ErrCodeItemFailed indicates a fail-fast batch stopped on a contract.
	ErrCodeItemFailed = "ITEM_FAILED"

	// ErrCodeAccessDenied indicates permission failure.
	ErrCodeAccessDenied = "ACCESS_DENIED"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal = "INTERNAL"
)

// ProgressRecord is the data payload for progress updates.
type ProgressRecord struct {
	// Phase indicates the current run phase.
	Phase string `json:"phase"`

	Completed int `json:"completed"`
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// Symbol is the contract that just completed, if any.
	Symbol string `json:"symbol,omitempty"`
}

// Progress phase constants.
const (
	// PhaseStarting indicates the batch is initializing.
	PhaseStarting = "starting"

	// PhaseRunning indicates contracts are being processed.
	PhaseRunning = "running"

	// PhaseComplete indicates the batch has finished.
	PhaseComplete = "complete"
)

// SummaryRecord is the data payload for final summaries.
type SummaryRecord struct {
	// Operation is the batch operation ("estimate", "download", "inventory").
	Operation string `json:"operation"`

	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// Value is the aggregated batch value (cost in USD, or bytes stored).
	Value any `json:"value"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`

	// FailedSymbols lists failed contracts in submission order.
	FailedSymbols []string `json:"failed_symbols,omitempty"`

	// ReportPath is where the failure report was written, if it was.
	ReportPath string `json:"report_path,omitempty"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
