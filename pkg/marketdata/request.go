// Package marketdata is a client for a historical futures market-data API.
//
// It covers the two remote operations batches need: pricing a request
// (metadata.get_cost) and streaming its data (timeseries.get_range). The
// payload is stored as delivered; decoding it is out of scope.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/3leaps/gofutures/pkg/calendar"
)

// Well-known operation names, used in request descriptions.
const (
	OpGetCost  = "metadata.get_cost"
	OpGetRange = "timeseries.get_range"
)

// Defaults matching the CME Globex dataset and one-minute bars.
const (
	DefaultDataset = "GLBX.MDP3"
	DefaultSchema  = "ohlcv-1m"
	DefaultSTypeIn = "raw_symbol"
)

// Client performs remote market-data operations.
//
// Implementations must be safe for concurrent use: one Client is shared by
// every worker of a batch.
type Client interface {
	// GetCost returns the price in USD of the data described by req.
	GetCost(ctx context.Context, req Request) (float64, error)

	// GetRange streams the data described by req. The returned length is
	// -1 when unknown. Callers must close the body.
	GetRange(ctx context.Context, req Request) (io.ReadCloser, int64, error)
}

// Request describes one contract's data request.
type Request struct {
	Dataset string
	Schema  string
	Symbols string
	STypeIn string
	Start   time.Time
	End     time.Time
}

// NewRequest builds a request for a contract period's coverage window.
// Coverage dates map to UTC midnights.
func NewRequest(dataset, schema string, p calendar.ContractPeriod) Request {
	return Request{
		Dataset: dataset,
		Schema:  schema,
		Symbols: p.Symbol,
		STypeIn: DefaultSTypeIn,
		Start:   calendar.Day(p.CoverageStart),
		End:     calendar.Day(p.CoverageEnd),
	}
}

// Describe reconstructs the HTTP request for op, for failure reports.
func (r Request) Describe(op string) string {
	return fmt.Sprintf("POST %s dataset=%s schema=%s symbols=%s stype_in=%s start=%s end=%s",
		op, r.Dataset, r.Schema, r.Symbols, r.stypeIn(),
		r.Start.UTC().Format(time.RFC3339), r.End.UTC().Format(time.RFC3339))
}

func (r Request) stypeIn() string {
	if r.STypeIn == "" {
		return DefaultSTypeIn
	}
	return r.STypeIn
}
