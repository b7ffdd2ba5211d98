package output

import (
	"github.com/3leaps/gofutures/pkg/batch"
	"github.com/3leaps/gofutures/pkg/calendar"
)

// NewContractRecord converts a contract period to its record payload.
func NewContractRecord(p calendar.ContractPeriod) *ContractRecord {
	return &ContractRecord{
		Asset:         p.Asset,
		Symbol:        p.Symbol,
		Year:          p.Year,
		Month:         int(p.Month),
		Expiry:        calendar.FormatDate(p.Expiry),
		CoverageStart: calendar.FormatDate(p.CoverageStart),
		CoverageEnd:   calendar.FormatDate(p.CoverageEnd),
	}
}

// NewFailureRecord converts a batch failure to its record payload.
func NewFailureRecord(f batch.FailureRecord) *FailureRecord {
	return &FailureRecord{
		Index:   f.Index,
		Symbol:  f.Key.Symbol,
		Start:   calendar.FormatDate(f.Key.CoverageStart),
		End:     calendar.FormatDate(f.Key.CoverageEnd),
		Request: f.Request,
		Error:   f.Error,
	}
}

// NewProgressRecord converts a batch progress update to its record payload.
func NewProgressRecord(p batch.Progress) *ProgressRecord {
	return &ProgressRecord{
		Phase:     PhaseRunning,
		Completed: p.Completed,
		Total:     p.Total,
		Succeeded: p.Succeeded,
		Failed:    p.Failed,
		Symbol:    p.Last.Symbol,
	}
}
