// Package calendar derives futures contract expiries, roll windows, and
// exchange ticker symbols from per-asset-class rules.
//
// The calendar is pure: it performs no I/O and holds no mutable state.
// Dates are represented as time.Time values at UTC midnight.
package calendar

import "time"

// ContractPeriod identifies one tradable contract and the date window over
// which its data should be fetched.
//
// Invariant: CoverageStart <= Expiry <= CoverageEnd.
type ContractPeriod struct {
	// Asset is the base asset symbol (e.g., "CL").
	Asset string `json:"asset"`

	// Symbol is the exchange ticker (e.g., "CLZ3").
	Symbol string `json:"symbol"`

	// Year and Month identify the contract (delivery) month.
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	// Expiry is the last trading day used to derive the roll window.
	Expiry time.Time `json:"expiry"`

	// CoverageStart and CoverageEnd bound the data request, inclusive.
	CoverageStart time.Time `json:"coverage_start"`
	CoverageEnd   time.Time `json:"coverage_end"`
}

// Date returns the UTC midnight for the given calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to the UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
