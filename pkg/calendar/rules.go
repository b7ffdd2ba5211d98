package calendar

import (
	"sort"
	"strings"
	"time"
)

// AssetClass groups assets that share expiry and roll conventions.
type AssetClass string

const (
	// ClassEnergy covers monthly energy contracts (crude, gas, products).
	ClassEnergy AssetClass = "energy"

	// ClassEquityIndex covers quarterly equity-index contracts.
	ClassEquityIndex AssetClass = "equity_index"
)

// ExpiryFunc returns the expiry date of the contract for the given
// delivery year and month.
type ExpiryFunc func(year int, month time.Month) time.Time

// WindowPolicy describes how far a contract's coverage extends around its
// expiry.
type WindowPolicy struct {
	// LookbackDays is the coverage start offset before expiry when the
	// contract has no predecessor to chain from.
	LookbackDays int

	// TrailDays extends coverage past expiry.
	TrailDays int

	// RollLeadDays, when positive, chains windows: coverage starts this many
	// days before the previous contract's expiry.
	RollLeadDays int
}

// window computes the coverage bounds for a contract.
func (w WindowPolicy) window(expiry, prevExpiry time.Time, hasPrev bool) (time.Time, time.Time) {
	start := expiry.AddDate(0, 0, -w.LookbackDays)
	if w.RollLeadDays > 0 && hasPrev {
		start = prevExpiry.AddDate(0, 0, -w.RollLeadDays)
	}
	return start, expiry.AddDate(0, 0, w.TrailDays)
}

// AssetClassRule binds an asset to its expiry computation, roll window and
// listed contract months.
type AssetClassRule struct {
	Class  AssetClass
	Months []time.Month
	Expiry ExpiryFunc
	Window WindowPolicy
}

var allMonths = []time.Month{
	time.January, time.February, time.March, time.April, time.May, time.June,
	time.July, time.August, time.September, time.October, time.November, time.December,
}

var quarterlyMonths = []time.Month{time.March, time.June, time.September, time.December}

var (
	energyRule = AssetClassRule{
		Class:  ClassEnergy,
		Months: allMonths,
		Expiry: EnergyExpiry,
		Window: WindowPolicy{LookbackDays: 40, TrailDays: 3},
	}

	equityIndexRule = AssetClassRule{
		Class:  ClassEquityIndex,
		Months: quarterlyMonths,
		Expiry: EquityIndexExpiry,
		Window: WindowPolicy{LookbackDays: 90, RollLeadDays: 10},
	}
)

var registry = map[string]AssetClassRule{
	// Energy
	"CL": energyRule,
	"NG": energyRule,
	"RB": energyRule,
	"HO": energyRule,

	// Equity indices
	"ES":  equityIndexRule,
	"NQ":  equityIndexRule,
	"RTY": equityIndexRule,
	"YM":  equityIndexRule,
}

// NormalizeSymbol upper-cases and trims an asset symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Lookup returns the rule for an asset symbol.
func Lookup(symbol string) (AssetClassRule, error) {
	rule, ok := registry[NormalizeSymbol(symbol)]
	if !ok {
		return AssetClassRule{}, &UnsupportedAssetError{Symbol: symbol}
	}
	return rule, nil
}

// Symbols returns every supported asset symbol in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
