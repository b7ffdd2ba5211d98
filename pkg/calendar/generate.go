package calendar

import "time"

// Selection decides which contracts fall inside a requested date range.
type Selection int

const (
	// SelectByExpiry includes a contract when its expiry lies in the range.
	SelectByExpiry Selection = iota

	// SelectByContractMonth includes a contract when its delivery month
	// overlaps the range.
	SelectByContractMonth
)

// String returns the selection name used in config and manifests.
func (s Selection) String() string {
	switch s {
	case SelectByContractMonth:
		return "contract-month"
	default:
		return "expiry"
	}
}

// ParseSelection parses "expiry" or "contract-month". Empty means expiry.
func ParseSelection(s string) (Selection, bool) {
	switch s {
	case "", "expiry":
		return SelectByExpiry, true
	case "contract-month":
		return SelectByContractMonth, true
	default:
		return SelectByExpiry, false
	}
}

type options struct {
	selection  Selection
	yearDigits int
}

// Option configures contract generation.
type Option func(*options)

// WithSelection sets the range selection mode.
func WithSelection(s Selection) Option {
	return func(o *options) { o.selection = s }
}

// WithYearDigits sets the symbol year width (1 or 2).
func WithYearDigits(n int) Option {
	return func(o *options) { o.yearDigits = n }
}

// GenerateContractPeriods returns the contract periods for each asset symbol
// within [start, end].
//
// Periods are grouped by symbol in input order and sorted by ascending expiry
// within each group. Every symbol is validated before any period is produced,
// so an unsupported symbol fails the whole request with an
// *UnsupportedAssetError. Duplicate symbols are ignored.
func GenerateContractPeriods(symbols []string, start, end time.Time, opts ...Option) ([]ContractPeriod, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	o := options{selection: SelectByExpiry, yearDigits: 1}
	for _, opt := range opts {
		opt(&o)
	}

	type asset struct {
		symbol string
		rule   AssetClassRule
	}
	assets := make([]asset, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		rule, err := Lookup(s)
		if err != nil {
			return nil, err
		}
		norm := NormalizeSymbol(s)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		assets = append(assets, asset{symbol: norm, rule: rule})
	}

	var periods []ContractPeriod
	for _, a := range assets {
		periods = append(periods, generateAsset(a.symbol, a.rule, start, end, o)...)
	}
	return periods, nil
}

func generateAsset(symbol string, rule AssetClassRule, start, end time.Time, o options) []ContractPeriod {
	var (
		periods    []ContractPeriod
		prevExpiry time.Time
		hasPrev    bool
	)

	// Energy expiries fall in the month before delivery, so scan one year on
	// either side of the range.
	for year := start.Year() - 1; year <= end.Year()+1; year++ {
		for _, month := range rule.Months {
			expiry := rule.Expiry(year, month)
			if !selected(o.selection, year, month, expiry, start, end) {
				continue
			}

			covStart, covEnd := rule.Window.window(expiry, prevExpiry, hasPrev)
			periods = append(periods, ContractPeriod{
				Asset:         symbol,
				Symbol:        FormatSymbol(symbol, year, month, o.yearDigits),
				Year:          year,
				Month:         month,
				Expiry:        expiry,
				CoverageStart: covStart,
				CoverageEnd:   covEnd,
			})
			prevExpiry, hasPrev = expiry, true
		}
	}
	return periods
}

func selected(sel Selection, year int, month time.Month, expiry, start, end time.Time) bool {
	if sel == SelectByContractMonth {
		first := Date(year, month, 1)
		last := Date(year, month+1, 0)
		return !first.After(end) && !last.Before(start)
	}
	return !expiry.Before(start) && !expiry.After(end)
}
