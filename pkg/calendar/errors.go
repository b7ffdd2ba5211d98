package calendar

import (
	"errors"
	"fmt"
)

// Sentinel errors for calendar requests.
var (
	// ErrNoSymbols indicates an empty asset symbol list.
	ErrNoSymbols = errors.New("no asset symbols requested")

	// ErrInvalidRange indicates the end date precedes the start date.
	ErrInvalidRange = errors.New("end date is before start date")
)

// UnsupportedAssetError reports an asset symbol with no known expiry rule.
type UnsupportedAssetError struct {
	Symbol string
}

// Error implements the error interface.
func (e *UnsupportedAssetError) Error() string {
	return fmt.Sprintf("unsupported asset symbol: %q", e.Symbol)
}

// IsUnsupportedAsset returns true if err is or wraps an UnsupportedAssetError.
func IsUnsupportedAsset(err error) bool {
	var target *UnsupportedAssetError
	return errors.As(err, &target)
}
