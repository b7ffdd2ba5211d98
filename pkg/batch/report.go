package batch

import (
	"fmt"
	"io"
	"strings"

	"github.com/3leaps/gofutures/pkg/calendar"
)

// DefaultReportPath is the well-known location of the failure report,
// relative to the storage root.
const DefaultReportPath = "error_response.txt"

// RenderReport writes a human-readable summary of res to w: the accumulated
// value, success and failure counts, and for each failure its contract
// window, the attempted request and the error text.
//
// Output is deterministic for a given Result. format renders Value; nil uses
// fmt's %v.
func RenderReport[V any](w io.Writer, res *Result[V], format func(V) string) error {
	if format == nil {
		format = func(v V) string { return fmt.Sprintf("%v", v) }
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total estimated value: %s (%d successful contracts)\n", format(res.Value), res.Succeeded)
	fmt.Fprintf(&b, "Failed contracts: %d out of %d\n", len(res.Failed), res.Total)

	if len(res.Failed) == 0 {
		b.WriteString("Failed contract symbols: none\n")
	} else {
		fmt.Fprintf(&b, "Failed contract symbols: %s\n\n", strings.Join(res.FailedSymbols(), ", "))
		for _, f := range res.Failed {
			fmt.Fprintf(&b, "[%s | %s to %s]\n", f.Key.Symbol,
				calendar.FormatDate(f.Key.CoverageStart), calendar.FormatDate(f.Key.CoverageEnd))
			fmt.Fprintf(&b, "API request: %s\n", f.Request)
			fmt.Fprintf(&b, "Error: %s\n\n", f.Error)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
