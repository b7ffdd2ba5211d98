package calendar

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandSymbols resolves glob patterns (e.g. "*", "C?", "{ES,NQ}") against
// the supported asset registry.
//
// Literal symbols must be supported. A pattern that matches nothing is
// reported as unsupported. The result preserves pattern order, with
// registry order inside a pattern, and contains no duplicates.
func ExpandSymbols(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, raw := range patterns {
		pattern := NormalizeSymbol(raw)
		if pattern == "" {
			continue
		}

		if !strings.ContainsAny(pattern, "*?[{") {
			if _, err := Lookup(pattern); err != nil {
				return nil, err
			}
			add(pattern)
			continue
		}

		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid symbol pattern %q", raw)
		}
		matched := false
		for _, s := range Symbols() {
			ok, err := doublestar.Match(pattern, s)
			if err != nil {
				return nil, fmt.Errorf("invalid symbol pattern %q: %w", raw, err)
			}
			if ok {
				matched = true
				add(s)
			}
		}
		if !matched {
			return nil, &UnsupportedAssetError{Symbol: raw}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSymbols
	}
	return out, nil
}
