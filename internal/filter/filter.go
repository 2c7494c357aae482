// Package filter implements the FilterMatcher: given a list of
// candidate strings, a format, and a search dictionary, it drops
// strings whose extracted placeholder values fail to satisfy the
// search terms.
package filter

import (
	"strconv"
	"strings"

	"github.com/AusClimateService/dataset-finder/internal/format"
)

// YearRange returns the inclusive list of year strings from start to
// end. Both must be integer-convertible; a non-integer value is a
// caller error and panics-equivalent in the original Python (an
// unguarded int() conversion propagated as an exception) — here it
// returns an error instead, since Go does not use exceptions for
// control flow. This is a deliberate "do not guess a recovery" choice
// per spec §9's open question on range-parsing boundaries.
func YearRange(start, end string) ([]string, error) {
	startN, err := strconv.Atoi(start)
	if err != nil {
		return nil, err
	}
	endN, err := strconv.Atoi(end)
	if err != nil {
		return nil, err
	}
	if endN < startN {
		return []string{}, nil
	}
	out := make([]string, 0, endN-startN+1)
	for y := startN; y <= endN; y++ {
		out = append(out, strconv.Itoa(y))
	}
	return out, nil
}

func normalizeSearch(search map[string][]string) map[string][]string {
	out := make(map[string][]string, len(search))
	for k, v := range search {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// baseKeyAndTag splits a binding key of the form "name!start"/"name!end"
// into its base name and tag ("" if untagged).
func baseKeyAndTag(key string) (string, string) {
	if idx := strings.IndexByte(key, '!'); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

// passes reports whether the extracted binding for item satisfies every
// key present in both the binding and search. exactOverrides, when set
// for a key, takes precedence over the global exact flag.
func passes(bindings format.Binding, search map[string][]string, exact bool, exactOverrides map[string]bool) bool {
	keys := bindings.Keys()
	for _, key := range keys {
		value, _ := bindings.Get(key)

		base, tag := baseKeyAndTag(key)
		rangeCheck := false
		checkValue := value
		var rangeValues []string

		if tag == "end" {
			// Handled by its "start" partner; skip standalone.
			continue
		}
		if tag == "start" {
			endValue, ok := bindings.Get(base + "!end")
			if !ok {
				return false
			}
			values, err := YearRange(value, endValue)
			if err != nil {
				return false
			}
			rangeCheck = true
			rangeValues = values
		}

		queries, searched := search[base]
		if !searched {
			continue
		}

		matched := false
		for _, query := range queries {
			if rangeCheck {
				for _, rv := range rangeValues {
					if query == rv {
						matched = true
						break
					}
				}
			} else {
				useExact := exact
				if override, ok := exactOverrides[base]; ok {
					useExact = override
				}
				if useExact {
					if strings.EqualFold(query, checkValue) {
						matched = true
					}
				} else if strings.Contains(strings.ToLower(checkValue), strings.ToLower(query)) {
					matched = true
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// MatchValues extracts placeholder values from each item in items using
// formatStr and keeps only the items whose extracted values satisfy
// search (per spec §4.2: a single query value promoted to a singleton
// list, case-folded comparisons, per-key exact/substring override, and
// "!start" year-range membership tests). Items that fail extraction
// entirely are dropped. Returns a new slice; items is never mutated.
func MatchValues(items []string, formatStr string, search map[string][]string, exact bool, exactOverrides map[string]bool) []string {
	search = normalizeSearch(search)
	kept := make([]string, 0, len(items))

	for _, item := range items {
		bindings, err := format.Extract(formatStr, item)
		if err != nil {
			continue
		}
		if passes(bindings, search, exact, exactOverrides) {
			kept = append(kept, item)
		}
	}
	return kept
}
