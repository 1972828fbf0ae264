package domain

import (
	"encoding/json"
	"strings"
)

// DefaultCombinationKey is the key of the empty attribute map. Untracked products and
// items booked without attributes count against it.
const DefaultCombinationKey = "{}"

// NormalizeAttributes trims keys and values and drops empty entries.
func NormalizeAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// CombinationKey serializes an attribute map canonically. encoding/json writes map keys
// sorted, so the result never depends on map iteration order.
func CombinationKey(attrs map[string]string) string {
	norm := NormalizeAttributes(attrs)
	if len(norm) == 0 {
		return DefaultCombinationKey
	}
	b, err := json.Marshal(norm)
	if err != nil {
		return DefaultCombinationKey
	}
	return string(b)
}

// MatchesAttributes reports whether attrs carries every key/value in selected.
// Keys missing from selected act as wildcards.
func MatchesAttributes(attrs, selected map[string]string) bool {
	for k, v := range NormalizeAttributes(selected) {
		if strings.TrimSpace(attrs[k]) != v {
			return false
		}
	}
	return true
}
