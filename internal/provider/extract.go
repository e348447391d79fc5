package provider

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Provider feeds rename fields between API versions, so each canonical field
// is extracted through an explicit, ordered key list instead of ad hoc
// lookups scattered through the mappers.

// FirstString returns the first non-empty string value among keys.
func FirstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// FirstID returns the first present id-like value among keys, accepting both
// string and numeric ids. Numeric ids are formatted without an exponent.
func FirstID(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// NonBlank filters out blank location tokens, preserving order.
func NonBlank(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token) != "" {
			out = append(out, token)
		}
	}
	return out
}

// Coord returns the value under key only when it is numeric; anything else
// becomes nil rather than a guessed coordinate.
func Coord(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
