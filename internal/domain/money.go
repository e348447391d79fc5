package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MinorFromMajor converts a decimal major-unit amount to integer minor units.
// Every boundary that accepts a major-unit amount goes through this.
func MinorFromMajor(major float64) int64 {
	return int64(math.Round(major * 100))
}

// priceKeys is the ordered list of field names tried when a provider nests
// the amount inside an object.
var priceKeys = []string{"amount", "value", "raw"}

// ParsePriceMinor normalizes the price shapes seen across provider feeds
// into integer minor units: plain numbers, formatted strings ("$450,000",
// "£1,200.50"), and nested {amount|value|raw} objects. Returns nil for
// anything it cannot parse into a non-negative amount.
func ParsePriceMinor(v any) *int64 {
	switch p := v.(type) {
	case nil:
		return nil
	case float64:
		return minorFromFloat(p)
	case float32:
		return minorFromFloat(float64(p))
	case int:
		return minorFromFloat(float64(p))
	case int64:
		return minorFromFloat(float64(p))
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return nil
		}
		return minorFromFloat(f)
	case string:
		return parsePriceString(p)
	case map[string]any:
		for _, key := range priceKeys {
			if nested, ok := p[key]; ok {
				if minor := ParsePriceMinor(nested); minor != nil {
					return minor
				}
			}
		}
		return nil
	default:
		return nil
	}
}

func parsePriceString(s string) *int64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return minorFromFloat(f)
}

func minorFromFloat(f float64) *int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	minor := MinorFromMajor(f)
	return &minor
}
