package craigslist

import (
	"regexp"
	"strings"
)

// regionPattern is the only shape a Craigslist subdomain can take. Tokens
// that cannot be normalized into it are dropped rather than guessed at.
var regionPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// NormalizeRegion turns a free-text location token into a Craigslist region
// subdomain: full URLs are reduced to their host's first label ("sfbay" from
// "http://sfbay.craigslist.org/foo"), whitespace is removed, everything is
// lowercased, and characters outside [a-z0-9-] are stripped. Returns "" when
// nothing usable remains.
func NormalizeRegion(token string) string {
	s := strings.TrimSpace(strings.ToLower(token))
	if s == "" {
		return ""
	}

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	region := b.String()

	if !regionPattern.MatchString(region) {
		return ""
	}
	return region
}

// NormalizeRegions maps tokens through NormalizeRegion, dropping failures
// and duplicates while preserving input order.
func NormalizeRegions(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		region := NormalizeRegion(token)
		if region == "" {
			continue
		}
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		out = append(out, region)
	}
	return out
}
