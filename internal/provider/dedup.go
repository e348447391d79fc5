package provider

import (
	"strconv"
	"strings"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
)

// CompositeKey builds the address|city|lat|lng fallback identity for drafts
// without a provider-native id. Coordinates are compared exactly, not
// bucketed; near-identical points are treated as distinct listings.
func CompositeKey(d *domain.PropertyDraft) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(d.Address)),
		strings.ToLower(strings.TrimSpace(d.City)),
		formatCoord(d.Lat),
		formatCoord(d.Lng),
	}
	key := strings.Join(parts, "|")
	if key == "|||" {
		return ""
	}
	return key
}

func formatCoord(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// DedupBySourceID removes drafts that share a provider id, falling back to
// the composite key when no id exists. First occurrence wins; drafts with no
// derivable key are always kept.
func DedupBySourceID(items []*domain.PropertyDraft) []*domain.PropertyDraft {
	seen := make(map[string]struct{}, len(items))
	out := make([]*domain.PropertyDraft, 0, len(items))
	for _, item := range items {
		key := item.SourceID
		if key == "" {
			key = CompositeKey(item)
		}
		if key == "" {
			out = append(out, item)
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Cap truncates items to limit, preserving order. A non-positive limit
// returns items unchanged.
func Cap(items []*domain.PropertyDraft, limit int) []*domain.PropertyDraft {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}
