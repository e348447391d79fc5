package discovery

import (
	"strings"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

const emptyResultNote = "No listings matched across any source. Try adding locations or widening the price and bedroom filters."

// Merge flattens the successful outcomes in provider order into one
// deduplicated, capped result. Identity is resolved in a strict order:
// provider id scoped by source, then normalized URL, then the address
// composite. First occurrence wins; drafts with no derivable identity are
// always kept.
func Merge(outcomes []provider.Outcome, limit int) domain.MergedResult {
	var listings []*domain.PropertyDraft
	seen := make(map[string]struct{})

	for _, outcome := range outcomes {
		if outcome.Status != provider.StatusOK {
			continue
		}
		for _, draft := range outcome.Listings {
			key := DedupKey(draft)
			if key == "" {
				listings = append(listings, draft)
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			listings = append(listings, draft)
		}
	}

	listings = provider.Cap(listings, limit)

	result := domain.MergedResult{Listings: listings}
	if len(listings) == 0 {
		result.Note = firstNote(outcomes)
	}
	return result
}

// DedupKey derives the cross-provider identity of a draft, or "" when none
// of its identifying fields are populated. The persistence layer uses the
// same key, so a listing merged away here can never be double-inserted there.
func DedupKey(d *domain.PropertyDraft) string {
	if d.SourceID != "" {
		return "id:" + string(d.Source) + ":" + d.SourceID
	}
	if u := strings.ToLower(strings.TrimSpace(d.URL)); u != "" {
		return "url:" + u
	}
	if k := provider.CompositeKey(d); k != "" {
		return "addr:" + k
	}
	return ""
}

func firstNote(outcomes []provider.Outcome) string {
	for _, outcome := range outcomes {
		if outcome.Status == provider.StatusEmpty && outcome.Note != "" {
			return outcome.Note
		}
	}
	return emptyResultNote
}
