package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

func TestMerge_KeyHierarchy(t *testing.T) {
	sameID := draft(domain.SourceZillow, "z1")
	sameIDDup := draft(domain.SourceZillow, "z1")
	sameIDOtherSource := draft(domain.SourceRightmove, "z1")

	byURL := &domain.PropertyDraft{Source: domain.SourceWeb, URL: "https://Example.com/Listing"}
	byURLDup := &domain.PropertyDraft{Source: domain.SourceWeb, URL: "https://example.com/listing"}

	byAddress := &domain.PropertyDraft{Source: domain.SourceCraigslist, Address: "12 Oak St", City: "Portland"}
	byAddressDup := &domain.PropertyDraft{Source: domain.SourceCraigslist, Address: "12 oak st", City: "portland"}

	keyless := &domain.PropertyDraft{Source: domain.SourceWeb}

	result := Merge([]provider.Outcome{
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{sameID, sameIDDup, byURL}),
		provider.OK(domain.SourceRightmove, []*domain.PropertyDraft{sameIDOtherSource}),
		provider.OK(domain.SourceCraigslist, []*domain.PropertyDraft{byAddress, byAddressDup}),
		provider.OK(domain.SourceWeb, []*domain.PropertyDraft{byURLDup, keyless}),
	}, 0)

	// z1 survives per source, the URL and address dups collapse, keyless
	// is always kept.
	require.Len(t, result.Listings, 5)
	assert.Same(t, sameID, result.Listings[0])
	assert.Same(t, byURL, result.Listings[1])
	assert.Same(t, sameIDOtherSource, result.Listings[2], "provider id is scoped by source")
	assert.Same(t, byAddress, result.Listings[3])
	assert.Same(t, keyless, result.Listings[4])
	assert.Empty(t, result.Note)
}

func TestMerge_FirstSeenWinsAcrossProviders(t *testing.T) {
	winner := &domain.PropertyDraft{Source: domain.SourceZillow, URL: "https://example.com/a", Address: "winner"}
	loser := &domain.PropertyDraft{Source: domain.SourceWeb, URL: "https://example.com/a", Address: "loser"}

	result := Merge([]provider.Outcome{
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{winner}),
		provider.OK(domain.SourceWeb, []*domain.PropertyDraft{loser}),
	}, 0)

	require.Len(t, result.Listings, 1)
	assert.Equal(t, "winner", result.Listings[0].Address)
}

func TestMerge_SkipsFailedAndEmptyOutcomes(t *testing.T) {
	result := Merge([]provider.Outcome{
		provider.Failed(domain.SourceCraigslist, assert.AnError),
		provider.Empty(domain.SourceRightmove, "nothing in this area"),
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{draft(domain.SourceZillow, "z1")}),
	}, 0)

	require.Len(t, result.Listings, 1)
	assert.Empty(t, result.Note)
}

func TestMerge_EmptyResultCarriesFirstAdapterNote(t *testing.T) {
	result := Merge([]provider.Outcome{
		provider.Failed(domain.SourceZillow, assert.AnError),
		provider.Empty(domain.SourceCraigslist, "No Craigslist listings matched."),
		provider.Empty(domain.SourceRightmove, "No Rightmove listings matched."),
	}, 0)

	assert.Empty(t, result.Listings)
	assert.Equal(t, "No Craigslist listings matched.", result.Note)
}

func TestMerge_EmptyResultFallsBackToGenericNote(t *testing.T) {
	result := Merge([]provider.Outcome{
		provider.Failed(domain.SourceZillow, assert.AnError),
		provider.Failed(domain.SourceWeb, assert.AnError),
	}, 0)

	assert.Empty(t, result.Listings)
	assert.Equal(t, emptyResultNote, result.Note)
}

// End to end over fakes: scrape results plus two REST providers with one
// cross-provider duplicate, truncated to the requested page size.
func TestRunAndMerge_EndToEnd(t *testing.T) {
	craigslist := &fakeProvider{source: domain.SourceCraigslist}
	craigslist.search = func(context.Context) provider.Outcome {
		return provider.OK(craigslist.source, []*domain.PropertyDraft{
			draft(domain.SourceCraigslist, "c1"),
			draft(domain.SourceCraigslist, "c2"),
			draft(domain.SourceCraigslist, "c3"),
		})
	}
	zillow := &fakeProvider{source: domain.SourceZillow}
	zillow.search = func(context.Context) provider.Outcome {
		return provider.OK(zillow.source, []*domain.PropertyDraft{
			draft(domain.SourceZillow, "z1"),
			draft(domain.SourceZillow, "z2"),
		})
	}
	web := &fakeProvider{source: domain.SourceWeb}
	web.search = func(context.Context) provider.Outcome {
		return provider.OK(web.source, []*domain.PropertyDraft{
			{Source: domain.SourceWeb, URL: "https://example.com/z1-page"},
			{Source: domain.SourceWeb, URL: "https://EXAMPLE.com/z1-page"},
		})
	}

	o := NewOrchestrator(fastPolicy(), zillow, craigslist, web)
	outcomes := o.Run(context.Background(), domain.SearchQuery{Locations: []string{"portland"}}, domain.PagingRequest{Limit: 5})

	result := Merge(outcomes, 5)
	require.Len(t, result.Listings, 5, "six unique drafts truncated to the page size")
	assert.Equal(t, domain.SourceZillow, result.Listings[0].Source, "provider order decides precedence")
}
