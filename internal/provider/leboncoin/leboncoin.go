// Package leboncoin fetches French listings from the Leboncoin finder API.
// Unlike the other REST providers it takes one POST per search: locations
// become a keyword query rather than separate requests.
package leboncoin

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/httpx"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

const (
	searchURL = "https://api.leboncoin.fr/finder/search"

	// Leboncoin category 9 is real-estate sales.
	realEstateCategory = "9"

	// The finder API requires a bounded price range once any bound is set.
	priceRangeCeiling = 99_999_999
)

type priceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type searchFilters struct {
	Category struct {
		ID string `json:"id"`
	} `json:"category"`
	Keywords struct {
		Text string `json:"text"`
	} `json:"keywords"`
	Ranges *struct {
		Price priceRange `json:"price"`
	} `json:"ranges,omitempty"`
}

type searchRequest struct {
	Filters searchFilters `json:"filters"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

type searchResponse struct {
	Ads []ad `json:"ads"`
}

type ad struct {
	ListID  json.Number `json:"list_id"`
	URL     string      `json:"url"`
	Subject string      `json:"subject"`
	Price   any         `json:"price"`
	Loc     struct {
		City string   `json:"city"`
		Lat  *float64 `json:"lat"`
		Lng  *float64 `json:"lng"`
	} `json:"location"`
}

// Adapter queries the Leboncoin finder API.
type Adapter struct {
	client *httpx.Client
	apiKey string
}

// New creates a Leboncoin adapter.
func New(client *httpx.Client, apiKey string) *Adapter {
	return &Adapter{client: client, apiKey: apiKey}
}

// Source implements provider.Provider.
func (a *Adapter) Source() domain.Source {
	return domain.SourceLeboncoin
}

// Search issues a single finder request built from the locations and any
// user-supplied price bounds.
func (a *Adapter) Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) provider.Outcome {
	locations := provider.NonBlank(query.Locations)
	if len(locations) == 0 {
		return provider.Empty(a.Source(), `Leboncoin search needs a location keyword (e.g. "Lyon" or a postcode).`)
	}

	reqBody := buildRequest(locations, query, paging)
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return provider.Failed(a.Source(), provider.NewParseError(a.Source(), err))
	}

	headers := map[string]string{
		"Authorization": "Bearer " + a.apiKey,
		"Content-Type":  "application/json",
	}

	body, status, err := a.client.Post(ctx, searchURL, bytes.NewReader(payload), headers)
	if err != nil {
		return provider.Failed(a.Source(), provider.NewTransportError(a.Source(), searchURL, err))
	}
	if status < 200 || status >= 300 {
		return provider.Failed(a.Source(), provider.NewStatusError(a.Source(), searchURL, status))
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Top-level parse failure: the provider answered but the payload is
		// unusable, so the whole adapter degrades to empty.
		return provider.Empty(a.Source(), "Leboncoin returned an unreadable response; no listings from this source.")
	}

	items := make([]*domain.PropertyDraft, 0, len(resp.Ads))
	for _, listing := range resp.Ads {
		items = append(items, mapAd(listing))
	}

	items = provider.DedupBySourceID(items)
	items = provider.Cap(items, paging.Limit)

	if len(items) == 0 {
		return provider.Empty(a.Source(), "No Leboncoin listings matched. Try a broader keyword or a wider price range.")
	}
	return provider.OK(a.Source(), items)
}

func buildRequest(locations []string, query domain.SearchQuery, paging domain.PagingRequest) searchRequest {
	var filters searchFilters
	filters.Category.ID = realEstateCategory
	filters.Keywords.Text = strings.Join(locations, " ")

	if query.BudgetMinMajor != nil || query.BudgetMaxMajor != nil {
		ranges := &struct {
			Price priceRange `json:"price"`
		}{}
		ranges.Price.Max = priceRangeCeiling
		if query.BudgetMinMajor != nil {
			ranges.Price.Min = *query.BudgetMinMajor
		}
		if query.BudgetMaxMajor != nil {
			ranges.Price.Max = *query.BudgetMaxMajor
		}
		filters.Ranges = ranges
	}

	return searchRequest{
		Filters: filters,
		Limit:   paging.Limit,
		Offset:  paging.Offset,
	}
}

func mapAd(listing ad) *domain.PropertyDraft {
	var lat, lng *float64
	if listing.Loc.Lat != nil && listing.Loc.Lng != nil {
		lat, lng = listing.Loc.Lat, listing.Loc.Lng
	}

	return &domain.PropertyDraft{
		Source:     domain.SourceLeboncoin,
		SourceID:   listing.ListID.String(),
		URL:        listing.URL,
		Address:    listing.Subject,
		City:       listing.Loc.City,
		Country:    "FR",
		Lat:        lat,
		Lng:        lng,
		PriceMinor: domain.ParsePriceMinor(listing.Price),
		Currency:   domain.CurrencyEUR,
		Metadata: map[string]any{
			"list_id": listing.ListID.String(),
			"subject": listing.Subject,
		},
	}
}
