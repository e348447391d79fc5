// Package rightmove fetches UK listings from the Rightmove search endpoint
// on RapidAPI. Only the sale channel is queried unless the caller asks for
// rentals.
package rightmove

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/httpx"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

const (
	searchURL = "https://rightmove3.p.rapidapi.com/search"
	apiHost   = "rightmove3.p.rapidapi.com"

	channelBuy = "RES_BUY"
	channelLet = "RES_LET"
)

// Adapter queries Rightmove via RapidAPI.
type Adapter struct {
	client *httpx.Client
	apiKey string
}

// New creates a Rightmove adapter.
func New(client *httpx.Client, apiKey string) *Adapter {
	return &Adapter{client: client, apiKey: apiKey}
}

// Source implements provider.Provider.
func (a *Adapter) Source() domain.Source {
	return domain.SourceRightmove
}

// Search issues one request per location identifier concurrently, with the
// same per-location failure isolation as the other REST adapters.
func (a *Adapter) Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) provider.Outcome {
	locations := provider.NonBlank(query.Locations)
	if len(locations) == 0 {
		return provider.Empty(a.Source(), `Rightmove search needs a location or a Rightmove locationIdentifier (e.g. "Manchester").`)
	}

	channel := channelBuy
	searchType := "SALE"
	if query.ListingType == domain.ListingTypeRent {
		channel = channelLet
		searchType = "RENT"
	}

	type locationResult struct {
		items []*domain.PropertyDraft
		err   error
	}
	results := make([]locationResult, len(locations))

	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc string) {
			defer wg.Done()
			items, err := a.searchLocation(ctx, loc, searchType, channel, query)
			results[i] = locationResult{items: items, err: err}
		}(i, loc)
	}
	wg.Wait()

	var all []*domain.PropertyDraft
	var firstErr error
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		all = append(all, res.items...)
	}

	if failed == len(locations) {
		return provider.Failed(a.Source(), firstErr)
	}

	all = provider.DedupBySourceID(all)
	all = provider.Cap(all, paging.Limit)

	if len(all) == 0 {
		return provider.Empty(a.Source(), "No Rightmove listings matched. Try a broader area or a higher budget ceiling.")
	}
	return provider.OK(a.Source(), all)
}

func (a *Adapter) searchLocation(ctx context.Context, location, searchType, channel string, query domain.SearchQuery) ([]*domain.PropertyDraft, error) {
	params := url.Values{}
	params.Set("locationIdentifier", location)
	params.Set("type", searchType)
	params.Set("index", "0")
	if query.BudgetMinMajor != nil {
		params.Set("minPrice", strconv.FormatInt(*query.BudgetMinMajor, 10))
	}
	if query.BudgetMaxMajor != nil {
		params.Set("maxPrice", strconv.FormatInt(*query.BudgetMaxMajor, 10))
	}
	if query.BedroomsMin != nil {
		params.Set("minBedrooms", strconv.Itoa(*query.BedroomsMin))
	}

	reqURL := searchURL + "?" + params.Encode()
	headers := map[string]string{
		"X-RapidAPI-Key":  a.apiKey,
		"X-RapidAPI-Host": apiHost,
	}

	body, status, err := a.client.Get(ctx, reqURL, headers)
	if err != nil {
		return nil, provider.NewTransportError(a.Source(), reqURL, err)
	}
	if status < 200 || status >= 300 {
		return nil, provider.NewStatusError(a.Source(), reqURL, status)
	}

	var payload struct {
		Properties []map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, provider.NewParseError(a.Source(), err)
	}

	items := make([]*domain.PropertyDraft, 0, len(payload.Properties))
	for _, p := range payload.Properties {
		items = append(items, mapProperty(p, channel))
	}
	return items, nil
}

func mapProperty(p map[string]any, channel string) *domain.PropertyDraft {
	id := provider.FirstID(p, "id")

	listingURL := provider.FirstString(p, "detailUrl")
	if listingURL == "" {
		listingURL = detailLink(id, channel)
	}

	return &domain.PropertyDraft{
		Source:     domain.SourceRightmove,
		SourceID:   id,
		URL:        listingURL,
		Address:    provider.FirstString(p, "displayAddress", "address"),
		City:       provider.FirstString(p, "city"),
		State:      provider.FirstString(p, "county", "region"),
		PostalCode: provider.FirstString(p, "postcode", "postalCode"),
		Country:    "GB",
		Lat:        provider.Coord(p, "latitude"),
		Lng:        provider.Coord(p, "longitude"),
		PriceMinor: domain.ParsePriceMinor(p["price"]),
		Currency:   domain.CurrencyGBP,
		Metadata:   p,
	}
}

func detailLink(id, channel string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("https://www.rightmove.co.uk/properties/%s#/?channel=%s", id, channel)
}
