// Package zillow fetches US listings from the Zillow search endpoint on
// RapidAPI.
package zillow

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
	searchURL = "https://zillow56.p.rapidapi.com/propertyExtendedSearch"
	apiHost   = "zillow56.p.rapidapi.com"
)

// Adapter queries Zillow via RapidAPI.
type Adapter struct {
	client *httpx.Client
	apiKey string
}

// New creates a Zillow adapter.
func New(client *httpx.Client, apiKey string) *Adapter {
	return &Adapter{client: client, apiKey: apiKey}
}

// Source implements provider.Provider.
func (a *Adapter) Source() domain.Source {
	return domain.SourceZillow
}

// Search issues one request per location concurrently. A bad response for
// one location degrades only that location; the adapter fails only when
// every location request failed.
func (a *Adapter) Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) provider.Outcome {
	locations := provider.NonBlank(query.Locations)
	if len(locations) == 0 {
		return provider.Empty(a.Source(), `Zillow search requires a location. Provide a city or ZIP (e.g. "Seattle, WA").`)
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
			items, err := a.searchLocation(ctx, loc, query)
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
		return provider.Empty(a.Source(), "No Zillow listings matched. Try widening the budget or dropping the bedroom minimum.")
	}
	return provider.OK(a.Source(), all)
}

func (a *Adapter) searchLocation(ctx context.Context, location string, query domain.SearchQuery) ([]*domain.PropertyDraft, error) {
	params := url.Values{}
	params.Set("location", location)
	params.Set("page", "1")
	if query.BudgetMinMajor != nil {
		params.Set("minPrice", strconv.FormatInt(*query.BudgetMinMajor, 10))
	}
	if query.BudgetMaxMajor != nil {
		params.Set("maxPrice", strconv.FormatInt(*query.BudgetMaxMajor, 10))
	}
	if query.BedroomsMin != nil {
		params.Set("bedsMin", strconv.Itoa(*query.BedroomsMin))
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
		Props []map[string]any `json:"props"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, provider.NewParseError(a.Source(), err)
	}

	items := make([]*domain.PropertyDraft, 0, len(payload.Props))
	for _, p := range payload.Props {
		items = append(items, mapProperty(p))
	}
	return items, nil
}

func mapProperty(p map[string]any) *domain.PropertyDraft {
	zpid := provider.FirstID(p, "zpid")

	listingURL := detailLink(zpid)
	if listingURL == "" {
		listingURL = provider.FirstString(p, "detailUrl")
	}

	return &domain.PropertyDraft{
		Source:     domain.SourceZillow,
		SourceID:   zpid,
		URL:        listingURL,
		Address:    provider.FirstString(p, "address", "streetAddress"),
		City:       provider.FirstString(p, "city"),
		State:      provider.FirstString(p, "state", "stateCode"),
		PostalCode: provider.FirstString(p, "zipcode", "postalCode"),
		Country:    "US",
		Lat:        provider.Coord(p, "latitude"),
		Lng:        provider.Coord(p, "longitude"),
		PriceMinor: domain.ParsePriceMinor(p["price"]),
		Currency:   domain.CurrencyUSD,
		Metadata:   p,
	}
}

func detailLink(zpid string) string {
	if zpid == "" {
		return ""
	}
	return fmt.Sprintf("https://www.zillow.com/homedetails/%s_zpid/", zpid)
}
