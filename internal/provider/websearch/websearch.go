// Package websearch is the fallback provider: when the marketplace adapters
// have nothing, it combines a generic web search (Bing via RapidAPI) with
// Google Places text search to surface pages and places worth a look. The
// structured filters cannot be pushed downstream, so they are folded into a
// free-text query.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/httpx"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

const (
	bingURL   = "https://bing-web-search1.p.rapidapi.com/v7.0/search"
	bingHost  = "bing-web-search1.p.rapidapi.com"
	placesURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
)

// Adapter combines the two web backends. An empty placesKey disables the
// Places backend without disabling the adapter.
type Adapter struct {
	client    *httpx.Client
	rapidKey  string
	placesKey string
}

// New creates a web-fallback adapter.
func New(client *httpx.Client, rapidKey, placesKey string) *Adapter {
	return &Adapter{client: client, rapidKey: rapidKey, placesKey: placesKey}
}

// Source implements provider.Provider.
func (a *Adapter) Source() domain.Source {
	return domain.SourceWeb
}

// Search queries both backends in parallel with independent failure
// isolation, merges by normalized URL, and caps at the requested limit.
func (a *Adapter) Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) provider.Outcome {
	q := BuildQuery(query)
	if q == "" {
		return provider.Empty(a.Source(), "Web search needs at least one location (city, area, or ZIP).")
	}

	var (
		wg                 sync.WaitGroup
		webItems, mapItems []*domain.PropertyDraft
		webErr, mapErr     error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		webItems, webErr = a.fetchWebPages(ctx, q)
	}()

	backends := 1
	if a.placesKey != "" {
		backends++
		wg.Add(1)
		go func() {
			defer wg.Done()
			mapItems, mapErr = a.fetchPlaces(ctx, q)
		}()
	}
	wg.Wait()

	failures := 0
	var firstErr error
	for _, err := range []error{webErr, mapErr} {
		if err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if failures == backends {
		return provider.Failed(a.Source(), firstErr)
	}

	merged := dedupeByURL(append(webItems, mapItems...))
	merged = provider.Cap(merged, paging.Limit)

	if len(merged) == 0 {
		return provider.Empty(a.Source(), "No relevant web results found. Try broadening the area or relaxing the price and bedroom filters.")
	}
	return provider.OK(a.Source(), merged)
}

// BuildQuery folds the structured search into one free-text query, e.g.
// "homes for sale losangeles 2+ bedroom under 2500".
func BuildQuery(query domain.SearchQuery) string {
	locations := provider.NonBlank(query.Locations)
	if len(locations) == 0 {
		return ""
	}

	tokens := make([]string, 0, 5)
	if query.ListingType == domain.ListingTypeRent {
		tokens = append(tokens, "homes for rent")
	} else {
		tokens = append(tokens, "homes for sale")
	}
	tokens = append(tokens, strings.Join(locations, " "))
	if query.BedroomsMin != nil {
		tokens = append(tokens, fmt.Sprintf("%d+ bedroom", *query.BedroomsMin))
	}
	if query.BudgetMaxMajor != nil {
		tokens = append(tokens, fmt.Sprintf("under %d", *query.BudgetMaxMajor))
	}
	if query.BudgetMinMajor != nil {
		tokens = append(tokens, fmt.Sprintf("over %d", *query.BudgetMinMajor))
	}
	return strings.TrimSpace(strings.Join(tokens, " "))
}

func (a *Adapter) fetchWebPages(ctx context.Context, q string) ([]*domain.PropertyDraft, error) {
	reqURL := bingURL + "?q=" + url.QueryEscape(q)
	headers := map[string]string{
		"X-RapidAPI-Key":  a.rapidKey,
		"X-RapidAPI-Host": bingHost,
	}

	body, status, err := a.client.Get(ctx, reqURL, headers)
	if err != nil {
		return nil, provider.NewTransportError(a.Source(), reqURL, err)
	}
	if status < 200 || status >= 300 {
		return nil, provider.NewStatusError(a.Source(), reqURL, status)
	}

	var payload struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, provider.NewParseError(a.Source(), err)
	}

	items := make([]*domain.PropertyDraft, 0, len(payload.WebPages.Value))
	for _, page := range payload.WebPages.Value {
		items = append(items, &domain.PropertyDraft{
			Source:   domain.SourceWeb,
			URL:      page.URL,
			Address:  page.Name,
			Metadata: map[string]any{"provider": "BING", "snippet": page.Snippet},
		})
	}
	return items, nil
}

func (a *Adapter) fetchPlaces(ctx context.Context, q string) ([]*domain.PropertyDraft, error) {
	reqURL := fmt.Sprintf("%s?query=%s&key=%s", placesURL, url.QueryEscape(q), url.QueryEscape(a.placesKey))

	body, status, err := a.client.Get(ctx, reqURL, nil)
	if err != nil {
		return nil, provider.NewTransportError(a.Source(), placesURL, err)
	}
	if status < 200 || status >= 300 {
		return nil, provider.NewStatusError(a.Source(), placesURL, status)
	}

	var payload struct {
		Results []struct {
			PlaceID          string `json:"place_id"`
			Name             string `json:"name"`
			FormattedAddress string `json:"formatted_address"`
			Geometry         struct {
				Location struct {
					Lat *float64 `json:"lat"`
					Lng *float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, provider.NewParseError(a.Source(), err)
	}

	items := make([]*domain.PropertyDraft, 0, len(payload.Results))
	for _, place := range payload.Results {
		address := place.Name
		if address == "" {
			address = place.FormattedAddress
		}

		var lat, lng *float64
		if place.Geometry.Location.Lat != nil && place.Geometry.Location.Lng != nil {
			lat, lng = place.Geometry.Location.Lat, place.Geometry.Location.Lng
		}

		items = append(items, &domain.PropertyDraft{
			Source:   domain.SourceWeb,
			SourceID: place.PlaceID,
			URL:      "https://www.google.com/maps/place/?q=place_id:" + url.QueryEscape(place.PlaceID),
			Address:  address,
			Lat:      lat,
			Lng:      lng,
			Metadata: map[string]any{"provider": "GOOGLE_MAPS", "formatted_address": place.FormattedAddress},
		})
	}
	return items, nil
}

// dedupeByURL keeps the first draft per normalized (lowercased) URL.
// Drafts without a URL are always kept.
func dedupeByURL(items []*domain.PropertyDraft) []*domain.PropertyDraft {
	seen := make(map[string]struct{}, len(items))
	out := make([]*domain.PropertyDraft, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.URL))
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
