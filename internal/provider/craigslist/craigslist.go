// Package craigslist scrapes the Craigslist real-estate search results page.
// Craigslist has no public search API, so this adapter is the one HTML-backed
// provider: it fetches /search/rea per region and reads the listing cards out
// of the markup.
package craigslist

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/httpx"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

const resultSelector = "li.cl-search-result"

// Adapter scrapes Craigslist region subdomains.
type Adapter struct {
	client *httpx.Client
}

// New creates a Craigslist adapter on top of the shared outbound client.
func New(client *httpx.Client) *Adapter {
	return &Adapter{client: client}
}

// Source implements provider.Provider.
func (a *Adapter) Source() domain.Source {
	return domain.SourceCraigslist
}

// Search scrapes every normalizable region concurrently, dedups across
// regions by listing id, and caps the result at the requested limit.
// Regions that fail to fetch degrade to zero results for that region; the
// adapter as a whole fails only when no region could be reached at all.
func (a *Adapter) Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) provider.Outcome {
	regions := NormalizeRegions(query.Locations)
	if len(regions) == 0 {
		return provider.Empty(a.Source(), `Craigslist search needs a valid region subdomain (e.g. "sfbay" or "losangeles").`)
	}

	qs := buildFilterParams(query)

	type regionResult struct {
		items []*domain.PropertyDraft
		err   error
	}
	results := make([]regionResult, len(regions))

	var wg sync.WaitGroup
	for i, region := range regions {
		wg.Add(1)
		go func(i int, region string) {
			defer wg.Done()
			items, err := a.scrapeRegion(ctx, region, qs)
			results[i] = regionResult{items: items, err: err}
		}(i, region)
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

	if failed == len(regions) {
		return provider.Failed(a.Source(), firstErr)
	}

	all = provider.DedupBySourceID(all)
	all = provider.Cap(all, paging.Limit)

	if len(all) == 0 {
		return provider.Empty(a.Source(), "No Craigslist listings matched. Try another region or relax the price and bedroom filters.")
	}
	return provider.OK(a.Source(), all)
}

// buildFilterParams maps only the filters the caller supplied; nothing is
// defaulted on the user's behalf.
func buildFilterParams(query domain.SearchQuery) url.Values {
	qs := url.Values{}
	if query.BudgetMinMajor != nil {
		qs.Set("min_price", strconv.FormatInt(*query.BudgetMinMajor, 10))
	}
	if query.BudgetMaxMajor != nil {
		qs.Set("max_price", strconv.FormatInt(*query.BudgetMaxMajor, 10))
	}
	if query.BedroomsMin != nil {
		qs.Set("min_bedrooms", strconv.Itoa(*query.BedroomsMin))
	}
	return qs
}

func (a *Adapter) scrapeRegion(ctx context.Context, region string, qs url.Values) ([]*domain.PropertyDraft, error) {
	base := fmt.Sprintf("https://%s.craigslist.org", region)
	searchURL := base + "/search/rea"
	if encoded := qs.Encode(); encoded != "" {
		searchURL += "?" + encoded
	}

	body, status, err := a.client.Get(ctx, searchURL, nil)
	if err != nil {
		return nil, provider.NewTransportError(a.Source(), searchURL, err)
	}
	if status < 200 || status >= 300 {
		return nil, provider.NewStatusError(a.Source(), searchURL, status)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, provider.NewParseError(a.Source(), err)
	}

	var items []*domain.PropertyDraft
	doc.Find(resultSelector).Each(func(_ int, sel *goquery.Selection) {
		item := mapResult(sel, region, base)
		if item != nil {
			items = append(items, item)
		}
	})
	return items, nil
}

// mapResult converts one listing card into a draft. Cards without a
// provider-native id are discarded: they cannot be deduplicated now or
// re-identified later.
func mapResult(sel *goquery.Selection, region, base string) *domain.PropertyDraft {
	sourceID, ok := sel.Attr("data-pid")
	if !ok || sourceID == "" {
		sourceID, _ = sel.Attr("data-id")
	}
	if sourceID == "" {
		return nil
	}

	title := strings.TrimSpace(sel.Find(".title").Text())
	hood := strings.TrimSpace(sel.Find(".location").Text())
	hood = strings.Trim(hood, "()")

	href, _ := sel.Find("a").Attr("href")
	absURL := resolveLink(href, base)

	return &domain.PropertyDraft{
		Source:     domain.SourceCraigslist,
		SourceID:   sourceID,
		URL:        absURL,
		Address:    title,
		City:       hood,
		PriceMinor: priceMinorFromText(sel.Find(".price").First().Text()),
		Currency:   domain.CurrencyUSD,
		Metadata:   map[string]any{"region": region, "rawTitle": title},
	}
}

func resolveLink(href, base string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

// priceMinorFromText converts listing price text like "$2,500" to minor
// units by stripping everything but digits and multiplying by 100. Text with
// no digits yields no price rather than a zero one.
func priceMinorFromText(text string) *int64 {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return nil
	}
	major, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	minor := major * 100
	return &minor
}
