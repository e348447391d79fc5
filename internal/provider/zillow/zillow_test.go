package zillow

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/httpx"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}

func newTestAdapter(rt http.RoundTripper) *Adapter {
	return New(httpx.NewClient(5*time.Second, httpx.WithTransport(rt), httpx.WithRateLimit(1000, 1000)), "test-key")
}

const seattleJSON = `{"props": [
  {"zpid": 1111, "streetAddress": "123 Pine St", "city": "Seattle", "stateCode": "WA",
   "zipcode": "98101", "latitude": 47.61, "longitude": -122.33, "price": 450000},
  {"zpid": "2222", "address": "9 Lake Ave", "city": "Seattle", "state": "WA",
   "latitude": "not-a-number", "price": "$512,000"},
  {"detailUrl": "https://www.zillow.com/b/some-building", "address": "No id listing",
   "price": {"value": 339000}}
]}`

func TestSearch_MapsHeterogeneousShapes(t *testing.T) {
	adapter := newTestAdapter(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "zillow56.p.rapidapi.com", req.URL.Host)
		assert.Equal(t, "test-key", req.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "Seattle, WA", req.URL.Query().Get("location"))
		assert.Equal(t, "2500", req.URL.Query().Get("maxPrice"))
		assert.Equal(t, "", req.URL.Query().Get("minPrice"))
		return jsonResponse(req, http.StatusOK, seattleJSON), nil
	}))

	maxMajor := int64(2500)
	outcome := adapter.Search(context.Background(), domain.SearchQuery{
		Locations:      []string{"Seattle, WA"},
		BudgetMaxMajor: &maxMajor,
	}, domain.PagingRequest{Limit: 24})

	require.Equal(t, provider.StatusOK, outcome.Status)
	require.Len(t, outcome.Listings, 3)

	first := outcome.Listings[0]
	assert.Equal(t, domain.SourceZillow, first.Source)
	assert.Equal(t, "1111", first.SourceID, "numeric zpid must be accepted")
	assert.Equal(t, "https://www.zillow.com/homedetails/1111_zpid/", first.URL)
	assert.Equal(t, "123 Pine St", first.Address)
	assert.Equal(t, "WA", first.State, "stateCode fallback")
	assert.Equal(t, "98101", first.PostalCode)
	assert.Equal(t, "US", first.Country)
	require.NotNil(t, first.Lat)
	assert.InDelta(t, 47.61, *first.Lat, 0.001)
	require.NotNil(t, first.PriceMinor)
	assert.Equal(t, int64(45000000), *first.PriceMinor)
	assert.Equal(t, domain.CurrencyUSD, first.Currency)

	second := outcome.Listings[1]
	assert.Equal(t, "2222", second.SourceID)
	assert.Nil(t, second.Lat, "non-numeric coordinates must become nil")
	require.NotNil(t, second.PriceMinor)
	assert.Equal(t, int64(51200000), *second.PriceMinor, "formatted price string")

	third := outcome.Listings[2]
	assert.Equal(t, "", third.SourceID)
	assert.Equal(t, "https://www.zillow.com/b/some-building", third.URL)
	require.NotNil(t, third.PriceMinor)
	assert.Equal(t, int64(33900000), *third.PriceMinor, "nested price object")
}

func TestSearch_NoLocations(t *testing.T) {
	adapter := newTestAdapter(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		t.Error("no request expected")
		return jsonResponse(req, http.StatusOK, `{}`), nil
	}))

	outcome := adapter.Search(context.Background(), domain.SearchQuery{Locations: []string{" "}}, domain.PagingRequest{Limit: 24})
	assert.Equal(t, provider.StatusEmpty, outcome.Status)
	assert.Contains(t, outcome.Note, "location")
}

func TestSearch_OneLocationDegrades(t *testing.T) {
	adapter := newTestAdapter(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("location") == "Tacoma" {
			return jsonResponse(req, http.StatusTooManyRequests, ""), nil
		}
		return jsonResponse(req, http.StatusOK, seattleJSON), nil
	}))

	outcome := adapter.Search(context.Background(), domain.SearchQuery{
		Locations: []string{"Seattle, WA", "Tacoma"},
	}, domain.PagingRequest{Limit: 24})

	require.Equal(t, provider.StatusOK, outcome.Status)
	assert.Len(t, outcome.Listings, 3)
}

func TestSearch_AllLocationsFail(t *testing.T) {
	adapter := newTestAdapter(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusBadGateway, ""), nil
	}))

	outcome := adapter.Search(context.Background(), domain.SearchQuery{Locations: []string{"Seattle"}}, domain.PagingRequest{Limit: 24})
	require.Equal(t, provider.StatusFailed, outcome.Status)
	assert.True(t, provider.IsRetryable(outcome.Err))
}

func TestSearch_DedupsBySourceID(t *testing.T) {
	dupJSON := `{"props": [
	  {"zpid": 1, "address": "A", "price": 100},
	  {"zpid": 1, "address": "B", "price": 200},
	  {"address": "keyless", "price": 300}
	]}`
	adapter := newTestAdapter(roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, dupJSON), nil
	}))

	outcome := adapter.Search(context.Background(), domain.SearchQuery{Locations: []string{"Seattle"}}, domain.PagingRequest{Limit: 24})
	require.Equal(t, provider.StatusOK, outcome.Status)
	require.Len(t, outcome.Listings, 2)
	assert.Equal(t, "A", outcome.Listings[0].Address, "first occurrence wins")
}
