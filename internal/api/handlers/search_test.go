package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
)

type MockDiscoveryService struct {
	mock.Mock
}

func (m *MockDiscoveryService) Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) (*service.SearchOutput, error) {
	args := m.Called(ctx, query, paging)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchOutput), args.Error(1)
}

func (m *MockDiscoveryService) Scan(ctx context.Context, input service.ScanInput) (*service.ScanResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanResult), args.Error(1)
}

func testListing() *domain.PropertyDraft {
	price := int64(45000000)
	return &domain.PropertyDraft{
		Source:     domain.SourceZillow,
		SourceID:   "z1",
		URL:        "https://www.zillow.com/homedetails/z1_zpid/",
		Address:    "12 Oak St",
		City:       "Portland",
		PriceMinor: &price,
		Currency:   domain.CurrencyUSD,
	}
}

func TestSearchHandler_Search(t *testing.T) {
	svc := new(MockDiscoveryService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, mock.MatchedBy(func(q domain.SearchQuery) bool {
		return len(q.Locations) == 1 && q.Locations[0] == "portland" &&
			q.BudgetMaxMajor != nil && *q.BudgetMaxMajor == 500000
	}), domain.PagingRequest{Limit: 10}).Return(&service.SearchOutput{
		Listings: []*domain.PropertyDraft{testListing()},
		Sources: []service.SourceReport{
			{Source: domain.SourceZillow, Status: "ok", Count: 1},
		},
	}, nil)

	body := []byte(`{"locations": ["portland"], "budget_max": 500000, "limit": 10}`)
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Listings, 1)
	assert.Equal(t, "ZILLOW", envelope.Data.Listings[0].Source)
	assert.Equal(t, "z1", envelope.Data.Listings[0].SourceID)
	require.NotNil(t, envelope.Data.Listings[0].PriceMinor)
	assert.Equal(t, int64(45000000), *envelope.Data.Listings[0].PriceMinor)
	require.Len(t, envelope.Data.Sources, 1)
	assert.Equal(t, "ok", envelope.Data.Sources[0].Status)
}

func TestSearchHandler_Search_InvalidBody(t *testing.T) {
	handler := NewSearchHandler(new(MockDiscoveryService))

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_Search_ValidationError(t *testing.T) {
	svc := new(MockDiscoveryService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.NewDomainError(domain.ErrCodeValidation, "at least one location is required"))

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{"locations": []}`)))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "location")
}

func TestSearchHandler_Scan(t *testing.T) {
	svc := new(MockDiscoveryService)
	handler := NewSearchHandler(svc)

	svc.On("Scan", mock.Anything, mock.MatchedBy(func(input service.ScanInput) bool {
		return input.DryRun && len(input.Query.Locations) == 1
	})).Return(&service.ScanResult{
		Found:    3,
		Inserted: 2,
		Skipped:  1,
		DryRun:   true,
		Sources: []service.SourceReport{
			{Source: domain.SourceZillow, Status: "ok", Count: 3},
		},
	}, nil)

	body := []byte(`{"locations": ["portland"], "dry_run": true}`)
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Scan(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data ScanResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 3, envelope.Data.Found)
	assert.Equal(t, 2, envelope.Data.Inserted)
	assert.Equal(t, 1, envelope.Data.Skipped)
	assert.True(t, envelope.Data.DryRun)
}
