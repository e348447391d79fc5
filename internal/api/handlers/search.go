package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
)

type DiscoveryService interface {
	Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) (*service.SearchOutput, error)
	Scan(ctx context.Context, input service.ScanInput) (*service.ScanResult, error)
}

type SearchHandler struct {
	svc DiscoveryService
}

func NewSearchHandler(svc DiscoveryService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Locations   []string `json:"locations"`
	BudgetMin   *int64   `json:"budget_min"`
	BudgetMax   *int64   `json:"budget_max"`
	BedroomsMin *int     `json:"bedrooms_min"`
	ListingType string   `json:"listing_type"`
	Limit       int      `json:"limit"`
	Offset      int      `json:"offset"`
}

type ScanRequest struct {
	SearchRequest
	DryRun bool `json:"dry_run"`
}

type ListingResponse struct {
	Source     string         `json:"source"`
	SourceID   string         `json:"source_id,omitempty"`
	URL        string         `json:"url,omitempty"`
	Address    string         `json:"address,omitempty"`
	City       string         `json:"city,omitempty"`
	State      string         `json:"state,omitempty"`
	PostalCode string         `json:"postal_code,omitempty"`
	Country    string         `json:"country,omitempty"`
	Lat        *float64       `json:"lat,omitempty"`
	Lng        *float64       `json:"lng,omitempty"`
	PriceMinor *int64         `json:"price_minor,omitempty"`
	Currency   string         `json:"currency,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type SearchResponse struct {
	Listings []*ListingResponse     `json:"listings"`
	Note     string                 `json:"note,omitempty"`
	Sources  []service.SourceReport `json:"sources"`
}

type ScanResponse struct {
	Found    int                    `json:"found"`
	Inserted int                    `json:"inserted"`
	Skipped  int                    `json:"skipped"`
	DryRun   bool                   `json:"dry_run"`
	Note     string                 `json:"note,omitempty"`
	Sources  []service.SourceReport `json:"sources"`
}

func draftToResponse(d *domain.PropertyDraft) *ListingResponse {
	return &ListingResponse{
		Source:     string(d.Source),
		SourceID:   d.SourceID,
		URL:        d.URL,
		Address:    d.Address,
		City:       d.City,
		State:      d.State,
		PostalCode: d.PostalCode,
		Country:    d.Country,
		Lat:        d.Lat,
		Lng:        d.Lng,
		PriceMinor: d.PriceMinor,
		Currency:   string(d.Currency),
		Metadata:   d.Metadata,
	}
}

func (r *SearchRequest) toQueryAndPaging() (domain.SearchQuery, domain.PagingRequest) {
	query := domain.SearchQuery{
		Locations:      r.Locations,
		BudgetMinMajor: r.BudgetMin,
		BudgetMaxMajor: r.BudgetMax,
		BedroomsMin:    r.BedroomsMin,
		ListingType:    domain.ListingType(r.ListingType),
	}
	paging := domain.PagingRequest{Limit: r.Limit, Offset: r.Offset}
	return query, paging
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query, paging := req.toQueryAndPaging()
	out, err := h.svc.Search(r.Context(), query, paging)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	listings := make([]*ListingResponse, 0, len(out.Listings))
	for _, d := range out.Listings {
		listings = append(listings, draftToResponse(d))
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Listings: listings,
		Note:     out.Note,
		Sources:  out.Sources,
	})
}

func (h *SearchHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query, paging := req.toQueryAndPaging()
	result, err := h.svc.Scan(r.Context(), service.ScanInput{
		Query:  query,
		Paging: paging,
		DryRun: req.DryRun,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ScanResponse{
		Found:    result.Found,
		Inserted: result.Inserted,
		Skipped:  result.Skipped,
		DryRun:   result.DryRun,
		Note:     result.Note,
		Sources:  result.Sources,
	})
}
