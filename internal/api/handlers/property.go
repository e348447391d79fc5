package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
)

type PropertyService interface {
	Persist(ctx context.Context, input service.PersistInput) (*service.PersistResult, error)
	List(ctx context.Context, input service.ListPropertiesInput) (*service.ListPropertiesOutput, error)
}

type PropertyHandler struct {
	svc PropertyService
}

func NewPropertyHandler(svc PropertyService) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

type PersistPropertiesRequest struct {
	Items  []*ListingRequest `json:"items"`
	DryRun bool              `json:"dry_run"`
}

// ListingRequest mirrors ListingResponse for callers that pipe search
// results straight back into persistence.
type ListingRequest struct {
	Source     string         `json:"source"`
	SourceID   string         `json:"source_id"`
	URL        string         `json:"url"`
	Address    string         `json:"address"`
	City       string         `json:"city"`
	State      string         `json:"state"`
	PostalCode string         `json:"postal_code"`
	Country    string         `json:"country"`
	Lat        *float64       `json:"lat"`
	Lng        *float64       `json:"lng"`
	PriceMinor *int64         `json:"price_minor"`
	Currency   string         `json:"currency"`
	Metadata   map[string]any `json:"metadata"`
}

type PersistPropertiesResponse struct {
	Inserted int  `json:"inserted"`
	Skipped  int  `json:"skipped"`
	DryRun   bool `json:"dry_run"`
}

type StoredPropertyResponse struct {
	ID        string           `json:"id"`
	Listing   *ListingResponse `json:"listing"`
	CreatedAt string           `json:"created_at"`
}

type ListPropertiesResponse struct {
	Items   []*StoredPropertyResponse `json:"items"`
	Cursor  string                    `json:"cursor,omitempty"`
	HasMore bool                      `json:"has_more"`
}

func (r *ListingRequest) toDraft() *domain.PropertyDraft {
	return &domain.PropertyDraft{
		Source:     domain.Source(r.Source),
		SourceID:   r.SourceID,
		URL:        r.URL,
		Address:    r.Address,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Lat:        r.Lat,
		Lng:        r.Lng,
		PriceMinor: r.PriceMinor,
		Currency:   domain.Currency(r.Currency),
		Metadata:   r.Metadata,
	}
}

func propertyToResponse(p *domain.Property) *StoredPropertyResponse {
	return &StoredPropertyResponse{
		ID:        p.ID,
		Listing:   draftToResponse(&p.Draft),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func (h *PropertyHandler) Persist(w http.ResponseWriter, r *http.Request) {
	var req PersistPropertiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		api.Error(w, http.StatusBadRequest, "items is required")
		return
	}

	drafts := make([]*domain.PropertyDraft, 0, len(req.Items))
	for _, item := range req.Items {
		drafts = append(drafts, item.toDraft())
	}

	result, err := h.svc.Persist(r.Context(), service.PersistInput{
		Drafts: drafts,
		DryRun: req.DryRun,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, PersistPropertiesResponse{
		Inserted: result.Inserted,
		Skipped:  result.Skipped,
		DryRun:   result.DryRun,
	})
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	input := service.ListPropertiesInput{
		Cursor: r.URL.Query().Get("cursor"),
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		input.Limit = limit
	}

	out, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*StoredPropertyResponse, 0, len(out.Items))
	for _, p := range out.Items {
		items = append(items, propertyToResponse(p))
	}

	api.Success(w, http.StatusOK, ListPropertiesResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}
