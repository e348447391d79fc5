package domain

import (
	"fmt"
	"strings"
)

// ListingType narrows a search to sale or rental listings.
type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeRent ListingType = "rent"
)

const (
	DefaultPageLimit = 24
	MaxPageLimit     = 100
)

// SearchQuery is the structured search request. An upstream router has
// already extracted it from free text; this layer only validates it.
// Budgets are major currency units, exactly as a user would type them.
type SearchQuery struct {
	Locations      []string
	BudgetMinMajor *int64
	BudgetMaxMajor *int64
	BedroomsMin    *int
	ListingType    ListingType
}

// PagingRequest bounds the result set. A zero Limit means "not supplied"
// and takes the default; anything else out of range is rejected rather
// than silently clamped.
type PagingRequest struct {
	Limit  int
	Offset int
}

// MergedResult is the deduplicated union of all provider outcomes.
// Note is always populated when Listings is empty.
type MergedResult struct {
	Listings []*PropertyDraft
	Note     string
}

// ValidateSearchQuery rejects malformed queries at the boundary.
// Blank location tokens are allowed through: each adapter decides what it
// can do with them and degrades to an empty outcome with a note.
func ValidateSearchQuery(q *SearchQuery) error {
	if q == nil {
		return NewDomainError(ErrCodeValidation, "search query cannot be nil")
	}
	if len(q.Locations) == 0 {
		return NewDomainError(ErrCodeValidation, "at least one location is required")
	}
	if q.BudgetMinMajor != nil && *q.BudgetMinMajor < 0 {
		return NewDomainError(ErrCodeValidation, "budget_min_major must be non-negative")
	}
	if q.BudgetMaxMajor != nil && *q.BudgetMaxMajor < 0 {
		return NewDomainError(ErrCodeValidation, "budget_max_major must be non-negative")
	}
	if q.BudgetMinMajor != nil && q.BudgetMaxMajor != nil && *q.BudgetMinMajor > *q.BudgetMaxMajor {
		return NewDomainError(ErrCodeValidation, "budget_min_major cannot exceed budget_max_major")
	}
	if q.BedroomsMin != nil && *q.BedroomsMin < 0 {
		return NewDomainError(ErrCodeValidation, "bedrooms_min must be non-negative")
	}
	if q.ListingType != "" && q.ListingType != ListingTypeSale && q.ListingType != ListingTypeRent {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("listing_type must be %q or %q", ListingTypeSale, ListingTypeRent))
	}
	return nil
}

// ValidatePaging rejects out-of-range paging parameters. Limit 0 is treated
// as "not supplied".
func ValidatePaging(p *PagingRequest) error {
	if p == nil {
		return NewDomainError(ErrCodeValidation, "paging request cannot be nil")
	}
	if p.Limit < 0 || p.Limit > MaxPageLimit {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}
	if p.Offset < 0 {
		return NewDomainError(ErrCodeValidation, "offset must be non-negative")
	}
	return nil
}

// NormalizePaging applies defaults for unsupplied fields. Call after
// ValidatePaging.
func NormalizePaging(p PagingRequest) PagingRequest {
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// HasLocations reports whether the query carries at least one non-blank
// location token.
func (q *SearchQuery) HasLocations() bool {
	for _, loc := range q.Locations {
		if strings.TrimSpace(loc) != "" {
			return true
		}
	}
	return false
}
