package domain

import (
	"fmt"
	"time"
)

// Source identifies the marketplace a listing candidate came from.
type Source string

const (
	SourceCraigslist Source = "CRAIGSLIST"
	SourceZillow     Source = "ZILLOW"
	SourceRightmove  Source = "RIGHTMOVE"
	SourceLeboncoin  Source = "LEBONCOIN"
	SourceWeb        Source = "WEB"
)

// Currency is an ISO 4217 code. Prices are never converted between currencies;
// the code only records what the provider quoted.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// PropertyDraft is the canonical, provider-agnostic listing candidate.
// Optional string fields use "" for absent; optional numeric fields use nil.
// PriceMinor is always integer minor units (cents, pence). Metadata carries
// provider-specific extras verbatim and must not be mutated after creation.
type PropertyDraft struct {
	Source     Source
	SourceID   string
	URL        string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	Lat        *float64
	Lng        *float64
	PriceMinor *int64
	Currency   Currency
	Metadata   map[string]any
}

// Property is a persisted PropertyDraft. DedupKey is the synthesized
// uniqueness key the storage layer enforces.
type Property struct {
	ID        string
	DedupKey  string
	Draft     PropertyDraft
	CreatedAt time.Time
}

// ValidatePropertyDraft rejects drafts that violate canonical-schema
// invariants before they reach storage.
func ValidatePropertyDraft(d *PropertyDraft) error {
	if d == nil {
		return NewDomainError(ErrCodeValidation, "property draft cannot be nil")
	}
	if !isValidSource(d.Source) {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("unknown property source: %q", d.Source))
	}
	if d.PriceMinor != nil && *d.PriceMinor < 0 {
		return NewDomainError(ErrCodeValidation, "price_minor must be non-negative")
	}
	if d.Currency != "" && !isValidCurrency(d.Currency) {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("unknown currency: %q", d.Currency))
	}
	if (d.Lat == nil) != (d.Lng == nil) {
		return NewDomainError(ErrCodeValidation, "lat and lng must be set together")
	}
	return nil
}

func isValidSource(s Source) bool {
	switch s {
	case SourceCraigslist, SourceZillow, SourceRightmove, SourceLeboncoin, SourceWeb:
		return true
	}
	return false
}

func isValidCurrency(c Currency) bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}
