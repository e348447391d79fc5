// Package provider defines the contract every marketplace adapter satisfies
// and the outcome type the orchestrator collects. Adapters translate the
// canonical query into a provider's protocol and map responses back into
// canonical drafts; failures are reported in the outcome, never raised.
package provider

import (
	"context"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
)

// Status is the terminal state of a single adapter invocation.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Outcome is the one-and-only result of an adapter invocation. Exactly one
// of Listings, Note, or Err is meaningful depending on Status.
type Outcome struct {
	Source   domain.Source
	Status   Status
	Listings []*domain.PropertyDraft
	Note     string
	Err      error
}

// Provider is a marketplace adapter. Search never returns an error and never
// panics across this boundary; anything that goes wrong inside the adapter
// becomes a failed or empty outcome.
type Provider interface {
	Source() domain.Source
	Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) Outcome
}

// OK builds a successful outcome. An empty listing slice is reported as
// StatusEmpty so callers never have to distinguish nil from zero-length.
func OK(source domain.Source, listings []*domain.PropertyDraft) Outcome {
	if len(listings) == 0 {
		return Empty(source, "")
	}
	return Outcome{Source: source, Status: StatusOK, Listings: listings}
}

// Empty builds an outcome for a search that completed without results.
// The note tells the user how to get results next time.
func Empty(source domain.Source, note string) Outcome {
	return Outcome{Source: source, Status: StatusEmpty, Note: note}
}

// Failed builds an outcome for a search that could not complete.
func Failed(source domain.Source, err error) Outcome {
	return Outcome{Source: source, Status: StatusFailed, Err: err}
}
