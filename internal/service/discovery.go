package service

import (
	"context"
	"encoding/json"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/discovery"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/telemetry"
)

// OrchestratorInterface fans a search out across all providers and returns
// one settled outcome per provider.
type OrchestratorInterface interface {
	Run(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) []provider.Outcome
}

// SnapshotArchiver stores a raw provider result set for later replay or
// audit. Archiving is best-effort; failures never fail a search.
type SnapshotArchiver interface {
	ArchiveSnapshot(ctx context.Context, source domain.Source, payload []byte) (string, error)
}

// SourceReport is the per-provider summary attached to search and scan
// responses.
type SourceReport struct {
	Source domain.Source `json:"source"`
	Status string        `json:"status"`
	Count  int           `json:"count"`
	Note   string        `json:"note,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// SearchOutput is a merged, deduplicated result set plus per-provider
// reports.
type SearchOutput struct {
	Listings []*domain.PropertyDraft
	Note     string
	Sources  []SourceReport
}

// ScanInput runs a search and persists what it finds.
type ScanInput struct {
	Query  domain.SearchQuery
	Paging domain.PagingRequest
	DryRun bool
}

// ScanResult summarizes one scan: listings found after merging, and how
// the persistence run treated them.
type ScanResult struct {
	Found    int
	Inserted int
	Skipped  int
	DryRun   bool
	Note     string
	Sources  []SourceReport
}

// PropertyPersister stores a batch of drafts idempotently.
type PropertyPersister interface {
	Persist(ctx context.Context, input PersistInput) (*PersistResult, error)
}

// DiscoveryService runs provider fan-out, merging, and scan persistence.
type DiscoveryService struct {
	orchestrator OrchestratorInterface
	persister    PropertyPersister
	archiver     SnapshotArchiver
}

// NewDiscoveryService creates a DiscoveryService. The archiver may be nil
// to disable snapshot archiving.
func NewDiscoveryService(orchestrator OrchestratorInterface, persister PropertyPersister, archiver SnapshotArchiver) *DiscoveryService {
	return &DiscoveryService{
		orchestrator: orchestrator,
		persister:    persister,
		archiver:     archiver,
	}
}

// Search validates the query, runs every provider, and merges the outcomes.
// Provider failures degrade to reports, never to an error: the only errors
// from this method are validation errors.
func (s *DiscoveryService) Search(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DiscoveryService.Search", telemetry.SpanAttributes{
		Locations: len(query.Locations),
		Operation: "search",
	})
	defer span.End()

	if err := domain.ValidateSearchQuery(&query); err != nil {
		return nil, err
	}
	if err := domain.ValidatePaging(&paging); err != nil {
		return nil, err
	}
	paging = domain.NormalizePaging(paging)

	outcomes := s.orchestrator.Run(ctx, query, paging)
	s.archiveOutcomes(ctx, outcomes)

	merged := discovery.Merge(outcomes, paging.Limit)

	return &SearchOutput{
		Listings: merged.Listings,
		Note:     merged.Note,
		Sources:  buildReports(outcomes),
	}, nil
}

// Scan runs a search and persists the merged listings. Already-stored
// listings are skipped, so scheduled rescans are safe to repeat.
func (s *DiscoveryService) Scan(ctx context.Context, input ScanInput) (*ScanResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "DiscoveryService.Scan", telemetry.SpanAttributes{
		Locations: len(input.Query.Locations),
		Operation: "scan",
	})
	defer span.End()

	search, err := s.Search(ctx, input.Query, input.Paging)
	if err != nil {
		return nil, err
	}

	persisted, err := s.persister.Persist(ctx, PersistInput{
		Drafts: search.Listings,
		DryRun: input.DryRun,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &ScanResult{
		Found:    len(search.Listings),
		Inserted: persisted.Inserted,
		Skipped:  persisted.Skipped,
		DryRun:   persisted.DryRun,
		Note:     search.Note,
		Sources:  search.Sources,
	}, nil
}

func (s *DiscoveryService) archiveOutcomes(ctx context.Context, outcomes []provider.Outcome) {
	if s.archiver == nil {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, outcome := range outcomes {
		if outcome.Status != provider.StatusOK {
			continue
		}
		payload, err := json.Marshal(outcome.Listings)
		if err != nil {
			continue
		}
		g.Go(func() error {
			if _, err := s.archiver.ArchiveSnapshot(ctx, outcome.Source, payload); err != nil {
				log.Printf("snapshot archive failed for %s: %v", outcome.Source, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func buildReports(outcomes []provider.Outcome) []SourceReport {
	reports := make([]SourceReport, 0, len(outcomes))
	for _, outcome := range outcomes {
		report := SourceReport{
			Source: outcome.Source,
			Status: string(outcome.Status),
			Count:  len(outcome.Listings),
			Note:   outcome.Note,
		}
		if outcome.Err != nil {
			report.Error = outcome.Err.Error()
		}
		reports = append(reports, report)
	}
	return reports
}
