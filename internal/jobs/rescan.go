package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
)

// Scanner runs a discovery scan and persists the results.
type Scanner interface {
	Scan(ctx context.Context, input service.ScanInput) (*service.ScanResult, error)
}

// RescanWorker re-runs a fixed scan on every poll so the stored listings
// for the configured locations stay fresh. Persistence is idempotent, so
// repeated runs only ever add listings that were not seen before.
type RescanWorker struct {
	scanner Scanner
	query   domain.SearchQuery
}

// NewRescanWorker creates a RescanWorker for the given locations.
func NewRescanWorker(scanner Scanner, locations []string) *RescanWorker {
	return &RescanWorker{
		scanner: scanner,
		query:   domain.SearchQuery{Locations: locations},
	}
}

// ProcessJobs implements JobProcessor.
func (w *RescanWorker) ProcessJobs(ctx context.Context) error {
	result, err := w.scanner.Scan(ctx, service.ScanInput{Query: w.query})
	if err != nil {
		return fmt.Errorf("rescan failed: %w", err)
	}

	log.Printf("Rescan complete: found=%d inserted=%d skipped=%d", result.Found, result.Inserted, result.Skipped)
	return nil
}
