package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/discovery"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/pagination"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/telemetry"
)

// PropertyRepositoryInterface defines the repository interface for property persistence
type PropertyRepositoryInterface interface {
	InsertBatch(ctx context.Context, properties []*domain.Property) (int, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*PropertyPageResult, error)
	CountBySource(ctx context.Context) (map[domain.Source]int64, error)
}

type PropertyPageResult struct {
	Items      []*domain.Property
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// PropertyService handles validation, dedup-key synthesis, and idempotent
// persistence of canonical listings.
type PropertyService struct {
	repo    PropertyRepositoryInterface
	uuidGen UUIDGenerator
	now     func() time.Time
}

// NewPropertyService creates a new PropertyService instance
func NewPropertyService(repo PropertyRepositoryInterface) *PropertyService {
	return &PropertyService{
		repo:    repo,
		uuidGen: &DefaultUUIDGenerator{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewPropertyServiceWithUUIDGen creates a PropertyService with a custom UUID generator (for testing)
func NewPropertyServiceWithUUIDGen(repo PropertyRepositoryInterface, uuidGen UUIDGenerator) *PropertyService {
	return &PropertyService{
		repo:    repo,
		uuidGen: uuidGen,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PersistInput is a batch of drafts to store. DryRun previews the counts
// without touching the database.
type PersistInput struct {
	Drafts []*domain.PropertyDraft
	DryRun bool
}

// PersistResult reports what a persist run did (or would do, under DryRun).
type PersistResult struct {
	Inserted int
	Skipped  int
	DryRun   bool
}

type ListPropertiesInput struct {
	Cursor string
	Limit  int
}

type ListPropertiesOutput struct {
	Items   []*domain.Property
	Cursor  string
	HasMore bool
}

// Persist validates and stores a batch of drafts. Duplicates are skipped,
// never errors: in-batch duplicates collapse here, already-stored listings
// are skipped by the database's uniqueness constraint. Running the same
// batch twice therefore inserts nothing the second time.
func (s *PropertyService) Persist(ctx context.Context, input PersistInput) (*PersistResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "PropertyService.Persist", telemetry.SpanAttributes{
		Operation: "persist",
	})
	defer span.End()

	for _, draft := range input.Drafts {
		if err := domain.ValidatePropertyDraft(draft); err != nil {
			return nil, err
		}
	}

	now := s.now()
	seen := make(map[string]struct{}, len(input.Drafts))
	var candidates []*domain.Property
	skipped := 0

	for _, draft := range input.Drafts {
		key := discovery.DedupKey(draft)
		if key == "" {
			// No derivable identity: store under a synthetic key so the
			// listing is kept rather than silently merged with another.
			key = "uuid:" + s.uuidGen.NewString()
		}
		if _, ok := seen[key]; ok {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, &domain.Property{
			ID:        s.uuidGen.NewString(),
			DedupKey:  key,
			Draft:     *draft,
			CreatedAt: now,
		})
	}

	if input.DryRun {
		return &PersistResult{Inserted: len(candidates), Skipped: skipped, DryRun: true}, nil
	}

	inserted, err := s.repo.InsertBatch(ctx, candidates)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to persist properties", err)
	}

	return &PersistResult{
		Inserted: inserted,
		Skipped:  skipped + len(candidates) - inserted,
	}, nil
}

// List pages stored listings newest first.
func (s *PropertyService) List(ctx context.Context, input ListPropertiesInput) (*ListPropertiesOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "PropertyService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}
	if limit > domain.MaxPageLimit {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "limit exceeds maximum page size")
	}

	page, err := s.repo.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to list properties", err)
	}

	return &ListPropertiesOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}
