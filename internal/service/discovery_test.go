package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
)

// MockOrchestrator is a mock implementation of OrchestratorInterface
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Run(ctx context.Context, query domain.SearchQuery, paging domain.PagingRequest) []provider.Outcome {
	args := m.Called(ctx, query, paging)
	return args.Get(0).([]provider.Outcome)
}

// MockPersister is a mock implementation of PropertyPersister
type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) Persist(ctx context.Context, input PersistInput) (*PersistResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PersistResult), args.Error(1)
}

// MockArchiver is a mock implementation of SnapshotArchiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) ArchiveSnapshot(ctx context.Context, source domain.Source, payload []byte) (string, error) {
	args := m.Called(ctx, source, payload)
	return args.String(0), args.Error(1)
}

func validQuery() domain.SearchQuery {
	return domain.SearchQuery{Locations: []string{"portland"}}
}

func TestSearch_MergesAndReports(t *testing.T) {
	orch := new(MockOrchestrator)
	svc := NewDiscoveryService(orch, new(MockPersister), nil)

	outcomes := []provider.Outcome{
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{sampleDraft("z1")}),
		provider.Empty(domain.SourceCraigslist, "nothing in this area"),
		provider.Failed(domain.SourceRightmove, assert.AnError),
	}
	orch.On("Run", mock.Anything, validQuery(), domain.PagingRequest{Limit: domain.DefaultPageLimit}).Return(outcomes)

	out, err := svc.Search(context.Background(), validQuery(), domain.PagingRequest{})
	require.NoError(t, err)

	require.Len(t, out.Listings, 1)
	assert.Empty(t, out.Note)

	require.Len(t, out.Sources, 3)
	assert.Equal(t, "ok", out.Sources[0].Status)
	assert.Equal(t, 1, out.Sources[0].Count)
	assert.Equal(t, "empty", out.Sources[1].Status)
	assert.Equal(t, "nothing in this area", out.Sources[1].Note)
	assert.Equal(t, "failed", out.Sources[2].Status)
	assert.NotEmpty(t, out.Sources[2].Error)
}

func TestSearch_ValidationFailuresNeverReachProviders(t *testing.T) {
	orch := new(MockOrchestrator)
	svc := NewDiscoveryService(orch, new(MockPersister), nil)

	_, err := svc.Search(context.Background(), domain.SearchQuery{}, domain.PagingRequest{})
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	orch.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_ArchivesSuccessfulOutcomesOnly(t *testing.T) {
	orch := new(MockOrchestrator)
	archiver := new(MockArchiver)
	svc := NewDiscoveryService(orch, new(MockPersister), archiver)

	orch.On("Run", mock.Anything, mock.Anything, mock.Anything).Return([]provider.Outcome{
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{sampleDraft("z1")}),
		provider.Empty(domain.SourceCraigslist, ""),
	})
	archiver.On("ArchiveSnapshot", mock.Anything, domain.SourceZillow, mock.Anything).Return("snapshots/ZILLOW/key.json", nil)

	_, err := svc.Search(context.Background(), validQuery(), domain.PagingRequest{})
	require.NoError(t, err)

	archiver.AssertNumberOfCalls(t, "ArchiveSnapshot", 1)
}

func TestSearch_ArchiveFailureDoesNotFailSearch(t *testing.T) {
	orch := new(MockOrchestrator)
	archiver := new(MockArchiver)
	svc := NewDiscoveryService(orch, new(MockPersister), archiver)

	orch.On("Run", mock.Anything, mock.Anything, mock.Anything).Return([]provider.Outcome{
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{sampleDraft("z1")}),
	})
	archiver.On("ArchiveSnapshot", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError)

	out, err := svc.Search(context.Background(), validQuery(), domain.PagingRequest{})
	require.NoError(t, err)
	assert.Len(t, out.Listings, 1)
}

func TestScan_PersistsMergedListings(t *testing.T) {
	orch := new(MockOrchestrator)
	persister := new(MockPersister)
	svc := NewDiscoveryService(orch, persister, nil)

	orch.On("Run", mock.Anything, mock.Anything, mock.Anything).Return([]provider.Outcome{
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{sampleDraft("z1"), sampleDraft("z2")}),
	})
	persister.On("Persist", mock.Anything, mock.MatchedBy(func(input PersistInput) bool {
		return len(input.Drafts) == 2 && !input.DryRun
	})).Return(&PersistResult{Inserted: 1, Skipped: 1}, nil)

	result, err := svc.Scan(context.Background(), ScanInput{Query: validQuery()})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.False(t, result.DryRun)
	require.Len(t, result.Sources, 1)
}

func TestScan_DryRunPropagates(t *testing.T) {
	orch := new(MockOrchestrator)
	persister := new(MockPersister)
	svc := NewDiscoveryService(orch, persister, nil)

	orch.On("Run", mock.Anything, mock.Anything, mock.Anything).Return([]provider.Outcome{
		provider.OK(domain.SourceZillow, []*domain.PropertyDraft{sampleDraft("z1")}),
	})
	persister.On("Persist", mock.Anything, mock.MatchedBy(func(input PersistInput) bool {
		return input.DryRun
	})).Return(&PersistResult{Inserted: 1, DryRun: true}, nil)

	result, err := svc.Scan(context.Background(), ScanInput{Query: validQuery(), DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
}

func TestScan_AllProvidersEmptyStillSucceeds(t *testing.T) {
	orch := new(MockOrchestrator)
	persister := new(MockPersister)
	svc := NewDiscoveryService(orch, persister, nil)

	orch.On("Run", mock.Anything, mock.Anything, mock.Anything).Return([]provider.Outcome{
		provider.Empty(domain.SourceZillow, "widen the search"),
	})
	persister.On("Persist", mock.Anything, mock.Anything).Return(&PersistResult{}, nil)

	result, err := svc.Scan(context.Background(), ScanInput{Query: validQuery()})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Found)
	assert.Equal(t, "widen the search", result.Note)
}
