//go:build integration

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/testutil"
)

func newTestStore(ctx context.Context, t *testing.T) (*SnapshotStore, func()) {
	s3Container := testutil.NewRustFSContainer(ctx, t)

	store, err := NewSnapshotStore(ctx, SnapshotStoreConfig{
		Endpoint:        s3Container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-snapshots",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))

	return store, func() { s3Container.Terminate(ctx) }
}

func TestSnapshotStoreIntegration_ArchiveAndGet(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newTestStore(ctx, t)
	defer cleanup()

	payload := []byte(`[{"source":"ZILLOW","source_id":"z-1"}]`)

	key, err := store.ArchiveSnapshot(ctx, domain.SourceZillow, payload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "snapshots/ZILLOW/"))
	assert.True(t, strings.HasSuffix(key, ".json"))

	got, err := store.GetSnapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSnapshotStoreIntegration_KeysNeverCollide(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newTestStore(ctx, t)
	defer cleanup()

	payload := []byte(`[]`)

	key1, err := store.ArchiveSnapshot(ctx, domain.SourceCraigslist, payload)
	require.NoError(t, err)
	key2, err := store.ArchiveSnapshot(ctx, domain.SourceCraigslist, payload)
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)
}

func TestSnapshotStoreIntegration_GetMissingKey(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newTestStore(ctx, t)
	defer cleanup()

	_, err := store.GetSnapshot(ctx, "snapshots/ZILLOW/2026-01-01/missing.json")
	assert.Error(t, err)
}

func TestSnapshotStoreIntegration_EnsureBucketIdempotent(t *testing.T) {
	ctx := context.Background()
	store, cleanup := newTestStore(ctx, t)
	defer cleanup()

	// Second call must see the existing bucket and do nothing.
	assert.NoError(t, store.EnsureBucket(ctx))
}
