//go:build e2e

package e2e

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingPayload struct {
	Source     string `json:"source"`
	SourceID   string `json:"source_id,omitempty"`
	URL        string `json:"url,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PriceMinor *int64 `json:"price_minor,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

type persistResult struct {
	Inserted int  `json:"inserted"`
	Skipped  int  `json:"skipped"`
	DryRun   bool `json:"dry_run"`
}

// TestE2E_PropertyLifecycle exercises persistence end to end: insert,
// idempotent re-insert, and cursor listing.
func TestE2E_PropertyLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	price := int64(125000000)
	items := []listingPayload{
		{Source: "ZILLOW", SourceID: "z-100", URL: "https://zillow.com/z-100", City: "Portland", PriceMinor: &price, Currency: "USD"},
		{Source: "CRAIGSLIST", URL: "https://portland.craigslist.org/apa/1.html", City: "Portland"},
	}

	t.Run("persist listings", func(t *testing.T) {
		resp, err := env.Post("/properties", map[string]interface{}{"items": items})
		require.NoError(t, err)

		var result persistResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 2, result.Inserted)
		assert.Equal(t, 0, result.Skipped)
	})

	t.Run("re-persist is idempotent", func(t *testing.T) {
		resp, err := env.Post("/properties", map[string]interface{}{"items": items})
		require.NoError(t, err)

		var result persistResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 0, result.Inserted)
		assert.Equal(t, 2, result.Skipped)
	})

	t.Run("dry run previews without writing", func(t *testing.T) {
		preview := []listingPayload{{Source: "ZILLOW", SourceID: "z-999"}}
		resp, err := env.Post("/properties", map[string]interface{}{"items": preview, "dry_run": true})
		require.NoError(t, err)

		var result persistResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, 1, result.Inserted)
		assert.True(t, result.DryRun)

		// The previewed listing must not show up in storage.
		listResp, err := env.Get("/properties?limit=50")
		require.NoError(t, err)

		var page struct {
			Items []struct {
				Listing listingPayload `json:"listing"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &page))
		for _, item := range page.Items {
			assert.NotEqual(t, "z-999", item.Listing.SourceID)
		}
	})

	t.Run("list pages through stored listings", func(t *testing.T) {
		resp, err := env.Get("/properties?limit=1")
		require.NoError(t, err)

		var page struct {
			Items []struct {
				ID        string         `json:"id"`
				Listing   listingPayload `json:"listing"`
				CreatedAt string         `json:"created_at"`
			} `json:"items"`
			Cursor  string `json:"cursor"`
			HasMore bool   `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		require.Len(t, page.Items, 1)
		assert.NotEmpty(t, page.Items[0].ID)
		assert.NotEmpty(t, page.Items[0].CreatedAt)
		assert.True(t, page.HasMore)
		require.NotEmpty(t, page.Cursor)

		resp, err = env.Get("/properties?limit=1&cursor=" + page.Cursor)
		require.NoError(t, err)

		var next struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			HasMore bool `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &next))
		require.Len(t, next.Items, 1)
		assert.NotEqual(t, page.Items[0].ID, next.Items[0].ID)
	})
}

// TestE2E_SearchWithoutFixtures verifies the whole fan-out degrades
// gracefully when no provider has anything to serve.
func TestE2E_SearchWithoutFixtures(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Post("/search", map[string]interface{}{"locations": []string{"portland"}})
	require.NoError(t, err)

	var result struct {
		Listings []listingPayload `json:"listings"`
		Note     string           `json:"note"`
		Sources  []struct {
			Source string `json:"source"`
			Status string `json:"status"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))

	assert.Empty(t, result.Listings)
	assert.NotEmpty(t, result.Note)
	assert.Len(t, result.Sources, 5)
}

// TestE2E_ScanDryRun verifies scan plumbing without provider fixtures.
func TestE2E_ScanDryRun(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Post("/scan", map[string]interface{}{
		"locations": []string{"portland"},
		"dry_run":   true,
	})
	require.NoError(t, err)

	var result struct {
		Found    int  `json:"found"`
		Inserted int  `json:"inserted"`
		DryRun   bool `json:"dry_run"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Zero(t, result.Found)
	assert.Zero(t, result.Inserted)
	assert.True(t, result.DryRun)
}

// TestE2E_ValidationErrors verifies boundary validation comes back as
// client errors rather than provider failures.
func TestE2E_ValidationErrors(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	_, err := env.Post("/search", map[string]interface{}{"locations": []string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	_, err = env.Post("/properties", map[string]interface{}{"items": []listingPayload{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
