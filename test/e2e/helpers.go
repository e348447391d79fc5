//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api/handlers"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/discovery"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/httpx"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/craigslist"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/leboncoin"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/rightmove"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/websearch"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/zillow"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/repository"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/server"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests. Provider traffic is
// served from recorded fixtures, so the suite never touches the network.
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	FixturesDir  string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a PostgreSQL
// container and a running server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	fixturesDir := t.TempDir()

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, fixturesDir, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		FixturesDir:  fixturesDir,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// RecordFixture stores a canned response for the given request, using the
// same naming scheme the replay transport resolves with.
func (e *E2ETestEnv) RecordFixture(method, url string, payload []byte) {
	name := httpx.FixtureName(method, url)
	if err := os.WriteFile(filepath.Join(e.FixturesDir, name), payload, 0o644); err != nil {
		e.T.Fatalf("failed to record fixture: %v", err)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

func startServer(t *testing.T, pool *pgxpool.Pool, fixturesDir string, port int) (string, func()) {
	client := httpx.NewClient(5*time.Second,
		httpx.WithTransport(httpx.NewReplayTransport(fixturesDir)),
		httpx.WithRateLimit(1000, 1000),
	)

	providers := []provider.Provider{
		zillow.New(client, "e2e-key"),
		craigslist.New(client),
		rightmove.New(client, "e2e-key"),
		leboncoin.New(client, "e2e-key"),
		websearch.New(client, "e2e-key", "e2e-key"),
	}

	// Short retry budget keeps runs fast when fixtures are missing.
	policy := discovery.Policy{
		AdapterTimeout: 5 * time.Second,
		MaxRetries:     0,
		InitialBackoff: 10 * time.Millisecond,
	}
	orchestrator := discovery.NewOrchestrator(policy, providers...)

	propertyRepo := repository.NewPropertyRepository(pool)
	propertySvc := service.NewPropertyService(propertyRepo)
	discoverySvc := service.NewDiscoveryService(orchestrator, propertySvc, nil)

	cfg := server.RouterConfig{
		SearchHandler:   handlers.NewSearchHandler(discoverySvc),
		PropertyHandler: handlers.NewPropertyHandler(propertySvc),
	}

	router := server.NewRouter(cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
