package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/api/handlers"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/config"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/discovery"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/httpx"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/jobs"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/craigslist"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/leboncoin"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/rightmove"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/websearch"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/provider/zillow"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/repository"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/server"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/storage"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the estate discovery API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if cfg.HasSentry() {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	propertyRepo := repository.NewPropertyRepository(pool)

	var archiver service.SnapshotArchiver
	if cfg.HasS3() {
		storeCfg := storage.SnapshotStoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		store, err := storage.NewSnapshotStore(ctx, storeCfg)
		if err != nil {
			return fmt.Errorf("failed to create snapshot store: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = store
	}

	orchestrator := buildOrchestrator(cfg)
	propertySvc := service.NewPropertyService(propertyRepo)
	discoverySvc := service.NewDiscoveryService(orchestrator, propertySvc, archiver)

	routerCfg := server.RouterConfig{
		SearchHandler:   handlers.NewSearchHandler(discoverySvc),
		PropertyHandler: handlers.NewPropertyHandler(propertySvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	var rescanWorker *jobs.Worker
	if cfg.HasRescan() {
		processor := jobs.NewRescanWorker(discoverySvc, cfg.ScanLocations)
		rescanWorker = jobs.NewWorker(processor, cfg.ScanInterval)
		go rescanWorker.Start(ctx)
		log.Printf("rescan worker started for %d locations", len(cfg.ScanLocations))
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if rescanWorker != nil {
		rescanWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}

// buildOrchestrator wires every adapter whose credentials are configured.
// Craigslist needs no key and is always present; the web-search fallback
// joins whenever either of its backends has a key.
func buildOrchestrator(cfg *config.Config) *discovery.Orchestrator {
	opts := []httpx.Option{}
	if cfg.FixturesDir != "" {
		opts = append(opts, httpx.WithTransport(httpx.NewReplayTransport(cfg.FixturesDir)))
		log.Printf("provider HTTP replaying fixtures from %s", cfg.FixturesDir)
	}
	client := httpx.NewClient(15*time.Second, opts...)

	providers := []provider.Provider{}
	if cfg.RapidAPIKey != "" {
		providers = append(providers, zillow.New(client, cfg.RapidAPIKey))
	}
	providers = append(providers, craigslist.New(client))
	if cfg.RapidAPIKey != "" {
		providers = append(providers, rightmove.New(client, cfg.RapidAPIKey))
	}
	if cfg.LeboncoinAPIKey != "" {
		providers = append(providers, leboncoin.New(client, cfg.LeboncoinAPIKey))
	}
	if cfg.RapidAPIKey != "" || cfg.GoogleMapsKey != "" {
		providers = append(providers, websearch.New(client, cfg.RapidAPIKey, cfg.GoogleMapsKey))
	}

	return discovery.NewOrchestrator(discovery.DefaultPolicy(), providers...)
}
