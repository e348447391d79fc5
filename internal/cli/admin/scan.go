package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Adebesin-Cell/dmt-adk-estate/internal/config"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/domain"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/repository"
	"github.com/Adebesin-Cell/dmt-adk-estate/internal/service"
)

// ScanCmd returns the scan command, a one-shot discovery run that persists
// what it finds and prints a summary.
func ScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single discovery scan",
		Long:  "Fan out to every configured provider for the given locations, merge the results, and persist them",
		RunE:  runScan,
	}

	cmd.Flags().StringSliceP("location", "l", nil, "Location to search (repeatable)")
	cmd.Flags().Int64("budget-min", 0, "Minimum budget in major currency units")
	cmd.Flags().Int64("budget-max", 0, "Maximum budget in major currency units")
	cmd.Flags().Int("bedrooms-min", 0, "Minimum number of bedrooms")
	cmd.Flags().String("type", "", "Listing type: sale or rent")
	cmd.Flags().Int("limit", 0, "Maximum listings to keep after merging")
	cmd.Flags().Bool("dry-run", false, "Preview counts without writing to the database")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	propertyRepo := repository.NewPropertyRepository(pool)
	propertySvc := service.NewPropertyService(propertyRepo)
	discoverySvc := service.NewDiscoveryService(buildOrchestrator(cfg), propertySvc, nil)

	input, err := scanInputFromFlags(cmd)
	if err != nil {
		return err
	}

	result, err := discoverySvc.Scan(ctx, input)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	return nil
}

func scanInputFromFlags(cmd *cobra.Command) (service.ScanInput, error) {
	locations, _ := cmd.Flags().GetStringSlice("location")
	budgetMin, _ := cmd.Flags().GetInt64("budget-min")
	budgetMax, _ := cmd.Flags().GetInt64("budget-max")
	bedroomsMin, _ := cmd.Flags().GetInt("bedrooms-min")
	listingType, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	query := domain.SearchQuery{
		Locations:   locations,
		ListingType: domain.ListingType(listingType),
	}
	if cmd.Flags().Changed("budget-min") {
		query.BudgetMinMajor = &budgetMin
	}
	if cmd.Flags().Changed("budget-max") {
		query.BudgetMaxMajor = &budgetMax
	}
	if cmd.Flags().Changed("bedrooms-min") {
		query.BedroomsMin = &bedroomsMin
	}

	return service.ScanInput{
		Query:  query,
		Paging: domain.PagingRequest{Limit: limit},
		DryRun: dryRun,
	}, nil
}
