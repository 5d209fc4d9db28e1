package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lvivdigital/zvernennia/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry row counts",
	Long: `Show the number of categories, services, buildings and assignments
in the service registry.

Examples:
  zvctl stats`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newCLILogger()

	cat, err := openCatalog(cfg, logger)
	if err != nil {
		return err
	}
	defer cat.Close()

	stats, err := cat.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading registry stats: %w", err)
	}

	fmt.Printf("City:        %s\n", cat.City())
	fmt.Printf("Categories:  %d\n", stats.Categories)
	fmt.Printf("Services:    %d\n", stats.Services)
	fmt.Printf("Buildings:   %d\n", stats.Buildings)
	fmt.Printf("Assignments: %d\n", stats.Assignments)
	return nil
}
