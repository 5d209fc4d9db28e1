package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/catalog"
	"github.com/lvivdigital/zvernennia/internal/config"
	"github.com/lvivdigital/zvernennia/internal/embeddings"
	"github.com/lvivdigital/zvernennia/internal/seed"
	"github.com/lvivdigital/zvernennia/internal/vectorstore"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load registry and example data",
}

var seedExamplesCmd = &cobra.Command{
	Use:   "examples <file.json>",
	Short: "Load categories and labeled examples into the index",
	Long: `Load category definitions into the registry and labeled complaint
examples into the vector index.

Examples:
  # Add examples to the existing index
  zvctl seed examples data/examples.json

  # Rebuild the index from scratch
  zvctl seed examples --force data/examples.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSeedExamples,
}

var seedServicesCmd = &cobra.Command{
	Use:   "services <file.yaml>",
	Short: "Load municipal services and buildings into the registry",
	Long: `Load the municipal service registry: services, buildings, and
building-to-service assignments. Repeated runs are idempotent.

Examples:
  zvctl seed services data/services.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSeedServices,
}

func init() {
	seedExamplesCmd.Flags().BoolVar(&seedForce, "force", false, "reset the example index before loading")
	seedCmd.AddCommand(seedExamplesCmd)
	seedCmd.AddCommand(seedServicesCmd)
}

func runSeedExamples(cmd *cobra.Command, args []string) error {
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

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey.Value(),
		CacheDir: cfg.Embedding.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("initializing embeddings: %w", err)
	}
	defer embedder.Close()

	store, err := vectorstore.NewStore(cfg, embedder.Dimension(), embedder, logger)
	if err != nil {
		return fmt.Errorf("initializing example index: %w", err)
	}
	defer store.Close()

	result, err := seed.Examples(ctx, args[0], cat, store, seedForce, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d categories and %d examples from %s\n",
		result.Categories, result.Examples, args[0])
	return nil
}

func runSeedServices(cmd *cobra.Command, args []string) error {
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

	result, err := seed.Services(ctx, args[0], cat, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d services, %d buildings, %d assignments from %s\n",
		result.Services, result.Buildings, result.Assignments, args[0])
	return nil
}

func openCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.New(catalog.Config{
		Path: cfg.Catalog.Path,
		City: cfg.Catalog.City,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening service registry: %w", err)
	}
	return cat, nil
}

// newCLILogger keeps CLI output readable: warnings and errors only.
func newCLILogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
