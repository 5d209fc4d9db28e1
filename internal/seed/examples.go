// Package seed loads the category registry, the service registry and
// the labeled example index from data files.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/catalog"
	"github.com/lvivdigital/zvernennia/internal/vectorstore"
)

// ExamplesFile is the JSON shape of a labeled examples file.
type ExamplesFile struct {
	Categories []CategorySpec `json:"categories"`
	Examples   []ExampleSpec  `json:"examples"`
}

// CategorySpec is one category definition.
type CategorySpec struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ExampleSpec is one labeled complaint example.
type ExampleSpec struct {
	ID         string `json:"id,omitempty"`
	Text       string `json:"text"`
	CategoryID string `json:"category_id"`
	IsUrgent   bool   `json:"is_urgent,omitempty"`
}

// ExamplesResult summarizes a seeding run.
type ExamplesResult struct {
	Categories int
	Examples   int
}

// Examples loads categories into the registry and labeled examples
// into the vector index. force resets the index first; without it the
// run adds to whatever is already indexed.
func Examples(ctx context.Context, path string, cat *catalog.Catalog, store vectorstore.Store, force bool, logger *zap.Logger) (*ExamplesResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading examples file: %w", err)
	}

	var file ExamplesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing examples file %s: %w", path, err)
	}
	if err := validateExamples(&file); err != nil {
		return nil, fmt.Errorf("invalid examples file %s: %w", path, err)
	}

	for _, spec := range file.Categories {
		if err := cat.UpsertCategory(ctx, catalog.Category{
			ID:          spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
		}); err != nil {
			vectorstore.RecordSeed(false)
			return nil, err
		}
	}

	if force {
		if err := store.Reset(ctx); err != nil {
			vectorstore.RecordSeed(false)
			return nil, fmt.Errorf("resetting example index: %w", err)
		}
	}

	examples := make([]vectorstore.Example, 0, len(file.Examples))
	for _, spec := range file.Examples {
		examples = append(examples, vectorstore.Example{
			ID:         spec.ID,
			Text:       spec.Text,
			CategoryID: spec.CategoryID,
			IsUrgent:   spec.IsUrgent,
		})
	}

	start := time.Now()
	if len(examples) > 0 {
		if _, err := store.AddExamples(ctx, examples); err != nil {
			vectorstore.RecordSeed(false)
			return nil, fmt.Errorf("indexing examples: %w", err)
		}
	}
	vectorstore.RecordSeed(true)

	logger.Info("examples seeded",
		zap.String("path", path),
		zap.Int("categories", len(file.Categories)),
		zap.Int("examples", len(examples)),
		zap.Bool("force", force),
		zap.Duration("duration", time.Since(start)),
	)

	return &ExamplesResult{
		Categories: len(file.Categories),
		Examples:   len(examples),
	}, nil
}

// validateExamples checks referential integrity before touching the
// registry or the index.
func validateExamples(file *ExamplesFile) error {
	known := make(map[string]bool, len(file.Categories))
	for i, c := range file.Categories {
		if c.ID == "" {
			return fmt.Errorf("category %d has no id", i)
		}
		if c.Name == "" {
			return fmt.Errorf("category %q has no name", c.ID)
		}
		if known[c.ID] {
			return fmt.Errorf("duplicate category %q", c.ID)
		}
		known[c.ID] = true
	}

	for i, e := range file.Examples {
		if e.Text == "" {
			return fmt.Errorf("example %d has no text", i)
		}
		if e.CategoryID == "" {
			return fmt.Errorf("example %d has no category_id", i)
		}
		if !known[e.CategoryID] {
			return fmt.Errorf("example %d references unknown category %q", i, e.CategoryID)
		}
	}
	return nil
}
