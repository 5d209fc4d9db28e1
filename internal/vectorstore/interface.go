// Package vectorstore provides the labeled complaint-example index used
// for k-NN classification and few-shot retrieval.
//
// Two backends implement the Store interface: an embedded chromem-go
// database (default, zero external dependencies) and an external Qdrant
// server over gRPC.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when the example collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyExamples indicates empty or nil examples.
	ErrEmptyExamples = errors.New("empty or nil examples")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to Qdrant")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName validates a collection name.
// Rejects uppercase, special characters, path traversal, and spaces.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match pattern ^[a-z0-9_]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models prefix queries differently from documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for the complaint-example index.
//
// Implementations hold a single collection of labeled examples. Each
// example carries its category and urgency flag in metadata so that
// search results can vote on a classification without a second lookup.
type Store interface {
	// AddExamples embeds and upserts labeled examples.
	// Returns the IDs of stored examples.
	AddExamples(ctx context.Context, examples []Example) ([]string, error)

	// Search returns up to k nearest examples for the query text,
	// ordered by similarity score (highest first).
	Search(ctx context.Context, query string, k int) ([]Neighbor, error)

	// SearchWithFilters returns nearest examples whose metadata matches
	// all filter conditions (e.g. {"category_id": "roads"}).
	SearchWithFilters(ctx context.Context, query string, k int, filters map[string]interface{}) ([]Neighbor, error)

	// DeleteExamples removes examples by ID.
	DeleteExamples(ctx context.Context, ids []string) error

	// Count returns the number of indexed examples.
	Count(ctx context.Context) (int, error)

	// Reset drops and recreates the example collection.
	Reset(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
