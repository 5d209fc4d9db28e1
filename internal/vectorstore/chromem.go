package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// timeNow is a variable for testing purposes.
var timeNow = time.Now

var chromemTracer = otel.Tracer("zvernennia.vectorstore.chromem")

// ChromemConfig holds configuration for the embedded chromem-go backend.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.local/share/zvernennia/examples"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the example collection name.
	// Default: "complaint_examples"
	Collection string

	// VectorSize is the expected embedding dimension.
	// Must match the embedder's output dimension.
	// Default: 1024 (multilingual-e5-large)
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.local/share/zvernennia/examples"
	}
	if c.Collection == "" {
		c.Collection = "complaint_examples"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 1024
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return ValidateCollectionName(c.Collection)
}

// ChromemStore implements Store using the embedded chromem-go database.
//
// chromem-go is pure Go with no external service to run, which keeps a
// single-city deployment to one process. Search is always exact, which
// is fine at the corpus sizes a municipal example set reaches.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
	config   ChromemConfig
	logger   *zap.Logger
}

// NewChromemStore creates a ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	expandedPath, err := expandChromemPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}

	if err := os.MkdirAll(expandedPath, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}

	db, err := chromem.NewPersistentDB(expandedPath, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	store := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	logger.Info("chromem example index initialized",
		zap.String("path", expandedPath),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
		zap.String("collection", config.Collection),
	)

	return store, nil
}

// expandChromemPath expands ~ to the home directory.
func expandChromemPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc adapts the Embedder to chromem's callback type.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

func (s *ChromemStore) collection() (*chromem.Collection, error) {
	// Must pass the embedding function: chromem-go falls back to its
	// OpenAI default when nil is passed for persisted collections.
	collection, err := s.db.GetOrCreateCollection(s.config.Collection, nil, s.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", s.config.Collection, err)
	}
	return collection, nil
}

// AddExamples embeds and upserts labeled examples.
func (s *ChromemStore) AddExamples(ctx context.Context, examples []Example) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddExamples")
	defer span.End()

	span.SetAttributes(
		attribute.Int("example_count", len(examples)),
		attribute.String("collection", s.config.Collection),
	)

	if len(examples) == 0 {
		return nil, ErrEmptyExamples
	}

	collection, err := s.collection()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ids := make([]string, len(examples))
	texts := make([]string, len(examples))
	for i, ex := range examples {
		ids[i] = ex.ID
		if ids[i] == "" {
			ids[i] = fmt.Sprintf("example_%d_%d", timeNow().UnixNano(), i)
			s.logger.Warn("auto-generated example ID, callers should provide explicit IDs",
				zap.String("generated_id", ids[i]),
				zap.Int("index", i),
			)
		}
		texts[i] = ex.Text
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDocs := make([]chromem.Document, len(examples))
	for i, ex := range examples {
		chromemDocs[i] = chromem.Document{
			ID:        ids[i],
			Content:   ex.Text,
			Metadata:  exampleMetadata(ex),
			Embedding: embeddings[i],
		}
	}

	// Concurrency of 1 since embeddings are already computed.
	if err := collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding examples: %w", err)
	}

	span.SetAttributes(attribute.Int("examples_added", len(ids)))
	span.SetStatus(codes.Ok, "success")
	RecordExampleCount(collection.Count())

	s.logger.Debug("added examples to chromem",
		zap.String("collection", s.config.Collection),
		zap.Int("count", len(examples)),
	)

	return ids, nil
}

// Search returns up to k nearest examples for the query text.
func (s *ChromemStore) Search(ctx context.Context, query string, k int) ([]Neighbor, error) {
	return s.SearchWithFilters(ctx, query, k, nil)
}

// SearchWithFilters returns nearest examples matching all metadata filters.
func (s *ChromemStore) SearchWithFilters(ctx context.Context, query string, k int, filters map[string]interface{}) ([]Neighbor, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.SearchWithFilters")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", s.config.Collection),
		attribute.Int("k", k),
	)

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	collection := s.db.GetCollection(s.config.Collection, s.embeddingFunc())
	if collection == nil {
		return []Neighbor{}, nil
	}

	// chromem requires nResults <= document count.
	docCount := collection.Count()
	if docCount == 0 {
		return []Neighbor{}, nil
	}
	if k > docCount {
		k = docCount
	}

	results, err := collection.Query(ctx, query, k, metadataToString(filters), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	neighbors := make([]Neighbor, len(results))
	for i, r := range results {
		neighbors[i] = neighborFromChromem(r)
	}

	span.SetAttributes(attribute.Int("results_count", len(neighbors)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("searched example index",
		zap.String("collection", s.config.Collection),
		zap.Int("k", k),
		zap.Int("results", len(neighbors)),
	)

	return neighbors, nil
}

// DeleteExamples removes examples by ID.
func (s *ChromemStore) DeleteExamples(ctx context.Context, ids []string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.DeleteExamples")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", s.config.Collection),
		attribute.Int("id_count", len(ids)),
	)

	if len(ids) == 0 {
		return nil
	}

	collection := s.db.GetCollection(s.config.Collection, s.embeddingFunc())
	if collection == nil {
		return ErrCollectionNotFound
	}

	var failures []string
	for _, id := range ids {
		if err := collection.Delete(ctx, nil, nil, id); err != nil {
			span.RecordError(err)
			s.logger.Error("failed to delete example",
				zap.String("collection", s.config.Collection),
				zap.String("id", id),
				zap.Error(err),
			)
			failures = append(failures, id)
		}
	}

	if len(failures) > 0 {
		span.SetStatus(codes.Error, "partial deletion failure")
		return fmt.Errorf("failed to delete %d of %d examples: %v", len(failures), len(ids), failures)
	}

	span.SetStatus(codes.Ok, "success")
	RecordExampleCount(collection.Count())
	return nil
}

// Count returns the number of indexed examples.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.Count")
	defer span.End()

	collection := s.db.GetCollection(s.config.Collection, s.embeddingFunc())
	if collection == nil {
		return 0, nil
	}

	count := collection.Count()
	span.SetAttributes(attribute.Int("count", count))
	RecordExampleCount(count)
	return count, nil
}

// Reset drops and recreates the example collection.
func (s *ChromemStore) Reset(ctx context.Context) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.Reset")
	defer span.End()

	span.SetAttributes(attribute.String("collection", s.config.Collection))

	if err := s.db.DeleteCollection(s.config.Collection); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting collection %s: %w", s.config.Collection, err)
	}

	if _, err := s.db.CreateCollection(s.config.Collection, nil, s.embeddingFunc()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("recreating collection %s: %w", s.config.Collection, err)
	}

	span.SetStatus(codes.Ok, "success")
	RecordExampleCount(0)

	s.logger.Info("reset example collection",
		zap.String("collection", s.config.Collection),
	)

	return nil
}

// Close closes the store.
// chromem-go persists automatically, no explicit flush needed.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem example index closed")
	return nil
}

// exampleMetadata flattens an Example's labels into chromem metadata.
func exampleMetadata(ex Example) map[string]string {
	meta := metadataToString(ex.Metadata)
	if meta == nil {
		meta = make(map[string]string, 2)
	}
	meta[MetaCategoryID] = ex.CategoryID
	meta[MetaIsUrgent] = strconv.FormatBool(ex.IsUrgent)
	return meta
}

// neighborFromChromem rebuilds an Example from stored metadata.
func neighborFromChromem(r chromem.Result) Neighbor {
	n := Neighbor{
		Example: Example{
			ID:   r.ID,
			Text: r.Content,
		},
		Score: r.Similarity,
	}
	if len(r.Metadata) > 0 {
		n.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			switch k {
			case MetaCategoryID:
				n.CategoryID = v
			case MetaIsUrgent:
				n.IsUrgent, _ = strconv.ParseBool(v)
			default:
				n.Metadata[k] = v
			}
		}
	}
	return n
}

// metadataToString converts metadata values to chromem's string map.
func metadataToString(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = strconv.Itoa(val)
		case int64:
			result[k] = strconv.FormatInt(val, 10)
		case float64:
			result[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			result[k] = strconv.FormatBool(val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// Ensure ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
