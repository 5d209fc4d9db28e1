package vectorstore

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/config"
	"github.com/lvivdigital/zvernennia/internal/sanitize"
)

// NewStore creates a Store based on the configuration.
//
// The backend field selects the implementation:
//   - "chromem" (default): embedded ChromemStore, no external services
//   - "qdrant": external Qdrant server over gRPC
//
// vectorSize must match the embedder's output dimension.
//
// The configured collection name is sanitized to a safe identifier, so
// VECTORSTORE_COLLECTION may carry arbitrary operator input.
func NewStore(cfg *config.Config, vectorSize int, embedder Embedder, logger *zap.Logger) (Store, error) {
	collection := cfg.VectorStore.Collection
	if collection != "" {
		safe := sanitize.Identifier(collection)
		if safe != collection && logger != nil {
			logger.Warn("collection name sanitized",
				zap.String("configured", collection),
				zap.String("collection", safe),
			)
		}
		collection = safe
	}

	switch cfg.VectorStore.Backend {
	case config.StoreChromem, "":
		return NewChromemStore(ChromemConfig{
			Path:       cfg.VectorStore.Path,
			Collection: collection,
			VectorSize: vectorSize,
		}, embedder, logger)

	case config.StoreQdrant:
		host, port, err := splitQdrantURL(cfg.VectorStore.URL)
		if err != nil {
			return nil, err
		}
		return NewQdrantStore(QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: collection,
			VectorSize: uint64(vectorSize),
		}, embedder, logger)

	default:
		return nil, fmt.Errorf("unsupported vectorstore backend: %s (supported: chromem, qdrant)", cfg.VectorStore.Backend)
	}
}

// splitQdrantURL parses "host:port" into its parts.
// Defaults to localhost:6334 for empty input.
func splitQdrantURL(url string) (string, int, error) {
	if url == "" {
		return "localhost", 6334, nil
	}

	host, portStr, found := strings.Cut(url, ":")
	if !found {
		return host, 6334, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid qdrant port %q", ErrInvalidConfig, portStr)
	}
	return host, port, nil
}
