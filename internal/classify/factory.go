package classify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/catalog"
	"github.com/lvivdigital/zvernennia/internal/config"
	"github.com/lvivdigital/zvernennia/internal/vectorstore"
)

// New builds the classifier selected by cfg.Classifier.Mode.
//
// The LLM generator may be nil only in knn mode; the store may be nil
// only in llm mode, where few-shot retrieval is simply skipped.
func New(cfg *config.Config, store vectorstore.Store, llm LLMGenerator, cat *catalog.Catalog, logger *zap.Logger) (Classifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Classifier.Mode {
	case config.ClassifierKNN:
		if store == nil {
			return nil, fmt.Errorf("knn classifier requires a vector store")
		}
		return NewKNNClassifier(store, cat, cfg.VectorStore.TopK, logger), nil

	case config.ClassifierLLM:
		if llm == nil {
			return nil, fmt.Errorf("llm classifier requires a generator")
		}
		return NewLLMClassifier(llm, store, cat, cfg.Classifier.FewShotK, logger), nil

	case config.ClassifierHybrid, "":
		if store == nil {
			return nil, fmt.Errorf("hybrid classifier requires a vector store")
		}
		if llm == nil {
			return nil, fmt.Errorf("hybrid classifier requires a generator")
		}
		knn := NewKNNClassifier(store, cat, cfg.VectorStore.TopK, logger)
		deep := NewLLMClassifier(llm, store, cat, cfg.Classifier.FewShotK, logger)
		return NewHybridClassifier(knn, deep, cfg.Classifier.Threshold, logger), nil

	default:
		return nil, fmt.Errorf("unknown classifier mode %q", cfg.Classifier.Mode)
	}
}
