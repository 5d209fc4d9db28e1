package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// HybridClassifier answers from k-NN votes when they clear the
// confidence threshold and escalates to the LLM otherwise.
//
// The fast path costs one vector search; the deep path adds an LLM
// round-trip. With a well-seeded index most complaints stay fast.
type HybridClassifier struct {
	knn       Classifier
	llm       Classifier
	threshold float64
	logger    *zap.Logger
}

// NewHybridClassifier combines a k-NN and an LLM classifier.
func NewHybridClassifier(knn, llm Classifier, threshold float64, logger *zap.Logger) *HybridClassifier {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridClassifier{knn: knn, llm: llm, threshold: threshold, logger: logger}
}

// Classify runs k-NN first and falls back to the LLM below threshold.
func (c *HybridClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	knnResult, err := c.knn.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	if knnResult.Confidence >= c.threshold {
		knnResult.Reasoning = "[Hybrid-Fast] " + stripStagePrefix(knnResult.Reasoning)
		return knnResult, nil
	}

	c.logger.Debug("knn below threshold, escalating to llm",
		zap.Float64("knn_confidence", knnResult.Confidence),
		zap.Float64("threshold", c.threshold),
	)

	llmResult, err := c.llm.Classify(ctx, text)
	if err != nil {
		// A degraded LLM should not fail the request when k-NN at
		// least produced a guess.
		c.logger.Warn("llm fallback failed, returning knn verdict", zap.Error(err))
		knnResult.Reasoning = "[Hybrid-Fast] " + stripStagePrefix(knnResult.Reasoning)
		return knnResult, nil
	}

	llmResult.Reasoning = "[Hybrid-Deep] " + stripStagePrefix(llmResult.Reasoning)
	return llmResult, nil
}

// stripStagePrefix drops the inner classifier's stage tag so reasonings
// carry exactly one.
func stripStagePrefix(reasoning string) string {
	for _, prefix := range []string{"[KNN] ", "[LLM] "} {
		if strings.HasPrefix(reasoning, prefix) {
			return strings.TrimPrefix(reasoning, prefix)
		}
	}
	return reasoning
}
