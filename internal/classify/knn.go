package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/catalog"
	"github.com/lvivdigital/zvernennia/internal/vectorstore"
)

// KNNClassifier votes over the nearest labeled examples.
//
// Confidence is the vote share of the winning category: 7 of 10
// neighbors agreeing gives 0.7. An empty index yields the fallback
// category at zero confidence so the hybrid classifier escalates.
type KNNClassifier struct {
	store   vectorstore.Store
	catalog *catalog.Catalog
	topK    int
	logger  *zap.Logger
}

// NewKNNClassifier creates a k-NN classifier over the example index.
// The catalog resolves category names and may be nil.
func NewKNNClassifier(store vectorstore.Store, cat *catalog.Catalog, topK int, logger *zap.Logger) *KNNClassifier {
	if topK <= 0 {
		topK = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KNNClassifier{store: store, catalog: cat, topK: topK, logger: logger}
}

// Classify assigns a category by majority vote of the nearest examples.
func (c *KNNClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()
	neighbors, err := c.store.Search(ctx, text, c.topK)
	vectorstore.RecordSearch(err == nil, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("searching example index: %w", err)
	}

	if len(neighbors) == 0 {
		return fallbackResult("[KNN] Індекс прикладів порожній, категорію не визначено", 0.0), nil
	}

	// Count votes per category.
	votes := make(map[string]int, len(neighbors))
	for _, n := range neighbors {
		votes[n.CategoryID]++
	}

	winner := ""
	winnerVotes := 0
	for category, count := range votes {
		if count > winnerVotes || (count == winnerVotes && category < winner) {
			winner = category
			winnerVotes = count
		}
	}

	// Urgency is the majority view of the winning neighbors.
	urgentVotes := 0
	for _, n := range neighbors {
		if n.CategoryID == winner && n.IsUrgent {
			urgentVotes++
		}
	}
	isUrgent := urgentVotes*2 > winnerVotes

	confidence := float64(winnerVotes) / float64(len(neighbors))

	result := &Result{
		CategoryID: winner,
		Confidence: confidence,
		Reasoning: fmt.Sprintf("[KNN] k-NN голосування: %d з %d сусідів за категорію %q",
			winnerVotes, len(neighbors), winner),
		IsUrgent:   isUrgent,
		IsRelevant: true,
	}

	if c.catalog != nil {
		if cat, err := c.catalog.Category(ctx, winner); err == nil {
			result.CategoryName = cat.Name
		}
	}

	c.logger.Debug("knn classification",
		zap.String("category", winner),
		zap.Float64("confidence", confidence),
		zap.Int("neighbors", len(neighbors)),
		zap.Bool("is_urgent", isUrgent),
	)

	return result, nil
}
