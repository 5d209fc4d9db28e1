// Package reranker orders retrieved complaint examples by lexical
// overlap with the query. The vector search finds semantically close
// examples; the reranker promotes the ones that also share concrete
// wording, which makes better few-shot prompt material.
package reranker

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/lvivdigital/zvernennia/internal/vectorstore"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// Reranker reorders search results by query relevance.
type Reranker interface {
	// Rerank returns the topK neighbors most relevant to the query,
	// best first. topK <= 0 keeps all neighbors. With no more than
	// topK candidates the vector ranking is kept as is.
	Rerank(ctx context.Context, query string, neighbors []vectorstore.Neighbor, topK int) ([]vectorstore.Neighbor, error)

	// Close releases resources held by the reranker.
	Close() error
}

// LexicalReranker combines the vector similarity score with token
// overlap between the query and the example text.
type LexicalReranker struct{}

// NewLexicalReranker creates a lexical reranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Score weights. Similarity dominates; overlap breaks near-ties in
// favor of examples that mention the same things the citizen does.
const (
	similarityWeight = 0.7
	overlapWeight    = 0.3
)

// Rerank reorders neighbors by combined similarity and term overlap.
func (r *LexicalReranker) Rerank(ctx context.Context, query string, neighbors []vectorstore.Neighbor, topK int) ([]vectorstore.Neighbor, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if topK <= 0 || topK > len(neighbors) {
		topK = len(neighbors)
	}
	if len(neighbors) == 0 {
		return []vectorstore.Neighbor{}, nil
	}

	// Every candidate will be kept anyway; reordering so few examples
	// only shuffles the few-shot prompt for nothing.
	if len(neighbors) <= topK {
		out := make([]vectorstore.Neighbor, len(neighbors))
		copy(out, neighbors)
		return out, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		// Nothing to overlap against, keep the vector ranking.
		out := make([]vectorstore.Neighbor, topK)
		copy(out, neighbors[:topK])
		return out, nil
	}

	type scored struct {
		neighbor vectorstore.Neighbor
		combined float32
	}

	scoredNeighbors := make([]scored, len(neighbors))
	for i, n := range neighbors {
		overlap := termOverlap(queryTokens, tokenize(n.Text))
		scoredNeighbors[i] = scored{
			neighbor: n,
			combined: similarityWeight*n.Score + overlapWeight*overlap,
		}
	}

	sort.SliceStable(scoredNeighbors, func(i, j int) bool {
		return scoredNeighbors[i].combined > scoredNeighbors[j].combined
	})

	result := make([]vectorstore.Neighbor, topK)
	for i := 0; i < topK; i++ {
		result[i] = scoredNeighbors[i].neighbor
	}
	return result, nil
}

// Close is a no-op; the lexical reranker holds no resources.
func (r *LexicalReranker) Close() error {
	return nil
}

// ukrainianStopwords are function words that carry no complaint signal.
var ukrainianStopwords = map[string]bool{
	"або": true, "але": true, "біля": true, "вже": true, "для": true,
	"дуже": true, "його": true, "мене": true, "нас": true, "наш": true,
	"під": true, "при": true, "про": true, "там": true,
	"тому": true, "тут": true, "цей": true, "через": true, "щоб": true,
	"яка": true, "який": true, "яке": true,
}

// tokenize splits text into lowercase terms, dropping stopwords and
// tokens shorter than three runes.
func tokenize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len([]rune(token)) < 3 || ukrainianStopwords[token] {
			continue
		}
		filtered = append(filtered, token)
	}
	return filtered
}

// termOverlap returns the share of query terms present in the document.
func termOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0
	}

	docSet := make(map[string]bool, len(docTokens))
	for _, t := range docTokens {
		docSet[t] = true
	}

	matched := 0
	for _, t := range queryTokens {
		if docSet[t] {
			matched++
		}
	}
	return float32(matched) / float32(len(queryTokens))
}
