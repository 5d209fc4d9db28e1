// Package classify assigns complaint texts to municipal categories.
//
// Three classifiers implement the Classifier interface: a k-NN voter
// over the labeled example index, an LLM classifier with few-shot
// retrieval, and a hybrid that answers from k-NN votes when they are
// confident and falls back to the LLM otherwise.
package classify

import (
	"context"
	"errors"
)

// FallbackCategoryID labels complaints no classifier could place.
const FallbackCategoryID = "other"

// ErrEmptyText indicates an empty complaint text.
var ErrEmptyText = errors.New("complaint text cannot be empty")

// Result is a classification verdict.
type Result struct {
	// CategoryID is the assigned category key, "other" when unplaced.
	CategoryID string `json:"category_id"`

	// CategoryName is the category display name, when known.
	CategoryName string `json:"category_name,omitempty"`

	// Confidence is the classifier's certainty in [0, 1].
	Confidence float64 `json:"confidence"`

	// Reasoning explains the verdict for the response payload.
	Reasoning string `json:"reasoning"`

	// IsUrgent marks emergencies that route to dispatch.
	IsUrgent bool `json:"is_urgent"`

	// IsRelevant is false for texts that are not municipal complaints.
	IsRelevant bool `json:"is_relevant"`
}

// Classifier assigns a complaint text to a category.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

// LLMGenerator is the text generation surface the LLM classifier needs.
type LLMGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// fallbackResult is the verdict when no signal is available.
func fallbackResult(reasoning string, confidence float64) *Result {
	return &Result{
		CategoryID: FallbackCategoryID,
		Confidence: confidence,
		Reasoning:  reasoning,
		IsRelevant: true,
	}
}
