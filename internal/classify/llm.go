package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/catalog"
	"github.com/lvivdigital/zvernennia/internal/prompt"
	"github.com/lvivdigital/zvernennia/internal/reranker"
	"github.com/lvivdigital/zvernennia/internal/sanitize"
	"github.com/lvivdigital/zvernennia/internal/vectorstore"
)

// classifyTemplate is the few-shot classification prompt. The model
// must answer with bare JSON, no prose.
const classifyTemplate = `Ти — класифікатор звернень мешканців до міських служб міста {{city}}.

Доступні категорії:
{{#each categories}}- {{this.id}}: {{this.name}}. {{this.description}}
{{/each}}
Приклади класифікованих звернень:
{{#each examples}}- "{{this.text}}" -> {{this.category_id}}
{{/each}}
Звернення для класифікації:
"""
{{text}}
"""

Відповідай лише JSON-об'єктом без пояснень:
{"category_id": "<категорія зі списку або other>", "confidence": <0.0-1.0>, "reasoning": "<коротке пояснення українською>", "is_urgent": <true якщо аварійна ситуація>, "is_relevant": <false якщо текст не є зверненням до міських служб>}`

// LLMClassifier classifies with a Gemini prompt enriched by retrieved
// examples.
type LLMClassifier struct {
	llm      LLMGenerator
	store    vectorstore.Store
	catalog  *catalog.Catalog
	engine   *prompt.Engine
	reranker reranker.Reranker
	fewShotK int
	logger   *zap.Logger
}

// NewLLMClassifier creates an LLM classifier.
//
// store may be nil; few-shot retrieval is then skipped and the prompt
// carries only the category list.
func NewLLMClassifier(llm LLMGenerator, store vectorstore.Store, cat *catalog.Catalog, fewShotK int, logger *zap.Logger) *LLMClassifier {
	if fewShotK <= 0 {
		fewShotK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMClassifier{
		llm:      llm,
		store:    store,
		catalog:  cat,
		engine:   prompt.NewEngine(),
		reranker: reranker.NewLexicalReranker(),
		fewShotK: fewShotK,
		logger:   logger,
	}
}

// llmVerdict mirrors the JSON the model must return.
type llmVerdict struct {
	CategoryID string  `json:"category_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	IsUrgent   bool    `json:"is_urgent"`
	IsRelevant bool    `json:"is_relevant"`
}

// Classify builds a few-shot prompt and parses the model's JSON verdict.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	rendered, validCategories, err := c.buildPrompt(ctx, text)
	if err != nil {
		return nil, err
	}

	response, err := c.llm.GenerateContent(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("llm classification: %w", err)
	}

	verdict, err := parseVerdict(response)
	if err != nil {
		c.logger.Warn("unparseable llm verdict, using fallback",
			zap.Error(err),
			zap.String("response", truncateForLog(response)),
		)
		return fallbackResult("[LLM] Відповідь моделі не вдалося розібрати", 0.5), nil
	}

	// Reject hallucinated categories.
	if verdict.CategoryID != FallbackCategoryID && !validCategories[verdict.CategoryID] {
		c.logger.Warn("llm returned unknown category, using fallback",
			zap.String("category", verdict.CategoryID),
		)
		return fallbackResult(
			fmt.Sprintf("[LLM] Модель повернула невідому категорію %q", verdict.CategoryID), 0.5), nil
	}

	result := &Result{
		CategoryID: verdict.CategoryID,
		Confidence: clamp01(verdict.Confidence),
		Reasoning:  "[LLM] " + verdict.Reasoning,
		IsUrgent:   verdict.IsUrgent,
		IsRelevant: verdict.IsRelevant,
	}

	if cat, err := c.catalog.Category(ctx, result.CategoryID); err == nil {
		result.CategoryName = cat.Name
	}

	c.logger.Debug("llm classification",
		zap.String("category", result.CategoryID),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("is_relevant", result.IsRelevant),
	)

	return result, nil
}

// buildPrompt renders the classification prompt and returns the set of
// valid category IDs for verdict validation.
func (c *LLMClassifier) buildPrompt(ctx context.Context, text string) (string, map[string]bool, error) {
	categories, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("loading categories: %w", err)
	}

	valid := make(map[string]bool, len(categories))
	categoryData := make([]map[string]string, 0, len(categories))
	for _, cat := range categories {
		valid[cat.ID] = true
		categoryData = append(categoryData, map[string]string{
			"id":          cat.ID,
			"name":        cat.Name,
			"description": cat.Description,
		})
	}

	var exampleData []map[string]string
	if c.store != nil {
		// Over-fetch so the reranker has candidates to choose from.
		neighbors, err := c.store.Search(ctx, text, c.fewShotK*3)
		if err != nil {
			c.logger.Warn("few-shot retrieval failed, continuing without examples", zap.Error(err))
		} else {
			if reranked, rerr := c.reranker.Rerank(ctx, text, neighbors, c.fewShotK); rerr == nil {
				neighbors = reranked
			}
			for _, n := range neighbors {
				exampleData = append(exampleData, map[string]string{
					"text":        sanitize.PromptInput(n.Text, 300),
					"category_id": n.CategoryID,
				})
			}
		}
	}

	rendered, err := c.engine.Render(classifyTemplate, map[string]interface{}{
		"city":       c.catalog.City(),
		"categories": categoryData,
		"examples":   exampleData,
		"text":       sanitize.PromptInput(text, 0),
	})
	if err != nil {
		return "", nil, fmt.Errorf("rendering classification prompt: %w", err)
	}

	return rendered, valid, nil
}

// parseVerdict extracts the JSON object from a model response,
// tolerating markdown code fences.
func parseVerdict(response string) (*llmVerdict, error) {
	cleaned := stripCodeFences(response)

	var verdict llmVerdict
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return nil, fmt.Errorf("parsing verdict JSON: %w", err)
	}
	if verdict.CategoryID == "" {
		return nil, fmt.Errorf("verdict missing category_id")
	}
	return &verdict, nil
}

// stripCodeFences removes a surrounding ```json ... ``` fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func truncateForLog(s string) string {
	const max = 200
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return s
}
