package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/appeal"
	"github.com/lvivdigital/zvernennia/internal/catalog"
	"github.com/lvivdigital/zvernennia/internal/classify"
	"github.com/lvivdigital/zvernennia/internal/events"
	"github.com/lvivdigital/zvernennia/internal/resolver"
)

type fakeClassifier struct {
	result *classify.Result
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (*classify.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeLetterLLM struct {
	response string
	err      error
}

func (f *fakeLetterLLM) GenerateWithTemperature(ctx context.Context, prompt string, temperature float32) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type capturePublisher struct {
	published []events.ClassifiedEvent
	err       error
}

func (c *capturePublisher) PublishClassified(ctx context.Context, event events.ClassifiedEvent) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, event)
	return nil
}

func (c *capturePublisher) Close() {}

func newTestResolver(t *testing.T) *resolver.Resolver {
	t.Helper()

	cat, err := catalog.New(catalog.Config{
		Path: filepath.Join(t.TempDir(), "catalog.db"),
		City: "Львів",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	ctx := context.Background()
	require.NoError(t, cat.UpsertCategory(ctx, catalog.Category{ID: "water_supply", Name: "Водопостачання"}))
	_, err = cat.GetOrCreateService(ctx, catalog.Service{
		Name: "Львівводоканал", Type: catalog.ServiceTypeUtility, CategoryID: "water_supply",
	})
	require.NoError(t, err)

	return resolver.New(cat, zap.NewNop())
}

func newTestOrchestrator(t *testing.T, classifier classify.Classifier, letterLLM appeal.Generator, publisher events.Publisher) *Orchestrator {
	t.Helper()
	drafter := appeal.NewDrafter(letterLLM, "Львів", 0.7, zap.NewNop())
	return New(classifier, newTestResolver(t), drafter, publisher, zap.NewNop())
}

func TestSolveFullPipeline(t *testing.T) {
	classifier := &fakeClassifier{result: &classify.Result{
		CategoryID:   "water_supply",
		CategoryName: "Водопостачання",
		Confidence:   0.8,
		Reasoning:    "[Hybrid-Fast] голосування",
		IsRelevant:   true,
	}}
	publisher := &capturePublisher{}
	o := newTestOrchestrator(t, classifier, &fakeLetterLLM{response: "Шановні панове!"}, publisher)

	solution, err := o.Solve(context.Background(), "Немає води на вулиці Зеленій")
	require.NoError(t, err)

	assert.NotEmpty(t, solution.ID)
	assert.Equal(t, "water_supply", solution.Classification.CategoryID)
	require.NotNil(t, solution.Resolution)
	assert.Equal(t, "Львівводоканал", solution.Resolution.ServiceName)
	require.NotNil(t, solution.Letter)
	assert.Equal(t, "Шановні панове!", solution.Letter.Text)

	require.Len(t, publisher.published, 1)
	event := publisher.published[0]
	assert.Equal(t, solution.ID, event.ID)
	assert.Equal(t, "water_supply", event.CategoryID)
	assert.Equal(t, "Львівводоканал", event.ServiceName)
	assert.False(t, event.Timestamp.IsZero())
}

func TestSolveIrrelevantStopsAfterClassification(t *testing.T) {
	classifier := &fakeClassifier{result: &classify.Result{
		CategoryID: "other",
		Confidence: 0.9,
		Reasoning:  "[LLM] Текст не є зверненням",
		IsRelevant: false,
	}}
	publisher := &capturePublisher{}
	o := newTestOrchestrator(t, classifier, &fakeLetterLLM{response: "Лист"}, publisher)

	solution, err := o.Solve(context.Background(), "Який сьогодні курс долара?")
	require.NoError(t, err)

	assert.Nil(t, solution.Resolution)
	assert.Nil(t, solution.Letter)
	assert.Empty(t, publisher.published)
}

func TestSolveLetterFailureDegradesGracefully(t *testing.T) {
	classifier := &fakeClassifier{result: &classify.Result{
		CategoryID: "water_supply",
		Confidence: 0.8,
		IsRelevant: true,
	}}
	publisher := &capturePublisher{}
	o := newTestOrchestrator(t, classifier, &fakeLetterLLM{err: errors.New("quota exceeded")}, publisher)

	solution, err := o.Solve(context.Background(), "Немає води")
	require.NoError(t, err)

	require.NotNil(t, solution.Resolution)
	assert.Nil(t, solution.Letter)
	require.Len(t, publisher.published, 1)
}

func TestSolveClassifierErrorFails(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("index unavailable")}
	o := newTestOrchestrator(t, classifier, &fakeLetterLLM{response: "Лист"}, &capturePublisher{})

	_, err := o.Solve(context.Background(), "Немає води")
	assert.Error(t, err)
}

func TestSolveEmptyText(t *testing.T) {
	o := newTestOrchestrator(t, &fakeClassifier{}, &fakeLetterLLM{}, &capturePublisher{})
	_, err := o.Solve(context.Background(), "   ")
	assert.ErrorIs(t, err, classify.ErrEmptyText)
}

func TestSolvePublishFailureIsNotFatal(t *testing.T) {
	classifier := &fakeClassifier{result: &classify.Result{
		CategoryID: "water_supply",
		Confidence: 0.8,
		IsRelevant: true,
	}}
	o := newTestOrchestrator(t, classifier, &fakeLetterLLM{response: "Лист"},
		&capturePublisher{err: errors.New("nats down")})

	solution, err := o.Solve(context.Background(), "Немає води")
	require.NoError(t, err)
	assert.NotNil(t, solution.Letter)
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "", formatAddress(nil))
	assert.Equal(t, "вулиця Зеленій", formatAddress(&resolver.Address{Street: "Зеленій"}))
	assert.Equal(t, "вулиця Лева, 42", formatAddress(&resolver.Address{Street: "Лева", Number: "42"}))
}
