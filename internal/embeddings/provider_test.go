package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Provider: "word2vec"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "word2vec")
}

func TestDetectDimensionFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"intfloat/multilingual-e5-large", 1024},
		{"fast-multilingual-e5-large", 1024},
		{"BAAI/bge-small-en-v1.5", 384},
		{"BAAI/bge-base-en-v1.5", 768},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"some-base-model", 768},
		{"some-small-model", 384},
		{"unknown-model", 1024},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDimensionFromModel(tt.model))
		})
	}
}

func TestNewOpenAIProviderDefaults(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key"})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 1536, p.Dimension())
}

func TestNewOpenAIProviderSelfHostedDefaultsToMultilingual(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: "http://localhost:8082/v1"})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, DefaultRemoteModel, p.model)
	assert.Equal(t, 1024, p.Dimension())
}

func TestOpenAIProviderRejectsEmptyInput(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key"})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// fakeProvider counts calls for instrumentation tests.
type fakeProvider struct {
	queries   int
	documents int
	fail      bool
}

func (f *fakeProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.documents++
	if f.fail {
		return nil, errors.New("boom")
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeProvider) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.queries++
	if f.fail {
		return nil, errors.New("boom")
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeProvider) Dimension() int { return 3 }
func (f *fakeProvider) Close() error   { return nil }

func TestInstrumentedProviderDelegates(t *testing.T) {
	fake := &fakeProvider{}
	p := Instrument(fake, "test-model", NewMetrics(zap.NewNop()))

	vectors, err := p.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, 1, fake.documents)

	vector, err := p.EmbedQuery(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
	assert.Equal(t, 1, fake.queries)

	assert.Equal(t, 3, p.Dimension())
}

func TestInstrumentedProviderPropagatesErrors(t *testing.T) {
	fake := &fakeProvider{fail: true}
	p := Instrument(fake, "test-model", NewMetrics(zap.NewNop()))

	_, err := p.EmbedQuery(context.Background(), "a")
	require.Error(t, err)
}

func TestMetricsRecordGeneration(t *testing.T) {
	m := NewMetrics(zap.NewNop())

	// Recording must not panic even with the global no-op meter.
	m.RecordGeneration(context.Background(), "test-model", "embed_query", 5*time.Millisecond, 1, nil)
	m.RecordGeneration(context.Background(), "test-model", "embed_documents", 5*time.Millisecond, 10, errors.New("boom"))
}
