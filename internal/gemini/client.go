// Package gemini wraps the Google GenAI client for classification
// prompts, appeal letter drafting, and audio transcription.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("gemini api returned empty response")

// Generator wraps the Google GenAI client for prompt-based interactions.
type Generator struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGenerator creates a Generator configured for the Gemini API
// backend. temperature is the default sampling temperature for
// GenerateContent; keep it at 0 for deterministic classification.
func NewGenerator(ctx context.Context, apiKey, model string, temperature float32) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{client: client, modelName: model, temperature: temperature}, nil
}

// GenerateContent sends the prompt at the configured default
// temperature and returns the textual response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return g.GenerateWithTemperature(ctx, prompt, g.temperature)
}

// GenerateWithTemperature sends the prompt with an explicit sampling
// temperature. Letter drafting uses a higher one than classification.
func (g *Generator) GenerateWithTemperature(ctx context.Context, prompt string, temperature float32) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	return g.generate(ctx, genai.Text(prompt), cfg)
}

// GenerateWithAudio sends an audio clip with an instruction prompt and
// returns the textual response. Used for voice complaint transcription.
func (g *Generator) GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("audio payload must not be empty")
	}
	if mimeType == "" {
		return "", errors.New("audio mime type is required")
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: strings.TrimSpace(prompt)},
			{InlineData: &genai.Blob{Data: audio, MIMEType: mimeType}},
		},
	}}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}
	out, err := g.generate(ctx, contents, cfg)
	if errors.Is(err, ErrEmptyResponse) {
		// The transcription prompt tells the model to answer with
		// nothing when the recording is unintelligible.
		return "", nil
	}
	return out, err
}

func (g *Generator) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if len(contents) == 0 {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return collectText(resp)
}

// collectText concatenates the textual parts of all candidates.
func collectText(resp *genai.GenerateContentResponse) (string, error) {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ErrEmptyResponse
	}

	return output, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
