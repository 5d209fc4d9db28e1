// Package appeal drafts formal appeal letters to municipal services on
// behalf of citizens.
package appeal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvivdigital/zvernennia/internal/prompt"
	"github.com/lvivdigital/zvernennia/internal/sanitize"
)

// ErrEmptyComplaint indicates an empty complaint text.
var ErrEmptyComplaint = errors.New("complaint text cannot be empty")

// letterTemplate asks the model for a complete official letter. The
// service name and category are registry data, the complaint text is
// citizen input and passes through the prompt filter.
const letterTemplate = `Ти — помічник мешканця міста {{city}}, який складає офіційні звернення до міських служб.

Склади офіційний лист-звернення українською мовою до служби "{{service}}" від імені мешканця.

Суть проблеми (категорія: {{category}}):
"""
{{complaint}}
"""
{{#if address}}
Адреса проблеми: {{address}}
{{/if}}
Вимоги до листа:
- офіційно-діловий стиль
- звертання до адресата, виклад проблеми, прохання вжити заходів, подяка
- місце для підпису та дати наприкінці
- без вигаданих фактів, лише з наведеної суті проблеми

Відповідай лише текстом листа без коментарів.`

// Generator is the text generation surface the drafter needs.
type Generator interface {
	GenerateWithTemperature(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Request carries everything needed to draft a letter.
type Request struct {
	// Complaint is the citizen's original text.
	Complaint string

	// ServiceName is the addressee resolved for the complaint.
	ServiceName string

	// CategoryName is the human-readable category.
	CategoryName string

	// Address is the problem location, empty when unknown.
	Address string
}

// Letter is a drafted appeal.
type Letter struct {
	// Text is the full letter body.
	Text string `json:"text"`

	// ServiceName is the addressee the letter was drafted for.
	ServiceName string `json:"service_name"`
}

// Drafter generates appeal letters with an LLM.
type Drafter struct {
	llm         Generator
	engine      *prompt.Engine
	city        string
	temperature float32
	logger      *zap.Logger
}

// NewDrafter creates a letter drafter. Some creative temperature keeps
// the letters from all reading identically.
func NewDrafter(llm Generator, city string, temperature float32, logger *zap.Logger) *Drafter {
	if temperature <= 0 {
		temperature = 0.7
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drafter{
		llm:         llm,
		engine:      prompt.NewEngine(),
		city:        city,
		temperature: temperature,
		logger:      logger,
	}
}

// Draft generates an appeal letter for a routed complaint.
func (d *Drafter) Draft(ctx context.Context, req Request) (*Letter, error) {
	complaint := strings.TrimSpace(req.Complaint)
	if complaint == "" {
		return nil, ErrEmptyComplaint
	}

	service := req.ServiceName
	if service == "" {
		service = "відповідальна міська служба"
	}
	category := req.CategoryName
	if category == "" {
		category = "інше"
	}

	rendered, err := d.engine.Render(letterTemplate, map[string]interface{}{
		"city":      d.city,
		"service":   service,
		"category":  category,
		"complaint": sanitize.PromptInput(complaint, 0),
		"address":   req.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering letter prompt: %w", err)
	}

	text, err := d.llm.GenerateWithTemperature(ctx, rendered, d.temperature)
	if err != nil {
		return nil, fmt.Errorf("drafting appeal letter: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("model returned an empty letter")
	}

	d.logger.Debug("appeal letter drafted",
		zap.String("service", service),
		zap.Int("letter_runes", len([]rune(text))),
	)

	return &Letter{Text: text, ServiceName: service}, nil
}
