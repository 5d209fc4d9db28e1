// Package prompt renders Handlebars templates for LLM prompts and
// appeal letters.
package prompt

import (
	"fmt"
	"sync"

	"github.com/aymerick/raymond"
)

// Engine renders Handlebars templates with a compile cache.
type Engine struct {
	cache map[string]*raymond.Template
	mu    sync.RWMutex
}

// NewEngine creates a new template engine.
func NewEngine() *Engine {
	return &Engine{
		cache: make(map[string]*raymond.Template),
	}
}

// Render renders a template with the given data.
func (e *Engine) Render(templateStr string, data interface{}) (string, error) {
	tmpl, err := e.getTemplate(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// getTemplate returns a compiled template from cache, compiling on miss.
func (e *Engine) getTemplate(templateStr string) (*raymond.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.cache[templateStr]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another goroutine may have compiled it meanwhile.
	if tmpl, ok := e.cache[templateStr]; ok {
		return tmpl, nil
	}

	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	e.cache[templateStr] = tmpl
	return tmpl, nil
}

// Validate parses a template without rendering it.
func (e *Engine) Validate(templateStr string) error {
	_, err := raymond.Parse(templateStr)
	return err
}
