package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	e := NewEngine()

	out, err := e.Render("Скарга: {{text}}", map[string]interface{}{"text": "яма на дорозі"})
	require.NoError(t, err)
	assert.Equal(t, "Скарга: яма на дорозі", out)
}

func TestRenderEach(t *testing.T) {
	e := NewEngine()

	tmpl := "{{#each categories}}- {{this.id}}: {{this.name}}\n{{/each}}"
	out, err := e.Render(tmpl, map[string]interface{}{
		"categories": []map[string]string{
			{"id": "roads", "name": "Дороги"},
			{"id": "lighting", "name": "Освітлення"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "- roads: Дороги\n- lighting: Освітлення\n", out)
}

func TestRenderInvalidTemplate(t *testing.T) {
	e := NewEngine()

	_, err := e.Render("{{#each}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile")
}

func TestRenderUsesCache(t *testing.T) {
	e := NewEngine()

	const tmpl = "x={{x}}"
	_, err := e.Render(tmpl, map[string]interface{}{"x": 1})
	require.NoError(t, err)

	e.mu.RLock()
	_, cached := e.cache[tmpl]
	e.mu.RUnlock()
	assert.True(t, cached)
}

func TestValidate(t *testing.T) {
	e := NewEngine()

	assert.NoError(t, e.Validate("{{text}}"))
	assert.Error(t, e.Validate("{{#if}"))
}
