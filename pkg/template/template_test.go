package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullstream/graphd/pkg/state"
	"github.com/nullstream/graphd/pkg/template"
)

func TestRenderPlainStringPassesThrough(t *testing.T) {
	result, err := template.Render("hello world", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
}

func TestRenderCoercesNumericResult(t *testing.T) {
	result, err := template.Render("{{.count}}", map[string]any{"count": 42})
	require.NoError(t, err)
	assert.Equal(t, float64(42), result)
}

func TestRenderCoercesBooleanResult(t *testing.T) {
	result, err := template.Render("{{.flag}}", map[string]any{"flag": true})
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestRenderWithStateExposesDataAndConfig(t *testing.T) {
	s := state.New("wf", "run-1", map[string]any{"name": "ada"}, map[string]any{"greeting": "hi"})

	result, err := template.RenderWithState("{{.config.greeting}}, {{.data.name}}", s)
	require.NoError(t, err)
	assert.Equal(t, "hi, ada", result)
}

func TestRenderFailsOnMalformedTemplate(t *testing.T) {
	_, err := template.Render("{{.unterminated", nil)
	assert.Error(t, err)
}
