package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Languages(t *testing.T) {
	en, err := Load("en")
	require.NoError(t, err)
	assert.Equal(t, "en", en.Lang())

	ru, err := Load(" RU ")
	require.NoError(t, err)
	assert.Equal(t, "ru", ru.Lang())

	fallback, err := Load("de")
	require.NoError(t, err)
	assert.Equal(t, "en", fallback.Lang())
}

func TestBundle_Render(t *testing.T) {
	b, err := Load("en")
	require.NoError(t, err)

	out, err := b.Render("limits.max_total", map[string]any{"Tool": "query_grants"})
	require.NoError(t, err)
	assert.Equal(t, "Tool query_grants reached its maximum number of calls", out)

	out, err = b.Render("plan.partial", map[string]any{"Failed": 2, "Total": 4})
	require.NoError(t, err)
	assert.Equal(t, "2 of 4 steps did not complete", out)

	_, err = b.Render("missing.key", nil)
	assert.Error(t, err)
}

func TestBundlesShareKeys(t *testing.T) {
	en, err := Load("en")
	require.NoError(t, err)
	ru, err := Load("ru")
	require.NoError(t, err)

	for key := range en.templates {
		_, ok := ru.templates[key]
		assert.True(t, ok, "ru is missing %s", key)
	}
	assert.Len(t, ru.templates, len(en.templates))
}

func TestRenderOr(t *testing.T) {
	assert.Equal(t, "fallback", RenderOr(nil, "plan.partial", nil, "fallback"))

	b, err := Load("en")
	require.NoError(t, err)
	assert.Equal(t, "fallback", RenderOr(b, "missing", nil, "fallback"))
	assert.Equal(t, "Plan rejected: x", RenderOr(b, "plan.rejected", map[string]any{"Reason": "x"}, "fallback"))

	var nilBundle *Bundle
	_, err = nilBundle.Render("plan.partial", nil)
	assert.Error(t, err)
}
