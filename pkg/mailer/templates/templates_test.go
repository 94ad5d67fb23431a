package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWelcome(t *testing.T) {
	subject, text, html, err := Render("welcome", map[string]any{"Username": "alice"})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to tulisku", subject)
	assert.Contains(t, text, "Hi alice,")
	assert.Contains(t, html, "Welcome, alice!")
}

func TestRenderEscapesHTML(t *testing.T) {
	_, text, html, err := Render("welcome", map[string]any{"Username": "<script>"})
	require.NoError(t, err)

	assert.Contains(t, text, "<script>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown email template")
}
