package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_DefaultOptions(t *testing.T) {
	r := NewRenderer(DefaultOptions())

	out, err := r.Render([]byte("# Errors\n\n| Code | Meaning |\n| --- | --- |\n| 400 | Bad Request |\n\n- [x] done\n\n<aside class=\"notice\">raw</aside>\n"))
	require.NoError(t, err)
	html := string(out)
	require.Contains(t, html, `<h1 id="errors">Errors</h1>`)
	require.Contains(t, html, "<table>")
	require.Contains(t, html, `type="checkbox"`)
	require.Contains(t, html, `<aside class="notice">raw</aside>`)
}

func TestRender_RawHTMLDisabled(t *testing.T) {
	r := NewRenderer(Options{})

	out, err := r.Render([]byte("<div>x</div>\n"))
	require.NoError(t, err)
	require.NotContains(t, string(out), "<div>")
}

func TestRenderer_Deterministic(t *testing.T) {
	var r Renderer = NewRenderer(DefaultOptions())
	a, err := r.Render([]byte("Hello *world*\n"))
	require.NoError(t, err)
	b, err := r.Render([]byte("Hello *world*\n"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}
