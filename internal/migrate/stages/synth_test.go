package stages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

func TestWriteJekyllConfig_SortedAndDeterministic(t *testing.T) {
	site := map[string]any{"title": "Foo", "description": "Bar", "author": ""}

	first := newTestState(t, nil, models.Options{})
	require.NoError(t, WriteJekyllConfig(first, site))
	second := newTestState(t, nil, models.Options{})
	require.NoError(t, WriteJekyllConfig(second, site))

	cfg := readDest(t, first, ConfigFile)
	assert.Equal(t, cfg, readDest(t, second, ConfigFile))
	assert.Contains(t, cfg, "title: Foo\n")
	assert.Contains(t, cfg, "description: Bar\n")
	assert.NotContains(t, cfg, "author")
	assert.Less(t, strings.Index(cfg, "description:"), strings.Index(cfg, "title:"))
	assert.Equal(t, "Foo", first.Site["title"])
}

func TestWriteDocumentation_ListsLedger(t *testing.T) {
	st := newTestState(t, nil, models.Options{})
	st.Site["title"] = "Docs"
	st.Record("_pages/index.md", models.ChangeConverted, "page converted from docs/index.md")
	st.Warnf("docs/notes.rst: rst markup is not rendered by Jekyll; copied unchanged")
	st.Result.AddError("docs/bad.md: boom")

	require.NoError(t, WriteDocumentation(st, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	doc := readDest(t, st, DocumentationFile)
	assert.Contains(t, doc, "- Site: Docs\n")
	assert.Contains(t, doc, "- Generated: 2024-01-02T03:04:05Z\n")
	assert.Contains(t, doc, "| converted | 1 |\n")
	assert.Contains(t, doc, "- `_pages/index.md` (converted): page converted from docs/index.md\n")
	assert.Contains(t, doc, "## Warnings")
	assert.Contains(t, doc, "- docs/bad.md: boom\n")

	c := changeFor(t, st.Result, DocumentationFile)
	assert.Equal(t, models.ChangeCreated, c.Type)
}

func TestDocumentation_WritesGitignore(t *testing.T) {
	st := newTestState(t, nil, models.Options{})
	require.NoError(t, Documentation(context.Background(), st))
	assert.Contains(t, readDest(t, st, ".gitignore"), "_site/\n.jekyll-cache/\n")
}

func TestAuditAssets(t *testing.T) {
	st := newTestState(t, nil, models.Options{})
	writeTree(t, st.Options.DestDir, map[string]string{
		"_layouts/default.html": `<link rel="stylesheet" href="/css/site.css"><script src="/js/app.js"></script><img src="{{ '/x.png' | relative_url }}"><img src="/missing.png">`,
		"assets/css/site.css":   "body{}",
		"js/app.js":             "x()",
		"_includes/plain.txt":   "<img src=\"/nope.png\">",
	})

	require.NoError(t, AuditAssets(context.Background(), st))
	require.Len(t, st.Result.Warnings, 2)
	assert.Contains(t, st.Result.Warnings[0], `moved to /assets/css/site.css`)
	assert.Contains(t, st.Result.Warnings[1], `/missing.png`)
}

func TestAuditAssets_MarkdownImages(t *testing.T) {
	st := newTestState(t, nil, models.Options{})
	writeTree(t, st.Options.DestDir, map[string]string{
		"_pages/index.md":        "---\ntitle: Home\n---\n![logo](/img/logo.png) ![chart](/assets/chart.svg) ![gone](/gone.png) ![remote](https://example.com/x.png) [doc](/missing.html)\n",
		"_posts/2020-01-01-a.md": "![again](/img/logo.png)\n",
		"assets/img/logo.png":    "png",
		"assets/chart.svg":       "<svg/>",
	})

	require.NoError(t, AuditAssets(context.Background(), st))
	assert.Equal(t, []string{
		`_pages/index.md: image "/img/logo.png" moved to /assets/img/logo.png`,
		`_pages/index.md: image "/gone.png" does not resolve to a migrated file`,
		`_posts/2020-01-01-a.md: image "/img/logo.png" moved to /assets/img/logo.png`,
	}, st.Result.Warnings)
}
