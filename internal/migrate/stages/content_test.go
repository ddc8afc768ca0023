package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

func TestConvertContent_RoutesEveryFile(t *testing.T) {
	st := newTestState(t, map[string]string{
		"docs/index.md":                  "# Home\n\nSee [setup](guide/setup.md#install).\n",
		"docs/guide/setup.md":            "+++\ntitle = \"Setup\"\ndraft = true\n+++\nBody\n",
		"docs/2021-03-04-hello-world.md": "---\ntags: a, b\n---\nHi\n",
		"docs/img/logo.png":              "png",
		"docs/notes.rst":                 "Notes\n=====\n",
	}, models.Options{})
	st.SetStage(models.StageContent)

	require.NoError(t, ConvertContent(ContentSpec{SourceSubdir: "docs"})(context.Background(), st))

	assert.Equal(t, map[string]models.ChangeType{
		"_pages/index.md":                  models.ChangeConverted,
		"_pages/guide/setup.md":            models.ChangeConverted,
		"_posts/2021-03-04-hello-world.md": models.ChangeConverted,
		"assets/img/logo.png":              models.ChangeCopied,
		"_pages/notes.rst":                 models.ChangeCopied,
	}, changePaths(st.Result))
	require.Len(t, st.Result.Warnings, 1)
	assert.Contains(t, st.Result.Warnings[0], "docs/notes.rst: rst markup")

	assert.Equal(t, "---\npermalink: /\ntitle: Index\n---\n# Home\n\nSee [setup]({% link _pages/guide/setup.md %}#install).\n", readDest(t, st, "_pages/index.md"))
	assert.Equal(t, "---\npublished: false\ntitle: Setup\n---\nBody\n", readDest(t, st, "_pages/guide/setup.md"))

	post := readDest(t, st, "_posts/2021-03-04-hello-world.md")
	assert.Contains(t, post, "date: 2021-03-04\n")
	assert.Contains(t, post, "title: Hello World\n")
	assert.Contains(t, post, "- a\n")

	c := changeFor(t, st.Result, "_pages/guide/setup.md")
	assert.NotEmpty(t, c.Fingerprint)
	assert.Contains(t, c.Description, "TOML front matter")
}

func TestConvertContent_NikolaMetadata(t *testing.T) {
	st := newTestState(t, map[string]string{
		"posts/first.md":    "Hello\n",
		"posts/first.meta":  ".. title: First Post\n.. slug: first-post\n.. date: 2020-05-06 10:00:00 UTC\n.. tags: x, y\n",
		"posts/second.md":   "<!--\n.. title: Second\n.. date: 2020-06-07\n-->\nBody\n",
		"posts/orphan.meta": ".. title: Nobody\n",
	}, models.Options{})

	require.NoError(t, ConvertContent(ContentSpec{SourceSubdir: "posts", MetaSidecars: true})(context.Background(), st))

	assert.Equal(t, map[string]models.ChangeType{
		"_posts/2020-05-06-first-post.md": models.ChangeConverted,
		"_pages/first.meta":               models.ChangeSkipped,
		"_posts/2020-06-07-second.md":     models.ChangeConverted,
		"assets/orphan.meta":              models.ChangeCopied,
	}, changePaths(st.Result))

	second := readDest(t, st, "_posts/2020-06-07-second.md")
	assert.Contains(t, second, "title: Second\n")
	assert.Contains(t, second, "\n---\nBody\n")
	assert.NotContains(t, second, "<!--")
}

func TestConvertContent_TemplateDocuments(t *testing.T) {
	st := newTestState(t, map[string]string{
		"source/about.html.erb":                  "<h1><%= current_page.data.title %></h1>\n",
		"source/index.html.md":                   "---\ntitle: Home\n---\nWelcome\n",
		"source/blog/2019-01-02-x.html.markdown": "{% codeblock lang:go %}\nx\n{% endcodeblock %}\n",
	}, models.Options{})

	spec := ContentSpec{SourceSubdir: "source", Dialect: dialect.Liquid}
	require.NoError(t, ConvertContent(spec)(context.Background(), st))

	assert.Equal(t, map[string]models.ChangeType{
		"_pages/about.html":            models.ChangeConverted,
		"_pages/index.md":              models.ChangeConverted,
		"_posts/2019-01-02-x.markdown": models.ChangeConverted,
	}, changePaths(st.Result))
	assert.Contains(t, readDest(t, st, "_pages/about.html"), "<h1>{{ page.title }}</h1>")
	assert.Contains(t, readDest(t, st, "_posts/2019-01-02-x.markdown"), "{% highlight go %}")
}

func TestConvertContent_ZolaConventions(t *testing.T) {
	st := newTestState(t, map[string]string{
		"content/_index.md":      "+++\ntitle = \"Blog\"\ntemplate = \"section.html\"\n+++\n",
		"content/posts/hello.md": "+++\ntitle = \"Hello\"\ndate = 2022-01-02\n[taxonomies]\ntags = [\"go\"]\n+++\nSee [home](@/_index.md).\n",
	}, models.Options{})

	require.NoError(t, ConvertContent(ContentSpec{SourceSubdir: "content"})(context.Background(), st))

	assert.Equal(t, map[string]models.ChangeType{
		"_pages/index.md":            models.ChangeConverted,
		"_posts/2022-01-02-hello.md": models.ChangeConverted,
	}, changePaths(st.Result))
	assert.Contains(t, readDest(t, st, "_pages/index.md"), "layout: section\n")
	post := readDest(t, st, "_posts/2022-01-02-hello.md")
	assert.Contains(t, post, "tags:\n")
	assert.Contains(t, post, "See [home]({% link _pages/index.md %}).")
	assert.NotContains(t, post, "taxonomies")
}

func TestConvertContent_NonASCIIPostSlugs(t *testing.T) {
	st := newTestState(t, map[string]string{
		"docs/2020-01-01-日本.md":     "Nihon\n",
		"docs/2020-01-01-中文.md":     "Zhongwen\n",
		"docs/2020-01-02-Café Ü.md": "Cafe\n",
	}, models.Options{})

	require.NoError(t, ConvertContent(ContentSpec{SourceSubdir: "docs"})(context.Background(), st))
	assert.Equal(t, map[string]models.ChangeType{
		"_posts/2020-01-01-日本.md":     models.ChangeConverted,
		"_posts/2020-01-01-中文.md":     models.ChangeConverted,
		"_posts/2020-01-02-café-ü.md": models.ChangeConverted,
	}, changePaths(st.Result))
	assert.Empty(t, st.Result.Warnings)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", slugify("Hello, World!"))
	assert.Equal(t, "日本語-guide", slugify("日本語 guide"))
	assert.Equal(t, "!!!", slugify("!!!"))
}

func TestConvertContent_DeferredFilesAreReported(t *testing.T) {
	st := newTestState(t, map[string]string{
		"content/index.md":     "# Home\n",
		"content/_notes.md":    "draft\n",
		"content/layouts/a.md": "x\n",
		"content/img/a.png":    "png",
	}, models.Options{})

	spec := ContentSpec{SourceSubdir: "content", Exclude: []string{"layouts"}, SkipPartials: true, DocumentsOnly: true}
	require.NoError(t, ConvertContent(spec)(context.Background(), st))
	assert.Equal(t, map[string]models.ChangeType{"_pages/index.md": models.ChangeConverted}, changePaths(st.Result))
	assert.Equal(t, []string{"content/_notes.md", "content/img/a.png", "content/layouts/a.md"}, st.Unmigrated())

	require.NoError(t, ReportUnmigrated(context.Background(), st))
	assert.Equal(t, []string{
		"content/_notes.md: not migrated; no stage handles this file",
		"content/img/a.png: not migrated; no stage handles this file",
		"content/layouts/a.md: not migrated; no stage handles this file",
	}, st.Result.Warnings)
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "Getting Started", TitleFromSlug("getting-started"))
	assert.Equal(t, "Api Reference", TitleFromSlug("api_reference"))
	assert.Equal(t, "Index", TitleFromSlug("_index"))
}
