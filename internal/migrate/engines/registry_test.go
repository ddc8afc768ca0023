package engines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var detectionFixtures = map[string]map[string]string{
	"Slate": {
		"source/index.html.md":       "---\ntitle: API\n---\n# Intro\n",
		"source/includes/_errors.md": "# Errors\n",
	},
	"Middleman": {
		"config.rb":             "set :site_title, 'Mid'\n",
		"Gemfile":               "source 'https://rubygems.org'\ngem \"middleman\", \"~> 4.4\"\n",
		"source/index.html.erb": "<h1><%= current_page.data.title %></h1>\n",
	},
	"Octopress": {
		"Rakefile":                             "# octopress rake tasks\n",
		"_config.yml":                          "title: Octo\n",
		"source/_posts/2020-01-01-hi.markdown": "---\ntitle: Hi\n---\nHello\n",
	},
	"Bridgetown": {
		"bridgetown.config.yml": "url: https://bridgetown.example\n",
		"src/index.md":          "---\ntitle: Home\n---\nHi\n",
	},
	"Jigsaw": {
		"config.php":                     "<?php\nreturn ['siteName' => 'Jig'];\n",
		"source/_layouts/main.blade.php": "<body>@yield('content')</body>\n",
	},
	"Nanoc": {
		"nanoc.yaml":         "base_url: https://nanoc.example\n",
		"content/index.html": "<h1>Home</h1>\n",
	},
	"Nikola": {
		"conf.py":    "BLOG_TITLE = \"Nik\"\n",
		"posts/a.md": "<!--\n.. title: A\n.. date: 2020-01-02\n-->\nBody\n",
	},
	"MkDocs": {
		"mkdocs.yml":    "site_name: Docs\n",
		"docs/index.md": "# Docs\n",
	},
	"Metalsmith": {
		"metalsmith.json": `{"source": "src"}`,
		"src/index.md":    "---\ntitle: Home\n---\nHi\n",
	},
	"Eleventy": {
		".eleventy.js": "module.exports = function (eleventyConfig) {};\n",
		"index.md":     "# Home\n",
	},
	"Gatsby": {
		"package.json": `{"name": "blog", "dependencies": {"gatsby": "^5.0.0", "react": "^18.2.0"}}`,
	},
	"Zola": {
		"config.toml":          "base_url = \"https://zola.example\"\ntitle = \"Zola\"\n",
		"content/_index.md":    "+++\ntitle = \"Home\"\n+++\n",
		"templates/index.html": "<body>{{ section.title }}</body>\n",
	},
}

func TestRegistry_EachFixtureSelectsExactlyItsEngine(t *testing.T) {
	reg := testRegistry()
	for name, files := range detectionFixtures {
		t.Run(name, func(t *testing.T) {
			dir := fixture(t, files)
			eng, ok := reg.Select(dir)
			require.True(t, ok)
			assert.Equal(t, name, eng.Name())

			matches := reg.Matches(dir)
			require.Len(t, matches, 1, "fixture must not match other engines")
			assert.Equal(t, name, matches[0].Name())
		})
	}
}

func TestDetectEleventy_EveryConfigName(t *testing.T) {
	reg := testRegistry()
	for _, name := range eleventyConfigs {
		t.Run(name, func(t *testing.T) {
			dir := fixture(t, map[string]string{name: "export default function (eleventyConfig) {}\n", "index.md": "# Home\n"})
			assert.True(t, detectEleventy(dir))
			eng, ok := reg.Select(dir)
			require.True(t, ok)
			assert.Equal(t, "Eleventy", eng.Name())
		})
	}
	assert.Contains(t, eleventyConfigs, "eleventy.config.mjs")
	assert.Contains(t, eleventyConfigs, "eleventy.config.cjs")
}

func TestRegistry_Order(t *testing.T) {
	var names []string
	for _, e := range testRegistry().Engines() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"Slate", "Middleman", "Octopress", "Bridgetown", "Jigsaw", "Nanoc",
		"Nikola", "MkDocs", "Metalsmith", "Eleventy", "Gatsby", "Zola",
	}, names)
}

func TestRegistry_NoMatch(t *testing.T) {
	reg := testRegistry()
	dir := fixture(t, map[string]string{"README.md": "# nothing here\n"})
	eng, ok := reg.Select(dir)
	assert.False(t, ok)
	assert.Nil(t, eng)
	assert.Empty(t, reg.Matches(dir))
}

func TestRegistry_OrderBreaksTies(t *testing.T) {
	// A real Slate checkout is also a Middleman project.
	files := map[string]string{
		"config.rb":             "set :css_dir, 'stylesheets'\n",
		"Gemfile":               "gem 'middleman', '~> 4.4'\n",
		"source/index.html.md":  "---\ntitle: API\n---\n",
		"source/includes/_a.md": "A\n",
	}
	reg := testRegistry()
	dir := fixture(t, files)
	eng, ok := reg.Select(dir)
	require.True(t, ok)
	assert.Equal(t, "Slate", eng.Name())

	var names []string
	for _, e := range reg.Matches(dir) {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"Slate", "Middleman"}, names)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := testRegistry()
	eng, ok := reg.Lookup("mkdocs")
	require.True(t, ok)
	assert.Equal(t, "MkDocs", eng.Name())
	assert.NotEmpty(t, eng.Description())

	_, ok = reg.Lookup("hugo")
	assert.False(t, ok)
}

func TestDetect_PackageJSONDependencies(t *testing.T) {
	dir := fixture(t, map[string]string{
		"package.json": `{"devDependencies": {"@11ty/eleventy": "^2.0.0"}}`,
	})
	assert.True(t, detectEleventy(dir))
	assert.False(t, detectGatsby(dir))
	assert.False(t, detectMetalsmith(dir))
}

func TestDetect_GemfileIgnoresComments(t *testing.T) {
	dir := fixture(t, map[string]string{
		"config.rb": "",
		"Gemfile":   "# we used to translate with middleman\ngem 'rails'\n",
	})
	assert.False(t, detectMiddleman(dir))
	assert.False(t, detectSlate(dir))
}
