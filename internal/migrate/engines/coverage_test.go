package engines

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

const notMigrated = "not migrated; no stage handles this file"

// coverageSites exercise every directory an engine knows about, plus files no
// stage owns. inputs are read by the run but never migrated.
var coverageSites = []struct {
	engine string
	files  map[string]string
	inputs []string
	// unowned must each get a "not migrated" warning.
	unowned []string
}{
	{
		engine: "MkDocs",
		files: map[string]string{
			"mkdocs.yml":                     "site_name: Docs\ntheme:\n  name: mkdocs\n  custom_dir: overrides\n",
			"docs/index.md":                  "# Docs\n",
			"docs/img/logo.png":              "png",
			"docs/notes.rst":                 "Notes\n=====\n",
			"overrides/main.html":            "<body>{{ page.content }}</body>\n",
			"overrides/partials/footer.html": "<footer></footer>\n",
			"overrides/assets/site.css":      "body {}\n",
		},
		inputs: []string{"mkdocs.yml"},
	},
	{
		engine: "Octopress",
		files: map[string]string{
			"Rakefile":                                "task :generate\n",
			"_config.yml":                             "title: Octo\n",
			"source/_posts/2013-05-06-hello.markdown": "---\ntitle: Hello\n---\nHi\n",
			"source/index.html":                       "---\nlayout: default\n---\n<h1>Blog</h1>\n",
			"source/_layouts/default.html":            "<body>{{ content }}</body>\n",
			"source/_includes/head.html":              "<head></head>\n",
			"source/_data/menu.yml":                   "- home\n",
			"source/images/a.png":                     "png",
			"source/javascripts/app.js":               "x()\n",
			"source/stylesheets/screen.css":           "body {}\n",
			"sass/screen.scss":                        "@import 'base';\n",
			"sass/_base.scss":                         "body { margin: 0; }\n",
		},
		inputs: []string{"Rakefile", "_config.yml"},
	},
	{
		engine: "Bridgetown",
		files: map[string]string{
			"bridgetown.config.yml":        "url: https://bt.example\n",
			"src/_data/site_metadata.yml":  "title: BT\n",
			"src/index.md":                 "---\nlayout: default\n---\nHi\n",
			"src/_notes.md":                "draft\n",
			"src/_layouts/default.liquid":  "<body>{{ content }}</body>\n",
			"src/_partials/_footer.liquid": "<footer></footer>\n",
			"src/_components/card.liquid":  "<div></div>\n",
			"src/_components/card.rb":      "class Card < Bridgetown::Component; end\n",
			"src/images/logo.png":          "png",
			"frontend/javascript/index.js": "console.log(1)\n",
			"frontend/styles/site.css":     "body {}\n",
		},
		inputs:  []string{"bridgetown.config.yml"},
		unowned: []string{"src/_notes.md"},
	},
	{
		engine: "Jigsaw",
		files: map[string]string{
			"config.php":                     "<?php\nreturn ['siteName' => 'Jig'];\n",
			"source/_layouts/main.blade.php": "<body>@yield('content')</body>\n",
			"source/_partials/nav.blade.php": "<nav></nav>\n",
			"source/index.md":                "---\nextends: _layouts.main\n---\n# Home\n",
			"source/assets/img/a.png":        "png",
			"source/_assets/sass/main.scss":  "body {}\n",
			"source/_assets/js/main.js":      "x()\n",
			"source/_assets/img/b.png":       "png",
		},
		inputs:  []string{"config.php"},
		unowned: []string{"source/_assets/img/b.png"},
	},
	{
		engine: "Nanoc",
		files: map[string]string{
			"nanoc.yaml":               "title: Nan\n",
			"Rules":                    "compile '/**/*' do\nend\n",
			"content/index.html":       "<h1>Home</h1>\n",
			"content/_notes.md":        "draft\n",
			"layouts/default.html":     "<body><%= yield %></body>\n",
			"layouts/partials/nav.erb": "<nav></nav>\n",
			"layouts/_footer.erb":      "<footer></footer>\n",
			"static/favicon.ico":       "ico",
		},
		inputs:  []string{"nanoc.yaml", "Rules"},
		unowned: []string{"content/_notes.md"},
	},
	{
		engine: "Middleman",
		files: map[string]string{
			"config.rb":                        "set :site_title, 'Mid'\n",
			"Gemfile":                          "gem 'middleman', '~> 4.4'\n",
			"source/index.html.erb":            "<h1>Hi</h1>\n",
			"source/shared/_nav.erb":           "<nav></nav>\n",
			"source/layouts/layout.erb":        "<body><%= yield %></body>\n",
			"source/stylesheets/site.css.scss": "body { color: red; }\n",
			"source/stylesheets/_vars.scss":    "$a: 1;\n",
			"source/images/a.png":              "png",
			"source/javascripts/app.js":        "x()\n",
			"data/team.yml":                    "- name: Ada\n",
		},
		inputs: []string{"config.rb", "Gemfile"},
	},
	{
		engine: "Slate",
		files: map[string]string{
			"source/index.html.md":               "---\ntitle: API\n---\n# Intro\n",
			"source/includes/_errors.md":         "# Errors\n",
			"source/layouts/layout.erb":          "<body><%= yield %></body>\n",
			"source/stylesheets/_variables.scss": "$nav: #fff;\n",
			"source/stylesheets/screen.css.scss": "@import 'variables';\n",
			"source/images/logo.png":             "png",
			"source/javascripts/app.js":          "x()\n",
		},
	},
	{
		engine: "Zola",
		files: map[string]string{
			"config.toml":                    "base_url = \"https://zola.example\"\ntitle = \"Zola\"\n",
			"content/_index.md":              "+++\ntitle = \"Home\"\n+++\n",
			"content/blog/first.md":          "+++\ntitle = \"First\"\ndate = 2023-04-05\n+++\nBody\n",
			"content/blog/pic.jpg":           "jpg",
			"templates/base.html":            "<html>{% block content %}{% endblock content %}</html>\n",
			"templates/partials/nav.html":    "<nav></nav>\n",
			"templates/shortcodes/note.html": "<aside>{{ body }}</aside>\n",
			"templates/macros/util.html":     "{% macro x() %}{% endmacro x %}\n",
			"static/robots.txt":              "User-agent: *\n",
			"sass/site.scss":                 "body {}\n",
			"sass/_v.scss":                   "$a: 1;\n",
			"data/links.toml":                "[home]\nurl = \"/\"\n",
		},
		inputs: []string{"config.toml"},
	},
	{
		engine: "Eleventy",
		files: map[string]string{
			".eleventy.js":                   "module.exports = function (eleventyConfig) {\n  eleventyConfig.addPassthroughCopy(\"src/css\");\n  return { dir: { input: \"src\" } };\n};\n",
			"src/index.md":                   "---\nlayout: layouts/base.njk\n---\nHello\n",
			"src/_includes/layouts/base.njk": "<body>{{ content | safe }}</body>\n",
			"src/_includes/nav.njk":          "<nav></nav>\n",
			"src/_data/metadata.json":        `{"title": "Blog"}`,
			"src/css/site.css":               "body {}\n",
			"src/img/a.png":                  "png",
		},
		inputs:  []string{".eleventy.js"},
		unowned: []string{"src/img/a.png"},
	},
	{
		engine: "Eleventy",
		files: map[string]string{
			"eleventy.config.mjs": "export default function (eleventyConfig) {}\n",
			"package.json":        `{"devDependencies": {"@11ty/eleventy": "^3.0.0"}}`,
			"index.md":            "# Home\n",
			"notes.txt":           "scratch\n",
		},
		inputs:  []string{"eleventy.config.mjs", "package.json"},
		unowned: []string{"notes.txt"},
	},
	{
		engine: "Nikola",
		files: map[string]string{
			"conf.py":                      "BLOG_TITLE = \"Nik\"\n",
			"plugins/myplugin/myplugin.py": "",
			"posts/first.md":               "Body\n",
			"posts/first.meta":             ".. title: First\n.. date: 2019-02-03 10:00:00 UTC\n",
			"pages/about.rst":              "About\n=====\n",
			"files/robots.txt":             "User-agent: *\n",
			"images/a.png":                 "png",
			"templates/base.tmpl":          "<body></body>\n",
			"data/x.json":                  "{}",
		},
		inputs: []string{"conf.py", "plugins/myplugin/myplugin.py"},
	},
	{
		engine: "Metalsmith",
		files: map[string]string{
			"metalsmith.json":        `{"source": "./src", "metadata": {"sitename": "Smith"}}`,
			"src/index.md":           "---\ntitle: Home\n---\nHi\n",
			"src/img/a.png":          "png",
			"layouts/page.hbs":       "<body>{{{ contents }}}</body>\n",
			"layouts/partials/p.hbs": "<p></p>\n",
			"partials/header.hbs":    "<header></header>\n",
		},
		inputs: []string{"metalsmith.json"},
	},
}

func sourceFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	require.NoError(t, filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		out = append(out, filepath.ToSlash(rel))
		return err
	}))
	return out
}

func TestMigrate_EverySourceFileIsAccountedFor(t *testing.T) {
	for _, site := range coverageSites {
		t.Run(site.engine, func(t *testing.T) {
			src := fixture(t, site.files)
			eng, ok := testRegistry().Select(src)
			require.True(t, ok)
			require.Equal(t, site.engine, eng.Name())
			res, err := eng.Migrate(context.Background(), models.Options{SourceDir: src, DestDir: filepath.Join(t.TempDir(), "site")})
			require.NoError(t, err)

			migrated := map[string]bool{}
			for _, c := range res.Changes {
				migrated[c.Source] = true
			}
			warned := func(rel string) bool {
				for _, w := range res.Warnings {
					if strings.HasPrefix(w, rel+": ") {
						return true
					}
				}
				return false
			}
			inputs := map[string]bool{}
			for _, in := range site.inputs {
				inputs[in] = true
			}
			for _, rel := range sourceFiles(t, src) {
				if inputs[rel] {
					continue
				}
				assert.Truef(t, migrated[rel] || warned(rel), "%s is neither migrated nor reported", rel)
			}
			for _, rel := range site.unowned {
				assert.Contains(t, res.Warnings, rel+": "+notMigrated)
			}
		})
	}
}

func TestOctopress_CompassOutputIsSkipped(t *testing.T) {
	res, dest := migrateFixture(t, "Octopress", map[string]string{
		"Rakefile":                      "task :generate\n",
		"_config.yml":                   "title: Octo\n",
		"source/_posts/2020-01-01-a.md": "Hi\n",
		"sass/screen.scss":              "body {}\n",
		"source/stylesheets/screen.css": "body{}\n",
		"source/stylesheets/print.css":  "body{}\n",
	})
	var skipped []string
	for _, c := range res.Changes {
		if c.Type == models.ChangeSkipped {
			skipped = append(skipped, c.Source)
		}
	}
	assert.ElementsMatch(t, []string{"source/stylesheets/print.css", "source/stylesheets/screen.css"}, skipped)
	assert.NoFileExists(t, filepath.Join(dest, "assets", "stylesheets", "print.css"))
	assert.Equal(t, "---\n---\nbody {}\n", readOut(t, dest, "assets/stylesheets/screen.scss"))
}

func TestMiddleman_SymlinkWarnedOnce(t *testing.T) {
	src := fixture(t, map[string]string{
		"config.rb":                   "set :site_title, 'Mid'\n",
		"Gemfile":                     "gem 'middleman'\n",
		"source/index.html.erb":       "<h1>Hi</h1>\n",
		"source/layouts/layout.erb":   "<body><%= yield %></body>\n",
		"source/stylesheets/site.css": "body {}\n",
		"source/shared/_nav.erb":      "<nav></nav>\n",
	})
	links := map[string]string{
		"source/layouts/alt.erb":     "source/layouts/layout.erb",
		"source/stylesheets/alt.css": "source/stylesheets/site.css",
		"source/shared/_alt.erb":     "source/shared/_nav.erb",
		"source/alt.html.erb":        "source/index.html.erb",
	}
	for link, target := range links {
		require.NoError(t, os.Symlink(filepath.Join(src, filepath.FromSlash(target)), filepath.Join(src, filepath.FromSlash(link))))
	}
	eng, ok := testRegistry().Lookup("Middleman")
	require.True(t, ok)
	res, err := eng.Migrate(context.Background(), models.Options{SourceDir: src, DestDir: filepath.Join(t.TempDir(), "site")})
	require.NoError(t, err)

	for link := range links {
		assert.Len(t, warningsContaining(res, link+": symbolic link skipped"), 1, link)
	}
	assert.Empty(t, warningsContaining(res, notMigrated))
}

func TestMigrate_MalformedConfigIsParseError(t *testing.T) {
	cases := map[string]map[string]string{
		"MkDocs": {
			"mkdocs.yml":    "site_name: [unclosed\n",
			"docs/index.md": "# Docs\n",
		},
		"Zola": {
			"config.toml":          "base_url = \"https://zola.example\"\ntitle = \n",
			"content/_index.md":    "+++\ntitle = \"Home\"\n+++\n",
			"templates/index.html": "<body></body>\n",
		},
		"Nanoc": {
			"nanoc.yaml":         "title: [unclosed\n",
			"content/index.html": "<h1>Home</h1>\n",
		},
		"Eleventy": {
			".eleventy.js":        "module.exports = function () {};\n",
			"_data/metadata.json": "{\"title\": ",
			"index.md":            "# Home\n",
		},
		"Metalsmith": {
			"metalsmith.json": "{\"source\": ",
			"src/index.md":    "# Home\n",
		},
		"Slate": {
			"source/index.html.md":       "---\ntitle: [unclosed\n---\n# Intro\n",
			"source/includes/_errors.md": "# Errors\n",
		},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			eng, ok := testRegistry().Lookup(name)
			require.True(t, ok)
			res, err := eng.Migrate(context.Background(), models.Options{SourceDir: fixture(t, files), DestDir: filepath.Join(t.TempDir(), "site")})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.HasCategory(err, errors.CategoryParse), "got %v", err)
			assert.False(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}
}
