package engines

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
)

const jigsawConfig = "config.php"

var jigsawSetting = regexp.MustCompile(`['"](\w+)['"]\s*=>\s*(?:'([^']*)'|"([^"]*)"|(true|false|\d+))`)

func newJigsaw(env env) *engine {
	return &engine{
		name:        "Jigsaw",
		description: "Tighten Jigsaw sites (PHP config, Blade templates)",
		detect:      detectJigsaw,
		stages:      jigsawStages,
		env:         env,
	}
}

func detectJigsaw(dir string) bool {
	return fileAt(dir, jigsawConfig) &&
		(dirAt(dir, "source/_layouts") || fileContains(dir, "composer.json", "tightenco/jigsaw"))
}

func jigsawStages(_ models.Options, _ env) ([]models.StageDef, error) {
	opts := dialect.Options{IncludePrefixes: []string{"_partials/", "_components/"}}
	return stages.Pipeline{
		Config: stages.JekyllConfig(jigsawSite),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir:   "source",
			Exclude:        []string{"_layouts", "_partials", "_components", "_assets", "assets"},
			Dialect:        dialect.Blade,
			DialectOptions: opts,
			Fields:         jigsawFields,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "source/_layouts",
			DestSubdir:   "_layouts",
			Transform:    stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Blade, Options: opts}),
		}),
		Includes: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "source/_partials",
				DestSubdir:   "_includes",
				Transform:    stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Blade, Options: opts, StripUnderscore: true}),
				Readme:       includesReadme("source/_partials"),
			}),
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "source/_components",
				DestSubdir:   "_includes",
				Transform:    stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Blade, Options: opts, StripUnderscore: true}),
			}),
		),
		Static: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "source/assets", DestSubdir: "assets"}),
			stages.StylesheetTrees("source/_assets/sass", "assets/css"),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "source/_assets/js", DestSubdir: "assets/js"}),
		),
	}.Build(), nil
}

func jigsawSite(_ context.Context, st *models.State) (map[string]any, error) {
	src, err := readSource(st.Options.SourceDir, jigsawConfig)
	if err != nil {
		return nil, err
	}
	values := quotedAssignments(jigsawSetting, src)
	site := map[string]any{}
	pick(site, "title", values, "siteName", "title")
	pick(site, "description", values, "siteDescription", "description")
	pick(site, "url", values, "baseUrl")
	pick(site, "author", values, "siteAuthor", "author")
	if bytes.Contains(src, []byte("'collections'")) || bytes.Contains(src, []byte(`"collections"`)) {
		st.Warnf("%s: collection settings are not migrated; dated documents become Jekyll posts", jigsawConfig)
	}
	if bytes.Contains(src, []byte("function (")) || bytes.Contains(src, []byte("fn (")) || bytes.Contains(src, []byte("fn(")) {
		st.Warnf("%s: computed helpers (PHP closures) are not migrated", jigsawConfig)
	}
	return site, nil
}

// jigsawFields maps Markdown front matter `extends: _layouts.post` onto a
// Jekyll layout name.
func jigsawFields(_ string, fields map[string]any) {
	ext, ok := fields["extends"].(string)
	if !ok {
		return
	}
	delete(fields, "extends")
	if _, exists := fields["layout"]; !exists {
		name := strings.TrimPrefix(strings.ReplaceAll(ext, ".", "/"), "_layouts/")
		fields["layout"] = name
	}
	if section, ok := fields["section"].(string); ok && section == "content" {
		delete(fields, "section")
	}
}
