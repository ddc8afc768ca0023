package engines

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
)

func newNanoc(env env) *engine {
	return &engine{
		name:        "Nanoc",
		description: "Nanoc sites (Rules file, ERB layouts)",
		detect:      detectNanoc,
		stages:      nanocStages,
		env:         env,
	}
}

func detectNanoc(dir string) bool {
	return fileAt(dir, "nanoc.yaml") || (fileAt(dir, "Rules") && dirAt(dir, "content"))
}

// nanocPartial reports whether a file under layouts/ is rendered as a partial.
func nanocPartial(rel string) bool {
	return strings.HasPrefix(rel, "partials/") || isPartial(rel)
}

func nanocStages(_ models.Options, _ env) ([]models.StageDef, error) {
	return stages.Pipeline{
		Config: stages.JekyllConfig(nanocSite),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir:   "content",
			Dialect:        dialect.ERB,
			DialectOptions: dialect.Options{IncludePrefixes: []string{"partials/"}},
			SkipPartials:   true,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "layouts",
			DestSubdir:   "_layouts",
			Filter:       func(rel string) bool { return !nanocPartial(rel) },
			Transform:    stages.TemplateTransform(layoutSpec(dialect.ERB, "partials/")),
		}),
		Includes: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "layouts/partials",
				DestSubdir:   "_includes",
				Transform:    stages.TemplateTransform(partialSpec(dialect.ERB, "partials/")),
				Readme:       includesReadme("layouts/partials"),
			}),
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "layouts",
				DestSubdir:   "_includes",
				Exclude:      []string{"partials"},
				Filter:       isPartial,
				Transform:    stages.TemplateTransform(partialSpec(dialect.ERB, "partials/")),
			}),
		),
		Static: stages.CopyTree(stages.TreeSpec{SourceSubdir: "static", DestSubdir: "assets"}),
	}.Build(), nil
}

func nanocSite(_ context.Context, st *models.State) (map[string]any, error) {
	site := map[string]any{}
	cfg, ok, err := readYAML(st.Options.SourceDir, "nanoc.yaml")
	if err != nil {
		return nil, err
	}
	if ok {
		pickAny(site, "title", cfg, "title", "site_name")
		pickAny(site, "description", cfg, "description")
		pickAny(site, "author", cfg, "author", "author_name")
		pickAny(site, "url", cfg, "base_url")
		if _, ok := cfg["data_sources"]; ok {
			st.Warnf("nanoc.yaml: data sources other than the filesystem are not migrated")
		}
	}
	if dirAt(st.Options.SourceDir, "lib") {
		st.Warnf("lib/: Ruby helpers are not migrated; calls to them remain in templates")
	}
	if fileAt(st.Options.SourceDir, "Rules") {
		st.Warnf("Rules: routing and filter rules are not migrated; review page permalinks")
	}
	return site, nil
}
