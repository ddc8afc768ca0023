package engines

import (
	"context"
	"path"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
)

const bridgetownConfig = "bridgetown.config.yml"

func newBridgetown(env env) *engine {
	return &engine{
		name:        "Bridgetown",
		description: "Bridgetown sites (src/ tree, Liquid or ERB templates, components)",
		detect:      detectBridgetown,
		stages:      bridgetownStages,
		env:         env,
	}
}

func detectBridgetown(dir string) bool {
	return fileAt(dir, bridgetownConfig) || gemfileHas(dir, "bridgetown")
}

func bridgetownStages(_ models.Options, _ env) ([]models.StageDef, error) {
	partials := stages.TemplateTransform(partialSpec(dialect.Liquid))
	return stages.Pipeline{
		Config: stages.JekyllConfig(bridgetownSite),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir: "src",
			Exclude:      []string{"_layouts", "_partials", "_components", "_data", "images"},
			Dialect:      dialect.Liquid,
			SkipPartials: true,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "src/_layouts",
			DestSubdir:   "_layouts",
			Transform:    stages.TemplateTransform(layoutSpec(dialect.Liquid)),
		}),
		Includes: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "src/_partials",
				DestSubdir:   "_includes",
				Transform:    partials,
				Readme:       includesReadme("src/_partials"),
			}),
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "src/_components",
				DestSubdir:   "_includes/components",
				Transform:    componentTransform(partials),
			}),
		),
		Data: stages.CopyTree(stages.TreeSpec{SourceSubdir: "src/_data", DestSubdir: "_data", Transform: stages.DataTransform}),
		Static: stages.Sequence(
			stages.AssetDirs("src", "images"),
			stages.StylesheetTrees("frontend/styles", "assets/css"),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "frontend/javascript", DestSubdir: "assets/js"}),
		),
	}.Build(), nil
}

// componentTransform keeps component templates and skips their Ruby classes,
// which Jekyll cannot run.
func componentTransform(templates stages.Transform) stages.Transform {
	return func(rel string, data []byte) (stages.Output, error) {
		if path.Ext(rel) == ".rb" {
			return stages.Output{
				Rel:         rel,
				Skip:        true,
				Description: "Ruby component class not migrated",
				Warnings:    []string{"component logic must be reimplemented as include parameters"},
			}, nil
		}
		return templates(rel, data)
	}
}

func bridgetownSite(_ context.Context, st *models.State) (map[string]any, error) {
	site := map[string]any{}
	cfg, ok, err := readYAML(st.Options.SourceDir, bridgetownConfig)
	if err != nil {
		return nil, err
	}
	if ok {
		for _, key := range []string{"url", "permalink", "timezone", "pagination"} {
			if v, ok := cfg[key]; ok {
				site[key] = v
			}
		}
		pickAny(site, "baseurl", cfg, "base_path")
		if engine, ok := cfg["template_engine"].(string); ok && engine != "liquid" {
			st.Warnf("%s: template engine %q templates are converted mechanically; review the output", bridgetownConfig, engine)
		}
	}
	meta, ok, err := readYAML(st.Options.SourceDir, "src/_data/site_metadata.yml")
	if err != nil {
		return nil, err
	}
	if ok {
		pickAny(site, "title", meta, "title")
		pickAny(site, "description", meta, "description", "tagline")
		pickAny(site, "email", meta, "email")
		pickAny(site, "author", meta, "author")
	}
	return site, nil
}
