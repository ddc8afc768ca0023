package engines

import (
	"context"
	"path"
	"regexp"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

const middlemanConfig = "config.rb"

var (
	middlemanSet      = regexp.MustCompile(`(?m)^\s*(?:set\s+:(\w+)\s*,|config\[:(\w+)\]\s*=)\s*(?:'([^']*)'|"([^"]*)")`)
	middlemanActivate = regexp.MustCompile(`(?m)^\s*activate\s+:(\w+)`)
)

func newMiddleman(env env) *engine {
	return &engine{
		name:        "Middleman",
		description: "Middleman sites (config.rb, ERB templates)",
		detect:      detectMiddleman,
		stages:      middlemanStages,
		env:         env,
	}
}

func detectMiddleman(dir string) bool {
	return fileAt(dir, middlemanConfig) && gemfileHas(dir, "middleman")
}

// middlemanSettings is what config.rb declares with `set` and `activate`.
type middlemanSettings struct {
	values     map[string]string
	extensions []string
}

func parseMiddleman(src []byte) middlemanSettings {
	s := middlemanSettings{values: map[string]string{}}
	for _, m := range middlemanSet.FindAllSubmatch(src, -1) {
		key := string(m[1])
		if key == "" {
			key = string(m[2])
		}
		if _, seen := s.values[key]; seen {
			continue
		}
		val := string(m[3])
		if m[4] != nil {
			val = string(m[4])
		}
		s.values[key] = val
	}
	for _, m := range middlemanActivate.FindAllSubmatch(src, -1) {
		s.extensions = append(s.extensions, string(m[1]))
	}
	return s
}

// dir returns a configured source subdirectory name or its default.
func (s middlemanSettings) dir(key, fallback string) string {
	if v := s.values[key]; v != "" {
		return v
	}
	return fallback
}

func middlemanStages(opts models.Options, env env) ([]models.StageDef, error) {
	src, err := readSource(opts.SourceDir, middlemanConfig)
	if err != nil {
		return nil, err
	}
	cfg := parseMiddleman(src)
	source := cfg.dir("source", "source")
	layouts := cfg.dir("layouts_dir", "layouts")
	css := cfg.dir("css_dir", "stylesheets")
	js := cfg.dir("js_dir", "javascripts")
	images := cfg.dir("images_dir", "images")
	fonts := cfg.dir("fonts_dir", "fonts")
	statics := []string{css, js, images, fonts}

	return stages.Pipeline{
		Config: stages.JekyllConfig(func(ctx context.Context, st *models.State) (map[string]any, error) {
			refs := make([]plugin.Ref, 0, len(cfg.extensions))
			for _, ext := range cfg.extensions {
				if middlemanBuiltin[ext] {
					continue
				}
				refs = append(refs, plugin.Ref{Name: ext, Kind: plugin.KindScript, Origin: middlemanConfig})
			}
			pluginWarnings(ctx, st, env.plugins, refs)
			site := map[string]any{}
			pick(site, "title", cfg.values, "site_title", "title", "site_name")
			pick(site, "description", cfg.values, "site_description", "description")
			pick(site, "url", cfg.values, "site_url", "url_root", "url")
			pick(site, "author", cfg.values, "site_author", "author")
			return site, nil
		}),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir: source,
			Exclude:      append([]string{layouts}, statics...),
			Dialect:      dialect.ERB,
			SkipPartials: true,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: path.Join(source, layouts),
			DestSubdir:   "_layouts",
			Filter:       notPartial,
			Transform:    stages.TemplateTransform(layoutSpec(dialect.ERB)),
		}),
		Includes: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: source,
			DestSubdir:   "_includes",
			Exclude:      statics,
			Filter:       isPartial,
			Transform:    stages.TemplateTransform(partialSpec(dialect.ERB)),
			Readme:       includesReadme(source),
		}),
		Data: stages.CopyTree(stages.TreeSpec{SourceSubdir: "data", DestSubdir: "_data", Transform: stages.DataTransform}),
		Static: stages.Sequence(
			stages.StylesheetTrees(path.Join(source, css), "assets/stylesheets"),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: path.Join(source, js), DestSubdir: "assets/javascripts"}),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: path.Join(source, images), DestSubdir: "assets/images"}),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: path.Join(source, fonts), DestSubdir: "assets/fonts"}),
		),
	}.Build(), nil
}

// middlemanBuiltin lists extensions whose behavior Jekyll provides itself.
var middlemanBuiltin = map[string]bool{
	"directory_indexes": true,
	"livereload":        true,
	"relative_assets":   true,
	"minify_css":        true,
	"minify_javascript": true,
	"asset_hash":        true,
	"syntax":            true,
}
