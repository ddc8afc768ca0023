package engines

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

const metalsmithConfig = "metalsmith.json"

var (
	jsRequire    = regexp.MustCompile(`(?:require\(\s*|from\s+)['"]([^'"]+)['"]`)
	jsSourceCall = regexp.MustCompile(`\.source\(\s*['"]([^'"]+)['"]`)
)

// metalsmithCore are plugins whose work the migrated Jekyll site does natively.
var metalsmithCore = map[string]bool{
	"metalsmith":                   true,
	"@metalsmith/markdown":         true,
	"metalsmith-markdown":          true,
	"@metalsmith/layouts":          true,
	"metalsmith-layouts":           true,
	"@metalsmith/permalinks":       true,
	"metalsmith-permalinks":        true,
	"@metalsmith/collections":      true,
	"metalsmith-collections":       true,
	"@metalsmith/drafts":           true,
	"metalsmith-drafts":            true,
	"metalsmith-discover-partials": true,
}

func newMetalsmith(env env) *engine {
	return &engine{
		name:        "Metalsmith",
		description: "Metalsmith sites (metalsmith.json or JavaScript build, Handlebars layouts)",
		detect:      detectMetalsmith,
		stages:      metalsmithStages,
		env:         env,
	}
}

func detectMetalsmith(dir string) bool {
	return fileAt(dir, metalsmithConfig) || packageDependsOn(dir, "metalsmith")
}

// metalsmithSettings is the build description from metalsmith.json or, when
// the site builds from JavaScript, what can be read off the script.
type metalsmithSettings struct {
	source   string
	metadata map[string]any
	plugins  []plugin.Ref
}

type metalsmithFile struct {
	Source   string          `json:"source"`
	Metadata map[string]any  `json:"metadata"`
	Plugins  json.RawMessage `json:"plugins"`
}

func loadMetalsmith(dir string) (metalsmithSettings, error) {
	cfg := metalsmithSettings{source: "src"}
	data, err := readSource(dir, metalsmithConfig)
	if err != nil {
		return cfg, err
	}
	if data != nil {
		var f metalsmithFile
		if err := json.Unmarshal(data, &f); err != nil {
			return cfg, errors.ParseError(err, "invalid metalsmith.json").WithPath(metalsmithConfig).Build()
		}
		if f.Source != "" {
			cfg.source = strings.Trim(f.Source, "./")
		}
		cfg.metadata = f.Metadata
		for _, name := range pluginNames(f.Plugins) {
			cfg.plugins = append(cfg.plugins, plugin.Ref{Name: name, Kind: plugin.KindScript, Origin: metalsmithConfig})
		}
		return cfg, nil
	}
	script := firstFile(dir, "metalsmith.js", "build.js", "index.js", "metalsmith.mjs")
	if script == "" {
		return cfg, nil
	}
	src, err := readSource(dir, script)
	if err != nil {
		return cfg, err
	}
	if m := jsSourceCall.FindSubmatch(src); m != nil {
		cfg.source = strings.Trim(string(m[1]), "./")
	}
	seen := map[string]bool{}
	for _, m := range jsRequire.FindAllSubmatch(src, -1) {
		name := string(m[1])
		if seen[name] || strings.HasPrefix(name, ".") || !strings.Contains(name, "metalsmith") {
			continue
		}
		seen[name] = true
		cfg.plugins = append(cfg.plugins, plugin.Ref{Name: name, Kind: plugin.KindScript, Origin: script})
	}
	return cfg, nil
}

// pluginNames reads the object or array-of-objects form of the plugins key.
func pluginNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		names := make([]string, 0, len(obj))
		for k := range obj {
			names = append(names, k)
		}
		sort.Strings(names)
		return names
	}
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	var names []string
	for _, item := range list {
		keys := make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		names = append(names, keys...)
	}
	return names
}

func metalsmithStages(opts models.Options, env env) ([]models.StageDef, error) {
	cfg, err := loadMetalsmith(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	hbs := dialect.Options{IncludePrefixes: []string{"partials/"}}
	return stages.Pipeline{
		Config: stages.JekyllConfig(func(ctx context.Context, st *models.State) (map[string]any, error) {
			refs := make([]plugin.Ref, 0, len(cfg.plugins))
			for _, ref := range cfg.plugins {
				if !metalsmithCore[ref.Name] {
					refs = append(refs, ref)
				}
			}
			pluginWarnings(ctx, st, env.plugins, refs)
			site := map[string]any{}
			for k, v := range cfg.metadata {
				switch v.(type) {
				case string, bool, float64:
					site[k] = v
				}
			}
			pickAny(site, "title", cfg.metadata, "sitename", "siteName", "title")
			pickAny(site, "url", cfg.metadata, "siteurl", "siteUrl", "url")
			pickAny(site, "description", cfg.metadata, "description")
			for _, k := range []string{"sitename", "siteName", "siteurl", "siteUrl"} {
				delete(site, k)
			}
			return site, nil
		}),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir:   cfg.source,
			Dialect:        dialect.Handlebars,
			DialectOptions: hbs,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "layouts",
			DestSubdir:   "_layouts",
			Exclude:      []string{"partials"},
			Transform:    stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Handlebars, Options: hbs}),
		}),
		Includes: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "partials",
				DestSubdir:   "_includes",
				Transform:    stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Handlebars, Options: hbs, StripUnderscore: true}),
				Readme:       includesReadme("partials"),
			}),
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "layouts/partials",
				DestSubdir:   "_includes",
				Transform:    stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Handlebars, Options: hbs, StripUnderscore: true}),
			}),
		),
	}.Build(), nil
}
