package engines

import (
	"context"
	"maps"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/frontmatter"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

const (
	mkdocsConfig   = "mkdocs.yml"
	navigationData = "_data/navigation.yml"
)

func newMkDocs(env env) *engine {
	return &engine{
		name:        "MkDocs",
		description: "MkDocs documentation sites (mkdocs.yml, docs/ tree)",
		detect:      detectMkDocs,
		stages:      mkdocsStages,
		env:         env,
	}
}

func detectMkDocs(dir string) bool {
	return fileAt(dir, mkdocsConfig)
}

// mkdocsSettings is the part of mkdocs.yml the migration reads. Python tags
// such as `!!python/name:` are tolerated by reading scalars as plain text.
type mkdocsSettings struct {
	values    map[string]string
	docsDir   string
	themeName string
	customDir string
	plugins   []string
	extra     map[string]any
	nav       *yaml.Node
}

func parseMkDocs(src []byte) (mkdocsSettings, error) {
	cfg := mkdocsSettings{values: map[string]string{}, docsDir: "docs"}
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return cfg, errors.ParseError(err, "invalid mkdocs.yml").WithPath(mkdocsConfig).Build()
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return cfg, nil
	}
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i].Value, top.Content[i+1]
		switch {
		case key == "docs_dir" && val.Kind == yaml.ScalarNode:
			cfg.docsDir = strings.Trim(val.Value, "/")
		case key == "theme" && val.Kind == yaml.ScalarNode:
			cfg.themeName = val.Value
		case key == "theme" && val.Kind == yaml.MappingNode:
			for j := 0; j+1 < len(val.Content); j += 2 {
				switch val.Content[j].Value {
				case "name":
					cfg.themeName = val.Content[j+1].Value
				case "custom_dir":
					cfg.customDir = strings.Trim(val.Content[j+1].Value, "/")
				}
			}
		case key == "plugins" && val.Kind == yaml.SequenceNode:
			for _, item := range val.Content {
				switch item.Kind {
				case yaml.ScalarNode:
					cfg.plugins = append(cfg.plugins, item.Value)
				case yaml.MappingNode:
					if len(item.Content) > 0 {
						cfg.plugins = append(cfg.plugins, item.Content[0].Value)
					}
				}
			}
		case key == "extra" && val.Kind == yaml.MappingNode:
			if m, ok := nodeValue(val).(map[string]any); ok {
				cfg.extra = m
			}
		case key == "nav" && val.Kind == yaml.SequenceNode:
			cfg.nav = val
		case val.Kind == yaml.ScalarNode:
			cfg.values[key] = val.Value
		}
	}
	return cfg, nil
}

// nodeValue converts a node into plain Go values, reading tagged scalars
// as strings.
func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return out
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, nodeValue(c))
		}
		return out
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeValue(n.Alias)
		}
		return nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool", "!!int", "!!float", "!!null":
			var v any
			if err := n.Decode(&v); err == nil {
				return v
			}
		}
		return n.Value
	}
	return nil
}

func mkdocsStages(opts models.Options, env env) ([]models.StageDef, error) {
	src, err := readSource(opts.SourceDir, mkdocsConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := parseMkDocs(src)
	if err != nil {
		return nil, err
	}
	p := stages.Pipeline{
		Config:  mkdocsConfigStage(cfg, env),
		Content: stages.ConvertContent(stages.ContentSpec{SourceSubdir: cfg.docsDir}),
	}
	if cfg.customDir != "" {
		p.Layouts = stages.CopyTree(stages.TreeSpec{
			SourceSubdir: cfg.customDir,
			DestSubdir:   "_layouts",
			Exclude:      []string{"partials", "assets"},
			Transform:    stages.TemplateTransform(layoutSpec(dialect.Jinja, "partials/")),
		})
		p.Includes = stages.CopyTree(stages.TreeSpec{
			SourceSubdir: path.Join(cfg.customDir, "partials"),
			DestSubdir:   "_includes",
			Transform:    stages.TemplateTransform(partialSpec(dialect.Jinja, "partials/")),
			Readme:       includesReadme(path.Join(cfg.customDir, "partials")),
		})
		p.Static = stages.CopyTree(stages.TreeSpec{SourceSubdir: path.Join(cfg.customDir, "assets"), DestSubdir: "assets"})
	}
	return p.Build(), nil
}

func mkdocsConfigStage(cfg mkdocsSettings, env env) models.Stage {
	extract := func(ctx context.Context, st *models.State) (map[string]any, error) {
		site := maps.Clone(cfg.extra)
		if site == nil {
			site = map[string]any{}
		}
		pick(site, "title", cfg.values, "site_name")
		pick(site, "description", cfg.values, "site_description")
		pick(site, "url", cfg.values, "site_url")
		pick(site, "author", cfg.values, "site_author")
		pick(site, "repository", cfg.values, "repo_url")
		pick(site, "copyright", cfg.values, "copyright")
		if cfg.themeName != "" && cfg.themeName != "mkdocs" {
			st.Warnf("%s: theme %q has no Jekyll equivalent; pick a Jekyll theme (for example just-the-docs)", mkdocsConfig, cfg.themeName)
		}
		refs := make([]plugin.Ref, 0, len(cfg.plugins))
		for _, name := range cfg.plugins {
			if name == "search" {
				continue
			}
			refs = append(refs, plugin.Ref{Name: name, Kind: plugin.KindScript, Origin: mkdocsConfig})
		}
		pluginWarnings(ctx, st, env.plugins, refs)
		return site, nil
	}
	return func(ctx context.Context, st *models.State) error {
		if err := stages.JekyllConfig(extract)(ctx, st); err != nil {
			return err
		}
		if cfg.nav == nil {
			return nil
		}
		data, err := frontmatter.SerializeYAML(map[string]any{"main": navEntries(cfg.nav)}, "\n")
		if err != nil {
			return errors.InternalError("encode navigation").WithCause(err).Build()
		}
		return stages.WriteCreated(st, navigationData, data, "navigation converted from mkdocs.yml nav")
	}
}

// navEntries turns an MkDocs nav list into title/url entries. Sections keep
// their children; external links are kept as-is.
func navEntries(seq *yaml.Node) []any {
	out := make([]any, 0, len(seq.Content))
	for _, item := range seq.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, map[string]any{"title": titleFromPath(item.Value), "url": navURL(item.Value)})
		case yaml.MappingNode:
			for i := 0; i+1 < len(item.Content); i += 2 {
				title, val := item.Content[i].Value, item.Content[i+1]
				entry := map[string]any{"title": title}
				switch val.Kind {
				case yaml.SequenceNode:
					entry["children"] = navEntries(val)
				default:
					entry["url"] = navURL(val.Value)
				}
				out = append(out, entry)
			}
		}
	}
	return out
}

// navURL maps a docs-relative Markdown path to the URL of its migrated page.
func navURL(ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	ref = strings.TrimSuffix(strings.TrimSuffix(ref, ".md"), ".markdown")
	if ref == "index" {
		return "/"
	}
	ref = strings.TrimSuffix(ref, "/index")
	return "/" + strings.Trim(ref, "/") + "/"
}

func titleFromPath(ref string) string {
	base := path.Base(strings.TrimSuffix(ref, path.Ext(ref)))
	if base == "index" {
		if dir := path.Dir(ref); dir != "." {
			base = path.Base(dir)
		} else {
			return "Home"
		}
	}
	return stages.TitleFromSlug(base)
}
