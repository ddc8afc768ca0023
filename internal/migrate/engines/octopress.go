package engines

import (
	"context"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

func newOctopress(env env) *engine {
	return &engine{
		name:        "Octopress",
		description: "Octopress 2 blogs (Jekyll with Rake tasks and custom Liquid tags)",
		detect:      detectOctopress,
		stages:      octopressStages,
		env:         env,
	}
}

func detectOctopress(dir string) bool {
	return fileAt(dir, "Rakefile") && fileAt(dir, "_config.yml") &&
		(dirAt(dir, "source/_posts") || fileContains(dir, "Rakefile", "octopress"))
}

// octopressDropped are _config.yml keys that only drive Octopress' own Rake
// tasks or plugins.
var octopressDropped = []string{
	"root", "subtitle", "source", "destination", "plugins", "code_dir", "category_dir",
	"markdown", "pygments", "highlighter", "subscribe_rss", "recent_posts", "excerpt_link",
	"titlecase", "simple_search", "default_asides", "blog_index_asides", "post_asides",
	"page_asides", "exclude",
}

func octopressStages(opts models.Options, env env) ([]models.StageDef, error) {
	static := stages.AssetDirs("source", "stylesheets")
	if dirAt(opts.SourceDir, "sass") {
		// source/stylesheets holds Compass output when sass/ exists.
		static = stages.Sequence(
			stages.StylesheetTrees("sass", "assets/stylesheets"),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "source/stylesheets", DestSubdir: "assets/stylesheets", Transform: compassOutput}),
		)
	}
	return stages.Pipeline{
		Config: stages.JekyllConfig(octopressSite(env)),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir: "source",
			Exclude:      append([]string{"_layouts", "_includes", "_data", "assets"}, assetExcludes...),
			Dialect:      dialect.Liquid,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "source/_layouts",
			DestSubdir:   "_layouts",
			Transform:    stages.TemplateTransform(layoutSpec(dialect.Liquid)),
		}),
		Includes: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "source/_includes",
			DestSubdir:   "_includes",
			Transform:    stages.TemplateTransform(layoutSpec(dialect.Liquid)),
			Readme:       includesReadme("source/_includes"),
		}),
		Data: stages.CopyTree(stages.TreeSpec{SourceSubdir: "source/_data", DestSubdir: "_data", Transform: stages.DataTransform}),
		Static: stages.Sequence(
			static,
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "source/assets", DestSubdir: "assets"}),
			stages.AssetDirs("source", "javascripts", "images", "fonts"),
		),
	}.Build(), nil
}

// compassOutput records generated stylesheets as skipped; Jekyll compiles
// the sass/ sources instead.
func compassOutput(rel string, _ []byte) (stages.Output, error) {
	return stages.Output{Rel: rel, Skip: true, Description: "Compass output not copied; Jekyll compiles sass/"}, nil
}

func octopressSite(env env) stages.SiteExtractor {
	return func(ctx context.Context, st *models.State) (map[string]any, error) {
		cfg, ok, err := readYAML(st.Options.SourceDir, "_config.yml")
		if err != nil || !ok {
			return map[string]any{}, err
		}
		if dir, ok := cfg["plugins"].(string); ok {
			refs, err := octopressPlugins(st.Options.SourceDir, dir)
			if err != nil {
				return nil, err
			}
			pluginWarnings(ctx, st, env.plugins, refs)
		}
		return octopressSettings(st, cfg), nil
	}
}

// octopressPlugins lists the Ruby files of the plugins directory.
func octopressPlugins(sourceDir, dir string) ([]plugin.Ref, error) {
	root := filepath.Join(sourceDir, filepath.FromSlash(dir))
	if !fsutil.IsDir(root) {
		return nil, nil
	}
	files, err := fsutil.ListFiles(root)
	if err != nil {
		return nil, errors.IOError(err, "list Octopress plugins").WithPath(root).Build()
	}
	var refs []plugin.Ref
	for _, f := range files {
		if path.Ext(f) == ".rb" {
			refs = append(refs, plugin.Ref{Name: strings.TrimSuffix(path.Base(f), ".rb"), Kind: plugin.KindScript, Origin: path.Join(dir, f)})
		}
	}
	return refs, nil
}

func octopressSettings(st *models.State, cfg map[string]any) map[string]any {
	site := map[string]any{}
	for k, v := range cfg {
		if !slices.Contains(octopressDropped, k) {
			site[k] = v
		}
	}
	pickAny(site, "description", cfg, "description", "subtitle")
	if root, ok := cfg["root"].(string); ok && root != "/" {
		site["baseurl"] = root
	}
	if engine, ok := cfg["markdown"].(string); ok && engine != "kramdown" {
		st.Warnf("_config.yml: markdown engine %q replaced by kramdown", engine)
	}
	if asides, ok := cfg["default_asides"].([]any); ok && len(asides) > 0 {
		st.Warnf("_config.yml: %d sidebar asides must be added to the layouts by hand", len(asides))
	}
	return site
}
