package engines

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

const nikolaConfig = "conf.py"

var nikolaSetting = regexp.MustCompile(`(?m)^([A-Z_]+)\s*=\s*[urb]?(?:"([^"]*)"|'([^']*)')`)

func newNikola(env env) *engine {
	return &engine{
		name:        "Nikola",
		description: "Nikola sites (conf.py, posts/ and pages/ with .meta sidecars)",
		detect:      detectNikola,
		stages:      nikolaStages,
		env:         env,
	}
}

func detectNikola(dir string) bool {
	return fileContains(dir, nikolaConfig, "BLOG_TITLE")
}

func nikolaStages(_ models.Options, env env) ([]models.StageDef, error) {
	return stages.Pipeline{
		Config: stages.JekyllConfig(nikolaSite(env)),
		Content: stages.Sequence(
			stages.ConvertContent(stages.ContentSpec{SourceSubdir: "posts", MetaSidecars: true}),
			stages.ConvertContent(stages.ContentSpec{SourceSubdir: "pages", MetaSidecars: true, PagesOnly: true}),
			stages.ConvertContent(stages.ContentSpec{SourceSubdir: "stories", MetaSidecars: true, PagesOnly: true}),
		),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "templates",
			DestSubdir:   "_layouts",
			Transform:    stages.TemplateTransform(layoutSpec("")),
		}),
		Data: stages.CopyTree(stages.TreeSpec{SourceSubdir: "data", DestSubdir: "_data", Transform: stages.DataTransform}),
		Static: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "files", DestSubdir: "assets"}),
			stages.AssetDirs("", "images", "galleries"),
		),
	}.Build(), nil
}

func nikolaSite(env env) stages.SiteExtractor {
	return func(ctx context.Context, st *models.State) (map[string]any, error) {
		src, err := readSource(st.Options.SourceDir, nikolaConfig)
		if err != nil {
			return nil, err
		}
		refs, err := nikolaPlugins(st.Options.SourceDir)
		if err != nil {
			return nil, err
		}
		pluginWarnings(ctx, st, env.plugins, refs)
		return nikolaSettings(st, src), nil
	}
}

// nikolaPlugins lists the site-local plugins installed under plugins/.
func nikolaPlugins(sourceDir string) ([]plugin.Ref, error) {
	root := filepath.Join(sourceDir, "plugins")
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.IOError(err, "list Nikola plugins").WithPath(root).Build()
	}
	var refs []plugin.Ref
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), "__") {
			refs = append(refs, plugin.Ref{Name: e.Name(), Kind: plugin.KindScript, Origin: "plugins/" + e.Name()})
		}
	}
	return refs, nil
}

func nikolaSettings(st *models.State, src []byte) map[string]any {
	values := quotedAssignments(nikolaSetting, src)
	site := map[string]any{}
	pick(site, "title", values, "BLOG_TITLE")
	pick(site, "description", values, "BLOG_DESCRIPTION")
	pick(site, "url", values, "SITE_URL", "BASE_URL")
	pick(site, "author", values, "BLOG_AUTHOR")
	pick(site, "email", values, "BLOG_EMAIL")
	if theme := values["THEME"]; theme != "" {
		st.Warnf("%s: theme %q is not migrated; layouts come from templates/ only", nikolaConfig, theme)
	}
	return site
}
