package engines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/frontmatter"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
)

const slateIndex = "source/index.html.md"

func newSlate(env env) *engine {
	return &engine{
		name:        "Slate",
		description: "Slate API documentation (Middleman based, single page with includes)",
		detect:      detectSlate,
		stages:      slateStages,
		env:         env,
	}
}

func detectSlate(dir string) bool {
	return (fileAt(dir, slateIndex) && dirAt(dir, "source/includes")) || gemfileHas(dir, "slate")
}

func slateStages(opts models.Options, env env) ([]models.StageDef, error) {
	tpl := partialSpec("", "includes/")
	var fields func(string, map[string]any)
	if fileAt(opts.SourceDir, "source/layouts/layout.erb") {
		// Middleman applies layouts/layout.erb implicitly.
		fields = func(_ string, f map[string]any) {
			if _, ok := f["layout"]; !ok {
				f["layout"] = "layout"
			}
		}
	}
	return stages.Pipeline{
		Config: stages.JekyllConfig(slateSite),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir: "source",
			Exclude:      append([]string{"includes", "layouts"}, assetExcludes...),
			Fields:       fields,
			Body:         slateIncludes,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "source/layouts",
			DestSubdir:   "_layouts",
			Transform:    stages.TemplateTransform(layoutSpec("", "includes/")),
		}),
		Includes: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "source/includes",
			DestSubdir:   "_includes",
			Transform:    stages.MarkdownIncludeTransform(env.renderer, tpl),
			Readme:       includesReadme("source/includes"),
		}),
		Static: stages.Sequence(
			stages.StylesheetTrees("source/stylesheets", "assets/stylesheets"),
			stages.AssetDirs("source", "javascripts", "images", "fonts"),
		),
	}.Build(), nil
}

// slateSite lifts the site settings Slate keeps in the front matter of its
// single index page.
func slateSite(_ context.Context, st *models.State) (map[string]any, error) {
	p := filepath.Join(st.Options.SourceDir, filepath.FromSlash(slateIndex))
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, errors.IOError(err, "read Slate index").WithPath(p).Build()
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return nil, errors.ParseError(err, "invalid Slate index front matter").WithPath(slateIndex).Build()
	}
	site := map[string]any{}
	pickAny(site, "title", doc.Fields, "title")
	for _, key := range []string{"language_tabs", "toc_footers", "search", "code_clipboard"} {
		if v, ok := doc.Fields[key]; ok {
			site[key] = v
		}
	}
	return site, nil
}

// slateIncludes appends the include tags Slate's layout renders from the
// `includes:` front matter list.
func slateIncludes(_ string, fields map[string]any, body []byte) ([]byte, []string) {
	list, ok := fields["includes"].([]any)
	if !ok {
		return body, nil
	}
	delete(fields, "includes")
	var notes []string
	for _, item := range list {
		name, ok := item.(string)
		if !ok || name == "" {
			notes = append(notes, fmt.Sprintf("include entry %v ignored", item))
			continue
		}
		body = fmt.Appendf(body, "\n{%% include %s.html %%}\n", name)
	}
	return body, notes
}
