package engines

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"sort"

	"github.com/BurntSushi/toml"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
)

const zolaConfig = "config.toml"

var zolaShortcode = regexp.MustCompile(`\{[{%]\s*(\w+)\(`)

func newZola(env env) *engine {
	return &engine{
		name:        "Zola",
		description: "Zola sites (config.toml, Tera templates, TOML front matter)",
		detect:      detectZola,
		stages:      zolaStages,
		env:         env,
	}
}

func detectZola(dir string) bool {
	return fileContains(dir, zolaConfig, "base_url") && dirAt(dir, "content") && dirAt(dir, "templates")
}

// zolaSettings mirrors the config.toml keys with a Jekyll counterpart;
// everything else surfaces through toml.MetaData.Undecoded.
type zolaSettings struct {
	BaseURL          string         `toml:"base_url"`
	Title            string         `toml:"title"`
	Description      string         `toml:"description"`
	DefaultLanguage  string         `toml:"default_language"`
	Author           string         `toml:"author"`
	Theme            string         `toml:"theme"`
	GenerateFeed     bool           `toml:"generate_feed"`
	GenerateFeeds    bool           `toml:"generate_feeds"`
	CompileSass      bool           `toml:"compile_sass"`
	BuildSearchIndex bool           `toml:"build_search_index"`
	Taxonomies       []zolaTaxonomy `toml:"taxonomies"`
	Extra            map[string]any `toml:"extra"`
}

type zolaTaxonomy struct {
	Name string `toml:"name"`
}

func zolaStages(_ models.Options, _ env) ([]models.StageDef, error) {
	tera := dialect.Options{IncludePrefixes: []string{"partials/"}}
	includes := stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Jinja, Options: tera})
	return stages.Pipeline{
		Config: stages.JekyllConfig(zolaSite),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir: "content",
			Body:         zolaShortcodes,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: "templates",
			DestSubdir:   "_layouts",
			Exclude:      []string{"partials", "macros", "shortcodes"},
			Transform:    stages.TemplateTransform(stages.TemplateSpec{Dialect: dialect.Jinja, Options: tera}),
		}),
		Includes: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{
				SourceSubdir: "templates/partials",
				DestSubdir:   "_includes",
				Transform:    includes,
				Readme:       includesReadme("templates/partials"),
			}),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "templates/shortcodes", DestSubdir: "_includes/shortcodes", Transform: includes}),
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "templates/macros", DestSubdir: "_includes/macros", Transform: includes}),
		),
		Data: stages.CopyTree(stages.TreeSpec{SourceSubdir: "data", DestSubdir: "_data", Transform: stages.DataTransform}),
		Static: stages.Sequence(
			stages.CopyTree(stages.TreeSpec{SourceSubdir: "static", DestSubdir: "assets"}),
			stages.StylesheetTrees("sass", "assets"),
		),
	}.Build(), nil
}

func zolaSite(_ context.Context, st *models.State) (map[string]any, error) {
	var cfg zolaSettings
	src, err := readSource(st.Options.SourceDir, zolaConfig)
	if err != nil {
		return nil, err
	}
	md, err := toml.Decode(string(src), &cfg)
	if err != nil {
		return nil, errors.ParseError(err, "invalid config.toml").WithPath(zolaConfig).Build()
	}
	undecoded := make([]string, 0, len(md.Undecoded()))
	for _, key := range md.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	sort.Strings(undecoded)
	for _, key := range undecoded {
		st.Warnf("%s: setting %q has no Jekyll equivalent", zolaConfig, key)
	}

	site := maps.Clone(cfg.Extra)
	if site == nil {
		site = map[string]any{}
	}
	site["url"] = cfg.BaseURL
	site["title"] = cfg.Title
	site["description"] = cfg.Description
	site["lang"] = cfg.DefaultLanguage
	site["author"] = cfg.Author
	if cfg.Theme != "" {
		st.Warnf("%s: theme %q is not migrated; copy its templates into templates/ before migrating", zolaConfig, cfg.Theme)
	}
	if cfg.GenerateFeed || cfg.GenerateFeeds {
		st.Warnf("%s: feed generation needs the jekyll-feed plugin", zolaConfig)
	}
	if cfg.BuildSearchIndex {
		st.Warnf("%s: the search index is not migrated", zolaConfig)
	}
	for _, t := range cfg.Taxonomies {
		if t.Name != "tags" && t.Name != "categories" {
			st.Warnf("%s: taxonomy %q is kept as a front matter list; Jekyll only indexes tags and categories", zolaConfig, t.Name)
		}
	}
	return site, nil
}

// zolaShortcodes reports shortcode calls, which have no Jekyll form until
// the matching include is wired up by hand.
func zolaShortcodes(_ string, _ map[string]any, body []byte) ([]byte, []string) {
	var notes []string
	for i, line := range bytes.Split(body, []byte("\n")) {
		for _, m := range zolaShortcode.FindAllSubmatch(line, -1) {
			notes = append(notes, fmt.Sprintf("line %d: shortcode %s must be replaced with {%% include shortcodes/%s.html %%}", i+1, m[1], m[1]))
		}
	}
	return body, notes
}
