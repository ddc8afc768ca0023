package engines

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

var eleventyConfigs = []string{".eleventy.js", "eleventy.config.js", "eleventy.config.mjs", "eleventy.config.cjs"}

// eleventyProjectFiles are read by the build, never published.
var eleventyProjectFiles = append([]string{"package.json", "package-lock.json", ".eleventyignore"}, eleventyConfigs...)

var (
	eleventyDir         = regexp.MustCompile(`\b(input|includes|layouts|data|output)\s*:\s*['"]([^'"]+)['"]`)
	eleventyAddPlugin   = regexp.MustCompile(`addPlugin\(\s*([\w$.]+)`)
	eleventyImport      = regexp.MustCompile(`(?:(?:const|let|var)\s+(\w+)\s*=\s*require\(\s*|import\s+(\w+)\s+from\s+)['"]([^'"]+)['"]`)
	eleventyPassthrough = regexp.MustCompile(`addPassthroughCopy\(\s*(?:\{\s*)?['"]([^'"]+)['"]`)
)

func newEleventy(env env) *engine {
	return &engine{
		name:        "Eleventy",
		description: "Eleventy (11ty) sites (JavaScript config, Nunjucks or Liquid templates)",
		detect:      detectEleventy,
		stages:      eleventyStages,
		env:         env,
	}
}

func detectEleventy(dir string) bool {
	return firstFile(dir, eleventyConfigs...) != "" || packageDependsOn(dir, "@11ty/eleventy")
}

// eleventySettings is what the config script declares. Directory names are
// relative to the project root except includes, layouts and data, which
// Eleventy resolves inside the input directory.
type eleventySettings struct {
	input       string
	includes    string
	layouts     string
	data        string
	output      string
	plugins     []plugin.Ref
	passthrough []string
	ignores     []string
}

func loadEleventy(dir string) (eleventySettings, error) {
	cfg := eleventySettings{input: "", includes: "_includes", data: "_data", output: "_site"}
	script := firstFile(dir, eleventyConfigs...)
	if script != "" {
		src, err := readSource(dir, script)
		if err != nil {
			return cfg, err
		}
		parseEleventy(&cfg, src, script)
	}
	ignores, err := readSource(dir, ".eleventyignore")
	if err != nil {
		return cfg, err
	}
	sc := bufio.NewScanner(bytes.NewReader(ignores))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			cfg.ignores = append(cfg.ignores, strings.TrimPrefix(line, "./"))
		}
	}
	return cfg, nil
}

func parseEleventy(cfg *eleventySettings, src []byte, script string) {
	for _, m := range eleventyDir.FindAllSubmatch(src, -1) {
		val := strings.Trim(strings.TrimPrefix(string(m[2]), "./"), "/")
		if val == "." {
			val = ""
		}
		switch string(m[1]) {
		case "input":
			cfg.input = val
		case "includes":
			cfg.includes = val
		case "layouts":
			cfg.layouts = val
		case "data":
			cfg.data = val
		case "output":
			cfg.output = val
		}
	}
	modules := map[string]string{}
	for _, m := range eleventyImport.FindAllSubmatch(src, -1) {
		name := string(m[1])
		if name == "" {
			name = string(m[2])
		}
		modules[name] = string(m[3])
	}
	for _, m := range eleventyAddPlugin.FindAllSubmatch(src, -1) {
		ident := string(m[1])
		name := ident
		if mod, ok := modules[strings.SplitN(ident, ".", 2)[0]]; ok {
			name = mod
		}
		cfg.plugins = append(cfg.plugins, plugin.Ref{Name: name, Kind: plugin.KindScript, Origin: script})
	}
	for _, m := range eleventyPassthrough.FindAllSubmatch(src, -1) {
		cfg.passthrough = append(cfg.passthrough, strings.Trim(strings.TrimPrefix(string(m[1]), "./"), "/"))
	}
}

// inInput returns the input-relative path of a project-relative one.
func (c eleventySettings) inInput(p string) (string, bool) {
	if c.input == "" {
		return p, true
	}
	return strings.CutPrefix(p, c.input+"/")
}

func eleventyStages(opts models.Options, env env) ([]models.StageDef, error) {
	cfg, err := loadEleventy(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	exclude := []string{cfg.includes, cfg.data}
	if cfg.layouts != "" {
		exclude = append(exclude, cfg.layouts)
	}
	for _, p := range cfg.passthrough {
		if rel, ok := cfg.inInput(p); ok && !strings.ContainsAny(rel, "*?") {
			exclude = append(exclude, rel)
		}
	}
	ignore := []string{"node_modules", ".git"}
	if cfg.input == "" {
		ignore = append(ignore, eleventyProjectFiles...)
	}
	if rel, ok := cfg.inInput(cfg.output); ok {
		ignore = append(ignore, rel)
	}
	for _, p := range cfg.ignores {
		if rel, ok := cfg.inInput(p); ok && !strings.ContainsAny(rel, "*?") {
			ignore = append(ignore, rel)
		}
	}

	includesDir := path.Join(cfg.input, cfg.includes)
	layoutsDir := includesDir
	if cfg.layouts != "" {
		layoutsDir = path.Join(cfg.input, cfg.layouts)
	}
	isLayout := func(rel string) bool {
		if cfg.layouts != "" {
			return true
		}
		return eleventyLayoutFile(filepath.Join(opts.SourceDir, filepath.FromSlash(includesDir), filepath.FromSlash(rel)))
	}

	return stages.Pipeline{
		Config: stages.JekyllConfig(eleventySite(cfg, env)),
		Content: stages.ConvertContent(stages.ContentSpec{
			SourceSubdir:  cfg.input,
			Exclude:       exclude,
			Ignore:        ignore,
			DocumentsOnly: true,
			Dialect:       dialect.Liquid,
		}),
		Layouts: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: layoutsDir,
			DestSubdir:   "_layouts",
			Filter:       isLayout,
			Transform:    flatten(stages.TemplateTransform(layoutSpec(dialect.Liquid))),
		}),
		Includes: stages.CopyTree(stages.TreeSpec{
			SourceSubdir: includesDir,
			DestSubdir:   "_includes",
			Filter:       func(rel string) bool { return cfg.layouts != "" || !isLayout(rel) },
			Transform:    stages.TemplateTransform(layoutSpec(dialect.Liquid)),
			Readme:       includesReadme(includesDir),
		}),
		Data:   stages.CopyTree(stages.TreeSpec{SourceSubdir: path.Join(cfg.input, cfg.data), DestSubdir: "_data", Transform: stages.DataTransform}),
		Static: eleventyPassthroughStage(cfg),
	}.Build(), nil
}

// eleventyLayoutFile reports whether a template in the includes directory is
// used as a layout, which Eleventy does not distinguish by location.
func eleventyLayoutFile(abs string) bool {
	data, err := os.ReadFile(abs)
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte("{{ content")) || bytes.Contains(data, []byte("{{content"))
}

// eleventyPassthroughStage copies passthrough paths under assets/, keeping
// their input-relative location.
func eleventyPassthroughStage(cfg eleventySettings) models.Stage {
	return func(ctx context.Context, st *models.State) error {
		for _, p := range cfg.passthrough {
			if strings.ContainsAny(p, "*?{") {
				st.Warnf("%s: glob passthrough copies are not migrated; copy the matching files into assets/ by hand", p)
				continue
			}
			rel, _ := cfg.inInput(p)
			if fileAt(st.Options.SourceDir, p) {
				rel = path.Dir(rel)
			}
			dest := path.Join("assets", assetsRel(rel))
			if err := stages.CopyTree(stages.TreeSpec{SourceSubdir: p, DestSubdir: dest})(ctx, st); err != nil {
				return err
			}
		}
		return nil
	}
}

// assetsRel drops a leading assets/ directory so passthrough trees that are
// already named assets are not nested twice.
func assetsRel(rel string) string {
	if rel == "assets" || rel == "." {
		return ""
	}
	return strings.TrimPrefix(rel, "assets/")
}

type eleventyMetadata struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Language    string          `json:"language"`
	Author      json.RawMessage `json:"author"`
}

func eleventySite(cfg eleventySettings, env env) stages.SiteExtractor {
	return func(ctx context.Context, st *models.State) (map[string]any, error) {
		pluginWarnings(ctx, st, env.plugins, cfg.plugins)
		site := map[string]any{}
		dataDir := path.Join(cfg.input, cfg.data)
		file := firstFile(st.Options.SourceDir, path.Join(dataDir, "metadata.json"), path.Join(dataDir, "site.json"))
		if file == "" {
			if js := firstFile(st.Options.SourceDir, path.Join(dataDir, "metadata.js"), path.Join(dataDir, "site.js")); js != "" {
				st.Warnf("%s: computed site data is not migrated; set title and url in _config.yml", js)
			}
			return site, nil
		}
		data, err := readSource(st.Options.SourceDir, file)
		if err != nil {
			return nil, err
		}
		var meta eleventyMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, errors.ParseError(err, "invalid site metadata").WithPath(file).Build()
		}
		site["title"] = meta.Title
		site["description"] = meta.Description
		site["url"] = meta.URL
		site["lang"] = meta.Language
		if author := eleventyAuthor(meta.Author); author != nil {
			site["author"] = author
		}
		return site, nil
	}
}

// eleventyAuthor accepts a plain name or an {name, email, url} object.
func eleventyAuthor(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil && len(obj) > 0 {
		return obj
	}
	return nil
}
