package engines

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/stages"
)

// includesReadme is written next to migrated partials.
func includesReadme(src string) string {
	return fmt.Sprintf(`# Includes

Partials migrated from %s. Use them from layouts and pages with

    {%% include name.html %%}

Arguments passed to the original partials must be rewritten as include
parameters (`+"`{%% include name.html key=value %%}`"+`, read as `+"`{{ include.key }}`"+`).
`, src)
}

// readYAML decodes a YAML mapping file. A missing file yields ok=false.
func readYAML(dir, rel string) (map[string]any, bool, error) {
	p := filepath.Join(dir, filepath.FromSlash(rel))
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.IOError(err, "read configuration").WithPath(p).Build()
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, false, errors.ParseError(err, "invalid YAML configuration").WithPath(rel).Build()
	}
	return out, true, nil
}

// readSource reads a source file, treating a missing file as empty.
func readSource(dir, rel string) ([]byte, error) {
	p := filepath.Join(dir, filepath.FromSlash(rel))
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.IOError(err, "read source file").WithPath(p).Build()
	}
	return data, nil
}

// firstFile returns the first of names present in dir.
func firstFile(dir string, names ...string) string {
	for _, n := range names {
		if fileAt(dir, n) {
			return n
		}
	}
	return ""
}

// quotedAssignments collects `key <sep> "value"` pairs from source code.
// The first occurrence of a key wins.
func quotedAssignments(re *regexp.Regexp, src []byte) map[string]string {
	out := map[string]string{}
	for _, m := range re.FindAllSubmatch(src, -1) {
		key := string(m[1])
		if _, seen := out[key]; seen {
			continue
		}
		for _, g := range m[2:] {
			if g != nil {
				out[key] = string(g)
				break
			}
		}
	}
	return out
}

// pick copies the first non-empty value among from[keys] into site[to].
func pick(site map[string]any, to string, from map[string]string, keys ...string) {
	for _, k := range keys {
		if v := strings.TrimSpace(from[k]); v != "" {
			site[to] = v
			return
		}
	}
}

// pickAny is pick for decoded YAML/JSON maps; only scalar values are taken.
func pickAny(site map[string]any, to string, from map[string]any, keys ...string) {
	for _, k := range keys {
		switch v := from[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				site[to] = v
				return
			}
		case bool, int, int64, float64:
			site[to] = v
			return
		}
	}
}

// assetExcludes are the conventional static directories a content tree skips
// because the static stage migrates them.
var assetExcludes = []string{"stylesheets", "javascripts", "images", "fonts"}

// layoutSpec converts layouts whose file names do not name a dialect as d.
func layoutSpec(d dialect.Dialect, includePrefixes ...string) stages.TemplateSpec {
	return stages.TemplateSpec{Dialect: d, Options: dialect.Options{IncludePrefixes: includePrefixes}}
}

// partialSpec is layoutSpec for partials, which lose their `_` marker.
func partialSpec(d dialect.Dialect, includePrefixes ...string) stages.TemplateSpec {
	spec := layoutSpec(d, includePrefixes...)
	spec.StripUnderscore = true
	return spec
}

func isPartial(rel string) bool {
	return strings.HasPrefix(path.Base(rel), "_") && !stages.IsSassPartial(rel)
}

func notPartial(rel string) bool { return !isPartial(rel) }

func underDir(dir string) func(string) bool {
	return func(rel string) bool { return strings.HasPrefix(rel, dir+"/") }
}

// flatten moves transformed files to the top of the destination tree; pages
// name layouts by base name only.
func flatten(t stages.Transform) stages.Transform {
	return func(rel string, data []byte) (stages.Output, error) {
		out, err := t(rel, data)
		if err != nil {
			return out, err
		}
		if out.Rel == "" {
			out.Rel = rel
		}
		out.Rel = path.Base(out.Rel)
		return out, nil
	}
}
