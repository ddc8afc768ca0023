package stages

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/frontmatter"
	"git.home.luguber.info/inful/sitemigrator/internal/markdown"
)

// TemplateSpec configures TemplateTransform.
type TemplateSpec struct {
	// Dialect applies to files whose name does not identify one, such as
	// Tera or Jinja templates stored as .html.
	Dialect dialect.Dialect
	Options dialect.Options
	// StripUnderscore drops the partial marker from file names.
	StripUnderscore bool
}

// TemplateTransform converts layouts and partials from their source dialect
// into Liquid and gives them Jekyll file names. Templates extending a parent
// receive a `layout:` front matter entry. Files with no known dialect are
// copied untouched.
func TemplateTransform(spec TemplateSpec) Transform {
	return func(rel string, data []byte) (Output, error) {
		d := dialect.ForFile(rel, data)
		if d == dialect.Plain {
			d = spec.Dialect
		}
		if d == dialect.Plain || d == "" {
			return Output{Rel: rel}, nil
		}
		res := dialect.Convert(d, data, spec.Options)
		target := rel
		if d != dialect.Mako && d != dialect.Haml {
			target = dialect.TargetName(rel, spec.StripUnderscore)
		}
		body := res.Output
		if res.Layout != "" {
			doc := &frontmatter.Document{Fields: map[string]any{"layout": res.Layout}, Body: bytes.TrimLeft(body, "\r\n"), Newline: "\n"}
			rendered, err := doc.Render()
			if err != nil {
				return Output{}, errors.ParseError(err, "render layout front matter").WithPath(rel).Build()
			}
			body = rendered
		}
		desc := fmt.Sprintf("%s template converted to Liquid", d)
		if !res.Changed && target == rel && res.Layout == "" {
			desc = ""
		}
		return Output{Rel: target, Data: body, Description: desc, Warnings: res.Unresolved}, nil
	}
}

// MarkdownIncludeTransform pre-renders Markdown partials to HTML so Liquid
// can include them; other files pass through TemplateTransform.
func MarkdownIncludeTransform(r markdown.Renderer, spec TemplateSpec) Transform {
	templates := TemplateTransform(spec)
	return func(rel string, data []byte) (Output, error) {
		if !hasExt(rel, ".md", ".markdown") {
			return templates(rel, data)
		}
		_, body, _, _, err := frontmatter.Split(data)
		if err != nil {
			return Output{}, errors.ParseError(err, "split include front matter").WithPath(rel).Build()
		}
		html, err := r.Render(body)
		if err != nil {
			return Output{}, errors.ParseError(err, "render markdown include").WithPath(rel).Build()
		}
		target := strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
		dir, base := path.Split(target)
		target = dir + strings.TrimPrefix(base, "_")
		return Output{Rel: target, Data: html, Description: "markdown include rendered to HTML"}, nil
	}
}

// DataTransform converts TOML data files to YAML; Jekyll reads YAML, JSON,
// CSV and TSV directly, so those are copied.
func DataTransform(rel string, data []byte) (Output, error) {
	switch {
	case hasExt(rel, ".toml"):
		fields := map[string]any{}
		if err := toml.Unmarshal(data, &fields); err != nil {
			return Output{}, errors.ParseError(err, "parse TOML data file").WithPath(rel).Build()
		}
		out, err := frontmatter.SerializeYAML(fields, "\n")
		if err != nil {
			return Output{}, errors.ParseError(err, "encode data file as YAML").WithPath(rel).Build()
		}
		return Output{Rel: strings.TrimSuffix(rel, path.Ext(rel)) + ".yml", Data: out, Description: "TOML data converted to YAML"}, nil
	case hasExt(rel, ".yml", ".yaml", ".json", ".csv", ".tsv"):
		return Output{Rel: rel}, nil
	}
	return Output{Rel: rel, Warnings: []string{"data format not read by Jekyll; copied unchanged"}}, nil
}
