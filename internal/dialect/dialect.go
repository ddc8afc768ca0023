// Package dialect rewrites template source text from a source generator's
// templating language into Jekyll Liquid where a mechanical mapping exists.
// Templates are never evaluated. Constructs without an equivalent are left in
// place and reported as Unresolved so the caller can raise a warning.
package dialect

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// Dialect identifies a template language.
type Dialect string

const (
	ERB        Dialect = "erb"
	Jinja      Dialect = "jinja" // Jinja2, Tera, Nunjucks
	Blade      Dialect = "blade"
	Handlebars Dialect = "handlebars"
	Liquid     Dialect = "liquid"
	Mako       Dialect = "mako"
	Haml       Dialect = "haml"
	Plain      Dialect = "plain"
)

// Options tune include and asset path mapping for one engine's layout.
type Options struct {
	// IncludePrefixes are stripped from include paths, e.g. "partials/".
	IncludePrefixes []string
	// AssetPrefix is the destination URL prefix for asset helpers; default "/assets".
	AssetPrefix string
}

func (o Options) assetPrefix() string {
	if o.AssetPrefix == "" {
		return "/assets"
	}
	return strings.TrimSuffix(o.AssetPrefix, "/")
}

// Result is the outcome of converting one template.
type Result struct {
	Output  []byte
	Changed bool
	// Layout is the parent layout name when the template extends another one.
	Layout string
	// Unresolved lists constructs left for manual follow-up, in source order.
	Unresolved []string
}

// rule is one mechanical rewrite.
type rule struct {
	re   *regexp.Regexp
	repl func(opts Options, m []string) string
}

func literal(s string) func(Options, []string) string {
	return func(Options, []string) string { return s }
}

func applyRules(src []byte, rules []rule, opts Options) []byte {
	out := src
	for _, r := range rules {
		out = r.re.ReplaceAllFunc(out, func(m []byte) []byte {
			sub := r.re.FindSubmatch(m)
			groups := make([]string, len(sub))
			for i, g := range sub {
				groups[i] = string(g)
			}
			return []byte(r.repl(opts, groups))
		})
	}
	return out
}

// residual reports one entry per line that still matches re.
func residual(out []byte, re *regexp.Regexp, what string) []string {
	var notes []string
	for i, line := range bytes.Split(out, []byte("\n")) {
		if m := re.Find(line); m != nil {
			notes = append(notes, fmt.Sprintf("line %d: %s %q", i+1, what, strings.TrimSpace(string(m))))
		}
	}
	return notes
}

// Convert rewrites src from d into Liquid.
func Convert(d Dialect, src []byte, opts Options) Result {
	var res Result
	switch d {
	case ERB:
		res = convertERB(src, opts)
	case Jinja:
		res = convertJinja(src, opts)
	case Blade:
		res = convertBlade(src, opts)
	case Handlebars:
		res = convertHandlebars(src, opts)
	case Liquid:
		res = convertOctopressLiquid(src, opts)
	case Mako:
		res = Result{Output: src, Unresolved: []string{"Mako templates have no Liquid equivalent; copied unchanged"}}
	case Haml:
		res = Result{Output: src, Unresolved: []string{"Haml templates must be rewritten as HTML with Liquid; copied unchanged"}}
	default:
		res = Result{Output: src}
	}
	res.Changed = !bytes.Equal(res.Output, src)
	return res
}

var templateExts = []string{".erb", ".haml", ".slim", ".njk", ".hbs", ".handlebars", ".tera", ".jinja", ".jinja2", ".j2", ".tmpl", ".liquid", ".mustache", ".mako"}

// ForFile guesses the dialect of a template from its name and, for ambiguous
// extensions, its content.
func ForFile(name string, content []byte) Dialect {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".blade.php"):
		return Blade
	case strings.HasSuffix(lower, ".erb"):
		return ERB
	case strings.HasSuffix(lower, ".haml"), strings.HasSuffix(lower, ".slim"):
		return Haml
	case strings.HasSuffix(lower, ".hbs"), strings.HasSuffix(lower, ".handlebars"), strings.HasSuffix(lower, ".mustache"):
		return Handlebars
	case strings.HasSuffix(lower, ".mako"):
		return Mako
	case strings.HasSuffix(lower, ".njk"), strings.HasSuffix(lower, ".tera"), strings.HasSuffix(lower, ".jinja"),
		strings.HasSuffix(lower, ".jinja2"), strings.HasSuffix(lower, ".j2"):
		return Jinja
	case strings.HasSuffix(lower, ".liquid"):
		return Liquid
	case strings.HasSuffix(lower, ".tmpl"):
		if bytes.Contains(content, []byte("${")) || bytes.Contains(content, []byte("<%inherit")) || bytes.Contains(content, []byte("<%namespace")) {
			return Mako
		}
		return Jinja
	case strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm"):
		if bytes.Contains(content, []byte("<%=")) || bytes.Contains(content, []byte("<% ")) {
			return ERB
		}
	}
	return Plain
}

// TargetName maps a template file name to its Jekyll name: template
// extensions are dropped, ".html" is added when no output extension remains,
// and a leading partial underscore is removed when stripUnderscore is set.
func TargetName(name string, stripUnderscore bool) string {
	dir, base := path.Split(name)
	lower := strings.ToLower(base)
	if strings.HasSuffix(lower, ".blade.php") {
		base = base[:len(base)-len(".blade.php")]
	} else {
		for _, ext := range templateExts {
			if strings.HasSuffix(lower, ext) {
				base = base[:len(base)-len(ext)]
				break
			}
		}
	}
	if path.Ext(base) == "" {
		base += ".html"
	}
	if stripUnderscore && strings.HasPrefix(base, "_") && len(base) > 1 {
		base = base[1:]
	}
	return dir + base
}

// includeName normalises a referenced partial into a Jekyll include path.
func includeName(ref string, opts Options) string {
	ref = strings.Trim(strings.TrimSpace(ref), `"'`)
	ref = strings.TrimPrefix(ref, "/")
	ref = strings.TrimSuffix(ref, ".*")
	prefixes := append([]string(nil), opts.IncludePrefixes...)
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, p := range prefixes {
		if strings.HasPrefix(ref, p) {
			ref = strings.TrimPrefix(ref, p)
			break
		}
	}
	return TargetName(ref, true)
}

func layoutName(ref string) string {
	ref = strings.Trim(strings.TrimSpace(ref), `"'`)
	base := path.Base(TargetName(ref, false))
	return strings.TrimSuffix(base, path.Ext(base))
}
