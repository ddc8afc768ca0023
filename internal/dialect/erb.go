package dialect

import (
	"path"
	"regexp"
	"strings"
)

var erbRules = []rule{
	{regexp.MustCompile(`<%=\s*yield(?:_content)?\s*%>`), literal("{{ content }}")},
	{regexp.MustCompile(`<%=\s*(?:partial|render)\b\s*\(?\s*:?["']?([\w/.*-]+)["']?\s*\)?\s*%>`), func(o Options, m []string) string {
		return "{% include " + includeName(m[1], o) + " %}"
	}},
	{regexp.MustCompile(`<%=\s*current_page\.data\.(\w+)\s*%>`), func(_ Options, m []string) string {
		return "{{ page." + m[1] + " }}"
	}},
	{regexp.MustCompile(`<%=\s*current_(?:article|page)\.title\s*%>`), literal("{{ page.title }}")},
	{regexp.MustCompile(`<%=\s*current_article\.body\s*%>`), literal("{{ content }}")},
	{regexp.MustCompile(`<%=\s*@item\[:(\w+)\]\s*%>`), func(_ Options, m []string) string {
		return "{{ page." + m[1] + " }}"
	}},
	{regexp.MustCompile(`<%=\s*@config\[:(\w+)\]\s*%>`), func(_ Options, m []string) string {
		return "{{ site." + m[1] + " }}"
	}},
	{regexp.MustCompile(`<%=\s*(?:config|data\.site)\[:(\w+)\]\s*%>`), func(_ Options, m []string) string {
		return "{{ site." + m[1] + " }}"
	}},
	{regexp.MustCompile(`<%=\s*stylesheet_link_tag\s*\(?\s*:?["']?([\w/.-]+)["']?[^%]*%>`), func(o Options, m []string) string {
		return `<link rel="stylesheet" href="{{ '` + assetURL(o, "stylesheets", m[1], ".css") + `' | relative_url }}">`
	}},
	{regexp.MustCompile(`<%=\s*javascript_include_tag\s*\(?\s*:?["']?([\w/.-]+)["']?[^%]*%>`), func(o Options, m []string) string {
		return `<script src="{{ '` + assetURL(o, "javascripts", m[1], ".js") + `' | relative_url }}"></script>`
	}},
	{regexp.MustCompile(`<%=\s*image_tag\s*\(?\s*["']([^"']+)["'][^%]*%>`), func(o Options, m []string) string {
		return `<img src="{{ '` + assetURL(o, "images", m[1], "") + `' | relative_url }}">`
	}},
	{regexp.MustCompile(`<%=\s*page_classes\s*%>`), literal("{{ page.layout }}")},
	{regexp.MustCompile(`(?s)<%#(.*?)%>`), func(_ Options, m []string) string {
		return "{% comment %}" + m[1] + "{% endcomment %}"
	}},
}

var erbResidual = regexp.MustCompile(`<%[=-]?.*?%>|<%`)

func assetURL(o Options, kind, ref, ext string) string {
	if strings.HasPrefix(ref, "/") || strings.Contains(ref, "://") {
		return ref
	}
	if ext != "" && path.Ext(ref) == "" {
		ref += ext
	}
	return o.assetPrefix() + "/" + kind + "/" + ref
}

func convertERB(src []byte, opts Options) Result {
	out := applyRules(src, erbRules, opts)
	return Result{Output: out, Unresolved: residual(out, erbResidual, "ERB expression")}
}
