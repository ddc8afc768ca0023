package dialect

import (
	"regexp"
)

var (
	jinjaExtends      = regexp.MustCompile(`{%-?\s*extends\s+["']([^"']+)["']\s*-?%}[ \t]*\r?\n?`)
	jinjaContentBlock = regexp.MustCompile(`(?s){%-?\s*block\s+(?:content|body|main)\s*-?%}(.*?){%-?\s*endblock(?:\s+\w+)?\s*-?%}`)
	jinjaResidual     = regexp.MustCompile(`{%-?\s*(?:block|endblock|macro|endmacro|import|from|call|endcall|filter|endfilter)\b[^%]*%}|\bsuper\(\)|\|\s*\w+\(`)
)

var jinjaRules = []rule{
	{regexp.MustCompile(`{{-?\s*(?:page|section)\.content\s*(?:\|\s*safe\s*)?-?}}`), literal("{{ content }}")},
	{regexp.MustCompile(`\|\s*safe\b`), literal("")},
	{regexp.MustCompile(`\bconfig\.extra\.(\w+)`), func(_ Options, m []string) string { return "site." + m[1] }},
	{regexp.MustCompile(`\bconfig\.(\w+)`), func(_ Options, m []string) string { return "site." + m[1] }},
	{regexp.MustCompile(`get_url\(\s*path\s*=\s*["']([^"']+)["'][^)]*\)`), func(o Options, m []string) string {
		return "'" + o.assetPrefix() + "/" + trimSlash(m[1]) + "' | relative_url"
	}},
	{regexp.MustCompile(`\|\s*date\(\s*(?:format\s*=\s*)?["']([^"']+)["']\s*\)`), func(_ Options, m []string) string {
		return `| date: "` + m[1] + `"`
	}},
	{regexp.MustCompile(`\|\s*url\b`), literal("| relative_url")},
	{regexp.MustCompile(`{%(-?)\s*include\s+["']([^"']+)["']\s*(-?)%}`), func(o Options, m []string) string {
		return "{%" + m[1] + " include " + includeName(m[2], o) + " " + m[3] + "%}"
	}},
	{regexp.MustCompile(`{%(-?)\s*set\s+`), func(_ Options, m []string) string { return "{%" + m[1] + " assign " }},
	{regexp.MustCompile(`{%(-?)\s*elif\b`), func(_ Options, m []string) string { return "{%" + m[1] + " elsif" }},
	{regexp.MustCompile(`\bloop\.(index0|index|first|last|length)\b`), func(_ Options, m []string) string {
		return "forloop." + m[1]
	}},
}

func trimSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

func convertJinja(src []byte, opts Options) Result {
	var res Result
	out := src
	if m := jinjaExtends.FindSubmatch(out); m != nil {
		res.Layout = layoutName(string(m[1]))
		out = jinjaExtends.ReplaceAll(out, nil)
		// Child template: the content block body becomes the page body.
		out = jinjaContentBlock.ReplaceAll(out, []byte("$1"))
	} else {
		out = jinjaContentBlock.ReplaceAll(out, []byte("{{ content }}"))
	}
	out = applyRules(out, jinjaRules, opts)
	res.Output = out
	res.Unresolved = residual(out, jinjaResidual, "Jinja construct")
	return res
}
