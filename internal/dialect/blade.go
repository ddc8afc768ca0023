package dialect

import (
	"regexp"
	"strings"
)

var (
	bladeExtends = regexp.MustCompile(`@extends\(\s*['"]([^'"]+)['"]\s*\)[ \t]*\r?\n?`)
	bladeSection = regexp.MustCompile(`(?s)@section\(\s*['"](?:content|body)['"]\s*\)[ \t]*\r?\n?(.*?)@(?:endsection|stop)[ \t]*\r?\n?`)
	bladeResidual = regexp.MustCompile(`(?m)^\s*@(?:if|elseif|else|endif|foreach|endforeach|for|endfor|forelse|endforelse|unless|endunless|isset|endisset|php|endphp|section|endsection|push|endpush|stack|component|endcomponent|slot|endslot)\b.*$|\$\w+`)
)

var bladeRules = []rule{
	{regexp.MustCompile(`@yield\(\s*['"](?:content|body)['"]\s*\)`), literal("{{ content }}")},
	{regexp.MustCompile(`@yield\(\s*['"](\w+)['"]\s*(?:,[^)]*)?\)`), func(_ Options, m []string) string {
		return "{{ page." + m[1] + " }}"
	}},
	{regexp.MustCompile(`@include\(\s*['"]([\w.\-/]+)['"][^)]*\)`), func(o Options, m []string) string {
		return "{% include " + includeName(bladeRef(m[1]), o) + " %}"
	}},
	{regexp.MustCompile(`mix\(\s*['"]([^'"]+)['"][^)]*\)`), func(_ Options, m []string) string {
		return "'" + m[1] + "' | relative_url"
	}},
	{regexp.MustCompile(`\$page->(siteName|site_name)\b`), literal("site.title")},
	{regexp.MustCompile(`\$page->(siteDescription|site_description)\b`), literal("site.description")},
	{regexp.MustCompile(`\$page->baseUrl\b`), literal("site.url")},
	{regexp.MustCompile(`\$page->(\w+)`), func(_ Options, m []string) string { return "page." + m[1] }},
	{regexp.MustCompile(`{!!\s*(.*?)\s*!!}`), func(_ Options, m []string) string { return "{{ " + m[1] + " }}" }},
	{regexp.MustCompile(`{{--(.*?)--}}`), func(_ Options, m []string) string {
		return "{% comment %}" + m[1] + "{% endcomment %}"
	}},
}

// bladeRef turns a dotted view name like "_partials.nav" into a path.
func bladeRef(ref string) string {
	return strings.ReplaceAll(ref, ".", "/")
}

func convertBlade(src []byte, opts Options) Result {
	var res Result
	out := src
	if m := bladeExtends.FindSubmatch(out); m != nil {
		res.Layout = layoutName(bladeRef(string(m[1])))
		out = bladeExtends.ReplaceAll(out, nil)
		out = bladeSection.ReplaceAll(out, []byte("$1"))
	}
	out = applyRules(out, bladeRules, opts)
	res.Output = out
	res.Unresolved = residual(out, bladeResidual, "Blade construct")
	return res
}
