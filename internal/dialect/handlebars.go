package dialect

import "regexp"

var handlebarsRules = []rule{
	{regexp.MustCompile(`{{{\s*contents\s*}}}`), literal("{{ content }}")},
	{regexp.MustCompile(`{{>\s*["']?([\w/.-]+)["']?\s*}}`), func(o Options, m []string) string {
		return "{% include " + includeName(m[1], o) + " %}"
	}},
	{regexp.MustCompile(`{{{?\s*(title|description|date|author|tags)\s*}?}}`), func(_ Options, m []string) string {
		return "{{ page." + m[1] + " }}"
	}},
	{regexp.MustCompile(`{{{\s*([\w.]+)\s*}}}`), func(_ Options, m []string) string { return "{{ " + m[1] + " }}" }},
	{regexp.MustCompile(`{{!--(.*?)--}}|{{!([^}]*)}}`), func(_ Options, m []string) string {
		return "{% comment %}" + m[1] + m[2] + "{% endcomment %}"
	}},
}

var handlebarsResidual = regexp.MustCompile(`{{[#/^][^}]*}}|{{\s*this\b[^}]*}}|{{\s*@\w+[^}]*}}`)

func convertHandlebars(src []byte, opts Options) Result {
	out := applyRules(src, handlebarsRules, opts)
	return Result{Output: out, Unresolved: residual(out, handlebarsResidual, "Handlebars block")}
}
