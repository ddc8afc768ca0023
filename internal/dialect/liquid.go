package dialect

import "regexp"

// Octopress ships Liquid tags that stock Jekyll does not know.
var octopressRules = []rule{
	{regexp.MustCompile(`{%\s*codeblock\b[^%]*?\blang:(\w+)[^%]*%}`), func(_ Options, m []string) string {
		return "{% highlight " + m[1] + " %}"
	}},
	{regexp.MustCompile(`{%\s*codeblock\b[^%]*%}`), literal("{% highlight text %}")},
	{regexp.MustCompile(`{%\s*endcodeblock\s*%}`), literal("{% endhighlight %}")},
	{regexp.MustCompile(`{%\s*img\s+(?:[a-z]+\s+)*?((?:/|https?://)\S+)(?:\s+\d+){0,2}(?:\s+["']?([^"'%]*?)["']?)?\s*%}`), func(_ Options, m []string) string {
		return "![" + m[2] + "](" + m[1] + ")"
	}},
	{regexp.MustCompile(`{{\s*root_url\s*}}`), literal("{{ site.baseurl }}")},
}

var octopressResidual = regexp.MustCompile(`{%\s*(?:blockquote|pullquote|gist|include_code|render_partial|video|youtube|jsfiddle)\b[^%]*%}`)

func convertOctopressLiquid(src []byte, opts Options) Result {
	out := applyRules(src, octopressRules, opts)
	return Result{Output: out, Unresolved: residual(out, octopressResidual, "Octopress tag")}
}
