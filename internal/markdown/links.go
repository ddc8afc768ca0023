package markdown

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// ExtractLinks parses a Markdown body (front matter removed) and returns every
// link-like destination in document order, reference definitions last.
func ExtractLinks(body []byte) []Link {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links
}

// IsExternal reports whether dest points off-site (scheme or protocol-relative)
// or is a pure in-page anchor.
func IsExternal(dest string) bool {
	low := strings.ToLower(dest)
	return strings.HasPrefix(dest, "#") ||
		strings.HasPrefix(low, "//") ||
		strings.Contains(low, "://") ||
		strings.HasPrefix(low, "mailto:") ||
		strings.HasPrefix(low, "tel:")
}

var inlineLinkRe = regexp.MustCompile(`(!?\[[^\]]*\])\(([^)\s]+)((?:\s+"[^"]*")?)\)`)

// RewriteLinks rewrites inline link and image destinations. resolve receives
// the destination with any #fragment split off and returns the replacement
// and whether to rewrite. Fragments are re-attached.
func RewriteLinks(body []byte, resolve func(dest string) (string, bool)) ([]byte, int) {
	count := 0
	out := inlineLinkRe.ReplaceAllFunc(body, func(m []byte) []byte {
		parts := inlineLinkRe.FindSubmatch(m)
		dest := string(parts[2])
		if IsExternal(dest) {
			return m
		}
		fragment := ""
		if i := strings.IndexByte(dest, '#'); i >= 0 {
			dest, fragment = dest[:i], dest[i:]
		}
		replacement, ok := resolve(dest)
		if !ok {
			return m
		}
		count++
		return []byte(string(parts[1]) + "(" + replacement + fragment + string(parts[3]) + ")")
	})
	return out, count
}
