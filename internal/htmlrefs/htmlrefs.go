// Package htmlrefs finds asset references (stylesheets, scripts, images) in
// HTML layouts so the migration can audit them against the migrated tree.
package htmlrefs

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Ref is one asset reference found in a document.
type Ref struct {
	Tag   string
	Attr  string
	Value string
}

var assetAttrs = map[string]string{
	"link":   "href",
	"script": "src",
	"img":    "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
}

// Extract tokenizes doc and returns asset references in document order.
// The tokenizer is used instead of a full parse so template markup between
// tags does not disturb the result.
func Extract(doc []byte) ([]Ref, error) {
	z := html.NewTokenizer(bytes.NewReader(doc))
	var refs []Ref
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return refs, nil
			}
			return refs, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			want, ok := assetAttrs[tok.Data]
			if !ok {
				continue
			}
			for _, a := range tok.Attr {
				if a.Key == want && strings.TrimSpace(a.Val) != "" {
					refs = append(refs, Ref{Tag: tok.Data, Attr: a.Key, Value: strings.TrimSpace(a.Val)})
				}
			}
		}
	}
}

// LocalPath returns the site-root-relative path of a reference, without the
// leading slash, query or fragment. ok is false for external URLs, relative
// paths and values containing template expressions.
func LocalPath(value string) (string, bool) {
	if strings.Contains(value, "{{") || strings.Contains(value, "{%") {
		return "", false
	}
	if !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.Path == "" {
		return "", false
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		return "", false
	}
	return p, true
}
