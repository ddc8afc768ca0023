// Package markdown wraps goldmark for the two things the migration needs from
// Markdown: rendering fragments to HTML where the target cannot include
// Markdown directly, and finding link destinations for rewriting and audit.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Options enumerates the renderer feature toggles. They are fixed once when the
// renderer is constructed.
type Options struct {
	Tables    bool
	Footnotes bool
	TaskLists bool
	Autolink  bool
	// RawHTML passes inline and block HTML through unchanged.
	RawHTML bool
	// HeadingIDs generates id attributes on headings.
	HeadingIDs bool
}

// DefaultOptions enables everything documentation sites usually rely on.
func DefaultOptions() Options {
	return Options{
		Tables:     true,
		Footnotes:  true,
		TaskLists:  true,
		Autolink:   true,
		RawHTML:    true,
		HeadingIDs: true,
	}
}

// Renderer converts Markdown text to HTML. Implementations are pure and safe
// for reuse.
type Renderer interface {
	Render(src []byte) ([]byte, error)
}

// GoldmarkRenderer is the goldmark-backed Renderer.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer for opts.
func NewRenderer(opts Options) *GoldmarkRenderer {
	var exts []goldmark.Extender
	if opts.Tables {
		exts = append(exts, extension.Table)
	}
	if opts.Footnotes {
		exts = append(exts, extension.Footnote)
	}
	if opts.TaskLists {
		exts = append(exts, extension.TaskList)
	}
	if opts.Autolink {
		exts = append(exts, extension.Linkify)
	}
	exts = append(exts, extension.Strikethrough)

	var parserOpts []parser.Option
	if opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}
	var rendererOpts []goldmark.Option
	if opts.RawHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	all := append([]goldmark.Option{
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
	}, rendererOpts...)
	return &GoldmarkRenderer{md: goldmark.New(all...)}
}

// Render converts src to HTML.
func (r *GoldmarkRenderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
