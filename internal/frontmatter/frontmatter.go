// Package frontmatter reads the metadata header of source documents (YAML
// `---` or TOML `+++` delimited) and writes Jekyll-style YAML front matter.
package frontmatter

import (
	"bytes"
	"errors"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the front matter syntax found in a source document.
type Format int

const (
	FormatNone Format = iota
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "none"
	}
}

// ErrMissingClosingDelimiter indicates the document opened a front matter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Document is a parsed source document.
type Document struct {
	Format  Format
	Fields  map[string]any
	Body    []byte
	Newline string
}

// Split separates the front matter block from the body.
//
// If the document does not start with `---` or `+++`, format is FormatNone and
// body is the full input.
func Split(content []byte) (raw []byte, body []byte, format Format, newline string, err error) {
	newline = detectNewline(content)

	for _, cand := range []struct {
		delim  string
		format Format
	}{{"---", FormatYAML}, {"+++", FormatTOML}} {
		open := []byte(cand.delim + newline)
		if !bytes.HasPrefix(content, open) {
			continue
		}
		start := len(open)
		if bytes.HasPrefix(content[start:], open) {
			return []byte{}, content[start+len(open):], cand.format, newline, nil
		}
		closeSeq := []byte(newline + cand.delim + newline)
		idx := bytes.Index(content[start:], closeSeq)
		if idx < 0 {
			// A closing delimiter at EOF without trailing newline is still valid.
			tail := []byte(newline + cand.delim)
			if bytes.HasSuffix(content, tail) {
				return content[start : len(content)-len(tail)+len(newline)], []byte{}, cand.format, newline, nil
			}
			return nil, nil, FormatNone, newline, ErrMissingClosingDelimiter
		}
		end := start + idx + len(newline)
		return content[start:end], content[start+idx+len(closeSeq):], cand.format, newline, nil
	}
	return nil, content, FormatNone, newline, nil
}

// Parse splits content and decodes its front matter into a field map.
// Documents without front matter get an empty, non-nil map.
func Parse(content []byte) (*Document, error) {
	raw, body, format, nl, err := Split(content)
	if err != nil {
		return nil, err
	}
	doc := &Document{Format: format, Body: body, Newline: nl, Fields: map[string]any{}}
	switch format {
	case FormatYAML:
		doc.Fields, err = ParseYAML(raw)
	case FormatTOML:
		doc.Fields, err = ParseTOML(raw)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Render emits the document with YAML front matter. An empty field map still
// produces an (empty) block so Jekyll processes the file.
func (d *Document) Render() ([]byte, error) {
	nl := d.Newline
	if nl == "" {
		nl = "\n"
	}
	fm, err := SerializeYAML(d.Fields, nl)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(fm)+len(d.Body)+8)
	out = append(out, "---"+nl...)
	out = append(out, fm...)
	out = append(out, "---"+nl...)
	out = append(out, d.Body...)
	return out, nil
}

// ParseYAML parses raw YAML front matter (without delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ParseTOML parses raw TOML front matter (without delimiters) into a map.
func ParseTOML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := toml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
