package frontmatter

import (
	"bufio"
	"bytes"
	"strings"
)

// ParseMetaComment extracts reStructuredText-style metadata (`.. key: value`)
// from an HTML comment at the top of a Markdown body, the form Nikola writes.
// It returns the fields, the body with the comment removed, and whether a
// block was found.
func ParseMetaComment(body []byte) (map[string]any, []byte, bool) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("<!--")) {
		return nil, body, false
	}
	end := bytes.Index(trimmed, []byte("-->"))
	if end < 0 {
		return nil, body, false
	}
	fields := ParseMetaLines(trimmed[len("<!--"):end])
	if len(fields) == 0 {
		return nil, body, false
	}
	rest := bytes.TrimLeft(trimmed[end+len("-->"):], "\r\n")
	return fields, rest, true
}

// ParseMetaLines parses `.. key: value` lines (the Nikola .meta format).
// Lines without the marker are ignored; empty values are dropped.
func ParseMetaLines(data []byte) map[string]any {
	fields := map[string]any{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "..") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimSpace(line[2:]), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if key == "tags" || key == "category" {
			fields[key] = splitList(value)
			continue
		}
		fields[key] = value
	}
	return fields
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
