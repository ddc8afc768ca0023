package stages

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitemigrator/internal/dialect"
	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/frontmatter"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/markdown"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

const (
	postsDir  = "_posts"
	pagesDir  = "_pages"
	assetsDir = "assets"
)

// ContentSpec configures the shared posts/pages converter.
type ContentSpec struct {
	SourceSubdir string
	// Exclude lists subpaths owned by other stages; their files are deferred.
	Exclude []string
	// Ignore lists subpaths that are not site content and are never walked.
	Ignore []string
	// Dialect rewrites template constructs inside document bodies.
	Dialect        dialect.Dialect
	DialectOptions dialect.Options
	// MetaSidecars merges Nikola-style `name.meta` files into the document
	// they sit next to.
	MetaSidecars bool
	// PagesOnly routes every document to _pages even when it carries a date.
	PagesOnly bool
	// DocumentsOnly defers files that are not documents instead of copying
	// them as assets.
	DocumentsOnly bool
	// SkipPartials defers `_name` files to the stages that migrate includes.
	SkipPartials bool
	// Fields adjusts front matter after the shared normalization.
	Fields func(rel string, fields map[string]any)
	// Body adjusts the converted document body and may return warnings.
	Body func(rel string, fields map[string]any, body []byte) ([]byte, []string)
}

var (
	markdownExts = []string{".md", ".markdown", ".mdown", ".mkd", ".mkdn"}
	htmlExts     = []string{".html", ".htm"}
	// Markup Jekyll cannot render without plugins.
	unsupportedExts = []string{".rst", ".ipynb", ".adoc", ".asciidoc", ".org", ".textile"}
	datePrefix      = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)
	titleCaser      = cases.Title(language.English)
)

// route is the planned destination of one content file.
type route struct {
	entry    fsutil.Entry
	srcRel   string
	dest     string
	kind     routeKind
	template dialect.Dialect
	date     time.Time
	doc      *frontmatter.Document
	sidecar  string
}

type routeKind int

const (
	routeDocument routeKind = iota
	routeUnsupported
	routeAsset
	routeSidecar
)

// ConvertContent returns the content stage: documents get Jekyll front matter
// and land in _posts (when dated) or _pages, everything else goes to assets.
// Routes are planned for every file first so intra-site links can be
// rewritten to their final destinations.
func ConvertContent(spec ContentSpec) models.Stage {
	return func(ctx context.Context, st *models.State) error {
		root := filepath.Join(st.Options.SourceDir, filepath.FromSlash(spec.SourceSubdir))
		if !fsutil.IsDir(root) {
			return nil
		}
		entries, err := fsutil.Walk(root, excludeFunc(spec.Ignore))
		if err != nil {
			return errors.IOError(err, "walk content tree").WithPath(root).Build()
		}
		routes, bySource, err := planRoutes(st, spec, entries)
		if err != nil {
			return err
		}
		for _, r := range routes {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := st.Fail(r.srcRel, writeRoute(st, spec, r, bySource)); err != nil {
				return err
			}
		}
		return nil
	}
}

func planRoutes(st *models.State, spec ContentSpec, entries []fsutil.Entry) ([]*route, map[string]*route, error) {
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.Rel] = true
	}
	routes := make([]*route, 0, len(entries))
	bySource := make(map[string]*route, len(entries))
	excluded := excludeFunc(spec.Exclude)
	for _, e := range entries {
		srcRel := fsutil.JoinSlash(spec.SourceSubdir, e.Rel)
		switch {
		case excluded != nil && excluded(e.Rel, false),
			spec.SkipPartials && strings.HasPrefix(path.Base(e.Rel), "_"),
			spec.DocumentsOnly && !isDocument(e.Rel):
			st.Defer(srcRel)
			continue
		}
		if e.Symlink {
			st.WarnFile(srcRel, "symbolic link skipped")
			continue
		}
		r := &route{entry: e, srcRel: srcRel}
		switch {
		case spec.MetaSidecars && hasExt(e.Rel, ".meta") && sidecarOwner(e.Rel, present) != "":
			r.kind = routeSidecar
			r.sidecar = sidecarOwner(e.Rel, present)
		case isDocument(e.Rel):
			if err := planDocument(st, spec, r, present); err != nil {
				if ferr := st.Fail(srcRel, err); ferr != nil {
					return nil, nil, ferr
				}
				continue
			}
		case hasExt(e.Rel, unsupportedExts...):
			r.kind = routeUnsupported
			r.dest = fsutil.JoinSlash(pagesDir, e.Rel)
		default:
			r.kind = routeAsset
			r.dest = fsutil.JoinSlash(assetsDir, strings.TrimPrefix(e.Rel, assetsDir+"/"))
		}
		routes = append(routes, r)
		bySource[e.Rel] = r
	}
	for _, r := range routes {
		if r.kind == routeSidecar {
			if owner := bySource[r.sidecar]; owner != nil {
				r.dest = owner.dest
			}
		}
	}
	return routes, bySource, nil
}

func isDocument(rel string) bool {
	if hasExt(rel, markdownExts...) || hasExt(rel, htmlExts...) {
		return true
	}
	d := dialect.ForFile(rel, nil)
	return d != dialect.Plain && d != dialect.Mako && d != dialect.Haml
}

// sidecarOwner returns the document a `.meta` file describes.
func sidecarOwner(rel string, present map[string]bool) string {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	for _, group := range [][]string{markdownExts, htmlExts, unsupportedExts} {
		for _, ext := range group {
			if present[stem+ext] {
				return stem + ext
			}
		}
	}
	return ""
}

func planDocument(st *models.State, spec ContentSpec, r *route, present map[string]bool) error {
	data, err := os.ReadFile(r.entry.Abs)
	if err != nil {
		return errors.IOError(err, "read content file").WithPath(r.entry.Abs).Build()
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return errors.ParseError(err, "parse front matter").WithPath(r.srcRel).Build()
	}
	if fields, body, ok := frontmatter.ParseMetaComment(doc.Body); ok && doc.Format == frontmatter.FormatNone {
		doc.Fields, doc.Body = fields, body
	}
	if spec.MetaSidecars {
		stem := strings.TrimSuffix(r.entry.Rel, path.Ext(r.entry.Rel))
		if present[stem+".meta"] {
			meta, err := os.ReadFile(filepath.Join(filepath.Dir(r.entry.Abs), path.Base(stem)+".meta"))
			if err != nil {
				return errors.IOError(err, "read metadata sidecar").WithPath(stem + ".meta").Build()
			}
			for k, v := range frontmatter.ParseMetaLines(meta) {
				if _, exists := doc.Fields[k]; !exists {
					doc.Fields[k] = v
				}
			}
		}
	}

	r.kind = routeDocument
	r.doc = doc
	name := documentName(r.entry.Rel)
	r.template = dialect.ForFile(r.entry.Rel, data)
	if r.template == dialect.Plain {
		r.template = spec.Dialect
	} else {
		name = dialect.TargetName(name, false)
	}
	dir := path.Dir(r.entry.Rel)
	if dir == "." {
		dir = ""
	}

	date, _, dated := frontmatter.DateField(doc.Fields, "date", "created", "pubDate")
	slug := strings.TrimSuffix(name, path.Ext(name))
	if m := datePrefix.FindStringSubmatch(slug); m != nil {
		if !dated {
			if t, err := time.Parse("2006-01-02", m[1]); err == nil {
				date, dated = t, true
			}
		}
		slug = m[2]
	}
	if s, ok := doc.Fields["slug"].(string); ok && s != "" {
		slug = s
	}
	if slug == "index" && dir != "" {
		slug = path.Base(dir)
	}

	ext := path.Ext(name)
	if dated && !spec.PagesOnly {
		r.date = date
		r.dest = fsutil.JoinSlash(postsDir, date.Format("2006-01-02")+"-"+slugify(slug)+ext)
	} else {
		r.dest = fsutil.JoinSlash(pagesDir, publicDir(dir), name)
		_, hasPermalink := doc.Fields["permalink"]
		_, hasPath := doc.Fields["path"]
		if strings.TrimSuffix(name, path.Ext(name)) == "index" && !hasPermalink && !hasPath {
			doc.Fields["permalink"] = indexPermalink(publicDir(dir))
		}
	}
	if _, ok := doc.Fields["title"]; !ok {
		doc.Fields["title"] = TitleFromSlug(slug)
	}
	return nil
}

// documentName normalizes a source document file name: Middleman-style
// double extensions collapse ("index.html.md" -> "index.md") and section
// files become plain index pages ("_index.md" -> "index.md").
func documentName(rel string) string {
	base := path.Base(rel)
	lower := strings.ToLower(base)
	for _, ext := range markdownExts {
		if strings.HasSuffix(lower, ".html"+ext) {
			base = base[:len(base)-len(".html"+ext)] + base[len(base)-len(ext):]
			break
		}
	}
	if strings.HasPrefix(base, "_index.") {
		base = base[1:]
	}
	return base
}

// publicDir drops leading underscores from directory names; Jekyll treats
// underscored directories as special.
func publicDir(dir string) string {
	if dir == "" {
		return ""
	}
	parts := strings.Split(dir, "/")
	for i, p := range parts {
		if t := strings.TrimLeft(p, "_"); t != "" {
			parts[i] = t
		}
	}
	return strings.Join(parts, "/")
}

// indexPermalink serves an index page at its directory URL instead of
// the `/:path/` collection default, which would end in "/index/".
func indexPermalink(dir string) string {
	if dir == "" {
		return "/"
	}
	return "/" + dir + "/"
}

// slugify lowercases s and joins its runs of letters and digits (in any
// script) with dashes. A slug without any falls back to s itself.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	if out := strings.TrimSuffix(b.String(), "-"); out != "" {
		return out
	}
	return strings.ReplaceAll(s, "/", "-")
}

// TitleFromSlug turns "getting-started" into "Getting Started".
func TitleFromSlug(slug string) string {
	words := strings.FieldsFunc(strings.TrimPrefix(slug, "_"), func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	return titleCaser.String(strings.Join(words, " "))
}

func writeRoute(st *models.State, spec ContentSpec, r *route, bySource map[string]*route) error {
	switch r.kind {
	case routeSidecar:
		desc := "metadata merged into " + r.dest
		if r.dest == "" {
			desc = "metadata sidecar without a migrated document"
		}
		st.RecordChange(models.Change{FilePath: fsutil.JoinSlash(pagesDir, r.entry.Rel), Type: models.ChangeSkipped, Description: desc, Source: r.srcRel})
		return nil
	case routeUnsupported:
		st.Warnf("%s: %s markup is not rendered by Jekyll; copied unchanged", r.srcRel, strings.TrimPrefix(path.Ext(r.entry.Rel), "."))
		return copyAsIs(st, r, "unsupported markup copied")
	case routeAsset:
		return copyAsIs(st, r, "content asset copied from "+r.srcRel)
	}
	return writeDocument(st, spec, r, bySource)
}

func copyAsIs(st *models.State, r *route, desc string) error {
	if !claim(st, r.dest, r.srcRel) {
		return nil
	}
	if err := fsutil.CopyFile(r.entry.Abs, filepath.Join(st.Options.DestDir, filepath.FromSlash(r.dest))); err != nil {
		return errors.WriteError(err, "copy content file").WithPath(r.dest).Build()
	}
	st.RecordChange(models.Change{FilePath: r.dest, Type: models.ChangeCopied, Description: desc, Source: r.srcRel})
	return nil
}

func writeDocument(st *models.State, spec ContentSpec, r *route, bySource map[string]*route) error {
	doc := r.doc
	normalizeFields(doc.Fields)
	if !r.date.IsZero() {
		doc.Fields["date"] = r.date
	}
	if spec.Fields != nil {
		spec.Fields(r.entry.Rel, doc.Fields)
	}

	body := doc.Body
	if r.template != dialect.Plain && r.template != "" {
		res := dialect.Convert(r.template, body, spec.DialectOptions)
		body = res.Output
		if res.Layout != "" {
			if _, ok := doc.Fields["layout"]; !ok {
				doc.Fields["layout"] = res.Layout
			}
		}
		for _, u := range res.Unresolved {
			st.Warnf("%s: %s", r.srcRel, u)
		}
	}
	if spec.Body != nil {
		var notes []string
		body, notes = spec.Body(r.entry.Rel, doc.Fields, body)
		for _, n := range notes {
			st.Warnf("%s: %s", r.srcRel, n)
		}
	}
	isMarkdown := hasExt(r.dest, markdownExts...)
	if isMarkdown {
		body, _ = markdown.RewriteLinks(body, linkResolver(r, bySource))
	}
	doc.Body = body

	out, err := doc.Render()
	if err != nil {
		return errors.ParseError(err, "render front matter").WithPath(r.srcRel).Build()
	}
	var fp string
	if isMarkdown {
		if fp, err = frontmatter.Fingerprint(doc.Fields, body); err != nil {
			return errors.InternalError("fingerprint document").WithCause(err).WithPath(r.srcRel).Build()
		}
	}
	if !claim(st, r.dest, r.srcRel) {
		return nil
	}
	if err := fsutil.WriteFile(filepath.Join(st.Options.DestDir, filepath.FromSlash(r.dest)), out); err != nil {
		return errors.WriteError(err, "write document").WithPath(r.dest).Build()
	}
	kind := "page"
	if strings.HasPrefix(r.dest, postsDir+"/") {
		kind = "post"
	}
	desc := fmt.Sprintf("%s converted from %s", kind, r.srcRel)
	if doc.Format == frontmatter.FormatTOML {
		desc += " (TOML front matter rewritten as YAML)"
	}
	st.RecordChange(models.Change{
		FilePath:    r.dest,
		Type:        models.ChangeConverted,
		Description: desc,
		Source:      r.srcRel,
		Fingerprint: fp,
	})
	return nil
}

// linkResolver maps relative links between migrated documents to Jekyll
// `{% link %}` tags. Zola's `@/` content paths are resolved from the content root.
func linkResolver(from *route, bySource map[string]*route) func(string) (string, bool) {
	return func(dest string) (string, bool) {
		if markdown.IsExternal(dest) || strings.HasPrefix(dest, "/") {
			return "", false
		}
		var target string
		if rest, ok := strings.CutPrefix(dest, "@/"); ok {
			target = path.Clean(rest)
		} else {
			target = path.Join(path.Dir(from.entry.Rel), dest)
		}
		r, ok := bySource[target]
		if !ok && !hasExt(target, markdownExts...) && !hasExt(target, htmlExts...) {
			r, ok = bySource[strings.TrimSuffix(target, "/")+"/index.md"]
		}
		if !ok || r.dest == "" || r.kind == routeSidecar {
			return "", false
		}
		return "{% link " + r.dest + " %}", true
	}
}

// normalizeFields maps common source generator keys onto Jekyll's.
func normalizeFields(fields map[string]any) {
	if draft, ok := fields["draft"].(bool); ok {
		delete(fields, "draft")
		if draft {
			fields["published"] = false
		}
	}
	if tax, ok := fields["taxonomies"].(map[string]any); ok {
		for k, v := range tax {
			if _, exists := fields[k]; !exists {
				fields[k] = v
			}
		}
		delete(fields, "taxonomies")
	}
	if extra, ok := fields["extra"].(map[string]any); ok {
		for k, v := range extra {
			if _, exists := fields[k]; !exists {
				fields[k] = v
			}
		}
		delete(fields, "extra")
	}
	for _, key := range []string{"tags", "categories", "category"} {
		if s, ok := fields[key].(string); ok {
			fields[key] = splitTags(s)
		}
	}
	if layout, ok := fields["layout"].(string); ok && path.Ext(layout) != "" {
		fields["layout"] = strings.TrimSuffix(path.Base(dialect.TargetName(layout, false)), ".html")
	}
	if tpl, ok := fields["template"].(string); ok {
		if _, exists := fields["layout"]; !exists {
			fields["layout"] = strings.TrimSuffix(path.Base(tpl), path.Ext(tpl))
		}
		delete(fields, "template")
	}
	for _, key := range []string{"updated", "modified", "lastmod"} {
		if v, ok := fields[key]; ok {
			if _, exists := fields["last_modified_at"]; !exists {
				fields["last_modified_at"] = v
			}
			delete(fields, key)
		}
	}
	if p, ok := fields["path"].(string); ok {
		if _, exists := fields["permalink"]; !exists {
			fields["permalink"] = "/" + strings.Trim(p, "/") + "/"
		}
		delete(fields, "path")
	}
}

func splitTags(s string) []string {
	sep := ","
	if !strings.Contains(s, ",") {
		sep = " "
	}
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
