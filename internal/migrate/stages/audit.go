package stages

import (
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitemigrator/internal/frontmatter"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/htmlrefs"
	"git.home.luguber.info/inful/sitemigrator/internal/markdown"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

var (
	auditDirs    = []string{"_layouts", "_includes"}
	documentDirs = []string{pagesDir, postsDir}
)

// ReportUnmigrated warns once about every source file that a stage left to
// another stage and that nothing migrated.
func ReportUnmigrated(_ context.Context, st *models.State) error {
	for _, src := range st.Unmigrated() {
		fi, err := os.Lstat(filepath.Join(st.Options.SourceDir, filepath.FromSlash(src)))
		if err == nil && fi.Mode()&os.ModeSymlink != 0 {
			st.WarnFile(src, "symbolic link skipped")
			continue
		}
		st.WarnFile(src, "not migrated; no stage handles this file")
	}
	return nil
}

// AuditAssets checks root-relative asset references in migrated layouts and
// includes, and image paths in migrated Markdown documents, against the
// destination tree. Missing targets become warnings; the stage never fails the
// run on a reference it cannot resolve.
func AuditAssets(ctx context.Context, st *models.State) error {
	for _, dir := range auditDirs {
		root := filepath.Join(st.Options.DestDir, dir)
		if !fsutil.IsDir(root) {
			continue
		}
		entries, err := fsutil.Walk(root, nil)
		if err != nil {
			st.Warnf("%s: audit skipped: %v", dir, err)
			continue
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if e.Symlink || !hasExt(e.Rel, htmlExts...) {
				continue
			}
			auditFile(st, fsutil.JoinSlash(dir, e.Rel), e.Abs)
		}
	}
	for _, dir := range documentDirs {
		root := filepath.Join(st.Options.DestDir, dir)
		if !fsutil.IsDir(root) {
			continue
		}
		entries, err := fsutil.Walk(root, nil)
		if err != nil {
			st.Warnf("%s: audit skipped: %v", dir, err)
			continue
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if e.Symlink || !hasExt(e.Rel, markdownExts...) {
				continue
			}
			auditImages(st, fsutil.JoinSlash(dir, e.Rel), e.Abs)
		}
	}
	return nil
}

// auditImages checks root-relative image paths in a migrated Markdown document.
func auditImages(st *models.State, rel, abs string) {
	data, err := os.ReadFile(abs)
	if err != nil {
		st.Warnf("%s: audit skipped: %v", rel, err)
		return
	}
	body := data
	if doc, err := frontmatter.Parse(data); err == nil {
		body = doc.Body
	}
	seen := map[string]bool{}
	for _, link := range markdown.ExtractLinks(body) {
		if link.Kind != markdown.LinkKindImage {
			continue
		}
		p, ok := htmlrefs.LocalPath(link.Destination)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		switch {
		case existsUnder(st.Options.DestDir, p):
		case existsUnder(st.Options.DestDir, assetsDir+"/"+p):
			st.Warnf("%s: image %q moved to /%s/%s", rel, link.Destination, assetsDir, p)
		default:
			st.Warnf("%s: image %q does not resolve to a migrated file", rel, link.Destination)
		}
	}
}

func auditFile(st *models.State, rel, abs string) {
	data, err := os.ReadFile(abs)
	if err != nil {
		st.Warnf("%s: audit skipped: %v", rel, err)
		return
	}
	refs, err := htmlrefs.Extract(data)
	if err != nil {
		st.Warnf("%s: audit incomplete: %v", rel, err)
	}
	seen := map[string]bool{}
	for _, ref := range refs {
		p, ok := htmlrefs.LocalPath(ref.Value)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		switch {
		case existsUnder(st.Options.DestDir, p):
		case existsUnder(st.Options.DestDir, assetsDir+"/"+p):
			st.Warnf("%s: <%s %s=%q> moved to /%s/%s", rel, ref.Tag, ref.Attr, ref.Value, assetsDir, p)
		default:
			st.Warnf("%s: <%s %s=%q> does not resolve to a migrated file", rel, ref.Tag, ref.Attr, ref.Value)
		}
	}
}

func existsUnder(dest, p string) bool {
	return fsutil.Exists(filepath.Join(dest, filepath.FromSlash(p)))
}
