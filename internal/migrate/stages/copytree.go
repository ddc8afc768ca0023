package stages

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// Output is what a Transform decided for one file.
type Output struct {
	// Rel is the destination path relative to the tree's DestSubdir.
	Rel string
	// Data replaces the file content; nil copies the source bytes.
	Data        []byte
	Description string
	Warnings    []string
	// Skip records the file as Skipped instead of writing it.
	Skip bool
	// Fingerprint is carried onto the recorded change.
	Fingerprint string
}

// Transform maps one source file (relative path and content) to its output.
type Transform func(rel string, data []byte) (Output, error)

// TreeSpec describes one structural copy.
type TreeSpec struct {
	SourceSubdir string
	DestSubdir   string
	// Exclude lists slash-separated subpaths of SourceSubdir owned by other
	// stages. Their files are deferred, not dropped.
	Exclude []string
	// Ignore lists subpaths that are not site content (dependencies, build
	// output). They are never walked.
	Ignore []string
	// Filter keeps only files it returns true for; nil keeps everything.
	// Files it rejects are deferred like excluded ones.
	Filter    func(rel string) bool
	Transform Transform
	// Readme, when set, is written as DestSubdir/README.md after the copy.
	Readme string
}

// CopyTree returns a stage that copies spec's subtree into the destination.
func CopyTree(spec TreeSpec) models.Stage {
	return func(ctx context.Context, st *models.State) error {
		return copyTree(ctx, st, spec)
	}
}

func copyTree(ctx context.Context, st *models.State, spec TreeSpec) error {
	root := filepath.Join(st.Options.SourceDir, filepath.FromSlash(spec.SourceSubdir))
	var entries []fsutil.Entry
	switch {
	case fsutil.IsFile(root):
		// A single file is copied into DestSubdir under its own name.
		entries = []fsutil.Entry{{Rel: filepath.Base(root), Abs: root}}
		spec.SourceSubdir = path.Dir(spec.SourceSubdir)
	case fsutil.IsDir(root):
		var err error
		if entries, err = fsutil.Walk(root, excludeFunc(spec.Ignore)); err != nil {
			return errors.IOError(err, "walk source tree").WithPath(root).Build()
		}
	default:
		return nil
	}
	excluded := excludeFunc(spec.Exclude)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		srcRel := fsutil.JoinSlash(spec.SourceSubdir, e.Rel)
		if (excluded != nil && excluded(e.Rel, false)) || (spec.Filter != nil && !spec.Filter(e.Rel)) {
			st.Defer(srcRel)
			continue
		}
		if e.Symlink {
			st.WarnFile(srcRel, "symbolic link skipped")
			continue
		}
		if err := st.Fail(srcRel, copyOne(st, spec, e)); err != nil {
			return err
		}
	}
	if spec.Readme != "" {
		return WriteCreated(st, fsutil.JoinSlash(spec.DestSubdir, "README.md"), []byte(spec.Readme), "generated directory guide")
	}
	return nil
}

func copyOne(st *models.State, spec TreeSpec, e fsutil.Entry) error {
	out := Output{Rel: e.Rel}
	var src []byte
	if spec.Transform != nil {
		data, err := os.ReadFile(e.Abs)
		if err != nil {
			return errors.IOError(err, "read source file").WithPath(e.Abs).Build()
		}
		src = data
		if out, err = spec.Transform(e.Rel, data); err != nil {
			return err
		}
		if out.Rel == "" {
			out.Rel = e.Rel
		}
	}
	dest := fsutil.JoinSlash(spec.DestSubdir, out.Rel)
	srcRel := fsutil.JoinSlash(spec.SourceSubdir, e.Rel)
	for _, w := range out.Warnings {
		st.Warnf("%s: %s", srcRel, w)
	}
	if out.Skip {
		st.RecordChange(models.Change{FilePath: dest, Type: models.ChangeSkipped, Description: out.Description, Source: srcRel})
		return nil
	}
	if !claim(st, dest, srcRel) {
		return nil
	}

	changeType := models.ChangeCopied
	desc := out.Description
	switch {
	case out.Data == nil:
		if err := fsutil.CopyFile(e.Abs, filepath.Join(st.Options.DestDir, filepath.FromSlash(dest))); err != nil {
			return errors.WriteError(err, "copy file").WithPath(dest).Build()
		}
		if out.Rel != e.Rel {
			changeType = models.ChangeConverted
		}
	default:
		if err := fsutil.WriteFile(filepath.Join(st.Options.DestDir, filepath.FromSlash(dest)), out.Data); err != nil {
			return errors.WriteError(err, "write file").WithPath(dest).Build()
		}
		if out.Rel != e.Rel || !bytes.Equal(out.Data, src) {
			changeType = models.ChangeConverted
		}
	}
	if desc == "" {
		desc = "copied from " + srcRel
		if changeType == models.ChangeConverted {
			desc = "converted from " + srcRel
		}
	}
	st.RecordChange(models.Change{FilePath: dest, Type: changeType, Description: desc, Source: srcRel, Fingerprint: out.Fingerprint})
	return nil
}

// claim reserves dest for the source file src (empty for generated files),
// recording a Skipped change and a warning on collision.
func claim(st *models.State, dest, src string) bool {
	owner, ok := st.Claim(dest)
	if ok {
		return true
	}
	st.RecordChange(models.Change{FilePath: dest, Type: models.ChangeSkipped, Description: "destination already written by " + string(owner) + " stage", Source: src})
	st.Warnf("%s: destination collision with %s stage, later file skipped", dest, owner)
	return false
}

// WriteCreated writes a generated file and records it as Created.
func WriteCreated(st *models.State, dest string, data []byte, desc string) error {
	if !claim(st, dest, "") {
		return nil
	}
	if err := fsutil.WriteFile(filepath.Join(st.Options.DestDir, filepath.FromSlash(dest)), data); err != nil {
		return errors.WriteError(err, "write generated file").WithPath(dest).Build()
	}
	st.Record(dest, models.ChangeCreated, desc)
	return nil
}

func excludeFunc(excludes []string) fsutil.SkipFunc {
	if len(excludes) == 0 {
		return nil
	}
	return func(rel string, _ bool) bool {
		for _, ex := range excludes {
			ex = strings.Trim(ex, "/")
			if rel == ex || strings.HasPrefix(rel, ex+"/") {
				return true
			}
		}
		return false
	}
}

// hasExt reports whether name ends in one of exts (case-insensitive).
func hasExt(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
