package fsutil

import (
	"io/fs"
	"path/filepath"
)

// Entry is one non-directory entry found by Walk.
type Entry struct {
	// Rel is the slash-separated path relative to the walk root.
	Rel string
	// Abs is the full OS path.
	Abs string
	// Symlink is set for symbolic links, which Walk never follows.
	Symlink bool
}

// SkipFunc reports whether a relative path (file or directory) is excluded.
type SkipFunc func(rel string, isDir bool) bool

// Walk lists every regular file and symlink under root depth-first in lexical
// order. Each file is returned exactly once; symlinked directories are not
// descended into, so cycles cannot occur. Other special files are ignored.
func Walk(root string, skip SkipFunc) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := RelSlash(root, path)
		if relErr != nil {
			return relErr
		}
		if skip != nil && skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case d.IsDir():
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			entries = append(entries, Entry{Rel: rel, Abs: path, Symlink: true})
		case d.Type().IsRegular():
			entries = append(entries, Entry{Rel: rel, Abs: path})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFiles returns the relative paths of regular files under root.
func ListFiles(root string) ([]string, error) {
	entries, err := Walk(root, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Symlink {
			out = append(out, e.Rel)
		}
	}
	return out, nil
}
