// Package fsutil holds the small filesystem helpers shared by detectors and
// conversion stages: existence checks, bounded sniffing, recursive listing
// and copy/write with on-demand parent creation.
package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	DirPerm  fs.FileMode = 0o755
	FilePerm fs.FileMode = 0o644

	// sniffLimit bounds how much of a marker file detectors read.
	sniffLimit = 64 * 1024
)

// Exists reports whether path exists (without following a final symlink).
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path is an existing regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Sniff returns at most the first 64KiB of a file.
func Sniff(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, sniffLimit))
}

// FileContains reports whether the head of path contains needle.
// Missing or unreadable files report false.
func FileContains(path, needle string) bool {
	data, err := Sniff(path)
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte(needle))
}

// EnsureDir creates path and any parents. Succeeds if it already exists.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, DirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// WriteFile writes data to dst, creating parent directories on demand.
func WriteFile(dst string, data []byte) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	return os.WriteFile(dst, data, FilePerm)
}

// CopyFile copies a single regular file, creating parents on demand and
// preserving the permission bits of src.
func CopyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// RemoveTree deletes path recursively. A missing path is not an error.
func RemoveTree(path string) error {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RelSlash returns target relative to base using forward slashes.
func RelSlash(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// JoinSlash joins slash-separated path elements, dropping empty ones.
func JoinSlash(elems ...string) string {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		e = strings.Trim(e, "/")
		if e != "" && e != "." {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}
