// Package fsutil holds the file-system primitives shared by the mutation
// executor, the rule engine and history reversal: copying, moving with a
// cross-device fallback, collision-free naming and empty-folder cleanup.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("fsutil")

// rename is swapped in tests to simulate cross-device failures.
var rename = os.Rename

// Exists reports whether path can be stat'ed without following a final
// symlink.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CopyFile copies a regular file, preserving its mode and modification
// time. Parent directories of dst are created. It returns the bytes written.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s: %w", src, types.ErrNotAFile)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return n, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return n, err
	}

	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return n, nil
}

// CopyDir recursively copies src into dst. It returns the number of files
// and bytes copied.
func CopyDir(src, dst string) (int, int64, error) {
	var files int
	var total int64

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			n, err := CopyFile(path, target)
			if err != nil {
				return err
			}
			files++
			total += n
			return nil
		}
	})
	return files, total, err
}

// Copy copies a file or a directory tree.
func Copy(src, dst string) (int64, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		_, n, err := CopyDir(src, dst)
		return n, err
	}
	return CopyFile(src, dst)
}

// MoveFile renames src to dst. When the rename fails (typically across
// devices) it copies and then removes the source. The rename error is only
// reported when the fallback copy also fails. On any failure the source is
// left in place and no partial copy remains at dst.
func MoveFile(src, dst string) error {
	renameErr := rename(src, dst)
	if renameErr == nil {
		return nil
	}

	logger.Debug("rename failed, falling back to copy", "src", src, "dst", dst, "error", renameErr)

	info, err := os.Lstat(src)
	if err != nil {
		return renameErr
	}

	if info.IsDir() {
		_, _, err = CopyDir(src, dst)
	} else {
		_, err = CopyFile(src, dst)
	}
	if err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("%w (copy fallback: %v)", renameErr, err)
	}

	if err := os.RemoveAll(src); err != nil {
		// Keep exactly one copy: the source.
		if info.IsDir() {
			_ = os.RemoveAll(dst)
		} else {
			_ = os.Remove(dst)
		}
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// UniquePath returns path unchanged if it is free, otherwise the first
// free "stem_N.ext" with N counting from 1.
func UniquePath(path string) string {
	return unique(path, func(stem string, n int, ext string) string {
		return fmt.Sprintf("%s_%d%s", stem, n, ext)
	})
}

// UniqueNumbered is UniquePath with "stem (N).ext" naming.
func UniqueNumbered(path string) string {
	return unique(path, func(stem string, n int, ext string) string {
		return fmt.Sprintf("%s (%d)%s", stem, n, ext)
	})
}

func unique(path string, format func(stem string, n int, ext string) string) string {
	if !Exists(path) {
		return path
	}
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	stem := types.Stem(name)
	ext := strings.TrimPrefix(name, stem)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, format(stem, n, ext))
		if !Exists(candidate) {
			return candidate
		}
	}
}

// RemoveEmptyDirs removes dir and then up to levels of its ancestors, stopping
// at the first that is not empty. Failures are expected and ignored.
func RemoveEmptyDirs(dir string, levels int) {
	for i := 0; i <= levels; i++ {
		if err := os.Remove(dir); err != nil {
			return
		}
		logger.Debug("removed empty folder", "path", dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// IsWithin reports whether path is a strict descendant of root after both
// are cleaned and made absolute.
func IsWithin(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// IsNotExist reports whether err means a path is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
