// Package inventory lists directory contents as FileRecords.
//
// Recursive listings walk in parallel with fastwalk; results are always
// sorted before they are returned, so callers never observe walk order.
// Entries whose metadata cannot be read are skipped rather than failing
// the whole listing.
package inventory

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("inventory")

// Excluder decides whether a path is left out of a listing. Excluded
// directories are not descended into.
type Excluder interface {
	Excluded(path string, isDir bool) bool
}

// Options configures a listing.
type Options struct {
	// Recursive descends into subdirectories.
	Recursive bool

	// IncludeHidden keeps hidden entries. Hidden directories are not
	// descended into unless this is set.
	IncludeHidden bool

	// FilesOnly drops directories and anything that is not a regular file.
	FilesOnly bool

	// Classifier assigns categories. Nil uses the built-in table.
	Classifier types.Classifier

	// Exclude filters entries. Nil keeps everything.
	Exclude Excluder
}

// List returns a record per entry under root, sorted case-insensitively by
// name (then by path). Root itself is never included.
func List(root string, opts Options) ([]types.FileRecord, error) {
	if err := CheckDir("list", root); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, types.IOError("list", root, err)
	}

	var records []types.FileRecord
	if opts.Recursive {
		err = Walk(abs, func(path string, d fs.DirEntry) error {
			if rec, ok := opts.record(path, d); ok {
				records = append(records, rec)
			}
			if d.IsDir() && opts.skipDir(path, d.Name()) {
				return fs.SkipDir
			}
			return nil
		})
	} else {
		records, err = listDir(abs, opts)
	}
	if err != nil {
		return nil, err
	}

	sortByName(records)
	return records, nil
}

// Files returns every regular file under root, recursively, sorted by path.
func Files(root string, opts Options) ([]types.FileRecord, error) {
	opts.Recursive = true
	opts.FilesOnly = true
	records, err := List(root, opts)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	return records, nil
}

// CheckDir verifies that root exists and is a directory.
func CheckDir(op, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.NotFound(op, root)
		}
		return types.IOError(op, root, err)
	}
	if !info.IsDir() {
		return types.NewPathError(op, root, types.ErrNotADirectory, nil)
	}
	return nil
}

// Walk visits every entry below root (root excluded) using a parallel walk.
// fn is called from several goroutines but never concurrently. Returning
// fs.SkipDir from fn for a directory skips its contents. Unreadable
// entries are skipped.
func Walk(root string, fn func(path string, d fs.DirEntry) error) error {
	conf := fastwalk.Config{Follow: false}

	var mu sync.Mutex
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		return fn(path, d)
	})
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return types.IOError("walk", root, err)
	}
	return nil
}

func listDir(dir string, opts Options) ([]types.FileRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, types.IOError("list", dir, err)
	}

	records := make([]types.FileRecord, 0, len(entries))
	for _, d := range entries {
		if rec, ok := opts.record(filepath.Join(dir, d.Name()), d); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// record builds the FileRecord for an entry, reporting false when the entry
// is filtered out or its metadata cannot be read.
func (o Options) record(path string, d fs.DirEntry) (types.FileRecord, bool) {
	hidden := IsHidden(path)
	if hidden && !o.IncludeHidden {
		return types.FileRecord{}, false
	}
	if o.Exclude != nil && o.Exclude.Excluded(path, d.IsDir()) {
		return types.FileRecord{}, false
	}

	info, err := d.Info()
	if err != nil {
		return types.FileRecord{}, false
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		// Describe the link target; dangling links are skipped.
		if info, err = os.Stat(path); err != nil {
			return types.FileRecord{}, false
		}
	}
	if o.FilesOnly && !info.Mode().IsRegular() {
		return types.FileRecord{}, false
	}

	return types.NewFileRecord(path, info, CreatedTime(path, info), hidden, o.Classifier), true
}

func (o Options) skipDir(path, name string) bool {
	if !o.IncludeHidden && IsHidden(path) {
		return true
	}
	return o.Exclude != nil && o.Exclude.Excluded(path, true)
}

func sortByName(records []types.FileRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].Name), strings.ToLower(records[j].Name)
		if a != b {
			return a < b
		}
		return records[i].Path < records[j].Path
	})
}
