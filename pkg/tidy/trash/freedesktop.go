package trash

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

const (
	trashInfoExt    = ".trashinfo"
	trashTimeLayout = "2006-01-02T15:04:05"
)

// Errors returned by Restore.
var (
	ErrRestoreUnsupported = errors.New("trash restore unsupported on this platform")
	ErrNotInTrash         = errors.New("no trashed item for path")
	ErrRestoreConflict    = errors.New("original path is occupied")
)

// Home returns the user's freedesktop trash directory. Tests replace it.
var Home = func() string {
	return filepath.Join(xdg.DataHome, "Trash")
}

// writeToHomeTrash moves path into the home trash and writes its
// .trashinfo record.
func writeToHomeTrash(path string) error {
	home := Home()
	filesDir := filepath.Join(home, "files")
	infoDir := filepath.Join(home, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	base := filepath.Base(path)
	name := base
	var info *os.File
	for n := 1; ; n++ {
		f, err := os.OpenFile(filepath.Join(infoDir, name+trashInfoExt), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			info = f
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		name = fmt.Sprintf("%s.%d", base, n)
	}
	infoPath := info.Name()

	_, err := fmt.Fprintf(info, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapePath(path), time.Now().Format(trashTimeLayout))
	if closeErr := info.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(infoPath)
		return err
	}

	if err := os.Rename(path, filepath.Join(filesDir, name)); err != nil {
		_ = os.Remove(infoPath)
		return err
	}
	return nil
}

type trashedItem struct {
	infoPath string
	dataPath string
	original string
	deleted  time.Time
}

// Restore moves the most recently trashed item whose original location was
// originalPath back into place.
func Restore(originalPath string) error {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return ErrRestoreUnsupported
	}

	abs, err := filepath.Abs(originalPath)
	if err != nil {
		return err
	}

	item, err := findTrashed(abs)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(abs); err == nil {
		return fmt.Errorf("%w: %s", ErrRestoreConflict, abs)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	if err := os.Rename(item.dataPath, abs); err != nil {
		return fmt.Errorf("restoring %s: %w", abs, err)
	}
	_ = os.Remove(item.infoPath)

	logger.Info("restored from trash", "path", abs)
	return nil
}

func findTrashed(original string) (*trashedItem, error) {
	home := Home()
	infoDir := filepath.Join(home, "info")
	entries, err := os.ReadDir(infoDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotInTrash, original)
		}
		return nil, err
	}

	var best *trashedItem
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), trashInfoExt) {
			continue
		}
		infoPath := filepath.Join(infoDir, entry.Name())
		item, err := parseTrashInfo(infoPath)
		if err != nil || item.original != original {
			continue
		}
		item.dataPath = filepath.Join(home, "files", strings.TrimSuffix(entry.Name(), trashInfoExt))
		if _, err := os.Lstat(item.dataPath); err != nil {
			continue
		}
		if best == nil || item.deleted.After(best.deleted) {
			best = item
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInTrash, original)
	}
	return best, nil
}

func parseTrashInfo(path string) (*trashedItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	item := &trashedItem{infoPath: path}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "Path":
			p, err := url.PathUnescape(value)
			if err != nil {
				return nil, err
			}
			item.original = p
		case "DeletionDate":
			if t, err := time.ParseInLocation(trashTimeLayout, value, time.Local); err == nil {
				item.deleted = t
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if item.original == "" {
		return nil, fmt.Errorf("%s: missing Path", path)
	}
	return item, nil
}

func escapePath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
