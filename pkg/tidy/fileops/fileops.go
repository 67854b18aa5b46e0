// Package fileops performs direct, user-requested file mutations (move,
// copy, rename, delete, create folder) and whole-directory backups.
// Every successful mutation except CreateFolder is recorded in the history
// ledger so it can be undone.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/trash"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("fileops")

// moveToTrash is replaced in tests.
var moveToTrash = trash.MoveToTrash

// ErrPathOverlap is returned when the destination is inside the source or
// contains it.
var ErrPathOverlap = errors.New("source and destination overlap")

// Conflict decides what happens when the destination already exists.
type Conflict string

// Conflict strategies.
const (
	Overwrite Conflict = "overwrite"
	Rename    Conflict = "rename"
	Skip      Conflict = "skip"
)

// ParseConflict parses a strategy name.
func ParseConflict(s string) (Conflict, error) {
	switch c := Conflict(strings.ToLower(strings.TrimSpace(s))); c {
	case Overwrite, Rename, Skip:
		return c, nil
	}
	return "", fmt.Errorf("unknown conflict strategy %q (want overwrite, rename or skip)", s)
}

// Executor runs mutations and records them.
type Executor struct {
	rec history.Recorder
}

// New returns an Executor that records to rec. A nil rec disables
// recording.
func New(rec history.Recorder) *Executor {
	return &Executor{rec: rec}
}

// Result describes a completed mutation.
type Result struct {
	// Path is where the item ended up.
	Path string `json:"path" yaml:"path"`

	// Skipped is set when the Skip strategy left an existing destination
	// alone.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	HistoryID int64 `json:"history_id,omitempty" yaml:"history_id,omitempty"`
}

// Move moves source to dest. A directory dest receives the item under its
// own name.
func (e *Executor) Move(ctx context.Context, source, dest string, c Conflict) (*Result, error) {
	target, skip, err := e.prepare("move", source, dest, c)
	if err != nil {
		return nil, err
	}
	if skip {
		return &Result{Path: target, Skipped: true}, nil
	}

	if err := fsutil.MoveFile(source, target); err != nil {
		return nil, types.IOError("move", source, err)
	}
	logger.Info("moved", "from", source, "to", target)

	id := e.record(ctx, history.OpMove, "Moved "+filepath.Base(source),
		history.Move{From: abs(source), To: abs(target)})
	return &Result{Path: target, HistoryID: id}, nil
}

// Copy copies source, a file or a directory tree, to dest.
func (e *Executor) Copy(ctx context.Context, source, dest string, c Conflict) (*Result, error) {
	target, skip, err := e.prepare("copy", source, dest, c)
	if err != nil {
		return nil, err
	}
	if skip {
		return &Result{Path: target, Skipped: true}, nil
	}

	if _, err := fsutil.Copy(source, target); err != nil {
		_ = os.RemoveAll(target)
		return nil, types.IOError("copy", source, err)
	}
	logger.Info("copied", "from", source, "to", target)

	id := e.record(ctx, history.OpCopy, "Copied "+filepath.Base(source), history.Copy{To: abs(target)})
	return &Result{Path: target, HistoryID: id}, nil
}

// Rename gives path a new base name in the same folder. It refuses when
// another item already has that name.
func (e *Executor) Rename(ctx context.Context, path, newName string) (*Result, error) {
	if err := checkExists("rename", path); err != nil {
		return nil, err
	}
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return nil, types.NewPathError("rename", path, types.ErrInvalidPattern, fmt.Errorf("bad name %q", newName))
	}

	oldName := filepath.Base(path)
	target := filepath.Join(filepath.Dir(path), newName)
	if target == filepath.Clean(path) {
		return &Result{Path: target, Skipped: true}, nil
	}
	if fsutil.Exists(target) {
		return nil, types.NewPathError("rename", target, types.ErrAlreadyExists, nil)
	}
	if err := os.Rename(path, target); err != nil {
		return nil, types.IOError("rename", path, err)
	}
	logger.Info("renamed", "from", path, "to", target)

	id := e.record(ctx, history.OpRename, fmt.Sprintf("Renamed %s → %s", oldName, newName),
		history.Rename{From: abs(path), To: abs(target)})
	return &Result{Path: target, HistoryID: id}, nil
}

// Delete removes path, to the system trash when toTrash is set. Permanent
// deletes are recorded but cannot be undone.
func (e *Executor) Delete(ctx context.Context, path string, toTrash bool) (*Result, error) {
	if err := checkExists("delete", path); err != nil {
		return nil, err
	}

	if toTrash {
		if err := moveToTrash(path); err != nil {
			return nil, types.IOError("delete", path, err)
		}
	} else if err := os.RemoveAll(path); err != nil {
		return nil, types.IOError("delete", path, err)
	}
	logger.Info("deleted", "path", path, "trash", toTrash)

	id := e.record(ctx, history.OpDelete, "Deleted "+filepath.Base(path),
		history.Delete{Path: abs(path), ToTrash: toTrash})
	return &Result{Path: path, HistoryID: id}, nil
}

// CreateFolder creates path and any missing parents. An existing path is
// an error. Folder creation is not recorded.
func (e *Executor) CreateFolder(path string) error {
	if fsutil.Exists(path) {
		return types.NewPathError("create folder", path, types.ErrAlreadyExists, nil)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return types.IOError("create folder", path, err)
	}
	logger.Info("created folder", "path", path)
	return nil
}

// prepare validates source, resolves the final destination and applies
// the conflict strategy. skip reports that nothing should be done.
func (e *Executor) prepare(op, source, dest string, c Conflict) (target string, skip bool, err error) {
	if err := checkExists(op, source); err != nil {
		return "", false, err
	}

	target = dest
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		target = filepath.Join(dest, filepath.Base(source))
	}
	if abs(target) == abs(source) {
		return target, true, nil
	}
	if fsutil.IsWithin(source, target) || fsutil.IsWithin(target, source) {
		return "", false, types.NewPathError(op, target, ErrPathOverlap, nil)
	}

	if fsutil.Exists(target) {
		switch c {
		case Skip:
			logger.Debug("destination exists, skipping", "op", op, "path", target)
			return target, true, nil
		case Rename:
			target = fsutil.UniquePath(target)
		case Overwrite, "":
			if err := os.RemoveAll(target); err != nil {
				return "", false, types.IOError(op, target, err)
			}
		default:
			return "", false, fmt.Errorf("%s: unknown conflict strategy %q", op, c)
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", false, types.IOError(op, filepath.Dir(target), err)
	}
	return target, false, nil
}

// record appends a history entry. A failure to record does not undo the
// mutation; it is logged and the entry id is zero.
func (e *Executor) record(ctx context.Context, op history.Operation, desc string, p history.Payload) int64 {
	if e.rec == nil {
		return 0
	}
	id, err := e.rec.Record(ctx, op, desc, p, 1)
	if err != nil {
		logger.Error("failed to record history", "operation", op, "error", err)
		return 0
	}
	return id
}

func checkExists(op, path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return types.NotFound(op, path)
		}
		return types.IOError(op, path, err)
	}
	return nil
}

func abs(path string) string {
	if a, err := filepath.Abs(path); err == nil {
		return a
	}
	return filepath.Clean(path)
}
