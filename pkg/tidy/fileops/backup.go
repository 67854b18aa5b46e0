package fileops

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// ManifestName is the file written at the root of every snapshot. Sources
// that already hold one at their top level are refused.
const ManifestName = ".tidy-backup.json"

// snapshotTimeLayout is appended to the source folder name.
const snapshotTimeLayout = "20060102-150405"

// ErrOutsideBackupRoot is returned when a path to delete is not inside the
// backup root.
var ErrOutsideBackupRoot = errors.New("path is not inside the backup root")

// ErrSourceHasManifest is returned when the folder to back up already
// contains a snapshot manifest at its top level.
var ErrSourceHasManifest = errors.New("source already contains a snapshot manifest")

// Snapshot describes one backup.
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	Source    string    `json:"source" yaml:"source"`
	Path      string    `json:"path" yaml:"path"`
	Files     int       `json:"file_count" yaml:"file_count"`
	Bytes     int64     `json:"total_bytes" yaml:"total_bytes"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// RestoreResult reports a restore.
type RestoreResult struct {
	Success  bool     `json:"success" yaml:"success"`
	Restored int      `json:"restored" yaml:"restored"`
	MovedOut []string `json:"moved_aside" yaml:"moved_aside"`
	Errors   []string `json:"errors" yaml:"errors"`
}

// Backup copies the tree at src into a new snapshot folder
// backupRoot/<name>_<YYYYMMDD-HHMMSS> and writes its manifest.
func Backup(src, backupRoot string) (*Snapshot, error) {
	if err := inventory.CheckDir("backup", src); err != nil {
		return nil, err
	}
	src = abs(src)
	root := abs(backupRoot)
	if src == root || fsutil.IsWithin(src, root) {
		return nil, fmt.Errorf("backup %s: backup root %s is inside the source", src, root)
	}
	if fsutil.Exists(filepath.Join(src, ManifestName)) {
		return nil, types.NewPathError("backup", src, ErrSourceHasManifest, nil)
	}

	now := time.Now()
	dir := fsutil.UniquePath(filepath.Join(root, filepath.Base(src)+"_"+now.Format(snapshotTimeLayout)))
	files, bytes, err := fsutil.CopyDir(src, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, types.IOError("backup", src, err)
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		Source:    src,
		Path:      dir,
		Files:     files,
		Bytes:     bytes,
		CreatedAt: now.UTC(),
	}
	if err := writeManifest(snap); err != nil {
		_ = os.RemoveAll(dir)
		return nil, types.IOError("backup", dir, err)
	}

	logger.Info("created backup", "source", src, "snapshot", dir, "files", files, "bytes", bytes)
	return snap, nil
}

// ListBackups returns the snapshots under backupRoot, newest first.
// Folders without a readable manifest are ignored. A missing root lists
// nothing.
func ListBackups(backupRoot string) ([]Snapshot, error) {
	entries, err := os.ReadDir(backupRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []Snapshot{}, nil
		}
		return nil, types.IOError("list backups", backupRoot, err)
	}

	snaps := []Snapshot{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		snap, err := ReadManifest(filepath.Join(backupRoot, e.Name()))
		if err != nil {
			logger.Debug("skipping folder without manifest", "path", e.Name(), "error", err)
			continue
		}
		snaps = append(snaps, *snap)
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps, nil
}

// ReadManifest loads the manifest of the snapshot at dir. Path is set to
// dir even if the snapshot was moved.
func ReadManifest(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestName, err)
	}
	snap.Path = abs(dir)
	return &snap, nil
}

// Restore copies the contents of snapshot into dest. A top-level item
// already present in dest is renamed out of the way (stem.pre-restore.ext,
// numbered if needed) before the snapshot's version is copied in. Items
// are processed independently; failures are collected.
func Restore(snapshot, dest string) (*RestoreResult, error) {
	if err := inventory.CheckDir("restore", snapshot); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(snapshot)
	if err != nil {
		return nil, types.IOError("restore", snapshot, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, types.IOError("restore", dest, err)
	}

	res := &RestoreResult{MovedOut: []string{}, Errors: []string{}}
	for _, e := range entries {
		name := e.Name()
		if name == ManifestName {
			continue
		}
		target := filepath.Join(dest, name)

		if fsutil.Exists(target) {
			aside := fsutil.UniquePath(filepath.Join(dest, types.Stem(name)+".pre-restore"+extOf(name)))
			if err := os.Rename(target, aside); err != nil {
				res.Errors = append(res.Errors, types.ItemError(name, err))
				continue
			}
			res.MovedOut = append(res.MovedOut, aside)
			logger.Info("moved existing item aside", "path", target, "to", aside)
		}

		if _, err := fsutil.Copy(filepath.Join(snapshot, name), target); err != nil {
			res.Errors = append(res.Errors, types.ItemError(name, err))
			continue
		}
		res.Restored++
	}

	res.Success = len(res.Errors) == 0
	logger.Info("restored backup", "snapshot", snapshot, "dest", dest, "restored", res.Restored, "errors", len(res.Errors))
	return res, nil
}

// DeleteBackup removes the snapshot at path. The path must be strictly
// inside backupRoot once symlinks are resolved.
func DeleteBackup(path, backupRoot string) error {
	root, err := filepath.EvalSymlinks(backupRoot)
	if err != nil {
		return types.IOError("delete backup", backupRoot, err)
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NotFound("delete backup", path)
		}
		return types.IOError("delete backup", path, err)
	}
	if !fsutil.IsWithin(root, target) {
		return fmt.Errorf("delete backup %s: %w", path, ErrOutsideBackupRoot)
	}

	if err := os.RemoveAll(target); err != nil {
		return types.IOError("delete backup", target, err)
	}
	logger.Info("deleted backup", "path", target)
	return nil
}

func writeManifest(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(snap.Path, ManifestName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func extOf(name string) string {
	return name[len(types.Stem(name)):]
}
