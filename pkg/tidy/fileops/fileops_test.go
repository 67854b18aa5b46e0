package fileops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newExecutor() (*Executor, *history.Ledger, *history.MemoryStore) {
	store := history.NewMemoryStore()
	ledger := history.New(store)
	return New(ledger), ledger, store
}

func TestParseConflict(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"overwrite", "Rename", " skip "} {
		_, err := ParseConflict(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseConflict("merge")
	assert.Error(t, err)
}

func TestMove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		conflict Conflict
		existing bool
		wantName string
		wantSkip bool
		wantDest string
	}{
		{name: "into directory", conflict: Rename, wantName: "a.txt", wantDest: "src"},
		{name: "overwrite", conflict: Overwrite, existing: true, wantName: "a.txt", wantDest: "src"},
		{name: "rename", conflict: Rename, existing: true, wantName: "a_1.txt", wantDest: "src"},
		{name: "skip", conflict: Skip, existing: true, wantName: "a.txt", wantSkip: true, wantDest: "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			src := filepath.Join(dir, "a.txt")
			dst := filepath.Join(dir, "out")
			write(t, src, "src")
			require.NoError(t, os.MkdirAll(dst, 0o755))
			if tt.existing {
				write(t, filepath.Join(dst, "a.txt"), "old")
			}

			ex, _, store := newExecutor()
			res, err := ex.Move(ctx, src, dst, tt.conflict)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dst, tt.wantName), res.Path)
			assert.Equal(t, tt.wantSkip, res.Skipped)
			assert.Equal(t, tt.wantDest, read(t, res.Path))

			entries, err := store.ListHistory(ctx, 0, 0)
			require.NoError(t, err)
			if tt.wantSkip {
				assert.FileExists(t, src)
				assert.Empty(t, entries, "skip records nothing")
				return
			}
			assert.NoFileExists(t, src)
			require.Len(t, entries, 1)
			assert.Equal(t, history.OpMove, entries[0].Operation)
		})
	}
}

func TestMove_MissingSource(t *testing.T) {
	t.Parallel()

	ex, _, _ := newExecutor()
	_, err := ex.Move(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), Rename)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMove_ThenUndo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	write(t, src, "a")

	ex, ledger, _ := newExecutor()
	res, err := ex.Move(ctx, src, filepath.Join(dir, "deep", "b.txt"), Overwrite)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "deep", "b.txt"))

	require.NoError(t, ledger.Undo(ctx, res.HistoryID))
	assert.FileExists(t, src)
	assert.ErrorIs(t, ledger.Undo(ctx, res.HistoryID), types.ErrAlreadyUndone)
}

func TestCopy_DirectoryAndUndo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	write(t, filepath.Join(dir, "tree", "x.txt"), "x")
	write(t, filepath.Join(dir, "tree", "sub", "y.txt"), "y")

	ex, ledger, _ := newExecutor()
	res, err := ex.Copy(ctx, filepath.Join(dir, "tree"), filepath.Join(dir, "copy"), Rename)
	require.NoError(t, err)
	assert.Equal(t, "y", read(t, filepath.Join(dir, "copy", "sub", "y.txt")))
	assert.FileExists(t, filepath.Join(dir, "tree", "x.txt"))

	require.NoError(t, ledger.Undo(ctx, res.HistoryID))
	assert.NoDirExists(t, filepath.Join(dir, "copy"))
	assert.DirExists(t, filepath.Join(dir, "tree"))
}

func TestMoveCopy_RejectOverlappingPaths(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	write(t, filepath.Join(a, "sub", "f.txt"), "f")
	write(t, filepath.Join(a, "a", "g.txt"), "g")

	ex, ledger, _ := newExecutor()

	_, err := ex.Move(ctx, a, filepath.Join(a, "sub"), Rename)
	assert.ErrorIs(t, err, ErrPathOverlap)

	_, err = ex.Copy(ctx, a, filepath.Join(a, "new"), Rename)
	assert.ErrorIs(t, err, ErrPathOverlap)
	assert.NoDirExists(t, filepath.Join(a, "new"))

	// The target dir/a would be an ancestor of the source a/a.
	_, err = ex.Move(ctx, filepath.Join(a, "a"), dir, Overwrite)
	assert.ErrorIs(t, err, ErrPathOverlap)

	assert.Equal(t, "f", read(t, filepath.Join(a, "sub", "f.txt")))
	assert.Equal(t, "g", read(t, filepath.Join(a, "a", "g.txt")))
	assert.NoDirExists(t, filepath.Join(a, "sub", "a"))

	entries, err := ledger.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.txt"), "a")
	write(t, filepath.Join(dir, "taken.txt"), "t")

	ex, ledger, _ := newExecutor()

	_, err := ex.Rename(ctx, filepath.Join(dir, "a.txt"), "taken.txt")
	assert.ErrorIs(t, err, types.ErrAlreadyExists)

	_, err = ex.Rename(ctx, filepath.Join(dir, "a.txt"), "../escape.txt")
	assert.ErrorIs(t, err, types.ErrInvalidPattern)

	res, err := ex.Rename(ctx, filepath.Join(dir, "a.txt"), "b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.txt"), res.Path)

	e, err := ledger.Get(ctx, res.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed a.txt → b.txt", e.Description)

	require.NoError(t, ledger.Undo(ctx, res.HistoryID))
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
}

// TestDelete replaces moveToTrash and must not run in parallel.
func TestDelete(t *testing.T) {
	ctx := context.Background()

	var trashed []string
	orig := moveToTrash
	moveToTrash = func(p string) error {
		trashed = append(trashed, p)
		return os.Remove(p)
	}
	t.Cleanup(func() { moveToTrash = orig })

	dir := t.TempDir()
	write(t, filepath.Join(dir, "t.txt"), "t")
	write(t, filepath.Join(dir, "p", "p.txt"), "p")

	ex, ledger, _ := newExecutor()

	res, err := ex.Delete(ctx, filepath.Join(dir, "t.txt"), true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "t.txt")}, trashed)
	e, err := ledger.Get(ctx, res.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, history.Delete{Path: filepath.Join(dir, "t.txt"), ToTrash: true}, e.Payload)

	res, err = ex.Delete(ctx, filepath.Join(dir, "p"), false)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "p"))
	assert.ErrorIs(t, ledger.Undo(ctx, res.HistoryID), types.ErrCannotUndo)

	moveToTrash = func(string) error { return errors.New("trash full") }
	write(t, filepath.Join(dir, "u.txt"), "u")
	_, err = ex.Delete(ctx, filepath.Join(dir, "u.txt"), true)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.FileExists(t, filepath.Join(dir, "u.txt"))

	_, err = ex.Delete(ctx, filepath.Join(dir, "missing"), true)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCreateFolder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ex := New(nil)
	require.NoError(t, ex.CreateFolder(filepath.Join(dir, "a", "b")))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))
	assert.ErrorIs(t, ex.CreateFolder(filepath.Join(dir, "a")), types.ErrAlreadyExists)
}

func TestBackupRestore(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	src := filepath.Join(base, "Desktop")
	root := filepath.Join(base, "backups")
	write(t, filepath.Join(src, "a.txt"), "a1")
	write(t, filepath.Join(src, "docs", "b.txt"), "b1")

	snap, err := Backup(src, root)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Files)
	assert.Equal(t, int64(4), snap.Bytes)
	assert.NotEmpty(t, snap.ID)
	assert.True(t, filepath.Dir(snap.Path) == root)
	assert.FileExists(t, filepath.Join(snap.Path, ManifestName))

	write(t, filepath.Join(src, "a.txt"), "a2")
	require.NoError(t, os.RemoveAll(filepath.Join(src, "docs")))

	res, err := Restore(snap.Path, src)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Restored)
	require.Len(t, res.MovedOut, 1)
	assert.Equal(t, filepath.Join(src, "a.pre-restore.txt"), res.MovedOut[0])
	assert.Equal(t, "a2", read(t, res.MovedOut[0]))
	assert.Equal(t, "a1", read(t, filepath.Join(src, "a.txt")))
	assert.Equal(t, "b1", read(t, filepath.Join(src, "docs", "b.txt")))
	assert.NoFileExists(t, filepath.Join(src, ManifestName))
}

func TestBackup_Errors(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	_, err := Backup(filepath.Join(base, "missing"), filepath.Join(base, "b"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = Backup(base, filepath.Join(base, "inside"))
	assert.Error(t, err)

	snapSrc := filepath.Join(base, "snapshot")
	write(t, filepath.Join(snapSrc, ManifestName), "{}")
	_, err = Backup(snapSrc, filepath.Join(base, "b"))
	assert.ErrorIs(t, err, ErrSourceHasManifest)
	assert.NoDirExists(t, filepath.Join(base, "b"))
}

func TestBackupRestore_KeepsSourceBackupJSON(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	src := filepath.Join(base, "project")
	root := filepath.Join(base, "backups")
	write(t, filepath.Join(src, "backup.json"), `{"mine":true}`)

	snap, err := Backup(src, root)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Files)
	assert.Equal(t, `{"mine":true}`, read(t, filepath.Join(snap.Path, "backup.json")))

	dest := filepath.Join(base, "restored")
	res, err := Restore(snap.Path, dest)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Restored)
	assert.Equal(t, `{"mine":true}`, read(t, filepath.Join(dest, "backup.json")))
	assert.NoFileExists(t, filepath.Join(dest, ManifestName))
}

func TestListBackups(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "backups")

	list, err := ListBackups(root)
	require.NoError(t, err)
	assert.Empty(t, list)

	write(t, filepath.Join(base, "src", "f.txt"), "f")
	first, err := Backup(filepath.Join(base, "src"), root)
	require.NoError(t, err)
	second, err := Backup(filepath.Join(base, "src"), root)
	require.NoError(t, err)
	assert.NotEqual(t, first.Path, second.Path)

	// Force a distinct ordering regardless of clock resolution.
	first.CreatedAt = second.CreatedAt.Add(-time.Hour)
	require.NoError(t, writeManifest(first))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "stray"), 0o755))

	list, err = ListBackups(root)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestDeleteBackup(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "backups")
	write(t, filepath.Join(base, "src", "f.txt"), "f")
	snap, err := Backup(filepath.Join(base, "src"), root)
	require.NoError(t, err)

	err = DeleteBackup(filepath.Join(base, "src"), root)
	assert.ErrorIs(t, err, ErrOutsideBackupRoot)
	assert.DirExists(t, filepath.Join(base, "src"))

	err = DeleteBackup(root, root)
	assert.ErrorIs(t, err, ErrOutsideBackupRoot)

	err = DeleteBackup(filepath.Join(root, "..", "src"), root)
	assert.ErrorIs(t, err, ErrOutsideBackupRoot)

	require.NoError(t, DeleteBackup(snap.Path, root))
	assert.NoDirExists(t, snap.Path)

	assert.ErrorIs(t, DeleteBackup(snap.Path, root), types.ErrNotFound)
}
