package organize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPreview(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.jpg"), "a")
	write(t, filepath.Join(dir, "b.PNG"), "b")
	write(t, filepath.Join(dir, "c.pdf"), "c")
	write(t, filepath.Join(dir, ".hidden.jpg"), "h")
	write(t, filepath.Join(dir, "sub", "d.jpg"), "d")

	groups, err := Preview(dir, Options{})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, classify.Images, groups[0].Category)
	assert.Equal(t, 2, groups[0].FileCount)
	assert.Equal(t, "Images", filepath.Base(groups[0].Destination))
	assert.Equal(t, classify.Documents, groups[1].Category)
}

func TestPreview_Overrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, filepath.Join(dir, "scan.jpg"), "s")

	o := classify.NewOverrides([]classify.Mapping{{Extension: ".jpg", Category: classify.Documents, Folder: "Scans"}})
	groups, err := Preview(dir, Options{Mapper: o})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, classify.Documents, groups[0].Category)
	assert.Equal(t, "Scans", filepath.Base(groups[0].Destination))
}

func TestOrganize_AndUndo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.jpg"), "a")
	write(t, filepath.Join(dir, "b.mp3"), "b")
	write(t, filepath.Join(dir, "c.unknown"), "c")

	ledger := history.New(history.NewMemoryStore())
	res, err := Organize(ctx, dir, Options{}, ledger)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.FilesMoved)
	assert.FileExists(t, filepath.Join(dir, "Images", "a.jpg"))
	assert.FileExists(t, filepath.Join(dir, "Music", "b.mp3"))
	assert.FileExists(t, filepath.Join(dir, "Others", "c.unknown"))

	e, err := ledger.Get(ctx, res.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, history.OpOrganize, e.Operation)
	assert.Len(t, e.Payload.(history.Batch).Pairs, 3)

	require.NoError(t, ledger.Undo(ctx, res.HistoryID))
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
	assert.NoDirExists(t, filepath.Join(dir, "Images"))
}

func TestOrganize_Duplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		strategy  string
		moved     int
		skipped   int
		wantFiles map[string]string
	}{
		{DuplicateSkip, 0, 1, map[string]string{"a.txt": "new", "Documents/a.txt": "old"}},
		{"", 0, 1, map[string]string{"a.txt": "new", "Documents/a.txt": "old"}},
		{DuplicateRename, 1, 0, map[string]string{"Documents/a.txt": "old", "Documents/a (1).txt": "new"}},
		{DuplicateOverwrite, 1, 0, map[string]string{"Documents/a.txt": "new"}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			write(t, filepath.Join(dir, "a.txt"), "new")
			write(t, filepath.Join(dir, "Documents", "a.txt"), "old")

			res, err := Organize(ctx, dir, Options{Duplicates: tt.strategy}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.moved, res.FilesMoved)
			assert.Equal(t, tt.skipped, res.FilesSkipped)
			assert.Zero(t, res.HistoryID)

			for rel, want := range tt.wantFiles {
				data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
				require.NoError(t, err, rel)
				assert.Equal(t, want, string(data), rel)
			}
		})
	}
}

func TestOrganize_DateSubfolders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.zip")
	write(t, path, "z")
	mod := time.Date(2021, 5, 9, 12, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(path, mod, mod))

	res, err := Organize(ctx, dir, Options{CreateDateSubfolders: true, DateFormat: DateYearSlashMonth}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesMoved)
	assert.FileExists(t, filepath.Join(dir, "Archives", "2021", "05", "a.zip"))
}

func TestDateFolder(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	assert.Equal(t, "2024-01", DateFolder(ts, DateYearMonth))
	assert.Equal(t, filepath.Join("2024", "01"), DateFolder(ts, DateYearSlashMonth))
	assert.Equal(t, "2024", DateFolder(ts, DateYear))
	assert.Equal(t, "2024-01-02", DateFolder(ts, DateDay))
	assert.Equal(t, "2024-01-02", DateFolder(ts, ""))
}

func TestOrganize_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := Organize(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{}, nil)
	assert.Error(t, err)
}
