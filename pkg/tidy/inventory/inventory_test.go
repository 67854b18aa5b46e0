package inventory

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func names(records []types.FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.JPG"), "img")
	touch(t, filepath.Join(root, "A.txt"), "text")
	touch(t, filepath.Join(root, "c.xyz"), "?")
	touch(t, filepath.Join(root, ".secret"), "s")
	touch(t, filepath.Join(root, "sub", "deep.go"), "package x")
	touch(t, filepath.Join(root, ".hidden", "inner.txt"), "i")
	return root
}

func TestList_NonRecursive(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("dot-prefix hiding is unix-only")
	}

	root := fixture(t)
	records, err := List(root, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"A.txt", "b.JPG", "c.xyz", "sub"}, names(records))

	byName := make(map[string]types.FileRecord)
	for _, r := range records {
		byName[r.Name] = r
	}
	assert.Equal(t, classify.Images, byName["b.JPG"].Category)
	assert.Equal(t, ".jpg", byName["b.JPG"].Extension)
	assert.Equal(t, classify.Documents, byName["A.txt"].Category)
	assert.Equal(t, classify.Others, byName["c.xyz"].Category)
	assert.True(t, byName["sub"].IsDirectory)
	assert.Equal(t, int64(4), byName["A.txt"].Size)
	assert.True(t, filepath.IsAbs(byName["A.txt"].Path))
	assert.False(t, byName["A.txt"].Created.IsZero())
}

func TestList_IncludeHidden(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("dot-prefix hiding is unix-only")
	}

	root := fixture(t)
	records, err := List(root, Options{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden", ".secret", "A.txt", "b.JPG", "c.xyz", "sub"}, names(records))

	for _, r := range records {
		assert.Equal(t, strings.HasPrefix(r.Name, "."), r.IsHidden, r.Name)
	}
}

func TestList_Recursive(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("dot-prefix hiding is unix-only")
	}

	root := fixture(t)
	records, err := List(root, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.txt", "b.JPG", "c.xyz", "deep.go", "sub"}, names(records),
		"hidden entries and their contents are skipped")

	records, err = List(root, Options{Recursive: true, IncludeHidden: true})
	require.NoError(t, err)
	assert.Contains(t, names(records), "inner.txt")
}

func TestList_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, err := List(filepath.Join(root, "missing"), Options{})
	assert.ErrorIs(t, err, types.ErrNotFound)

	file := filepath.Join(root, "f.txt")
	touch(t, file, "")
	_, err = List(file, Options{})
	assert.ErrorIs(t, err, types.ErrNotADirectory)
}

func TestList_DanglingSymlinkSkipped(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	touch(t, filepath.Join(root, "real.txt"), "x")
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "broken")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	records, err := List(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"link.txt", "real.txt"}, names(records))
}

type excludeSub struct{}

func (excludeSub) Excluded(path string, isDir bool) bool {
	return isDir && filepath.Base(path) == "sub"
}

func TestFiles(t *testing.T) {
	t.Parallel()

	root := fixture(t)
	records, err := Files(root, Options{IncludeHidden: true})
	require.NoError(t, err)

	for i := 1; i < len(records); i++ {
		assert.Less(t, records[i-1].Path, records[i].Path)
	}
	for _, r := range records {
		assert.False(t, r.IsDirectory)
	}
	assert.Len(t, records, 6)

	records, err = Files(root, Options{IncludeHidden: true, Exclude: excludeSub{}})
	require.NoError(t, err)
	assert.NotContains(t, names(records), "deep.go")
}

func TestList_Classifier(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, filepath.Join(root, "thing.xyz"), "")
	over := classify.NewOverrides([]classify.Mapping{{Extension: ".xyz", Category: classify.Code}})

	records, err := List(root, Options{Classifier: over})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, classify.Code, records[0].Category)
}
