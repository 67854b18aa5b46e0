package compare

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// trees builds a source and target that exercise every status.
func trees(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	src, tgt := filepath.Join(base, "src"), filepath.Join(base, "tgt")

	write(t, filepath.Join(src, "same.txt"), "identical")
	write(t, filepath.Join(tgt, "same.txt"), "identical")
	write(t, filepath.Join(src, "diff.txt"), "source version")
	write(t, filepath.Join(tgt, "diff.txt"), "tgt")
	write(t, filepath.Join(src, "sub", "only-src.txt"), "new")
	write(t, filepath.Join(tgt, "only-tgt.txt"), "old!")
	return src, tgt
}

func byPath(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.RelativePath] = e
	}
	return m
}

func TestFolders(t *testing.T) {
	t.Parallel()

	src, tgt := trees(t)
	res, err := Folders(src, tgt, Options{})
	require.NoError(t, err)

	var rels []string
	for _, e := range res.Entries {
		rels = append(rels, e.RelativePath)
	}
	assert.Equal(t, []string{"diff.txt", "only-tgt.txt", "same.txt", "sub/only-src.txt"}, rels)

	m := byPath(res.Entries)
	assert.Equal(t, Identical, m["same.txt"].Status)
	assert.Equal(t, int64(0), m["same.txt"].SizeDelta)
	assert.Equal(t, Different, m["diff.txt"].Status)
	assert.Equal(t, int64(len("source version")-len("tgt")), m["diff.txt"].SizeDelta)
	assert.Equal(t, OnlySource, m["sub/only-src.txt"].Status)
	assert.Equal(t, int64(3), m["sub/only-src.txt"].SizeDelta)
	assert.Nil(t, m["sub/only-src.txt"].Target)
	assert.Equal(t, OnlyTarget, m["only-tgt.txt"].Status)
	assert.Equal(t, int64(-4), m["only-tgt.txt"].SizeDelta)
	assert.Nil(t, m["only-tgt.txt"].Source)

	assert.Equal(t, Summarize(res.Entries).TotalFiles, res.Summary.TotalFiles)
	assert.Equal(t, 1, res.Summary.Identical)
	assert.Equal(t, 1, res.Summary.Different)
	assert.Equal(t, 1, res.Summary.OnlySource)
	assert.Equal(t, 1, res.Summary.OnlyTarget)
	assert.Equal(t, int64(len("identical")+len("source version")+3), res.Summary.SourceSize)
	assert.Equal(t, int64(len("identical")+3+4), res.Summary.TargetSize)
}

func TestFolders_Symmetric(t *testing.T) {
	t.Parallel()

	src, tgt := trees(t)
	fwd, err := Folders(src, tgt, Options{})
	require.NoError(t, err)
	rev, err := Folders(tgt, src, Options{})
	require.NoError(t, err)

	mirror := map[Status]Status{
		OnlySource: OnlyTarget,
		OnlyTarget: OnlySource,
		Identical:  Identical,
		Different:  Different,
	}

	require.Len(t, rev.Entries, len(fwd.Entries))
	r := byPath(rev.Entries)
	for _, e := range fwd.Entries {
		other, ok := r[e.RelativePath]
		require.True(t, ok, e.RelativePath)
		assert.Equal(t, mirror[e.Status], other.Status, e.RelativePath)
		assert.Equal(t, -e.SizeDelta, other.SizeDelta, e.RelativePath)
	}
	assert.Equal(t, fwd.Summary.SourceSize, rev.Summary.TargetSize)
	assert.Equal(t, fwd.Summary.OnlySource, rev.Summary.OnlyTarget)
}

func TestFolders_MissingRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Folders(filepath.Join(dir, "nope"), dir, Options{})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = Folders(dir, filepath.Join(dir, "nope"), Options{})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMerge_DefaultCopiesOnlySource(t *testing.T) {
	t.Parallel()

	src, tgt := trees(t)
	res, err := Merge(src, tgt, DefaultMergeOptions())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.FilesCopied)
	assert.Equal(t, 0, res.FilesOverwritten)
	assert.Equal(t, 2, res.FilesSkipped, "identical and target-only entries")
	assert.Equal(t, int64(3), res.BytesTransferred)
	assert.Equal(t, "new", read(t, filepath.Join(tgt, "sub", "only-src.txt")))
	assert.Equal(t, "tgt", read(t, filepath.Join(tgt, "diff.txt")))
}

func TestMerge_Strategies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		strategy    Strategy
		srcNewer    bool
		wantContent string
		wantOver    int
		wantCopied  int
		wantSkipped int
	}{
		{"skip existing", SkipExisting, true, "tgt", 0, 0, 3},
		{"overwrite all", OverwriteAll, false, "source version", 1, 0, 2},
		{"overwrite newer with newer source", OverwriteNewer, true, "source version", 1, 0, 2},
		{"overwrite newer with older source", OverwriteNewer, false, "tgt", 0, 0, 2},
		{"overwrite older with older source", OverwriteOlder, false, "source version", 1, 0, 2},
		{"rename", Rename, true, "tgt", 0, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, tgt := trees(t)
			now := time.Now()
			srcTime, tgtTime := now.Add(-time.Hour), now
			if tt.srcNewer {
				srcTime, tgtTime = now, now.Add(-time.Hour)
			}
			require.NoError(t, os.Chtimes(filepath.Join(src, "diff.txt"), srcTime, srcTime))
			require.NoError(t, os.Chtimes(filepath.Join(tgt, "diff.txt"), tgtTime, tgtTime))

			res, err := Merge(src, tgt, MergeOptions{Strategy: tt.strategy, IncludeDifferent: true})
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, tt.wantContent, read(t, filepath.Join(tgt, "diff.txt")))
			assert.Equal(t, tt.wantOver, res.FilesOverwritten)
			assert.Equal(t, tt.wantCopied, res.FilesCopied)
			assert.Equal(t, tt.wantSkipped, res.FilesSkipped)

			if tt.strategy == Rename {
				assert.Equal(t, "source version", read(t, filepath.Join(tgt, "diff_1.txt")))
			}
		})
	}
}

func TestMerge_DeleteSourceAfter(t *testing.T) {
	t.Parallel()

	src, tgt := trees(t)
	opts := DefaultMergeOptions()
	opts.DeleteSourceAfter = true

	res, err := Merge(src, tgt, opts)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NoDirExists(t, src)
	assert.FileExists(t, filepath.Join(tgt, "sub", "only-src.txt"))
}

func TestMerge_CreatesTarget(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	src := filepath.Join(base, "src")
	write(t, filepath.Join(src, "a.txt"), "a")

	res, err := Merge(src, filepath.Join(base, "new", "tgt"), DefaultMergeOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesCopied)
	assert.FileExists(t, filepath.Join(base, "new", "tgt", "a.txt"))
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	s, err := ParseStrategy("Overwrite-Newer")
	require.NoError(t, err)
	assert.Equal(t, OverwriteNewer, s)

	_, err = ParseStrategy("bogus")
	assert.Error(t, err)
}
