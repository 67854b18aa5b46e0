package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newLedger(opts ...Option) *Ledger {
	return New(NewMemoryStore(), opts...)
}

func TestPayload_EncodeDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload Payload
		want    string
	}{
		{"move", Move{From: "/a", To: "/b"}, `{"action":"move","new_path":"/b","original_path":"/a"}`},
		{"copy", Copy{To: "/c"}, `{"action":"copy","copied_path":"/c"}`},
		{"rename", Rename{From: "/a", To: "/b"}, `{"action":"rename","new_path":"/b","original_path":"/a"}`},
		{"delete", Delete{Path: "/d", ToTrash: true}, `{"action":"delete","deleted_path":"/d","to_trash":true}`},
		{"batch", Batch{Pairs: []Pair{{From: "/a", To: "/x/a"}}}, `{"action":"batch","files":[{"original_path":"/a","new_path":"/x/a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := Encode(tt.payload)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, got)
		})
	}
}

func TestDecode_LegacyShapes(t *testing.T) {
	t.Parallel()

	got, err := Decode([]byte(`[["/a","/x/a"],["/b","/x/b"],["",""]]`))
	require.NoError(t, err)
	assert.Equal(t, Batch{Pairs: []Pair{{From: "/a", To: "/x/a"}, {From: "/b", To: "/x/b"}}}, got)

	got, err = Decode([]byte(`{"action":"rename","files":[{"original_path":"/a","new_path":"/b"}]}`))
	require.NoError(t, err)
	assert.Equal(t, Batch{Pairs: []Pair{{From: "/a", To: "/b"}}}, got)

	_, err = Decode([]byte(`{"action":"explode"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestLedger_RecordGetList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := newLedger()

	id1, err := l.Record(ctx, OpCopy, "copy a", Copy{To: "/a"}, 1)
	require.NoError(t, err)
	id2, err := l.Record(ctx, OpMove, "move b", Move{From: "/b", To: "/c"}, 1)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	e, err := l.Get(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, OpMove, e.Operation)
	assert.Equal(t, Move{From: "/b", To: "/c"}, e.Payload)
	assert.False(t, e.CreatedAt.IsZero())

	list, err := l.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id2, list[0].ID, "newest first")
	assert.Equal(t, Copy{To: "/a"}, list[1].Payload)

	list, err = l.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id1, list[0].ID)

	_, err = l.Get(ctx, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, l.Clear(ctx))
	list, err = l.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUndo_Move(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	from := filepath.Join(dir, "gone", "a.txt")
	to := filepath.Join(dir, "b.txt")
	write(t, to, "a")

	l := newLedger()
	id, err := l.Record(ctx, OpMove, "move", Move{From: from, To: to}, 1)
	require.NoError(t, err)

	require.NoError(t, l.Undo(ctx, id))
	assert.FileExists(t, from)
	assert.NoFileExists(t, to)

	err = l.Undo(ctx, id)
	assert.ErrorIs(t, err, types.ErrAlreadyUndone)
	assert.FileExists(t, from, "a second undo performs no I/O")
}

func TestUndo_MoveMissingDestinationIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	l := newLedger()
	id, err := l.Record(ctx, OpMove, "move", Move{From: filepath.Join(dir, "a"), To: filepath.Join(dir, "b")}, 1)
	require.NoError(t, err)
	require.NoError(t, l.Undo(ctx, id))

	e, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, e.Undone)
}

func TestUndo_CopyAndRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	l := newLedger()

	copied := filepath.Join(dir, "copy.txt")
	write(t, copied, "c")
	id, err := l.Record(ctx, OpCopy, "copy", Copy{To: copied}, 1)
	require.NoError(t, err)
	require.NoError(t, l.Undo(ctx, id))
	assert.NoFileExists(t, copied)

	orig := filepath.Join(dir, "old.txt")
	renamed := filepath.Join(dir, "new.txt")
	write(t, renamed, "r")
	id, err = l.Record(ctx, OpRename, "rename", Rename{From: orig, To: renamed}, 1)
	require.NoError(t, err)
	require.NoError(t, l.Undo(ctx, id))
	assert.FileExists(t, orig)
	assert.NoFileExists(t, renamed)
}

func TestUndo_RenameRefusesOccupiedOriginal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	orig := filepath.Join(dir, "old.txt")
	renamed := filepath.Join(dir, "new.txt")
	write(t, orig, "someone else")
	write(t, renamed, "r")

	l := newLedger()
	id, err := l.Record(ctx, OpRename, "rename", Rename{From: orig, To: renamed}, 1)
	require.NoError(t, err)

	err = l.Undo(ctx, id)
	assert.ErrorIs(t, err, types.ErrAlreadyExists)

	e, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, e.Undone, "failed single undo leaves the entry undoable")
}

func TestUndo_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var restored []string
	l := newLedger(WithRestorer(func(p string) error {
		if p == "/fail" {
			return errors.New("not in trash")
		}
		restored = append(restored, p)
		return nil
	}))

	id, err := l.Record(ctx, OpDelete, "rm", Delete{Path: "/perm", ToTrash: false}, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, l.Undo(ctx, id), types.ErrCannotUndo)

	id, err = l.Record(ctx, OpDelete, "rm", Delete{Path: "/fail", ToTrash: true}, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, l.Undo(ctx, id), types.ErrCannotUndo)

	id, err = l.Record(ctx, OpDelete, "rm", Delete{Path: "/ok", ToTrash: true}, 1)
	require.NoError(t, err)
	require.NoError(t, l.Undo(ctx, id))
	assert.Equal(t, []string{"/ok"}, restored)
}

func TestUndo_BatchCleansEmptyFolders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()

	pairs := []Pair{
		{From: filepath.Join(root, "a.jpg"), To: filepath.Join(root, "Images", "2024-01", "a.jpg")},
		{From: filepath.Join(root, "b.pdf"), To: filepath.Join(root, "Documents", "b.pdf")},
	}
	for _, p := range pairs {
		write(t, p.To, filepath.Base(p.To))
	}

	l := newLedger()
	id, err := l.Record(ctx, OpOrganize, "organize", Batch{Pairs: pairs}, len(pairs))
	require.NoError(t, err)
	require.NoError(t, l.Undo(ctx, id))

	for _, p := range pairs {
		assert.FileExists(t, p.From)
		assert.NoFileExists(t, p.To)
	}
	assert.NoDirExists(t, filepath.Join(root, "Images"))
	assert.NoDirExists(t, filepath.Join(root, "Documents"))
	assert.DirExists(t, root)
}

func TestUndo_BatchPartialFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()

	ok := Pair{From: filepath.Join(root, "a.txt"), To: filepath.Join(root, "Docs", "a.txt")}
	blocked := Pair{From: filepath.Join(root, "b.txt"), To: filepath.Join(root, "Docs", "b.txt")}
	write(t, ok.To, "a")
	write(t, blocked.To, "b")
	write(t, blocked.From, "occupant")

	l := newLedger()
	id, err := l.Record(ctx, OpOrganize, "organize", Batch{Pairs: []Pair{ok, blocked}}, 2)
	require.NoError(t, err)

	err = l.Undo(ctx, id)
	var partial *types.PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Succeeded)
	require.Len(t, partial.Errors, 1)
	assert.Contains(t, partial.Errors[0], blocked.To)

	assert.FileExists(t, ok.From)
	assert.FileExists(t, blocked.To)
	assert.DirExists(t, filepath.Join(root, "Docs"), "non-empty folder is kept")

	e, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, e.Undone)
	assert.ErrorIs(t, l.Undo(ctx, id), types.ErrAlreadyUndone)
}
