package fingerprint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// pattern returns n deterministic bytes.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// flipped returns a copy of data with the byte at i inverted.
func flipped(data []byte, i int) []byte {
	out := bytes.Clone(data)
	out[i] ^= 0xff
	return out
}

func TestCompute_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int
		// flip is a byte offset that differs between the two files.
		flip     int
		sameHash bool
	}{
		{name: "exactly one window, last byte differs", size: WindowSize, flip: WindowSize - 1, sameHash: false},
		{name: "one past one window, tail byte unread", size: WindowSize + 1, flip: WindowSize, sameHash: true},
		{name: "exactly two windows, head only", size: TailThreshold, flip: TailThreshold - 1, sameHash: true},
		{name: "two windows plus one, tail read", size: TailThreshold + 1, flip: TailThreshold, sameHash: false},
		{name: "large file, middle differs", size: 4 * WindowSize, flip: 2 * WindowSize, sameHash: true},
		{name: "large file, head differs", size: 4 * WindowSize, flip: 0, sameHash: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			data := pattern(tt.size)
			a := write(t, dir, "a.bin", data)
			b := write(t, dir, "b.bin", flipped(data, tt.flip))

			fa, err := Compute(a)
			require.NoError(t, err)
			fb, err := Compute(b)
			require.NoError(t, err)

			assert.Equal(t, int64(tt.size), fa.Size)
			assert.Equal(t, tt.sameHash, fa == fb)
		})
	}
}

func TestCompute_LengthIsHashed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := Compute(write(t, dir, "a", []byte("abc")))
	require.NoError(t, err)
	b, err := Compute(write(t, dir, "b", []byte("abc\x00")))
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest, b.Digest)
}

func TestCompute_Empty(t *testing.T) {
	t.Parallel()

	fp, err := Compute(write(t, t.TempDir(), "empty", nil))
	require.NoError(t, err)
	assert.Zero(t, fp.Size)
	assert.Len(t, fp.String(), 16)
}

func TestCompute_Missing(t *testing.T) {
	t.Parallel()

	_, err := Compute(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestFromReader_Short(t *testing.T) {
	t.Parallel()

	// Claimed size exceeds available content.
	_, err := FromReader(bytes.NewReader([]byte("tiny")), 10)
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00000000000000ff", Fingerprint{Digest: 255}.String())
}

func TestDirect(t *testing.T) {
	t.Parallel()

	path := write(t, t.TempDir(), "x", []byte("hello"))
	want, err := Compute(path)
	require.NoError(t, err)

	got, err := Direct{}.Hash(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
