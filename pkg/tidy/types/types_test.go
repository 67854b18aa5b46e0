package types

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "bytes with B suffix", input: "512B", want: 512},
		{name: "kilobytes", input: "100K", want: 100 * 1024},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * 1024},
		{name: "megabytes lowercase", input: "50m", want: 50 * 1024 * 1024},
		{name: "gigabytes with B", input: "2GB", want: 2 * 1024 * 1024 * 1024},
		{name: "terabytes", input: "1T", want: 1024 * 1024 * 1024 * 1024},
		{name: "whitespace", input: "  100M  ", want: 100 * 1024 * 1024},
		{name: "decimal values truncated", input: "1.5G", want: 1610612736},

		{name: "empty string", input: "", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
		{name: "invalid format", input: "100M100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.0 KiB"},
		{1536 * 1024, "1.5 MiB"},
		{1024 * 1024 * 1024, "1.0 GiB"},
		{-2048, "-2.0 KiB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	assert.Equal(t, "2024-03-09 14:05:07", FormatTime(ts))
	assert.Equal(t, "", FormatTime(time.Time{}))
}

func TestExtAndStem(t *testing.T) {
	tests := []struct {
		name, ext, stem string
	}{
		{"photo.JPG", ".jpg", "photo"},
		{"archive.tar.gz", ".gz", "archive.tar"},
		{".bashrc", "", ".bashrc"},
		{"README", "", "README"},
		{"trailing.", "", "trailing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ext, Ext(tt.name))
			assert.Equal(t, tt.stem, Stem(tt.name))
		})
	}
}

func TestNewFileRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Holiday.PNG")
	require.NoError(t, os.WriteFile(path, []byte("pixels"), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)

	rec := NewFileRecord(path, info, time.Time{}, false, nil)
	assert.Equal(t, "Holiday.PNG", rec.Name)
	assert.Equal(t, ".png", rec.Extension)
	assert.Equal(t, int64(6), rec.Size)
	assert.Equal(t, classify.Images, rec.Category)
	assert.Equal(t, rec.Modified, rec.Created, "missing birth time falls back to mtime")
	assert.Equal(t, "6 B", rec.HumanSize())

	dinfo, err := os.Stat(dir)
	require.NoError(t, err)
	drec := NewFileRecord(dir, dinfo, time.Time{}, false, nil)
	assert.True(t, drec.IsDirectory)
	assert.Zero(t, drec.Size)
	assert.Equal(t, classify.Others, drec.Category)
}

func TestPathError(t *testing.T) {
	cause := errors.New("permission denied")
	err := IOError("read", "/tmp/x", cause)

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/tmp/x")
	assert.Contains(t, err.Error(), "read")

	nf := NotFound("move", "/missing")
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Equal(t, "move /missing: not found", nf.Error())

	var pe *PathError
	require.ErrorAs(t, error(nf), &pe)
	assert.Equal(t, "/missing", pe.Path)
}

func TestPartialFailure(t *testing.T) {
	err := &PartialFailure{Succeeded: 2, Errors: []string{ItemError("a.txt", errors.New("boom"))}}
	assert.Equal(t, "2 succeeded, 1 failed: a.txt: boom", err.Error())
}
