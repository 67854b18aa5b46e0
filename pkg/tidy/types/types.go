// Package types provides the core data types shared by every tidy component,
// along with the size and timestamp formatting helpers used to render them.
package types

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// DateTimeLayout is the local-time layout used for rendered timestamps and
// for date conditions in rules.
const DateTimeLayout = "2006-01-02 15:04:05"

// Classifier maps an extension to a category.
type Classifier interface {
	Classify(ext string) classify.Category
}

// FileRecord describes one directory entry at the moment it was listed.
// Records are rebuilt on every pass and never persisted.
type FileRecord struct {
	// Path is the absolute path to the entry.
	Path string `json:"path" yaml:"path"`

	// Name is the base name of the entry.
	Name string `json:"name" yaml:"name"`

	// Extension is lowercase with a leading dot, or empty.
	Extension string `json:"extension" yaml:"extension"`

	// Size is the size in bytes (zero for directories).
	Size int64 `json:"size" yaml:"size"`

	// Created is the birth time, or the modification time where the
	// platform does not report one.
	Created time.Time `json:"created" yaml:"created"`

	// Modified is the last modification time.
	Modified time.Time `json:"modified" yaml:"modified"`

	IsDirectory bool `json:"is_directory" yaml:"is_directory"`
	IsHidden    bool `json:"is_hidden" yaml:"is_hidden"`

	Category classify.Category `json:"category" yaml:"category"`
}

// NewFileRecord builds a record from a stat result. A nil classifier uses
// the built-in table.
func NewFileRecord(path string, info fs.FileInfo, created time.Time, hidden bool, c Classifier) FileRecord {
	if c == nil {
		c = classify.Builtin{}
	}
	rec := FileRecord{
		Path:        path,
		Name:        info.Name(),
		Modified:    info.ModTime(),
		Created:     created,
		IsDirectory: info.IsDir(),
		IsHidden:    hidden,
		Category:    classify.Others,
	}
	if rec.Created.IsZero() {
		rec.Created = rec.Modified
	}
	if !rec.IsDirectory {
		rec.Size = info.Size()
		rec.Extension = Ext(rec.Name)
		rec.Category = c.Classify(rec.Extension)
	}
	return rec
}

// Ext returns the lowercase extension of a file name. Dotfiles without a
// second dot (".bashrc") have no extension.
func Ext(name string) string {
	ext := filepath.Ext(name)
	if ext == name || ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// Stem returns the file name without its extension.
func Stem(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// HumanSize returns the record's size formatted with FormatSize.
func (r FileRecord) HumanSize() string {
	return FormatSize(r.Size)
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string ("512", "100K", "1.5GiB")
// using binary units.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary units ("1.5 MiB").
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatTime renders t in local time with DateTimeLayout. The zero time
// renders as an empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateTimeLayout)
}

// FormatAge renders the time elapsed since t ("3 days ago").
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
