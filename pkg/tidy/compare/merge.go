package compare

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Strategy decides what happens when a file already exists in the target.
type Strategy string

// Merge strategies.
const (
	SkipExisting   Strategy = "skip_existing"
	OverwriteAll   Strategy = "overwrite_all"
	OverwriteNewer Strategy = "overwrite_newer"
	OverwriteOlder Strategy = "overwrite_older"
	Rename         Strategy = "rename"
)

// Strategies lists every strategy.
func Strategies() []Strategy {
	return []Strategy{SkipExisting, OverwriteAll, OverwriteNewer, OverwriteOlder, Rename}
}

// ParseStrategy parses a strategy name. Dashes are accepted in place of
// underscores.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, st := range Strategies() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown merge strategy %q", s)
}

// MergeOptions configures Merge.
type MergeOptions struct {
	Strategy Strategy

	// IncludeOnlySource copies files missing from the target.
	IncludeOnlySource bool

	// IncludeDifferent copies files whose content differs.
	IncludeDifferent bool

	// DeleteSourceAfter removes the source tree when the merge had no errors.
	DeleteSourceAfter bool

	// Compare configures the underlying comparison.
	Compare Options
}

// DefaultMergeOptions copies only files missing from the target.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{Strategy: SkipExisting, IncludeOnlySource: true}
}

// MergeResult reports the outcome of Merge.
type MergeResult struct {
	Success          bool     `json:"success" yaml:"success"`
	FilesCopied      int      `json:"files_copied" yaml:"files_copied"`
	FilesSkipped     int      `json:"files_skipped" yaml:"files_skipped"`
	FilesOverwritten int      `json:"files_overwritten" yaml:"files_overwritten"`
	BytesTransferred int64    `json:"bytes_transferred" yaml:"bytes_transferred"`
	Errors           []string `json:"errors" yaml:"errors"`
}

// Merge copies files from source into target according to opts. The
// target is created when missing. Per-file failures are collected as
// "relative/path: error" and do not stop the merge.
func Merge(source, target string, opts MergeOptions) (*MergeResult, error) {
	if err := inventory.CheckDir("merge", source); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, types.IOError("merge", target, err)
	}
	if opts.Strategy == "" {
		opts.Strategy = SkipExisting
	}

	cmp, err := Folders(source, target, opts.Compare)
	if err != nil {
		return nil, err
	}

	res := &MergeResult{Errors: []string{}}
	for _, e := range cmp.Entries {
		var include bool
		switch e.Status {
		case OnlySource:
			include = opts.IncludeOnlySource
		case Different:
			include = opts.IncludeDifferent
		case Identical, OnlyTarget:
			res.FilesSkipped++
			continue
		}
		if !include || e.Source == nil {
			continue
		}

		dst := filepath.Join(target, filepath.FromSlash(e.RelativePath))
		existed := fsutil.Exists(dst)
		if existed {
			switch opts.Strategy {
			case SkipExisting:
				res.FilesSkipped++
				continue
			case OverwriteNewer, OverwriteOlder:
				if !shouldOverwrite(opts.Strategy, e.Source.Path, dst) {
					logger.Debug("keeping existing file", "path", dst, "strategy", opts.Strategy)
					continue
				}
			case Rename:
				dst = fsutil.UniquePath(dst)
				existed = false
			}
		}

		n, err := fsutil.CopyFile(e.Source.Path, dst)
		if err != nil {
			res.Errors = append(res.Errors, types.ItemError(e.RelativePath, err))
			continue
		}
		res.BytesTransferred += n
		if existed {
			res.FilesOverwritten++
		} else {
			res.FilesCopied++
		}
	}

	if opts.DeleteSourceAfter && len(res.Errors) == 0 {
		if err := os.RemoveAll(source); err != nil {
			res.Errors = append(res.Errors, types.ItemError("delete source", err))
		} else {
			logger.Info("removed merged source", "path", source)
		}
	}

	res.Success = len(res.Errors) == 0
	logger.Info("merged folders", "source", source, "target", target,
		"copied", res.FilesCopied, "overwritten", res.FilesOverwritten,
		"skipped", res.FilesSkipped, "errors", len(res.Errors))
	return res, nil
}

func shouldOverwrite(s Strategy, src, dst string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	if s == OverwriteNewer {
		return si.ModTime().After(di.ModTime())
	}
	return si.ModTime().Before(di.ModTime())
}
