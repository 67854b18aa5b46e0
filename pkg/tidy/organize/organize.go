// Package organize sorts the files of a folder into per-category
// subfolders.
package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("organize")

// Mapper classifies an extension and names its destination folder.
// *classify.Overrides and classify.Builtin implement it.
type Mapper interface {
	Classify(ext string) classify.Category
	Folder(ext string) string
}

// Date subfolder formats.
const (
	DateYearMonth      = "YYYY-MM"
	DateYearSlashMonth = "YYYY/MM"
	DateYear           = "YYYY"
	DateDay            = "YYYY-MM-DD"
)

// Duplicate strategies for a file whose name is taken at the destination.
const (
	DuplicateOverwrite = "overwrite"
	DuplicateRename    = "rename"
	DuplicateSkip      = "skip"
)

// Options configures Organize.
type Options struct {
	// Mapper defaults to the built-in table.
	Mapper Mapper

	// Exclude leaves matching files in place.
	Exclude inventory.Excluder

	// CreateDateSubfolders adds a folder named from the modification time
	// in DateFormat below the category folder.
	CreateDateSubfolders bool
	DateFormat           string

	// Duplicates is one of overwrite, rename ("stem (N).ext") or skip.
	// Unknown values skip.
	Duplicates string
}

// Group is the set of files bound for one folder.
type Group struct {
	Category    classify.Category  `json:"category" yaml:"category"`
	Label       string             `json:"category_label" yaml:"category_label"`
	Destination string             `json:"destination_folder" yaml:"destination_folder"`
	FileCount   int                `json:"file_count" yaml:"file_count"`
	Files       []types.FileRecord `json:"files" yaml:"files"`
}

// Result reports an Organize run.
type Result struct {
	Success      bool     `json:"success" yaml:"success"`
	FilesMoved   int      `json:"files_moved" yaml:"files_moved"`
	FilesSkipped int      `json:"files_skipped" yaml:"files_skipped"`
	Errors       []string `json:"errors" yaml:"errors"`
	HistoryID    int64    `json:"history_id,omitempty" yaml:"history_id,omitempty"`
}

func (o Options) mapper() Mapper {
	if o.Mapper == nil {
		return classify.Builtin{}
	}
	return o.Mapper
}

func (o Options) files(dir string) ([]types.FileRecord, error) {
	return inventory.List(dir, inventory.Options{
		FilesOnly:  true,
		Classifier: o.mapper(),
		Exclude:    o.Exclude,
	})
}

// Preview groups the visible files directly inside dir by destination
// folder, largest group first. Groups of equal size are ordered by folder
// name.
func Preview(dir string, opts Options) ([]Group, error) {
	files, err := opts.files(dir)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, types.IOError("organize", dir, err)
	}

	m := opts.mapper()
	byFolder := make(map[string]*Group)
	for _, f := range files {
		folder := m.Folder(f.Extension)
		g, ok := byFolder[folder]
		if !ok {
			g = &Group{
				Category:    f.Category,
				Label:       f.Category.Label(),
				Destination: filepath.Join(base, folder),
			}
			byFolder[folder] = g
		}
		g.Files = append(g.Files, f)
		g.FileCount++
	}

	groups := make([]Group, 0, len(byFolder))
	for _, g := range byFolder {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].FileCount != groups[j].FileCount {
			return groups[i].FileCount > groups[j].FileCount
		}
		return groups[i].Destination < groups[j].Destination
	})
	return groups, nil
}

// Organize moves every visible file directly inside dir into its category
// folder. An organize entry holding the completed moves is recorded when
// rec is not nil, even when nothing moved.
func Organize(ctx context.Context, dir string, opts Options, rec history.Recorder) (*Result, error) {
	files, err := opts.files(dir)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, types.IOError("organize", dir, err)
	}

	m := opts.mapper()
	res := &Result{Errors: []string{}}
	var pairs []history.Pair
	for _, f := range files {
		dest := filepath.Join(base, m.Folder(f.Extension))
		if opts.CreateDateSubfolders {
			dest = filepath.Join(dest, DateFolder(f.Modified, opts.DateFormat))
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			res.Errors = append(res.Errors, types.ItemError(f.Name, types.IOError("organize", dest, err)))
			continue
		}

		target := filepath.Join(dest, f.Name)
		if fsutil.Exists(target) {
			switch opts.Duplicates {
			case DuplicateRename:
				target = fsutil.UniqueNumbered(target)
			case DuplicateOverwrite:
			default:
				logger.Debug("destination exists, skipping", "path", target)
				res.FilesSkipped++
				continue
			}
		}

		if err := fsutil.MoveFile(f.Path, target); err != nil {
			res.Errors = append(res.Errors, types.ItemError(f.Name, err))
			continue
		}
		pairs = append(pairs, history.Pair{From: f.Path, To: target})
		res.FilesMoved++
	}

	if rec != nil {
		id, err := rec.Record(ctx, history.OpOrganize,
			fmt.Sprintf("Organized %s: %d files moved", filepath.Base(base), res.FilesMoved),
			history.Batch{Pairs: pairs}, res.FilesMoved)
		if err != nil {
			res.Errors = append(res.Errors, types.ItemError("history", err))
		}
		res.HistoryID = id
	}

	res.Success = len(res.Errors) == 0
	logger.Info("organized by category", "dir", base,
		"moved", res.FilesMoved, "skipped", res.FilesSkipped, "errors", len(res.Errors))
	return res, nil
}

// DateFolder names a date subfolder for t. "YYYY/MM" yields two levels.
func DateFolder(t time.Time, format string) string {
	t = t.Local()
	switch strings.ToUpper(format) {
	case DateYearMonth:
		return t.Format("2006-01")
	case DateYearSlashMonth:
		return filepath.Join(t.Format("2006"), t.Format("01"))
	case DateYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}
