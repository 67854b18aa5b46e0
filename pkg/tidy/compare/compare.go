// Package compare diffs two folder trees by relative path and content
// fingerprint, and merges one into the other.
package compare

import (
	"path/filepath"
	"sort"

	"github.com/jamesainslie/tidy/pkg/tidy/fingerprint"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("compare")

// Status describes how a relative path differs between two trees.
type Status string

// Comparison statuses.
const (
	OnlySource Status = "only_in_source"
	OnlyTarget Status = "only_in_target"
	Identical  Status = "identical"
	Different  Status = "different"
)

// Entry is one relative path in a comparison.
type Entry struct {
	RelativePath string            `json:"relative_path" yaml:"relative_path"`
	Status       Status            `json:"status" yaml:"status"`
	Source       *types.FileRecord `json:"source,omitempty" yaml:"source,omitempty"`
	Target       *types.FileRecord `json:"target,omitempty" yaml:"target,omitempty"`

	// SizeDelta is source size minus target size; a missing side counts as 0.
	SizeDelta int64 `json:"size_delta" yaml:"size_delta"`
}

// Summary totals a comparison.
type Summary struct {
	SourcePath string `json:"source_path" yaml:"source_path"`
	TargetPath string `json:"target_path" yaml:"target_path"`
	TotalFiles int    `json:"total_files" yaml:"total_files"`
	OnlySource int    `json:"only_in_source" yaml:"only_in_source"`
	OnlyTarget int    `json:"only_in_target" yaml:"only_in_target"`
	Identical  int    `json:"identical" yaml:"identical"`
	Different  int    `json:"different" yaml:"different"`
	SourceSize int64  `json:"source_total_size" yaml:"source_total_size"`
	TargetSize int64  `json:"target_total_size" yaml:"target_total_size"`
}

// Result is a full comparison.
type Result struct {
	Summary Summary `json:"summary" yaml:"summary"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Options configures a comparison.
type Options struct {
	// Hasher fingerprints files. Nil hashes directly.
	Hasher fingerprint.Hasher
}

type side struct {
	rec types.FileRecord
	fp  fingerprint.Fingerprint
	ok  bool
}

// Folders compares every regular file under source with the file at the
// same relative path under target. Entries are sorted by relative path.
func Folders(source, target string, opts Options) (*Result, error) {
	hasher := opts.Hasher
	if hasher == nil {
		hasher = fingerprint.Direct{}
	}

	src, err := collect(source, hasher)
	if err != nil {
		return nil, err
	}
	tgt, err := collect(target, hasher)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(src)+len(tgt))
	for rel, s := range src {
		e := Entry{RelativePath: rel, Source: &s.rec}
		t, ok := tgt[rel]
		switch {
		case !ok:
			e.Status = OnlySource
			e.SizeDelta = s.rec.Size
		default:
			e.Target = &t.rec
			e.SizeDelta = s.rec.Size - t.rec.Size
			e.Status = Different
			if s.ok && t.ok && s.fp == t.fp {
				e.Status = Identical
			}
		}
		entries = append(entries, e)
	}
	for rel, t := range tgt {
		if _, ok := src[rel]; ok {
			continue
		}
		entries = append(entries, Entry{
			RelativePath: rel,
			Status:       OnlyTarget,
			Target:       &t.rec,
			SizeDelta:    -t.rec.Size,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})

	res := &Result{Entries: entries, Summary: Summarize(entries)}
	res.Summary.SourcePath, _ = filepath.Abs(source)
	res.Summary.TargetPath, _ = filepath.Abs(target)
	logger.Info("compared folders", "source", source, "target", target,
		"files", res.Summary.TotalFiles, "different", res.Summary.Different)
	return res, nil
}

// Summarize recomputes the totals for a list of entries.
func Summarize(entries []Entry) Summary {
	var s Summary
	s.TotalFiles = len(entries)
	for _, e := range entries {
		switch e.Status {
		case OnlySource:
			s.OnlySource++
		case OnlyTarget:
			s.OnlyTarget++
		case Identical:
			s.Identical++
		case Different:
			s.Different++
		}
		if e.Source != nil {
			s.SourceSize += e.Source.Size
		}
		if e.Target != nil {
			s.TargetSize += e.Target.Size
		}
	}
	return s
}

func collect(root string, hasher fingerprint.Hasher) (map[string]side, error) {
	files, err := inventory.Files(root, inventory.Options{IncludeHidden: true})
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, types.IOError("compare", root, err)
	}

	out := make(map[string]side, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(abs, f.Path)
		if err != nil {
			continue
		}
		s := side{rec: f}
		if s.fp, err = hasher.Hash(f.Path); err != nil {
			logger.Debug("could not fingerprint file", "path", f.Path, "error", err)
		} else {
			s.ok = true
		}
		out[filepath.ToSlash(rel)] = s
	}
	return out, nil
}
