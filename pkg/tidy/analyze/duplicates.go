// Package analyze reports on the contents of a directory tree: duplicate
// files, empty folders, large files, per-folder size trees and category
// statistics. Nothing in this package modifies the file system.
package analyze

import (
	"sort"
	"sync"

	"github.com/jamesainslie/tidy/pkg/tidy/fingerprint"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/tuner"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("analyze")

// Options configures a duplicate scan.
type Options struct {
	// Hasher fingerprints candidate files. Nil hashes directly.
	Hasher fingerprint.Hasher

	// Exclude skips matching files and directories.
	Exclude inventory.Excluder

	// Classifier assigns categories to the returned records.
	Classifier types.Classifier

	// SkipHidden leaves hidden files and directories out of the scan.
	SkipHidden bool

	// Workers is the number of files hashed concurrently. Zero sizes the
	// pool from the detected CPU count. Hasher must be safe for concurrent
	// use when Workers is not 1.
	Workers int

	// Progress is called after each candidate file is hashed, always from
	// the calling goroutine.
	Progress func(done, total int)
}

// DuplicateGroup is a set of files that share a fingerprint.
type DuplicateGroup struct {
	Fingerprint fingerprint.Fingerprint `json:"-" yaml:"-"`
	Hash        string                  `json:"hash" yaml:"hash"`
	Size        int64                   `json:"size" yaml:"size"`
	Files       []types.FileRecord      `json:"files" yaml:"files"`
}

// Wasted returns the bytes that deleting all but one copy would free.
func (g DuplicateGroup) Wasted() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}

// FindDuplicates groups the regular files under root by fingerprint.
//
// Files are first bucketed by size; only buckets with more than one member
// are hashed. Empty files are ignored. Files that cannot be hashed are
// skipped. Groups are returned in descending order of wasted space, ties
// keeping the order in which they were discovered.
func FindDuplicates(root string, opts Options) ([]DuplicateGroup, error) {
	files, err := inventory.Files(root, inventory.Options{
		IncludeHidden: !opts.SkipHidden,
		Classifier:    opts.Classifier,
		Exclude:       opts.Exclude,
	})
	if err != nil {
		return nil, err
	}

	hasher := opts.Hasher
	if hasher == nil {
		hasher = fingerprint.Direct{}
	}

	bySize := make(map[int64][]types.FileRecord)
	var sizes []int64
	for _, f := range files {
		if f.Size == 0 {
			continue
		}
		if _, ok := bySize[f.Size]; !ok {
			sizes = append(sizes, f.Size)
		}
		bySize[f.Size] = append(bySize[f.Size], f)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	var candidates []types.FileRecord
	for _, size := range sizes {
		if len(bySize[size]) > 1 {
			candidates = append(candidates, bySize[size]...)
		}
	}
	logger.Debug("duplicate candidates", "root", root, "files", len(files), "candidates", len(candidates))

	results := hashAll(candidates, hasher, opts)

	var groups []DuplicateGroup
	start := 0
	for start < len(candidates) {
		size := candidates[start].Size
		end := start
		for end < len(candidates) && candidates[end].Size == size {
			end++
		}

		index := make(map[fingerprint.Fingerprint]int)
		var local []DuplicateGroup
		for i := start; i < end; i++ {
			r := results[i]
			if r.err != nil {
				logger.Debug("skipping unhashable file", "path", candidates[i].Path, "error", r.err)
				continue
			}
			n, ok := index[r.fp]
			if !ok {
				n = len(local)
				index[r.fp] = n
				local = append(local, DuplicateGroup{Fingerprint: r.fp, Hash: r.fp.String(), Size: size})
			}
			local[n].Files = append(local[n].Files, candidates[i])
		}

		for _, g := range local {
			if len(g.Files) > 1 {
				groups = append(groups, g)
			}
		}
		start = end
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Wasted() > groups[j].Wasted()
	})

	logger.Info("duplicate scan complete", "root", root, "groups", len(groups))
	return groups, nil
}

type hashResult struct {
	fp  fingerprint.Fingerprint
	err error
}

// hashAll fingerprints files on a worker pool. Results are positional so
// grouping keeps discovery order regardless of completion order.
func hashAll(files []types.FileRecord, hasher fingerprint.Hasher, opts Options) []hashResult {
	results := make([]hashResult, len(files))
	if len(files) == 0 {
		return results
	}

	pool := tuner.Auto(opts.Workers)
	workers := min(pool.Workers, len(files))
	jobs := make(chan int, min(pool.QueueSize, len(files)))
	done := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fp, err := hasher.Hash(files[i].Path)
				results[i] = hashResult{fp: fp, err: err}
				done <- struct{}{}
			}
		}()
	}

	go func() {
		for i := range files {
			jobs <- i
		}
		close(jobs)
	}()

	for n := 1; n <= len(files); n++ {
		<-done
		if opts.Progress != nil {
			opts.Progress(n, len(files))
		}
	}
	wg.Wait()

	return results
}

// TotalWasted sums the wasted space across groups.
func TotalWasted(groups []DuplicateGroup) int64 {
	var n int64
	for _, g := range groups {
		n += g.Wasted()
	}
	return n
}
